package flow

import (
	"sort"

	"github.com/SAP-F-2025/survey-service/internal/models"
)

// AnswerStore holds the current answer per question slug for one session.
type AnswerStore struct {
	answers map[string]models.Answer
}

func NewAnswerStore() *AnswerStore {
	return &AnswerStore{answers: make(map[string]models.Answer)}
}

func (s *AnswerStore) Get(slug string) (models.Answer, bool) {
	a, ok := s.answers[slug]
	return a, ok
}

// Set replaces any earlier answer for slug.
func (s *AnswerStore) Set(slug string, a models.Answer) {
	s.answers[slug] = a
}

// Delete removes the answer for slug and reports whether one was stored.
func (s *AnswerStore) Delete(slug string) bool {
	if _, ok := s.answers[slug]; !ok {
		return false
	}
	delete(s.answers, slug)
	return true
}

func (s *AnswerStore) Len() int {
	return len(s.answers)
}

// Slugs returns the answered slugs in sorted order.
func (s *AnswerStore) Slugs() []string {
	slugs := make([]string, 0, len(s.answers))
	for slug := range s.answers {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}
