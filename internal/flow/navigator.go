package flow

import (
	"errors"
	"fmt"
	"sort"

	"github.com/SAP-F-2025/survey-service/internal/models"
)

var (
	ErrUnknownQuestion   = errors.New("unknown question")
	ErrDuplicateSlug     = errors.New("duplicate question slug")
	ErrForwardReference  = errors.New("condition references a later question")
	ErrNoPreviousStep    = errors.New("already at the first question")
	ErrEmptyDefinition   = errors.New("survey has no questions")
	ErrMissingReferenced = errors.New("condition references a question not in the survey")
)

// Terminal names the synthetic end of a survey.
type Terminal string

const (
	TerminalNone      Terminal = ""
	TerminalComplete  Terminal = "complete"
	TerminalTerminate Terminal = "terminate"
)

// Step is the outcome of a navigation call. Either Question is set or
// Terminal is. Discarded lists the slugs whose stored answers were dropped
// because their question was skipped.
type Step struct {
	Question  *models.Question
	Terminal  Terminal
	Discarded []string
}

func (s Step) Done() bool {
	return s.Terminal != TerminalNone
}

// Slug is the question slug or the terminal name.
func (s Step) Slug() string {
	if s.Question != nil {
		return s.Question.Slug
	}
	return string(s.Terminal)
}

type skipRule struct {
	ref  string
	cond Condition
}

// Definition is the read-only, ordered question list of one survey with its
// conditions parsed.
type Definition struct {
	SurveySlug string
	questions  []models.Question
	index      map[string]int
	skips      map[string][]skipRule
	terms      map[string]Condition
}

// NewDefinition orders the survey's questions and checks that every skip
// condition reads a question that comes earlier.
func NewDefinition(survey *models.Survey) (*Definition, error) {
	if len(survey.Questions) == 0 {
		return nil, ErrEmptyDefinition
	}
	questions := make([]models.Question, len(survey.Questions))
	copy(questions, survey.Questions)
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].Order < questions[j].Order
	})

	d := &Definition{
		SurveySlug: survey.Slug,
		questions:  questions,
		index:      make(map[string]int, len(questions)),
		skips:      make(map[string][]skipRule),
		terms:      make(map[string]Condition),
	}
	for i, q := range questions {
		if _, ok := d.index[q.Slug]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSlug, q.Slug)
		}
		d.index[q.Slug] = i
	}

	for i, q := range questions {
		for _, b := range q.Blocks {
			if b.SkipCondition == nil || *b.SkipCondition == "" {
				continue
			}
			ref := b.ReferenceSlug()
			at, ok := d.index[ref]
			if !ok {
				return nil, fmt.Errorf("%w: %s reads %q", ErrMissingReferenced, q.Slug, ref)
			}
			if at >= i {
				return nil, fmt.Errorf("%w: %s reads %s", ErrForwardReference, q.Slug, ref)
			}
			cond, err := ParseCondition(*b.SkipCondition)
			if err != nil {
				return nil, fmt.Errorf("question %s: %w", q.Slug, err)
			}
			d.skips[q.Slug] = append(d.skips[q.Slug], skipRule{ref: ref, cond: cond})
		}
		if q.TermCondition != nil && *q.TermCondition != "" {
			cond, err := ParseCondition(*q.TermCondition)
			if err != nil {
				return nil, fmt.Errorf("question %s: %w", q.Slug, err)
			}
			d.terms[q.Slug] = cond
		}
	}
	return d, nil
}

func (d *Definition) Len() int {
	return len(d.questions)
}

// Questions returns the ordered questions. Callers must not modify them.
func (d *Definition) Questions() []models.Question {
	return d.questions
}

func (d *Definition) Question(slug string) (*models.Question, bool) {
	i, ok := d.index[slug]
	if !ok {
		return nil, false
	}
	return &d.questions[i], true
}

func (d *Definition) IndexOf(slug string) (int, bool) {
	i, ok := d.index[slug]
	return i, ok
}

// ShouldSkip reports whether q is hidden given the stored answers. Modal
// questions are never skipped. With several conditions the question is
// skipped only when none of them keeps it; a condition whose referenced
// question has no answer keeps it.
func (d *Definition) ShouldSkip(q *models.Question, answers *AnswerStore) bool {
	if q.IsModal() {
		return false
	}
	rules := d.skips[q.Slug]
	if len(rules) == 0 {
		return false
	}
	for _, r := range rules {
		a, ok := answers.Get(r.ref)
		if !ok || r.cond.Keep(a) {
			return false
		}
	}
	return true
}

// Terminates reports whether the question's own answer matches its
// terminate condition.
func (d *Definition) Terminates(q *models.Question, answers *AnswerStore) bool {
	cond, ok := d.terms[q.Slug]
	if !ok {
		return false
	}
	a, ok := answers.Get(q.Slug)
	if !ok {
		return false
	}
	return !cond.Keep(a)
}

// Navigator walks a Definition.
type Navigator struct {
	def *Definition
}

func NewNavigator(def *Definition) *Navigator {
	return &Navigator{def: def}
}

func (n *Navigator) Definition() *Definition {
	return n.def
}

// First returns the first question that is not skipped.
func (n *Navigator) First(answers *AnswerStore) Step {
	return n.walk(answers, 0)
}

// Next returns the question after current, starting skip positions further
// on. Skipped candidates lose their stored answer. A matching terminate
// condition on current ends the survey instead.
func (n *Navigator) Next(answers *AnswerStore, current string, skip int) (Step, error) {
	i, ok := n.def.index[current]
	if !ok {
		return Step{}, fmt.Errorf("%w: %s", ErrUnknownQuestion, current)
	}
	if n.def.Terminates(&n.def.questions[i], answers) {
		return Step{Terminal: TerminalTerminate}, nil
	}
	if skip < 0 {
		skip = 0
	}
	return n.walk(answers, i+1+skip), nil
}

// Previous returns the question immediately before current. Skip logic is
// not applied: answers of skipped questions were already discarded going
// forward.
func (n *Navigator) Previous(current string) (Step, error) {
	i, ok := n.def.index[current]
	if !ok {
		return Step{}, fmt.Errorf("%w: %s", ErrUnknownQuestion, current)
	}
	if i == 0 {
		return Step{}, ErrNoPreviousStep
	}
	return Step{Question: &n.def.questions[i-1]}, nil
}

func (n *Navigator) walk(answers *AnswerStore, from int) Step {
	var step Step
	for i := from; i < len(n.def.questions); i++ {
		q := &n.def.questions[i]
		if n.def.ShouldSkip(q, answers) {
			if answers.Delete(q.Slug) {
				step.Discarded = append(step.Discarded, q.Slug)
			}
			continue
		}
		step.Question = q
		return step
	}
	step.Terminal = TerminalComplete
	return step
}
