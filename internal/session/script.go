package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/SAP-F-2025/survey-service/internal/locationflow"
	"github.com/SAP-F-2025/survey-service/internal/models"
)

// Script is a YAML answer file:
//
//	survey: catch-report
//	respondent: 6f1c...      # optional, resumes or names the session
//	answers:
//	  boats: 2
//	  consent: {text: "Yes", label: "yes"}
//	  fishing-map:
//	    - lat: 45.5
//	      lng: -122.6
//	      activities: [{text: Fishing, label: fishing}]
//	      hours: 4
type Script struct {
	Survey     string         `yaml:"survey"`
	Respondent string         `yaml:"respondent"`
	Surveyor   string         `yaml:"surveyor"`
	TestData   bool           `yaml:"test_data"`
	Answers    map[string]any `yaml:"answers"`
}

func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScript(data)
}

func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse answer script: %w", err)
	}
	if s.Survey == "" {
		return nil, fmt.Errorf("answer script has no survey")
	}
	return &s, nil
}

func (s *Script) Answer(ctx context.Context, q *models.Question) (json.RawMessage, error) {
	v, ok := s.Answers[q.Slug]
	if !ok {
		return nil, ErrNoAnswer
	}
	return json.Marshal(v)
}

func (s *Script) Locations(ctx context.Context, q *models.Question) ([]PointScript, error) {
	v, ok := s.Answers[q.Slug]
	if !ok {
		return nil, ErrNoAnswer
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected a list of points", q.Slug)
	}

	points := make([]PointScript, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: point %d is not a mapping", q.Slug, i+1)
		}
		lat, err := coordinate(m["lat"])
		if err != nil {
			return nil, fmt.Errorf("%s: point %d lat: %w", q.Slug, i+1, err)
		}
		lng, err := coordinate(m["lng"])
		if err != nil {
			return nil, fmt.Errorf("%s: point %d lng: %w", q.Slug, i+1, err)
		}
		p := PointScript{Lat: lat, Lng: lng, Panes: map[locationflow.State]json.RawMessage{}}
		p.Cancel, _ = m["cancel"].(bool)
		p.Delete, _ = m["delete"].(bool)
		for _, pane := range locationflow.Panes {
			if val, ok := m[string(pane)]; ok {
				raw, err := json.Marshal(val)
				if err != nil {
					return nil, err
				}
				p.Panes[pane] = raw
			}
		}
		points = append(points, p)
	}
	return points, nil
}

func coordinate(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case string:
		return decimal.NewFromString(n)
	}
	return decimal.Zero, fmt.Errorf("not a number: %v", v)
}
