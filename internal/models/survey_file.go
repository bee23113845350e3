package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseSurveyDefinition reads a survey definition written as JSON or YAML.
// YAML documents use the same keys as the JSON form.
func ParseSurveyDefinition(data []byte) (*Survey, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("survey definition is empty")
	}

	if data[0] != '{' {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse survey definition: %w", err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("parse survey definition: %w", err)
		}
		data = converted
	}

	var survey Survey
	if err := json.Unmarshal(data, &survey); err != nil {
		return nil, fmt.Errorf("parse survey definition: %w", err)
	}
	return &survey, nil
}
