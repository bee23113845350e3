package flow

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/survey-service/internal/models"
)

type Operator byte

const (
	OpLess     Operator = '<'
	OpGreater  Operator = '>'
	OpEqual    Operator = '='
	OpNotEqual Operator = '!'
)

var ErrInvalidCondition = errors.New("invalid condition")

// Condition is a parsed skip or terminate predicate, e.g. ">3" or "=a|c".
type Condition struct {
	Op       Operator
	Criteria []string
}

// ParseCondition reads an operator followed by one or more |-separated values.
func ParseCondition(s string) (Condition, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Condition{}, fmt.Errorf("%w: %q", ErrInvalidCondition, s)
	}
	op := Operator(s[0])
	switch op {
	case OpLess, OpGreater, OpEqual, OpNotEqual:
	default:
		return Condition{}, fmt.Errorf("%w: unknown operator %q", ErrInvalidCondition, s[0])
	}
	parts := strings.Split(s[1:], "|")
	criteria := make([]string, 0, len(parts))
	for _, p := range parts {
		criteria = append(criteria, strings.TrimSpace(p))
	}
	return Condition{Op: op, Criteria: criteria}, nil
}

func (c Condition) String() string {
	return string(c.Op) + strings.Join(c.Criteria, "|")
}

// Keep reports whether the question owning this condition should be shown
// given the referenced answer.
//
// The numeric operators read literally: '<' keeps when the answer is at
// least the criteria, '>' keeps when it is at most the criteria.
func (c Condition) Keep(answer models.Answer) bool {
	switch c.Op {
	case OpLess, OpGreater:
		return c.keepNumeric(answer)
	case OpEqual:
		return c.keepEqual(answer)
	case OpNotEqual:
		return !c.keepEqual(answer)
	}
	return true
}

func (c Condition) keepNumeric(answer models.Answer) bool {
	values := answer.Values()
	if len(values) == 0 || len(c.Criteria) == 0 {
		return true
	}
	got, err := strconv.ParseFloat(strings.TrimSpace(values[0]), 64)
	if err != nil {
		return true
	}
	want, err := strconv.ParseFloat(c.Criteria[0], 64)
	if err != nil {
		return true
	}
	if c.Op == OpLess {
		return got >= want
	}
	return got <= want
}

// keepEqual is false when the answer matches the criteria. Lists match on
// a non-empty intersection, scalars on equality or substring containment.
func (c Condition) keepEqual(answer models.Answer) bool {
	if answer.IsList() || len(c.Criteria) > 1 {
		for _, v := range answer.Values() {
			for _, want := range c.Criteria {
				if v == want {
					return false
				}
			}
		}
		return true
	}
	got := answer.Scalar
	want := ""
	if len(c.Criteria) > 0 {
		want = c.Criteria[0]
	}
	if got == want || (want != "" && strings.Contains(got, want)) {
		return false
	}
	return true
}
