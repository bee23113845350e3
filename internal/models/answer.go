package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type AnswerKind string

const (
	AnswerScalar     AnswerKind = "scalar"
	AnswerOption     AnswerKind = "option"
	AnswerOptionList AnswerKind = "option-list"
	AnswerLocations  AnswerKind = "locations"
	AnswerGrid       AnswerKind = "grid"
)

// OptionRef references one option of a select question.
type OptionRef struct {
	Text  string `json:"text"`
	Label string `json:"label,omitempty"`
	Other bool   `json:"other,omitempty"`
}

func (o *OptionRef) UnmarshalJSON(data []byte) error {
	var wire struct {
		Text  string `json:"text"`
		Name  string `json:"name"`
		Label string `json:"label"`
		Other bool   `json:"other"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	o.Text = strings.TrimSpace(wire.Text)
	if name := strings.TrimSpace(wire.Name); name != "" {
		o.Text = name
	}
	o.Label = wire.Label
	o.Other = wire.Other
	return nil
}

// LocationRecord holds the sub-answers collected for one map point.
type LocationRecord struct {
	Activities    []OptionRef `json:"activities,omitempty"`
	Hours         *float64    `json:"hours,omitempty"`
	Reason        *OptionRef  `json:"reason,omitempty"`
	Quality       *OptionRef  `json:"quality,omitempty"`
	WhyQuality    string      `json:"why_quality,omitempty"`
	Accessibility []OptionRef `json:"accessibility,omitempty"`
}

// UnmarshalJSON accepts the named form and the legacy positional array
// [activities, hours, reason, quality, why-quality, accessibility].
func (r *LocationRecord) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] != '[' {
		type plain LocationRecord
		var p plain
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*r = LocationRecord(p)
		return nil
	}

	var slots []json.RawMessage
	if err := json.Unmarshal(data, &slots); err != nil {
		return err
	}
	var rec LocationRecord
	for i, slot := range slots {
		if isNull(slot) {
			continue
		}
		switch i {
		case 0:
			rec.Activities = optionsOf(slot)
		case 1:
			if f, ok := numberOf(slot); ok {
				rec.Hours = &f
			}
		case 2:
			rec.Reason = optionOf(slot)
		case 3:
			rec.Quality = optionOf(slot)
		case 4:
			rec.WhyQuality = textOf(slot)
		case 5:
			rec.Accessibility = optionsOf(slot)
		}
	}
	*r = rec
	return nil
}

// Summary renders the record the way the answer column stores it.
func (r LocationRecord) Summary() string {
	var parts []string
	for _, a := range r.Activities {
		parts = append(parts, a.Text)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// LocationPoint is one mapped point with its sub-answers.
type LocationPoint struct {
	Lat     decimal.Decimal `json:"lat"`
	Lng     decimal.Decimal `json:"lng"`
	Answers LocationRecord  `json:"answers"`
	Pennies *float64        `json:"pennies,omitempty"`
}

// GridRow is one row of a grid answer. Values are keyed by column key.
type GridRow struct {
	Label  string
	Text   string
	Values map[string]json.RawMessage
}

func (g *GridRow) UnmarshalJSON(data []byte) error {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	g.Values = make(map[string]json.RawMessage, len(all))
	for k, v := range all {
		switch k {
		case "label":
			g.Label = textOf(v)
		case "text":
			g.Text = textOf(v)
		default:
			g.Values[k] = v
		}
	}
	return nil
}

func (g GridRow) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(g.Values)+2)
	for k, v := range g.Values {
		out[k] = v
	}
	label, _ := json.Marshal(g.Label)
	text, _ := json.Marshal(g.Text)
	out["label"] = label
	out["text"] = text
	return json.Marshal(out)
}

// Column returns the text form of a column value and whether it was present.
func (g GridRow) Column(key string) (string, bool) {
	v, ok := g.Values[key]
	if !ok || isNull(v) {
		return "", false
	}
	s := textOf(v)
	return s, s != ""
}

// ColumnList returns a list-valued column as texts.
func (g GridRow) ColumnList(key string) []string {
	v, ok := g.Values[key]
	if !ok {
		return nil
	}
	var texts []string
	var raw []json.RawMessage
	if err := json.Unmarshal(v, &raw); err != nil {
		if s := textOf(v); s != "" {
			texts = append(texts, s)
		}
		return texts
	}
	for _, item := range raw {
		if o := optionOf(item); o != nil {
			texts = append(texts, o.Text)
		} else if s := textOf(item); s != "" {
			texts = append(texts, s)
		}
	}
	return texts
}

// Answer is the value recorded for one question. Exactly the field matching
// Kind is populated; Raw keeps the submitted JSON.
type Answer struct {
	Kind      AnswerKind
	Scalar    string
	Number    *decimal.Decimal
	Option    *OptionRef
	Options   []OptionRef
	Locations []LocationPoint
	Grid      []GridRow
	Raw       json.RawMessage
}

// ScalarAnswer builds a scalar answer from text.
func ScalarAnswer(s string) Answer {
	raw, _ := json.Marshal(s)
	return Answer{Kind: AnswerScalar, Scalar: s, Raw: raw}
}

// ParseAnswer decodes a raw answer according to the question type. It never
// fails: a value that does not match the expected shape becomes a scalar
// holding the raw text.
func ParseAnswer(qType QuestionType, raw json.RawMessage) Answer {
	raw = bytes.TrimSpace(raw)
	a, err := parseAnswer(qType, raw)
	if err != nil {
		return Answer{Kind: AnswerScalar, Scalar: string(raw), Raw: raw}
	}
	a.Raw = raw
	return a
}

func parseAnswer(qType QuestionType, raw json.RawMessage) (Answer, error) {
	switch {
	case qType.IsSingleChoice():
		if len(raw) > 0 && raw[0] == '{' {
			var o OptionRef
			if err := json.Unmarshal(raw, &o); err != nil {
				return Answer{}, err
			}
			return Answer{Kind: AnswerOption, Option: &o}, nil
		}
		return parseScalar(raw)
	case qType == QuestionMultiSelect:
		var opts []OptionRef
		if err := unmarshalMaybeEncoded(raw, &opts); err != nil {
			return Answer{}, err
		}
		return Answer{Kind: AnswerOptionList, Options: opts}, nil
	case qType.IsGeo():
		var points []LocationPoint
		if err := unmarshalMaybeEncoded(raw, &points); err != nil {
			return Answer{}, err
		}
		return Answer{Kind: AnswerLocations, Locations: points}, nil
	case qType == QuestionGrid:
		var rows []GridRow
		if err := unmarshalMaybeEncoded(raw, &rows); err != nil {
			return Answer{}, err
		}
		return Answer{Kind: AnswerGrid, Grid: rows}, nil
	}
	return parseScalar(raw)
}

func parseScalar(raw json.RawMessage) (Answer, error) {
	if len(raw) == 0 || isNull(raw) {
		return Answer{Kind: AnswerScalar}, nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Answer{}, err
		}
		return Answer{Kind: AnswerScalar, Scalar: s}, nil
	case '{', '[':
		return Answer{}, fmt.Errorf("expected scalar, got %s", raw[:1])
	}
	if d, err := decimal.NewFromString(string(raw)); err == nil {
		return Answer{Kind: AnswerScalar, Scalar: d.String(), Number: &d}, nil
	}
	return Answer{Kind: AnswerScalar, Scalar: string(raw)}, nil
}

// unmarshalMaybeEncoded accepts both a JSON value and a JSON string holding it.
func unmarshalMaybeEncoded(raw json.RawMessage, v any) error {
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return err
		}
		raw = json.RawMessage(inner)
	}
	return json.Unmarshal(raw, v)
}

func (a Answer) IsEmpty() bool {
	switch a.Kind {
	case AnswerOption:
		return a.Option == nil || (a.Option.Text == "" && a.Option.Label == "")
	case AnswerOptionList:
		return len(a.Options) == 0
	case AnswerLocations:
		return len(a.Locations) == 0
	case AnswerGrid:
		return len(a.Grid) == 0
	}
	return strings.TrimSpace(a.Scalar) == ""
}

// IsList reports whether the answer compares as a set of values.
func (a Answer) IsList() bool {
	return a.Kind != AnswerScalar
}

// Values normalises the answer to the texts conditions compare against.
// Option references contribute both text and label.
func (a Answer) Values() []string {
	var out []string
	addOpt := func(o OptionRef) {
		if o.Text != "" {
			out = append(out, o.Text)
		}
		if o.Label != "" && o.Label != o.Text {
			out = append(out, o.Label)
		}
	}
	switch a.Kind {
	case AnswerOption:
		if a.Option != nil {
			addOpt(*a.Option)
		}
	case AnswerOptionList:
		for _, o := range a.Options {
			addOpt(o)
		}
	case AnswerLocations:
		for _, p := range a.Locations {
			for _, o := range p.Answers.Activities {
				addOpt(o)
			}
		}
	case AnswerGrid:
		for _, r := range a.Grid {
			addOpt(OptionRef{Text: r.Text, Label: r.Label})
		}
	default:
		out = append(out, a.Scalar)
	}
	return out
}

// Display is the plain text stored in a response's answer column.
func (a Answer) Display() string {
	switch a.Kind {
	case AnswerOption:
		if a.Option == nil {
			return ""
		}
		return a.Option.Text
	case AnswerOptionList:
		texts := make([]string, 0, len(a.Options))
		for _, o := range a.Options {
			texts = append(texts, o.Text)
		}
		return strings.Join(texts, ", ")
	case AnswerLocations:
		parts := make([]string, 0, len(a.Locations))
		for _, p := range a.Locations {
			parts = append(parts, fmt.Sprintf("%s,%s: %s", p.Lat.String(), p.Lng.String(), p.Answers.Summary()))
		}
		return strings.Join(parts, ", ")
	case AnswerGrid:
		labels := make([]string, 0, len(a.Grid))
		for _, r := range a.Grid {
			labels = append(labels, r.Text)
		}
		return strings.Join(labels, ", ")
	}
	return a.Scalar
}

// PenniesTotal sums the allocation across all points.
func (a Answer) PenniesTotal() float64 {
	var total float64
	for _, p := range a.Locations {
		if p.Pennies != nil {
			total += *p.Pennies
		}
	}
	return total
}

// MarshalJSON writes the wire shape for the answer's kind.
func (a Answer) MarshalJSON() ([]byte, error) {
	if len(a.Raw) > 0 {
		return a.Raw, nil
	}
	switch a.Kind {
	case AnswerOption:
		return json.Marshal(a.Option)
	case AnswerOptionList:
		return json.Marshal(a.Options)
	case AnswerLocations:
		return json.Marshal(a.Locations)
	case AnswerGrid:
		return json.Marshal(a.Grid)
	}
	if a.Number != nil {
		return []byte(a.Number.String()), nil
	}
	return json.Marshal(a.Scalar)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func textOf(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if isNull(raw) {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

func numberOf(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	f, err := strconv.ParseFloat(textOf(raw), 64)
	return f, err == nil
}

func optionOf(raw json.RawMessage) *OptionRef {
	var o OptionRef
	if err := json.Unmarshal(raw, &o); err != nil {
		if s := textOf(raw); s != "" {
			return &OptionRef{Text: s}
		}
		return nil
	}
	return &o
}

func optionsOf(raw json.RawMessage) []OptionRef {
	var opts []OptionRef
	if err := json.Unmarshal(raw, &opts); err == nil {
		return opts
	}
	if o := optionOf(raw); o != nil {
		return []OptionRef{*o}
	}
	return nil
}
