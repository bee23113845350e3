package locationflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/SAP-F-2025/survey-service/internal/models"
)

type State string

const (
	StateIdle          State = "idle"
	StateConfirm       State = "confirm"
	StateActivities    State = "activities"
	StateHours         State = "hours"
	StateReason        State = "reason"
	StateQuality       State = "quality"
	StateWhyQuality    State = "why-quality"
	StateAccessibility State = "accessibility"
	StateDone          State = "done"
	StateDeleteConfirm State = "delete-confirm"
	StateCancelled     State = "cancelled"
	StateDeleted       State = "deleted"

	// stateResume sends delete-confirm back to the pane it came from.
	stateResume State = "resume"
)

type Event string

const (
	EventBegin         Event = "begin"
	EventSave          Event = "save"
	EventCancel        Event = "cancel"
	EventDelete        Event = "delete"
	EventConfirmDelete Event = "confirm-delete"
	EventBack          Event = "back"
)

// Panes are the sub-questions in the order they are asked.
var Panes = []State{
	StateConfirm, StateActivities, StateHours, StateReason,
	StateQuality, StateWhyQuality, StateAccessibility,
}

var transitions = buildTransitions()

func buildTransitions() map[State]map[Event]State {
	t := map[State]map[Event]State{
		StateIdle:          {EventBegin: StateConfirm},
		StateDone:          {EventBegin: StateConfirm},
		StateCancelled:     {EventBegin: StateConfirm},
		StateDeleted:       {EventBegin: StateConfirm},
		StateDeleteConfirm: {EventConfirmDelete: StateDeleted, EventBack: stateResume, EventCancel: stateResume},
	}
	for i, pane := range Panes {
		next := StateDone
		if i+1 < len(Panes) {
			next = Panes[i+1]
		}
		t[pane] = map[Event]State{
			EventSave:   next,
			EventCancel: StateCancelled,
			EventDelete: StateDeleteConfirm,
		}
	}
	return t
}

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrNotAccepted       = errors.New("sub-answer not accepted")
	ErrNoSuchPoint       = errors.New("no such location")
)

// MaxHours bounds the hours pane.
const MaxHours = 24

// Sequencer runs the sub-question dialog for one map point at a time over
// the location list of a map question.
type Sequencer struct {
	points  []models.LocationPoint
	current int
	state   State
	resume  State
}

func NewSequencer(points []models.LocationPoint) *Sequencer {
	list := make([]models.LocationPoint, len(points))
	copy(list, points)
	return &Sequencer{points: list, current: -1, state: StateIdle}
}

func (s *Sequencer) State() State {
	return s.state
}

// Active reports whether a point is being edited.
func (s *Sequencer) Active() bool {
	switch s.state {
	case StateIdle, StateDone, StateCancelled, StateDeleted:
		return false
	}
	return true
}

// Points returns a copy of the location list.
func (s *Sequencer) Points() []models.LocationPoint {
	out := make([]models.LocationPoint, len(s.points))
	copy(out, s.points)
	return out
}

// Current returns the point being edited.
func (s *Sequencer) Current() (models.LocationPoint, bool) {
	if s.current < 0 || s.current >= len(s.points) {
		return models.LocationPoint{}, false
	}
	return s.points[s.current], true
}

func (s *Sequencer) fire(e Event) error {
	next, ok := transitions[s.state][e]
	if !ok {
		return fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e, s.state)
	}
	if next == stateResume {
		next = s.resume
	}
	if next == StateDeleteConfirm {
		s.resume = s.state
	}
	s.state = next
	return nil
}

// Begin adds a new point at lat/lng and opens the confirm pane.
func (s *Sequencer) Begin(lat, lng decimal.Decimal) error {
	if err := s.fire(EventBegin); err != nil {
		return err
	}
	s.points = append(s.points, models.LocationPoint{Lat: lat, Lng: lng})
	s.current = len(s.points) - 1
	return nil
}

// Edit reopens an existing point on the confirm pane.
func (s *Sequencer) Edit(index int) error {
	if index < 0 || index >= len(s.points) {
		return fmt.Errorf("%w: %d", ErrNoSuchPoint, index)
	}
	if err := s.fire(EventBegin); err != nil {
		return err
	}
	s.current = index
	return nil
}

// Save validates raw against the current pane, writes it to the matching
// field of the point's record and moves to the next pane. A rejected value
// leaves the state unchanged.
func (s *Sequencer) Save(raw json.RawMessage) error {
	if _, ok := transitions[s.state][EventSave]; !ok {
		return fmt.Errorf("%w: %s on %s", ErrInvalidTransition, EventSave, s.state)
	}
	rec := s.points[s.current].Answers
	if err := apply(&rec, s.state, raw); err != nil {
		return err
	}
	s.points[s.current].Answers = rec
	return s.fire(EventSave)
}

// Cancel drops the point being edited and ends the dialog.
func (s *Sequencer) Cancel() error {
	if s.state == StateDeleteConfirm {
		return s.fire(EventCancel)
	}
	if err := s.fire(EventCancel); err != nil {
		return err
	}
	s.remove()
	return nil
}

// Delete asks for confirmation before removing the point.
func (s *Sequencer) Delete() error {
	return s.fire(EventDelete)
}

// ConfirmDelete removes the point after Delete.
func (s *Sequencer) ConfirmDelete() error {
	if err := s.fire(EventConfirmDelete); err != nil {
		return err
	}
	s.remove()
	return nil
}

// Back dismisses the delete confirmation and returns to the previous pane.
func (s *Sequencer) Back() error {
	return s.fire(EventBack)
}

func (s *Sequencer) remove() {
	if s.current < 0 || s.current >= len(s.points) {
		return
	}
	s.points = append(s.points[:s.current], s.points[s.current+1:]...)
	s.current = -1
}

func apply(rec *models.LocationRecord, pane State, raw json.RawMessage) error {
	switch pane {
	case StateConfirm:
		return nil
	case StateActivities:
		var opts []models.OptionRef
		if err := json.Unmarshal(raw, &opts); err != nil || len(opts) == 0 {
			return fmt.Errorf("%w: choose at least one activity", ErrNotAccepted)
		}
		rec.Activities = opts
	case StateHours:
		h, err := parseHours(raw)
		if err != nil {
			return err
		}
		rec.Hours = &h
	case StateReason:
		o, err := parseOption(raw)
		if err != nil {
			return err
		}
		rec.Reason = o
	case StateQuality:
		o, err := parseOption(raw)
		if err != nil {
			return err
		}
		rec.Quality = o
	case StateWhyQuality:
		var text string
		if err := json.Unmarshal(raw, &text); err != nil || strings.TrimSpace(text) == "" {
			return fmt.Errorf("%w: explain the quality rating", ErrNotAccepted)
		}
		rec.WhyQuality = strings.TrimSpace(text)
	case StateAccessibility:
		var opts []models.OptionRef
		if err := json.Unmarshal(raw, &opts); err != nil || len(opts) == 0 {
			return fmt.Errorf("%w: choose at least one access option", ErrNotAccepted)
		}
		rec.Accessibility = opts
	default:
		return fmt.Errorf("%w: %s has no answer", ErrInvalidTransition, pane)
	}
	return nil
}

func parseHours(raw json.RawMessage) (float64, error) {
	var h float64
	if err := json.Unmarshal(raw, &h); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0, fmt.Errorf("%w: hours must be a number", ErrNotAccepted)
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: hours must be a number", ErrNotAccepted)
		}
		h = parsed
	}
	if math.IsNaN(h) || math.IsInf(h, 0) || h < 0 || h > MaxHours {
		return 0, fmt.Errorf("%w: hours must be between 0 and %d", ErrNotAccepted, MaxHours)
	}
	return h, nil
}

func parseOption(raw json.RawMessage) (*models.OptionRef, error) {
	var o models.OptionRef
	if err := json.Unmarshal(raw, &o); err != nil || o.Text == "" {
		return nil, fmt.Errorf("%w: choose an option", ErrNotAccepted)
	}
	return &o, nil
}
