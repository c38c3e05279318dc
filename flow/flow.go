package flow

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidFlow is returned when a flow payload is not a list of step records.
	ErrInvalidFlow = errors.New("flow must be a list of step records")

	// ErrNoValidSteps is returned when none of the records in a flow are usable steps.
	ErrNoValidSteps = errors.New("flow has no valid steps")
)

// ActionType is the kind of recorded interaction.
type ActionType string

const (
	ActionClick      ActionType = "click"
	ActionInput      ActionType = "input"
	ActionNavigation ActionType = "navigation"
)

// Step is one recorded UI action.
type Step struct {
	Type  ActionType `json:"type"`
	Tag   string     `json:"tag,omitempty"`
	XPath string     `json:"xpath,omitempty"`
	Value string     `json:"value,omitempty"`
	URL   string     `json:"url,omitempty"`
}

// Flow is an ordered sequence of recorded steps. Order is execution order.
type Flow []Step

// Skipped describes a record that was dropped while parsing a flow.
type Skipped struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// HasURL reports whether the step carries a navigation target.
func (s Step) HasURL() bool {
	return s.URL != ""
}

// Parse decodes a raw flow payload. The payload must be a JSON array. Elements that
// are not objects, or objects without a string "type", are skipped and reported.
func Parse(raw json.RawMessage) (Flow, []Skipped, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed[0] != '[' {
		return nil, nil, ErrInvalidFlow
	}

	var records []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &records); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFlow, err)
	}

	steps := make(Flow, 0, len(records))
	var skipped []Skipped
	for i, record := range records {
		step, err := parseStep(record)
		if err != nil {
			skipped = append(skipped, Skipped{Index: i, Reason: err.Error()})
			continue
		}
		steps = append(steps, step)
	}

	if len(steps) == 0 {
		return nil, skipped, ErrNoValidSteps
	}

	return steps, skipped, nil
}

func parseStep(record json.RawMessage) (Step, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(record, &fields); err != nil || fields == nil {
		return Step{}, errors.New("step is not an object")
	}

	actionType, ok := fields["type"].(string)
	if !ok || strings.TrimSpace(actionType) == "" {
		return Step{}, errors.New("step is missing type")
	}

	return Step{
		Type:  ActionType(actionType),
		Tag:   stringField(fields, "tag"),
		XPath: stringField(fields, "xpath"),
		Value: stringField(fields, "value"),
		URL:   stringField(fields, "url"),
	}, nil
}

// stringField reads an optional string attribute. Numbers are kept as their text
// since recorders sometimes emit numeric input values.
func stringField(fields map[string]interface{}, key string) string {
	switch v := fields[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%v", v)
	default:
		return ""
	}
}
