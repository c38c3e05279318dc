// Package testcase persists recorded user flows together with the test steps
// generated for them, grouped by recording session and feature.
package testcase

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrTestCaseNotFound is returned when a test case is not found.
	ErrTestCaseNotFound = errors.New("test case not found")

	// ErrInvalidSessionName is returned when session_name is empty.
	ErrInvalidSessionName = errors.New("session_name is required")

	// ErrInvalidFeature is returned when feature is empty.
	ErrInvalidFeature = errors.New("feature is required")

	// ErrInvalidName is returned when the test case name is empty.
	ErrInvalidName = errors.New("test case name is required")

	// ErrInvalidRecordedBy is returned when recorded_by is empty.
	ErrInvalidRecordedBy = errors.New("recorded_by is required")

	// ErrInvalidActions is returned when the recorded actions are not a JSON array.
	ErrInvalidActions = errors.New("actions must be a non-empty JSON array")
)

// Actions is the raw recorded flow, kept verbatim so recorder-specific keys
// such as timestamps survive.
type Actions json.RawMessage

// Value implements the driver.Valuer interface for database storage.
func (a Actions) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return []byte(a), nil
}

// Scan implements the sql.Scanner interface for database retrieval.
func (a *Actions) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*a = nil
	case []byte:
		*a = append(Actions(nil), v...)
	case string:
		*a = Actions(v)
	default:
		return errors.New("failed to scan Actions: not a byte slice")
	}
	return nil
}

func (a Actions) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("null"), nil
	}
	return a, nil
}

func (a *Actions) UnmarshalJSON(data []byte) error {
	*a = append((*a)[:0], data...)
	return nil
}

// StepList is the ordered list of generated test steps.
type StepList []string

// Value implements the driver.Valuer interface for database storage.
func (s StepList) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan implements the sql.Scanner interface for database retrieval.
func (s *StepList) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return errors.New("failed to scan StepList: not a byte slice")
	}
}

// TestCase is one recorded flow within a session.
type TestCase struct {
	ID          uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	SessionName string    `json:"session_name" gorm:"not null;index:idx_session_name"`
	Feature     string    `json:"feature" gorm:"not null;index:idx_feature"`
	Name        string    `json:"name" gorm:"not null"`
	RecordedBy  string    `json:"recorded_by" gorm:"not null"`
	Actions     Actions   `json:"actions" gorm:"type:json"`
	Steps       StepList  `json:"test_steps" gorm:"type:json"`
	CreatedAt   time.Time `json:"created_at" gorm:"index:idx_created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate hook to generate UUID before creating a new test case
func (tc *TestCase) BeforeCreate(tx *gorm.DB) error {
	if tc.ID == uuid.Nil {
		tc.ID = uuid.New()
	}
	return nil
}

// Validate checks the required fields.
func (tc *TestCase) Validate() error {
	if tc.SessionName == "" {
		return ErrInvalidSessionName
	}
	if tc.Feature == "" {
		return ErrInvalidFeature
	}
	if tc.Name == "" {
		return ErrInvalidName
	}
	if tc.RecordedBy == "" {
		return ErrInvalidRecordedBy
	}
	return validateActions(tc.Actions)
}

func validateActions(a Actions) error {
	trimmed := bytes.TrimSpace(a)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return ErrInvalidActions
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidActions, err)
	}
	if len(items) == 0 {
		return ErrInvalidActions
	}
	return nil
}
