package testcase

import (
	"context"

	"github.com/google/uuid"
)

// Store defines the interface for test case persistence operations.
type Store interface {
	// Create stores a new test case.
	Create(ctx context.Context, tc *TestCase) error

	// GetByID retrieves a test case by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*TestCase, error)

	// Update applies the setters to a stored test case.
	Update(ctx context.Context, id uuid.UUID, setters ...UpdateSetter) error

	// ListBySession returns every test case recorded in a session, oldest first.
	ListBySession(ctx context.Context, sessionName string) ([]*TestCase, error)

	// SessionExists reports whether any test case was recorded in the session.
	SessionExists(ctx context.Context, sessionName string) (bool, error)

	// FindByFeatures returns up to limit test cases whose feature is one of
	// features, ordered by creation time and then ID.
	FindByFeatures(ctx context.Context, features []string, limit int) ([]*TestCase, error)
}

// UpdateSetter is a function that updates a test case field.
type UpdateSetter func(*TestCase) error

// SetSteps returns an UpdateSetter that replaces the generated steps.
func SetSteps(steps []string) UpdateSetter {
	return func(tc *TestCase) error {
		tc.Steps = append(StepList{}, steps...)
		return nil
	}
}

// SetName returns an UpdateSetter that renames the test case.
func SetName(name string) UpdateSetter {
	return func(tc *TestCase) error {
		if name == "" {
			return ErrInvalidName
		}
		tc.Name = name
		return nil
	}
}
