package testcase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hairizuanbinnoorazman/testcrafter/logger"
)

// MySQLStore implements the Store interface using GORM and MySQL.
type MySQLStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewMySQLStore creates a new MySQL-backed test case store.
func NewMySQLStore(db *gorm.DB, log logger.Logger) *MySQLStore {
	return &MySQLStore{
		db:     db,
		logger: log,
	}
}

// Create stores a new test case.
func (s *MySQLStore) Create(ctx context.Context, tc *TestCase) error {
	if err := tc.Validate(); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(tc).Error; err != nil {
		s.logger.Error(ctx, "failed to create test case", map[string]interface{}{
			"error":        err.Error(),
			"session_name": tc.SessionName,
			"feature":      tc.Feature,
		})
		return err
	}

	s.logger.Info(ctx, "test case created", map[string]interface{}{
		"test_case_id": tc.ID.String(),
		"session_name": tc.SessionName,
		"feature":      tc.Feature,
	})
	return nil
}

// GetByID retrieves a test case by its ID.
func (s *MySQLStore) GetByID(ctx context.Context, id uuid.UUID) (*TestCase, error) {
	var tc TestCase
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&tc).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTestCaseNotFound
		}
		s.logger.Error(ctx, "failed to get test case by ID", map[string]interface{}{
			"error":        err.Error(),
			"test_case_id": id.String(),
		})
		return nil, err
	}

	return &tc, nil
}

// Update applies the setters inside a transaction.
func (s *MySQLStore) Update(ctx context.Context, id uuid.UUID, setters ...UpdateSetter) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tc TestCase
		if err := tx.Where("id = ?", id).First(&tc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTestCaseNotFound
			}
			return err
		}

		for _, setter := range setters {
			if err := setter(&tc); err != nil {
				return err
			}
		}

		return tx.Save(&tc).Error
	})

	if err != nil {
		if !errors.Is(err, ErrTestCaseNotFound) {
			s.logger.Error(ctx, "failed to update test case", map[string]interface{}{
				"error":        err.Error(),
				"test_case_id": id.String(),
			})
		}
		return err
	}

	s.logger.Info(ctx, "test case updated", map[string]interface{}{
		"test_case_id": id.String(),
	})
	return nil
}

// ListBySession returns every test case recorded in a session, oldest first.
func (s *MySQLStore) ListBySession(ctx context.Context, sessionName string) ([]*TestCase, error) {
	var cases []*TestCase
	err := s.db.WithContext(ctx).
		Where("session_name = ?", sessionName).
		Order("created_at ASC").
		Order("id ASC").
		Find(&cases).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list test cases by session", map[string]interface{}{
			"error":        err.Error(),
			"session_name": sessionName,
		})
		return nil, err
	}

	return cases, nil
}

// SessionExists reports whether any test case was recorded in the session.
func (s *MySQLStore) SessionExists(ctx context.Context, sessionName string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&TestCase{}).
		Where("session_name = ?", sessionName).
		Count(&count).Error

	if err != nil {
		s.logger.Error(ctx, "failed to check session", map[string]interface{}{
			"error":        err.Error(),
			"session_name": sessionName,
		})
		return false, err
	}

	return count > 0, nil
}

// FindByFeatures returns up to limit test cases tagged with any of features.
// An empty feature list matches nothing.
func (s *MySQLStore) FindByFeatures(ctx context.Context, features []string, limit int) ([]*TestCase, error) {
	if len(features) == 0 {
		return []*TestCase{}, nil
	}

	var cases []*TestCase
	err := s.db.WithContext(ctx).
		Where("feature IN ?", features).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&cases).Error

	if err != nil {
		s.logger.Error(ctx, "failed to find test cases by feature", map[string]interface{}{
			"error":    err.Error(),
			"features": features,
			"limit":    limit,
		})
		return nil, err
	}

	return cases, nil
}
