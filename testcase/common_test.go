package testcase

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/hairizuanbinnoorazman/testcrafter/logger"
	"github.com/hairizuanbinnoorazman/testcrafter/testutil"
)

const loginActions = `[{"type":"navigation","url":"https://app.example.com/login","timestamp":1700000000},{"type":"input","xpath":"//input[@name='user_name']","value":"alice"},{"type":"click","tag":"BUTTON","xpath":"//button[text()='Sign in']"}]`

// setupTestStore creates a test database and test case store for testing.
func setupTestStore(t *testing.T) (*gorm.DB, *MySQLStore) {
	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db, &TestCase{})

	return db, NewMySQLStore(db, logger.NewTestLogger())
}

// createTestCase creates a test case with default values.
func createTestCase(session, feature, name string, createdAt time.Time) *TestCase {
	return &TestCase{
		SessionName: session,
		Feature:     feature,
		Name:        name,
		RecordedBy:  "qa@example.com",
		Actions:     Actions(loginActions),
		CreatedAt:   createdAt,
	}
}
