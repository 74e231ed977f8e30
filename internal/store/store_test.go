package store

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/crimow28-boop/ins-radiolab/internal/checklist"
	"github.com/crimow28-boop/ins-radiolab/internal/model"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestGormStore_GetChecklist_NotFound(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "inspection_checklists" WHERE code = $1`)).
		WithArgs("710_amp", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name", "items"}))

	_, err := s.GetChecklist(context.Background(), "710_amp")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_SaveChecklist(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "inspection_checklists"`) + `.*ON CONFLICT \("code"\) DO UPDATE`).
		WithArgs("710_amp", "710 עם מגבר", Any{}, Any{}, Any{}).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectCommit()

	c := &model.InspectionChecklist{
		Code:  "710_amp",
		Name:  "710 עם מגבר",
		Items: []checklist.Field{{ID: "f1", Label: "הצפנה", Kind: checklist.Checkbox{}}},
	}
	require.NoError(t, s.SaveChecklist(context.Background(), c))
	assert.Equal(t, int64(3), c.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_DeleteChecklist(t *testing.T) {
	testCases := []struct {
		name     string
		affected int64
		expected error
	}{
		{"deleted", 1, nil},
		{"missing", 0, ErrNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			s := NewGormStore(gormDB)

			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "inspection_checklists" WHERE code = $1`)).
				WithArgs("lotus").
				WillReturnResult(sqlmock.NewResult(0, tc.affected))
			mock.ExpectCommit()

			err := s.DeleteChecklist(context.Background(), "lotus")
			if tc.expected != nil {
				assert.ErrorIs(t, err, tc.expected)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_NextInspectionNumber_Increments(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "sequences" SET`).
		WithArgs(1, SequenceInspectionNumber).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "sequences" WHERE name = $1`)).
		WithArgs(SequenceInspectionNumber, 1).
		WillReturnRows(sqlmock.NewRows([]string{"name", "value"}).AddRow(SequenceInspectionNumber, 42))
	mock.ExpectCommit()

	seedCalled := false
	n, err := s.NextInspectionNumber(context.Background(), func([]int64) int64 {
		seedCalled = true
		return 1
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	assert.False(t, seedCalled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}
