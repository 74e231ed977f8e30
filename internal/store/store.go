package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/crimow28-boop/ins-radiolab/internal/model"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDraftConflict is returned when a device already has an open draft
	// belonging to another inspection.
	ErrDraftConflict = errors.New("device already has an open draft")
	// ErrNotDraft is returned when a completed inspection is saved as a draft.
	ErrNotDraft = errors.New("inspection is not a draft")
	// ErrAlreadyExists is returned when a unique key is taken.
	ErrAlreadyExists = errors.New("record already exists")
)

// SequenceInspectionNumber names the inspection number counter.
const SequenceInspectionNumber = "inspection_number"

// Store defines the interface for all database operations.
type Store interface {
	ListChecklists(ctx context.Context) ([]model.InspectionChecklist, error)
	GetChecklist(ctx context.Context, code string) (*model.InspectionChecklist, error)
	SaveChecklist(ctx context.Context, c *model.InspectionChecklist) error
	DeleteChecklist(ctx context.Context, code string) error

	ListDevices(ctx context.Context, f DeviceFilter) ([]model.Device, error)
	GetDevice(ctx context.Context, serial string) (*model.Device, error)
	CreateDevice(ctx context.Context, d *model.Device) error
	UpdateDevice(ctx context.Context, d *model.Device) error
	DeleteDevice(ctx context.Context, serial string) error

	ListInspections(ctx context.Context, f InspectionFilter) ([]model.Inspection, error)
	GetInspection(ctx context.Context, id int64) (*model.Inspection, error)
	CardInspections(ctx context.Context, cardID int64, status string) ([]model.Inspection, error)
	FindDraft(ctx context.Context, serials []string) (*model.Inspection, error)
	SaveDraft(ctx context.Context, insp *model.Inspection) error
	CompleteInspection(ctx context.Context, insp *model.Inspection, c Completion) error
	DeleteInspection(ctx context.Context, id int64) error
	NextInspectionNumber(ctx context.Context, seed SeedFunc) (int64, error)
	PeekInspectionNumber(ctx context.Context, seed SeedFunc) (int64, error)

	ListFaults(ctx context.Context, f FaultFilter) ([]model.FaultHistory, error)
	ResolveFault(ctx context.Context, id int64) (*model.FaultHistory, error)

	ListCards(ctx context.Context, kind string) ([]model.Card, error)
	GetCard(ctx context.Context, id int64) (*model.Card, error)
	CreateCard(ctx context.Context, c *model.Card) error
	UpdateCard(ctx context.Context, c *model.Card) error
	ApproveCard(ctx context.Context, id int64, rotate RotateFunc) error

	GetSetting(ctx context.Context, key string) (string, error)
	PutSetting(ctx context.Context, key, value string) error

	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	PutSubscription(ctx context.Context, sub *model.PushSubscription, cardIDs []int64) error
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscriptionsForCard(ctx context.Context, cardID int64) ([]model.PushSubscription, error)

	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying connection for health checks and migrations.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// notFound maps gorm's missing-record error onto ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

// isDuplicate reports whether err is a unique constraint violation. Not
// every dialector translates these into gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
