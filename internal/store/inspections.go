package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/crimow28-boop/ins-radiolab/internal/model"
)

func (s *gormStore) ListInspections(ctx context.Context, f InspectionFilter) ([]model.Inspection, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.CardID != nil {
		q = q.Where("card_id = ?", *f.CardID)
	}
	if f.Serial != "" {
		// Serials are stored as a JSON array; match the encoded element.
		enc, err := json.Marshal(f.Serial)
		if err != nil {
			return nil, fmt.Errorf("failed to encode serial filter: %w", err)
		}
		q = q.Where(`device_serial_numbers LIKE ? ESCAPE '\'`, likePattern(string(enc)))
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var inspections []model.Inspection
	if err := q.Find(&inspections).Error; err != nil {
		return nil, fmt.Errorf("failed to list inspections: %w", err)
	}
	return inspections, nil
}

func (s *gormStore) GetInspection(ctx context.Context, id int64) (*model.Inspection, error) {
	var insp model.Inspection
	if err := s.db.WithContext(ctx).First(&insp, id).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("inspection %d", id))
	}
	return &insp, nil
}

// CardInspections returns the inspections recorded against a card, newest
// first. An empty status matches every status.
func (s *gormStore) CardInspections(ctx context.Context, cardID int64, status string) ([]model.Inspection, error) {
	q := s.db.WithContext(ctx).Where("card_id = ?", cardID).Order("created_at DESC").Order("id DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var inspections []model.Inspection
	if err := q.Find(&inspections).Error; err != nil {
		return nil, fmt.Errorf("failed to list inspections of card %d: %w", cardID, err)
	}
	return inspections, nil
}

// FindDraft returns the open draft holding the given serials. It fails with
// ErrDraftConflict when the serials are split across different drafts.
func (s *gormStore) FindDraft(ctx context.Context, serials []string) (*model.Inspection, error) {
	var locks []model.DraftLock
	if err := s.db.WithContext(ctx).Where("serial_number IN ?", serials).Find(&locks).Error; err != nil {
		return nil, fmt.Errorf("failed to look up draft locks: %w", err)
	}
	if len(locks) == 0 {
		return nil, fmt.Errorf("draft: %w", ErrNotFound)
	}

	id := locks[0].InspectionID
	for _, l := range locks[1:] {
		if l.InspectionID != id {
			return nil, fmt.Errorf("devices are held by drafts %d and %d: %w", id, l.InspectionID, ErrDraftConflict)
		}
	}
	return s.GetInspection(ctx, id)
}

// SaveDraft creates or updates a draft and takes a lock on each of its
// serials. Serials removed from the draft are released.
func (s *gormStore) SaveDraft(ctx context.Context, insp *model.Inspection) error {
	insp.Status = model.InspectionStatusDraft

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if insp.ID != 0 {
			if err := ensureDraft(tx, insp.ID); err != nil {
				return err
			}
			if err := tx.Save(insp).Error; err != nil {
				return fmt.Errorf("failed to update draft %d: %w", insp.ID, err)
			}
		} else {
			if err := tx.Create(insp).Error; err != nil {
				return fmt.Errorf("failed to create draft: %w", err)
			}
		}
		return lockSerials(tx, insp.ID, insp.DeviceSerialNumbers)
	})
}

// CompleteInspection finalises insp, releases its draft locks and applies
// the per-device side effects in a single transaction.
func (s *gormStore) CompleteInspection(ctx context.Context, insp *model.Inspection, c Completion) error {
	insp.Status = model.InspectionStatusCompleted
	insp.Progress = 100

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if insp.ID != 0 {
			if err := ensureDraft(tx, insp.ID); err != nil {
				return err
			}
			if err := tx.Save(insp).Error; err != nil {
				return fmt.Errorf("failed to complete inspection %d: %w", insp.ID, err)
			}
		} else {
			if err := checkUnlocked(tx, insp.DeviceSerialNumbers); err != nil {
				return err
			}
			if err := tx.Create(insp).Error; err != nil {
				return fmt.Errorf("failed to create inspection: %w", err)
			}
		}

		if err := tx.Where("inspection_id = ?", insp.ID).Delete(&model.DraftLock{}).Error; err != nil {
			return fmt.Errorf("failed to release draft locks of %d: %w", insp.ID, err)
		}

		if len(insp.DeviceSerialNumbers) == 0 {
			return nil
		}

		updates := map[string]any{
			"total_inspections":    gorm.Expr("total_inspections + ?", 1),
			"last_inspection_date": c.At,
			"updated_at":           c.At,
		}
		if c.Encrypted {
			updates["encryption_status"] = model.EncryptionEncrypted
		}
		if c.Fault != "" {
			updates["total_faults"] = gorm.Expr("total_faults + ?", 1)
		}
		res := tx.Model(&model.Device{}).Where("serial_number IN ?", insp.DeviceSerialNumbers).Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to update devices of inspection %d: %w", insp.ID, res.Error)
		}
		if int(res.RowsAffected) < len(insp.DeviceSerialNumbers) {
			log.Printf("Inspection %d covers %d devices, only %d are registered", insp.ID, len(insp.DeviceSerialNumbers), res.RowsAffected)
		}

		if c.Fault == "" {
			return nil
		}
		faults := make([]model.FaultHistory, 0, len(insp.DeviceSerialNumbers))
		for _, serial := range insp.DeviceSerialNumbers {
			faults = append(faults, model.FaultHistory{
				DeviceSerialNumber: serial,
				InspectionID:       insp.ID,
				FaultDescription:   c.Fault,
				FaultDate:          c.At,
			})
		}
		if err := tx.Create(&faults).Error; err != nil {
			return fmt.Errorf("failed to record faults of inspection %d: %w", insp.ID, err)
		}
		return nil
	})
}

// DeleteInspection removes an inspection and any draft locks it holds.
func (s *gormStore) DeleteInspection(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("inspection_id = ?", id).Delete(&model.DraftLock{}).Error; err != nil {
			return fmt.Errorf("failed to release draft locks of %d: %w", id, err)
		}
		res := tx.Delete(&model.Inspection{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete inspection %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("inspection %d: %w", id, ErrNotFound)
		}
		return nil
	})
}

// NextInspectionNumber issues the next inspection number. The counter row is
// created from seed on first use and incremented atomically afterwards.
func (s *gormStore) NextInspectionNumber(ctx context.Context, seed SeedFunc) (int64, error) {
	var next int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Sequence{}).
			Where("name = ?", SequenceInspectionNumber).
			UpdateColumn("value", gorm.Expr("value + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("failed to advance inspection number: %w", res.Error)
		}

		if res.RowsAffected == 0 {
			existing, err := inspectionNumbers(tx)
			if err != nil {
				return err
			}
			seq := model.Sequence{Name: SequenceInspectionNumber, Value: seed(existing)}
			if err := tx.Create(&seq).Error; err != nil {
				return fmt.Errorf("failed to seed inspection number: %w", err)
			}
			log.Printf("Seeded inspection numbers at %d from %d existing records", seq.Value, len(existing))
			next = seq.Value
			return nil
		}

		var seq model.Sequence
		if err := tx.Where("name = ?", SequenceInspectionNumber).First(&seq).Error; err != nil {
			return fmt.Errorf("failed to read inspection number: %w", err)
		}
		next = seq.Value
		return nil
	})
	return next, err
}

// PeekInspectionNumber reports the number NextInspectionNumber would issue
// without consuming it.
func (s *gormStore) PeekInspectionNumber(ctx context.Context, seed SeedFunc) (int64, error) {
	var seq model.Sequence
	err := s.db.WithContext(ctx).Where("name = ?", SequenceInspectionNumber).First(&seq).Error
	if err == nil {
		return seq.Value + 1, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("failed to read inspection number: %w", err)
	}

	existing, err := inspectionNumbers(s.db.WithContext(ctx))
	if err != nil {
		return 0, err
	}
	return seed(existing), nil
}

func inspectionNumbers(tx *gorm.DB) ([]int64, error) {
	var nums []int64
	if err := tx.Model(&model.Inspection{}).Pluck("inspection_number", &nums).Error; err != nil {
		return nil, fmt.Errorf("failed to scan inspection numbers: %w", err)
	}
	return nums, nil
}

func ensureDraft(tx *gorm.DB, id int64) error {
	var current model.Inspection
	if err := tx.Select("id", "status").First(&current, id).Error; err != nil {
		return notFound(err, fmt.Sprintf("inspection %d", id))
	}
	if current.Status != model.InspectionStatusDraft {
		return fmt.Errorf("inspection %d: %w", id, ErrNotDraft)
	}
	return nil
}

// checkUnlocked fails when any serial is held by an open draft.
func checkUnlocked(tx *gorm.DB, serials []string) error {
	var held []model.DraftLock
	if err := tx.Where("serial_number IN ?", serials).Find(&held).Error; err != nil {
		return fmt.Errorf("failed to look up draft locks: %w", err)
	}
	if len(held) > 0 {
		return fmt.Errorf("device %s is held by draft %d: %w", held[0].SerialNumber, held[0].InspectionID, ErrDraftConflict)
	}
	return nil
}

// lockSerials makes inspectionID the holder of exactly the given serials.
func lockSerials(tx *gorm.DB, inspectionID int64, serials []string) error {
	var held []model.DraftLock
	if err := tx.Where("serial_number IN ?", serials).Find(&held).Error; err != nil {
		return fmt.Errorf("failed to look up draft locks: %w", err)
	}

	owned := make(map[string]bool, len(held))
	for _, l := range held {
		if l.InspectionID != inspectionID {
			return fmt.Errorf("device %s is held by draft %d: %w", l.SerialNumber, l.InspectionID, ErrDraftConflict)
		}
		owned[l.SerialNumber] = true
	}

	release := tx.Where("inspection_id = ?", inspectionID)
	if len(serials) > 0 {
		release = release.Where("serial_number NOT IN ?", serials)
	}
	if err := release.Delete(&model.DraftLock{}).Error; err != nil {
		return fmt.Errorf("failed to release draft locks of %d: %w", inspectionID, err)
	}

	now := time.Now()
	for _, serial := range serials {
		if owned[serial] {
			continue
		}
		lock := model.DraftLock{SerialNumber: serial, InspectionID: inspectionID, CreatedAt: now}
		if err := tx.Create(&lock).Error; err != nil {
			if isDuplicate(err) {
				return fmt.Errorf("device %s: %w", serial, ErrDraftConflict)
			}
			return fmt.Errorf("failed to lock device %s: %w", serial, err)
		}
	}
	return nil
}
