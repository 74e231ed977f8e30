package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/crimow28-boop/ins-radiolab/internal/model"
)

func (s *gormStore) ListDevices(ctx context.Context, f DeviceFilter) ([]model.Device, error) {
	q := s.db.WithContext(ctx).Order("serial_number")
	if f.Group != "" {
		q = q.Where("device_group = ?", f.Group)
	}
	if f.Query != "" {
		p := likePattern(strings.ToLower(f.Query))
		q = q.Where(`LOWER(serial_number) LIKE ? ESCAPE '\' OR LOWER(device_name) LIKE ? ESCAPE '\'`, p, p)
	}

	var devices []model.Device
	if err := q.Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

func (s *gormStore) GetDevice(ctx context.Context, serial string) (*model.Device, error) {
	var d model.Device
	if err := s.db.WithContext(ctx).Where("serial_number = ?", serial).First(&d).Error; err != nil {
		return nil, notFound(err, "device "+serial)
	}
	return &d, nil
}

func (s *gormStore) CreateDevice(ctx context.Context, d *model.Device) error {
	if err := s.db.WithContext(ctx).Create(d).Error; err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("device %s: %w", d.SerialNumber, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create device %s: %w", d.SerialNumber, err)
	}
	return nil
}

// UpdateDevice overwrites the editable columns of the device with d.SerialNumber.
// Counters are maintained by CompleteInspection and are left untouched.
func (s *gormStore) UpdateDevice(ctx context.Context, d *model.Device) error {
	res := s.db.WithContext(ctx).Model(&model.Device{}).
		Where("serial_number = ?", d.SerialNumber).
		Select("device_group", "device_name", "ip_address", "status", "encryption_status", "updated_at").
		Updates(d)
	if res.Error != nil {
		return fmt.Errorf("failed to update device %s: %w", d.SerialNumber, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("device %s: %w", d.SerialNumber, ErrNotFound)
	}
	return nil
}

func (s *gormStore) DeleteDevice(ctx context.Context, serial string) error {
	res := s.db.WithContext(ctx).Where("serial_number = ?", serial).Delete(&model.Device{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete device %s: %w", serial, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("device %s: %w", serial, ErrNotFound)
	}
	return nil
}
