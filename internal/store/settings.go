package store

import (
	"context"

	"github.com/crimow28-boop/ins-radiolab/internal/model"
)

func (s *gormStore) GetSetting(ctx context.Context, key string) (string, error) {
	var setting model.SystemSetting
	if err := s.db.WithContext(ctx).Where(&model.SystemSetting{Key: key}).First(&setting).Error; err != nil {
		return "", notFound(err, "setting "+key)
	}
	return setting.Value, nil
}

func (s *gormStore) PutSetting(ctx context.Context, key, value string) error {
	return upsertSetting(s.db.WithContext(ctx), key, value)
}
