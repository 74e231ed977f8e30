package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/crimow28-boop/ins-radiolab/internal/model"
)

func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	if err := s.db.WithContext(ctx).Preload("Cards").First(&sub, "endpoint = ?", endpoint).Error; err != nil {
		return nil, notFound(err, "subscription")
	}
	return &sub, nil
}

// PutSubscription creates or replaces a subscription together with the set
// of cards it follows.
func (s *gormStore) PutSubscription(ctx context.Context, sub *model.PushSubscription, cardIDs []int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Create(sub).Error; err != nil {
			return fmt.Errorf("failed to upsert subscription: %w", err)
		}

		var cards []model.Card
		if len(cardIDs) > 0 {
			if err := tx.Find(&cards, cardIDs).Error; err != nil {
				return fmt.Errorf("failed to load subscribed cards: %w", err)
			}
		}

		if err := tx.Model(sub).Association("Cards").Replace(&cards); err != nil {
			return fmt.Errorf("failed to replace subscribed cards: %w", err)
		}
		return nil
	})
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM subscription_card_mapping WHERE push_subscription_endpoint = ?", endpoint).Error; err != nil {
			return fmt.Errorf("failed to clear subscribed cards: %w", err)
		}
		if err := tx.Delete(&model.PushSubscription{Endpoint: endpoint}).Error; err != nil {
			return fmt.Errorf("failed to delete subscription: %w", err)
		}
		return nil
	})
}

// SubscriptionsForCard returns the subscriptions following a card.
func (s *gormStore) SubscriptionsForCard(ctx context.Context, cardID int64) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := s.db.WithContext(ctx).
		Joins("JOIN subscription_card_mapping scm ON scm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("scm.card_id = ?", cardID).
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions for card %d: %w", cardID, err)
	}
	return subs, nil
}
