package repository

import (
	"context"
	"fmt"
	"slices"

	"gorm.io/gorm"

	"studygenie/internal/model"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, message *model.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("create message failed: %w", err)
	}
	return nil
}

// Record stores a transcript message synchronously.
func (r *MessageRepository) Record(ctx context.Context, message model.Message) error {
	return r.Create(ctx, &message)
}

// ListBySessionID returns the latest limit messages of a session, oldest
// first.
func (r *MessageRepository) ListBySessionID(ctx context.Context, sessionID string, limit int) ([]model.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var messages []model.Message
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list messages failed: %w", err)
	}
	slices.Reverse(messages)
	return messages, nil
}

func (r *MessageRepository) CountBySessionID(ctx context.Context, sessionID string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Message{}).Where("session_id = ?", sessionID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count messages failed: %w", err)
	}
	return n, nil
}
