package reminder

import (
	"context"

	"gorm.io/gorm"

	"github.com/subwatch/subwatch/internal/models"
)

type gormLogStore struct {
	db *gorm.DB
}

// NewLogStore persists reminder logs to postgres.
func NewLogStore(db *gorm.DB) LogStore {
	return &gormLogStore{db: db}
}

func (s *gormLogStore) Append(ctx context.Context, entry *models.ReminderLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}
