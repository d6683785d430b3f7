package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chatguus/chatguus-backend/internal/domain"
)

// InsertUsageEvent stores e, assigning an id and timestamp when unset.
func InsertUsageEvent(ctx context.Context, db *gorm.DB, e *domain.UsageEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(e).Error
}

// CountUsageEvents returns the number of events named event for tenantID
// since the given time. Empty event or tenant and zero since do not filter.
func CountUsageEvents(ctx context.Context, db *gorm.DB, tenantID, event string, since time.Time) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.UsageEvent{})
	if tenantID != "" {
		q = q.Where("tenant_id = ?", tenantID)
	}
	if event != "" {
		q = q.Where("event = ?", event)
	}
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}
