// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries: the tenant
// table version used for ETags, and per-tenant usage counts.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/chatguus/chatguus-backend/internal/domain"
)

// TenantsVersion returns the number of tenant rows and the greatest UpdatedAt
// among them. maxUpdatedAt is nil when the table is empty.
func TenantsVersion(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	if err = db.WithContext(ctx).Model(&domain.Tenant{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// ORDER BY instead of MAX(): SQLite returns MAX() of a datetime as TEXT.
	var row struct {
		UpdatedAt time.Time
	}
	if err = db.WithContext(ctx).Model(&domain.Tenant{}).Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// TenantUsage aggregates stored activity for one tenant.
type TenantUsage struct {
	Sessions       int64      `json:"sessions"`
	Ratings        int64      `json:"ratings"`
	AverageRating  float64    `json:"averageRating"`
	AIRatings      int64      `json:"aiRatings"`
	MissingAnswers int64      `json:"missingAnswers"`
	OpenMissing    int64      `json:"openMissingAnswers"`
	LastActivity   *time.Time `json:"lastActivity,omitempty"`
}

// TenantUsageStats collects TenantUsage for tenantID.
func TenantUsageStats(ctx context.Context, db *gorm.DB, tenantID string) (TenantUsage, error) {
	var u TenantUsage
	var err error

	if u.Sessions, err = CountSessions(ctx, db, tenantID); err != nil {
		return u, err
	}
	sum, err := SummarizeSatisfaction(ctx, db, tenantID)
	if err != nil {
		return u, err
	}
	u.Ratings, u.AverageRating = sum.Count, sum.Average

	if u.AIRatings, err = CountAIRatings(ctx, db, AIRatingFilter{TenantID: tenantID}); err != nil {
		return u, err
	}
	if u.MissingAnswers, err = CountMissingAnswers(ctx, db, MissingAnswerFilter{TenantID: tenantID}); err != nil {
		return u, err
	}
	if u.OpenMissing, err = CountMissingAnswers(ctx, db, MissingAnswerFilter{TenantID: tenantID, Status: domain.StatusNeedsReview}); err != nil {
		return u, err
	}

	if u.Sessions > 0 {
		var row struct {
			LastActivity time.Time
		}
		err = db.WithContext(ctx).Model(&domain.ChatSession{}).
			Select("last_activity").
			Where("tenant_id = ?", tenantID).
			Order("last_activity DESC").
			Limit(1).
			Scan(&row).Error
		if err != nil {
			return u, err
		}
		u.LastActivity = &row.LastActivity
	}
	return u, nil
}
