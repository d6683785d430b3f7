// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for user
// satisfaction ratings and automatic AI self-ratings.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/chatguus/chatguus-backend/internal/domain"
)

// InsertSatisfactionRating stores r, assigning an id and timestamp when unset.
func InsertSatisfactionRating(ctx context.Context, db *gorm.DB, r *domain.SatisfactionRating) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(r).Error
}

// ListSatisfactionRatings returns ratings for tenantID (all tenants when
// empty) created at or after since (no bound when zero), oldest first.
func ListSatisfactionRatings(ctx context.Context, db *gorm.DB, tenantID string, since time.Time) ([]domain.SatisfactionRating, error) {
	q := db.WithContext(ctx).Model(&domain.SatisfactionRating{})
	if tenantID != "" {
		q = q.Where("tenant_id = ?", tenantID)
	}
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	var out []domain.SatisfactionRating
	err := q.Order("created_at ASC, id ASC").Find(&out).Error
	return out, err
}

// RatingSummary is the count and mean of a tenant's satisfaction ratings.
type RatingSummary struct {
	Count   int64
	Average float64
}

// SummarizeSatisfaction aggregates ratings for tenantID.
func SummarizeSatisfaction(ctx context.Context, db *gorm.DB, tenantID string) (RatingSummary, error) {
	var row struct {
		Count   int64
		Average *float64
	}
	err := db.WithContext(ctx).Model(&domain.SatisfactionRating{}).
		Select("COUNT(*) AS count, AVG(rating) AS average").
		Where("tenant_id = ?", tenantID).
		Scan(&row).Error
	if err != nil {
		return RatingSummary{}, err
	}
	out := RatingSummary{Count: row.Count}
	if row.Average != nil {
		out.Average = *row.Average
	}
	return out, nil
}

// AIRatingFilter narrows AI rating queries. Zero fields do not filter.
type AIRatingFilter struct {
	TenantID   string
	Category   string
	Since      time.Time
	MaxOverall float64 // only ratings with overall <= MaxOverall when > 0
}

func (f AIRatingFilter) apply(q *gorm.DB) *gorm.DB {
	if f.TenantID != "" {
		q = q.Where("tenant_id = ?", f.TenantID)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if !f.Since.IsZero() {
		q = q.Where("created_at >= ?", f.Since)
	}
	if f.MaxOverall > 0 {
		q = q.Where("overall <= ?", f.MaxOverall)
	}
	return q
}

// InsertAIRating stores r, assigning an id and timestamp when unset.
func InsertAIRating(ctx context.Context, db *gorm.DB, r *domain.AIRating) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if len(r.Context) == 0 {
		r.Context = datatypes.JSON("{}")
	}
	return db.WithContext(ctx).Create(r).Error
}

// CountAIRatings returns the number of ratings matching f.
func CountAIRatings(ctx context.Context, db *gorm.DB, f AIRatingFilter) (int64, error) {
	var n int64
	err := f.apply(db.WithContext(ctx).Model(&domain.AIRating{})).Count(&n).Error
	return n, err
}

// ListAIRatings returns a page of ratings matching f, newest first. A limit
// of zero or less returns every match.
func ListAIRatings(ctx context.Context, db *gorm.DB, f AIRatingFilter, offset, limit int) ([]domain.AIRating, error) {
	q := f.apply(db.WithContext(ctx).Model(&domain.AIRating{})).
		Order("created_at DESC, id ASC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	var out []domain.AIRating
	err := q.Find(&out).Error
	return out, err
}
