// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for missing
// answers, including near-duplicate merging.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chatguus/chatguus-backend/internal/domain"
	"github.com/chatguus/chatguus-backend/internal/search"
)

// mergeCandidates bounds how many recent questions of a tenant are compared
// against a new one.
const mergeCandidates = 500

var priorityRank = map[string]int{"low": 0, "medium": 1, "high": 2}

// UpsertMissingAnswer stores rec, or merges it into an existing record of the
// same tenant whose question has token-overlap similarity >= threshold. A
// merge increments Frequency, refreshes LastAskedAt and keeps the higher
// priority. The returned bool is true when a new row was created.
func UpsertMissingAnswer(ctx context.Context, db *gorm.DB, rec *domain.MissingAnswer, threshold float64) (*domain.MissingAnswer, bool, error) {
	var (
		out     domain.MissingAnswer
		created bool
	)
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		var candidates []domain.MissingAnswer
		if err := tx.Where("tenant_id = ?", rec.TenantID).
			Order("last_asked_at DESC").
			Limit(mergeCandidates).
			Find(&candidates).Error; err != nil {
			return err
		}

		best, bestScore := -1, 0.0
		for i := range candidates {
			if s := search.Similarity(rec.UserQuestion, candidates[i].UserQuestion); s >= threshold && s > bestScore {
				best, bestScore = i, s
			}
		}

		if best >= 0 {
			out = candidates[best]
			out.Frequency++
			out.LastAskedAt = now
			out.UpdatedAt = now
			if priorityRank[rec.Priority] > priorityRank[out.Priority] {
				out.Priority = rec.Priority
			}
			return tx.Model(&domain.MissingAnswer{}).
				Where("id = ?", out.ID).
				Updates(map[string]any{
					"frequency":     out.Frequency,
					"priority":      out.Priority,
					"last_asked_at": now,
					"updated_at":    now,
				}).Error
		}

		out = *rec
		if out.ID == "" {
			out.ID = uuid.NewString()
		}
		if out.Frequency < 1 {
			out.Frequency = 1
		}
		if out.Status == "" {
			out.Status = domain.StatusNeedsReview
		}
		out.CreatedAt, out.UpdatedAt, out.LastAskedAt = now, now, now
		created = true
		return tx.Create(&out).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &out, created, nil
}

// MissingAnswerFilter narrows missing answer queries. Zero fields do not
// filter.
type MissingAnswerFilter struct {
	TenantID string
	Status   string
	Priority string
	Category string
	Since    time.Time
}

func (f MissingAnswerFilter) apply(q *gorm.DB) *gorm.DB {
	if f.TenantID != "" {
		q = q.Where("tenant_id = ?", f.TenantID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if !f.Since.IsZero() {
		q = q.Where("last_asked_at >= ?", f.Since)
	}
	return q
}

// CountMissingAnswers returns the number of records matching f.
func CountMissingAnswers(ctx context.Context, db *gorm.DB, f MissingAnswerFilter) (int64, error) {
	var n int64
	err := f.apply(db.WithContext(ctx).Model(&domain.MissingAnswer{})).Count(&n).Error
	return n, err
}

// ListMissingAnswers returns records matching f ordered by priority (high
// first), then frequency descending, then most recently asked. A limit of
// zero or less returns every match.
func ListMissingAnswers(ctx context.Context, db *gorm.DB, f MissingAnswerFilter, offset, limit int) ([]domain.MissingAnswer, error) {
	q := f.apply(db.WithContext(ctx).Model(&domain.MissingAnswer{})).
		Order("CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END").
		Order("frequency DESC").
		Order("last_asked_at DESC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	var out []domain.MissingAnswer
	err := q.Find(&out).Error
	return out, err
}

// UpdateMissingAnswerStatus sets status and notes on record id. It returns
// ErrNotFound when the record does not exist.
func UpdateMissingAnswerStatus(ctx context.Context, db *gorm.DB, id, status, notes string) error {
	res := db.WithContext(ctx).Model(&domain.MissingAnswer{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"notes":      notes,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
