// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for chat sessions.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/chatguus/chatguus-backend/internal/domain"
)

// UpsertSessionMessages appends msgs to the session identified by sessionID,
// creating it when absent. Messages keep the order given. Metadata is only
// recorded on creation. A concurrent insert of the same session is resolved
// by retrying the append once.
func UpsertSessionMessages(ctx context.Context, db *gorm.DB, sessionID, tenantID string, msgs []domain.SessionMessage, meta domain.SessionMetadata) (*domain.ChatSession, error) {
	s, err := upsertSession(ctx, db, sessionID, tenantID, msgs, meta)
	if errors.Is(err, ErrDuplicate) {
		return upsertSession(ctx, db, sessionID, tenantID, msgs, meta)
	}
	return s, err
}

func upsertSession(ctx context.Context, db *gorm.DB, sessionID, tenantID string, msgs []domain.SessionMessage, meta domain.SessionMetadata) (*domain.ChatSession, error) {
	var out domain.ChatSession
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		err := tx.Where("session_id = ?", sessionID).First(&out).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			out = domain.ChatSession{
				ID:           uuid.NewString(),
				SessionID:    sessionID,
				TenantID:     tenantID,
				Messages:     datatypes.JSONSlice[domain.SessionMessage](append([]domain.SessionMessage(nil), msgs...)),
				Metadata:     datatypes.NewJSONType(meta),
				CreatedAt:    now,
				UpdatedAt:    now,
				LastActivity: now,
			}
			if err := tx.Create(&out).Error; err != nil {
				if isUniqueViolation(err) {
					return ErrDuplicate
				}
				return err
			}
			return nil
		case err != nil:
			return err
		}

		out.Messages = append(out.Messages, msgs...)
		out.LastActivity = now
		return tx.Model(&domain.ChatSession{}).
			Where("id = ?", out.ID).
			Updates(map[string]any{
				"messages":      out.Messages,
				"last_activity": now,
				"updated_at":    now,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSession fetches a session by its client session id.
func GetSession(ctx context.Context, db *gorm.DB, sessionID string) (*domain.ChatSession, error) {
	var s domain.ChatSession
	if err := db.WithContext(ctx).Where("session_id = ?", sessionID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// CountSessions returns the number of sessions for tenantID (all tenants when
// empty).
func CountSessions(ctx context.Context, db *gorm.DB, tenantID string) (int64, error) {
	var n int64
	q := db.WithContext(ctx).Model(&domain.ChatSession{})
	if tenantID != "" {
		q = q.Where("tenant_id = ?", tenantID)
	}
	err := q.Count(&n).Error
	return n, err
}
