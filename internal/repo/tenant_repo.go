// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for tenants.
//
// All functions are context-aware and accept a *gorm.DB handle, so they can
// run inside a transaction. They follow the thin repository approach: no
// business logic, only persistence and query composition.
//
// Error semantics:
//   - A missing tenant yields ErrNotFound.
//   - Creating an existing id yields ErrDuplicate.
//   - Other DB errors are propagated unchanged.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/chatguus/chatguus-backend/internal/domain"
)

// CreateTenant inserts t, stamping CreatedAt/UpdatedAt when unset.
func CreateTenant(ctx context.Context, db *gorm.DB, t *domain.Tenant) error {
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
	if err := db.WithContext(ctx).Create(t).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetTenant fetches a tenant by id.
func GetTenant(ctx context.Context, db *gorm.DB, id string) (*domain.Tenant, error) {
	var t domain.Tenant
	if err := db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTenantByDomain fetches the first active tenant whose domain equals host
// (case-insensitive).
func GetTenantByDomain(ctx context.Context, db *gorm.DB, host string) (*domain.Tenant, error) {
	var t domain.Tenant
	err := db.WithContext(ctx).
		Where("LOWER(domain) = ? AND active = ?", strings.ToLower(host), true).
		Order("created_at ASC").
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTenants returns all tenants ordered by creation time.
func ListTenants(ctx context.Context, db *gorm.DB) ([]domain.Tenant, error) {
	var out []domain.Tenant
	err := db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&out).Error
	return out, err
}

// SaveTenant writes every column of an existing tenant and bumps UpdatedAt.
// It returns ErrNotFound when no row matches t.ID.
func SaveTenant(ctx context.Context, db *gorm.DB, t *domain.Tenant) error {
	t.UpdatedAt = time.Now().UTC()
	res := db.WithContext(ctx).Model(&domain.Tenant{}).
		Where("id = ?", t.ID).
		Select("*").Omit("id", "created_at").
		Updates(t)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTenant removes a tenant row. It returns ErrNotFound when absent.
func DeleteTenant(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Tenant{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TenantExists reports whether a tenant with id is stored.
func TenantExists(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Tenant{}).Where("id = ?", id).Count(&n).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	return n > 0, nil
}
