package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txKey struct{}

// conn returns the transaction carried by ctx, or db bound to ctx.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}

// GormTxManager serializes booking writes per company with a transaction-scoped
// Postgres advisory lock.
type GormTxManager struct {
	db *gorm.DB
}

// NewGormTxManager creates a new GormTxManager.
func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

// WithinCompanyLock runs fn in a transaction holding the lock for companyID.
// The lock is released on commit or rollback.
func (m *GormTxManager) WithinCompanyLock(ctx context.Context, companyID uuid.UUID, fn func(ctx context.Context) error) error {
	return conn(ctx, m.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", companyID.String()).Error; err != nil {
			return fmt.Errorf("failed to acquire company lock: %w", err)
		}
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}
