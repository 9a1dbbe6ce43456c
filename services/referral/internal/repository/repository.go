package repository

import (
	"context"

	"github.com/davoseaworthui/referral-builder-next/services/referral/internal/domain"
)

// ReferralRepository defines the interface for referral persistence operations.
type ReferralRepository interface {
	// Create appends a referral. The ID must already be set and unused.
	Create(ctx context.Context, referral *domain.Referral) error

	// GetByID returns a copy of the referral with the given ID.
	GetByID(ctx context.Context, id string) (*domain.Referral, error)

	// Delete removes the referral with the given ID.
	Delete(ctx context.Context, id string) error

	// List returns every referral in insertion order. It never returns nil.
	List(ctx context.Context) ([]domain.Referral, error)

	// Count returns the number of stored referrals.
	Count(ctx context.Context) (int, error)
}
