package memory

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "github.com/davoseaworthui/referral-builder-next/pkg/errors"
	"github.com/davoseaworthui/referral-builder-next/services/referral/internal/domain"
)

var storeSize = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "referral_store_records",
	Help: "Number of referrals currently held in memory",
})

// ReferralRepository implements repository.ReferralRepository in process
// memory. Records keep insertion order and are lost on restart.
type ReferralRepository struct {
	mu        sync.RWMutex
	referrals []domain.Referral
	index     map[string]int
}

// NewReferralRepository creates an empty in-memory referral store.
func NewReferralRepository() *ReferralRepository {
	storeSize.Set(0)
	return &ReferralRepository{
		referrals: make([]domain.Referral, 0),
		index:     make(map[string]int),
	}
}

// Create appends a copy of referral.
func (r *ReferralRepository) Create(_ context.Context, referral *domain.Referral) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[referral.ID]; exists {
		return apperrors.AlreadyExists("referral", "id", referral.ID)
	}

	r.index[referral.ID] = len(r.referrals)
	r.referrals = append(r.referrals, *referral)
	storeSize.Set(float64(len(r.referrals)))
	return nil
}

// GetByID returns a copy of the referral with the given ID.
func (r *ReferralRepository) GetByID(_ context.Context, id string) (*domain.Referral, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[id]
	if !ok {
		return nil, apperrors.NotFound("Referral")
	}
	referral := r.referrals[i]
	return &referral, nil
}

// Delete removes exactly one referral and shifts later records down so
// insertion order is kept.
func (r *ReferralRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[id]
	if !ok {
		return apperrors.NotFound("Referral")
	}

	r.referrals = append(r.referrals[:i], r.referrals[i+1:]...)
	delete(r.index, id)
	for j := i; j < len(r.referrals); j++ {
		r.index[r.referrals[j].ID] = j
	}
	storeSize.Set(float64(len(r.referrals)))
	return nil
}

// List returns a copy of all referrals in insertion order.
func (r *ReferralRepository) List(_ context.Context) ([]domain.Referral, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Referral, len(r.referrals))
	copy(out, r.referrals)
	return out, nil
}

// Count returns the number of stored referrals.
func (r *ReferralRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.referrals), nil
}
