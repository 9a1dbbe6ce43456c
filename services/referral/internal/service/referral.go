package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	apperrors "github.com/davoseaworthui/referral-builder-next/pkg/errors"
	"github.com/davoseaworthui/referral-builder-next/services/referral/internal/domain"
	"github.com/davoseaworthui/referral-builder-next/services/referral/internal/event"
	"github.com/davoseaworthui/referral-builder-next/services/referral/internal/repository"
)

// IDFunc returns a new referral ID.
type IDFunc func() (string, error)

// NewUUIDv7 returns a time-ordered UUID whose first 48 bits are the current
// Unix time in milliseconds.
func NewUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ReferralService implements the business logic for referral operations.
type ReferralService struct {
	repo     repository.ReferralRepository
	producer *event.Producer
	logger   *slog.Logger
	newID    IDFunc
}

// Option configures a ReferralService.
type Option func(*ReferralService)

// WithIDFunc replaces the UUIDv7 generator.
func WithIDFunc(fn IDFunc) Option {
	return func(s *ReferralService) {
		s.newID = fn
	}
}

// NewReferralService creates a new referral service.
func NewReferralService(repo repository.ReferralRepository, producer *event.Producer, logger *slog.Logger, opts ...Option) *ReferralService {
	s := &ReferralService{
		repo:     repo,
		producer: producer,
		logger:   logger,
		newID:    NewUUIDv7,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateReferralInput holds the parameters for creating a referral.
type CreateReferralInput struct {
	GivenName string
	Surname   string
	Email     string
	Phone     string
	Address   domain.Address
}

// CreateReferral stores a new referral under a server-assigned ID.
func (s *ReferralService) CreateReferral(ctx context.Context, input *CreateReferralInput) (*domain.Referral, error) {
	referral := &domain.Referral{
		GivenName: input.GivenName,
		Surname:   input.Surname,
		Email:     input.Email,
		Phone:     input.Phone,
		Address:   input.Address,
	}
	referral.Normalize()
	if err := referral.Validate(); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	id, err := s.newID()
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("generate referral id: %w", err))
	}
	referral.ID = id

	if err := s.repo.Create(ctx, referral); err != nil {
		return nil, fmt.Errorf("create referral: %w", err)
	}

	if err := s.producer.PublishReferralCreated(ctx, referral); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish referral.created event",
			slog.String("referral_id", referral.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "referral created",
		slog.String("referral_id", referral.ID),
	)

	return referral, nil
}

// GetReferral retrieves a referral by its ID.
func (s *ReferralService) GetReferral(ctx context.Context, id string) (*domain.Referral, error) {
	referral, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get referral by id: %w", err)
	}
	return referral, nil
}

// ListReferrals returns every referral in insertion order.
func (s *ReferralService) ListReferrals(ctx context.Context) ([]domain.Referral, error) {
	referrals, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	if referrals == nil {
		referrals = []domain.Referral{}
	}
	return referrals, nil
}

// DeleteReferral removes a referral by its ID.
func (s *ReferralService) DeleteReferral(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete referral: %w", err)
	}

	if err := s.producer.PublishReferralDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish referral.deleted event",
			slog.String("referral_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "referral deleted",
		slog.String("referral_id", id),
	)
	return nil
}

// CountReferrals returns the number of stored referrals.
func (s *ReferralService) CountReferrals(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count referrals: %w", err)
	}
	return n, nil
}
