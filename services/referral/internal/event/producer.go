package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/davoseaworthui/referral-builder-next/pkg/kafka"
	"github.com/davoseaworthui/referral-builder-next/pkg/logger"
	"github.com/davoseaworthui/referral-builder-next/services/referral/internal/domain"
)

// Aggregate type constant.
const AggregateTypeReferral = "referral"

// Source identifier for events originating from the referral service.
const SourceReferralService = "referral-service"

// Kafka topics for referral domain events.
var (
	TopicReferralCreated = pkgkafka.Topic(AggregateTypeReferral, "created")
	TopicReferralDeleted = pkgkafka.Topic(AggregateTypeReferral, "deleted")
)

// ReferralCreatedData is the payload for a referral.created event.
type ReferralCreatedData struct {
	ID        string `json:"id"`
	GivenName string `json:"given_name"`
	Surname   string `json:"surname"`
	Email     string `json:"email"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
}

// ReferralDeletedData is the payload for a referral.deleted event.
type ReferralDeletedData struct {
	ID string `json:"id"`
}

// Producer publishes referral domain events.
type Producer struct {
	publisher pkgkafka.Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer for the referral service.
func NewProducer(publisher pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

// PublishReferralCreated publishes a referral.created event.
func (p *Producer) PublishReferralCreated(ctx context.Context, referral *domain.Referral) error {
	data := ReferralCreatedData{
		ID:        referral.ID,
		GivenName: referral.GivenName,
		Surname:   referral.Surname,
		Email:     referral.Email,
		Postcode:  referral.Address.Postcode,
		Country:   referral.Address.Country,
	}
	return p.publish(ctx, TopicReferralCreated, referral.ID, data)
}

// PublishReferralDeleted publishes a referral.deleted event.
func (p *Producer) PublishReferralDeleted(ctx context.Context, id string) error {
	return p.publish(ctx, TopicReferralDeleted, id, ReferralDeletedData{ID: id})
}

func (p *Producer) publish(ctx context.Context, topic, referralID string, data any) error {
	event, err := pkgkafka.NewEvent(topic, referralID, AggregateTypeReferral, SourceReferralService, data,
		pkgkafka.WithCorrelationID(logger.CorrelationIDFromContext(ctx)))
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.publisher.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published referral event",
		slog.String("topic", topic),
		slog.String("referral_id", referralID),
	)
	return nil
}
