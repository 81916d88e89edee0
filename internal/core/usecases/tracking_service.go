package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/rohanmhatre/farmroute/internal/core/domain"
	"github.com/rohanmhatre/farmroute/internal/core/ports"
)

// TrackingService processes incoming courier position reports for the live
// delivery map.
type TrackingService struct {
	couriers  ports.CourierRepository
	publisher ports.EventPublisher
}

// NewTrackingService creates a new TrackingService.
func NewTrackingService(couriers ports.CourierRepository, publisher ports.EventPublisher) *TrackingService {
	return &TrackingService{couriers: couriers, publisher: publisher}
}

// RecordPosition stores a position reading and relays it to map clients.
func (s *TrackingService) RecordPosition(ctx context.Context, cp *domain.CourierPosition) error {
	cp.Time = time.Now()

	if err := s.couriers.InsertPosition(ctx, cp); err != nil {
		return fmt.Errorf("insert courier position: %w", err)
	}

	// Broadcast to WebSocket clients; serialization is left to the
	// publisher implementation.
	if s.publisher != nil {
		_ = s.publisher.PublishCourierPosition(ctx, cp)
	}

	return nil
}

// Trail returns the recorded positions of a delivery, newest first.
func (s *TrackingService) Trail(ctx context.Context, deliveryID string) ([]domain.CourierPosition, error) {
	if deliveryID == "" {
		return nil, fmt.Errorf("delivery id is required")
	}
	return s.couriers.LatestPositions(ctx, deliveryID)
}
