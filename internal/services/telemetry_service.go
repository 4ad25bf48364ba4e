package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// PositionPublisher forwards a serialized position report to the per-trip
// telemetry topic with at-least-once delivery.
type PositionPublisher interface {
	Publish(ctx context.Context, tripID string, payload []byte) error
}

// Position is the telemetry payload broadcast for a trip
type Position struct {
	TripID string    `json:"tripId"`
	Lat    float64   `json:"lat"`
	Lon    float64   `json:"lon"`
	Speed  float64   `json:"speed"`
	Ts     time.Time `json:"ts"`
}

// TelemetryService validates position reports and forwards them to the
// topic. No durable record is kept; a dropped report is superseded by the
// next periodic publish.
type TelemetryService struct {
	publisher PositionPublisher
	logger    *logrus.Logger
	now       func() time.Time
}

// NewTelemetryService creates a new TelemetryService
func NewTelemetryService(publisher PositionPublisher, logger *logrus.Logger) *TelemetryService {
	return &TelemetryService{
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// PublishPosition validates and broadcasts one position report, returning
// the timestamp recorded on it.
func (s *TelemetryService) PublishPosition(ctx context.Context, tripID string, lat, lon float64, speed *float64, ts *time.Time) (time.Time, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return time.Time{}, ErrInvalidCoordinate
	}

	position := Position{
		TripID: tripID,
		Lat:    lat,
		Lon:    lon,
		Ts:     s.now(),
	}
	if speed != nil {
		position.Speed = *speed
	}
	if ts != nil {
		position.Ts = *ts
	}

	payload, err := json.Marshal(position)
	if err != nil {
		return time.Time{}, fmt.Errorf("marshal position: %w", err)
	}

	if err := s.publisher.Publish(ctx, tripID, payload); err != nil {
		s.logger.WithError(err).WithField("trip_id", tripID).Warn("telemetry publish failed")
		return time.Time{}, ErrTelemetryUnavailable
	}
	return position.Ts, nil
}
