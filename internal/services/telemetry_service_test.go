package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestPublishPosition(t *testing.T) {
	publisher := newFakePublisher()
	svc := NewTelemetryService(publisher, testLogger())
	ctx := context.Background()

	t.Run("publishes with defaults", func(t *testing.T) {
		before := time.Now()
		ts, err := svc.PublishPosition(ctx, "T_A", 6.9271, 79.8612, nil, nil)
		require.NoError(t, err)
		assert.False(t, ts.Before(before))

		require.Len(t, publisher.published["T_A"], 1)
		var got Position
		require.NoError(t, json.Unmarshal(publisher.published["T_A"][0], &got))
		assert.Equal(t, "T_A", got.TripID)
		assert.Equal(t, 6.9271, got.Lat)
		assert.Equal(t, 79.8612, got.Lon)
		assert.Zero(t, got.Speed)
	})

	t.Run("honours supplied speed and timestamp", func(t *testing.T) {
		at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
		ts, err := svc.PublishPosition(ctx, "T_B", 0, 0, floatPtr(42.5), &at)
		require.NoError(t, err)
		assert.True(t, ts.Equal(at))

		var got Position
		require.NoError(t, json.Unmarshal(publisher.published["T_B"][0], &got))
		assert.Equal(t, 42.5, got.Speed)
		assert.True(t, got.Ts.Equal(at))
	})

	t.Run("rejects out-of-range coordinates", func(t *testing.T) {
		cases := [][2]float64{
			{90.1, 0},
			{-90.1, 0},
			{0, 180.1},
			{0, -180.1},
		}
		for _, c := range cases {
			_, err := svc.PublishPosition(ctx, "T_A", c[0], c[1], nil, nil)
			assert.ErrorIs(t, err, ErrInvalidCoordinate)
		}
	})

	t.Run("boundary coordinates are accepted", func(t *testing.T) {
		_, err := svc.PublishPosition(ctx, "T_A", 90, -180, nil, nil)
		assert.NoError(t, err)
	})

	t.Run("broker failure surfaces as unavailable", func(t *testing.T) {
		publisher.err = errors.New("connection reset")
		_, err := svc.PublishPosition(ctx, "T_A", 1, 1, nil, nil)
		assert.ErrorIs(t, err, ErrTelemetryUnavailable)
		publisher.err = nil
	})
}
