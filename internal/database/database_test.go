package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOptionsWithDefaults(t *testing.T) {
	t.Run("zero values fall back", func(t *testing.T) {
		opts := Options{}.withDefaults()

		assert.Equal(t, int32(10), opts.MaxConns)
		assert.Equal(t, int32(0), opts.MinConns)
		assert.Equal(t, 30*time.Minute, opts.ConnLifetime)
		assert.Equal(t, 5*time.Minute, opts.ConnIdleTime)
		assert.Equal(t, 30*time.Second, opts.HealthCheckPeriod)
	})

	t.Run("configured values survive", func(t *testing.T) {
		opts := Options{
			MaxConns:          4,
			MinConns:          1,
			ConnLifetime:      time.Hour,
			ConnIdleTime:      time.Minute,
			HealthCheckPeriod: 10 * time.Second,
		}.withDefaults()

		assert.Equal(t, int32(4), opts.MaxConns)
		assert.Equal(t, int32(1), opts.MinConns)
		assert.Equal(t, time.Hour, opts.ConnLifetime)
		assert.Equal(t, time.Minute, opts.ConnIdleTime)
		assert.Equal(t, 10*time.Second, opts.HealthCheckPeriod)
	})

	t.Run("negative min conns clamps to zero", func(t *testing.T) {
		opts := Options{MinConns: -3}.withDefaults()
		assert.Equal(t, int32(0), opts.MinConns)
	})
}

func TestNewRejectsMalformedURL(t *testing.T) {
	db, err := New(context.Background(), "postgres://bad url\n", Options{})

	assert.Nil(t, db)
	assert.ErrorContains(t, err, "parse database URL")
}
