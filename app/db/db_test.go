package database

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

type flakyPinger struct {
	failures int
	calls    int
}

func (p *flakyPinger) Ping(context.Context) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("connection refused")
	}
	return nil
}

func TestWaitForDB(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("RecoversAfterFailures", func(t *testing.T) {
		p := &flakyPinger{failures: 2}
		assert.True(t, WaitForDB(context.Background(), p, logger))
		assert.Equal(t, 3, p.calls)
	})

	t.Run("GivesUp", func(t *testing.T) {
		p := &flakyPinger{failures: 100}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.False(t, WaitForDB(ctx, p, logger))
		assert.Equal(t, 1, p.calls)
	})
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: UniqueViolation}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("plain")))
}
