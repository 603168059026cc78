package nats

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/invoice-audit/internal/core/domain"
)

func TestClassifyNATSError(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
		record    bool
	}{
		{"canceled context", context.Canceled, false, false},
		{"deadline", context.DeadlineExceeded, false, false},
		{"no servers", nats.ErrNoServers, true, true},
		{"timeout", fmt.Errorf("publish: %w", nats.ErrTimeout), true, true},
		{"connection closed", nats.ErrConnectionClosed, true, true},
		{"permanent", errors.New("invalid subject"), false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			class := classifyNATSError(tc.err)
			if class.Retryable != tc.retryable || class.RecordFailure != tc.record {
				t.Fatalf("got retryable=%v record=%v", class.Retryable, class.RecordFailure)
			}
		})
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	if err := wrapTemporaryIfNeeded(nil); err != nil {
		t.Fatalf("nil must stay nil, got %v", err)
	}

	wrapped := wrapTemporaryIfNeeded(nats.ErrNoServers)
	if !domain.IsKind(wrapped, domain.ErrTemporary) {
		t.Fatalf("retryable failure must surface as temporary, got %v", wrapped)
	}

	// Wrapping is applied once.
	if again := wrapTemporaryIfNeeded(wrapped); again != wrapped {
		t.Fatal("already-temporary errors must pass through unchanged")
	}

	permanent := errors.New("invalid subject")
	if err := wrapTemporaryIfNeeded(permanent); domain.IsKind(err, domain.ErrTemporary) {
		t.Fatal("permanent failures must not be marked temporary")
	}
}
