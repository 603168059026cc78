package nats

import (
	"testing"
	"time"
)

func TestInvoiceJobRoundTrip(t *testing.T) {
	payload, err := encodeInvoiceJob("inv-42")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	job, err := decodeInvoiceJob(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if job.InvoiceID != "inv-42" {
		t.Errorf("invoice id: got %q, want %q", job.InvoiceID, "inv-42")
	}
	if job.EnqueuedAt.IsZero() || time.Since(job.EnqueuedAt) > time.Minute {
		t.Errorf("enqueue timestamp not stamped: %v", job.EnqueuedAt)
	}
}

func TestEncodeInvoiceJobRejectsEmptyID(t *testing.T) {
	if _, err := encodeInvoiceJob(""); err == nil {
		t.Fatal("expected error for empty invoice id")
	}
}

func TestDecodeInvoiceJobRejectsMalformed(t *testing.T) {
	if _, err := decodeInvoiceJob([]byte("inv-42")); err == nil {
		t.Fatal("expected error for a non-JSON payload")
	}
	if _, err := decodeInvoiceJob([]byte(`{"enqueued_at":"2026-01-15T00:00:00Z"}`)); err == nil {
		t.Fatal("expected error for a payload without an invoice id")
	}
}
