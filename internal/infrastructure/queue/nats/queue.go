package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/invoice-audit/internal/infrastructure/resilience"
)

// Queue publishes and consumes invoice processing jobs. The payload carries
// identity and enqueue provenance only; the worker reloads all invoice
// state from the repository.
type Queue struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
}

// invoiceJob is the wire payload for one processing job.
type invoiceJob struct {
	InvoiceID  string    `json:"invoice_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

func encodeInvoiceJob(invoiceID string) ([]byte, error) {
	if invoiceID == "" {
		return nil, fmt.Errorf("encode invoice job: empty invoice id")
	}
	return json.Marshal(invoiceJob{
		InvoiceID:  invoiceID,
		EnqueuedAt: time.Now().UTC(),
	})
}

func decodeInvoiceJob(data []byte) (invoiceJob, error) {
	var job invoiceJob
	if err := json.Unmarshal(data, &job); err != nil {
		return invoiceJob{}, fmt.Errorf("decode invoice job: %w", err)
	}
	if job.InvoiceID == "" {
		return invoiceJob{}, fmt.Errorf("decode invoice job: empty invoice id")
	}
	return job, nil
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("invoice-audit"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("nats reconnected: %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishInvoiceReceived(ctx context.Context, invoiceID string) error {
	payload, err := encodeInvoiceJob(invoiceID)
	if err != nil {
		return err
	}

	call := func(_ context.Context) error {
		if err := q.conn.Publish(q.subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Run(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}

func (q *Queue) SubscribeInvoiceReceived(ctx context.Context, handler func(context.Context, string) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, "workers", func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		job, err := decodeInvoiceJob(msg.Data)
		if err != nil {
			log.Printf("dropped malformed job on %s: %v", q.subject, err)
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, job.InvoiceID); err != nil {
			log.Printf("worker handler error for invoice=%s: %v", job.InvoiceID, err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}
