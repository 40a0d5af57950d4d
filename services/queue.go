package services

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const queueGroup = "pipeline-workers"

// RecordingQueue distributes newly uploaded recording IDs to pipeline
// workers over a NATS work queue. Each message carries only the recording
// ID; workers reload everything else from the database.
type RecordingQueue struct {
	conn    *nats.Conn
	subject string
}

func NewRecordingQueue(url, subject string) (*RecordingQueue, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &RecordingQueue{conn: conn, subject: subject}, nil
}

// PublishRecordingUploaded enqueues a recording for processing.
func (q *RecordingQueue) PublishRecordingUploaded(recordingID string) error {
	if err := q.conn.Publish(q.subject, []byte(recordingID)); err != nil {
		return fmt.Errorf("publish recording %s: %w", recordingID, err)
	}
	return nil
}

// SubscribeRecordingUploaded joins the worker queue group so each uploaded
// recording is processed by exactly one subscriber.
func (q *RecordingQueue) SubscribeRecordingUploaded(handler func(recordingID string)) (*nats.Subscription, error) {
	sub, err := q.conn.QueueSubscribe(q.subject, queueGroup, func(msg *nats.Msg) {
		handler(string(msg.Data))
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", q.subject, err)
	}
	return sub, nil
}

// Close drains in-flight messages before disconnecting.
func (q *RecordingQueue) Close() {
	if err := q.conn.Drain(); err != nil {
		slog.Error("Failed to drain NATS connection", "error", err)
	}
}
