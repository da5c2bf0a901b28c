// internal/event/nats.go
// NATS JetStream publisher. Streams are created on startup if they do not
// exist; subjects are derived from the event type.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Kb28022004/toperNoteBackend/internal/server/middleware"
)

const streamName = "MARKETPLACE"

type natsPublisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewNATS connects to the broker and ensures the marketplace stream exists.
func NewNATS(url string) (Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	_, err = js.StreamInfo(streamName)
	if err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:     streamName,
			Subjects: []string{"marketplace.>"},
			Storage:  nats.FileStorage,
		})
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("create stream: %w", err)
		}
	}
	return &natsPublisher{conn: conn, js: js}, nil
}

func (p *natsPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	env := Envelope{
		Type:          eventType,
		Version:       1,
		OccurredAt:    time.Now().UTC(),
		CorrelationID: middleware.CorrelationIDFrom(ctx),
		Payload:       payload,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	// Event type doubles as the subject; dots already delimit the
	// hierarchy.
	subject := strings.ToLower(eventType)
	if _, err := p.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func (p *natsPublisher) Close() {
	p.conn.Drain()
}
