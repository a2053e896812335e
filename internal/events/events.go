// Package events announces loaded datasets to a message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"netusage/internal/config"
	"netusage/internal/log"
	"netusage/internal/session"
)

// Publisher announces dataset loads. Implementations must be safe for
// concurrent use.
type Publisher interface {
	PublishDatasetLoaded(ctx context.Context, msg DatasetLoaded) error
	Close() error
}

// DatasetLoaded is published once per successful load.
type DatasetLoaded struct {
	SessionID   string    `json:"session_id"`
	Source      string    `json:"source"`
	SourceKind  string    `json:"source_kind"`
	RowsRead    int       `json:"rows_read"`
	RowsKept    int       `json:"rows_kept"`
	RowsDropped int       `json:"rows_dropped"`
	ZeroCoerced int       `json:"zero_coerced"`
	TotalMB     float64   `json:"total_mb"`
	FirstDate   time.Time `json:"first_date"`
	LastDate    time.Time `json:"last_date"`
	Years       []int     `json:"years"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// NewDatasetLoaded builds the message for sess.
func NewDatasetLoaded(sess *session.Session) DatasetLoaded {
	first, last, _ := sess.Dataset.Span()
	return DatasetLoaded{
		SessionID:   sess.ID,
		Source:      sess.Source,
		SourceKind:  sess.SourceKind,
		RowsRead:    sess.Report.RowsRead,
		RowsKept:    sess.Report.RowsKept,
		RowsDropped: sess.Report.RowsDropped,
		ZeroCoerced: sess.Report.ZeroCoerced,
		TotalMB:     sess.Dataset.TotalMB(),
		FirstDate:   first,
		LastDate:    last,
		Years:       sess.Dataset.Years(),
		LoadedAt:    sess.LoadedAt,
	}
}

// ToJSON converts the message to JSON bytes
func (m DatasetLoaded) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DatasetLoadedFromJSON decodes a message.
func DatasetLoadedFromJSON(data []byte) (DatasetLoaded, error) {
	var m DatasetLoaded
	if err := json.Unmarshal(data, &m); err != nil {
		return DatasetLoaded{}, err
	}
	return m, nil
}

// Noop drops every message.
type Noop struct{}

func (Noop) PublishDatasetLoaded(context.Context, DatasetLoaded) error { return nil }
func (Noop) Close() error                                              { return nil }

// New connects the publisher selected by cfg.Events.Backend.
func New(cfg *config.Config, logger *log.Logger) (Publisher, error) {
	logger = logger.WithComponent(log.ComponentEvents)
	switch cfg.Events.Backend {
	case "", config.EventsNone:
		return Noop{}, nil
	case config.EventsAMQP:
		p, err := NewAMQP(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.RoutingKey, logger)
		if err != nil {
			return nil, fmt.Errorf("amqp publisher: %w", err)
		}
		return p, nil
	case config.EventsMQTT:
		p, err := NewMQTT(cfg.MQTT, logger)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown events backend %q", cfg.Events.Backend)
}

// Announce publishes msg and logs a failure instead of returning it.
func Announce(ctx context.Context, p Publisher, msg DatasetLoaded) {
	if err := p.PublishDatasetLoaded(ctx, msg); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Failed to publish dataset loaded event",
			log.FieldSessionID, msg.SessionID,
			log.FieldOperation, log.OpPublish,
			log.FieldError, err)
	}
}
