package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"plant_telemetry/internal/logger"
	"plant_telemetry/internal/models"
	"plant_telemetry/internal/publisher"
	"plant_telemetry/internal/repository"
)

// recorder appends events to the log and forwards them to the publisher.
// Failures are logged and never surface to the caller.
type recorder struct {
	events repository.EventRepo
	pub    publisher.Publisher
	log    *logger.Logger
}

func newRecorder(events repository.EventRepo, pub publisher.Publisher, log *logger.Logger) *recorder {
	return &recorder{events: events, pub: pub, log: log}
}

func (r *recorder) record(ctx context.Context, typ string, plantID int64, desc string, meta map[string]any) {
	e := models.TelemetryEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().UTC(),
		Type:        typ,
		PlantID:     plantID,
		Description: desc,
	}
	if meta != nil {
		e.Metadata = meta
	}
	if r.events != nil {
		if err := r.events.Append(ctx, e); err != nil {
			r.log.Warnw("event_append_failed", "type", typ, "plant_id", plantID, "err", err)
		}
	}
	if r.pub != nil {
		if err := r.pub.Publish(ctx, e); err != nil {
			r.log.Warnw("event_publish_failed", "type", typ, "plant_id", plantID, "err", err)
		}
	}
}
