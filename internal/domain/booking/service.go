package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careops/intake/internal/domain/intake"
	"github.com/careops/intake/internal/platform/telemetry"
)

// RecordStore is the slice of the intake repository the reconciler needs.
type RecordStore interface {
	ListUnbookedByEmail(ctx context.Context, email string) ([]*intake.IntakeRecord, error)
	ClaimBooking(ctx context.Context, id uuid.UUID, bookingID string, bookingAt time.Time) (bool, error)
}

// claimAttempts bounds the re-list loop when concurrent events race for
// the same records.
const claimAttempts = 3

// Outcome describes what the reconciler did with one event.
type Outcome struct {
	Matched    bool
	DropReason string
	RecordID   uuid.UUID
	BookingID  string
}

type Service struct {
	store    RecordStore
	selector CandidateSelector
	log      zerolog.Logger
	tel      *telemetry.Provider
}

func NewService(store RecordStore, selector CandidateSelector, log zerolog.Logger, tel *telemetry.Provider) *Service {
	if selector == nil {
		selector = MostRecentFirst
	}
	return &Service{store: store, selector: selector, log: log, tel: tel}
}

// HandleEvent reconciles one webhook event against the intake records.
// It never returns an error: every failure mode is absorbed into a drop
// outcome so the webhook boundary can always acknowledge the provider.
func (s *Service) HandleEvent(ctx context.Context, ev Event) Outcome {
	if ev.TriggerEvent != TriggerBookingCreated {
		return s.drop(telemetry.DropUnrecognizedEvent, ev,
			s.log.Debug().Str("trigger", ev.TriggerEvent))
	}

	email := ev.AttendeeEmail()
	if ev.Payload.UID == "" || ev.Payload.StartTime == "" || email == "" {
		return s.drop(telemetry.DropMissingFields, ev, s.log.Warn())
	}
	startAt, err := time.Parse(time.RFC3339, ev.Payload.StartTime)
	if err != nil {
		return s.drop(telemetry.DropMissingFields, ev,
			s.log.Warn().Str("start_time", ev.Payload.StartTime))
	}

	for attempt := 0; attempt < claimAttempts; attempt++ {
		candidates, err := s.store.ListUnbookedByEmail(ctx, email)
		if err != nil {
			return s.drop(telemetry.DropPersistFailure, ev, s.log.Error().Err(err))
		}
		if len(candidates) == 0 {
			return s.drop(telemetry.DropNoMatch, ev, s.log.Info().Str("email", email))
		}
		rec := s.selector(candidates, ev)
		if rec == nil {
			return s.drop(telemetry.DropNoMatch, ev, s.log.Info().Str("email", email))
		}

		won, err := s.store.ClaimBooking(ctx, rec.ID, ev.Payload.UID, startAt)
		if err != nil {
			return s.drop(telemetry.DropPersistFailure, ev, s.log.Error().Err(err))
		}
		if won {
			s.tel.WebhookEventMatched()
			s.log.Info().
				Str("booking_id", ev.Payload.UID).
				Str("record_id", rec.ID.String()).
				Str("email", email).
				Msg("booking matched to intake record")
			return Outcome{Matched: true, RecordID: rec.ID, BookingID: ev.Payload.UID}
		}
		// Lost the claim to a concurrent event; re-list and try the
		// remaining candidates.
	}

	return s.drop(telemetry.DropNoMatch, ev, s.log.Warn().Str("email", email))
}

func (s *Service) drop(reason string, ev Event, entry *zerolog.Event) Outcome {
	s.tel.WebhookEventDropped(reason)
	entry.
		Str("reason", reason).
		Str("booking_id", ev.Payload.UID).
		Msg("webhook event dropped")
	return Outcome{DropReason: reason, BookingID: ev.Payload.UID}
}
