// Package scheduling is the boundary to the external scheduling system. The
// Provider interface is the capability the rest of the pipeline programs
// against; a real backend integration is a drop-in Provider implementation.
package scheduling

import (
	"context"

	"github.com/rs/zerolog/log"

	"fortuneone-chat-backend/internal/types"
)

// Provider exposes the two scheduling operations the conversation pipeline
// needs.
type Provider interface {
	CheckAvailability(ctx context.Context, intent *types.IntentResult, cfg *types.BusinessConfig) ([]types.Slot, error)
	BookAppointment(ctx context.Context, intent *types.IntentResult, cfg *types.BusinessConfig) (*types.BookingConfirmation, error)
}

// Enrichment is the scheduling data merged into an outbound message.
type Enrichment struct {
	Slots               []types.Slot
	BookingConfirmation *types.BookingConfirmation
}

// Enrich dispatches on the extracted intent. Availability queries return
// slots, booking requests return a confirmation, every other intent is a
// no-op. A nil provider (scheduling unconfigured) yields an empty enrichment
// rather than an error; provider failures are returned for the caller to
// soften, never to abort the turn with.
func Enrich(ctx context.Context, p Provider, intent *types.IntentResult, cfg *types.BusinessConfig) (Enrichment, error) {
	if intent == nil {
		return Enrichment{}, nil
	}
	if p == nil {
		if intent.Intent == types.IntentAskAvailability || intent.Intent == types.IntentBookAppointment {
			log.Warn().Str("component", "scheduling").Msg("scheduling provider not configured, skipping enrichment")
		}
		return Enrichment{}, nil
	}

	switch intent.Intent {
	case types.IntentAskAvailability:
		slots, err := p.CheckAvailability(ctx, intent, cfg)
		if err != nil {
			return Enrichment{}, err
		}
		return Enrichment{Slots: slots}, nil
	case types.IntentBookAppointment:
		conf, err := p.BookAppointment(ctx, intent, cfg)
		if err != nil {
			return Enrichment{}, err
		}
		return Enrichment{BookingConfirmation: conf}, nil
	default:
		return Enrichment{}, nil
	}
}
