// Package chat runs one conversation turn: prompt construction, the
// dispatched model call, reply interpretation, and conditional scheduling
// enrichment.
package chat

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/rs/zerolog/log"

	"fortuneone-chat-backend/internal/dispatch"
	"fortuneone-chat-backend/internal/interpret"
	"fortuneone-chat-backend/internal/scheduling"
	"fortuneone-chat-backend/internal/store"
	"fortuneone-chat-backend/internal/types"
)

// Fallback copy for the two turn-level failures the client must still get a
// well-formed message for.
const (
	replyHighDemand = "I'm currently experiencing high demand. Please wait a moment and try again."
	replyEmptyModel = "Sorry, I could not generate a response."
	errEnrichment   = "There was an error checking availability. Please try again."
)

// ModelClient is the slice of the OpenAI client the pipeline uses.
type ModelClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Service handles conversation turns. It is shared by all sessions; per-turn
// state lives on the stack.
type Service struct {
	client     ModelClient
	model      string
	dispatcher *dispatch.Dispatcher
	provider   scheduling.Provider
	spec       *PromptSpec
	bookingLog *store.BookingLog
}

// NewService wires the turn pipeline. provider and bookingLog may be nil
// (scheduling or persistence unconfigured).
func NewService(client ModelClient, model string, d *dispatch.Dispatcher, provider scheduling.Provider, spec *PromptSpec, bookingLog *store.BookingLog) *Service {
	return &Service{
		client:     client,
		model:      model,
		dispatcher: d,
		provider:   provider,
		spec:       spec,
		bookingLog: bookingLog,
	}
}

// Turn identifies the inbound message being handled.
type Turn struct {
	SessionID  string
	BusinessID string
	Content    string
	Language   string
}

// HandleTurn maps one inbound text message to exactly one outbound message.
// Every failure mode is folded into the returned message; it never returns
// an error the transport would have to convey.
func (s *Service) HandleTurn(ctx context.Context, turn Turn, cfg *types.BusinessConfig) *types.ServerTextOutput {
	language := interpret.ResolveLanguage(turn.Language, turn.Content, cfg.LanguageDefault)
	systemPrompt := s.spec.Render(cfg)

	raw, err := dispatch.Execute(ctx, s.dispatcher, func() (string, error) {
		resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       s.model,
			Temperature: s.spec.temperature(),
			MaxTokens:   s.spec.Style.MaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: fmt.Sprintf("User language code: %s. User message: %s", language, turn.Content),
				},
			},
		})
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", nil
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		log.Error().
			Str("component", "chat").
			Str("session_id", turn.SessionID).
			Err(err).
			Msg("model call failed")
		return &types.ServerTextOutput{
			Type:     types.MessageTypeTextOutput,
			Content:  replyHighDemand,
			Language: language,
			Error:    types.ErrRateLimitExceeded,
		}
	}

	interpreted := interpret.Interpret(raw)
	content := interpreted.Reply
	if content == "" {
		content = replyEmptyModel
	}

	out := &types.ServerTextOutput{
		Type:         types.MessageTypeTextOutput,
		Content:      content,
		Language:     language,
		IntentResult: interpreted.Intent,
	}

	if needsEnrichment(interpreted.Intent) {
		enriched, err := scheduling.Enrich(ctx, s.provider, interpreted.Intent, cfg)
		if err != nil {
			log.Error().
				Str("component", "chat").
				Str("session_id", turn.SessionID).
				Err(err).
				Msg("scheduling enrichment failed")
			out.Error = errEnrichment
		} else {
			out.Slots = enriched.Slots
			out.BookingConfirmation = enriched.BookingConfirmation
			s.recordBooking(ctx, turn, enriched.BookingConfirmation)
		}
	}
	return out
}

func needsEnrichment(intent *types.IntentResult) bool {
	if intent == nil {
		return false
	}
	return intent.Intent == types.IntentAskAvailability || intent.Intent == types.IntentBookAppointment
}

// recordBooking appends a confirmed booking to the optional booking log. A
// log failure must not disturb the turn; the confirmation already stands.
func (s *Service) recordBooking(ctx context.Context, turn Turn, conf *types.BookingConfirmation) {
	if conf == nil || s.bookingLog == nil {
		return
	}
	if err := s.bookingLog.Record(ctx, turn.BusinessID, turn.SessionID, conf); err != nil {
		log.Warn().
			Str("component", "chat").
			Str("booking_id", conf.BookingID).
			Err(err).
			Msg("failed to record booking")
	}
}
