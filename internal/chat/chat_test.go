package chat

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"

	"fortuneone-chat-backend/internal/dispatch"
	"fortuneone-chat-backend/internal/scheduling"
	"fortuneone-chat-backend/internal/types"
)

type stubModel struct {
	reply string
	err   error
	seen  []openai.ChatCompletionRequest
}

func (m *stubModel) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.seen = append(m.seen, req)
	if m.err != nil {
		return openai.ChatCompletionResponse{}, m.err
	}
	if m.reply == "" {
		return openai.ChatCompletionResponse{}, nil
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.reply}},
		},
	}, nil
}

type stubScheduler struct {
	slots []types.Slot
	conf  *types.BookingConfirmation
	err   error
}

func (s *stubScheduler) CheckAvailability(_ context.Context, _ *types.IntentResult, _ *types.BusinessConfig) ([]types.Slot, error) {
	return s.slots, s.err
}

func (s *stubScheduler) BookAppointment(_ context.Context, _ *types.IntentResult, _ *types.BusinessConfig) (*types.BookingConfirmation, error) {
	return s.conf, s.err
}

func testSpec() *PromptSpec {
	spec := &PromptSpec{System: []string{`You are the receptionist for "{name}" in {location}.`}}
	spec.Style.Temperature = 0.3
	spec.Style.MaxTokens = 400
	return spec
}

func testCfg() *types.BusinessConfig {
	return &types.BusinessConfig{
		BusinessID:      "bangkok-fortune",
		Name:            "Bangkok Fortune Spa",
		Location:        "Bangkok",
		LanguageDefault: "en",
	}
}

func newTestService(model ModelClient, provider scheduling.Provider) *Service {
	return NewService(model, "gpt-4o", dispatch.New(2), provider, testSpec(), nil)
}

func TestHandleTurnSmallTalk(t *testing.T) {
	model := &stubModel{reply: "Hello! How can I help?\n{\"intent\":\"SMALL_TALK\"}"}
	svc := newTestService(model, &stubScheduler{})

	out := svc.HandleTurn(context.Background(), Turn{SessionID: "s1", BusinessID: "bangkok-fortune", Content: "hi"}, testCfg())

	require.Equal(t, types.MessageTypeTextOutput, out.Type)
	require.Equal(t, "Hello! How can I help?", out.Content)
	require.Equal(t, "en", out.Language)
	require.NotNil(t, out.IntentResult)
	require.Equal(t, types.IntentSmallTalk, out.IntentResult.Intent)
	require.Empty(t, out.Slots)
	require.Nil(t, out.BookingConfirmation)
	require.Empty(t, out.Error)
}

func TestHandleTurnAvailabilityEnriched(t *testing.T) {
	model := &stubModel{reply: "We have these times.\n{\"intent\":\"ASK_AVAILABILITY\",\"service_name\":\"Massage\"}"}
	sched := &stubScheduler{slots: []types.Slot{{Time: "10:00 AM", Bookable: true}}}
	svc := newTestService(model, sched)

	out := svc.HandleTurn(context.Background(), Turn{Content: "any slots tomorrow?"}, testCfg())

	require.Equal(t, "We have these times.", out.Content)
	require.Len(t, out.Slots, 1)
	require.Empty(t, out.Error)
}

func TestHandleTurnBookingEnriched(t *testing.T) {
	model := &stubModel{reply: "Booked!\n{\"intent\":\"BOOK_APPOINTMENT\",\"service_name\":\"Massage\",\"preferred_time_range\":\"2:00 PM\"}"}
	sched := &stubScheduler{conf: &types.BookingConfirmation{BookingID: "BK-1", Time: "2:00 PM", ServiceName: "Massage"}}
	svc := newTestService(model, sched)

	out := svc.HandleTurn(context.Background(), Turn{Content: "book me in"}, testCfg())

	require.NotNil(t, out.BookingConfirmation)
	require.Equal(t, "BK-1", out.BookingConfirmation.BookingID)
}

func TestHandleTurnModelFailure(t *testing.T) {
	model := &stubModel{err: errors.New("connection refused")}
	svc := newTestService(model, &stubScheduler{})

	out := svc.HandleTurn(context.Background(), Turn{Content: "hi"}, testCfg())

	require.Equal(t, replyHighDemand, out.Content)
	require.Equal(t, types.ErrRateLimitExceeded, out.Error)
	require.Nil(t, out.IntentResult)
	// Non-rate-limit errors must not be retried.
	require.Len(t, model.seen, 1)
}

func TestHandleTurnEnrichmentFailureIsSoft(t *testing.T) {
	model := &stubModel{reply: "Let me check.\n{\"intent\":\"ASK_AVAILABILITY\"}"}
	sched := &stubScheduler{err: errors.New("square unreachable")}
	svc := newTestService(model, sched)

	out := svc.HandleTurn(context.Background(), Turn{Content: "slots?"}, testCfg())

	// The base reply is still delivered, annotated with a soft error.
	require.Equal(t, "Let me check.", out.Content)
	require.Equal(t, errEnrichment, out.Error)
	require.Empty(t, out.Slots)
}

func TestHandleTurnEmptyCompletion(t *testing.T) {
	model := &stubModel{}
	svc := newTestService(model, &stubScheduler{})

	out := svc.HandleTurn(context.Background(), Turn{Content: "hi"}, testCfg())

	require.Equal(t, replyEmptyModel, out.Content)
	require.Empty(t, out.Error)
}

func TestHandleTurnLanguageResolution(t *testing.T) {
	model := &stubModel{reply: "สวัสดีค่ะ"}
	svc := newTestService(model, &stubScheduler{})

	out := svc.HandleTurn(context.Background(), Turn{Content: "สวัสดีครับ"}, testCfg())
	require.Equal(t, "th", out.Language)

	out = svc.HandleTurn(context.Background(), Turn{Content: "hello", Language: "th"}, testCfg())
	require.Equal(t, "th", out.Language)
}

func TestHandleTurnPromptCarriesBusinessConfig(t *testing.T) {
	model := &stubModel{reply: "ok"}
	svc := newTestService(model, &stubScheduler{})

	svc.HandleTurn(context.Background(), Turn{Content: "hi"}, testCfg())

	require.Len(t, model.seen, 1)
	req := model.seen[0]
	require.Equal(t, "gpt-4o", req.Model)
	require.Len(t, req.Messages, 2)
	system := req.Messages[0].Content
	require.Contains(t, system, "Bangkok Fortune Spa")
	require.Contains(t, system, "Business configuration:")
	require.Contains(t, req.Messages[1].Content, "User language code: en.")
}
