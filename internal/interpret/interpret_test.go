package interpret

import (
	"testing"

	"github.com/stretchr/testify/require"

	"fortuneone-chat-backend/internal/types"
)

func TestInterpretSplitsReplyAndIntent(t *testing.T) {
	res := Interpret("Hello there\n{\"intent\":\"SMALL_TALK\"}")
	require.Equal(t, "Hello there", res.Reply)
	require.NotNil(t, res.Intent)
	require.Equal(t, types.IntentSmallTalk, res.Intent.Intent)
}

func TestInterpretNoJSON(t *testing.T) {
	res := Interpret("Just a friendly reply, no JSON here.")
	require.Equal(t, "Just a friendly reply, no JSON here.", res.Reply)
	require.Nil(t, res.Intent)
}

func TestInterpretMalformedJSONDegrades(t *testing.T) {
	res := Interpret("Reply\n{not valid json")
	require.Nil(t, res.Intent)
	require.Equal(t, "Reply\n{not valid json", res.Reply)
}

func TestInterpretFullIntentFields(t *testing.T) {
	raw := "We have openings tomorrow.\n" +
		`{"intent":"ASK_AVAILABILITY","service_name":"Thai Massage","duration_minutes":60,"preferred_date":"2024-01-01"}`
	res := Interpret(raw)
	require.Equal(t, "We have openings tomorrow.", res.Reply)
	require.NotNil(t, res.Intent)
	require.Equal(t, types.IntentAskAvailability, res.Intent.Intent)
	require.Equal(t, "Thai Massage", res.Intent.ServiceName)
	require.Equal(t, 60, res.Intent.DurationMinutes)
	require.Equal(t, "2024-01-01", res.Intent.PreferredDate)
}

func TestInterpretTrimsWhitespace(t *testing.T) {
	res := Interpret("  \n  Sure thing!  \n\n{\"intent\":\"OTHER\"}\n")
	require.Equal(t, "Sure thing!", res.Reply)
	require.NotNil(t, res.Intent)
}

func TestResolveLanguage(t *testing.T) {
	require.Equal(t, "th", ResolveLanguage("th", "hello", "en"))
	require.Equal(t, "th", ResolveLanguage("", "สวัสดีครับ", "en"))
	require.Equal(t, "en", ResolveLanguage("", "hello", "en"))
	require.Equal(t, "th", ResolveLanguage("", "hello", "th"))
	require.Equal(t, "en", ResolveLanguage("", "hello", ""))
}
