// Package interpret turns a raw model completion into a user-facing reply
// and an optional structured intent.
package interpret

import (
	"encoding/json"
	"regexp"
	"strings"

	"fortuneone-chat-backend/internal/types"
)

// trailingJSONRe locates a trailing JSON object: from the first opening
// brace through the end of the text (or a line end, the shape the prompt
// asks the model for). This is a deliberately simple textual strategy,
// isolated here so it can be swapped out: a model reply whose
// natural-language part itself contains braces would false-positive, and
// the heuristic makes no attempt to detect that.
var trailingJSONRe = regexp.MustCompile(`(?ms)\{.*\}$`)

// Result is the interpreted completion.
type Result struct {
	Reply  string
	Intent *types.IntentResult
}

// Interpret splits raw into reply text and a trailing intent object. A
// missing or unparseable trailing object degrades to "no intent": the whole
// trimmed input becomes the reply and Intent is nil. It never fails.
func Interpret(raw string) Result {
	loc := trailingJSONRe.FindStringIndex(raw)
	if loc == nil {
		return Result{Reply: strings.TrimSpace(raw)}
	}
	var intent types.IntentResult
	if err := json.Unmarshal([]byte(raw[loc[0]:loc[1]]), &intent); err != nil {
		return Result{Reply: strings.TrimSpace(raw)}
	}
	return Result{Reply: strings.TrimSpace(raw[:loc[0]]), Intent: &intent}
}

var thaiScriptRe = regexp.MustCompile(`[\x{0E00}-\x{0E7F}]`)

// ResolveLanguage picks the response language: an explicit tag wins, then
// script detection on the message content (Thai block), then the business
// default, then English.
func ResolveLanguage(explicit, message, businessDefault string) string {
	if explicit != "" {
		return explicit
	}
	if thaiScriptRe.MatchString(message) {
		return "th"
	}
	if businessDefault != "" {
		return businessDefault
	}
	return "en"
}
