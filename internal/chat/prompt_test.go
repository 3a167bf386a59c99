package chat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"fortuneone-chat-backend/internal/types"
)

func TestLoadPromptSpec(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "receptionist.yaml")
	body := `system:
  - You are the receptionist for "{name}" in {location}.
  - Never make up prices or availability.
style:
  temperature: 0.2
  max_tokens: 350
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	spec, err := LoadPromptSpec(path)
	require.NoError(t, err)
	require.Len(t, spec.System, 2)
	require.InDelta(t, 0.2, spec.Style.Temperature, 0.001)
	require.Equal(t, 350, spec.Style.MaxTokens)
}

func TestLoadPromptSpecMissingFile(t *testing.T) {
	_, err := LoadPromptSpec(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadPromptSpecRejectsEmptySystem(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("style:\n  temperature: 0.3\n"), 0o644))

	_, err := LoadPromptSpec(path)
	require.Error(t, err)
}

func TestRenderFillsPlaceholdersAndAppendsConfig(t *testing.T) {
	spec := testSpec()
	cfg := &types.BusinessConfig{
		BusinessID: "bangkok-fortune",
		Name:       "Bangkok Fortune Spa",
		Location:   "Bangkok",
		BasePrice:  map[string]float64{"thai-massage": 900},
	}

	rendered := spec.Render(cfg)
	require.Contains(t, rendered, `"Bangkok Fortune Spa" in Bangkok`)
	require.Contains(t, rendered, "Business configuration:")
	require.Contains(t, rendered, `"thai-massage": 900`)
}

func TestTemperatureDefault(t *testing.T) {
	spec := &PromptSpec{System: []string{"x"}}
	require.InDelta(t, 0.3, spec.temperature(), 0.001)
}
