package chat

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"fortuneone-chat-backend/internal/types"
)

// PromptSpec is the receptionist system prompt, loaded from a YAML file so
// prompt wording can change without a rebuild. The system lines may contain
// {name} and {location} placeholders filled from the business config.
type PromptSpec struct {
	System []string `yaml:"system"`
	Style  struct {
		Temperature float32 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
	} `yaml:"style"`
}

func LoadPromptSpec(path string) (*PromptSpec, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading prompt spec %s", path)
	}
	var spec PromptSpec
	if err := yaml.Unmarshal(b, &spec); err != nil {
		return nil, errors.Wrapf(err, "parsing prompt spec %s", path)
	}
	if len(spec.System) == 0 {
		return nil, errors.Errorf("prompt spec %s has no system lines", path)
	}
	return &spec, nil
}

// Render builds the full system prompt for one business: the spec's system
// lines with placeholders filled, then the business configuration as JSON so
// the model answers from real data only.
func (s *PromptSpec) Render(cfg *types.BusinessConfig) string {
	var b strings.Builder
	for i, line := range s.System {
		if i > 0 {
			b.WriteString("\n")
		}
		line = strings.ReplaceAll(line, "{name}", cfg.Name)
		line = strings.ReplaceAll(line, "{location}", cfg.Location)
		b.WriteString(line)
	}
	cfgJSON, _ := json.MarshalIndent(cfg, "", "  ")
	b.WriteString("\nBusiness configuration:\n")
	b.Write(cfgJSON)
	return b.String()
}

func (s *PromptSpec) temperature() float32 {
	if s.Style.Temperature <= 0 {
		return 0.3
	}
	return s.Style.Temperature
}
