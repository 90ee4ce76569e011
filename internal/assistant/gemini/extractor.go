package gemini

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/lendmatch/internal/assistant"
	"github.com/spigell/lendmatch/internal/matching"
	"github.com/spigell/lendmatch/internal/store"
	"github.com/spigell/lendmatch/internal/utils"
)

//go:embed prompts/extract.md
var extractPrompt string

const defaultMaxLogLength = 200

type conversational interface {
	Converse(ctx context.Context, system string, history []Turn, message string) (string, error)
	Model() string
}

// Extractor asks Gemini to read the applicant profile out of the conversation.
type Extractor struct {
	generator conversational
	logger    *zap.Logger
	maxLogLen int
}

var _ assistant.Extractor = (*Extractor)(nil)

// NewExtractor creates a Gemini backed extractor.
func NewExtractor(generator conversational, logger *zap.Logger, maxLogLength int) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &Extractor{generator: generator, logger: logger, maxLogLen: maxLogLength}
}

func (e *Extractor) Extract(ctx context.Context, history []store.Message) (matching.Profile, error) {
	transcript := buildTranscript(history)
	if transcript == "" {
		return matching.Profile{}, nil
	}

	e.logger.Debug("gemini extraction request",
		zap.Int("prompt_length", utf8.RuneCountInString(transcript)),
		zap.String("prompt_preview", utils.TruncateForLog(transcript, e.maxLogLen)),
	)

	raw, err := e.generator.Converse(ctx, extractPrompt, nil, transcript)
	if err != nil {
		return matching.Profile{}, err
	}

	e.logger.Debug("gemini extraction response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	return parseProfile(raw)
}

func buildTranscript(history []store.Message) string {
	var b strings.Builder
	for _, msg := range history {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		switch msg.Role {
		case store.RoleUser:
			b.WriteString("User: ")
		case store.RoleAssistant:
			b.WriteString("Assistant: ")
		default:
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func parseProfile(raw string) (matching.Profile, error) {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return matching.Profile{}, errors.New("gemini response contains no json object")
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return matching.Profile{}, fmt.Errorf("parse gemini response: %w", err)
	}

	for key, value := range data {
		if value == nil {
			delete(data, key)
		}
	}

	return matching.ProfileFromMap(data)
}

// extractJSON strips code fences and any prose around the first JSON object.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end < start {
		return ""
	}
	return strings.TrimSpace(raw[start : end+1])
}
