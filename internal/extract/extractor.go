package extract

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"medical-intake-agent/internal/intake"
)

// Generator is the completion backend used for extraction.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service turns free-text symptom descriptions into structured records.
// It never returns an error: any failure around the model call collapses
// to an empty result, which the orchestrator treats as "ask the user to
// clarify" rather than a system fault.
type Service struct {
	generator Generator
}

func NewService(g Generator) *Service {
	return &Service{generator: g}
}

// Extract sends the raw text to the completion backend and parses the
// reply into an ExtractionResult. red_flag values assigned by the model
// are passed through verbatim; nothing is re-derived locally.
func (s *Service) Extract(ctx context.Context, rawText string) intake.ExtractionResult {
	reply, err := s.generator.Generate(ctx, buildPrompt(rawText))
	if err != nil {
		log.Printf("symptom extraction failed: %v", err)
		return intake.ExtractionResult{}
	}
	return parseExtraction(reply)
}

// parseExtraction decodes the model reply. Models wrap the JSON in code
// fences or surround it with commentary, so the reply is sliced from the
// first '{' to the last '}' before decoding. Anything that does not
// decode to an object with a symptoms array yields an empty result.
func parseExtraction(reply string) intake.ExtractionResult {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return intake.ExtractionResult{}
	}

	var payload struct {
		Symptoms []struct {
			Symptom  string `json:"symptom"`
			Duration string `json:"duration"`
			Severity string `json:"severity"`
			RedFlag  bool   `json:"red_flag"`
		} `json:"symptoms"`
	}
	if err := json.Unmarshal([]byte(reply[start:end+1]), &payload); err != nil {
		return intake.ExtractionResult{}
	}

	var result intake.ExtractionResult
	for _, item := range payload.Symptoms {
		rec := intake.SymptomRecord{
			Symptom:  strings.TrimSpace(item.Symptom),
			Duration: item.Duration,
			Severity: item.Severity,
			RedFlag:  item.RedFlag,
		}
		if rec.Symptom == "" {
			continue
		}
		if rec.Duration == "" {
			rec.Duration = "not specified"
		}
		if rec.Severity == "" {
			rec.Severity = "not specified"
		}
		result.Symptoms = append(result.Symptoms, rec)
	}
	return result
}
