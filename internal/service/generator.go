package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dom/study-buddy/internal/domain"
	"github.com/dom/study-buddy/internal/lib/sl"
	"github.com/dom/study-buddy/internal/llm"
	"github.com/dom/study-buddy/internal/metrics"
)

const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"

	systemPrompt = "You are an educational assistant that creates effective flashcards from study materials."

	fallbackQuestionPrefix = "What is the key point about: "
	fallbackQuestionRunes  = 50
)

type GeneratorConfig struct {
	MinCards     int
	MaxCards     int
	DefaultCards int
	// Timeout bounds a single provider call.
	Timeout time.Duration
}

type Generation struct {
	Cards  []domain.Card
	Source string
}

// Generator turns notes into cards, preferring the LLM and falling back to
// sentence splitting. It never fails.
type Generator struct {
	completer llm.Completer
	cfg       GeneratorConfig
	metrics   *metrics.Metrics
	log       *slog.Logger
}

// NewGenerator builds a Generator. A nil completer means no provider is
// configured and every call uses the fallback.
func NewGenerator(completer llm.Completer, cfg GeneratorConfig, m *metrics.Metrics, log *slog.Logger) *Generator {
	return &Generator{
		completer: completer,
		cfg:       cfg,
		metrics:   m,
		log:       sl.OrDiscard(log),
	}
}

// ClampCount maps a requested card count into [MinCards, MaxCards].
// Zero or negative means "not given" and yields DefaultCards.
func (g *Generator) ClampCount(n int) int {
	switch {
	case n <= 0:
		return g.cfg.DefaultCards
	case n < g.cfg.MinCards:
		return g.cfg.MinCards
	case n > g.cfg.MaxCards:
		return g.cfg.MaxCards
	default:
		return n
	}
}

func (g *Generator) Generate(ctx context.Context, notes string, count int) Generation {
	const op = "service.Generator.Generate"

	count = g.ClampCount(count)
	log := g.log.With(slog.String("op", op), slog.Int("count", count))

	if g.completer != nil {
		if cards, ok := g.fromLLM(ctx, log, notes, count); ok {
			g.metrics.ObserveGeneration(SourceLLM)
			return Generation{Cards: cards, Source: SourceLLM}
		}
	}

	g.metrics.ObserveGeneration(SourceFallback)
	return Generation{Cards: Fallback(notes, count), Source: SourceFallback}
}

func (g *Generator) fromLLM(ctx context.Context, log *slog.Logger, notes string, count int) ([]domain.Card, bool) {
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	text, err := g.completer.Complete(ctx, llm.Request{
		System: systemPrompt,
		Prompt: buildPrompt(notes, count),
	})
	if err != nil {
		log.Warn("llm call failed, using fallback", sl.Err(err))
		return nil, false
	}

	cards, ok := parseCards(text)
	if !ok {
		log.Warn("llm output not usable, using fallback", slog.Int("length", len(text)))
		return nil, false
	}
	return cards, true
}

func buildPrompt(notes string, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create exactly %d educational flashcards from the following study notes.\n", count)
	b.WriteString("For each flashcard, provide a clear question and a comprehensive answer.\n")
	b.WriteString(`Format the response as a JSON array of objects with "question" and "answer" fields.`)
	b.WriteString("\n\nStudy Notes:\n")
	b.WriteString(notes)
	fmt.Fprintf(&b, "\n\nGenerate %d flashcards that cover the key concepts and important details.", count)
	return b.String()
}

// parseCards extracts the JSON array spanning the first '[' to the last ']'.
// Empty arrays and cards with a blank question or answer are rejected.
func parseCards(text string) ([]domain.Card, bool) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end < start {
		return nil, false
	}

	var cards []domain.Card
	if err := json.Unmarshal([]byte(text[start:end+1]), &cards); err != nil {
		return nil, false
	}
	if len(cards) == 0 {
		return nil, false
	}

	for i := range cards {
		cards[i].Question = strings.TrimSpace(cards[i].Question)
		cards[i].Answer = strings.TrimSpace(cards[i].Answer)
		if cards[i].Question == "" || cards[i].Answer == "" {
			return nil, false
		}
	}
	return cards, true
}

// Fallback builds one card for each of the first count non-blank
// '.'-separated segments of notes. count is used as given.
func Fallback(notes string, count int) []domain.Card {
	cards := make([]domain.Card, 0, max(count, 0))
	for _, seg := range strings.Split(notes, ".") {
		if len(cards) >= count {
			break
		}
		answer := strings.TrimSpace(seg)
		if answer == "" {
			continue
		}
		cards = append(cards, domain.Card{
			Question: fallbackQuestionPrefix + truncateRunes(seg, fallbackQuestionRunes) + "...",
			Answer:   answer,
		})
	}
	return cards
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
