// Package assistant implements the companion FAQ lookup. It runs the
// same keyword ladder as the verification pipeline, over a question
// table instead of the corpus, and like that pipeline it never
// surfaces a lookup failure to the caller.
package assistant

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/rmontanez/chequeo/internal/keyword"
	"github.com/rmontanez/chequeo/internal/store"
)

// ErrEmptyMessage is the only error Reply surfaces; everything else
// degrades to a canned answer.
var ErrEmptyMessage = errors.New("assistant: empty message")

// Answer sources, reported so the caller can tell a curated answer
// from a fallback.
const (
	SourceDatabase = "base_datos"
	SourceDefault  = "predeterminada"
	SourceLLM      = "llm"
	SourceError    = "error"
)

const (
	defaultAnswer = "No tengo información específica sobre eso. Te recomiendo consultar fuentes oficiales como la OMS o profesionales de la salud para información médica confiable."
	errorAnswer   = "Lo siento, estoy teniendo problemas para procesar tu consulta en este momento. Por favor, intenta nuevamente más tarde."
)

// Answer is one assistant reply.
type Answer struct {
	Text     string `json:"text"`
	Category string `json:"category"`
	Source   string `json:"source"`
}

// LLMProvider answers a free-form question. Optional; nil disables
// the LLM rung of the ladder.
type LLMProvider interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Assistant resolves chat messages against the FAQ table.
type Assistant struct {
	faq       store.FAQStore
	extractor *keyword.Extractor
	llm       LLMProvider
	log       *zap.Logger
}

// New creates an assistant. llm may be nil.
func New(faq store.FAQStore, llm LLMProvider, log *zap.Logger) *Assistant {
	if log == nil {
		log = zap.NewNop()
	}
	return &Assistant{
		faq:       faq,
		extractor: keyword.NewExtractor(),
		llm:       llm,
		log:       log,
	}
}

// Reply runs the ladder: keyword match, generic entry, optional LLM,
// static default. Storage failures degrade to an apology answer.
func (a *Assistant) Reply(ctx context.Context, message string) (Answer, error) {
	if strings.TrimSpace(message) == "" {
		return Answer{}, ErrEmptyMessage
	}

	tokens, err := a.extractor.Extract(message)
	if err != nil {
		return Answer{}, ErrEmptyMessage
	}

	entry, err := a.faq.FindFAQByTokens(ctx, tokens)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		a.log.Warn("faq lookup failed", zap.Error(err))
		return Answer{Text: errorAnswer, Category: "error", Source: SourceError}, nil
	}

	if entry == nil || errors.Is(err, store.ErrNotFound) {
		entry, err = a.faq.FindFAQGeneric(ctx)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			a.log.Warn("generic faq lookup failed", zap.Error(err))
			return Answer{Text: errorAnswer, Category: "error", Source: SourceError}, nil
		}
	}

	if entry != nil {
		category := entry.Category
		if category == "" {
			category = "general"
		}
		return Answer{Text: entry.Answer, Category: category, Source: SourceDatabase}, nil
	}

	if a.llm != nil {
		if text, err := a.llm.Answer(ctx, message); err == nil && strings.TrimSpace(text) != "" {
			return Answer{Text: text, Category: "general", Source: SourceLLM}, nil
		} else if err != nil {
			a.log.Warn("llm answer failed", zap.Error(err))
		}
	}

	return Answer{Text: defaultAnswer, Category: "general", Source: SourceDefault}, nil
}
