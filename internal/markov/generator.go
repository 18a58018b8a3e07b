package markov

import (
	"context"
	"strings"
)

const DefaultMaxWords = 21

type Outcome int

const (
	// OutcomeEmpty means the store holds no pairs at all.
	OutcomeEmpty Outcome = iota
	// OutcomeUnavailable means the start word has no recorded successor.
	OutcomeUnavailable
	OutcomeText
)

func (o Outcome) String() string {
	switch o {
	case OutcomeEmpty:
		return "empty"
	case OutcomeUnavailable:
		return "unavailable"
	case OutcomeText:
		return "text"
	default:
		return "unknown"
	}
}

type GeneratedText struct {
	Outcome Outcome
	Text    string
}

// Render returns the reply for this result; apology stands in for Empty and Unavailable.
func (g GeneratedText) Render(apology string) string {
	if g.Outcome == OutcomeText {
		return g.Text
	}
	return apology
}

type Generator struct {
	store    Store
	maxWords int
}

func NewGenerator(store Store, maxWords int) *Generator {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	return &Generator{store: store, maxWords: maxWords}
}

// Generate walks the chain with the configured word cap. An empty seed picks a random start.
func (g *Generator) Generate(ctx context.Context, seed string) (GeneratedText, error) {
	return g.GenerateN(ctx, seed, g.maxWords)
}

// GenerateN continues seed by at most maxWords sampled words. The start phrase
// is echoed at the front of the text. The walk stops early at a dead end or at
// an empty successor, which is never emitted.
func (g *Generator) GenerateN(ctx context.Context, seed string, maxWords int) (GeneratedText, error) {
	if maxWords <= 0 {
		maxWords = g.maxWords
	}

	start := seed
	seedTokens := strings.Fields(seed)
	if len(seedTokens) == 0 {
		w, ok, err := g.store.SampleAnyStart(ctx)
		if err != nil {
			return GeneratedText{}, err
		}
		if !ok {
			return GeneratedText{Outcome: OutcomeEmpty}, nil
		}
		start = w
		seedTokens = strings.Fields(w)
	}

	last := start
	if len(seedTokens) > 0 {
		last = seedTokens[len(seedTokens)-1]
	}

	words := make([]string, 0, maxWords)
	for i := 0; i < maxWords; i++ {
		next, ok, err := g.store.SampleSuccessor(ctx, last)
		if err != nil {
			return GeneratedText{}, err
		}
		if !ok || next == "" {
			break
		}
		words = append(words, next)
		last = next
	}

	if len(words) == 0 {
		return GeneratedText{Outcome: OutcomeUnavailable}, nil
	}
	return GeneratedText{
		Outcome: OutcomeText,
		Text:    start + " " + strings.Join(words, " "),
	}, nil
}
