package markov

import (
	"context"
	"strings"
)

// Updater turns message text into word-pair observations.
type Updater struct {
	store  Store
	atomic bool
}

// NewUpdater returns an updater writing to store. With atomic set and a store
// that implements BatchRecorder, a message's pairs are written all or nothing;
// otherwise pairs are appended one at a time and earlier pairs survive a failure.
func NewUpdater(store Store, atomic bool) *Updater {
	return &Updater{store: store, atomic: atomic}
}

// Tokenize splits on single spaces and drops empty tokens.
func Tokenize(text string) []string {
	parts := strings.Split(text, " ")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Pairs returns the adjacent token pairs in left-to-right order.
func Pairs(tokens []string) []WordPair {
	if len(tokens) < 2 {
		return nil
	}
	out := make([]WordPair, 0, len(tokens)-1)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, WordPair{Word1: tokens[i], Word2: tokens[i+1]})
	}
	return out
}

// Ingest records every adjacent pair of message text. Zero or one token is a no-op.
func (u *Updater) Ingest(ctx context.Context, text string) error {
	pairs := Pairs(Tokenize(text))
	if len(pairs) == 0 {
		return nil
	}

	if u.atomic {
		if br, ok := u.store.(BatchRecorder); ok {
			return br.RecordBatch(ctx, pairs)
		}
	}

	for _, p := range pairs {
		if err := u.store.Record(ctx, p.Word1, p.Word2); err != nil {
			return err
		}
	}
	return nil
}
