package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/suPer8Hu/chainbot/internal/events"
	"github.com/suPer8Hu/chainbot/internal/markov"
)

type Ingester interface {
	Ingest(ctx context.Context, text string) error
}

type Generator interface {
	Generate(ctx context.Context, seed string) (markov.GeneratedText, error)
}

// Deduper reports whether a message id is seen for the first time.
type Deduper interface {
	FirstSeen(ctx context.Context, messageID string) (bool, error)
}

type Options struct {
	ChannelID       string
	ExcludedAuthors []string
	TriggerPrefix   string
	ApologyText     string
}

type Dispatcher struct {
	channelID string
	excluded  map[string]struct{}
	prefix    string
	apology   string

	updater   Ingester
	generator Generator
	replier   events.Replier
	dedupe    Deduper
	logger    *slog.Logger

	wg sync.WaitGroup
}

func NewDispatcher(opts Options, updater Ingester, generator Generator, replier events.Replier, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TriggerPrefix == "" {
		opts.TriggerPrefix = "e!talk"
	}
	excluded := make(map[string]struct{}, len(opts.ExcludedAuthors))
	for _, id := range opts.ExcludedAuthors {
		id = strings.TrimSpace(id)
		if id != "" {
			excluded[id] = struct{}{}
		}
	}
	return &Dispatcher{
		channelID: strings.TrimSpace(opts.ChannelID),
		excluded:  excluded,
		prefix:    opts.TriggerPrefix,
		apology:   opts.ApologyText,
		updater:   updater,
		generator: generator,
		replier:   replier,
		logger:    logger,
	}
}

// WithDedupe skips accepted messages whose id was already handled.
func (d *Dispatcher) WithDedupe(dd Deduper) *Dispatcher {
	d.dedupe = dd
	return d
}

// ExcludeAuthor adds an author id to the exclusion set. Call before Run.
func (d *Dispatcher) ExcludeAuthor(id string) {
	if id = strings.TrimSpace(id); id != "" {
		d.excluded[id] = struct{}{}
	}
}

// Accepts reports whether ev is a message from the authorized channel by a non-excluded author.
func (d *Dispatcher) Accepts(ev events.Event) bool {
	if ev.Kind != events.KindMessageCreate || ev.Message == nil {
		return false
	}
	if ev.Message.ChannelID != d.channelID {
		return false
	}
	_, skip := d.excluded[ev.Message.AuthorID]
	return !skip
}

// Run pulls events until ctx ends or the source closes. Each event is handled
// on its own goroutine; Run never waits for a handler.
func (d *Dispatcher) Run(ctx context.Context, src events.Source) error {
	for {
		ev, err := src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, events.ErrClosed) {
				return nil
			}
			d.logger.Warn("dispatch_receive_error", "error", err.Error())
			continue
		}
		d.Dispatch(ctx, ev)
	}
}

// Dispatch hands ev to a new goroutine. Errors are logged by the handler itself.
// Cancelling ctx stops intake only; a started handler runs to completion.
func (d *Dispatcher) Dispatch(ctx context.Context, ev events.Event) {
	hctx := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		err := d.Handle(hctx, ev)
		if err != nil {
			attrs := []any{"kind", string(ev.Kind), "error", err.Error()}
			if ev.Message != nil {
				attrs = append(attrs, "channel_id", ev.Message.ChannelID, "message_id", ev.Message.ID)
			}
			d.logger.Error("dispatch_handle_error", attrs...)
		}
		if ev.Ack != nil {
			ev.Ack(err)
		}
	}()
}

// Wait blocks until every dispatched handler has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Handle ingests an accepted message and, when it carries the trigger prefix,
// replies with generated text. Other events are ignored.
func (d *Dispatcher) Handle(ctx context.Context, ev events.Event) error {
	if !d.Accepts(ev) {
		return nil
	}
	msg := ev.Message

	if d.dedupe != nil && msg.ID != "" {
		first, err := d.dedupe.FirstSeen(ctx, msg.ID)
		if err != nil {
			d.logger.Warn("dispatch_dedupe_error", "message_id", msg.ID, "error", err.Error())
		} else if !first {
			d.logger.Debug("dispatch_duplicate", "message_id", msg.ID)
			return nil
		}
	}

	if err := d.updater.Ingest(ctx, msg.Content); err != nil {
		return err
	}

	seed, triggered := d.parseTrigger(msg.Content)
	if !triggered {
		return nil
	}

	res, err := d.generator.Generate(ctx, seed)
	if err != nil {
		return err
	}
	d.logger.Debug("dispatch_generated", "message_id", msg.ID, "outcome", res.Outcome.String())
	return d.replier.Reply(ctx, msg.ChannelID, res.Render(d.apology), msg.ID)
}

// parseTrigger reports whether content starts with the trigger prefix and
// returns whatever follows the first space as the seed.
func (d *Dispatcher) parseTrigger(content string) (string, bool) {
	if !strings.HasPrefix(content, d.prefix) {
		return "", false
	}
	_, rest, found := strings.Cut(content, " ")
	if !found {
		return "", true
	}
	return rest, true
}
