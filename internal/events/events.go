package events

import (
	"context"
	"errors"
)

type Kind string

const KindMessageCreate Kind = "MESSAGE_CREATE"

// ErrClosed is returned by a Source once it has been closed.
var ErrClosed = errors.New("events: source closed")

type Message struct {
	ID        string `json:"message_id"`
	ChannelID string `json:"channel_id"`
	AuthorID  string `json:"author_id"`
	Content   string `json:"content"`
}

// Event is one inbound gateway or queue event. Message is only set for
// KindMessageCreate. Ack, when set, is called once handling finishes.
type Event struct {
	Kind    Kind
	Message *Message
	Ack     func(err error)
}

// Source delivers events one at a time; Next blocks until one arrives.
type Source interface {
	Next(ctx context.Context) (Event, error)
}

// Replier sends text to a channel, optionally as a reply to replyTo.
type Replier interface {
	Reply(ctx context.Context, channelID, content, replyTo string) error
}
