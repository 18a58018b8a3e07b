package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/suPer8Hu/chainbot/internal/events"
)

// Gateway opcodes.
const (
	opDispatch       = 0
	opHeartbeat      = 1
	opIdentify       = 2
	opResume         = 6
	opReconnect      = 7
	opInvalidSession = 9
	opHello          = 10
	opHeartbeatAck   = 11
)

const (
	IntentGuildMessages  = 1 << 9
	IntentMessageContent = 1 << 15

	DefaultIntents = IntentGuildMessages | IntentMessageContent
)

var (
	errReconnectRequested = errors.New("discord: gateway requested reconnect")
	errInvalidSession     = errors.New("discord: invalid session")
)

type GatewayOptions struct {
	URL         string
	Token       string
	Intents     int
	Activity    string
	ActivityURL string

	Logger     *slog.Logger
	Dialer     *websocket.Dialer
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// Gateway keeps one gateway session alive, reconnecting and resuming on its
// own, and exposes dispatches as events.
type Gateway struct {
	opts   GatewayOptions
	logger *slog.Logger

	events    chan events.Event
	closeCh   chan struct{}
	closeOnce sync.Once
	startOnce sync.Once
	done      chan struct{}

	seq atomic.Int64

	mu        sync.Mutex
	sessionID string
	resumeURL string
}

type payload struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d,omitempty"`
	S  *int64          `json:"s,omitempty"`
	T  string          `json:"t,omitempty"`
}

type outgoing struct {
	Op int `json:"op"`
	D  any `json:"d"`
}

type helloData struct {
	HeartbeatInterval int64 `json:"heartbeat_interval"`
}

type readyData struct {
	SessionID        string `json:"session_id"`
	ResumeGatewayURL string `json:"resume_gateway_url"`
	User             User   `json:"user"`
}

type messageCreateData struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Content   string `json:"content"`
	Author    User   `json:"author"`
}

type identifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

type activity struct {
	Name string `json:"name"`
	Type int    `json:"type"`
	URL  string `json:"url,omitempty"`
}

type presence struct {
	Activities []activity `json:"activities"`
	Status     string     `json:"status"`
	Since      *int64     `json:"since"`
	AFK        bool       `json:"afk"`
}

type identifyData struct {
	Token      string             `json:"token"`
	Intents    int                `json:"intents"`
	Properties identifyProperties `json:"properties"`
	Presence   *presence          `json:"presence,omitempty"`
}

type resumeData struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Seq       int64  `json:"seq"`
}

func NewGateway(opts GatewayOptions) *Gateway {
	if opts.URL == "" {
		opts.URL = "wss://gateway.discord.gg/?v=10&encoding=json"
	}
	if opts.Intents == 0 {
		opts.Intents = DefaultIntents
	}
	if opts.Dialer == nil {
		d := *websocket.DefaultDialer
		opts.Dialer = &d
	}
	if opts.MinBackoff <= 0 {
		opts.MinBackoff = time.Second
	}
	if opts.MaxBackoff < opts.MinBackoff {
		opts.MaxBackoff = 60 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		opts:    opts,
		logger:  logger,
		events:  make(chan events.Event, 64),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start runs the connection loop in the background until ctx ends or Close is called.
func (g *Gateway) Start(ctx context.Context) {
	g.startOnce.Do(func() {
		go g.run(ctx)
	})
}

// Next blocks until the next dispatch arrives.
func (g *Gateway) Next(ctx context.Context) (events.Event, error) {
	select {
	case <-ctx.Done():
		return events.Event{}, ctx.Err()
	case <-g.closeCh:
		return events.Event{}, events.ErrClosed
	case ev := <-g.events:
		return ev, nil
	}
}

func (g *Gateway) Close() error {
	g.closeOnce.Do(func() { close(g.closeCh) })
	return nil
}

// SessionID returns the current session id, empty before READY.
func (g *Gateway) SessionID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sessionID
}

func (g *Gateway) run(ctx context.Context) {
	defer close(g.done)
	backoff := g.opts.MinBackoff
	for {
		connected, err := g.session(ctx)
		if g.stopped(ctx) {
			return
		}
		if connected {
			backoff = g.opts.MinBackoff
		}
		g.logger.Warn("gateway_reconnect", "error", err.Error(), "backoff", backoff.String(), "resume", g.SessionID() != "")
		if err := sleepWithContext(ctx, g.closeCh, backoff); err != nil {
			return
		}
		backoff *= 2
		if backoff > g.opts.MaxBackoff {
			backoff = g.opts.MaxBackoff
		}
	}
}

func (g *Gateway) stopped(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-g.closeCh:
		return true
	default:
		return false
	}
}

// session runs one websocket connection. connected reports whether HELLO was received.
func (g *Gateway) session(ctx context.Context) (connected bool, err error) {
	g.mu.Lock()
	sessionID, resumeURL := g.sessionID, g.resumeURL
	g.mu.Unlock()

	target := g.opts.URL
	if sessionID != "" && resumeURL != "" {
		target = withQuery(resumeURL, g.opts.URL)
	}

	conn, _, err := g.opts.Dialer.DialContext(ctx, target, nil)
	if err != nil {
		return false, fmt.Errorf("discord: dial gateway: %w", err)
	}

	sessionDone := make(chan struct{})
	defer close(sessionDone)
	var closeConn sync.Once
	shutdown := func() { closeConn.Do(func() { _ = conn.Close() }) }
	defer shutdown()

	// unblock reads when the gateway is stopped
	go func() {
		select {
		case <-ctx.Done():
		case <-g.closeCh:
		case <-sessionDone:
			return
		}
		shutdown()
	}()

	var writeMu sync.Mutex
	send := func(op int, d any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		return conn.WriteJSON(outgoing{Op: op, D: d})
	}

	var hello payload
	if err := conn.ReadJSON(&hello); err != nil {
		return false, fmt.Errorf("discord: read hello: %w", err)
	}
	if hello.Op != opHello {
		return false, fmt.Errorf("discord: expected hello, got op %d", hello.Op)
	}
	var hd helloData
	if err := json.Unmarshal(hello.D, &hd); err != nil {
		return false, fmt.Errorf("discord: decode hello: %w", err)
	}
	if hd.HeartbeatInterval <= 0 {
		return false, fmt.Errorf("discord: invalid heartbeat interval %d", hd.HeartbeatInterval)
	}

	if sessionID != "" {
		err = send(opResume, resumeData{Token: g.opts.Token, SessionID: sessionID, Seq: g.seq.Load()})
	} else {
		err = send(opIdentify, g.identify())
	}
	if err != nil {
		return true, fmt.Errorf("discord: send handshake: %w", err)
	}

	go g.heartbeat(time.Duration(hd.HeartbeatInterval)*time.Millisecond, sessionDone, send, shutdown)

	for {
		var p payload
		if err := conn.ReadJSON(&p); err != nil {
			return true, fmt.Errorf("discord: read: %w", err)
		}
		switch p.Op {
		case opDispatch:
			if p.S != nil {
				g.seq.Store(*p.S)
			}
			if err := g.dispatch(ctx, p); err != nil {
				return true, err
			}
		case opHeartbeat:
			if err := send(opHeartbeat, g.seqValue()); err != nil {
				return true, fmt.Errorf("discord: heartbeat: %w", err)
			}
		case opReconnect:
			return true, errReconnectRequested
		case opInvalidSession:
			var resumable bool
			_ = json.Unmarshal(p.D, &resumable)
			if !resumable {
				g.resetSession()
			}
			return true, errInvalidSession
		case opHeartbeatAck:
		default:
			g.logger.Debug("gateway_unhandled_op", "op", p.Op)
		}
	}
}

func (g *Gateway) heartbeat(interval time.Duration, done <-chan struct{}, send func(int, any) error, shutdown func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := send(opHeartbeat, g.seqValue()); err != nil {
				g.logger.Warn("gateway_heartbeat_error", "error", err.Error())
				shutdown()
				return
			}
		}
	}
}

func (g *Gateway) dispatch(ctx context.Context, p payload) error {
	ev := events.Event{Kind: events.Kind(p.T)}
	switch p.T {
	case "READY":
		var rd readyData
		if err := json.Unmarshal(p.D, &rd); err != nil {
			return fmt.Errorf("discord: decode ready: %w", err)
		}
		g.mu.Lock()
		g.sessionID = rd.SessionID
		g.resumeURL = rd.ResumeGatewayURL
		g.mu.Unlock()
		g.logger.Info("gateway_ready", "session_id", rd.SessionID, "user", rd.User.Tag())
	case "RESUMED":
		g.logger.Info("gateway_resumed", "seq", g.seq.Load())
	case string(events.KindMessageCreate):
		var m messageCreateData
		if err := json.Unmarshal(p.D, &m); err != nil {
			g.logger.Warn("gateway_bad_message", "error", err.Error())
			return nil
		}
		ev.Message = &events.Message{
			ID:        m.ID,
			ChannelID: m.ChannelID,
			AuthorID:  m.Author.ID,
			Content:   m.Content,
		}
	}

	select {
	case g.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-g.closeCh:
		return events.ErrClosed
	}
}

func (g *Gateway) identify() identifyData {
	d := identifyData{
		Token:   g.opts.Token,
		Intents: g.opts.Intents,
		Properties: identifyProperties{
			OS:      "linux",
			Browser: "chainbot",
			Device:  "chainbot",
		},
	}
	if name := strings.TrimSpace(g.opts.Activity); name != "" {
		act := activity{Name: name, Type: 0}
		if g.opts.ActivityURL != "" {
			act.Type = 1 // streaming
			act.URL = g.opts.ActivityURL
		}
		d.Presence = &presence{Activities: []activity{act}, Status: "idle"}
	}
	return d
}

func (g *Gateway) seqValue() *int64 {
	s := g.seq.Load()
	if s == 0 {
		return nil
	}
	return &s
}

func (g *Gateway) resetSession() {
	g.mu.Lock()
	g.sessionID = ""
	g.resumeURL = ""
	g.mu.Unlock()
	g.seq.Store(0)
}

// withQuery copies the query string of base onto u when u has none.
func withQuery(u, base string) string {
	if strings.Contains(u, "?") {
		return u
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.RawQuery == "" {
		return u
	}
	return strings.TrimRight(u, "/") + "/?" + parsed.RawQuery
}

func sleepWithContext(ctx context.Context, stop <-chan struct{}, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-stop:
		return events.ErrClosed
	case <-timer.C:
		return nil
	}
}
