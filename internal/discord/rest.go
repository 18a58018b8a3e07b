package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// maxContentRunes is the message length limit enforced by the REST API.
const maxContentRunes = 2000

type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	Bot           bool   `json:"bot"`
}

// Tag renders the user the way the client shows it.
func (u User) Tag() string {
	if u.Discriminator == "" || u.Discriminator == "0" {
		return u.Username
	}
	return u.Username + "#" + u.Discriminator
}

func NewClient(httpClient *http.Client, baseURL, token string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	baseURL = strings.TrimSpace(strings.TrimRight(baseURL, "/"))
	if baseURL == "" {
		baseURL = "https://discord.com/api/v10"
	}
	return &Client{http: httpClient, baseURL: baseURL, token: strings.TrimSpace(token)}
}

func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	body, status, err := c.do(ctx, http.MethodGet, "/users/@me", nil)
	if err != nil {
		return User{}, err
	}
	if status < 200 || status >= 300 {
		return User{}, apiError("get current user", status, body)
	}
	var u User
	if err := json.Unmarshal(body, &u); err != nil {
		return User{}, fmt.Errorf("discord: decode user: %w", err)
	}
	return u, nil
}

type messageReference struct {
	MessageID       string `json:"message_id"`
	FailIfNotExists bool   `json:"fail_if_not_exists"`
}

type createMessageReq struct {
	Content          string            `json:"content"`
	MessageReference *messageReference `json:"message_reference,omitempty"`
}

// Reply posts content to channelID. A non-empty replyTo makes it a reply to that message.
func (c *Client) Reply(ctx context.Context, channelID, content, replyTo string) error {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return fmt.Errorf("discord: channel id is required")
	}
	req := createMessageReq{Content: truncateRunes(content, maxContentRunes)}
	if replyTo != "" {
		req.MessageReference = &messageReference{MessageID: replyTo}
	}
	body, status, err := c.do(ctx, http.MethodPost, "/channels/"+channelID+"/messages", req)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return apiError("create message", status, body)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	if c.token == "" {
		return nil, 0, fmt.Errorf("discord: token is required")
	}
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("User-Agent", "DiscordBot (https://github.com/suPer8Hu/chainbot, 1.0)")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("discord: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("discord: read body: %w", err)
	}
	return raw, resp.StatusCode, nil
}

func apiError(op string, status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512]
	}
	if msg == "" {
		return fmt.Errorf("discord: %s: status %d", op, status)
	}
	return fmt.Errorf("discord: %s: status %d: %s", op, status, msg)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
