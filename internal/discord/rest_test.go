package discord

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestClient_Reply(t *testing.T) {
	var got createMessageReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/channels/c1/messages" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bot tok" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"reply"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL+"/", "tok")
	if err := c.Reply(context.Background(), "c1", "the cat sat", "m1"); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if got.Content != "the cat sat" {
		t.Fatalf("unexpected content %q", got.Content)
	}
	if got.MessageReference == nil || got.MessageReference.MessageID != "m1" {
		t.Fatalf("expected message reference, got %+v", got.MessageReference)
	}
}

func TestClient_ReplyWithoutReference(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "tok")
	if err := c.Reply(context.Background(), "c1", "hi", ""); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if _, ok := raw["message_reference"]; ok {
		t.Fatalf("message_reference should be omitted: %v", raw)
	}
}

func TestClient_ReplyTruncatesLongContent(t *testing.T) {
	var got createMessageReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "tok")
	if err := c.Reply(context.Background(), "c1", strings.Repeat("é", 2500), ""); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if n := utf8.RuneCountInString(got.Content); n != maxContentRunes {
		t.Fatalf("expected %d runes, got %d", maxContentRunes, n)
	}
}

func TestClient_ReplyErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Missing Permissions","code":50013}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "tok")
	err := c.Reply(context.Background(), "c1", "hi", "m1")
	if err == nil || !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "Missing Permissions") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}

func TestClient_RequiresTokenAndChannel(t *testing.T) {
	if err := NewClient(nil, "", "").Reply(context.Background(), "c1", "x", ""); err == nil {
		t.Fatalf("expected missing token error")
	}
	if err := NewClient(nil, "", "tok").Reply(context.Background(), " ", "x", ""); err == nil {
		t.Fatalf("expected missing channel error")
	}
}

func TestClient_CurrentUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/@me" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":"1169608948081492038","username":"markov","discriminator":"4821","bot":true}`))
	}))
	defer srv.Close()

	u, err := NewClient(srv.Client(), srv.URL, "tok").CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if u.ID != "1169608948081492038" || !u.Bot {
		t.Fatalf("unexpected user %+v", u)
	}
	if u.Tag() != "markov#4821" {
		t.Fatalf("unexpected tag %q", u.Tag())
	}
	if (User{Username: "new", Discriminator: "0"}).Tag() != "new" {
		t.Fatalf("pomelo usernames should drop the discriminator")
	}
}
