package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"renovation-quote/internal/domain"
)

// ---------------------------------------------------------------------------
// chatURL helper
// ---------------------------------------------------------------------------

func TestChatURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"https://api.openai.com/v1", "https://api.openai.com/v1/chat/completions"},
		{"https://api.openai.com/v1/", "https://api.openai.com/v1/chat/completions"},
		{"http://localhost:8080", "http://localhost:8080/v1/chat/completions"},
		{"", "https://api.openai.com/v1/chat/completions"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, chatURL(tc.base), "base=%q", tc.base)
	}
}

// ---------------------------------------------------------------------------
// NewClient / key sources
// ---------------------------------------------------------------------------

func TestNewClient_NilKeySource(t *testing.T) {
	_, err := NewClient(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "nil")
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient(StaticKey("sk-test"))
	require.NoError(t, err)
	require.Equal(t, "https://api.openai.com/v1", c.baseURL)
	require.Equal(t, 60*time.Second, c.httpClient.Timeout)

	c, err = NewClient(StaticKey("sk-test"), WithTimeout(5*time.Second))
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, c.httpClient.Timeout)
}

func TestStaticKey(t *testing.T) {
	key, err := StaticKey("sk-abc").APIKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, "sk-abc", key)

	_, err = StaticKey(" ").APIKey(context.Background())
	require.Error(t, err)
}

type failingKeys struct{}

func (failingKeys) APIKey(context.Context) (string, error) {
	return "", errors.New("ssm unavailable")
}

// ---------------------------------------------------------------------------
// Client.Chat
// ---------------------------------------------------------------------------

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(
		StaticKey("sk-test"),
		WithBaseURL(srv.URL),
		WithHTTPClient(&http.Client{Timeout: 2 * time.Second}),
	)
	require.NoError(t, err)
	return c
}

func completion(content string) string {
	b, _ := json.Marshal(content)
	return `{
		"id": "chatcmpl-123",
		"object": "chat.completion",
		"created": 1670000000,
		"choices": [{
			"index": 0,
			"message": { "role": "assistant", "content": ` + string(b) + ` }
		}]
	}`
}

func userMessage(text string) domain.CompletionRequest {
	return domain.CompletionRequest{
		Model:    "gpt-mock",
		Messages: []domain.ChatMessage{{Role: "user", Content: text}},
	}
}

func TestClient_Chat_HappyPath(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		reqBody, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(reqBody, &got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(200)
		_, _ = w.Write([]byte(completion("Hello from mock")))
	}))
	defer srv.Close()

	temp := 0.7
	c := newTestClient(t, srv)
	resp, err := c.Chat(context.Background(), domain.CompletionRequest{
		Model:       "gpt-mock",
		Messages:    []domain.ChatMessage{{Role: "system", Content: "be brief"}, {Role: "user", Content: "hi"}},
		Temperature: &temp,
	})
	require.NoError(t, err)
	require.Equal(t, "Hello from mock", resp)

	require.Equal(t, "gpt-mock", got["model"])
	require.InDelta(t, 0.7, got["temperature"], 1e-9)
	require.NotContains(t, got, "max_tokens")
	require.NotContains(t, got, "response_format")
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	require.Equal(t, "be brief", msgs[0].(map[string]any)["content"])
}

func TestClient_Chat_VisionAndLimits(t *testing.T) {
	var raw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		raw = string(b)
		_, _ = w.Write([]byte(completion("A dated kitchen with oak cabinets.")))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	resp, err := c.Chat(context.Background(), domain.CompletionRequest{
		Model: "gpt-4o",
		Messages: []domain.ChatMessage{{
			Role:      "user",
			Content:   "Analyze this image",
			ImageURLs: []string{"data:image/jpeg;base64,AAAA"},
		}},
		MaxTokens:  300,
		JSONOutput: true,
	})
	require.NoError(t, err)
	require.Equal(t, "A dated kitchen with oak cabinets.", resp)
	require.Contains(t, raw, `"max_tokens":300`)
	require.Contains(t, raw, `"response_format":{"type":"json_object"}`)
	require.Contains(t, raw, `{"type":"text","text":"Analyze this image"}`)
	require.Contains(t, raw, `{"type":"image_url","image_url":{"url":"data:image/jpeg;base64,AAAA"}}`)
	require.NotContains(t, raw, `"temperature"`)
}

func TestClient_Chat_NullContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":null}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	resp, err := c.Chat(context.Background(), userMessage("hi"))
	require.NoError(t, err)
	require.Empty(t, resp)
}

func TestClient_Chat_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(400)
		_, _ = w.Write([]byte(`{"error":"bad request"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Chat(context.Background(), userMessage("hi"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unexpected status")
	require.Contains(t, err.Error(), "400")
}

func TestClient_Chat_StatusErrorIsInspectable(t *testing.T) {
	for _, code := range []int{http.StatusTooManyRequests, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
			_, _ = w.Write([]byte(`{"error":"nope"}`))
		}))

		c := newTestClient(t, srv)
		_, err := c.Chat(context.Background(), userMessage("hi"))
		srv.Close()

		var statusErr *HTTPStatusError
		require.ErrorAs(t, err, &statusErr)
		require.Equal(t, code, statusErr.HTTPStatusCode())
	}
}

func TestClient_Chat_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`not-a-json`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Chat(context.Background(), userMessage("hi"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode response")
}

func TestClient_Chat_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Chat(context.Background(), userMessage("hi"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "no choices")
}

func TestClient_Chat_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	c.httpClient = &http.Client{Timeout: 50 * time.Millisecond}
	_, err := c.Chat(context.Background(), userMessage("hi"))
	require.Error(t, err)
}

func TestClient_Chat_NetworkError(t *testing.T) {
	c, err := NewClient(StaticKey("sk-test"))
	require.NoError(t, err)
	c.baseURL = "http://127.0.0.1:1"
	c.httpClient = &http.Client{Timeout: 100 * time.Millisecond}

	_, err = c.Chat(context.Background(), userMessage("hi"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "request failed")
}

func TestClient_Chat_RequestValidation(t *testing.T) {
	c, err := NewClient(StaticKey("sk-test"))
	require.NoError(t, err)

	_, err = c.Chat(context.Background(), domain.CompletionRequest{Messages: userMessage("hi").Messages})
	require.Error(t, err)
	require.Contains(t, err.Error(), "model")

	_, err = c.Chat(context.Background(), domain.CompletionRequest{Model: "gpt-mock"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "message")
}

func TestClient_Chat_KeySourceError(t *testing.T) {
	c, err := NewClient(failingKeys{})
	require.NoError(t, err)
	_, err = c.Chat(context.Background(), userMessage("hi"))
	require.ErrorContains(t, err, "ssm unavailable")
}
