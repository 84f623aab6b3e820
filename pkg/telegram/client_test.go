package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	path string
	body map[string]any
}

func fakeBotAPI(t *testing.T, reply string, status int) (*Client, *[]captured) {
	t.Helper()
	var calls []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		calls = append(calls, captured{path: r.URL.Path, body: body})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)

	c, err := New("123:secret", WithBaseURL(srv.URL+"/"))
	require.NoError(t, err)
	return c, &calls
}

const okReply = `{"ok":true,"result":{"message_id":77,"date":1700000000,"chat":{"id":-100,"username":"altynmaturuen"}}}`

func TestSendMessage(t *testing.T) {
	c, calls := fakeBotAPI(t, okReply, http.StatusOK)

	msg, err := c.SendMessage(context.Background(), "@altynmaturuen", "*hi*", ParseModeMarkdown)
	require.NoError(t, err)
	assert.EqualValues(t, 77, msg.MessageID)
	assert.Equal(t, "altynmaturuen", msg.Chat.Username)

	require.Len(t, *calls, 1)
	got := (*calls)[0]
	assert.Equal(t, "/bot123:secret/sendMessage", got.path)
	assert.Equal(t, "@altynmaturuen", got.body["chat_id"])
	assert.Equal(t, "*hi*", got.body["text"])
	assert.Equal(t, "Markdown", got.body["parse_mode"])
}

func TestSendPhoto(t *testing.T) {
	c, calls := fakeBotAPI(t, okReply, http.StatusOK)

	_, err := c.SendPhoto(context.Background(), "@chan", "https://img/x.jpg", "cap", ParseModeMarkdown)
	require.NoError(t, err)

	got := (*calls)[0]
	assert.Equal(t, "/bot123:secret/sendPhoto", got.path)
	assert.Equal(t, "https://img/x.jpg", got.body["photo"])
	assert.Equal(t, "cap", got.body["caption"])
}

func TestSendPoll(t *testing.T) {
	c, calls := fakeBotAPI(t, okReply, http.StatusOK)

	_, err := c.SendPoll(context.Background(), "@chan", "Любишь локализации?", []string{"Да", "Нет"}, PollOptions{IsAnonymous: true})
	require.NoError(t, err)

	got := (*calls)[0]
	assert.Equal(t, "/bot123:secret/sendPoll", got.path)
	assert.Equal(t, "regular", got.body["type"])
	assert.Equal(t, true, got.body["is_anonymous"])
	assert.Equal(t, []any{
		map[string]any{"text": "Да"},
		map[string]any{"text": "Нет"},
	}, got.body["options"])
}

func TestAPIError(t *testing.T) {
	c, _ := fakeBotAPI(t, `{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":17}}`, http.StatusTooManyRequests)

	_, err := c.SendMessage(context.Background(), "@chan", "x", "")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 429, apiErr.Code)
	assert.Equal(t, 17, apiErr.RetryAfter)
	assert.Equal(t, "sendMessage", apiErr.Method)
	assert.NotContains(t, err.Error(), "secret")
}

func TestTransportErrorRedactsToken(t *testing.T) {
	c, err := New("123:secret", WithBaseURL("http://127.0.0.1:1"))
	require.NoError(t, err)

	_, err = c.SendMessage(context.Background(), "@chan", "x", "")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "123:secret")
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New("  ")
	require.ErrorIs(t, err, ErrMissingToken)
}
