// Package telegram is a minimal Bot API client covering the calls a
// broadcast channel needs: text messages, photos with captions and polls.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/altynmaturuen/freebie-poster/pkg/httpclient"
)

const (
	DefaultBaseURL = "https://api.telegram.org"

	ParseModeMarkdown = "Markdown"
	PollTypeRegular   = "regular"

	// MaxCaptionLength is the Bot API limit for photo captions, in characters.
	MaxCaptionLength = 1024
)

// ErrMissingToken is returned when the client is built without a bot token.
var ErrMissingToken = errors.New("telegram bot token is empty")

// APIError is a request the Bot API answered with ok=false.
type APIError struct {
	Method      string
	Code        int
	Description string
	RetryAfter  int
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("telegram %s failed: %d %s", e.Method, e.Code, e.Description)
	if e.RetryAfter > 0 {
		msg += fmt.Sprintf(" (retry after %ds)", e.RetryAfter)
	}
	return msg
}

// Message is the subset of a sent message the poster cares about.
type Message struct {
	MessageID int64 `json:"message_id"`
	Date      int64 `json:"date"`
	Chat      struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	} `json:"chat"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// Client talks to the Bot API with a single token.
type Client struct {
	http    httpclient.Client
	baseURL string
	token   string
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at another Bot API server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u = strings.TrimRight(strings.TrimSpace(u), "/"); u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient replaces the transport.
func WithHTTPClient(h httpclient.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// New builds a Client. The token is never included in returned errors.
func New(token string, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}
	c := &Client{
		http:    httpclient.NewRestyClient(30 * time.Second),
		baseURL: DefaultBaseURL,
		token:   token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SendMessage posts a text message.
func (c *Client) SendMessage(ctx context.Context, chatID, text, parseMode string) (Message, error) {
	body := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	if parseMode != "" {
		body["parse_mode"] = parseMode
	}
	return c.call(ctx, "sendMessage", body)
}

// SendPhoto posts a photo referenced by URL with an optional caption.
func (c *Client) SendPhoto(ctx context.Context, chatID, photoURL, caption, parseMode string) (Message, error) {
	body := map[string]any{
		"chat_id": chatID,
		"photo":   photoURL,
	}
	if caption != "" {
		body["caption"] = caption
	}
	if parseMode != "" {
		body["parse_mode"] = parseMode
	}
	return c.call(ctx, "sendPhoto", body)
}

// PollOptions controls poll behaviour.
type PollOptions struct {
	Type        string
	IsAnonymous bool
}

// SendPoll posts a poll with the given answers.
func (c *Client) SendPoll(ctx context.Context, chatID, question string, answers []string, opts PollOptions) (Message, error) {
	pollType := opts.Type
	if pollType == "" {
		pollType = PollTypeRegular
	}
	options := make([]map[string]string, 0, len(answers))
	for _, a := range answers {
		options = append(options, map[string]string{"text": a})
	}
	body := map[string]any{
		"chat_id":      chatID,
		"question":     question,
		"options":      options,
		"type":         pollType,
		"is_anonymous": opts.IsAnonymous,
	}
	return c.call(ctx, "sendPoll", body)
}

func (c *Client) call(ctx context.Context, method string, body map[string]any) (Message, error) {
	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)

	resp, err := c.http.PostJSON(ctx, url, nil, body)
	if err != nil {
		return Message{}, fmt.Errorf("telegram %s request: %s", method, c.redact(err.Error()))
	}

	var out apiResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return Message{}, fmt.Errorf("telegram %s: status %d, undecodable body: %w", method, resp.StatusCode(), err)
	}
	if !out.OK {
		apiErr := &APIError{Method: method, Code: out.ErrorCode, Description: out.Description}
		if apiErr.Code == 0 {
			apiErr.Code = resp.StatusCode()
		}
		if out.Parameters != nil {
			apiErr.RetryAfter = out.Parameters.RetryAfter
		}
		return Message{}, apiErr
	}

	var msg Message
	if len(out.Result) > 0 {
		if err := json.Unmarshal(out.Result, &msg); err != nil {
			return Message{}, fmt.Errorf("telegram %s: decode result: %w", method, err)
		}
	}
	return msg, nil
}

func (c *Client) redact(s string) string {
	return strings.ReplaceAll(s, c.token, "<token>")
}
