package channel

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altynmaturuen/freebie-poster/internal/domain"
	"github.com/altynmaturuen/freebie-poster/pkg/telegram"
)

type sent struct {
	method  string
	chatID  string
	text    string
	photo   string
	mode    string
	answers []string
	opts    telegram.PollOptions
}

type fakeSender struct {
	calls []sent
	err   error
}

func (f *fakeSender) SendMessage(_ context.Context, chatID, text, parseMode string) (telegram.Message, error) {
	f.calls = append(f.calls, sent{method: "sendMessage", chatID: chatID, text: text, mode: parseMode})
	return telegram.Message{MessageID: 1}, f.err
}

func (f *fakeSender) SendPhoto(_ context.Context, chatID, photoURL, caption, parseMode string) (telegram.Message, error) {
	f.calls = append(f.calls, sent{method: "sendPhoto", chatID: chatID, text: caption, photo: photoURL, mode: parseMode})
	return telegram.Message{MessageID: 2}, f.err
}

func (f *fakeSender) SendPoll(_ context.Context, chatID, question string, answers []string, opts telegram.PollOptions) (telegram.Message, error) {
	f.calls = append(f.calls, sent{method: "sendPoll", chatID: chatID, text: question, answers: answers, opts: opts})
	return telegram.Message{MessageID: 3}, f.err
}

func newTestPublisher(t *testing.T, s *fakeSender) *Publisher {
	t.Helper()
	p, err := NewPublisher(s, "@altynmaturuen", nil)
	require.NoError(t, err)
	return p
}

func TestPublishPostPhotoCaptionBound(t *testing.T) {
	s := &fakeSender{}
	p := newTestPublisher(t, s)

	caption := strings.Repeat("ж", 3000)
	require.NoError(t, p.PublishPost(context.Background(), caption, "https://img/a.jpg"))

	require.Len(t, s.calls, 1)
	call := s.calls[0]
	assert.Equal(t, "sendPhoto", call.method)
	assert.Equal(t, "@altynmaturuen", call.chatID)
	assert.Equal(t, "https://img/a.jpg", call.photo)
	assert.Equal(t, telegram.ParseModeMarkdown, call.mode)
	assert.Equal(t, 1024, utf8.RuneCountInString(call.text))
	assert.True(t, utf8.ValidString(call.text))
}

func TestPublishPostTextKeepsFullCaption(t *testing.T) {
	s := &fakeSender{}
	p := newTestPublisher(t, s)

	caption := strings.Repeat("a", 2000)
	require.NoError(t, p.PublishPost(context.Background(), caption, ""))

	require.Len(t, s.calls, 1)
	assert.Equal(t, "sendMessage", s.calls[0].method)
	assert.Equal(t, caption, s.calls[0].text)
}

func TestPublishPostFailureIsReturned(t *testing.T) {
	apiErr := &telegram.APIError{Method: "sendPhoto", Code: 400, Description: "Bad Request: wrong file identifier"}
	p := newTestPublisher(t, &fakeSender{err: apiErr})

	err := p.PublishPost(context.Background(), "x", "https://img/a.jpg")
	var got *telegram.APIError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, 400, got.Code)
}

func TestPublishPoll(t *testing.T) {
	s := &fakeSender{}
	p := newTestPublisher(t, s)

	poll := domain.PollSpec{Question: "Любимый жанр?", Options: []string{"Шутеры", "Ролевые"}}
	require.NoError(t, p.PublishPoll(context.Background(), poll))

	require.Len(t, s.calls, 1)
	call := s.calls[0]
	assert.Equal(t, "sendPoll", call.method)
	assert.Equal(t, poll.Options, call.answers)
	assert.Equal(t, telegram.PollOptions{Type: telegram.PollTypeRegular, IsAnonymous: true}, call.opts)
}

func TestPublishPollValidation(t *testing.T) {
	s := &fakeSender{}
	p := newTestPublisher(t, s)

	err := p.PublishPoll(context.Background(), domain.PollSpec{Question: "q", Options: []string{"only"}})
	require.ErrorIs(t, err, ErrInvalidPoll)
	err = p.PublishPoll(context.Background(), domain.PollSpec{Options: []string{"a", "b"}})
	require.ErrorIs(t, err, ErrInvalidPoll)
	assert.Empty(t, s.calls)
}

func TestPublishPollFailure(t *testing.T) {
	p := newTestPublisher(t, &fakeSender{err: errors.New("chat not found")})
	err := p.PublishPoll(context.Background(), domain.PollSpec{Question: "q", Options: []string{"a", "b"}})
	require.Error(t, err)
}

func TestNewPublisherValidation(t *testing.T) {
	_, err := NewPublisher(nil, "@x", nil)
	require.Error(t, err)
	_, err = NewPublisher(&fakeSender{}, " ", nil)
	require.Error(t, err)
}

func TestTruncateCaption(t *testing.T) {
	assert.Equal(t, "short", TruncateCaption("short"))
	exact := strings.Repeat("b", 1024)
	assert.Equal(t, exact, TruncateCaption(exact))
	assert.Len(t, TruncateCaption(exact+"c"), 1024)
}

func TestTruncateCaptionKeepsMarkdownClosed(t *testing.T) {
	pad := strings.Repeat("a", 1020)
	cases := map[string]struct {
		in   string
		want string
	}{
		"dangling escape": {pad + `bbb\_tail`, pad + "bbb"},
		"open bold":       {pad + "b *Bold title* tail", pad + "b "},
		"half link":       {pad + "[https://store](https://store) tail", pad},
		"closed before":   {pad + "*ab* tail", pad + "*ab*"},
		"unclosed marker": {pad + "bb_b tail", pad + "bb_b"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := TruncateCaption(tc.in)
			assert.Equal(t, tc.want, got)
			assert.LessOrEqual(t, utf8.RuneCountInString(got), 1024)
		})
	}
}

func TestTruncateCaptionCountsRunes(t *testing.T) {
	in := strings.Repeat("ж", 1030)
	got := TruncateCaption(in)
	assert.Equal(t, 1024, utf8.RuneCountInString(got))
}
