package channel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/altynmaturuen/freebie-poster/internal/domain"
	"github.com/altynmaturuen/freebie-poster/internal/logger"
	"github.com/altynmaturuen/freebie-poster/pkg/telegram"
)

// ErrInvalidPoll is returned for polls the Bot API would reject up front.
var ErrInvalidPoll = errors.New("invalid poll")

// Sender is the subset of the Bot API client the publisher needs.
type Sender interface {
	SendMessage(ctx context.Context, chatID, text, parseMode string) (telegram.Message, error)
	SendPhoto(ctx context.Context, chatID, photoURL, caption, parseMode string) (telegram.Message, error)
	SendPoll(ctx context.Context, chatID, question string, answers []string, opts telegram.PollOptions) (telegram.Message, error)
}

// Publisher delivers posts and polls to one channel.
type Publisher struct {
	sender    Sender
	chatID    string
	parseMode string
	log       logger.Logger
}

// NewPublisher builds a Publisher for chatID, e.g. "@altynmaturuen".
func NewPublisher(sender Sender, chatID string, log logger.Logger) (*Publisher, error) {
	if sender == nil {
		return nil, errors.New("channel sender is nil")
	}
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return nil, errors.New("channel id is empty")
	}
	return &Publisher{
		sender:    sender,
		chatID:    chatID,
		parseMode: telegram.ParseModeMarkdown,
		log:       logger.Ensure(log),
	}, nil
}

// ChatID returns the target channel.
func (p *Publisher) ChatID() string { return p.chatID }

// PublishPost sends a photo with the caption when imageURL is set, otherwise a
// text message. Photo captions are cut to the Bot API caption limit.
func (p *Publisher) PublishPost(ctx context.Context, caption, imageURL string) error {
	var (
		msg  telegram.Message
		err  error
		kind string
	)
	if strings.TrimSpace(imageURL) != "" {
		kind = "photo"
		msg, err = p.sender.SendPhoto(ctx, p.chatID, imageURL, TruncateCaption(caption), p.parseMode)
	} else {
		kind = "text"
		msg, err = p.sender.SendMessage(ctx, p.chatID, caption, p.parseMode)
	}
	if err != nil {
		p.log.ErrorObj("post delivery failed", "channel_post_error", map[string]any{
			"chat_id": p.chatID,
			"kind":    kind,
			"error":   err.Error(),
		})
		return fmt.Errorf("send %s post: %w", kind, err)
	}

	p.log.InfoObj("post published", "channel_post", map[string]any{
		"chat_id":    p.chatID,
		"kind":       kind,
		"message_id": msg.MessageID,
	})
	return nil
}

// PublishPoll sends a regular anonymous poll.
func (p *Publisher) PublishPoll(ctx context.Context, poll domain.PollSpec) error {
	if strings.TrimSpace(poll.Question) == "" {
		return fmt.Errorf("%w: empty question", ErrInvalidPoll)
	}
	if len(poll.Options) < 2 {
		return fmt.Errorf("%w: %q has %d options, need at least 2", ErrInvalidPoll, poll.Question, len(poll.Options))
	}

	msg, err := p.sender.SendPoll(ctx, p.chatID, poll.Question, poll.Options, telegram.PollOptions{
		Type:        telegram.PollTypeRegular,
		IsAnonymous: true,
	})
	if err != nil {
		p.log.ErrorObj("poll delivery failed", "channel_poll_error", map[string]any{
			"chat_id":  p.chatID,
			"question": poll.Question,
			"error":    err.Error(),
		})
		return fmt.Errorf("send poll: %w", err)
	}

	p.log.InfoObj("poll published", "channel_poll", map[string]any{
		"chat_id":    p.chatID,
		"question":   poll.Question,
		"message_id": msg.MessageID,
	})
	return nil
}

// TruncateCaption cuts s to the photo caption limit counted in characters.
// The cut backs off so that no Markdown escape or entity is left open.
func TruncateCaption(s string) string {
	if utf8.RuneCountInString(s) <= telegram.MaxCaptionLength {
		return s
	}
	r := []rune(s)
	return string(r[:markdownCut(r, telegram.MaxCaptionLength)])
}

// markdownCut returns the largest index <= limit that falls outside any
// legacy Markdown escape or entity.
func markdownCut(r []rune, limit int) int {
	safe, i := 0, 0
	for i < limit {
		safe = i
		switch r[i] {
		case '\\':
			i += 2
		case '*', '_', '`':
			if end := indexRune(r, i+1, r[i]); end >= 0 {
				i = end + 1
			} else {
				i++
			}
		case '[':
			if end := linkEnd(r, i); end >= 0 {
				i = end + 1
			} else {
				i++
			}
		default:
			i++
		}
	}
	if i == limit {
		safe = limit
	}
	return safe
}

// linkEnd returns the index of the ')' closing a [text](url) starting at i.
func linkEnd(r []rune, i int) int {
	closeText := indexRune(r, i+1, ']')
	if closeText < 0 || closeText+1 >= len(r) || r[closeText+1] != '(' {
		return -1
	}
	return indexRune(r, closeText+2, ')')
}

func indexRune(r []rune, from int, want rune) int {
	for j := from; j < len(r); j++ {
		if r[j] == want {
			return j
		}
	}
	return -1
}
