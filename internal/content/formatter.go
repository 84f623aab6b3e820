package content

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/altynmaturuen/freebie-poster/internal/domain"
	"github.com/altynmaturuen/freebie-poster/internal/randsrc"
)

const (
	topicImageURL = "https://picsum.photos/seed/%d/600/400"

	descriptionPlaceholder = "[молодежный и понятный текст о том, почему это интересно]"
	topicPlaceholder       = "[Это место может быть заполнено ИИ. Мы можем подключить Qwen API здесь.]"
)

// ErrEmptySubject is returned when neither a game nor a topic is given.
var ErrEmptySubject = errors.New("nothing to format")

// Subject is what a post is about: a game, or a topic when Game is nil.
type Subject struct {
	Game  *domain.Game
	Topic string
}

// Elaborator writes body text for a topic. It is an optional hook for an
// external text-generation service.
type Elaborator interface {
	Elaborate(ctx context.Context, topic string) (string, error)
}

// Formatter renders subjects into channel posts.
type Formatter struct {
	rand       randsrc.Source
	elaborator Elaborator
}

// Option customizes a Formatter.
type Option func(*Formatter)

// WithElaborator sets the topic body generator.
func WithElaborator(e Elaborator) Option {
	return func(f *Formatter) { f.elaborator = e }
}

// NewFormatter builds a Formatter drawing phrases from src.
func NewFormatter(src randsrc.Source, opts ...Option) *Formatter {
	if src == nil {
		src = randsrc.New(0)
	}
	f := &Formatter{rand: src}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format renders the subject. The caption is not length-bounded here.
func (f *Formatter) Format(ctx context.Context, subj Subject) (domain.Post, error) {
	greeting, _ := randsrc.Pick(f.rand, greetings)
	signoff, _ := randsrc.Pick(f.rand, signoffs)

	if subj.Game != nil {
		g := *subj.Game
		if strings.TrimSpace(g.Title) == "" {
			return domain.Post{}, fmt.Errorf("%w: game without title", ErrEmptySubject)
		}
		switch g.Store {
		case domain.StoreSteam:
			return f.steamPost(g, greeting, signoff), nil
		case domain.StoreEpic:
			return f.epicPost(g, signoff), nil
		default:
			return domain.Post{}, fmt.Errorf("unknown store %q for %q", g.Store, g.Title)
		}
	}

	if strings.TrimSpace(subj.Topic) == "" {
		return domain.Post{}, ErrEmptySubject
	}
	return f.topicPost(ctx, subj.Topic), nil
}

func (f *Formatter) steamPost(g domain.Game, greeting, signoff string) domain.Post {
	desc := g.Description
	if desc == "" {
		desc = descriptionPlaceholder
	}
	desc = escapeMarkdown(desc)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", greeting)
	fmt.Fprintf(&b, "%s — теперь доступна бесплатно 😲\n\n", escapeMarkdown(g.Title))
	fmt.Fprintf(&b, "Описание: %s\n\n", desc)
	fmt.Fprintf(&b, "🔗 [%s](%s)\n\n", g.Link, g.Link)
	fmt.Fprintf(&b, "%s\n\n", signoff)
	fmt.Fprintf(&b, "#бесплатныеигры #steamхалява #%s", g.ID)

	return domain.Post{
		Caption:  b.String(),
		ImageURL: g.ImageURL,
		DedupKey: g.Title,
		Mode:     domain.ModeSteam,
	}
}

func (f *Formatter) epicPost(g domain.Game, signoff string) domain.Post {
	var b strings.Builder
	fmt.Fprintf(&b, "🎮 %s — раздаётся бесплатно в Epic!\n\n", boldMarkdown(g.Title))
	b.WriteString("Не упусти шанс — просто авторизуйся и забери. Это отличный выбор, если любишь подобные проекты.\n\n")
	if g.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", escapeMarkdown(g.Description))
	}
	fmt.Fprintf(&b, "🔗 [%s](%s)\n\n", g.Link, g.Link)
	fmt.Fprintf(&b, "%s\n\n", signoff)
	b.WriteString("#бесплатныеигры #epicхалява")

	return domain.Post{
		Caption:  b.String(),
		ImageURL: g.ImageURL,
		DedupKey: g.Title,
		Mode:     domain.ModeEpic,
	}
}

func (f *Formatter) topicPost(ctx context.Context, topic string) domain.Post {
	body := escapeMarkdown(topicPlaceholder)
	if f.elaborator != nil {
		if text, err := f.elaborator.Elaborate(ctx, topic); err == nil && strings.TrimSpace(text) != "" {
			body = strings.TrimSpace(text)
		}
	}

	caption := fmt.Sprintf("🔥 %s\n\n%s\n\n💡 Подробности внутри!", escapeMarkdown(topic), body)
	return domain.Post{
		Caption:  caption,
		ImageURL: fmt.Sprintf(topicImageURL, f.rand.IntN(999)+1),
		DedupKey: topic,
		Mode:     domain.ModeTopic,
	}
}

// markdownEscaper escapes the entity markers of Telegram's legacy Markdown.
var markdownEscaper = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"`", "\\`",
	"[", "\\[",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// boldMarkdown wraps s in a bold entity. Escapes are not honoured inside an
// entity, so asterisks are dropped instead; a title made only of asterisks
// is sent escaped and unbolded.
func boldMarkdown(s string) string {
	inner := strings.TrimSpace(strings.ReplaceAll(s, "*", ""))
	if inner == "" {
		return escapeMarkdown(s)
	}
	return "*" + inner + "*"
}
