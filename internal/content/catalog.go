package content

import "github.com/altynmaturuen/freebie-poster/internal/domain"

var greetings = []string{
	"🔥 Снова раздача!",
	"🎮 Кто хочет халявы?",
	"💥 Лови момент!",
	"🎁 Сегодня можно забрать:",
}

var signoffs = []string{
	"👉 Скорее переходи по ссылке.",
	"⏳ Раздача активна ограниченное время.",
	"✅ Просто зайди и забери.",
	"💡 Посмотри трейлер перед скачкой.",
}

var topics = []string{
	"Лайфхак для Valorant: как улучшить позиционирование",
	"Почему Half-Life 3 никогда не выйдет?",
	"10 игр, где можно потерять часы — но всё равно не пройти до конца",
	"Где найти крутые моды для Skyrim после 10 лет игры",
	"Как собрать бюджетный игровой ПК в 2025 году?",
	"Игры с мультиплеером, которые стоит попробовать",
	"Неожиданные фишки в Minecraft, о которых ты не знал",
}

var polls = []domain.PollSpec{
	{Question: "Какую платформу используешь чаще?", Options: []string{"PC", "PS5", "Xbox", "Switch"}},
	{Question: "Любишь локализации?", Options: []string{"Да", "Нет", "Мне всё равно"}},
	{Question: "Любимый жанр?", Options: []string{"Шутеры", "Ролевые", "Стратегии", "Выживалки"}},
	{Question: "Играешь больше в одиночку или в коопе?", Options: []string{"Соло", "Кооп", "Мультиплеер"}},
}

// Topics returns a copy of the built-in discussion topics.
func Topics() []string {
	out := make([]string, len(topics))
	copy(out, topics)
	return out
}

// Polls returns a copy of the built-in polls.
func Polls() []domain.PollSpec {
	out := make([]domain.PollSpec, len(polls))
	for i, p := range polls {
		opts := make([]string, len(p.Options))
		copy(opts, p.Options)
		out[i] = domain.PollSpec{Question: p.Question, Options: opts}
	}
	return out
}
