package bot

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

const triviaTimeout = 20 * time.Second

var triviaAnswerRe = regexp.MustCompile(`^[1-4]$`)

type triviaQuestion struct {
	Question string
	Options  [4]string
	Answer   int // 1-based index into Options
}

var triviaQuestions = []triviaQuestion{
	{
		Question: "¿Quién es la presidenta del club de literatura?",
		Options:  [4]string{"Sayori", "Monika", "Yuri", "Natsuki"},
		Answer:   2,
	},
	{
		Question: "¿Cuál es el postre favorito de Natsuki?",
		Options:  [4]string{"Helado", "Galletas", "Cupcakes", "Pastel"},
		Answer:   3,
	},
	{
		Question: "¿Qué le gusta leer a Yuri?",
		Options:  [4]string{"Manga", "Novelas de terror", "Poesía clásica", "Revistas"},
		Answer:   2,
	},
	{
		Question: "¿Quién invita al protagonista al club?",
		Options:  [4]string{"Monika", "Yuri", "Natsuki", "Sayori"},
		Answer:   4,
	},
	{
		Question: "¿Qué actividad comparte el club todos los días?",
		Options:  [4]string{"Escribir poemas", "Jugar videojuegos", "Cocinar", "Ver películas"},
		Answer:   1,
	},
	{
		Question: "¿Cómo se llama el poema de Sayori?",
		Options:  [4]string{"Hoyo en el pecho", "%", "Ghost Under the Light", "Eagles Can Fly"},
		Answer:   4,
	},
}

// triviaSession collects the first valid answer from the requesting user in
// the channel where the question was asked. Submit is safe to call from the
// gateway handler goroutines; only the first valid answer wins.
type triviaSession struct {
	userID    string
	channelID string
	question  triviaQuestion

	once   sync.Once
	answer chan int
}

func newTriviaSession(userID, channelID string, question triviaQuestion) *triviaSession {
	return &triviaSession{
		userID:    userID,
		channelID: channelID,
		question:  question,
		answer:    make(chan int, 1),
	}
}

// Submit records an answer attempt. Messages from other users, other channels
// or without a 1-4 token are ignored.
func (s *triviaSession) Submit(userID, channelID, content string) {
	if userID != s.userID || channelID != s.channelID {
		return
	}

	token := strings.TrimSpace(content)
	if !triviaAnswerRe.MatchString(token) {
		return
	}

	choice, _ := strconv.Atoi(token)
	s.once.Do(func() {
		s.answer <- choice
	})
}

// Wait blocks until an answer arrives or the window elapses.
func (s *triviaSession) Wait(timeout time.Duration) (int, bool) {
	select {
	case choice := <-s.answer:
		return choice, true
	case <-time.After(timeout):
		return 0, false
	}
}

func (s *triviaSession) Correct(choice int) bool {
	return choice == s.question.Answer
}

func (b *Bot) handleTrivia(i *discordgo.InteractionCreate) error {
	question := triviaQuestions[rand.Intn(len(triviaQuestions))]

	var options strings.Builder
	for n, option := range question.Options {
		fmt.Fprintf(&options, "**%d.** %s\n", n+1, option)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "❓ " + question.Question,
		Description: options.String(),
		Color:       embedColor,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Responde con el número (1-4). Tienes 20 segundos."},
	}
	if err := b.replyEmbed(i, embed); err != nil {
		return err
	}

	session := newTriviaSession(interactionUserID(i), i.ChannelID, question)
	remove := b.session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}
		session.Submit(m.Author.ID, m.ChannelID, m.Content)
	})
	defer remove()

	choice, answered := session.Wait(triviaTimeout)

	var result string
	switch {
	case !answered:
		result = fmt.Sprintf("⏰ Se acabó el tiempo. Era **%s**.", question.Options[question.Answer-1])
	case session.Correct(choice):
		result = "✅ ¡Correcto!"
	default:
		result = fmt.Sprintf("❌ Incorrecto. Era **%s**.", question.Options[question.Answer-1])
	}

	_, err := b.session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{Content: result})
	return err
}
