package notify

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/avolkov/twgrab/internal/task"
)

// Notifier announces finished downloads. Implementations must be safe for
// concurrent use; download goroutines call them directly.
type Notifier interface {
	Downloaded(t task.Task, title string)
	Failed(t task.Task)
}

// Noop is used when no notifier is configured.
type Noop struct{}

func (Noop) Downloaded(task.Task, string) {}
func (Noop) Failed(task.Task)             {}

// Telegram announces download results to a single chat.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram creates a Telegram notifier for the given bot token and chat.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	log.Printf("[NOTIFY] Authorized on account %s", api.Self.UserName)

	return &Telegram{api: api, chatID: chatID}, nil
}

func (t *Telegram) Downloaded(tk task.Task, title string) {
	t.send(downloadedMessage(tk, title))
}

func (t *Telegram) Failed(tk task.Task) {
	t.send(failedMessage(tk))
}

func (t *Telegram) send(text string) {
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.api.Send(msg); err != nil {
		log.Printf("[NOTIFY] Failed to send message: %v", err)
	}
}

func downloadedMessage(tk task.Task, title string) string {
	if title == "" {
		title = tk.URL
	}
	return fmt.Sprintf("✅ Downloaded %q as %s", title, tk.Filename)
}

func failedMessage(tk task.Task) string {
	return fmt.Sprintf("❌ Download failed for %s: %s", tk.URL, tk.Error)
}
