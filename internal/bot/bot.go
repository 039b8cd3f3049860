package bot

import (
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"tutor-bot/internal/database"
	"tutor-bot/internal/models"
)

type Bot struct {
	API         *tgbotapi.BotAPI
	DB          *database.DB
	Loc         *time.Location
	States      map[int64]*models.UserState
	StatesMutex sync.RWMutex
}

func New(token string, db *database.DB, loc *time.Location) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	zap.L().Info("Authorized on account", zap.String("username", api.Self.UserName))

	return &Bot{
		API:    api,
		DB:     db,
		Loc:    loc,
		States: make(map[int64]*models.UserState),
	}, nil
}

func (b *Bot) SetState(userID int64, state string, data map[string]interface{}) {
	b.StatesMutex.Lock()
	defer b.StatesMutex.Unlock()

	if data == nil {
		data = make(map[string]interface{})
	}
	b.States[userID] = &models.UserState{
		UserID:      userID,
		State:       state,
		TempData:    data,
		LastUpdated: time.Now(),
	}
}

func (b *Bot) GetState(userID int64) *models.UserState {
	b.StatesMutex.RLock()
	defer b.StatesMutex.RUnlock()

	return b.States[userID]
}

func (b *Bot) ClearState(userID int64) {
	b.StatesMutex.Lock()
	defer b.StatesMutex.Unlock()

	delete(b.States, userID)
}

func (b *Bot) SendMessage(chatID int64, text string, replyMarkup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if replyMarkup != nil {
		msg.ReplyMarkup = replyMarkup
	}

	_, err := b.API.Send(msg)
	return err
}

func (b *Bot) EditMessage(chatID int64, messageID int, text string, replyMarkup interface{}) error {
	msg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if replyMarkup != nil {
		if markup, ok := replyMarkup.(*tgbotapi.InlineKeyboardMarkup); ok {
			msg.ReplyMarkup = markup
		}
	}

	_, err := b.API.Send(msg)
	return err
}

func (b *Bot) EditMessageMarkup(chatID int64, messageID int, markup tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, markup)
	_, err := b.API.Send(msg)
	return err
}

func (b *Bot) AnswerCallbackQuery(callbackID string, text string) error {
	callback := tgbotapi.NewCallback(callbackID, text)
	_, err := b.API.Request(callback)
	return err
}

// Notifier implementation for the lesson scheduler.

func (b *Bot) Send(chatID int64, text string) (int64, error) {
	sent, err := b.API.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return 0, err
	}
	return int64(sent.MessageID), nil
}

// SendTemporary sends a message and removes it after ttl. Reminders should
// not pile up in the chat history.
func (b *Bot) SendTemporary(chatID int64, text string, ttl time.Duration) (int64, error) {
	msgID, err := b.Send(chatID, text)
	if err != nil {
		return 0, err
	}

	time.AfterFunc(ttl, func() {
		if err := b.Delete(chatID, msgID); err != nil {
			zap.L().Debug("temporary message already gone",
				zap.Int64("chat_id", chatID), zap.Int64("message_id", msgID))
		}
	})

	return msgID, nil
}

// SendWithAction sends a message with a single inline action button.
func (b *Bot) SendWithAction(chatID int64, text, actionLabel, actionData string) (int64, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(actionLabel, actionData),
		),
	)

	sent, err := b.API.Send(msg)
	if err != nil {
		return 0, err
	}
	return int64(sent.MessageID), nil
}

func (b *Bot) Delete(chatID int64, messageID int64) error {
	_, err := b.API.Request(tgbotapi.NewDeleteMessage(chatID, int(messageID)))
	return err
}
