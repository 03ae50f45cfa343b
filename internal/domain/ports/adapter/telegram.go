package adapter

import "context"

// TelegramBotAdapter is the transport the core emits send intents to.
// Implementations must be time-bounded: a slow delivery is cancelled through
// ctx rather than stalling a scheduler tick or broadcast batch.
type TelegramBotAdapter interface {
	SendMessage(ctx context.Context, telegramID int64, text string) error
}
