package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-signals-bot/internal/config"
	"telegram-signals-bot/internal/domain/ports/adapter"
	"telegram-signals-bot/internal/domain/ports/repository"
	"telegram-signals-bot/internal/usecase"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ adapter.TelegramBotAdapter = (*RealBotAdapter)(nil)

// RealBotAdapter implements the transport port with tgbotapi long polling and
// concurrent update workers.
type RealBotAdapter struct {
	bot      *tgbotapi.BotAPI
	cfg      *config.BotConfig
	admin    usecase.AdminUseCase
	life     usecase.LifecycleUseCase
	regState repository.RegistrationStateRepository
	log      *zerolog.Logger

	// updateWorkers is how many goroutines concurrently process updates.
	updateWorkers int
	cancelPolling context.CancelFunc
}

func NewRealBotAdapter(
	cfg *config.BotConfig,
	life usecase.LifecycleUseCase,
	regState repository.RegistrationStateRepository,
	logger *zerolog.Logger,
) (*RealBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if life == nil {
		return nil, errors.New("lifecycle use case is nil")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}
	return &RealBotAdapter{
		bot:           bot,
		cfg:           cfg,
		life:          life,
		regState:      regState,
		log:           logger,
		updateWorkers: workers,
	}, nil
}

// AttachAdmin binds the admin use case after construction. The admin use case
// sends through this adapter, so it is built second and attached before
// polling starts.
func (r *RealBotAdapter) AttachAdmin(admin usecase.AdminUseCase) { r.admin = admin }

// StartPolling begins polling Telegram for updates concurrently.
// It runs until ctx is canceled.
func (r *RealBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for {
				select {
				case update, ok := <-updateChan:
					if !ok {
						return
					}
					if err := r.handleUpdate(ctx, update); err != nil {
						r.log.Error().Err(err).Int("worker", workerID).Msg("error handling update")
					}
				case <-ctx.Done():
					return
				}
			}
		}(i + 1)
	}

	// Dispatcher goroutine: feed updates into updateChan.
	go func() {
		defer close(updateChan)
		for {
			select {
			case update := <-updates:
				select {
				case updateChan <- update:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	<-ctx.Done()
	r.bot.StopReceivingUpdates()
	wg.Wait()
	return nil
}

// StopPolling stops the polling loop gracefully.
func (r *RealBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

// SendMessage delivers text to a Telegram chat. Honors ctx so a stalled
// delivery is abandoned rather than blocking a batch.
func (r *RealBotAdapter) SendMessage(ctx context.Context, telegramID int64, text string) error {
	msg := tgbotapi.NewMessage(telegramID, text)

	done := make(chan error, 1)
	go func() {
		_, err := r.bot.Send(msg)
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *RealBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return nil
	}

	if _, err := r.life.RegisterOrFetch(ctx, msg.From.ID, msg.From.UserName); err != nil {
		return err
	}

	if msg.IsCommand() {
		return r.routeCommand(ctx, msg)
	}
	// Plain text feeds the registration conversation, if one is in flight.
	return r.continueRegistration(ctx, msg)
}

// reply is a convenience for answering the chat an update came from.
func (r *RealBotAdapter) reply(ctx context.Context, msg *tgbotapi.Message, text string) error {
	return r.SendMessage(ctx, msg.Chat.ID, text)
}

func (r *RealBotAdapter) nowUTC() time.Time { return time.Now().UTC() }

// splitCommand normalizes suffix-style moderation commands
// ("/approve_12345") into a base command and argument.
func splitCommand(msg *tgbotapi.Message) (cmd string, args string) {
	cmd = msg.Command()
	args = strings.TrimSpace(msg.CommandArguments())
	for _, base := range []string{"approve", "reject", "reactivate", "view"} {
		if strings.HasPrefix(cmd, base+"_") {
			return base, strings.TrimPrefix(cmd, base+"_")
		}
	}
	return cmd, args
}
