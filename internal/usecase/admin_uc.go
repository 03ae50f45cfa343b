package usecase

import (
	"context"
	"io"
	"time"

	"telegram-signals-bot/internal/domain"
	"telegram-signals-bot/internal/domain/model"
	"telegram-signals-bot/internal/domain/ports/adapter"
	"telegram-signals-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ AdminUseCase = (*adminUC)(nil)

// AdminUseCase is the single place caller identity is checked: every
// moderation and broadcast action validates the caller against the configured
// administrator allow-list before any state is touched, then dispatches to
// the lifecycle or broadcast engines and delivers the resulting notification
// intents to the transport.
type AdminUseCase interface {
	IsAdmin(callerID int64) bool
	Approve(ctx context.Context, callerID, targetID int64, subscriptionEnd *time.Time) (*model.UserRecord, error)
	Reject(ctx context.Context, callerID, targetID int64) (*model.UserRecord, error)
	Suspend(ctx context.Context, callerID, targetID int64, reason string) (*model.UserRecord, error)
	Reactivate(ctx context.Context, callerID, targetID int64) (*model.UserRecord, error)
	GetUser(ctx context.Context, callerID, targetID int64) (*model.UserRecord, error)
	Broadcast(ctx context.Context, callerID int64, segment model.Segment, message string) (BroadcastResult, error)
	DistributeSignal(ctx context.Context, callerID int64, sig *model.Signal) (SignalReport, error)
	Analytics(ctx context.Context, callerID int64) (Analytics, error)
	ExportCSV(ctx context.Context, callerID int64, w io.Writer) (int, error)
	// NotifyAdmins fans a message out to every configured administrator.
	NotifyAdmins(ctx context.Context, text string)
}

type adminUC struct {
	admins      map[int64]struct{}
	lifecycle   LifecycleUseCase
	broadcast   BroadcastUseCase
	signals     SignalUseCase
	stats       StatsUseCase
	export      ExportUseCase
	bot         adapter.TelegramBotAdapter
	sendTimeout time.Duration
	log         *zerolog.Logger
}

func NewAdminUseCase(
	adminIDs []int64,
	lifecycle LifecycleUseCase,
	broadcast BroadcastUseCase,
	signals SignalUseCase,
	stats StatsUseCase,
	export ExportUseCase,
	bot adapter.TelegramBotAdapter,
	sendTimeout time.Duration,
	logger *zerolog.Logger,
) *adminUC {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &adminUC{
		admins:      admins,
		lifecycle:   lifecycle,
		broadcast:   broadcast,
		signals:     signals,
		stats:       stats,
		export:      export,
		bot:         bot,
		sendTimeout: sendTimeout,
		log:         logger,
	}
}

func (uc *adminUC) IsAdmin(callerID int64) bool {
	_, ok := uc.admins[callerID]
	return ok
}

func (uc *adminUC) authorize(callerID int64, command string) error {
	if !uc.IsAdmin(callerID) {
		metrics.IncAdminCommand(command, "unauthorized")
		uc.log.Warn().Int64("caller_id", callerID).Str("command", command).Msg("unauthorized admin command")
		return domain.ErrUnauthorized
	}
	metrics.IncAdminCommand(command, "authorized")
	return nil
}

func (uc *adminUC) Approve(ctx context.Context, callerID, targetID int64, subscriptionEnd *time.Time) (*model.UserRecord, error) {
	if err := uc.authorize(callerID, "approve"); err != nil {
		return nil, err
	}
	u, _, err := uc.lifecycle.Approve(ctx, targetID, subscriptionEnd)
	if err != nil {
		return nil, err
	}
	uc.notifyUser(ctx, u.TelegramID, approvedText())
	return u, nil
}

func (uc *adminUC) Reject(ctx context.Context, callerID, targetID int64) (*model.UserRecord, error) {
	if err := uc.authorize(callerID, "reject"); err != nil {
		return nil, err
	}
	u, _, err := uc.lifecycle.Reject(ctx, targetID)
	if err != nil {
		return nil, err
	}
	uc.notifyUser(ctx, u.TelegramID, rejectedText())
	return u, nil
}

func (uc *adminUC) Suspend(ctx context.Context, callerID, targetID int64, reason string) (*model.UserRecord, error) {
	if err := uc.authorize(callerID, "suspend"); err != nil {
		return nil, err
	}
	u, intent, err := uc.lifecycle.Suspend(ctx, targetID, reason)
	if err != nil {
		return nil, err
	}
	uc.notifyUser(ctx, u.TelegramID, suspendedText(intent.Reason))
	return u, nil
}

func (uc *adminUC) Reactivate(ctx context.Context, callerID, targetID int64) (*model.UserRecord, error) {
	if err := uc.authorize(callerID, "reactivate"); err != nil {
		return nil, err
	}
	u, _, err := uc.lifecycle.Reactivate(ctx, targetID)
	if err != nil {
		return nil, err
	}
	uc.notifyUser(ctx, u.TelegramID, reactivatedText())
	return u, nil
}

func (uc *adminUC) GetUser(ctx context.Context, callerID, targetID int64) (*model.UserRecord, error) {
	if err := uc.authorize(callerID, "view"); err != nil {
		return nil, err
	}
	return uc.lifecycle.GetByTelegramID(ctx, targetID)
}

func (uc *adminUC) Broadcast(ctx context.Context, callerID int64, segment model.Segment, message string) (BroadcastResult, error) {
	if err := uc.authorize(callerID, "broadcast"); err != nil {
		return BroadcastResult{}, err
	}
	return uc.broadcast.Broadcast(ctx, segment, message)
}

func (uc *adminUC) DistributeSignal(ctx context.Context, callerID int64, sig *model.Signal) (SignalReport, error) {
	if err := uc.authorize(callerID, "signal"); err != nil {
		return SignalReport{}, err
	}
	return uc.signals.Distribute(ctx, sig)
}

func (uc *adminUC) Analytics(ctx context.Context, callerID int64) (Analytics, error) {
	if err := uc.authorize(callerID, "analytics"); err != nil {
		return Analytics{}, err
	}
	return uc.stats.Analytics(ctx)
}

func (uc *adminUC) ExportCSV(ctx context.Context, callerID int64, w io.Writer) (int, error) {
	if err := uc.authorize(callerID, "export_csv"); err != nil {
		return 0, err
	}
	return uc.export.ExportCSV(ctx, w)
}

func (uc *adminUC) NotifyAdmins(ctx context.Context, text string) {
	for id := range uc.admins {
		uc.notifyUser(ctx, id, text)
	}
}

// notifyUser delivers a moderation side effect. Delivery failure never undoes
// the state change; it is logged and left for a manual resend.
func (uc *adminUC) notifyUser(ctx context.Context, tgID int64, text string) {
	sendCtx, cancel := context.WithTimeout(ctx, uc.sendTimeout)
	defer cancel()
	if err := uc.bot.SendMessage(sendCtx, tgID, text); err != nil {
		metrics.IncDeliveryFailure("admin")
		uc.log.Warn().Err(err).Int64("tg_id", tgID).Msg("moderation notification delivery failed")
	}
}
