package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-signals-bot/internal/domain"
	"telegram-signals-bot/internal/domain/model"
	"telegram-signals-bot/internal/usecase"
)

func (r *RealBotAdapter) routeCommand(ctx context.Context, msg *tgbotapi.Message) error {
	cmd, args := splitCommand(msg)

	switch cmd {
	case "start":
		return r.handleStart(ctx, msg)
	case "help":
		return r.handleHelp(ctx, msg)
	case "trial":
		return r.handleTrial(ctx, msg)
	case "register":
		return r.startRegistration(ctx, msg)
	case "status":
		return r.handleStatus(ctx, msg)
	case "cancel":
		return r.handleCancel(ctx, msg)
	case "approve":
		return r.handleApprove(ctx, msg, args)
	case "reject":
		return r.handleReject(ctx, msg, args)
	case "suspend":
		return r.handleSuspend(ctx, msg, args)
	case "reactivate":
		return r.handleReactivate(ctx, msg, args)
	case "view":
		return r.handleView(ctx, msg, args)
	case "broadcast":
		return r.handleBroadcast(ctx, msg, args)
	case "signal":
		return r.handleSignal(ctx, msg, args)
	case "analytics":
		return r.handleAnalytics(ctx, msg)
	case "export_csv":
		return r.handleExportCSV(ctx, msg)
	default:
		return r.reply(ctx, msg, "Unknown command. Use /help to see what I can do.")
	}
}

func (r *RealBotAdapter) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	u, err := r.life.GetByTelegramID(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("👋 Welcome, @%s!\n\n"+
		"I deliver premium trading signals.\n\n"+
		"• /trial starts your free 14-day Premium trial\n"+
		"• /register gets you verified for permanent Premium access\n"+
		"• /status shows your current access level\n"+
		"• /help lists everything else", u.Username)
	return r.reply(ctx, msg, text)
}

func (r *RealBotAdapter) handleHelp(ctx context.Context, msg *tgbotapi.Message) error {
	text := "📖 Commands:\n\n" +
		"/trial  start the free 14-day Premium trial\n" +
		"/register  register with our broker for Premium\n" +
		"/status  show your subscription status\n" +
		"/cancel  abort an in-progress registration"
	if r.admin.IsAdmin(msg.From.ID) {
		text += "\n\n🔑 Admin:\n" +
			"/approve <tg_id>\n/reject <tg_id>\n" +
			"/suspend <tg_id> [reason]\n/reactivate <tg_id>\n/view <tg_id>\n" +
			"/broadcast <all|premium|trial|free|suspended> <message>\n" +
			"/signal <SYMBOL> <BUY|SELL> <entry> <sl> <tp> [note]\n" +
			"/analytics\n/export_csv"
	}
	return r.reply(ctx, msg, text)
}

func (r *RealBotAdapter) handleTrial(ctx context.Context, msg *tgbotapi.Message) error {
	u, _, err := r.life.StartTrial(ctx, msg.From.ID)
	switch {
	case errors.Is(err, domain.ErrInvalidTransition):
		return r.reply(ctx, msg, "You have already used your free trial, or your account is not eligible. Use /register to get verified for Premium.")
	case err != nil:
		return err
	}
	return r.reply(ctx, msg, usecase.TrialStartedText(*u.TrialEnd))
}

func (r *RealBotAdapter) handleStatus(ctx context.Context, msg *tgbotapi.Message) error {
	u, err := r.life.GetByTelegramID(ctx, msg.From.ID)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 Your status: %s\n", statusLabel(u.Status))
	switch u.Status {
	case model.StatusTrial:
		if days := u.TrialDaysLeft(r.nowUTC()); days >= 0 {
			fmt.Fprintf(&b, "⏳ Trial days left: %d\n", days)
		}
	case model.StatusPremium:
		if u.SubscriptionEnd != nil {
			fmt.Fprintf(&b, "📅 Subscription until: %s\n", u.SubscriptionEnd.Format("2006-01-02"))
		} else {
			b.WriteString("📅 Subscription: unlimited\n")
		}
	case model.StatusSuspended:
		if u.SuspensionReason != "" {
			fmt.Fprintf(&b, "⚠️ Reason: %s\n", u.SuspensionReason)
		}
	case model.StatusPendingVerification:
		b.WriteString("🕐 Your verification request is being reviewed.\n")
	}
	fmt.Fprintf(&b, "📈 Signals received: %d", u.TotalSignalsReceived)
	return r.reply(ctx, msg, b.String())
}

func (r *RealBotAdapter) handleCancel(ctx context.Context, msg *tgbotapi.Message) error {
	if r.regState != nil {
		if err := r.regState.ClearState(ctx, msg.From.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	}
	return r.reply(ctx, msg, "Registration canceled. Use /register to start over.")
}

func (r *RealBotAdapter) handleApprove(ctx context.Context, msg *tgbotapi.Message, args string) error {
	target, err := parseTargetID(args)
	if err != nil {
		return r.reply(ctx, msg, "Usage: /approve <telegram_id>")
	}
	u, err := r.admin.Approve(ctx, msg.From.ID, target, nil)
	if err != nil {
		return r.replyModerationError(ctx, msg, err)
	}
	return r.reply(ctx, msg, fmt.Sprintf("✅ Approved @%s (%d). Status: %s", u.Username, u.TelegramID, u.Status))
}

func (r *RealBotAdapter) handleReject(ctx context.Context, msg *tgbotapi.Message, args string) error {
	target, err := parseTargetID(args)
	if err != nil {
		return r.reply(ctx, msg, "Usage: /reject <telegram_id>")
	}
	u, err := r.admin.Reject(ctx, msg.From.ID, target)
	if err != nil {
		return r.replyModerationError(ctx, msg, err)
	}
	return r.reply(ctx, msg, fmt.Sprintf("❌ Rejected @%s (%d). Status: %s", u.Username, u.TelegramID, u.Status))
}

func (r *RealBotAdapter) handleSuspend(ctx context.Context, msg *tgbotapi.Message, args string) error {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return r.reply(ctx, msg, "Usage: /suspend <telegram_id> [reason]")
	}
	target, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return r.reply(ctx, msg, "Usage: /suspend <telegram_id> [reason]")
	}
	reason := strings.TrimSpace(strings.TrimPrefix(args, fields[0]))
	u, err := r.admin.Suspend(ctx, msg.From.ID, target, reason)
	if err != nil {
		return r.replyModerationError(ctx, msg, err)
	}
	return r.reply(ctx, msg, fmt.Sprintf("🚫 Suspended @%s (%d).", u.Username, u.TelegramID))
}

func (r *RealBotAdapter) handleReactivate(ctx context.Context, msg *tgbotapi.Message, args string) error {
	target, err := parseTargetID(args)
	if err != nil {
		return r.reply(ctx, msg, "Usage: /reactivate <telegram_id>")
	}
	u, err := r.admin.Reactivate(ctx, msg.From.ID, target)
	if err != nil {
		return r.replyModerationError(ctx, msg, err)
	}
	return r.reply(ctx, msg, fmt.Sprintf("✅ Reactivated @%s (%d). Status: %s", u.Username, u.TelegramID, u.Status))
}

func (r *RealBotAdapter) handleView(ctx context.Context, msg *tgbotapi.Message, args string) error {
	target, err := parseTargetID(args)
	if err != nil {
		return r.reply(ctx, msg, "Usage: /view <telegram_id>")
	}
	u, err := r.admin.GetUser(ctx, msg.From.ID, target)
	if err != nil {
		return r.replyModerationError(ctx, msg, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "👤 @%s (%d)\n", u.Username, u.TelegramID)
	fmt.Fprintf(&b, "Status: %s\n", statusLabel(u.Status))
	fmt.Fprintf(&b, "Joined: %s\n", u.CreatedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "Last seen: %s\n", u.LastActivity.Format("2006-01-02 15:04"))
	if u.TrialEnd != nil {
		fmt.Fprintf(&b, "Trial ends: %s\n", u.TrialEnd.Format("2006-01-02"))
	}
	if u.SubscriptionEnd != nil {
		fmt.Fprintf(&b, "Subscription until: %s\n", u.SubscriptionEnd.Format("2006-01-02"))
	}
	if u.SuspensionReason != "" {
		fmt.Fprintf(&b, "Suspension reason: %s\n", u.SuspensionReason)
	}
	if u.FullName != "" || u.Email != "" {
		fmt.Fprintf(&b, "Broker profile: %s / %s / %s / acc %s\n", u.FullName, u.Email, u.Country, u.AccountNumber)
	}
	fmt.Fprintf(&b, "Verification requests: %d\n", u.VerificationRequestCount)
	fmt.Fprintf(&b, "Signals received: %d", u.TotalSignalsReceived)
	return r.reply(ctx, msg, b.String())
}

func (r *RealBotAdapter) handleBroadcast(ctx context.Context, msg *tgbotapi.Message, args string) error {
	parts := strings.SplitN(args, " ", 2)
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		return r.reply(ctx, msg, "Usage: /broadcast <all|premium|trial|free|suspended> <message>")
	}
	segment, err := model.ParseSegment(parts[0])
	if err != nil {
		return r.reply(ctx, msg, "Unknown segment. Valid: all, premium, trial, free, suspended.")
	}
	res, err := r.admin.Broadcast(ctx, msg.From.ID, segment, strings.TrimSpace(parts[1]))
	if err != nil {
		return r.replyModerationError(ctx, msg, err)
	}
	return r.reply(ctx, msg, fmt.Sprintf("📢 Broadcast %s done.\nSent: %d\nFailed: %d", res.BatchID, res.Sent, res.Failed))
}

func (r *RealBotAdapter) handleSignal(ctx context.Context, msg *tgbotapi.Message, args string) error {
	const usage = "Usage: /signal <SYMBOL> <BUY|SELL> <entry> <sl> <tp> [note]"
	fields := strings.Fields(args)
	if len(fields) < 5 {
		return r.reply(ctx, msg, usage)
	}
	entry, err1 := strconv.ParseFloat(fields[2], 64)
	sl, err2 := strconv.ParseFloat(fields[3], 64)
	tp, err3 := strconv.ParseFloat(fields[4], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return r.reply(ctx, msg, usage)
	}
	note := strings.Join(fields[5:], " ")
	sig, err := model.NewSignal(fields[0], model.SignalAction(strings.ToUpper(fields[1])), entry, sl, tp, note)
	if err != nil {
		return r.reply(ctx, msg, usage)
	}
	report, err := r.admin.DistributeSignal(ctx, msg.From.ID, sig)
	if err != nil {
		return r.replyModerationError(ctx, msg, err)
	}
	return r.reply(ctx, msg, fmt.Sprintf("📈 Signal %s distributed.\nFull: %d\nTeasers: %d\nFailed: %d",
		sig.ID, report.Sent, report.Teasers, report.Failed))
}

func (r *RealBotAdapter) handleAnalytics(ctx context.Context, msg *tgbotapi.Message) error {
	a, err := r.admin.Analytics(ctx, msg.From.ID)
	if err != nil {
		return r.replyModerationError(ctx, msg, err)
	}
	text := fmt.Sprintf("📊 Analytics\n\n"+
		"Total users: %d\n"+
		"Free: %d\nTrial: %d\nPremium: %d\nSuspended: %d\nPending: %d\n\n"+
		"Conversion rate: %.2f%%\nTrial conversion: %.2f%%\n"+
		"New users (7d): %d",
		a.TotalUsers, a.FreeUsers, a.TrialUsers, a.PremiumUsers, a.SuspendedUsers,
		a.PendingVerifications, a.ConversionRate, a.TrialConversionRate, a.RecentUsers7d)
	return r.reply(ctx, msg, text)
}

func (r *RealBotAdapter) handleExportCSV(ctx context.Context, msg *tgbotapi.Message) error {
	var buf bytes.Buffer
	n, err := r.admin.ExportCSV(ctx, msg.From.ID, &buf)
	if err != nil {
		return r.replyModerationError(ctx, msg, err)
	}
	doc := tgbotapi.NewDocument(msg.Chat.ID, tgbotapi.FileBytes{
		Name:  "users_export.csv",
		Bytes: buf.Bytes(),
	})
	doc.Caption = fmt.Sprintf("Users export: %d rows", n)
	_, err = r.bot.Send(doc)
	return err
}

// replyModerationError maps use case failures to operator-facing answers.
func (r *RealBotAdapter) replyModerationError(ctx context.Context, msg *tgbotapi.Message, err error) error {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return r.reply(ctx, msg, "⛔ This command is restricted to administrators.")
	case errors.Is(err, domain.ErrNotFound):
		return r.reply(ctx, msg, "User not found.")
	case errors.Is(err, domain.ErrInvalidTransition):
		return r.reply(ctx, msg, "That action is not valid for the user's current status.")
	default:
		r.log.Error().Err(err).Str("command", msg.Command()).Msg("admin command failed")
		return r.reply(ctx, msg, "Something went wrong, try again.")
	}
}

func parseTargetID(args string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(args), 10, 64)
}

func statusLabel(s model.Status) string {
	switch s {
	case model.StatusFree:
		return "Free"
	case model.StatusTrial:
		return "Premium Trial"
	case model.StatusPremium:
		return "Premium ⭐"
	case model.StatusPendingVerification:
		return "Pending verification"
	case model.StatusSuspended:
		return "Suspended"
	}
	return string(s)
}
