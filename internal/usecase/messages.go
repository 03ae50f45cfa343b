package usecase

import (
	"fmt"
	"time"

	"telegram-signals-bot/internal/domain/model"
)

// Message templates for core-emitted notifications. The transport delivers
// them verbatim; Telegram-specific decoration (keyboards, menus) stays in the
// adapter.

func TrialStartedText(trialEnd time.Time) string {
	return fmt.Sprintf("🚀 Your 14-day Premium trial has started!\n\n"+
		"You now have full access to premium signals, daily analysis and trading tips.\n\n"+
		"📅 Trial expiry date: %s", trialEnd.Format("2006-01-02"))
}

func trialReminderText(daysLeft int, brokerLink string) string {
	switch daysLeft {
	case 7:
		return fmt.Sprintf("⏳ Trial reminder: 7 days left.\n\n"+
			"To keep Premium access after your trial, register with our broker and get verified.\n%s", brokerLink)
	case 3:
		return fmt.Sprintf("⚠️ Your Premium trial expires in 3 days!\n\n"+
			"Register now to continue receiving signals:\n%s", brokerLink)
	case 1:
		return fmt.Sprintf("🚨 Last day of trial! Your Premium trial ends tomorrow.\n\n"+
			"Register immediately to keep access:\n%s", brokerLink)
	}
	return fmt.Sprintf("⏳ Trial reminder: %d days left.", daysLeft)
}

func trialExpiredText(brokerLink string) string {
	return fmt.Sprintf("⏳ Trial expired. Your 14-day Premium trial has ended.\n\n"+
		"To unlock Premium again, register with our broker and get verified:\n%s", brokerLink)
}

func suspendedText(reason string) string {
	if reason == "" {
		reason = "manual suspension"
	}
	return fmt.Sprintf("⚠️ Account suspended.\n\nReason: %s\n\n"+
		"Fund your broker account and contact the admin to get reactivated.", reason)
}

func suspensionDailyText(brokerLink string) string {
	return fmt.Sprintf("🚫 Daily reminder: your Premium subscription is suspended and today's signals are locked.\n\n"+
		"Fund your broker account and reactivate:\n%s", brokerLink)
}

func reactivatedText() string {
	return "✅ Account reactivated! Welcome back, you again have full Premium access."
}

func approvedText() string {
	return "🎉 Your Premium request has been approved! You now receive premium signals."
}

func rejectedText() string {
	return "❌ Your verification request was rejected. Check your details and resubmit."
}

func VerificationAdminText(u *model.UserRecord) string {
	return fmt.Sprintf("🔔 New Premium request\n\n"+
		"User: @%s\nTelegram ID: %d\nName: %s\nEmail: %s\nAccount: %s\nCountry: %s\nRequests so far: %d\n\n"+
		"/approve_%d  /reject_%d",
		u.Username, u.TelegramID, u.FullName, u.Email, u.AccountNumber, u.Country,
		u.VerificationRequestCount, u.TelegramID, u.TelegramID)
}

func signalText(s *model.Signal) string {
	msg := fmt.Sprintf("📈 Premium Trading Signal\n\n"+
		"%s\n• Type: %s\n• Entry: %.2f\n• Stop Loss: %.2f\n• Take Profit: %.2f",
		s.Symbol, s.Action, s.Entry, s.StopLoss, s.TakeProfit)
	if s.Note != "" {
		msg += "\n\n" + s.Note
	}
	return msg + "\n\n⚡ Manage your risk wisely!"
}

func signalTeaserText(s *model.Signal, brokerLink string) string {
	return fmt.Sprintf("📊 New %s signal on %s just went out to Premium members.\n\n"+
		"⚠️ Your subscription is suspended, so entry, SL and TP are locked.\n"+
		"Reactivate to unlock full setups:\n%s", s.Action, s.Symbol, brokerLink)
}
