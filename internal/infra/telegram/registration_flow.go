package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-signals-bot/internal/domain"
	"telegram-signals-bot/internal/domain/ports/repository"
	"telegram-signals-bot/internal/usecase"
)

// Broker registration conversation. Each answer advances the persisted state
// one step, so the flow survives restarts and works across bot instances.

func (r *RealBotAdapter) startRegistration(ctx context.Context, msg *tgbotapi.Message) error {
	if r.regState == nil {
		return r.reply(ctx, msg, "Registration is temporarily unavailable, try again later.")
	}
	state := &repository.RegistrationState{
		Step: repository.StepAwaitingCountry,
		Data: map[string]string{},
	}
	if err := r.regState.SetState(ctx, msg.From.ID, state); err != nil {
		return err
	}
	return r.reply(ctx, msg, "📝 Let's get you verified for Premium access.\n\n"+
		"Step 1/5. Which country are you in?")
}

func (r *RealBotAdapter) continueRegistration(ctx context.Context, msg *tgbotapi.Message) error {
	if r.regState == nil {
		return nil
	}
	state, err := r.regState.GetState(ctx, msg.From.ID)
	if errors.Is(err, domain.ErrNotFound) {
		// Not in a conversation, nothing to do with free text.
		return nil
	}
	if err != nil {
		return err
	}

	answer := strings.TrimSpace(msg.Text)
	if answer == "" {
		return r.reply(ctx, msg, "Please answer with text, or /cancel to abort.")
	}

	switch state.Step {
	case repository.StepAwaitingCountry:
		state.Data["country"] = answer
		state.Step = repository.StepAwaitingTerms
		if err := r.regState.SetState(ctx, msg.From.ID, state); err != nil {
			return err
		}
		return r.reply(ctx, msg, "Step 2/5. Do you accept the terms of service? (yes/no)\n\n"+
			"Signals are informational only and not financial advice. Trading involves risk.")

	case repository.StepAwaitingTerms:
		if !isAffirmative(answer) {
			_ = r.regState.ClearState(ctx, msg.From.ID)
			return r.reply(ctx, msg, "You must accept the terms to register. Use /register to start again.")
		}
		state.Data["terms"] = "yes"
		state.Step = repository.StepAwaitingFullName
		if err := r.regState.SetState(ctx, msg.From.ID, state); err != nil {
			return err
		}
		return r.reply(ctx, msg, "Step 3/5. What is your full name?")

	case repository.StepAwaitingFullName:
		state.Data["full_name"] = answer
		state.Step = repository.StepAwaitingEmail
		if err := r.regState.SetState(ctx, msg.From.ID, state); err != nil {
			return err
		}
		return r.reply(ctx, msg, "Step 4/5. What email did you register with our broker?")

	case repository.StepAwaitingEmail:
		if !strings.Contains(answer, "@") {
			return r.reply(ctx, msg, "That does not look like an email address, try again.")
		}
		state.Data["email"] = answer
		state.Step = repository.StepAwaitingAccount
		if err := r.regState.SetState(ctx, msg.From.ID, state); err != nil {
			return err
		}
		return r.reply(ctx, msg, "Step 5/5. What is your broker account number?")

	case repository.StepAwaitingAccount:
		state.Data["account_number"] = answer
		return r.finishRegistration(ctx, msg, state)
	}

	r.log.Warn().Str("step", string(state.Step)).Int64("tg_id", msg.From.ID).Msg("unknown registration step, clearing")
	return r.regState.ClearState(ctx, msg.From.ID)
}

func (r *RealBotAdapter) finishRegistration(ctx context.Context, msg *tgbotapi.Message, state *repository.RegistrationState) error {
	profile := usecase.RegistrationProfile{
		Country:       state.Data["country"],
		FullName:      state.Data["full_name"],
		Email:         state.Data["email"],
		AccountNumber: state.Data["account_number"],
		TermsAccepted: state.Data["terms"] == "yes",
	}

	u, _, err := r.life.SubmitVerification(ctx, msg.From.ID, profile)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			_ = r.regState.ClearState(ctx, msg.From.ID)
			return r.reply(ctx, msg, "Your account cannot submit a verification request right now. Check /status.")
		}
		return err
	}

	if err := r.regState.ClearState(ctx, msg.From.ID); err != nil {
		r.log.Warn().Err(err).Int64("tg_id", msg.From.ID).Msg("failed to clear registration state")
	}

	r.admin.NotifyAdmins(ctx, usecase.VerificationAdminText(u))

	return r.reply(ctx, msg, fmt.Sprintf("✅ Thanks, %s! Your verification request was submitted.\n\n"+
		"An admin will review it shortly, you will be notified here.", profile.FullName))
}

func isAffirmative(s string) bool {
	switch strings.ToLower(s) {
	case "yes", "y", "ok", "accept", "agree", "👍":
		return true
	}
	return false
}
