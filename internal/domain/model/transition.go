package model

import (
	"time"

	"telegram-signals-bot/internal/domain"
)

// Lifecycle transitions. Each method validates its precondition, mutates the
// receiver and returns the side-effect intents the caller must hand to the
// transport. Nothing here performs I/O: callers apply a transition to a clone
// of the stored record and persist it with compare-and-swap, so a crash
// between the state change and the delivery is observable and retryable.

// StartTrial begins the one-and-only free trial.
func (u *UserRecord) StartTrial(now time.Time, days int) (Intent, error) {
	if u.TrialUsed || u.Status != StatusFree {
		return Intent{}, domain.ErrInvalidTransition
	}
	if days <= 0 {
		return Intent{}, domain.ErrInvalidArgument
	}
	end := now.Add(time.Duration(days) * 24 * time.Hour)
	u.Status = StatusTrial
	u.TrialEnd = &end
	u.TrialUsed = true
	u.clearReminders()
	u.Touch(now)
	return NewIntent(IntentTrialStarted, u), nil
}

// SubmitVerification moves the user into the admin review queue.
func (u *UserRecord) SubmitVerification(now time.Time) (Intent, error) {
	if u.Status != StatusFree && u.Status != StatusTrial {
		return Intent{}, domain.ErrInvalidTransition
	}
	if !u.TermsAccepted || u.Email == "" || u.AccountNumber == "" {
		return Intent{}, domain.ErrInvalidTransition
	}
	u.Status = StatusPendingVerification
	u.VerificationRequestCount++
	at := now
	u.LastVerificationRequestAt = &at
	u.Touch(now)
	return NewIntent(IntentVerificationSubmitted, u), nil
}

// ApproveVerification grants premium access. subscriptionEnd is the
// admin-provided term; nil means unlimited (broker-linked).
func (u *UserRecord) ApproveVerification(now time.Time, subscriptionEnd *time.Time) (Intent, error) {
	if u.Status != StatusPendingVerification {
		return Intent{}, domain.ErrInvalidTransition
	}
	u.Status = StatusPremium
	u.Verified = true
	u.TrialEnd = nil
	u.SubscriptionEnd = subscriptionEnd
	if u.PremiumSince == nil {
		at := now
		u.PremiumSince = &at
	}
	u.Touch(now)
	return NewIntent(IntentVerificationApproved, u), nil
}

// RejectVerification returns the user to Trial when the trial has not yet
// expired, otherwise to Free. The user may resubmit. Reminder markers are
// kept: the resumed trial is the same episode, so countdown reminders
// already sent are not repeated.
func (u *UserRecord) RejectVerification(now time.Time) (Intent, error) {
	if u.Status != StatusPendingVerification {
		return Intent{}, domain.ErrInvalidTransition
	}
	if u.TrialEnd != nil && now.Before(*u.TrialEnd) {
		u.Status = StatusTrial
	} else {
		u.Status = StatusFree
		u.TrialEnd = nil
	}
	u.Verified = false
	u.Touch(now)
	return NewIntent(IntentVerificationRejected, u), nil
}

// ExpireTrial downgrades a trial whose end has passed. Scheduler-driven.
func (u *UserRecord) ExpireTrial(now time.Time) (Intent, error) {
	if u.Status != StatusTrial || u.TrialEnd == nil || now.Before(*u.TrialEnd) {
		return Intent{}, domain.ErrInvalidTransition
	}
	u.Status = StatusFree
	u.TrialEnd = nil
	u.Touch(now)
	return NewIntent(IntentTrialExpired, u), nil
}

// Suspend freezes any active account. The prior status is recorded so that
// Reactivate can restore it; TrialEnd and SubscriptionEnd are preserved
// untouched for the round-trip.
func (u *UserRecord) Suspend(now time.Time, reason string) (Intent, error) {
	if u.Status == StatusSuspended {
		return Intent{}, domain.ErrInvalidTransition
	}
	u.ResumeStatus = u.Status
	u.Status = StatusSuspended
	u.Suspended = true
	u.SuspensionReason = reason
	u.clearReminders()
	u.Touch(now)
	it := NewIntent(IntentSuspended, u)
	it.Reason = reason
	return it, nil
}

// Reactivate restores the status recorded at suspension time.
func (u *UserRecord) Reactivate(now time.Time) (Intent, error) {
	if u.Status != StatusSuspended {
		return Intent{}, domain.ErrInvalidTransition
	}
	restored := u.ResumeStatus
	if restored == "" || restored == StatusSuspended {
		// Records suspended before ResumeStatus existed fall back to the
		// verification flag, matching the legacy reactivation rule.
		if u.Verified {
			restored = StatusPremium
		} else {
			restored = StatusFree
		}
	}
	u.Status = restored
	u.ResumeStatus = ""
	u.Suspended = false
	u.SuspensionReason = ""
	u.Touch(now)
	return NewIntent(IntentReactivated, u), nil
}

// RecordSignalDelivery bumps the monotonic delivery counter.
func (u *UserRecord) RecordSignalDelivery(now time.Time) {
	u.TotalSignalsReceived++
	u.Touch(now)
}
