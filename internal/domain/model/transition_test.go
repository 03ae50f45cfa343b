//go:build !integration

package model_test

import (
	"errors"
	"testing"
	"time"

	"telegram-signals-bot/internal/domain"
	"telegram-signals-bot/internal/domain/model"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newFreeUser(t *testing.T) *model.UserRecord {
	t.Helper()
	u, err := model.NewUserRecord("", 1001, "alice")
	if err != nil {
		t.Fatalf("NewUserRecord: %v", err)
	}
	return u
}

func TestStartTrial(t *testing.T) {
	t.Run("should move a free user into trial with the correct end date", func(t *testing.T) {
		u := newFreeUser(t)

		_, err := u.StartTrial(base, 14)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if u.Status != model.StatusTrial {
			t.Errorf("expected status trial, got %s", u.Status)
		}
		if u.TrialEnd == nil || !u.TrialEnd.Equal(base.Add(14*24*time.Hour)) {
			t.Errorf("unexpected trial end: %v", u.TrialEnd)
		}
		if !u.TrialUsed {
			t.Error("expected TrialUsed to be set")
		}
	})

	t.Run("should refuse a second trial even after the first expired", func(t *testing.T) {
		u := newFreeUser(t)
		if _, err := u.StartTrial(base, 14); err != nil {
			t.Fatalf("first trial: %v", err)
		}
		if _, err := u.ExpireTrial(base.Add(15 * 24 * time.Hour)); err != nil {
			t.Fatalf("expire: %v", err)
		}
		if u.Status != model.StatusFree {
			t.Fatalf("expected free after expiry, got %s", u.Status)
		}

		_, err := u.StartTrial(base.Add(20*24*time.Hour), 14)
		if !errors.Is(err, domain.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got: %v", err)
		}
	})

	t.Run("should refuse a trial for a non-free status", func(t *testing.T) {
		u := newFreeUser(t)
		u.Status = model.StatusPremium
		if _, err := u.StartTrial(base, 14); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got: %v", err)
		}
	})

	t.Run("should clear reminder markers from a previous episode", func(t *testing.T) {
		u := newFreeUser(t)
		u.MarkReminder(model.ReminderSuspendedDaily, base.Add(-time.Hour))

		if _, err := u.StartTrial(base, 14); err != nil {
			t.Fatalf("StartTrial: %v", err)
		}
		if u.HasReminder(model.ReminderSuspendedDaily) {
			t.Error("expected stale markers to be cleared")
		}
	})
}

func TestVerificationFlow(t *testing.T) {
	submit := func(t *testing.T, u *model.UserRecord) {
		t.Helper()
		u.TermsAccepted = true
		u.Email = "a@b.c"
		u.AccountNumber = "ACC-1"
		if _, err := u.SubmitVerification(base); err != nil {
			t.Fatalf("SubmitVerification: %v", err)
		}
	}

	t.Run("should require terms, email and account number", func(t *testing.T) {
		u := newFreeUser(t)
		u.TermsAccepted = true
		u.Email = "a@b.c"
		// account number missing
		if _, err := u.SubmitVerification(base); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got: %v", err)
		}
	})

	t.Run("should count repeated submissions", func(t *testing.T) {
		u := newFreeUser(t)
		submit(t, u)
		if _, err := u.RejectVerification(base); err != nil {
			t.Fatalf("reject: %v", err)
		}
		submit(t, u)
		if u.VerificationRequestCount != 2 {
			t.Errorf("expected 2 submissions counted, got %d", u.VerificationRequestCount)
		}
	})

	t.Run("approve should grant premium, set PremiumSince once and drop the trial clock", func(t *testing.T) {
		u := newFreeUser(t)
		if _, err := u.StartTrial(base, 14); err != nil {
			t.Fatal(err)
		}
		submit(t, u)

		if _, err := u.ApproveVerification(base.Add(time.Hour), nil); err != nil {
			t.Fatalf("approve: %v", err)
		}
		if u.Status != model.StatusPremium || !u.Verified {
			t.Errorf("expected verified premium, got %s verified=%v", u.Status, u.Verified)
		}
		if u.TrialEnd != nil {
			t.Error("expected TrialEnd cleared on approval")
		}
		first := *u.PremiumSince

		// Suspend, reactivate, re-approve path must not move PremiumSince.
		if _, err := u.Suspend(base.Add(2*time.Hour), "test"); err != nil {
			t.Fatal(err)
		}
		if _, err := u.Reactivate(base.Add(3 * time.Hour)); err != nil {
			t.Fatal(err)
		}
		if !u.PremiumSince.Equal(first) {
			t.Error("PremiumSince must be set once")
		}
	})

	t.Run("reject should return to trial while the trial clock still runs", func(t *testing.T) {
		u := newFreeUser(t)
		if _, err := u.StartTrial(base, 14); err != nil {
			t.Fatal(err)
		}
		u.MarkReminder(model.ReminderTrial7Days, base.Add(7*24*time.Hour))
		submit(t, u)

		if _, err := u.RejectVerification(base.Add(8 * 24 * time.Hour)); err != nil {
			t.Fatalf("reject: %v", err)
		}
		if u.Status != model.StatusTrial {
			t.Errorf("expected trial, got %s", u.Status)
		}
		if u.TrialEnd == nil {
			t.Error("expected TrialEnd preserved")
		}
		// Same trial episode: reminders already sent must not repeat.
		if !u.HasReminder(model.ReminderTrial7Days) {
			t.Error("expected reminder markers kept across the rejection")
		}
	})

	t.Run("reject should fall back to free when the trial already ran out", func(t *testing.T) {
		u := newFreeUser(t)
		if _, err := u.StartTrial(base, 14); err != nil {
			t.Fatal(err)
		}
		submit(t, u)

		if _, err := u.RejectVerification(base.Add(20 * 24 * time.Hour)); err != nil {
			t.Fatalf("reject: %v", err)
		}
		if u.Status != model.StatusFree {
			t.Errorf("expected free, got %s", u.Status)
		}
		if u.TrialEnd != nil {
			t.Error("expected TrialEnd dropped")
		}
	})
}

func TestSuspendReactivate(t *testing.T) {
	t.Run("should round-trip premium status and keep the subscription term", func(t *testing.T) {
		u := newFreeUser(t)
		end := base.Add(90 * 24 * time.Hour)
		u.Status = model.StatusPremium
		u.Verified = true
		u.SubscriptionEnd = &end

		it, err := u.Suspend(base, "unfunded account")
		if err != nil {
			t.Fatalf("suspend: %v", err)
		}
		if it.Reason != "unfunded account" {
			t.Errorf("intent reason not carried: %q", it.Reason)
		}
		if !u.Suspended || u.Status != model.StatusSuspended {
			t.Error("suspended flag and status must agree")
		}
		if u.SubscriptionEnd == nil || !u.SubscriptionEnd.Equal(end) {
			t.Error("subscription term must survive suspension")
		}

		if _, err := u.Reactivate(base.Add(time.Hour)); err != nil {
			t.Fatalf("reactivate: %v", err)
		}
		if u.Status != model.StatusPremium {
			t.Errorf("expected premium restored, got %s", u.Status)
		}
		if u.Suspended || u.SuspensionReason != "" {
			t.Error("suspension fields must be cleared")
		}
	})

	t.Run("should round-trip a trial user without touching the trial clock", func(t *testing.T) {
		u := newFreeUser(t)
		if _, err := u.StartTrial(base, 14); err != nil {
			t.Fatal(err)
		}
		end := *u.TrialEnd

		if _, err := u.Suspend(base.Add(time.Hour), ""); err != nil {
			t.Fatal(err)
		}
		if _, err := u.Reactivate(base.Add(2 * time.Hour)); err != nil {
			t.Fatal(err)
		}
		if u.Status != model.StatusTrial {
			t.Errorf("expected trial restored, got %s", u.Status)
		}
		if u.TrialEnd == nil || !u.TrialEnd.Equal(end) {
			t.Error("trial clock must survive the round trip")
		}
	})

	t.Run("should use the verified flag for legacy records without a resume status", func(t *testing.T) {
		u := newFreeUser(t)
		u.Status = model.StatusSuspended
		u.Suspended = true
		u.Verified = true

		if _, err := u.Reactivate(base); err != nil {
			t.Fatal(err)
		}
		if u.Status != model.StatusPremium {
			t.Errorf("expected premium for legacy verified record, got %s", u.Status)
		}
	})

	t.Run("should reject suspending twice", func(t *testing.T) {
		u := newFreeUser(t)
		if _, err := u.Suspend(base, "x"); err != nil {
			t.Fatal(err)
		}
		if _, err := u.Suspend(base, "y"); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got: %v", err)
		}
	})

	t.Run("suspend should clear reminder markers for the new episode", func(t *testing.T) {
		u := newFreeUser(t)
		if _, err := u.StartTrial(base, 14); err != nil {
			t.Fatal(err)
		}
		u.MarkReminder(model.ReminderTrial7Days, base.Add(7*24*time.Hour))

		if _, err := u.Suspend(base.Add(8*24*time.Hour), ""); err != nil {
			t.Fatal(err)
		}
		if u.HasReminder(model.ReminderTrial7Days) {
			t.Error("markers from the trial episode must not leak into suspension")
		}
	})
}

func TestExpireTrial(t *testing.T) {
	t.Run("should refuse before the end instant and expire at it", func(t *testing.T) {
		u := newFreeUser(t)
		if _, err := u.StartTrial(base, 14); err != nil {
			t.Fatal(err)
		}
		end := *u.TrialEnd

		if _, err := u.ExpireTrial(end.Add(-time.Second)); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition before the boundary, got: %v", err)
		}
		if _, err := u.ExpireTrial(end); err != nil {
			t.Errorf("expected expiry at the boundary, got: %v", err)
		}
		if u.Status != model.StatusFree || u.TrialEnd != nil {
			t.Errorf("expected clean free state, got %s %v", u.Status, u.TrialEnd)
		}
	})
}

func TestTrialDaysLeft(t *testing.T) {
	u := newFreeUser(t)
	if _, err := u.StartTrial(base, 14); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		at   time.Time
		want int
	}{
		{"at start", base, 14},
		{"exactly 7 days before the end", base.Add(7 * 24 * time.Hour), 7},
		{"mid-day floors down", base.Add(7*24*time.Hour + 5*time.Hour), 6},
		{"one day left", base.Add(13 * 24 * time.Hour), 1},
		{"past the end", base.Add(15 * 24 * time.Hour), -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := u.TrialDaysLeft(tc.at); got != tc.want {
				t.Errorf("TrialDaysLeft(%v) = %d, want %d", tc.at, got, tc.want)
			}
		})
	}
}

func TestClone(t *testing.T) {
	u := newFreeUser(t)
	if _, err := u.StartTrial(base, 14); err != nil {
		t.Fatal(err)
	}
	u.MarkReminder(model.ReminderTrial7Days, base)

	c := u.Clone()
	c.MarkReminder(model.ReminderTrial3Days, base)
	*c.TrialEnd = base.Add(time.Hour)

	if u.HasReminder(model.ReminderTrial3Days) {
		t.Error("clone shares the reminder map")
	}
	if u.TrialEnd.Equal(base.Add(time.Hour)) {
		t.Error("clone shares the TrialEnd pointer")
	}
}
