//go:build !integration

package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-signals-bot/internal/domain/model"
)

func commandMessage(text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Text: text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: commandLength(text)},
		},
	}
}

func commandLength(text string) int {
	for i, r := range text {
		if r == ' ' {
			return i
		}
	}
	return len(text)
}

func TestSplitCommand(t *testing.T) {
	cases := []struct {
		text     string
		wantCmd  string
		wantArgs string
	}{
		{"/start", "start", ""},
		{"/suspend 42 account unfunded", "suspend", "42 account unfunded"},
		{"/approve_12345", "approve", "12345"},
		{"/reject_12345", "reject", "12345"},
		{"/reactivate_7", "reactivate", "7"},
		{"/view_12345", "view", "12345"},
		{"/approve 12345", "approve", "12345"},
		{"/broadcast premium hello there", "broadcast", "premium hello there"},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			cmd, args := splitCommand(commandMessage(tc.text))
			if cmd != tc.wantCmd || args != tc.wantArgs {
				t.Errorf("splitCommand(%q) = (%q, %q), want (%q, %q)", tc.text, cmd, args, tc.wantCmd, tc.wantArgs)
			}
		})
	}
}

func TestIsAffirmative(t *testing.T) {
	for _, yes := range []string{"yes", "Yes", "Y", "ok", "ACCEPT", "agree"} {
		if !isAffirmative(yes) {
			t.Errorf("%q should be affirmative", yes)
		}
	}
	for _, no := range []string{"no", "", "nope", "maybe"} {
		if isAffirmative(no) {
			t.Errorf("%q should not be affirmative", no)
		}
	}
}

func TestStatusLabel(t *testing.T) {
	if got := statusLabel(model.StatusPendingVerification); got != "Pending verification" {
		t.Errorf("label = %q", got)
	}
	// Unknown statuses fall through verbatim rather than panicking.
	if got := statusLabel(model.Status("weird")); got != "weird" {
		t.Errorf("label = %q", got)
	}
}
