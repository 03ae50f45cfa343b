//go:build !integration

package model_test

import (
	"errors"
	"testing"

	"telegram-signals-bot/internal/domain"
	"telegram-signals-bot/internal/domain/model"
)

func TestParseSegment(t *testing.T) {
	for _, valid := range []string{"all", "premium", "trial", "free", "suspended"} {
		if _, err := model.ParseSegment(valid); err != nil {
			t.Errorf("ParseSegment(%q) unexpected error: %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "ALL", "vip", "pending"} {
		if _, err := model.ParseSegment(invalid); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("ParseSegment(%q) expected ErrInvalidArgument, got: %v", invalid, err)
		}
	}
}

// Every status must fall into exactly one of the four narrow segments, so a
// segmented campaign over all four reaches each user exactly once.
func TestSegmentsPartitionStatuses(t *testing.T) {
	narrow := []model.Segment{model.SegmentPremium, model.SegmentTrial, model.SegmentFree, model.SegmentSuspended}
	statuses := []model.Status{
		model.StatusFree,
		model.StatusTrial,
		model.StatusPremium,
		model.StatusPendingVerification,
		model.StatusSuspended,
	}

	for _, st := range statuses {
		u := &model.UserRecord{ID: "u", TelegramID: 1, Status: st}

		if !model.SegmentAll.Matches(u) {
			t.Errorf("status %s must match segment all", st)
		}

		matched := 0
		for _, seg := range narrow {
			if seg.Matches(u) {
				matched++
			}
		}
		if matched != 1 {
			t.Errorf("status %s matched %d narrow segments, want exactly 1", st, matched)
		}
	}
}
