package model

import "telegram-signals-bot/internal/domain"

// Segment is a named predicate over user status used for broadcast targeting.
type Segment string

const (
	SegmentAll       Segment = "all"
	SegmentPremium   Segment = "premium"
	SegmentTrial     Segment = "trial"
	SegmentFree      Segment = "free"
	SegmentSuspended Segment = "suspended"
)

// ParseSegment validates a caller-supplied segment name.
func ParseSegment(s string) (Segment, error) {
	switch Segment(s) {
	case SegmentAll, SegmentPremium, SegmentTrial, SegmentFree, SegmentSuspended:
		return Segment(s), nil
	}
	return "", domain.ErrInvalidArgument
}

// Matches reports whether the user belongs to the segment. The four narrow
// segments partition the population: every status maps to exactly one of
// them, with pending verifications counted as free.
func (s Segment) Matches(u *UserRecord) bool {
	switch s {
	case SegmentAll:
		return true
	case SegmentPremium:
		return u.Status == StatusPremium
	case SegmentTrial:
		return u.Status == StatusTrial
	case SegmentFree:
		return u.Status == StatusFree || u.Status == StatusPendingVerification
	case SegmentSuspended:
		return u.Status == StatusSuspended
	}
	return false
}
