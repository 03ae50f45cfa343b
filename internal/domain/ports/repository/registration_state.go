package repository

import (
	"context"
)

// RegistrationStep defines the possible steps in the broker registration flow.
type RegistrationStep string

const (
	StepAwaitingCountry  RegistrationStep = "awaiting_country"
	StepAwaitingTerms    RegistrationStep = "awaiting_terms"
	StepAwaitingFullName RegistrationStep = "awaiting_fullname"
	StepAwaitingEmail    RegistrationStep = "awaiting_email"
	StepAwaitingAccount  RegistrationStep = "awaiting_account"
)

// RegistrationState holds the user's current progress through the flow.
type RegistrationState struct {
	Step RegistrationStep  `json:"step"`
	Data map[string]string `json:"data"` // collected answers keyed by field name
}

// RegistrationStateRepository is the port for transient conversation state.
type RegistrationStateRepository interface {
	SetState(ctx context.Context, tgID int64, state *RegistrationState) error
	GetState(ctx context.Context, tgID int64) (*RegistrationState, error)
	ClearState(ctx context.Context, tgID int64) error
}
