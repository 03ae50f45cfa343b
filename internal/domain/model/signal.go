package model

import (
	"time"

	"telegram-signals-bot/internal/domain"

	"github.com/oklog/ulid/v2"
)

type SignalAction string

const (
	SignalBuy  SignalAction = "BUY"
	SignalSell SignalAction = "SELL"
)

// Signal is a trading signal distributed to subscribed users. The core treats
// its contents as an opaque payload; only the transport formats it.
type Signal struct {
	ID         string
	Symbol     string
	Action     SignalAction
	Entry      float64
	StopLoss   float64
	TakeProfit float64
	Note       string
	CreatedAt  time.Time
}

func NewSignal(symbol string, action SignalAction, entry, stopLoss, takeProfit float64, note string) (*Signal, error) {
	if symbol == "" {
		return nil, domain.ErrInvalidArgument
	}
	if action != SignalBuy && action != SignalSell {
		return nil, domain.ErrInvalidArgument
	}
	return &Signal{
		ID:         ulid.Make().String(),
		Symbol:     symbol,
		Action:     action,
		Entry:      entry,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		Note:       note,
		CreatedAt:  time.Now(),
	}, nil
}
