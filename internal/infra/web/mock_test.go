//go:build !integration

package web_test

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"telegram-signals-bot/internal/domain/model"
	"telegram-signals-bot/internal/usecase"
)

// MockAdminUseCase records calls and returns injectable results.
type MockAdminUseCase struct {
	LastCaller int64

	BroadcastFunc func(ctx context.Context, callerID int64, segment model.Segment, message string) (usecase.BroadcastResult, error)
	AnalyticsFunc func(ctx context.Context, callerID int64) (usecase.Analytics, error)
	ExportFunc    func(ctx context.Context, callerID int64, w io.Writer) (int, error)
	SignalFunc    func(ctx context.Context, callerID int64, sig *model.Signal) (usecase.SignalReport, error)
}

var _ usecase.AdminUseCase = (*MockAdminUseCase)(nil)

func (m *MockAdminUseCase) IsAdmin(int64) bool { return true }

func (m *MockAdminUseCase) Approve(_ context.Context, callerID, _ int64, _ *time.Time) (*model.UserRecord, error) {
	m.LastCaller = callerID
	return nil, nil
}

func (m *MockAdminUseCase) Reject(_ context.Context, callerID, _ int64) (*model.UserRecord, error) {
	m.LastCaller = callerID
	return nil, nil
}

func (m *MockAdminUseCase) Suspend(_ context.Context, callerID, _ int64, _ string) (*model.UserRecord, error) {
	m.LastCaller = callerID
	return nil, nil
}

func (m *MockAdminUseCase) Reactivate(_ context.Context, callerID, _ int64) (*model.UserRecord, error) {
	m.LastCaller = callerID
	return nil, nil
}

func (m *MockAdminUseCase) GetUser(_ context.Context, callerID, _ int64) (*model.UserRecord, error) {
	m.LastCaller = callerID
	return nil, nil
}

func (m *MockAdminUseCase) Broadcast(ctx context.Context, callerID int64, segment model.Segment, message string) (usecase.BroadcastResult, error) {
	m.LastCaller = callerID
	if m.BroadcastFunc != nil {
		return m.BroadcastFunc(ctx, callerID, segment, message)
	}
	return usecase.BroadcastResult{}, nil
}

func (m *MockAdminUseCase) DistributeSignal(ctx context.Context, callerID int64, sig *model.Signal) (usecase.SignalReport, error) {
	m.LastCaller = callerID
	if m.SignalFunc != nil {
		return m.SignalFunc(ctx, callerID, sig)
	}
	return usecase.SignalReport{}, nil
}

func (m *MockAdminUseCase) Analytics(ctx context.Context, callerID int64) (usecase.Analytics, error) {
	m.LastCaller = callerID
	if m.AnalyticsFunc != nil {
		return m.AnalyticsFunc(ctx, callerID)
	}
	return usecase.Analytics{}, nil
}

func (m *MockAdminUseCase) ExportCSV(ctx context.Context, callerID int64, w io.Writer) (int, error) {
	m.LastCaller = callerID
	if m.ExportFunc != nil {
		return m.ExportFunc(ctx, callerID, w)
	}
	return 0, nil
}

func (m *MockAdminUseCase) NotifyAdmins(context.Context, string) {}

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
