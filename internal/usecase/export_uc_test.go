//go:build !integration

package usecase_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"telegram-signals-bot/internal/domain/model"
	"telegram-signals-bot/internal/usecase"
)

func TestExportCSV(t *testing.T) {
	ctx := context.Background()

	t.Run("should write one ordered row per user", func(t *testing.T) {
		store := NewMockUserStore()
		for _, tgID := range []int64{30, 10, 20} {
			u, _ := model.NewUserRecord("", tgID, "user")
			store.Seed(u)
		}
		uc := usecase.NewExportUseCase(store, newTestLogger())

		var buf bytes.Buffer
		n, err := uc.ExportCSV(ctx, &buf)
		if err != nil {
			t.Fatalf("export: %v", err)
		}
		if n != 3 {
			t.Errorf("rows = %d, want 3", n)
		}

		records, err := csv.NewReader(&buf).ReadAll()
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if len(records) != 4 {
			t.Fatalf("expected header + 3 rows, got %d", len(records))
		}
		// Column 1 is telegram_id; rows must be ordered by it.
		if records[1][1] != "10" || records[2][1] != "20" || records[3][1] != "30" {
			t.Errorf("rows not ordered by telegram id: %v %v %v", records[1][1], records[2][1], records[3][1])
		}
	})

	t.Run("should encode optional timestamps as empty cells", func(t *testing.T) {
		store := NewMockUserStore()
		u, _ := model.NewUserRecord("", 42, "user")
		if _, err := u.StartTrial(t0, 14); err != nil {
			t.Fatal(err)
		}
		store.Seed(u)
		uc := usecase.NewExportUseCase(store, newTestLogger())

		var buf bytes.Buffer
		if _, err := uc.ExportCSV(ctx, &buf); err != nil {
			t.Fatal(err)
		}
		records, err := csv.NewReader(&buf).ReadAll()
		if err != nil {
			t.Fatal(err)
		}
		header, row := records[0], records[1]
		cols := map[string]string{}
		for i, name := range header {
			cols[name] = row[i]
		}
		if cols["trial_end"] != t0.Add(14*24*time.Hour).Format(time.RFC3339) {
			t.Errorf("trial_end = %q", cols["trial_end"])
		}
		if cols["subscription_end"] != "" || cols["premium_since"] != "" {
			t.Errorf("unset timestamps must be empty, got %q %q", cols["subscription_end"], cols["premium_since"])
		}
		if cols["status"] != "trial" || cols["trial_used"] != "true" {
			t.Errorf("unexpected status cells: %q %q", cols["status"], cols["trial_used"])
		}
	})
}
