package internal

import (
	"context"
	"fmt"
	"os"

	"github.com/tutordesk/tutordesk/internal/service"
	"github.com/tutordesk/tutordesk/internal/types"
)

// RunRenewalBatch runs one renewal batch outside the cron endpoint.
// BATCH selects "initial" (default) or "reminders".
func RunRenewalBatch() error {
	params, cleanup, err := newServiceParams()
	if err != nil {
		return err
	}
	defer cleanup()

	renewal := service.NewRenewalService(params)
	ctx := context.WithValue(context.Background(), types.CtxUserEmail, "renewal-script")

	batch := os.Getenv("BATCH")
	run := renewal.SendInitialBatch
	switch batch {
	case "", "initial":
		batch = "initial"
	case "reminders":
		run = renewal.SendReminderBatch
	default:
		return fmt.Errorf("unknown batch %q (want initial or reminders)", batch)
	}

	report, err := run(ctx)
	if err != nil {
		return fmt.Errorf("renewal %s batch failed: %w", batch, err)
	}
	params.Logger.Infow("renewal batch finished",
		"batch", batch,
		"total_clients", report.TotalClients,
		"success_count", report.SuccessCount,
		"error_count", report.ErrorCount,
		"skipped", report.Skipped,
	)
	for _, e := range report.Errors {
		params.Logger.Warnw("renewal batch error", "client_id", e.ClientID, "error", e.Error)
	}
	return nil
}
