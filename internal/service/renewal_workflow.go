package service

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/tutordesk/tutordesk/internal/api/dto"
	"github.com/tutordesk/tutordesk/internal/domain/client"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/notification"
	"github.com/tutordesk/tutordesk/internal/types"
)

const (
	renewalPath = "/renouvellement"

	renewalInitialLockKey  = "renewal:initial"
	renewalReminderLockKey = "renewal:reminders"

	defaultBatchConcurrency = 4
	defaultReminderInterval = 7 * 24 * time.Hour
)

// RenewalService runs the yearly "do you continue next year" campaign
type RenewalService interface {
	// SendInitialBatch emails every individual client who has not answered this year
	SendInitialBatch(ctx context.Context) (*dto.BatchReport, error)
	// SendReminderBatch re-sends the same link to clients who have not answered for a week
	SendReminderBatch(ctx context.Context) (*dto.BatchReport, error)
	GetForm(ctx context.Context, token string) (*dto.RenewalFormResponse, error)
	Respond(ctx context.Context, req *dto.SubmitRenewalRequest) error
}

type renewalService struct {
	ServiceParams
	tokens     TokenService
	procedures ProcedureService
	audit      AuditService
}

func NewRenewalService(params ServiceParams) RenewalService {
	return &renewalService{
		ServiceParams: params,
		tokens:        NewTokenService(params),
		procedures:    NewProcedureService(params),
		audit:         NewAuditService(params),
	}
}

func (s *renewalService) SendInitialBatch(ctx context.Context) (*dto.BatchReport, error) {
	return s.runBatch(ctx, renewalInitialLockKey, func(ctx context.Context) ([]*client.Client, error) {
		return s.ClientRepo.ListRenewalCandidates(ctx, s.yearStart())
	}, s.sendInitial)
}

func (s *renewalService) SendReminderBatch(ctx context.Context) (*dto.BatchReport, error) {
	interval := s.Config.Renewal.ReminderInterval
	if interval <= 0 {
		interval = defaultReminderInterval
	}
	return s.runBatch(ctx, renewalReminderLockKey, func(ctx context.Context) ([]*client.Client, error) {
		now := s.now()
		return s.ClientRepo.ListRenewalReminders(ctx, now, now.Add(-interval))
	}, s.sendReminder)
}

// runBatch processes each selected client independently. Overlapping runs are
// skipped rather than queued.
func (s *renewalService) runBatch(
	ctx context.Context,
	lockKey string,
	selectClients func(ctx context.Context) ([]*client.Client, error),
	process func(ctx context.Context, c *client.Client) error,
) (*dto.BatchReport, error) {
	log := s.Logger.WithContext(ctx)
	report := &dto.BatchReport{}

	acquired, err := s.DB.TryRunExclusive(ctx, lockKey, func(ctx context.Context) error {
		clients, err := selectClients(ctx)
		if err != nil {
			return err
		}
		report.TotalClients = len(clients)

		var mu sync.Mutex
		p := pool.New().WithMaxGoroutines(s.batchConcurrency())
		for _, c := range clients {
			p.Go(func() {
				err := process(ctx, c)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					report.ErrorCount++
					report.Errors = append(report.Errors, &dto.BatchError{ClientID: c.ID, Error: err.Error()})
					log.Errorw("renewal batch item failed", "batch", lockKey, "client_id", c.ID, "error", err)
					return
				}
				report.SuccessCount++
			})
		}
		p.Wait()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !acquired {
		log.Warnw("renewal batch already running, skipping", "batch", lockKey)
		report.Skipped = true
		return report, nil
	}

	report.Success = report.ErrorCount == 0
	log.Infow("renewal batch finished",
		"batch", lockKey,
		"total", report.TotalClients,
		"success", report.SuccessCount,
		"errors", report.ErrorCount)
	return report, nil
}

func (s *renewalService) sendInitial(ctx context.Context, c *client.Client) error {
	now := s.now()
	token, err := types.NewAccessToken(s.tokens.TTL(types.TokenScopeRenewal), now)
	if err != nil {
		return err
	}
	if err := s.ClientRepo.StartRenewal(ctx, c.ID, token.Value, token.ExpiresAt); err != nil {
		return err
	}

	p, err := s.procedures.Create(ctx, c.ID, types.ProcedureTypeRenewalWish, c.Email())
	if err != nil {
		return err
	}

	result := s.Notifier.Notify(ctx, notification.TemplateRenewalInitial,
		notification.Recipient{Email: c.Email(), Name: c.Name()},
		map[string]any{
			"name":       c.Name(),
			"url":        s.publicURL(renewalPath, token.Value),
			"expires_at": formatDate(token.ExpiresAt),
		})
	s.procedures.AppendHistory(ctx, p.ID, types.HistoryLabelMailSent, deliveryNote(result))
	if result.Success {
		if err := s.ClientRepo.RecordRenewalEmail(ctx, c.ID, now); err != nil {
			return err
		}
	}

	s.audit.Record(ctx, types.AuditSourceRenewal, types.AuditEventRenewalSent, map[string]any{
		"procedure_id": p.ID,
		"client_id":    c.ID,
		"email_sent":   result.Success,
	})
	if !result.Success {
		return errNotDelivered(result)
	}
	return nil
}

func (s *renewalService) sendReminder(ctx context.Context, c *client.Client) error {
	now := s.now()
	result := s.Notifier.Notify(ctx, notification.TemplateRenewalReminder,
		notification.Recipient{Email: c.Email(), Name: c.Name()},
		map[string]any{
			"name":       c.Name(),
			"url":        s.publicURL(renewalPath, c.Renewal.Token),
			"expires_at": formatDate(*c.Renewal.TokenExpiresAt),
		})
	if !result.Success {
		return errNotDelivered(result)
	}
	if err := s.ClientRepo.RecordRenewalEmail(ctx, c.ID, now); err != nil {
		return err
	}

	payload := map[string]any{"client_id": c.ID}
	p, err := s.ProcedureRepo.GetLatestForClient(ctx, c.ID, types.ProcedureTypeRenewalWish,
		[]types.ProcedureStatus{types.ProcedureStatusDraft})
	switch {
	case err == nil:
		s.procedures.AppendHistory(ctx, p.ID, types.HistoryLabelReminderSent, "")
		payload["procedure_id"] = p.ID
	case ierr.IsNotFound(err):
		s.Logger.WithContext(ctx).Warnw("renewal reminder without an open procedure", "client_id", c.ID)
	default:
		s.Logger.WithContext(ctx).Errorw("failed to load renewal procedure", "client_id", c.ID, "error", err)
	}
	s.audit.Record(ctx, types.AuditSourceRenewal, types.AuditEventRenewalReminder, payload)
	return nil
}

func (s *renewalService) GetForm(ctx context.Context, token string) (*dto.RenewalFormResponse, error) {
	c, err := s.tokens.ValidateClientToken(ctx, token, types.TokenScopeRenewal)
	if err != nil {
		return nil, err
	}
	return &dto.RenewalFormResponse{
		Name:      c.Name(),
		Wish:      c.Renewal.Wish,
		Comment:   c.Renewal.Comment,
		ExpiresAt: c.Renewal.TokenExpiresAt,
	}, nil
}

func (s *renewalService) Respond(ctx context.Context, req *dto.SubmitRenewalRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	c, err := s.tokens.ValidateClientToken(ctx, req.Token, types.TokenScopeRenewal)
	if err != nil {
		return err
	}

	now := s.now()
	if err := s.ClientRepo.RecordRenewalResponse(ctx, c.ID, req.Token, *req.Wish, req.Comment, now); err != nil {
		return err
	}

	note := "Souhaite continuer"
	if !*req.Wish {
		note = "Ne souhaite pas continuer"
	}
	payload := map[string]any{"client_id": c.ID, "wish": *req.Wish, "actor": "client"}

	p, err := s.ProcedureRepo.GetLatestForClient(ctx, c.ID, types.ProcedureTypeRenewalWish,
		[]types.ProcedureStatus{types.ProcedureStatusDraft})
	switch {
	case err == nil:
		if err := s.procedures.Transition(ctx, p, types.ProcedureStatusSigned, types.HistoryLabelResponseReceived, note); err != nil {
			s.Logger.WithContext(ctx).Errorw("failed to record renewal response on procedure", "procedure_id", p.ID, "error", err)
		}
		payload["procedure_id"] = p.ID
	case ierr.IsNotFound(err):
		s.Logger.WithContext(ctx).Warnw("renewal response without an open procedure", "client_id", c.ID)
	default:
		s.Logger.WithContext(ctx).Errorw("failed to load renewal procedure", "client_id", c.ID, "error", err)
	}

	result := s.Notifier.Notify(ctx, notification.TemplateRenewalReview,
		notification.Recipient{Email: c.Email(), Name: c.Name()},
		map[string]any{
			"name":       c.Name(),
			"review_url": s.Config.Notification.ReviewURL,
		})
	if !result.Success {
		s.Logger.WithContext(ctx).Warnw("review email not delivered", "client_id", c.ID, "reason", result.Reason)
	}

	s.audit.Record(ctx, types.AuditSourceRenewal, types.AuditEventRenewalAnswered, payload)
	return nil
}

// yearStart is January 1st of the current year in the campaign timezone
func (s *renewalService) yearStart() time.Time {
	return types.StartOfYear(s.now(), types.MustLocation(s.Config.Renewal.Timezone))
}

func (s *renewalService) batchConcurrency() int {
	if n := s.Config.Renewal.BatchConcurrency; n > 0 {
		return n
	}
	return defaultBatchConcurrency
}

func errNotDelivered(r notification.Result) error {
	return ierr.NewErrorf("email not delivered: %s", r.Reason).
		WithHint("L'email n'a pas pu être envoyé").
		Mark(ierr.ErrHTTPClient)
}
