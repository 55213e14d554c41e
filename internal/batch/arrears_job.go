package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"cobro-engine/internal/domain/client"
	"cobro-engine/internal/domain/credit"
	"cobro-engine/internal/domain/route"
	"cobro-engine/internal/event"
	"cobro-engine/internal/infrastructure/monitoring"
	"cobro-engine/internal/pkg/apperrors"
)

// CreditSource is the slice of the credit store the refresh job reads: open
// credits and the raw payment ledger, per route. The job never needs the full
// cash snapshot the route repository assembles for liquidations.
type CreditSource interface {
	GetOpenCreditsByRoute(ctx context.Context, routeID int64) ([]credit.Credit, error)
	GetPaymentsByRoute(ctx context.Context, routeID int64) ([]credit.Payment, error)
}

// RefreshArrearsJob re-derives every client's arrears flag from the current
// assessment of their active credits. The flag is a cached projection; the
// assessment is always authoritative.
type RefreshArrearsJob struct {
	routeRepo     route.Repository
	credits       CreditSource
	clientService client.Service
	publisher     event.EventPublisher
	logger        *slog.Logger
}

// NewRefreshArrearsJob builds the nightly refresh job. publisher may be nil
// when messaging is disabled.
func NewRefreshArrearsJob(
	routeRepo route.Repository,
	credits CreditSource,
	clientSvc client.Service,
	publisher event.EventPublisher,
	logger *slog.Logger,
) *RefreshArrearsJob {
	if routeRepo == nil || credits == nil || clientSvc == nil || logger == nil {
		panic("RefreshArrearsJob dependencies cannot be nil")
	}
	return &RefreshArrearsJob{
		routeRepo:     routeRepo,
		credits:       credits,
		clientService: clientSvc,
		publisher:     publisher,
		logger:        logger.With("job", "RefreshArrears"),
	}
}

// categoryMeansArrears reports whether a visit category flips the client's
// arrears flag on. Behind-schedule categories count; missing-N is about
// remaining installments and does not.
func categoryMeansArrears(cat credit.Category) bool {
	return cat == credit.CategoryInArrears || cat == credit.CategoryWrittenOff
}

func (j *RefreshArrearsJob) Run(ctx context.Context) error {
	startTime := time.Now()
	today := time.Now()
	j.logger.InfoContext(ctx, "Starting nightly client arrears refresh job.")

	routeIDs, err := j.routeRepo.ListRouteIDs(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to list active routes, aborting job.", slog.Any("error", err))
		monitoring.RecordArrearsRefresh("aborted")
		return fmt.Errorf("cannot run job, failed to list routes: %w", err)
	}
	j.logger.InfoContext(ctx, "Fetched active routes.", slog.Int("count", len(routeIDs)))

	var processedCount, inArrearsCount, flippedOn, flippedOff, errorCount int32

	for _, routeID := range routeIDs {
		if err := j.refreshRoute(ctx, routeID, today,
			&processedCount, &inArrearsCount, &flippedOn, &flippedOff, &errorCount); err != nil {
			j.logger.ErrorContext(ctx, "Failed to refresh route, continuing with remaining routes.",
				slog.Int64("routeID", routeID), slog.Any("error", err))
			atomic.AddInt32(&errorCount, 1)
		}
	}

	duration := time.Since(startTime)
	summaryLog := j.logger.With(
		slog.Duration("duration", duration),
		slog.Int("routes", len(routeIDs)),
		slog.Int("credits_processed", int(processedCount)),
		slog.Int("credits_in_arrears", int(inArrearsCount)),
		slog.Int("clients_flagged", int(flippedOn)),
		slog.Int("clients_cleared", int(flippedOff)),
		slog.Int("errors_encountered", int(errorCount)),
	)
	if errorCount > 0 {
		summaryLog.WarnContext(ctx, "Client arrears refresh job finished with errors.")
		monitoring.RecordArrearsRefresh("partial")
		return fmt.Errorf("job completed with %d errors", errorCount)
	}
	summaryLog.InfoContext(ctx, "Client arrears refresh job finished successfully.")
	monitoring.RecordArrearsRefresh("success")
	return nil
}

func (j *RefreshArrearsJob) refreshRoute(
	ctx context.Context,
	routeID int64,
	today time.Time,
	processedCount, inArrearsCount, flippedOn, flippedOff, errorCount *int32,
) error {
	clients, err := j.clientService.ListClientsByRoute(ctx, routeID)
	if err != nil {
		return fmt.Errorf("failed to list clients for route %d: %w", routeID, err)
	}
	credits, err := j.credits.GetOpenCreditsByRoute(ctx, routeID)
	if err != nil {
		return fmt.Errorf("failed to load open credits for route %d: %w", routeID, err)
	}
	payments, err := j.credits.GetPaymentsByRoute(ctx, routeID)
	if err != nil {
		return fmt.Errorf("failed to load payment ledger for route %d: %w", routeID, err)
	}

	clientsByID := make(map[int64]client.Client, len(clients))
	for _, cl := range clients {
		clientsByID[cl.ClientID] = cl
	}

	var wg sync.WaitGroup
	for _, c := range credits {
		if c.Status == credit.StatusCompleted {
			continue
		}
		wg.Add(1)
		go func(cr credit.Credit) {
			defer wg.Done()
			j.refreshCredit(ctx, routeID, cr, payments, clientsByID, today,
				processedCount, inArrearsCount, flippedOn, flippedOff, errorCount)
		}(c)
	}
	wg.Wait()
	return nil
}

func (j *RefreshArrearsJob) refreshCredit(
	ctx context.Context,
	routeID int64,
	c credit.Credit,
	payments []credit.Payment,
	clientsByID map[int64]client.Client,
	today time.Time,
	processedCount, inArrearsCount, flippedOn, flippedOff, errorCount *int32,
) {
	logCtx := j.logger.With(slog.Int64("routeID", routeID), slog.Int64("creditID", c.ID))

	assessment := credit.Assess(c, payments, today)
	monitoring.RecordAssessment(string(assessment.Category))
	for _, w := range assessment.Warnings {
		logCtx.WarnContext(ctx, "Data quality warning during arrears refresh.", slog.String("warning", w))
	}

	inArrears := categoryMeansArrears(assessment.Category)
	if inArrears {
		atomic.AddInt32(inArrearsCount, 1)
	}

	cl, ok := clientsByID[c.ClientID]
	if !ok {
		logCtx.WarnContext(ctx, "No client found linked to this credit (data inconsistency?)",
			slog.Int64("clientID", c.ClientID))
		return
	}
	logCtx = logCtx.With(slog.Int64("clientID", cl.ClientID))

	if cl.InArrears != inArrears {
		logCtx.InfoContext(ctx, "Updating client arrears flag.", slog.Bool("new_status", inArrears))
		updateErr := j.clientService.UpdateArrears(ctx, cl.ClientID, inArrears)
		if updateErr != nil {
			if errors.Is(updateErr, apperrors.ErrNotFound) {
				logCtx.WarnContext(ctx, "Client disappeared during refresh.", slog.Any("error", updateErr))
			} else {
				logCtx.ErrorContext(ctx, "Failed to update client arrears flag.", slog.Any("error", updateErr))
				atomic.AddInt32(errorCount, 1)
			}
			return
		}
		if inArrears {
			atomic.AddInt32(flippedOn, 1)
		} else {
			atomic.AddInt32(flippedOff, 1)
		}
		j.publishChange(ctx, logCtx, cl, assessment, inArrears)
	} else {
		logCtx.DebugContext(ctx, "Client arrears flag already correct.", slog.Bool("status", inArrears))
	}
	atomic.AddInt32(processedCount, 1)
}

func (j *RefreshArrearsJob) publishChange(ctx context.Context, logCtx *slog.Logger, cl client.Client, a credit.Assessment, inArrears bool) {
	if j.publisher == nil {
		return
	}
	evt := event.ClientArrearsChangedEvent{
		ClientID:  cl.ClientID,
		RouteID:   cl.RouteID,
		CreditID:  cl.CreditID,
		Category:  string(a.Category),
		NewStatus: inArrears,
		OldStatus: cl.InArrears,
		Timestamp: time.Now(),
	}
	if err := j.publisher.PublishClientArrearsChanged(ctx, evt); err != nil {
		logCtx.WarnContext(ctx, "Failed to publish arrears change event.", slog.Any("error", err))
	}
}
