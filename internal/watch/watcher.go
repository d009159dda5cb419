// Package watch runs the background loops that advance RFQs without buyer
// interaction: the review scan that moves an RFQ to under_review once the
// first vendor responds, and the deadline sweep.
package watch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Asclepia-Market/Procure/internal/config"
	"github.com/Asclepia-Market/Procure/internal/lifecycle"
	"github.com/Asclepia-Market/Procure/internal/notify"
	"github.com/Asclepia-Market/Procure/internal/store"
)

type Watcher struct {
	store    store.Store
	notifier notify.Client
	cfg      *config.Config
	logger   *slog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func New(s store.Store, n notify.Client, cfg *config.Config, logger *slog.Logger) *Watcher {
	return &Watcher{
		store:    s,
		notifier: n,
		cfg:      cfg,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(2)
	go w.reviewLoop(ctx)
	go w.deadlineLoop(ctx)
}

func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
}

func (w *Watcher) reviewLoop(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.cfg.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processAwaiting(ctx)
		}
	}
}

func (w *Watcher) processAwaiting(ctx context.Context) {
	status := store.StatusAwaitingResponses
	rfqs, err := w.store.ListRFQs(ctx, store.RFQFilter{Status: &status})
	if err != nil {
		w.logger.Error("failed to list awaiting RFQs", "error", err)
		return
	}

	for _, rfq := range rfqs {
		if _, err := w.AdvanceIfReady(ctx, rfq.ID); err != nil {
			w.logger.Warn("failed to advance RFQ", "rfq_id", rfq.ID, "error", err)
		}
	}
}

// AdvanceIfReady moves an awaiting RFQ to under_review once any envelope has
// been responded to and a matching quotation exists. Returns true when the
// transition happened this call. Losing the compare-and-set race to another
// writer is not an error: the RFQ got where it was going.
func (w *Watcher) AdvanceIfReady(ctx context.Context, rfqID uuid.UUID) (bool, error) {
	envelopes, err := w.store.GetEnvelopes(ctx, rfqID)
	if err != nil {
		return false, err
	}
	responded := false
	for _, env := range envelopes {
		if env.Status == store.EnvelopeResponded {
			responded = true
			break
		}
	}

	quotations, err := w.store.ListQuotations(ctx, rfqID)
	if err != nil {
		return false, err
	}

	guards := lifecycle.Guards{
		EnvelopeCount:     len(envelopes),
		RespondedEnvelope: responded,
		QuotationCount:    len(quotations),
	}
	if err := lifecycle.Check(store.StatusAwaitingResponses, store.StatusUnderReview, guards); err != nil {
		// Guard not yet satisfied; try again next tick.
		return false, nil
	}

	err = w.store.TransitionRFQ(ctx, rfqID, store.StatusAwaitingResponses, store.StatusUnderReview)
	if store.IsConflict(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	w.logger.Info("RFQ moved to review", "rfq_id", rfqID, "quotations", len(quotations))
	if w.notifier != nil {
		_ = w.notifier.Publish(notify.SubjectRFQUnderReview(rfqID.String()), notify.LifecycleEvent{
			RFQID: rfqID.String(),
			From:  string(store.StatusAwaitingResponses),
			To:    string(store.StatusUnderReview),
			At:    time.Now(),
		})
	}
	return true, nil
}

func (w *Watcher) deadlineLoop(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.cfg.DeadlineSweep())
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweepDeadlines(ctx)
		}
	}
}

// sweepDeadlines announces passed deadlines so downstream consumers (buyer
// dashboards, reminder mails) can react. The lifecycle itself only advances
// when a response exists; an RFQ with zero bids stays awaiting until the
// buyer acts.
func (w *Watcher) sweepDeadlines(ctx context.Context) {
	status := store.StatusAwaitingResponses
	rfqs, err := w.store.ListRFQs(ctx, store.RFQFilter{Status: &status})
	if err != nil {
		w.logger.Error("failed to list RFQs for deadline sweep", "error", err)
		return
	}

	now := time.Now()
	for _, rfq := range rfqs {
		if rfq.Deadline.IsZero() || rfq.Deadline.After(now) {
			continue
		}
		w.logger.Warn("RFQ deadline passed", "rfq_id", rfq.ID, "deadline", rfq.Deadline)
		if w.notifier != nil {
			_ = w.notifier.Publish(notify.SubjectRFQDeadline(rfq.ID.String()), notify.LifecycleEvent{
				RFQID:  rfq.ID.String(),
				From:   string(rfq.Status),
				To:     string(rfq.Status),
				At:     now,
				Reason: "deadline passed",
			})
		}
	}
}
