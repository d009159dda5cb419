package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Asclepia-Market/Procure/internal/allocator"
	"github.com/Asclepia-Market/Procure/internal/config"
	"github.com/Asclepia-Market/Procure/internal/parser"
	"github.com/Asclepia-Market/Procure/internal/scoring"
	"github.com/Asclepia-Market/Procure/internal/store"
	"github.com/Asclepia-Market/Procure/internal/watch"
)

// mockStore is an in-memory Store with the same merge and award semantics
// as the postgres implementation.
type mockStore struct {
	mu         sync.Mutex
	rfqs       map[uuid.UUID]*store.RFQ
	items      map[uuid.UUID][]*store.LineItem
	candidates []*store.VendorCandidate
	envelopes  map[uuid.UUID]*store.Envelope
	quotations map[uuid.UUID]*store.Quotation
}

func newMockStore() *mockStore {
	return &mockStore{
		rfqs:       make(map[uuid.UUID]*store.RFQ),
		items:      make(map[uuid.UUID][]*store.LineItem),
		envelopes:  make(map[uuid.UUID]*store.Envelope),
		quotations: make(map[uuid.UUID]*store.Quotation),
	}
}

func (m *mockStore) CreateRFQ(_ context.Context, rfq *store.RFQ) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rfq.ID = uuid.New()
	rfq.CreatedAt = time.Now()
	rfq.UpdatedAt = time.Now()
	m.rfqs[rfq.ID] = rfq
	return nil
}

func (m *mockStore) GetRFQ(_ context.Context, id uuid.UUID) (*store.RFQ, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rfq, ok := m.rfqs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *rfq
	return &copied, nil
}

func (m *mockStore) ListRFQs(_ context.Context, filter store.RFQFilter) ([]*store.RFQ, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.RFQ
	for _, rfq := range m.rfqs {
		if filter.Status != nil && rfq.Status != *filter.Status {
			continue
		}
		if filter.Issuer != "" && rfq.IssuerOrg != filter.Issuer {
			continue
		}
		copied := *rfq
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockStore) TransitionRFQ(_ context.Context, id uuid.UUID, from, to store.RFQStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rfq, ok := m.rfqs[id]
	if !ok {
		return store.ErrNotFound
	}
	if rfq.Status != from {
		return &store.ConflictError{RFQID: id, Reason: "RFQ status changed concurrently"}
	}
	rfq.Status = to
	rfq.UpdatedAt = time.Now()
	return nil
}

func (m *mockStore) CreateLineItem(_ context.Context, item *store.LineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item.CreatedAt = time.Now()
	m.items[item.RFQID] = append(m.items[item.RFQID], item)
	return nil
}

func (m *mockStore) GetLineItems(_ context.Context, rfqID uuid.UUID) ([]*store.LineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*store.LineItem(nil), m.items[rfqID]...), nil
}

func (m *mockStore) ListCandidates(_ context.Context, _ uuid.UUID, filter store.CandidateFilter) ([]*store.VendorCandidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.VendorCandidate
	for _, c := range m.candidates {
		if filter.Search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.Location != "" && c.Location != filter.Location {
			continue
		}
		if filter.Certification != "" && !contains(c.Certifications, filter.Certification) {
			continue
		}
		out = append(out, c)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func (m *mockStore) AddEnvelopes(_ context.Context, rfqID uuid.UUID, envelopes []*store.Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, env := range envelopes {
		merged := false
		for _, existing := range m.envelopes {
			if existing.RFQID == rfqID && existing.VendorID == env.VendorID &&
				existing.ActiveLineItemID == env.ActiveLineItemID {
				for _, id := range env.LineItemIDs {
					if !containsInt(existing.LineItemIDs, id) {
						existing.LineItemIDs = append(existing.LineItemIDs, id)
					}
				}
				existing.UpdatedAt = time.Now()
				env.ID = existing.ID
				merged = true
				break
			}
		}
		if !merged {
			env.ID = uuid.New()
			env.RFQID = rfqID
			env.SentAt = time.Now()
			env.UpdatedAt = time.Now()
			m.envelopes[env.ID] = env
		}
	}
	return nil
}

func containsInt(values []int, want int) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func (m *mockStore) GetEnvelopes(_ context.Context, rfqID uuid.UUID) ([]*store.Envelope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.Envelope
	for _, env := range m.envelopes {
		if env.RFQID == rfqID {
			out = append(out, env)
		}
	}
	return out, nil
}

func (m *mockStore) GetVendorEnvelopes(_ context.Context, rfqID, vendorID uuid.UUID) ([]*store.Envelope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.Envelope
	for _, env := range m.envelopes {
		if env.RFQID == rfqID && env.VendorID == vendorID {
			out = append(out, env)
		}
	}
	return out, nil
}

var envelopeOrder = map[store.EnvelopeStatus]int{
	store.EnvelopeSent:      0,
	store.EnvelopeViewed:    1,
	store.EnvelopeResponded: 2,
}

func (m *mockStore) UpdateEnvelopeStatus(_ context.Context, envelopeID uuid.UUID, status store.EnvelopeStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	env, ok := m.envelopes[envelopeID]
	if !ok {
		return store.ErrNotFound
	}
	if envelopeOrder[status] < envelopeOrder[env.Status] {
		return &store.ConflictError{RFQID: env.RFQID, Reason: "envelope status cannot move backwards"}
	}
	env.Status = status
	env.UpdatedAt = time.Now()
	return nil
}

func (m *mockStore) CreateQuotation(_ context.Context, q *store.Quotation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q.ID = uuid.New()
	q.SubmittedAt = time.Now()
	m.quotations[q.ID] = q
	return nil
}

func (m *mockStore) GetQuotation(_ context.Context, id uuid.UUID) (*store.Quotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *q
	return &copied, nil
}

func (m *mockStore) ListQuotations(_ context.Context, rfqID uuid.UUID) ([]*store.Quotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.Quotation
	for _, q := range m.quotations {
		if q.RFQID == rfqID {
			copied := *q
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockStore) RejectPendingQuotations(_ context.Context, rfqID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, q := range m.quotations {
		if q.RFQID == rfqID && q.Status == store.QuotationPending {
			q.Status = store.QuotationRejected
			count++
		}
	}
	return count, nil
}

func (m *mockStore) AwardQuotation(_ context.Context, rfqID, quotationID uuid.UUID, poRef string) (*store.Award, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rfq, ok := m.rfqs[rfqID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if rfq.Status == store.StatusAwarded || rfq.Status == store.StatusClosed {
		return nil, &store.ConflictError{RFQID: rfqID, Reason: "RFQ already awarded"}
	}
	if rfq.Status != store.StatusUnderReview {
		return nil, &store.ConflictError{RFQID: rfqID, Reason: "RFQ is not under review"}
	}

	q, ok := m.quotations[quotationID]
	if !ok || q.RFQID != rfqID {
		return nil, store.ErrNotFound
	}
	if q.Status != store.QuotationPending {
		return nil, &store.ConflictError{RFQID: rfqID, Reason: "quotation is not pending"}
	}

	q.Status = store.QuotationAwarded
	rejected := 0
	for _, other := range m.quotations {
		if other.RFQID == rfqID && other.ID != quotationID && other.Status == store.QuotationPending {
			other.Status = store.QuotationRejected
			rejected++
		}
	}

	rfq.Status = store.StatusAwarded
	rfq.AwardedQuotationID = &q.ID
	rfq.PurchaseOrderRef = poRef
	rfq.UpdatedAt = time.Now()

	return &store.Award{
		RFQID:            rfqID,
		QuotationID:      quotationID,
		VendorID:         q.VendorID,
		VendorName:       q.VendorName,
		PurchaseOrderRef: poRef,
		RejectedCount:    rejected,
		AwardedAt:        time.Now(),
	}, nil
}

func (m *mockStore) GetStats(_ context.Context) (*store.RFQStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &store.RFQStats{TotalQuotations: len(m.quotations)}
	for _, rfq := range m.rfqs {
		switch rfq.Status {
		case store.StatusDraft:
			stats.TotalDraft++
		case store.StatusPublished, store.StatusAwaitingResponses:
			stats.TotalOpen++
		case store.StatusUnderReview:
			stats.TotalUnderReview++
		case store.StatusAwarded:
			stats.TotalAwarded++
		case store.StatusClosed, store.StatusRejectedAll:
			stats.TotalClosed++
		}
	}
	return stats, nil
}

func (m *mockStore) Close() error { return nil }

type mockNotifier struct {
	mu       sync.Mutex
	subjects []string
}

func (m *mockNotifier) Publish(subject string, _ interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects = append(m.subjects, subject)
	return nil
}

func (m *mockNotifier) Subscribe(string, func(string, []byte)) error { return nil }
func (m *mockNotifier) Close()                                      {}

func (m *mockNotifier) published(fragment string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subjects {
		if strings.Contains(s, fragment) {
			return true
		}
	}
	return false
}

type mockParser struct {
	result *parser.ParseResult
	err    error
}

func (m *mockParser) Parse(context.Context, string) (*parser.ParseResult, error) {
	return m.result, m.err
}

func setupTestRouter() (http.Handler, *mockStore, *mockNotifier) {
	return setupTestRouterWithParser(&mockParser{})
}

func setupTestRouterWithParser(p parser.Client) (http.Handler, *mockStore, *mockNotifier) {
	ms := newMockStore()
	mn := &mockNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Default()
	cfg.Server.AdminToken = "test-token"

	alloc := allocator.New(ms, logger)
	scorer := scoring.NewScorer(logger)
	watcher := watch.New(ms, mn, cfg, logger)
	router := NewRouter(ms, mn, p, alloc, scorer, watcher, cfg, logger)
	return router, ms, mn
}
