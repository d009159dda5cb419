package api

import (
	"net/http"
	"time"

	"github.com/Asclepia-Market/Procure/internal/store"
)

type AdminHandler struct {
	store store.Store
}

func NewAdminHandler(s store.Store) *AdminHandler {
	return &AdminHandler{store: s}
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type OverdueRFQ struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	IssuerOrg   string    `json:"issuer_org"`
	Deadline    time.Time `json:"deadline"`
	OverdueDays int       `json:"overdue_days"`
}

// Overdue lists RFQs still waiting on responses past their deadline, for the
// operations dashboard.
func (h *AdminHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	status := store.StatusAwaitingResponses
	rfqs, err := h.store.ListRFQs(r.Context(), store.RFQFilter{Status: &status})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	now := time.Now()
	overdue := []OverdueRFQ{}
	for _, rfq := range rfqs {
		if rfq.Deadline.IsZero() || rfq.Deadline.After(now) {
			continue
		}
		overdue = append(overdue, OverdueRFQ{
			ID:          rfq.ID.String(),
			Title:       rfq.Title,
			IssuerOrg:   rfq.IssuerOrg,
			Deadline:    rfq.Deadline,
			OverdueDays: int(now.Sub(rfq.Deadline).Hours() / 24),
		})
	}
	writeJSON(w, http.StatusOK, overdue)
}
