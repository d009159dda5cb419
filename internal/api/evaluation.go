package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Asclepia-Market/Procure/internal/scoring"
	"github.com/Asclepia-Market/Procure/internal/store"
)

type EvaluationHandler struct {
	store  store.Store
	scorer *scoring.Scorer
}

func NewEvaluationHandler(s store.Store, sc *scoring.Scorer) *EvaluationHandler {
	return &EvaluationHandler{store: s, scorer: sc}
}

type EvaluationEntry struct {
	scoring.ScoreResult
	QualityLabel string `json:"quality_label"`
}

type EvaluationResponse struct {
	RFQID       uuid.UUID         `json:"rfq_id"`
	Mode        scoring.Mode      `json:"mode"`
	Results     []EvaluationEntry `json:"results"`
	Shown       int               `json:"shown"`
	Total       int               `json:"total"`
	LowestPrice float64           `json:"lowest_price"`
}

// Evaluate scores the RFQ's quotations under the requested mode and returns
// the ranked disclosure.
func (h *EvaluationHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	rfqID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid RFQ id"})
		return
	}

	rfq, err := h.store.GetRFQ(r.Context(), rfqID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && rfq == nil) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "RFQ not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	mode, err := scoring.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	quotations, err := h.store.ListQuotations(r.Context(), rfqID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	ranked, err := h.scorer.Evaluate(quotations, mode)
	if errors.Is(err, scoring.ErrEmptyCandidateSet) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	disclosure := scoring.Disclose(mode, ranked)
	entries := make([]EvaluationEntry, 0, len(disclosure.Results))
	for _, res := range disclosure.Results {
		entries = append(entries, EvaluationEntry{
			ScoreResult:  res,
			QualityLabel: scoring.QualityLabel(res.DisplayScore),
		})
	}

	writeJSON(w, http.StatusOK, EvaluationResponse{
		RFQID:       rfqID,
		Mode:        disclosure.Mode,
		Results:     entries,
		Shown:       disclosure.Shown,
		Total:       disclosure.Total,
		LowestPrice: disclosure.LowestPrice,
	})
}
