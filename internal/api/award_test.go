package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Asclepia-Market/Procure/internal/store"
)

func seedReviewRFQ(ms *mockStore) (*store.RFQ, []*store.Quotation) {
	rfq, vendors := seedOpenRFQ(ms)
	ms.rfqs[rfq.ID].Status = store.StatusUnderReview

	quotations := []*store.Quotation{
		{RFQID: rfq.ID, VendorID: vendors[0].ID, VendorName: vendors[0].Name, TotalPrice: 2500, DeliveryDays: 7, Status: store.QuotationPending, VendorRating: 4.8},
		{RFQID: rfq.ID, VendorID: vendors[1].ID, VendorName: vendors[1].Name, TotalPrice: 2800, DeliveryDays: 5, Status: store.QuotationPending, VendorRating: 4.2},
	}
	for _, q := range quotations {
		_ = ms.CreateQuotation(context.Background(), q)
	}
	return ms.rfqs[rfq.ID], quotations
}

func TestAwardQuotation(t *testing.T) {
	router, ms, mn := setupTestRouter()
	rfq, quotations := seedReviewRFQ(ms)

	body := fmt.Sprintf(`{"quotation_id":"%s","purchase_order_ref":"PO-2026-0042"}`, quotations[0].ID)
	w := doRequest(router, "POST", "/api/v1/rfqs/"+rfq.ID.String()+"/award", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var award store.Award
	require.NoError(t, json.NewDecoder(w.Body).Decode(&award))
	assert.Equal(t, quotations[0].ID, award.QuotationID)
	assert.Equal(t, "PO-2026-0042", award.PurchaseOrderRef)
	assert.Equal(t, 1, award.RejectedCount)

	// Winner awarded, loser rejected, RFQ awarded — all in one transaction.
	assert.Equal(t, store.QuotationAwarded, ms.quotations[quotations[0].ID].Status)
	assert.Equal(t, store.QuotationRejected, ms.quotations[quotations[1].ID].Status)
	assert.Equal(t, store.StatusAwarded, ms.rfqs[rfq.ID].Status)
	require.NotNil(t, ms.rfqs[rfq.ID].AwardedQuotationID)
	assert.Equal(t, quotations[0].ID, *ms.rfqs[rfq.ID].AwardedQuotationID)

	assert.True(t, mn.published("granted"), "expected award event")
	assert.True(t, mn.published("rejected"), "expected rejection event for the loser")
}

func TestAwardGeneratesPORef(t *testing.T) {
	router, ms, _ := setupTestRouter()
	rfq, quotations := seedReviewRFQ(ms)

	body := fmt.Sprintf(`{"quotation_id":"%s"}`, quotations[0].ID)
	w := doRequest(router, "POST", "/api/v1/rfqs/"+rfq.ID.String()+"/award", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var award store.Award
	require.NoError(t, json.NewDecoder(w.Body).Decode(&award))
	assert.Contains(t, award.PurchaseOrderRef, "PO-")
}

func TestAwardTwiceConflicts(t *testing.T) {
	router, ms, _ := setupTestRouter()
	rfq, quotations := seedReviewRFQ(ms)

	body := fmt.Sprintf(`{"quotation_id":"%s"}`, quotations[0].ID)
	first := doRequest(router, "POST", "/api/v1/rfqs/"+rfq.ID.String()+"/award", body)
	require.Equal(t, http.StatusOK, first.Code)

	body = fmt.Sprintf(`{"quotation_id":"%s"}`, quotations[1].ID)
	second := doRequest(router, "POST", "/api/v1/rfqs/"+rfq.ID.String()+"/award", body)
	assert.Equal(t, http.StatusConflict, second.Code)

	// The losing quotation stays rejected.
	assert.Equal(t, store.QuotationRejected, ms.quotations[quotations[1].ID].Status)
}

func TestAwardOutsideReview(t *testing.T) {
	router, ms, _ := setupTestRouter()
	rfq, quotations := seedReviewRFQ(ms)
	ms.rfqs[rfq.ID].Status = store.StatusAwaitingResponses

	body := fmt.Sprintf(`{"quotation_id":"%s"}`, quotations[0].ID)
	w := doRequest(router, "POST", "/api/v1/rfqs/"+rfq.ID.String()+"/award", body)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAwardUnknownQuotation(t *testing.T) {
	router, ms, _ := setupTestRouter()
	rfq, _ := seedReviewRFQ(ms)

	w := doRequest(router, "POST", "/api/v1/rfqs/"+rfq.ID.String()+"/award",
		`{"quotation_id":"00000000-0000-0000-0000-000000000001"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
