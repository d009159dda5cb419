package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/Asclepia-Market/Procure/internal/store"
)

func seedAwaitingRFQ(ms *mockStore) (*store.RFQ, *store.Envelope) {
	rfq, vendors := seedOpenRFQ(ms)
	ms.rfqs[rfq.ID].Status = store.StatusAwaitingResponses

	env := &store.Envelope{
		RFQID: rfq.ID, VendorID: vendors[0].ID, VendorName: vendors[0].Name,
		ActiveLineItemID: 1, LineItemIDs: []int{1, 2}, Status: store.EnvelopeSent,
	}
	_ = ms.AddEnvelopes(context.Background(), rfq.ID, []*store.Envelope{env})
	return ms.rfqs[rfq.ID], env
}

func TestSubmitQuotation(t *testing.T) {
	router, ms, mn := setupTestRouter()
	rfq, env := seedAwaitingRFQ(ms)

	body := fmt.Sprintf(`{
		"vendor_id":"%s","vendor_name":"MedSupply Ltd","envelope_id":"%s",
		"total_price":2500,"delivery_days":7,"vendor_rating":4.8
	}`, env.VendorID, env.ID)

	w := doRequest(router, "POST", "/api/v1/rfqs/"+rfq.ID.String()+"/quotations", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var q store.Quotation
	_ = json.NewDecoder(w.Body).Decode(&q)
	if q.Status != store.QuotationPending {
		t.Errorf("expected pending, got %s", q.Status)
	}
	if q.ValidUntil.IsZero() {
		t.Error("expected valid_until to be set")
	}

	// The envelope flips to responded and the RFQ advances to review.
	if ms.envelopes[env.ID].Status != store.EnvelopeResponded {
		t.Errorf("expected responded envelope, got %s", ms.envelopes[env.ID].Status)
	}
	if ms.rfqs[rfq.ID].Status != store.StatusUnderReview {
		t.Errorf("expected under_review after first response, got %s", ms.rfqs[rfq.ID].Status)
	}
	if !mn.published("received") {
		t.Error("expected quotation received event")
	}
	if !mn.published("under_review") {
		t.Error("expected under_review event")
	}
}

func TestSubmitQuotationWithoutEnvelopeID(t *testing.T) {
	router, ms, _ := setupTestRouter()
	rfq, env := seedAwaitingRFQ(ms)

	body := fmt.Sprintf(`{"vendor_id":"%s","total_price":1800,"delivery_days":5,"vendor_rating":4.0}`, env.VendorID)
	w := doRequest(router, "POST", "/api/v1/rfqs/"+rfq.ID.String()+"/quotations", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	// Matched through the vendor's envelopes instead.
	if ms.envelopes[env.ID].Status != store.EnvelopeResponded {
		t.Errorf("expected responded envelope, got %s", ms.envelopes[env.ID].Status)
	}
}

func TestSubmitQuotationValidation(t *testing.T) {
	router, ms, _ := setupTestRouter()
	rfq, env := seedAwaitingRFQ(ms)

	cases := []struct {
		name string
		body string
	}{
		{"zero price", fmt.Sprintf(`{"vendor_id":"%s","total_price":0,"delivery_days":7}`, env.VendorID)},
		{"negative delivery", fmt.Sprintf(`{"vendor_id":"%s","total_price":100,"delivery_days":-1}`, env.VendorID)},
		{"rating above five", fmt.Sprintf(`{"vendor_id":"%s","total_price":100,"delivery_days":7,"vendor_rating":5.5}`, env.VendorID)},
		{"bad vendor id", `{"vendor_id":"not-a-uuid","total_price":100,"delivery_days":7}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(router, "POST", "/api/v1/rfqs/"+rfq.ID.String()+"/quotations", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
		})
	}
}

func TestSubmitQuotationOnClosedRFQ(t *testing.T) {
	router, ms, _ := setupTestRouter()
	rfq, env := seedAwaitingRFQ(ms)
	ms.rfqs[rfq.ID].Status = store.StatusClosed

	body := fmt.Sprintf(`{"vendor_id":"%s","total_price":100,"delivery_days":7}`, env.VendorID)
	w := doRequest(router, "POST", "/api/v1/rfqs/"+rfq.ID.String()+"/quotations", body)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 on closed RFQ, got %d", w.Code)
	}
}

func TestGetQuotation(t *testing.T) {
	router, ms, _ := setupTestRouter()
	rfq, env := seedAwaitingRFQ(ms)

	q := &store.Quotation{
		RFQID: rfq.ID, VendorID: env.VendorID, TotalPrice: 900,
		DeliveryDays: 3, Status: store.QuotationPending, VendorRating: 4.1,
	}
	_ = ms.CreateQuotation(context.Background(), q)

	w := doRequest(router, "GET", "/api/v1/quotations/"+q.ID.String(), "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var got store.Quotation
	_ = json.NewDecoder(w.Body).Decode(&got)
	if got.TotalPrice != 900 {
		t.Errorf("expected total_price 900, got %v", got.TotalPrice)
	}
}

func TestGetQuotationNotFound(t *testing.T) {
	router, _, _ := setupTestRouter()

	w := doRequest(router, "GET", "/api/v1/quotations/"+uuid.NewString(), "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
