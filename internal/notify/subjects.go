package notify

import "time"

const (
	SubjectRFQCreated = "procure.rfq.created"

	StreamName   = "PROCURE_EVENTS"
	StreamMaxAge = 30 * 24 * time.Hour
)

func SubjectRFQPublished(rfqID string) string   { return "procure.rfq." + rfqID + ".published" }
func SubjectRFQAwaiting(rfqID string) string    { return "procure.rfq." + rfqID + ".awaiting" }
func SubjectRFQUnderReview(rfqID string) string { return "procure.rfq." + rfqID + ".under_review" }
func SubjectRFQClosed(rfqID string) string      { return "procure.rfq." + rfqID + ".closed" }
func SubjectRFQRejectedAll(rfqID string) string { return "procure.rfq." + rfqID + ".rejected_all" }
func SubjectRFQDeadline(rfqID string) string    { return "procure.rfq." + rfqID + ".deadline" }

func SubjectEnvelopesSent(rfqID string) string { return "procure.rfq." + rfqID + ".envelopes" }

func SubjectQuotationReceived(rfqID string) string { return "procure.quotation." + rfqID + ".received" }

func SubjectAwarded(rfqID string) string  { return "procure.award." + rfqID + ".granted" }
func SubjectRejected(rfqID string) string { return "procure.award." + rfqID + ".rejected" }
