package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AwardQuotation executes the award as one transaction. The RFQ row is locked
// for the duration so two concurrent award attempts cannot both succeed: the
// second sees a status other than under_review and fails with ConflictError.
func (s *PostgresStore) AwardQuotation(ctx context.Context, rfqID, quotationID uuid.UUID, poRef string) (*Award, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin award tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var rfqStatus RFQStatus
	err = tx.QueryRow(ctx, `
		SELECT status FROM rfqs WHERE rfq_id = $1 FOR UPDATE`, rfqID,
	).Scan(&rfqStatus)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if rfqStatus == StatusAwarded || rfqStatus == StatusClosed {
		return nil, &ConflictError{RFQID: rfqID, Reason: "RFQ already awarded"}
	}
	if rfqStatus != StatusUnderReview {
		return nil, &ConflictError{RFQID: rfqID, Reason: fmt.Sprintf("RFQ is %s, award requires under_review", rfqStatus)}
	}

	award := &Award{RFQID: rfqID, QuotationID: quotationID, PurchaseOrderRef: poRef}
	var qStatus QuotationStatus
	err = tx.QueryRow(ctx, `
		SELECT vendor_id, vendor_name, status FROM quotations
		WHERE quotation_id = $1 AND rfq_id = $2 FOR UPDATE`,
		quotationID, rfqID,
	).Scan(&award.VendorID, &award.VendorName, &qStatus)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if qStatus != QuotationPending {
		return nil, &ConflictError{RFQID: rfqID, Reason: fmt.Sprintf("quotation is %s, award requires pending", qStatus)}
	}

	if err := tx.QueryRow(ctx, `
		UPDATE quotations SET status = 'awarded'
		WHERE quotation_id = $1
		RETURNING submitted_at`, quotationID,
	).Scan(&award.AwardedAt); err != nil {
		return nil, err
	}

	// Reject cascade: every other still-pending quotation loses.
	tag, err := tx.Exec(ctx, `
		UPDATE quotations SET status = 'rejected'
		WHERE rfq_id = $1 AND quotation_id <> $2 AND status = 'pending'`,
		rfqID, quotationID)
	if err != nil {
		return nil, err
	}
	award.RejectedCount = int(tag.RowsAffected())

	if err := tx.QueryRow(ctx, `
		UPDATE rfqs SET status = 'awarded', awarded_quotation_id = $2,
			purchase_order_ref = $3, updated_at = now()
		WHERE rfq_id = $1
		RETURNING updated_at`, rfqID, quotationID, poRef,
	).Scan(&award.AwardedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit award tx: %w", err)
	}
	return award, nil
}
