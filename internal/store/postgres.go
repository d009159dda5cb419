package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const rfqColumns = `rfq_id, title, issuer_org, currency, deadline, status,
	awarded_quotation_id, purchase_order_ref, created_at, updated_at`

func (s *PostgresStore) CreateRFQ(ctx context.Context, rfq *RFQ) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO rfqs (title, issuer_org, currency, deadline, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING rfq_id, created_at, updated_at`,
		rfq.Title, rfq.IssuerOrg, rfq.Currency, rfq.Deadline, rfq.Status,
	).Scan(&rfq.ID, &rfq.CreatedAt, &rfq.UpdatedAt)
}

func (s *PostgresStore) GetRFQ(ctx context.Context, id uuid.UUID) (*RFQ, error) {
	r := &RFQ{}
	err := s.pool.QueryRow(ctx, `
		SELECT `+rfqColumns+` FROM rfqs WHERE rfq_id = $1`, id,
	).Scan(
		&r.ID, &r.Title, &r.IssuerOrg, &r.Currency, &r.Deadline, &r.Status,
		&r.AwardedQuotationID, &r.PurchaseOrderRef, &r.CreatedAt, &r.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *PostgresStore) ListRFQs(ctx context.Context, filter RFQFilter) ([]*RFQ, error) {
	query := `SELECT ` + rfqColumns + ` FROM rfqs WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.Status != nil {
		n++
		query += fmt.Sprintf(" AND status = $%d", n)
		args = append(args, string(*filter.Status))
	}
	if filter.Issuer != "" {
		n++
		query += fmt.Sprintf(" AND issuer_org = $%d", n)
		args = append(args, filter.Issuer)
	}

	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	n++
	query += fmt.Sprintf(" LIMIT $%d", n)
	args = append(args, limit)

	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*RFQ
	for rows.Next() {
		r := &RFQ{}
		if err := rows.Scan(
			&r.ID, &r.Title, &r.IssuerOrg, &r.Currency, &r.Deadline, &r.Status,
			&r.AwardedQuotationID, &r.PurchaseOrderRef, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) TransitionRFQ(ctx context.Context, id uuid.UUID, from, to RFQStatus) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE rfqs SET status = $3, updated_at = now()
		WHERE rfq_id = $1 AND status = $2`, id, from, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &ConflictError{RFQID: id, Reason: fmt.Sprintf("not in status %s", from)}
	}
	return nil
}

func (s *PostgresStore) CreateLineItem(ctx context.Context, item *LineItem) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO rfq_line_items (rfq_id, line_item_id, inn_name, brand_name,
			dosage, form, unit_of_issue, quantity, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`,
		item.RFQID, item.LineItemID, item.INNName, item.BrandName,
		item.Dosage, item.Form, item.UnitOfIssue, item.Quantity, item.Category,
	).Scan(&item.CreatedAt)
}

func (s *PostgresStore) GetLineItems(ctx context.Context, rfqID uuid.UUID) ([]*LineItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT rfq_id, line_item_id, inn_name, brand_name, dosage, form,
			unit_of_issue, quantity, category, created_at
		FROM rfq_line_items WHERE rfq_id = $1
		ORDER BY line_item_id ASC`, rfqID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*LineItem
	for rows.Next() {
		item := &LineItem{}
		if err := rows.Scan(
			&item.RFQID, &item.LineItemID, &item.INNName, &item.BrandName,
			&item.Dosage, &item.Form, &item.UnitOfIssue, &item.Quantity,
			&item.Category, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListCandidates(ctx context.Context, rfqID uuid.UUID, filter CandidateFilter) ([]*VendorCandidate, error) {
	query := `
		SELECT v.vendor_id, v.name, v.rating, v.location, v.certifications,
			v.past_orders, v.response_rate,
			COALESCE(array_agg(vc.line_item_id) FILTER (WHERE vc.line_item_id IS NOT NULL), '{}')
		FROM vendors v
		LEFT JOIN vendor_capabilities vc ON vc.vendor_id = v.vendor_id AND vc.rfq_id = $1
		WHERE 1=1`
	args := []interface{}{rfqID}
	n := 1

	if filter.Search != "" {
		n++
		query += fmt.Sprintf(" AND v.name ILIKE $%d", n)
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Location != "" {
		n++
		query += fmt.Sprintf(" AND v.location = $%d", n)
		args = append(args, filter.Location)
	}
	if filter.Certification != "" {
		n++
		query += fmt.Sprintf(" AND $%d = ANY(v.certifications)", n)
		args = append(args, filter.Certification)
	}

	query += " GROUP BY v.vendor_id ORDER BY v.rating DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	n++
	query += fmt.Sprintf(" LIMIT $%d", n)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*VendorCandidate
	for rows.Next() {
		c := &VendorCandidate{}
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Rating, &c.Location, &c.Certifications,
			&c.PastOrders, &c.ResponseRate, &c.CanFulfill,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const envelopeColumns = `envelope_id, rfq_id, vendor_id, vendor_name,
	active_line_item_id, line_item_ids, procurement_mode, status, sent_at, updated_at`

func (s *PostgresStore) AddEnvelopes(ctx context.Context, rfqID uuid.UUID, envelopes []*Envelope) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, env := range envelopes {
		// Merge into an existing envelope for the same (vendor, requirement) run.
		var existingID uuid.UUID
		var existing []int
		err := tx.QueryRow(ctx, `
			SELECT envelope_id, line_item_ids FROM rfq_envelopes
			WHERE rfq_id = $1 AND vendor_id = $2 AND active_line_item_id = $3
			FOR UPDATE`,
			rfqID, env.VendorID, env.ActiveLineItemID,
		).Scan(&existingID, &existing)
		switch err {
		case nil:
			merged := mergeLineItemIDs(existing, env.LineItemIDs)
			if _, err := tx.Exec(ctx, `
				UPDATE rfq_envelopes SET line_item_ids = $2, updated_at = now()
				WHERE envelope_id = $1`, existingID, merged); err != nil {
				return err
			}
			env.ID = existingID
			env.LineItemIDs = merged
		case pgx.ErrNoRows:
			if err := tx.QueryRow(ctx, `
				INSERT INTO rfq_envelopes (rfq_id, vendor_id, vendor_name,
					active_line_item_id, line_item_ids, procurement_mode, status)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING envelope_id, sent_at, updated_at`,
				rfqID, env.VendorID, env.VendorName, env.ActiveLineItemID,
				env.LineItemIDs, env.ProcurementMode, env.Status,
			).Scan(&env.ID, &env.SentAt, &env.UpdatedAt); err != nil {
				return err
			}
		default:
			return err
		}
	}

	return tx.Commit(ctx)
}

// mergeLineItemIDs appends ids preserving order, without duplicates.
func mergeLineItemIDs(existing, extra []int) []int {
	seen := make(map[int]bool, len(existing))
	merged := make([]int, 0, len(existing)+len(extra))
	for _, id := range existing {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	for _, id := range extra {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	return merged
}

func (s *PostgresStore) GetEnvelopes(ctx context.Context, rfqID uuid.UUID) ([]*Envelope, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+envelopeColumns+` FROM rfq_envelopes
		WHERE rfq_id = $1 ORDER BY sent_at ASC`, rfqID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEnvelopes(rows)
}

func (s *PostgresStore) GetVendorEnvelopes(ctx context.Context, rfqID, vendorID uuid.UUID) ([]*Envelope, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+envelopeColumns+` FROM rfq_envelopes
		WHERE rfq_id = $1 AND vendor_id = $2 ORDER BY sent_at ASC`, rfqID, vendorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEnvelopes(rows)
}

func scanEnvelopes(rows pgx.Rows) ([]*Envelope, error) {
	var out []*Envelope
	for rows.Next() {
		env := &Envelope{}
		if err := rows.Scan(
			&env.ID, &env.RFQID, &env.VendorID, &env.VendorName,
			&env.ActiveLineItemID, &env.LineItemIDs, &env.ProcurementMode,
			&env.Status, &env.SentAt, &env.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, env)
	}
	return out, rows.Err()
}

// UpdateEnvelopeStatus advances an envelope along sent -> viewed ->
// responded. Writes that would move the status backwards are rejected.
func (s *PostgresStore) UpdateEnvelopeStatus(ctx context.Context, envelopeID uuid.UUID, status EnvelopeStatus) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE rfq_envelopes SET status = $2, updated_at = now()
		WHERE envelope_id = $1
		  AND array_position(ARRAY['sent','viewed','responded'], status::text) <=
		      array_position(ARRAY['sent','viewed','responded'], $2::text)`, envelopeID, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var rfqID uuid.UUID
		if err := s.pool.QueryRow(ctx, `
			SELECT rfq_id FROM rfq_envelopes WHERE envelope_id = $1`, envelopeID).Scan(&rfqID); err != nil {
			return ErrNotFound
		}
		return &ConflictError{RFQID: rfqID, Reason: "envelope status cannot move backwards"}
	}
	return nil
}

const quotationColumns = `quotation_id, rfq_id, vendor_id, vendor_name,
	total_price, delivery_days, notes, status, vendor_rating, valid_until, submitted_at`

func (s *PostgresStore) CreateQuotation(ctx context.Context, q *Quotation) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO quotations (rfq_id, vendor_id, vendor_name, total_price,
			delivery_days, notes, status, vendor_rating, valid_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING quotation_id, submitted_at`,
		q.RFQID, q.VendorID, q.VendorName, q.TotalPrice,
		q.DeliveryDays, q.Notes, q.Status, q.VendorRating, q.ValidUntil,
	).Scan(&q.ID, &q.SubmittedAt)
}

func (s *PostgresStore) GetQuotation(ctx context.Context, id uuid.UUID) (*Quotation, error) {
	q := &Quotation{}
	err := s.pool.QueryRow(ctx, `
		SELECT `+quotationColumns+` FROM quotations WHERE quotation_id = $1`, id,
	).Scan(
		&q.ID, &q.RFQID, &q.VendorID, &q.VendorName,
		&q.TotalPrice, &q.DeliveryDays, &q.Notes, &q.Status,
		&q.VendorRating, &q.ValidUntil, &q.SubmittedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (s *PostgresStore) ListQuotations(ctx context.Context, rfqID uuid.UUID) ([]*Quotation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+quotationColumns+` FROM quotations
		WHERE rfq_id = $1 ORDER BY submitted_at ASC`, rfqID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Quotation
	for rows.Next() {
		q := &Quotation{}
		if err := rows.Scan(
			&q.ID, &q.RFQID, &q.VendorID, &q.VendorName,
			&q.TotalPrice, &q.DeliveryDays, &q.Notes, &q.Status,
			&q.VendorRating, &q.ValidUntil, &q.SubmittedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *PostgresStore) RejectPendingQuotations(ctx context.Context, rfqID uuid.UUID) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE quotations SET status = 'rejected'
		WHERE rfq_id = $1 AND status = 'pending'`, rfqID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) GetStats(ctx context.Context) (*RFQStats, error) {
	stats := &RFQStats{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'draft'),
			COUNT(*) FILTER (WHERE status IN ('published', 'awaiting_responses')),
			COUNT(*) FILTER (WHERE status = 'under_review'),
			COUNT(*) FILTER (WHERE status = 'awarded'),
			COUNT(*) FILTER (WHERE status IN ('closed', 'rejected_all')),
			(SELECT COUNT(*) FROM quotations)
		FROM rfqs`,
	).Scan(
		&stats.TotalDraft, &stats.TotalOpen, &stats.TotalUnderReview,
		&stats.TotalAwarded, &stats.TotalClosed, &stats.TotalQuotations,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
