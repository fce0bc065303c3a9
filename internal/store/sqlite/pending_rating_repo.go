package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dulif-backend/internal/domain"
)

type PendingRatingRepo struct {
	db *sql.DB
}

func NewPendingRatingRepo(db *sql.DB) *PendingRatingRepo {
	return &PendingRatingRepo{db: db}
}

var _ domain.PendingRatingRepository = (*PendingRatingRepo)(nil)

func (r *PendingRatingRepo) Create(ctx context.Context, p *domain.PendingRating) error {
	if p.ID == "" {
		p.ID = newID()
	}
	p.CreatedAt = time.Now().UTC()
	// A sold listing produces at most one prompt per buyer; re-marking the
	// listing sold must not duplicate it.
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO pending_ratings (id, listing_id, seller_id, buyer_id, listing_title, reminders_sent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.ListingID, p.SellerID, p.BuyerID, p.ListingTitle, p.RemindersSent, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert pending rating: %w", err)
	}
	return nil
}

func (r *PendingRatingRepo) ListForBuyer(ctx context.Context, buyerID string) ([]*domain.PendingRating, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, listing_id, seller_id, buyer_id, listing_title, reminders_sent, created_at
		FROM pending_ratings
		WHERE buyer_id = ?
		ORDER BY created_at DESC
	`, buyerID)
	if err != nil {
		return nil, fmt.Errorf("list pending ratings: %w", err)
	}
	defer rows.Close()

	var res []*domain.PendingRating
	for rows.Next() {
		p := &domain.PendingRating{}
		if err := rows.Scan(
			&p.ID,
			&p.ListingID,
			&p.SellerID,
			&p.BuyerID,
			&p.ListingTitle,
			&p.RemindersSent,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan pending rating: %w", err)
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r *PendingRatingRepo) DeleteByTriple(ctx context.Context, sellerID, buyerID, listingID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM pending_ratings
		WHERE seller_id = ? AND buyer_id = ? AND listing_id = ?
	`, sellerID, buyerID, listingID)
	if err != nil {
		return fmt.Errorf("delete pending rating: %w", err)
	}
	return nil
}

func (r *PendingRatingRepo) IncrementReminders(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE pending_ratings SET reminders_sent = reminders_sent + 1 WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("increment reminders: %w", err)
	}
	return nil
}
