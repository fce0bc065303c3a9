package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dulif-backend/internal/domain"
)

type RatingRepo struct {
	db *sql.DB
}

func NewRatingRepo(db *sql.DB) *RatingRepo {
	return &RatingRepo{db: db}
}

var _ domain.RatingRepository = (*RatingRepo)(nil)

func (r *RatingRepo) Create(ctx context.Context, rating *domain.Rating) error {
	if rating.ID == "" {
		rating.ID = newID()
	}
	rating.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ratings (id, seller_id, buyer_id, listing_id, stars, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rating.ID, rating.SellerID, rating.BuyerID, rating.ListingID, rating.Stars, rating.Comment, rating.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert rating: %w", err)
	}
	return nil
}

func (r *RatingRepo) GetByTriple(ctx context.Context, sellerID, buyerID, listingID string) (*domain.Rating, error) {
	rating := &domain.Rating{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, seller_id, buyer_id, listing_id, stars, comment, created_at
		FROM ratings
		WHERE seller_id = $1 AND buyer_id = $2 AND listing_id = $3
	`, sellerID, buyerID, listingID).Scan(
		&rating.ID,
		&rating.SellerID,
		&rating.BuyerID,
		&rating.ListingID,
		&rating.Stars,
		&rating.Comment,
		&rating.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get rating: %w", err)
	}
	return rating, nil
}

func (r *RatingRepo) ListForSeller(ctx context.Context, sellerID string) ([]*domain.Rating, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, seller_id, buyer_id, listing_id, stars, comment, created_at
		FROM ratings
		WHERE seller_id = $1
		ORDER BY created_at DESC, id DESC
	`, sellerID)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	var res []*domain.Rating
	for rows.Next() {
		rating := &domain.Rating{}
		if err := rows.Scan(
			&rating.ID,
			&rating.SellerID,
			&rating.BuyerID,
			&rating.ListingID,
			&rating.Stars,
			&rating.Comment,
			&rating.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		res = append(res, rating)
	}
	return res, rows.Err()
}
