package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"dulif-backend/internal/domain"
)

type ListingRepo struct {
	db *sql.DB
}

func NewListingRepo(db *sql.DB) *ListingRepo {
	return &ListingRepo{db: db}
}

var _ domain.ListingRepository = (*ListingRepo)(nil)

const listingColumns = `id, title, description, category, subcategory, price, firm, image_urls, seller_id, buyer_id, status, boosted, created_at, updated_at`

func (r *ListingRepo) Create(ctx context.Context, l *domain.Listing) error {
	if l.ID == "" {
		l.ID = newID()
	}
	if l.Status == "" {
		l.Status = domain.ListingStatusActive
	}
	now := time.Now().UTC()
	l.CreatedAt = now
	l.UpdatedAt = now

	urls, err := json.Marshal(l.ImageURLs)
	if err != nil {
		return fmt.Errorf("marshal image urls: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO listings (`+listingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, l.ID, l.Title, l.Description, l.Category, l.Subcategory, l.Price, l.Firm,
		string(urls), l.SellerID, l.BuyerID, l.Status, l.Boosted, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

func scanListing(row interface{ Scan(...any) error }) (*domain.Listing, error) {
	l := &domain.Listing{}
	var urls string
	err := row.Scan(
		&l.ID,
		&l.Title,
		&l.Description,
		&l.Category,
		&l.Subcategory,
		&l.Price,
		&l.Firm,
		&urls,
		&l.SellerID,
		&l.BuyerID,
		&l.Status,
		&l.Boosted,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(urls), &l.ImageURLs); err != nil {
		return nil, fmt.Errorf("unmarshal image urls: %w", err)
	}
	return l, nil
}

func (r *ListingRepo) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return l, nil
}

func (r *ListingRepo) List(ctx context.Context, f domain.ListingFilter) ([]*domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE TRUE`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Status != "" {
		query += ` AND status = ` + arg(f.Status)
	}
	if f.Category != "" {
		query += ` AND category = ` + arg(f.Category)
	}
	if f.SellerID != "" {
		query += ` AND seller_id = ` + arg(f.SellerID)
	}
	if f.MinPrice != nil {
		query += ` AND price >= ` + arg(*f.MinPrice)
	}
	if f.MaxPrice != nil {
		query += ` AND price <= ` + arg(*f.MaxPrice)
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		query += ` AND (title ILIKE ` + arg(pattern) + ` OR description ILIKE ` + arg(pattern) + `)`
	}

	query += ` ORDER BY boosted DESC, created_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ` + arg(f.Limit)
	}
	if f.Offset > 0 {
		query += ` OFFSET ` + arg(f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	var res []*domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		res = append(res, l)
	}
	return res, rows.Err()
}

func (r *ListingRepo) Update(ctx context.Context, l *domain.Listing) error {
	l.UpdatedAt = time.Now().UTC()
	urls, err := json.Marshal(l.ImageURLs)
	if err != nil {
		return fmt.Errorf("marshal image urls: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE listings
		SET title = $1, description = $2, category = $3, subcategory = $4, price = $5, firm = $6,
		    image_urls = $7, buyer_id = $8, status = $9, boosted = $10, updated_at = $11
		WHERE id = $12
	`, l.Title, l.Description, l.Category, l.Subcategory, l.Price, l.Firm,
		string(urls), l.BuyerID, l.Status, l.Boosted, l.UpdatedAt, l.ID)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	return nil
}
