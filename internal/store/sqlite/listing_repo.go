package sqlite

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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
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
	row := r.db.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = ?`, id)
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
	query := `SELECT ` + listingColumns + ` FROM listings WHERE 1=1`
	var args []any

	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.SellerID != "" {
		query += ` AND seller_id = ?`
		args = append(args, f.SellerID)
	}
	if f.MinPrice != nil {
		query += ` AND price >= ?`
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		query += ` AND price <= ?`
		args = append(args, *f.MaxPrice)
	}
	if f.Search != "" {
		query += ` AND (title LIKE ? OR description LIKE ?)`
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern)
	}

	// Boosted listings surface first, then newest.
	query += ` ORDER BY boosted DESC, created_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	if f.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, f.Offset)
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
		SET title = ?, description = ?, category = ?, subcategory = ?, price = ?, firm = ?,
		    image_urls = ?, buyer_id = ?, status = ?, boosted = ?, updated_at = ?
		WHERE id = ?
	`, l.Title, l.Description, l.Category, l.Subcategory, l.Price, l.Firm,
		string(urls), l.BuyerID, l.Status, l.Boosted, l.UpdatedAt, l.ID)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	return nil
}
