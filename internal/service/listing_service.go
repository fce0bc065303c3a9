package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"dulif-backend/internal/domain"
)

const maxListingTitleLength = 100

// ListingService handles listing creation, browsing, and the sold transition
// that seeds rating prompts.
type ListingService struct {
	listings domain.ListingRepository
	pending  domain.PendingRatingRepository
	log      *zap.Logger
}

func NewListingService(
	listings domain.ListingRepository,
	pending domain.PendingRatingRepository,
	log *zap.Logger,
) *ListingService {
	return &ListingService{
		listings: listings,
		pending:  pending,
		log:      log,
	}
}

type ListingCreateInput struct {
	Title       string
	Description string
	Category    string
	Subcategory string
	Price       float64
	Firm        bool
	ImageURLs   []string
}

func validCategory(category string) bool {
	for _, c := range domain.Categories {
		if c == category {
			return true
		}
	}
	return false
}

func (s *ListingService) Create(ctx context.Context, in ListingCreateInput, sellerID string) (*domain.Listing, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if len([]rune(title)) > maxListingTitleLength {
		return nil, fmt.Errorf("%w: title exceeds %d characters", domain.ErrInvalidInput, maxListingTitleLength)
	}
	if in.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", domain.ErrInvalidInput)
	}
	if !validCategory(in.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, in.Category)
	}

	l := &domain.Listing{
		Title:       title,
		Description: in.Description,
		Category:    in.Category,
		Subcategory: in.Subcategory,
		Price:       in.Price,
		Firm:        in.Firm,
		ImageURLs:   in.ImageURLs,
		SellerID:    sellerID,
		Status:      domain.ListingStatusActive,
	}
	if l.ImageURLs == nil {
		l.ImageURLs = []string{}
	}
	if err := s.listings.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *ListingService) Get(ctx context.Context, id string) (*domain.Listing, error) {
	l, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	if l == nil {
		return nil, fmt.Errorf("%w: listing %s", domain.ErrNotFound, id)
	}
	return l, nil
}

// Browse lists listings for the home feed. Defaults to active listings with a
// page size of 20.
func (s *ListingService) Browse(ctx context.Context, f domain.ListingFilter) ([]*domain.Listing, error) {
	if f.Status == "" {
		f.Status = domain.ListingStatusActive
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	return s.listings.List(ctx, f)
}

type ListingUpdateInput struct {
	Title       *string
	Description *string
	Price       *float64
	Firm        *bool
	Status      *string
	BuyerID     *string
	Boosted     *bool
}

// Update patches a listing the caller owns. Marking the listing sold with a
// buyer records a pending rating prompt for that buyer.
func (s *ListingService) Update(ctx context.Context, id, callerID string, in ListingUpdateInput) (*domain.Listing, error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.SellerID != callerID {
		return nil, domain.ErrForbidden
	}

	wasSold := l.Status == domain.ListingStatusSold

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" || len([]rune(title)) > maxListingTitleLength {
			return nil, fmt.Errorf("%w: invalid title", domain.ErrInvalidInput)
		}
		l.Title = title
	}
	if in.Description != nil {
		l.Description = *in.Description
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return nil, fmt.Errorf("%w: price cannot be negative", domain.ErrInvalidInput)
		}
		l.Price = *in.Price
	}
	if in.Firm != nil {
		l.Firm = *in.Firm
	}
	if in.BuyerID != nil {
		l.BuyerID = in.BuyerID
	}
	if in.Boosted != nil {
		l.Boosted = *in.Boosted
	}
	if in.Status != nil {
		switch *in.Status {
		case domain.ListingStatusActive, domain.ListingStatusSold:
			l.Status = *in.Status
		default:
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, *in.Status)
		}
	}

	if err := s.listings.Update(ctx, l); err != nil {
		return nil, err
	}

	if !wasSold && l.Status == domain.ListingStatusSold && l.BuyerID != nil && *l.BuyerID != l.SellerID {
		prompt := &domain.PendingRating{
			ListingID:    l.ID,
			SellerID:     l.SellerID,
			BuyerID:      *l.BuyerID,
			ListingTitle: l.Title,
		}
		if err := s.pending.Create(ctx, prompt); err != nil {
			// The prompt is advisory; the sale itself already went through.
			s.log.Warn("record pending rating prompt",
				zap.String("listing_id", l.ID),
				zap.Error(err))
		}
	}

	return l, nil
}
