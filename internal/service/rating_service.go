package service

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"dulif-backend/internal/domain"
)

const (
	maxRatingCommentLength = 1000
	maxRatingReminders     = 3
)

// RatingService keeps the one-rating-per-transaction rule and the seller's
// denormalized aggregate consistent with the full set of ratings.
type RatingService struct {
	ratings domain.RatingRepository
	users   domain.UserRepository
	pending domain.PendingRatingRepository
	log     *zap.Logger
}

func NewRatingService(
	ratings domain.RatingRepository,
	users domain.UserRepository,
	pending domain.PendingRatingRepository,
	log *zap.Logger,
) *RatingService {
	return &RatingService{
		ratings: ratings,
		users:   users,
		pending: pending,
		log:     log,
	}
}

type SubmitRatingInput struct {
	SellerID  string
	BuyerID   string
	ListingID string
	Stars     int
	Comment   string
}

// SubmitRating records one buyer's rating of a seller for one listing and
// synchronously recomputes the seller's aggregate. A duplicate triple is a
// business-rule violation, not a transient condition; callers must not retry.
func (s *RatingService) SubmitRating(ctx context.Context, in SubmitRatingInput) (*domain.Rating, error) {
	if in.Stars < 1 || in.Stars > 5 {
		return nil, domain.ErrInvalidRating
	}
	if in.SellerID == in.BuyerID {
		return nil, domain.ErrSelfRating
	}
	if len([]rune(in.Comment)) > maxRatingCommentLength {
		return nil, fmt.Errorf("%w: comment exceeds %d characters", domain.ErrInvalidInput, maxRatingCommentLength)
	}

	seller, err := s.users.GetByID(ctx, in.SellerID)
	if err != nil {
		return nil, fmt.Errorf("get seller: %w", err)
	}
	if seller == nil {
		return nil, fmt.Errorf("%w: seller %s", domain.ErrNotFound, in.SellerID)
	}

	existing, err := s.ratings.GetByTriple(ctx, in.SellerID, in.BuyerID, in.ListingID)
	if err != nil {
		return nil, fmt.Errorf("check existing rating: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrDuplicateRating
	}

	rating := &domain.Rating{
		SellerID:  in.SellerID,
		BuyerID:   in.BuyerID,
		ListingID: in.ListingID,
		Stars:     in.Stars,
		Comment:   in.Comment,
	}
	if err := s.ratings.Create(ctx, rating); err != nil {
		return nil, err
	}

	if err := s.RecomputeSellerAggregate(ctx, in.SellerID); err != nil {
		return nil, fmt.Errorf("recompute aggregate: %w", err)
	}

	// The prompt is advisory; failing to clear it must not fail the rating.
	if err := s.pending.DeleteByTriple(ctx, in.SellerID, in.BuyerID, in.ListingID); err != nil {
		s.log.Warn("clear pending rating prompt",
			zap.String("seller_id", in.SellerID),
			zap.String("buyer_id", in.BuyerID),
			zap.String("listing_id", in.ListingID),
			zap.Error(err))
	}

	return rating, nil
}

// RecomputeSellerAggregate fetches every rating for the seller and persists
// mean(stars) rounded to one decimal plus the count. Always a full
// recomputation: interleaved writers each persist a value derived from a
// consistent snapshot, so the aggregate cannot drift from ground truth the
// way incremental updates can.
func (s *RatingService) RecomputeSellerAggregate(ctx context.Context, sellerID string) error {
	ratings, err := s.ratings.ListForSeller(ctx, sellerID)
	if err != nil {
		return fmt.Errorf("list seller ratings: %w", err)
	}
	avg, count := aggregate(ratings)
	return s.users.UpdateSellerAggregate(ctx, sellerID, avg, count)
}

// aggregate computes mean(stars) rounded to the nearest tenth, 0.0 for an
// empty set. math.Round rounds half away from zero.
func aggregate(ratings []*domain.Rating) (float64, int) {
	if len(ratings) == 0 {
		return 0, 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Stars
	}
	avg := float64(sum) / float64(len(ratings))
	return math.Round(avg*10) / 10, len(ratings)
}

// CanRate reports whether no rating exists yet for the triple. Callers use it
// to decide whether to show the rating prompt at all.
func (s *RatingService) CanRate(ctx context.Context, sellerID, buyerID, listingID string) (bool, error) {
	existing, err := s.ratings.GetByTriple(ctx, sellerID, buyerID, listingID)
	if err != nil {
		return false, fmt.Errorf("check existing rating: %w", err)
	}
	return existing == nil, nil
}

// SellerRatings returns all ratings recorded for a seller, newest first.
func (s *RatingService) SellerRatings(ctx context.Context, sellerID string) ([]*domain.Rating, error) {
	return s.ratings.ListForSeller(ctx, sellerID)
}

// Stats returns the per-star breakdown alongside the aggregate.
func (s *RatingService) Stats(ctx context.Context, sellerID string) (*domain.RatingStats, error) {
	ratings, err := s.ratings.ListForSeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	breakdown := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for _, r := range ratings {
		if r.Stars >= 1 && r.Stars <= 5 {
			breakdown[r.Stars]++
		}
	}
	avg, total := aggregate(ratings)
	return &domain.RatingStats{
		Average:   avg,
		Total:     total,
		Breakdown: breakdown,
	}, nil
}

// PendingForBuyer lists the buyer's outstanding rating prompts. Each prompt
// is shown at most maxRatingReminders times; serving one counts as a
// reminder, and the counter update is best-effort.
func (s *RatingService) PendingForBuyer(ctx context.Context, buyerID string) ([]*domain.PendingRating, error) {
	all, err := s.pending.ListForBuyer(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	res := make([]*domain.PendingRating, 0, len(all))
	for _, p := range all {
		if p.RemindersSent >= maxRatingReminders {
			continue
		}
		if err := s.pending.IncrementReminders(ctx, p.ID); err != nil {
			s.log.Warn("increment rating reminders", zap.String("id", p.ID), zap.Error(err))
		}
		res = append(res, p)
	}
	return res, nil
}
