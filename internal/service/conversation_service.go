package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"dulif-backend/internal/domain"
)

// ConversationService establishes at most one thread per
// (listing, seller, buyer) triple and answers membership-scoped reads.
type ConversationService struct {
	conversations domain.ConversationRepository
	listings      domain.ListingRepository
	log           *zap.Logger
}

func NewConversationService(
	conversations domain.ConversationRepository,
	listings domain.ListingRepository,
	log *zap.Logger,
) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		listings:      listings,
		log:           log,
	}
}

// GetOrCreate returns the existing thread for the triple or lazily creates
// one on first contact. The lookup and create are not one atomic step; the
// unique index on the triple closes the race, and a conflicting insert falls
// back to re-reading the winner.
func (s *ConversationService) GetOrCreate(ctx context.Context, listingID, sellerID, buyerID string) (*domain.Conversation, error) {
	if buyerID == sellerID {
		return nil, fmt.Errorf("%w: cannot start a conversation with yourself", domain.ErrInvalidInput)
	}

	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	if listing == nil {
		return nil, fmt.Errorf("%w: listing %s", domain.ErrNotFound, listingID)
	}

	existing, err := s.conversations.FindForListing(ctx, listingID, sellerID, buyerID)
	if err != nil {
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	conv := &domain.Conversation{
		ListingID: listingID,
		SellerID:  sellerID,
		BuyerID:   buyerID,
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		// A concurrent caller may have won the create; the unique index turns
		// that into an insert error, so re-read before giving up.
		if winner, ferr := s.conversations.FindForListing(ctx, listingID, sellerID, buyerID); ferr == nil && winner != nil {
			return winner, nil
		}
		return nil, err
	}
	return conv, nil
}

// ListForUser returns the user's inbox, most recent activity first.
func (s *ConversationService) ListForUser(ctx context.Context, userID string) ([]*domain.Conversation, error) {
	return s.conversations.ListForUser(ctx, userID)
}

// Get returns a conversation the user participates in.
func (s *ConversationService) Get(ctx context.Context, conversationID, userID string) (*domain.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return nil, fmt.Errorf("%w: conversation %s", domain.ErrNotFound, conversationID)
	}
	if !conv.HasMember(userID) {
		return nil, domain.ErrForbidden
	}
	return conv, nil
}
