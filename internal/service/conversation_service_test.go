package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"dulif-backend/internal/domain"
	"dulif-backend/internal/service"
)

func TestGetOrCreateConversation(t *testing.T) {
	listing := &domain.Listing{ID: "listing-1", SellerID: "seller-1", Status: domain.ListingStatusActive}

	t.Run("CreatesOnFirstContact", func(t *testing.T) {
		convs := new(MockConversationRepo)
		listings := new(MockListingRepo)
		svc := service.NewConversationService(convs, listings, zap.NewNop())

		listings.On("GetByID", mock.Anything, "listing-1").Return(listing, nil)
		convs.On("FindForListing", mock.Anything, "listing-1", "seller-1", "buyer-1").Return(nil, nil)
		convs.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Conversation) bool {
			return c.ListingID == "listing-1" && c.SellerID == "seller-1" && c.BuyerID == "buyer-1"
		})).Return(nil)

		conv, err := svc.GetOrCreate(context.Background(), "listing-1", "seller-1", "buyer-1")
		assert.NoError(t, err)
		assert.NotNil(t, conv)
	})

	t.Run("ReturnsExistingThread", func(t *testing.T) {
		convs := new(MockConversationRepo)
		listings := new(MockListingRepo)
		svc := service.NewConversationService(convs, listings, zap.NewNop())

		existing := &domain.Conversation{ID: "conv-1", ListingID: "listing-1", SellerID: "seller-1", BuyerID: "buyer-1"}
		listings.On("GetByID", mock.Anything, "listing-1").Return(listing, nil)
		convs.On("FindForListing", mock.Anything, "listing-1", "seller-1", "buyer-1").Return(existing, nil)

		conv, err := svc.GetOrCreate(context.Background(), "listing-1", "seller-1", "buyer-1")
		assert.NoError(t, err)
		assert.Equal(t, "conv-1", conv.ID)
		convs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("LostRaceFallsBackToWinner", func(t *testing.T) {
		convs := new(MockConversationRepo)
		listings := new(MockListingRepo)
		svc := service.NewConversationService(convs, listings, zap.NewNop())

		winner := &domain.Conversation{ID: "conv-winner", ListingID: "listing-1", SellerID: "seller-1", BuyerID: "buyer-1"}
		listings.On("GetByID", mock.Anything, "listing-1").Return(listing, nil)
		convs.On("FindForListing", mock.Anything, "listing-1", "seller-1", "buyer-1").Return(nil, nil).Once()
		convs.On("Create", mock.Anything, mock.Anything).Return(assert.AnError)
		convs.On("FindForListing", mock.Anything, "listing-1", "seller-1", "buyer-1").Return(winner, nil).Once()

		conv, err := svc.GetOrCreate(context.Background(), "listing-1", "seller-1", "buyer-1")
		assert.NoError(t, err)
		assert.Equal(t, "conv-winner", conv.ID)
	})

	t.Run("SelfConversation", func(t *testing.T) {
		svc := service.NewConversationService(new(MockConversationRepo), new(MockListingRepo), zap.NewNop())
		_, err := svc.GetOrCreate(context.Background(), "listing-1", "seller-1", "seller-1")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("UnknownListing", func(t *testing.T) {
		convs := new(MockConversationRepo)
		listings := new(MockListingRepo)
		svc := service.NewConversationService(convs, listings, zap.NewNop())

		listings.On("GetByID", mock.Anything, "ghost").Return(nil, nil)

		_, err := svc.GetOrCreate(context.Background(), "ghost", "seller-1", "buyer-1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestGetConversation(t *testing.T) {
	convs := new(MockConversationRepo)
	svc := service.NewConversationService(convs, new(MockListingRepo), zap.NewNop())

	conv := &domain.Conversation{ID: "conv-1", SellerID: "seller-1", BuyerID: "buyer-1"}
	convs.On("GetByID", mock.Anything, "conv-1").Return(conv, nil)
	convs.On("GetByID", mock.Anything, "ghost").Return(nil, nil)

	t.Run("MemberCanRead", func(t *testing.T) {
		got, err := svc.Get(context.Background(), "conv-1", "buyer-1")
		assert.NoError(t, err)
		assert.Equal(t, conv, got)
	})

	t.Run("NonMemberIsForbidden", func(t *testing.T) {
		_, err := svc.Get(context.Background(), "conv-1", "stranger")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := svc.Get(context.Background(), "ghost", "buyer-1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
