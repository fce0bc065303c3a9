package domain

import (
	"context"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	Activate(ctx context.Context, id string) error
	// UpdateSellerAggregate persists a freshly recomputed rating/ratingCount
	// pair onto the seller's record.
	UpdateSellerAggregate(ctx context.Context, sellerID string, rating float64, count int) error
}

// ListingFilter narrows a listing browse query. Zero values mean "no filter".
type ListingFilter struct {
	Category string
	MinPrice *float64
	MaxPrice *float64
	Search   string
	Status   string
	SellerID string
	Offset   int
	Limit    int
}

// ListingRepository defines persistence operations for listings.
type ListingRepository interface {
	Create(ctx context.Context, l *Listing) error
	GetByID(ctx context.Context, id string) (*Listing, error)
	List(ctx context.Context, f ListingFilter) ([]*Listing, error)
	Update(ctx context.Context, l *Listing) error
}

// RatingRepository defines persistence operations for ratings.
type RatingRepository interface {
	Create(ctx context.Context, r *Rating) error
	GetByTriple(ctx context.Context, sellerID, buyerID, listingID string) (*Rating, error)
	ListForSeller(ctx context.Context, sellerID string) ([]*Rating, error)
}

// PendingRatingRepository tracks outstanding rating prompts.
type PendingRatingRepository interface {
	Create(ctx context.Context, p *PendingRating) error
	ListForBuyer(ctx context.Context, buyerID string) ([]*PendingRating, error)
	DeleteByTriple(ctx context.Context, sellerID, buyerID, listingID string) error
	IncrementReminders(ctx context.Context, id string) error
}

// ConversationRepository defines persistence operations for conversations.
type ConversationRepository interface {
	Create(ctx context.Context, c *Conversation) error
	GetByID(ctx context.Context, id string) (*Conversation, error)
	// FindForListing looks up the existing thread for a
	// (listing, seller, buyer) triple, if any.
	FindForListing(ctx context.Context, listingID, sellerID, buyerID string) (*Conversation, error)
	ListForUser(ctx context.Context, userID string) ([]*Conversation, error)
}

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	// Create appends the message and refreshes the parent conversation's
	// last_message/last_time summary in a single transaction.
	Create(ctx context.Context, m *Message) error
	// ListRecent returns the most recent messages in ascending created_at order.
	ListRecent(ctx context.Context, conversationID string, limit int) ([]*Message, error)
	// MarkRead flips read=true on every unread message in the conversation not
	// sent by readerID and reports how many rows changed.
	MarkRead(ctx context.Context, conversationID, readerID string) (int64, error)
	CountUnread(ctx context.Context, conversationID, userID string) (int, error)
}

// VerificationRepository stores pending signup verification codes.
type VerificationRepository interface {
	Upsert(ctx context.Context, v *VerificationCode) error
	Get(ctx context.Context, email string) (*VerificationCode, error)
	IncrementAttempts(ctx context.Context, email string) error
	Delete(ctx context.Context, email string) error
}
