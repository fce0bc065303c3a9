package domain

import "time"

// User represents a marketplace account. Rating and RatingCount are the
// denormalized seller aggregate maintained by the rating ledger.
type User struct {
	ID             string    `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	PhotoURL       *string   `db:"photo_url" json:"photo_url,omitempty"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	Rating         float64   `db:"rating" json:"rating"`
	RatingCount    int       `db:"rating_count" json:"rating_count"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Listing statuses.
const (
	ListingStatusActive = "active"
	ListingStatusSold   = "sold"
)

// Categories accepted for listings.
var Categories = []string{
	"Electronics",
	"Furniture",
	"Books",
	"Clothing",
	"Sports",
	"Home & Garden",
	"Automotive",
	"Art & Crafts",
	"Health & Beauty",
	"Other",
}

// Listing represents an item offered for sale.
type Listing struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Category    string    `db:"category" json:"category"`
	Subcategory string    `db:"subcategory" json:"subcategory"`
	Price       float64   `db:"price" json:"price"`
	Firm        bool      `db:"firm" json:"firm"`
	ImageURLs   []string  `db:"image_urls" json:"image_urls"`
	SellerID    string    `db:"seller_id" json:"seller_id"`
	BuyerID     *string   `db:"buyer_id" json:"buyer_id,omitempty"`
	Status      string    `db:"status" json:"status"`
	Boosted     bool      `db:"boosted" json:"boosted"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Conversation is a two-party message thread scoped to one listing.
// LastMessage and LastTime mirror the most recent message so inbox views
// don't have to join against the messages table.
type Conversation struct {
	ID          string    `db:"id" json:"id"`
	ListingID   string    `db:"listing_id" json:"listing_id"`
	SellerID    string    `db:"seller_id" json:"seller_id"`
	BuyerID     string    `db:"buyer_id" json:"buyer_id"`
	LastMessage string    `db:"last_message" json:"last_message"`
	LastTime    time.Time `db:"last_time" json:"last_time"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Members returns the two participant IDs.
func (c *Conversation) Members() []string {
	return []string{c.SellerID, c.BuyerID}
}

// HasMember reports whether userID is one of the two participants.
func (c *Conversation) HasMember(userID string) bool {
	return userID == c.SellerID || userID == c.BuyerID
}

// Message is a single chat message. Body and SenderID are immutable after
// creation; Read flips to true once the non-sender opens the thread.
type Message struct {
	ID             string    `db:"id" json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	SenderID       string    `db:"sender_id" json:"sender_id"`
	Body           string    `db:"body" json:"body"`
	Read           bool      `db:"read" json:"read"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Rating is one buyer's 1-5 star evaluation of a seller for one listing.
// At most one rating may exist per (seller, buyer, listing) triple.
type Rating struct {
	ID        string    `db:"id" json:"id"`
	SellerID  string    `db:"seller_id" json:"seller_id"`
	BuyerID   string    `db:"buyer_id" json:"buyer_id"`
	ListingID string    `db:"listing_id" json:"listing_id"`
	Stars     int       `db:"stars" json:"stars"`
	Comment   string    `db:"comment" json:"comment,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RatingStats is a display-oriented summary of a seller's ratings.
type RatingStats struct {
	Average   float64     `json:"average"`
	Total     int         `json:"total"`
	Breakdown map[int]int `json:"breakdown"`
}

// PendingRating is an outstanding "rate your seller" prompt, created when a
// listing is marked sold with a buyer and removed once the rating lands.
type PendingRating struct {
	ID            string    `db:"id" json:"id"`
	ListingID     string    `db:"listing_id" json:"listing_id"`
	SellerID      string    `db:"seller_id" json:"seller_id"`
	BuyerID       string    `db:"buyer_id" json:"buyer_id"`
	ListingTitle  string    `db:"listing_title" json:"listing_title"`
	RemindersSent int       `db:"reminders_sent" json:"reminders_sent"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// VerificationCode is a pending signup verification, keyed by email.
type VerificationCode struct {
	Email      string    `db:"email"`
	Code       string    `db:"code"`
	Attempts   int       `db:"attempts"`
	RememberMe bool      `db:"remember_me"`
	ExpiresAt  time.Time `db:"expires_at"`
	CreatedAt  time.Time `db:"created_at"`
}
