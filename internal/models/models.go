package models

import "time"

// Book statuses.
const (
	BookAvailable = "available"
	BookBorrowed  = "borrowed"
	BookExchanged = "exchanged"
)

// Book conditions.
const (
	ConditionLikeNew = "like-new"
	ConditionGood    = "good"
	ConditionFair    = "fair"
)

// Exchange statuses.
const (
	ExchangePending   = "pending"
	ExchangeAccepted  = "accepted"
	ExchangeCompleted = "completed"
	ExchangeCancelled = "cancelled"
)

// User represents a registered member of the marketplace
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Bio          string    `json:"bio"`
	Location     string    `json:"location"`
	Avatar       string    `json:"avatar"`
	Rating       float64   `json:"rating"`
	ReviewsCount int       `json:"reviews_count"`
	BooksShared  int       `json:"books_shared"`
	Wishlist     []string  `json:"wishlist"`
	MemberSince  time.Time `json:"member_since"`
}

// UserSummary is the short user shape returned by auth endpoints
type UserSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

// Summary returns the short auth-response shape for a user
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Avatar: u.Avatar}
}

// Session is an opaque bearer token bound to a user
type Session struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Book represents a listed book
type Book struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	ISBN         string    `json:"isbn"`
	Cover        string    `json:"cover"`
	Description  string    `json:"description"`
	Genre        string    `json:"genre"`
	Condition    string    `json:"condition"`
	OwnerID      string    `json:"owner_id"`
	Location     string    `json:"location"`
	Status       string    `json:"status"`
	Rating       float64   `json:"rating"`
	ReviewsCount int       `json:"reviews_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Exchange represents a proposed or in-progress swap of two books
type Exchange struct {
	ID              string    `json:"id"`
	InitiatorID     string    `json:"initiator_id"`
	ResponderID     string    `json:"responder_id"`
	InitiatorBookID string    `json:"initiator_book_id"`
	ResponderBookID string    `json:"responder_book_id"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Terminal reports whether the exchange status permits no further transitions
func (e *Exchange) Terminal() bool {
	return e.Status == ExchangeCompleted || e.Status == ExchangeCancelled
}

// Involves reports whether the user is a party to the exchange
func (e *Exchange) Involves(userID string) bool {
	return e.InitiatorID == userID || e.ResponderID == userID
}

// Review represents a reader review of a book
type Review struct {
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}
