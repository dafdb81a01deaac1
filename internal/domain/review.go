package domain

import "time"

// Review is a customer's rating of a product. Rating is constrained to 1-5;
// the comment is optional.
type Review struct {
	ID        string
	UserID    string
	ProductID string
	Rating    int
	Comment   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
