package model

import "time"

// Card is a single collectible card held by one user.
type Card struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	Name      string    `json:"name"`
	Set       string    `json:"set"`
	Condition string    `json:"condition"`
	Price     float64   `json:"price"`
	ImageMime string    `json:"image_mime,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasImage reports whether an image was uploaded for the card.
func (c Card) HasImage() bool {
	return c.ImageMime != ""
}

// CardInput holds the mutable fields of a card after validation.
type CardInput struct {
	Name      string  `json:"name"`
	Set       string  `json:"set"`
	Condition string  `json:"condition"`
	Price     float64 `json:"price"`
}

// Card conditions shown on the dashboard, best first.
const (
	ConditionMint     = "Mint"
	ConditionNearMint = "Near Mint"
	ConditionGood     = "Good"
	ConditionFair     = "Fair"
	ConditionPoor     = "Poor"
)

// Conditions lists the dashboard condition buckets in display order.
var Conditions = []string{
	ConditionMint,
	ConditionNearMint,
	ConditionGood,
	ConditionFair,
	ConditionPoor,
}
