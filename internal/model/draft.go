package model

import (
	"math"
	"strconv"
	"strings"
)

// Draft is the raw create/edit form. Price stays a string until validated.
type Draft struct {
	Name      string `json:"name"`
	Set       string `json:"set"`
	Condition string `json:"condition"`
	Price     string `json:"price"`
}

// DraftFromCard fills a form with an existing card's values.
func DraftFromCard(c Card) Draft {
	return Draft{
		Name:      c.Name,
		Set:       c.Set,
		Condition: c.Condition,
		Price:     strconv.FormatFloat(c.Price, 'f', -1, 64),
	}
}

// Validate checks the draft and returns the parsed input.
func (d Draft) Validate() (CardInput, error) {
	in := CardInput{
		Name:      strings.TrimSpace(d.Name),
		Set:       strings.TrimSpace(d.Set),
		Condition: strings.TrimSpace(d.Condition),
	}

	switch {
	case in.Name == "":
		return CardInput{}, &ValidationError{Field: "name", Reason: "required"}
	case in.Set == "":
		return CardInput{}, &ValidationError{Field: "set", Reason: "required"}
	case in.Condition == "":
		return CardInput{}, &ValidationError{Field: "condition", Reason: "required"}
	}

	price := strings.TrimSpace(d.Price)
	if price == "" {
		return CardInput{}, &ValidationError{Field: "price", Reason: "required"}
	}
	p, err := strconv.ParseFloat(price, 64)
	if err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
		return CardInput{}, &ValidationError{Field: "price", Reason: "must be a number"}
	}
	if p < 0 {
		return CardInput{}, &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	in.Price = p

	return in, nil
}
