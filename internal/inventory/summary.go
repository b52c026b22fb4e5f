package inventory

import (
	"sort"

	"github.com/erazemk/pokestock/internal/model"
)

// RecentLimit is the number of cards in the "recently added" list.
const RecentLimit = 3

// ConditionCount is one bar of the condition histogram.
type ConditionCount struct {
	Condition string `json:"condition"`
	Count     int    `json:"count"`
}

// Summary is the dashboard's aggregate view of a card list.
type Summary struct {
	TotalCards  int              `json:"total_cards"`
	TotalValue  float64          `json:"total_value"`
	UniqueSets  int              `json:"unique_sets"`
	ByCondition []ConditionCount `json:"by_condition"`
	Recent      []model.Card     `json:"recent"`
}

// MaxConditionCount returns the tallest histogram bar, for scaling.
func (s Summary) MaxConditionCount() int {
	highest := 0
	for _, c := range s.ByCondition {
		highest = max(highest, c.Count)
	}
	return highest
}

// Summarize computes dashboard statistics. Conditions outside the fixed
// buckets count toward the totals but get no bar.
func Summarize(cards []model.Card) Summary {
	s := Summary{TotalCards: len(cards)}

	sets := make(map[string]struct{})
	counts := make(map[string]int)
	for _, c := range cards {
		s.TotalValue += c.Price
		sets[c.Set] = struct{}{}
		counts[c.Condition]++
	}
	s.UniqueSets = len(sets)

	for _, cond := range model.Conditions {
		s.ByCondition = append(s.ByCondition, ConditionCount{Condition: cond, Count: counts[cond]})
	}

	recent := append([]model.Card(nil), cards...)
	sort.SliceStable(recent, func(i, j int) bool {
		if recent[i].CreatedAt.Equal(recent[j].CreatedAt) {
			return recent[i].ID > recent[j].ID
		}
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}
	s.Recent = recent

	return s
}
