package game

import "fmt"

// Competitor is a tournament participant as loaded from the competitor store. Wins and
// Losses are lifetime totals; Hand is filled in before a match starts.
type Competitor struct {
	ID     int64
	Name   string
	Wins   int
	Losses int
	Hand   []Item
}

func (c *Competitor) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}

	return fmt.Sprintf("competitor-%v", c.ID)
}

func (c *Competitor) DisplayFullName() string {
	return fmt.Sprintf("%v (W: %v, L: %v)", c.DisplayName(), c.Wins, c.Losses)
}

// Play is one competitor's item for one round. Seat is the competitor's position in the
// match and gives plays a stable order independent of arrival.
type Play struct {
	CompetitorID int64
	Seat         int
	Item         Item
	Round        int
}
