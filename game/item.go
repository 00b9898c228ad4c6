package game

import (
	"fmt"
	"strings"
)

type Category int

const (
	Fire Category = iota
	Water
	Earth
	Air
	Lightning
	Darkness
)

var categoryNames = map[Category]string{
	Fire:      "Fire",
	Water:     "Water",
	Earth:     "Earth",
	Air:       "Air",
	Lightning: "Lightning",
	Darkness:  "Darkness",
}

// PowerRange is the inclusive span of power values an item of a category may carry.
type PowerRange struct {
	Min int
	Max int
}

var powerRanges = map[Category]PowerRange{
	Fire:      {Min: 3, Max: 8},
	Water:     {Min: 2, Max: 6},
	Earth:     {Min: 3, Max: 7},
	Air:       {Min: 2, Max: 6},
	Lightning: {Min: 4, Max: 10},
	Darkness:  {Min: 3, Max: 9},
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}

	return fmt.Sprintf("Category(%d)", int(c))
}

func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

func (c Category) PowerRange() PowerRange {
	return powerRanges[c]
}

// ParseCategory matches a category name case-insensitively.
func ParseCategory(name string) (Category, error) {
	name = strings.TrimSpace(name)
	for c, n := range categoryNames {
		if strings.EqualFold(n, name) {
			return c, nil
		}
	}

	return 0, fmt.Errorf("unknown category %q", name)
}

type Item struct {
	ID       int64
	Name     string
	Category Category
	Power    int
}

func (i Item) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("item name is required")
	}

	if !i.Category.Valid() {
		return fmt.Errorf("item %q: invalid category %v", i.Name, i.Category)
	}

	r := i.Category.PowerRange()
	if i.Power < r.Min || i.Power > r.Max {
		return fmt.Errorf("item %q: power %v outside %v range [%v, %v]", i.Name, i.Power, i.Category, r.Min, r.Max)
	}

	return nil
}

func (i Item) String() string {
	return fmt.Sprintf("%v (%v, %v)", i.Name, i.Category, i.Power)
}
