package data

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"text/template"

	"github.com/deadloct/card-tournament-bot/game"
)

// LoadItems parses a deck and validates every card against its category's power range.
func LoadItems(raw []byte) ([]game.Item, error) {
	var records []ItemRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse items: %w", err)
	}

	if len(records) == 0 {
		return nil, errors.New("no items to load")
	}

	items := make([]game.Item, 0, len(records))
	for _, r := range records {
		category, err := game.ParseCategory(r.Category)
		if err != nil {
			return nil, fmt.Errorf("item %q: %w", r.Name, err)
		}

		item := game.Item{Name: r.Name, Category: category, Power: r.Power}
		if err := item.Validate(); err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	return items, nil
}

// DefaultItems is the embedded deck.
func DefaultItems() ([]game.Item, error) {
	return LoadItems(ItemsJSON)
}

func Help(vals HelpValues) (string, error) {
	tmpl, err := template.New("help").Parse(HelpTemplate)
	if err != nil {
		return "", fmt.Errorf("parse help template: %w", err)
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, vals); err != nil {
		return "", fmt.Errorf("execute help template: %w", err)
	}

	return out.String(), nil
}
