package data

// ItemRecord is one card of the default deck as stored in items.en.json.
type ItemRecord struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Power    int    `json:"power"`
}

// HelpValues fills help.en.template.
type HelpValues struct {
	Rounds          int
	HandSize        int
	RoundTimeout    string
	MinimumRounds   int
	MaximumRounds   int
	MaximumHandSize int
	MaximumPlayers  int
}
