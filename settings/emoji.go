package settings

import (
	"fmt"
	"strings"
)

type EmojiKey string

type EmojiInfo struct {
	Name     string
	ID       string
	Animated bool
	// Fallback is a unicode emoji used when no custom server emoji is configured.
	Fallback string
}

func (e EmojiInfo) EmojiCode() string {
	if e.Name == "" || e.ID == "" {
		return e.Fallback
	}

	format := "<:%v:%v>"
	if e.Animated {
		format = "<a:%v:%v>"
	}

	return fmt.Sprintf(format, e.Name, e.ID)
}

var (
	EmojiFire      EmojiKey = "Fire"
	EmojiWater     EmojiKey = "Water"
	EmojiEarth     EmojiKey = "Earth"
	EmojiAir       EmojiKey = "Air"
	EmojiLightning EmojiKey = "Lightning"
	EmojiDarkness  EmojiKey = "Darkness"
	EmojiTrophy    EmojiKey = "Trophy"

	fallbacks = map[EmojiKey]string{
		EmojiFire:      "🔥",
		EmojiWater:     "💧",
		EmojiEarth:     "🪨",
		EmojiAir:       "🌪️",
		EmojiLightning: "⚡",
		EmojiDarkness:  "🌑",
		EmojiTrophy:    "🏆",
	}
)

// GetEmoji returns the emoji for key. A custom emoji can be configured with
// CARD_TOURNEY_<KEY>_EMOJI_NAME, _ID and _ANIMATED.
func GetEmoji(key EmojiKey) EmojiInfo {
	fallback, ok := fallbacks[key]
	if !ok {
		return EmojiInfo{}
	}

	upper := fmt.Sprintf("%v_EMOJI", strings.ToUpper(string(key)))
	return EmojiInfo{
		Name:     GetenvStr(upper + "_NAME"),
		ID:       GetenvStr(upper + "_ID"),
		Animated: GetenvStr(upper+"_ANIMATED") == "true",
		Fallback: fallback,
	}
}
