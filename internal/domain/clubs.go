package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// clubAliases maps common labels to canonical club identifiers. Lookup is
// case-insensitive with spaces and hyphens stripped.
var clubAliases = map[string]string{
	"driver":  "driver",
	"1w":      "driver",
	"d":       "driver",
	"3wood":   "3-wood",
	"3w":      "3-wood",
	"5wood":   "5-wood",
	"5w":      "5-wood",
	"7wood":   "7-wood",
	"hybrid":  "hybrid",
	"3hybrid": "3-hybrid",
	"3h":      "3-hybrid",
	"4hybrid": "4-hybrid",
	"4h":      "4-hybrid",
	"pw":      "pitching-wedge",
	"pwedge":  "pitching-wedge",
	"gw":      "gap-wedge",
	"aw":      "gap-wedge",
	"sw":      "sand-wedge",
	"swedge":  "sand-wedge",
	"lw":      "lob-wedge",
	"putter":  "putter",
	"p":       "putter",
}

// CanonicalClub resolves a free-form club label to its canonical identifier.
// Unknown labels that contain an iron number (e.g. "7i", "iron 7", "7 iron")
// resolve via the numeric-iron heuristic; anything else returns the
// lowercased input unchanged so the caller can still display it.
func CanonicalClub(label string) string {
	trimmed := strings.TrimSpace(strings.ToLower(label))
	if trimmed == "" {
		return ""
	}

	key := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '_' {
			return -1
		}
		return r
	}, trimmed)

	if canonical, ok := clubAliases[key]; ok {
		return canonical
	}

	if n, ok := ironNumber(key); ok {
		return fmt.Sprintf("%d-iron", n)
	}

	return trimmed
}

// ironNumber extracts an iron number from labels like "7i", "i7", "7iron",
// "iron7". Valid irons are 1 through 9.
func ironNumber(key string) (int, bool) {
	var digit rune
	rest := make([]rune, 0, len(key))
	for _, r := range key {
		if unicode.IsDigit(r) {
			if digit != 0 {
				return 0, false // more than one digit, not an iron label
			}
			digit = r
			continue
		}
		rest = append(rest, r)
	}

	if digit == 0 {
		return 0, false
	}

	switch string(rest) {
	case "i", "iron", "":
		n := int(digit - '0')
		if n >= 1 && n <= 9 {
			return n, true
		}
	}

	return 0, false
}
