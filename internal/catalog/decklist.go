package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// DeckEntry is one parsed decklist line.
type DeckEntry struct {
	Name     string
	Quantity int
}

// ParseDeckList turns free-form decklist text into entries. Accepted line
// shapes: "4 Lightning Bolt", "4x Lightning Bolt", "Lightning Bolt" (quantity
// one). Blank lines and comment lines ("//", "#") are skipped. A sideboard
// marker ("Sideboard", "SB:") ends the main deck; sideboard entries are not
// imported to the table.
func ParseDeckList(text string) ([]DeckEntry, error) {
	var entries []DeckEntry

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#") {
			continue
		}
		lower := strings.ToLower(line)
		if lower == "sideboard" || lower == "sideboard:" || strings.HasPrefix(lower, "sb:") {
			break
		}

		qty := 1
		name := line
		if fields := strings.SplitN(line, " ", 2); len(fields) == 2 {
			token := strings.TrimSuffix(strings.ToLower(fields[0]), "x")
			if n, err := strconv.Atoi(token); err == nil {
				if n <= 0 {
					return nil, fmt.Errorf("invalid quantity on line %q", line)
				}
				qty = n
				name = strings.TrimSpace(fields[1])
			}
		}
		if name == "" {
			return nil, fmt.Errorf("missing card name on line %q", line)
		}

		entries = append(entries, DeckEntry{Name: name, Quantity: qty})
	}

	return entries, nil
}
