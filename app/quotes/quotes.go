package quotes

import (
	"fmt"
	"math/rand"
	"os"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

var titleCaser = cases.Title(language.Spanish)

// Store holds the static per-character quote data, loaded once at startup.
type Store struct {
	quotes map[string][]string
	keys   []string
}

func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read quotes file: %w", err)
	}

	var quotes map[string][]string
	if err := yaml.Unmarshal(data, &quotes); err != nil {
		return nil, fmt.Errorf("failed to parse quotes file: %w", err)
	}

	keys := make([]string, 0, len(quotes))
	for key, list := range quotes {
		if len(list) == 0 {
			return nil, fmt.Errorf("character '%s' has no quotes", key)
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("quotes file is empty")
	}
	sort.Strings(keys)

	return &Store{quotes: quotes, keys: keys}, nil
}

// Random returns a random quote for the character, or for a random character
// when the name is empty or "random". The returned name is display-cased.
func (s *Store) Random(character string) (string, string, error) {
	key := character
	if key == "" || key == "random" {
		key = s.keys[rand.Intn(len(s.keys))]
	}

	list, ok := s.quotes[key]
	if !ok {
		return "", "", fmt.Errorf("character '%s' not available", character)
	}

	return titleCaser.String(key), list[rand.Intn(len(list))], nil
}

func (s *Store) Characters() []string {
	return s.keys
}
