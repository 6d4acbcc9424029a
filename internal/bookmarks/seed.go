package bookmarks

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed seed.json
var seedJSON []byte

// ExampleSpace returns the bundled example dataset used to seed a fresh install.
func ExampleSpace() (Space, error) {
	var data Data
	if err := json.Unmarshal(seedJSON, &data); err != nil {
		return Space{}, fmt.Errorf("decode example dataset: %w", err)
	}
	if len(data.Spaces) == 0 {
		return DefaultSpace(), nil
	}
	return data.Spaces[0], nil
}
