package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/khaleelElias/YA/internal/entities"
)

// LoadFixture reads an offline catalog from a JSON or YAML file holding a
// list of books. YAML uses the same keys as the JSON wire format.
func LoadFixture(path string) (*InMemory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog fixture: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse catalog fixture %s: %w", path, err)
		}
		// Re-encode so the json tags on Book apply.
		if data, err = json.Marshal(raw); err != nil {
			return nil, fmt.Errorf("convert catalog fixture %s: %w", path, err)
		}
	}

	var books []entities.Book
	if err := json.Unmarshal(data, &books); err != nil {
		return nil, fmt.Errorf("parse catalog fixture %s: %w", path, err)
	}
	for i, b := range books {
		if b.ID == "" {
			return nil, fmt.Errorf("catalog fixture %s: book %d has no id", path, i)
		}
	}
	return NewInMemory(books...), nil
}

// WriteFixture writes books as an indented JSON fixture.
func WriteFixture(path string, books []entities.Book) error {
	data, err := json.MarshalIndent(books, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog fixture: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create fixture directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
