package asset

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/dixieflatline76/Potd/util/log"
)

//go:embed data/*
var assets embed.FS

// StalenhagData is the name of the embedded Stålenhag collection index,
// regenerated by cmd/util/scrape_stalenhag.
const StalenhagData = "stalenhag.json"

// Manager manages the loading of embedded data files.
type Manager struct{}

// NewManager creates a new asset manager.
func NewManager() *Manager {
	return &Manager{}
}

// GetData loads and returns the raw bytes of an embedded data file by name.
func (am *Manager) GetData(name string) ([]byte, error) {
	if name == "" {
		return nil, fmt.Errorf("data file name is empty")
	}
	data, err := assets.ReadFile("data/" + name)
	if err != nil {
		log.Println("Error loading data file:", err)
		return nil, err
	}
	return data, nil
}

// GetJSON decodes an embedded JSON data file into v.
func (am *Manager) GetJSON(name string, v any) error {
	data, err := am.GetData(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Println("Error decoding data file:", err)
		return fmt.Errorf("decoding %s: %w", name, err)
	}
	return nil
}
