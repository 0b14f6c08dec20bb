package repository

import (
	"encoding/json"
	"os"

	"github.com/jojospausch-web/redact-clinical-german/internal/domain"
)

// FacilityEntry describes one known medical facility.
type FacilityEntry struct {
	Aliases []string `json:"aliases"`
	City    string   `json:"city"`
}

// FacilityDatabase holds the static dictionary of known German medical
// facilities: full names with aliases, plus common abbreviations (UKE, MHH).
type FacilityDatabase struct {
	Universities  map[string]FacilityEntry `json:"universities"`
	Abbreviations map[string]string        `json:"abbreviations"`
}

// NewFacilityDatabase loads the facility dictionary from a JSON file. A
// missing file yields an empty dictionary so runs without facility data
// still work.
func NewFacilityDatabase(path string, logger domain.Logger) (*FacilityDatabase, error) {
	db := &FacilityDatabase{
		Universities:  make(map[string]FacilityEntry),
		Abbreviations: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("Facility database not found, facility recognition disabled", "path", path)
			return db, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, db); err != nil {
		return nil, err
	}
	if db.Universities == nil {
		db.Universities = make(map[string]FacilityEntry)
	}
	if db.Abbreviations == nil {
		db.Abbreviations = make(map[string]string)
	}

	logger.Debug("Facility database loaded",
		"path", path,
		"facilities", len(db.Universities),
		"abbreviations", len(db.Abbreviations),
	)
	return db, nil
}
