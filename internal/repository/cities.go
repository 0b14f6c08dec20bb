package repository

import (
	"bufio"
	"os"
	"sort"
	"strings"

	"github.com/jojospausch-web/redact-clinical-german/internal/domain"
)

// CityRepository is a static lookup set of known German city names, loaded
// from a flat text file with one city per line.
type CityRepository struct {
	cities map[string]struct{}
	logger domain.Logger
}

// NewCityRepository loads the city database from path. A missing file yields
// an empty database rather than an error so pipelines without location
// anonymization still run.
func NewCityRepository(path string, logger domain.Logger) (*CityRepository, error) {
	repo := &CityRepository{
		cities: make(map[string]struct{}),
		logger: logger,
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("City database not found, location recognition disabled", "path", path)
			return repo, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		city := strings.TrimSpace(scanner.Text())
		if city != "" {
			repo.cities[city] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	logger.Debug("City database loaded", "path", path, "cities", len(repo.cities))
	return repo, nil
}

// NewCityRepositoryFromList builds a database from an in-memory list.
func NewCityRepositoryFromList(cities []string) *CityRepository {
	repo := &CityRepository{cities: make(map[string]struct{}, len(cities))}
	for _, city := range cities {
		repo.cities[city] = struct{}{}
	}
	return repo
}

// IsCity checks if name is a known German city.
func (r *CityRepository) IsCity(name string) bool {
	_, ok := r.cities[name]
	return ok
}

// Cities returns all known city names in deterministic order.
func (r *CityRepository) Cities() []string {
	out := make([]string, 0, len(r.cities))
	for city := range r.cities {
		out = append(out, city)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of known cities.
func (r *CityRepository) Len() int {
	return len(r.cities)
}
