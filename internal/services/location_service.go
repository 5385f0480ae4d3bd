package services

import (
	"strings"
)

// LocationRate maps one serviceable location to its delivery fee.
type LocationRate struct {
	Name string  `json:"name"`
	Fee  float64 `json:"fee"`
}

// locationRates is the static rate table for the Bulan service area. Fees
// are in pesos and used verbatim when a location matches.
var locationRates = []LocationRate{
	{Name: "Centro", Fee: 40},
	{Name: "Zone 1 Poblacion", Fee: 40},
	{Name: "Zone 2 Poblacion", Fee: 40},
	{Name: "Zone 3 Poblacion", Fee: 45},
	{Name: "Zone 4 Poblacion", Fee: 45},
	{Name: "Zone 5 Poblacion", Fee: 45},
	{Name: "Zone 6 Poblacion", Fee: 45},
	{Name: "Zone 7 Poblacion", Fee: 49},
	{Name: "Zone 8 Poblacion", Fee: 49},
	{Name: "Aquino", Fee: 55},
	{Name: "Fabrica", Fee: 55},
	{Name: "Gate", Fee: 60},
	{Name: "Obrero", Fee: 60},
	{Name: "Managanaga", Fee: 70},
	{Name: "San Juan Bag-o", Fee: 70},
	{Name: "San Ramon", Fee: 75},
	{Name: "Sagrada", Fee: 80},
	{Name: "Somagongsong", Fee: 85},
}

// maxLocationMatches caps the result list offered for interactive
// selection.
const maxLocationMatches = 5

// LocationService resolves delivery fees from the static rate table.
type LocationService struct {
	rates   []LocationRate
	baseFee float64
}

// NewLocationService creates a LocationService with the built-in rate
// table. baseFee applies to locations the table does not cover.
func NewLocationService(baseFee float64) *LocationService {
	return &LocationService{
		rates:   locationRates,
		baseFee: baseFee,
	}
}

// Search returns up to five rate entries whose name contains the query,
// case-insensitively, in table order.
func (s *LocationService) Search(query string) []LocationRate {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	var matches []LocationRate
	for _, rate := range s.rates {
		if strings.Contains(strings.ToLower(rate.Name), query) {
			matches = append(matches, rate)
			if len(matches) == maxLocationMatches {
				break
			}
		}
	}
	return matches
}

// ResolveFee returns the delivery fee for a location: the first rate-table
// match, or the flat base fee when nothing matches.
func (s *LocationService) ResolveFee(location string) float64 {
	if matches := s.Search(location); len(matches) > 0 {
		return matches[0].Fee
	}
	return s.baseFee
}
