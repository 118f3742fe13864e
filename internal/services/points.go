package services

import "strings"

// EcoPoints awarded to the booking owner per completed pickup, keyed by
// waste type. NGOs receive half, rounded down.
var wasteTypePoints = map[string]int{
	"e-waste":   100,
	"batteries": 100,
	"plastic":   50,
	"metal":     50,
	"paper":     25,
	"cardboard": 25,
	"clothes":   40,
	"textiles":  40,
}

const defaultWastePoints = 10

// CalculatePoints returns the EcoPoints the booking owner earns for a
// completed pickup of the given waste type. Matching is case-insensitive;
// unknown types earn the default.
func CalculatePoints(wasteType string) int {
	if points, ok := wasteTypePoints[strings.ToLower(strings.TrimSpace(wasteType))]; ok {
		return points
	}
	return defaultWastePoints
}

// NgoShare returns the EcoPoints credited to the NGO's account for a
// completed pickup, given the owner's award.
func NgoShare(points int) int {
	return points / 2
}
