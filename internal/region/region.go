// Package region maps ADVANsCEne location codes to release regions.
package region

import (
	"fmt"
	"strings"
)

// Region describes a release region known to the reference catalog.
type Region struct {
	Code   int
	Name   string
	Short  string
	Letter string
}

// table holds the location codes used by the ADVANsCEne feed. Codes are
// sparse; gaps are codes the feed has never used.
var table = []Region{
	{0, "Europe", "EUR", "E"},
	{1, "USA", "USA", "U"},
	{2, "Germany", "GER", "G"},
	{4, "Spain", "SPA", "S"},
	{5, "France", "FRA", "F"},
	{6, "Italy", "ITA", "I"},
	{7, "Japan", "JPN", "J"},
	{8, "Netherlands", "DUTCH", "N"},
	{19, "Australia", "AUS", "A"},
	{22, "Korea", "KOR", "K"},
}

var byCode = func() map[int]Region {
	m := make(map[int]Region, len(table))
	for _, r := range table {
		m[r.Code] = r
	}
	return m
}()

// Code resolves a region alias (full name, short code, or letter) to its
// location code. Matching is case-insensitive.
func Code(name string) (int, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, false
	}
	for _, r := range table {
		if strings.EqualFold(name, r.Name) || strings.EqualFold(name, r.Short) || strings.EqualFold(name, r.Letter) {
			return r.Code, true
		}
	}
	return 0, false
}

// Name returns the full region name for a location code.
// Unknown codes render as "Unknown: <code>".
func Name(code int) string {
	if r, ok := byCode[code]; ok {
		return r.Name
	}
	return fmt.Sprintf("Unknown: %d", code)
}

// ShortName returns the short region code for a location code.
func ShortName(code int) string {
	if r, ok := byCode[code]; ok {
		return r.Short
	}
	return fmt.Sprintf("Unknown: %d", code)
}

// Lookup returns the full region record for a location code.
func Lookup(code int) (Region, bool) {
	r, ok := byCode[code]
	return r, ok
}
