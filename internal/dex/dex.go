// Package dex holds the fixed catalog facts the service relies on: the
// elemental types, the generation id ranges and the national dex size,
// plus the display formatting applied to entity data.
package dex

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TotalPokemon is the highest national dex number served.
const TotalPokemon = 1025

// Types lists the 18 elemental types in canonical order.
var Types = []string{
	"normal", "fire", "water", "electric", "grass", "ice",
	"fighting", "poison", "ground", "flying", "psychic", "bug",
	"rock", "ghost", "dragon", "dark", "steel", "fairy",
}

// IsType reports whether name is one of the 18 elemental types.
func IsType(name string) bool {
	return slices.Contains(Types, name)
}

// Generation is an inclusive national dex id range.
type Generation struct {
	Number int    `json:"number" doc:"Generation number (1-9)"`
	Name   string `json:"name" doc:"Display name"`
	Start  int    `json:"start" doc:"First national dex id"`
	End    int    `json:"end" doc:"Last national dex id"`
}

// Generations lists every generation in order.
var Generations = []Generation{
	{1, "Generation I (Kanto)", 1, 151},
	{2, "Generation II (Johto)", 152, 251},
	{3, "Generation III (Hoenn)", 252, 386},
	{4, "Generation IV (Sinnoh)", 387, 493},
	{5, "Generation V (Unova)", 494, 649},
	{6, "Generation VI (Kalos)", 650, 721},
	{7, "Generation VII (Alola)", 722, 809},
	{8, "Generation VIII (Galar)", 810, 905},
	{9, "Generation IX (Paldea)", 906, 1025},
}

// GenerationByNumber returns the generation with number n.
func GenerationByNumber(n int) (Generation, bool) {
	if n < 1 || n > len(Generations) {
		return Generation{}, false
	}
	return Generations[n-1], true
}

// ValidID reports whether id is within 1..TotalPokemon.
func ValidID(id int) bool {
	return id >= 1 && id <= TotalPokemon
}

// PreviousID returns the id before id, wrapping 1 to TotalPokemon.
func PreviousID(id int) int {
	if id <= 1 {
		return TotalPokemon
	}
	return id - 1
}

// NextID returns the id after id, wrapping TotalPokemon to 1.
func NextID(id int) int {
	if id >= TotalPokemon {
		return 1
	}
	return id + 1
}

// RandomID returns a uniformly chosen id in 1..TotalPokemon.
func RandomID(r *rand.Rand) int {
	if r == nil {
		return rand.IntN(TotalPokemon) + 1 //#nosec G404 -- not security sensitive
	}
	return r.IntN(TotalPokemon) + 1
}

// FormatNumber renders an id as "#025".
func FormatNumber(id int) string {
	return fmt.Sprintf("#%03d", id)
}

var upper = cases.Upper(language.English)

// DisplayName upper-cases the first letter of an upstream name: "mr-mime" -> "Mr-mime".
func DisplayName(name string) string {
	if name == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(name)
	return upper.String(string(r)) + name[size:]
}

// FormatHeight converts decimetres to "0.7 m".
func FormatHeight(decimetres int) string {
	return fmt.Sprintf("%.1f m", float64(decimetres)/10)
}

// FormatWeight converts hectograms to "6.9 kg".
func FormatWeight(hectograms int) string {
	return fmt.Sprintf("%.1f kg", float64(hectograms)/10)
}

// MaxStat is the scale used for stat bars.
const MaxStat = 255

var statNames = map[string]string{
	"hp":              "HP",
	"attack":          "Attack",
	"defense":         "Defense",
	"special-attack":  "Sp. Atk",
	"special-defense": "Sp. Def",
	"speed":           "Speed",
}

// StatDisplayName maps an upstream stat name to its label, falling back to the name.
func StatDisplayName(name string) string {
	if label, ok := statNames[strings.ToLower(name)]; ok {
		return label
	}
	return name
}

// StatBand buckets a base stat: low (<=50), medium (<=100), high.
func StatBand(value int) string {
	switch {
	case value <= 50:
		return "low"
	case value <= 100:
		return "medium"
	default:
		return "high"
	}
}

// StatPercent is value as a percentage of MaxStat, capped at 100.
func StatPercent(value int) float64 {
	if value <= 0 {
		return 0
	}
	pct := float64(value) / MaxStat * 100
	return min(pct, 100)
}

// StatTotal sums base stat values.
func StatTotal(values ...int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}
