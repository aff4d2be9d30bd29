package territory

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldAccents strips combining marks so "République" and "Republique"
// produce the same dedup key.
var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var frenchTitle = cases.Title(language.French)

// NormalizeAddress builds the dedup key for a building: accent-folded,
// lowercased, single-spaced "number street".
func NormalizeAddress(streetNumber, streetName string) string {
	joined := strings.TrimSpace(streetNumber) + " " + strings.TrimSpace(streetName)
	folded, _, err := transform.String(foldAccents, joined)
	if err != nil {
		folded = joined
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// frenchParticles are lowercased inside title-cased street names
// ("Rue De La République" -> "Rue de la République").
var frenchParticles = []string{" De ", " Du ", " Des ", " La ", " Le ", " Les ", " L'", " D'"}

// TitleStreet converts an all-caps electoral-roll street name into the
// display form geocoding providers match best.
func TitleStreet(name string) string {
	name = frenchTitle.String(strings.ToLower(strings.TrimSpace(name)))
	for _, p := range frenchParticles {
		name = strings.ReplaceAll(name, p, strings.ToLower(p))
	}
	return name
}
