// Package gazetteer maps free-text delivery addresses to known administrative
// region names by ordered substring matching.
package gazetteer

import "strings"

// regions is the fixed list of known region names, checked in order with
// first-match-wins. Order is a priority contract: more specific names must
// precede names they contain ("RIACHO FUNDO II" before "RIACHO FUNDO",
// "SOBRADINHO II" before "SOBRADINHO"). Accented and unaccented spellings are
// listed explicitly rather than stripping diacritics, since addresses arrive
// in both forms.
var regions = []string{
	"RIACHO FUNDO II",
	"RIACHO FUNDO 2",
	"RIACHO FUNDO",
	"SOBRADINHO II",
	"SOBRADINHO 2",
	"SOBRADINHO",
	"ÁGUAS CLARAS",
	"AGUAS CLARAS",
	"TAGUATINGA",
	"CEILÂNDIA",
	"CEILANDIA",
	"SAMAMBAIA",
	"RECANTO DAS EMAS",
	"SANTA MARIA",
	"SÃO SEBASTIÃO",
	"SAO SEBASTIAO",
	"PLANALTINA",
	"PARANOÁ",
	"PARANOA",
	"ITAPOÃ",
	"ITAPOA",
	"GAMA",
	"GUARÁ",
	"GUARA",
	"NÚCLEO BANDEIRANTE",
	"NUCLEO BANDEIRANTE",
	"CANDANGOLÂNDIA",
	"CANDANGOLANDIA",
	"PARK WAY",
	"LAGO SUL",
	"LAGO NORTE",
	"VARJÃO",
	"VARJAO",
	"BRAZLÂNDIA",
	"BRAZLANDIA",
	"VICENTE PIRES",
	"ARNIQUEIRA",
	"ÁGUA QUENTE",
	"AGUA QUENTE",
	"SOL NASCENTE",
	"POR DO SOL",
	"CRUZEIRO",
	"SUDOESTE",
	"OCTOGONAL",
	"ASA SUL",
	"ASA NORTE",
	"NOROESTE",
	"ESTRUTURAL",
	"FERCAL",
	"SIA",
}

// Match returns the first region whose name occurs in the address,
// case-insensitively. It returns false when the address is empty or no
// region matches. No normalization is applied beyond case folding.
func Match(address string) (string, bool) {
	if address == "" {
		return "", false
	}

	upper := strings.ToUpper(address)
	for _, region := range regions {
		if strings.Contains(upper, region) {
			return region, true
		}
	}
	return "", false
}

// Regions returns the region list in priority order.
func Regions() []string {
	out := make([]string, len(regions))
	copy(out, regions)
	return out
}
