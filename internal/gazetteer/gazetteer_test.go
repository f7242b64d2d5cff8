package gazetteer

import (
	"strings"
	"testing"
)

func TestMatch_KnownRegions(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    string
	}{
		{"plain", "QR 512 Conjunto 8, Samambaia Sul", "SAMAMBAIA"},
		{"lowercase", "quadra 204, águas claras", "ÁGUAS CLARAS"},
		{"unaccented variant", "Rua 12, Aguas Claras", "AGUAS CLARAS"},
		{"embedded in longer text", "Cond. Vida Nova, Setor Habitacional, Taguatinga Norte, DF", "TAGUATINGA"},
		{"accented", "Setor O, Ceilândia", "CEILÂNDIA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Match(tt.address)
			if !ok {
				t.Fatalf("Match(%q) = no match, want %q", tt.address, tt.want)
			}
			if got != tt.want {
				t.Errorf("Match(%q) = %q, want %q", tt.address, got, tt.want)
			}
		})
	}
}

func TestMatch_ListOrderPriority(t *testing.T) {
	// "RIACHO FUNDO II" contains "RIACHO FUNDO"; the more specific name must
	// win because it is listed first.
	got, ok := Match("QN 7C, Riacho Fundo II, Brasília")
	if !ok || got != "RIACHO FUNDO II" {
		t.Errorf("Match(Riacho Fundo II) = %q, %v; want RIACHO FUNDO II", got, ok)
	}

	got, ok = Match("QN 7C, Riacho Fundo, Brasília")
	if !ok || got != "RIACHO FUNDO" {
		t.Errorf("Match(Riacho Fundo) = %q, %v; want RIACHO FUNDO", got, ok)
	}

	got, ok = Match("Quadra 8, Sobradinho II")
	if !ok || got != "SOBRADINHO II" {
		t.Errorf("Match(Sobradinho II) = %q, %v; want SOBRADINHO II", got, ok)
	}
}

func TestMatch_NoMatch(t *testing.T) {
	tests := []struct {
		name    string
		address string
	}{
		{"empty", ""},
		{"unknown place", "Avenida Paulista 1000, São Paulo"},
		{"digits only", "70297-400"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, ok := Match(tt.address); ok {
				t.Errorf("Match(%q) = %q, want no match", tt.address, got)
			}
		})
	}
}

func TestRegions_SpecificBeforeGeneral(t *testing.T) {
	// Every region that is a substring of another must appear after it.
	list := Regions()
	for i, specific := range list {
		for j, general := range list {
			if i == j || specific == general {
				continue
			}
			if strings.Contains(specific, general) && j < i {
				t.Errorf("region %q (index %d) listed before more specific %q (index %d)", general, j, specific, i)
			}
		}
	}
}

func TestRegions_ReturnsCopy(t *testing.T) {
	list := Regions()
	list[0] = "MUTATED"
	if got := Regions()[0]; got == "MUTATED" {
		t.Error("Regions() exposed internal slice")
	}
}
