package geo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContinent(t *testing.T) {
	tests := []struct {
		country string
		want    string
	}{
		{"US", NorthAmerica},
		{"us", NorthAmerica},
		{" de ", Europe},
		{"CN", Asia},
		{"BR", SouthAmerica},
		{"AU", Oceania},
		{"NG", Africa},
		{"AQ", Antarctica},
		{"United Kingdom", Europe},
		{"usa", NorthAmerica},
		{"ZZ", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Continent(tt.country), "Continent(%q)", tt.country)
	}
}

func TestIndexHasNoConflicts(t *testing.T) {
	seen := map[string]string{}
	for continent, codes := range continentCountries {
		for _, code := range strings.Fields(codes) {
			if prev, ok := seen[code]; ok {
				t.Errorf("country %s listed under %s and %s", code, prev, continent)
			}
			seen[code] = continent
			assert.Len(t, code, 2)
		}
	}
	assert.Equal(t, len(seen), len(countryToContinent))
}

func TestNormalizeCountry(t *testing.T) {
	assert.Equal(t, "GB", NormalizeCountry("england"))
	assert.Equal(t, "FR", NormalizeCountry(" fr"))
	assert.Equal(t, "ATLANTIS", NormalizeCountry("Atlantis"))
}
