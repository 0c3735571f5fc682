package hospital

import (
	"strings"
	"testing"
)

func TestSearchFilter_CitySubstringMatch(t *testing.T) {
	clause, args := searchFilter(SearchParams{City: "pun"})

	if !strings.Contains(clause, "city ILIKE $1") {
		t.Errorf("city filter missing: %s", clause)
	}
	if len(args) != 1 || args[0] != "%pun%" {
		t.Errorf("city argument must be wildcard-wrapped, got %v", args)
	}
}

func TestSearchFilter_FacilitySubstringMatch(t *testing.T) {
	clause, args := searchFilter(SearchParams{Facility: "icu"})

	// Exact array membership would miss "ICU Ward"; the filter has to scan
	// the unnested facility names case-insensitively.
	if !strings.Contains(clause, "EXISTS (SELECT 1 FROM unnest(facilities) f WHERE f ILIKE $1)") {
		t.Errorf("facility filter not a substring scan: %s", clause)
	}
	if len(args) != 1 || args[0] != "%icu%" {
		t.Errorf("facility argument must be wildcard-wrapped, got %v", args)
	}
}

func TestSearchFilter_CombinedPlaceholderNumbering(t *testing.T) {
	clause, args := searchFilter(SearchParams{
		City:          "delhi",
		Facility:      "mri",
		AvailableOnly: true,
		Search:        "apollo",
	})

	for _, want := range []string{"$1", "$2", "$3", "available_beds > 0"} {
		if !strings.Contains(clause, want) {
			t.Errorf("clause missing %q: %s", want, clause)
		}
	}
	if len(args) != 3 {
		t.Fatalf("expected 3 arguments, got %d", len(args))
	}
}

func TestOrderClause(t *testing.T) {
	tests := []struct {
		sortBy string
		want   string
	}{
		{"availableBeds", ` ORDER BY available_beds DESC`},
		{"name", ` ORDER BY name ASC`},
		{"lastUpdated", ` ORDER BY last_updated DESC`},
		{"", ``},
		{"id; DROP TABLE hospital", ``},
	}
	for _, tt := range tests {
		if got := orderClause(tt.sortBy); got != tt.want {
			t.Errorf("orderClause(%q) = %q, want %q", tt.sortBy, got, tt.want)
		}
	}
}
