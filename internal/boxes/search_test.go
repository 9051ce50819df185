package boxes

import "testing"

// TestFold verifies diacritics and case are normalized away.
func TestFold(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Boîte à Livres", "boite a livres"},
		{"Bibliothèque de rue", "bibliotheque de rue"},
		{"ALREADY plain", "already plain"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := fold(tc.in); got != tc.want {
			t.Errorf("fold(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// TestMatchName verifies the accent/case-insensitive contains match.
func TestMatchName(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  bool
	}{
		{"Boîte à Livres du Parc", "boite", true},
		{"Boîte à Livres du Parc", "BOÎTE", true},
		{"Boîte à Livres du Parc", "parc", true},
		{"Boîte à Livres du Parc", "gare", false},
		{"Bibliothèque partagée", "bibliotheque", true},
	}

	for _, tc := range cases {
		if got := matchName(tc.name, tc.query); got != tc.want {
			t.Errorf("matchName(%q, %q) = %v, want %v", tc.name, tc.query, got, tc.want)
		}
	}
}
