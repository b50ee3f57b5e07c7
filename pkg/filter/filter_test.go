package filter

import "testing"

func TestSubstringExcludes(t *testing.T) {
	tests := []struct {
		name   string
		filter Substring
		id     string
		want   bool
	}{
		{"EmptyFilterNeverExcludes", "", "com.google.guava:guava:33.0", false},
		{"EmptyFilterEmptyID", "", "", false},
		{"Match", "guava", "com.google.guava:guava:33.0", true},
		{"NoMatch", "netty", "com.google.guava:guava:33.0", false},
		{"WholeID", "A", "A", true},
		{"CaseSensitive", "Guava", "com.google.guava:guava:33.0", false},
		{"MatchesVersionPortion", ":33", "com.google.guava:guava:33.0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Excludes(tt.id); got != tt.want {
				t.Errorf("Substring(%q).Excludes(%q) = %v, want %v", tt.filter, tt.id, got, tt.want)
			}
		})
	}
}

func TestIsZero(t *testing.T) {
	if !Substring("").IsZero() {
		t.Error("empty filter should be zero")
	}
	if Substring("x").IsZero() {
		t.Error("non-empty filter should not be zero")
	}
}
