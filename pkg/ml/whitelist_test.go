package ml

import "testing"

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"payments-*", "payments-db", true},
		{"payments-*", "orders-db", false},
		{"order-svc", "order-svc", true},
		{"order-svc", "order-svc-v2", false},
		{"[", "anything", false},
	}

	for _, tt := range tests {
		got := matchesPattern(tt.pattern, tt.name)
		if got != tt.want {
			t.Errorf("matchesPattern(%q, %q) = %v, want %v", tt.pattern, tt.name, got, tt.want)
		}
	}
}
