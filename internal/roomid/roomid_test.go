package roomid

import (
	"testing"
)

type fixedSource struct{ v int }

func (f fixedSource) Intn(n int) int { return f.v % n }

func TestGenerateShape(t *testing.T) {
	t.Parallel()

	id := Generate()
	if err := Validate(id); err != nil {
		t.Fatalf("generated id failed validation: %v", err)
	}
}

func TestGenerateUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := Generate()
		if seen[id] {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = true
	}
}

func TestGenerateWithRandSource(t *testing.T) {
	t.Parallel()

	id := GenerateWithRandSource(fixedSource{v: 7})
	if err := Validate(id); err != nil {
		t.Fatalf("id with injected source failed validation: %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid", "01hqv5fmxrwz3k8p2n9t4bcdef", false},
		{"too short", "abc", true},
		{"too long", "01hqv5fmxrwz3k8p2n9t4bcdefg", true},
		{"bad first char", "z1hqv5fmxrwz3k8p2n9t4bcdef", true},
		{"bad alphabet char", "01hqv5fmxrwz3k8p2n9t4bcdeO", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Validate(tt.id)
			if tt.wantErr && err == nil {
				t.Errorf("expected error for %q", tt.id)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error for %q: %v", tt.id, err)
			}
		})
	}
}
