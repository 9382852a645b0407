package reference

import (
	"strings"
	"sync"
	"testing"
)

func TestNew_Format(t *testing.T) {
	ref := New()

	if !strings.HasPrefix(ref, "BK") {
		t.Errorf("reference %q should start with BK", ref)
	}
	if !IsWellFormed(ref) {
		t.Errorf("generated reference %q should be well-formed", ref)
	}
	if ref == New() {
		t.Errorf("two consecutive references should differ")
	}
}

func TestNew_NoDuplicatesUnderLoad(t *testing.T) {
	const (
		workers       = 8
		perWorker     = 12500
		totalExpected = workers * perWorker
	)

	var mu sync.Mutex
	seen := make(map[string]struct{}, totalExpected)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			local := make([]string, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				local = append(local, New())
			}
			mu.Lock()
			for _, ref := range local {
				seen[ref] = struct{}{}
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != totalExpected {
		t.Errorf("expected %d unique references, got %d (duplicates detected)", totalExpected, len(seen))
	}
}

func TestIsWellFormed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"generated reference", New(), true},
		{"empty", "", false},
		{"wrong prefix", "XX123ABCDEFGH", false},
		{"lowercase body", "BKabcdefghijk", false},
		{"too short", "BK1", false},
		{"injection attempt", "BK{$ne:null}AB", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsWellFormed(tt.input); got != tt.want {
				t.Errorf("IsWellFormed(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
