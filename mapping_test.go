package hairball_test

import (
	"path/filepath"
	"testing"

	"github.com/laenix/hairball"
)

func TestReaderMappingProjectsEveryEntity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.hairball")

	b, err := hairball.New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	names := []string{"alpha", "beta", "gamma"}
	for _, n := range names {
		b.AddEntity(hairball.Named(n))
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := hairball.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	mapping := hairball.IntoMapping(r, func(_ int, e hairball.EntityView) string {
		return e.Name
	})

	if got := mapping.Len(); got != len(names) {
		t.Fatalf("Len() = %d, want %d", got, len(names))
	}
	for i, want := range names {
		got, ok := mapping.Key(i)
		if !ok || got != want {
			t.Errorf("Key(%d) = %q, %v, want %q, true", i, got, ok, want)
		}
	}
	if _, ok := mapping.Key(len(names)); ok {
		t.Error("Key(out of range): ok = true, want false")
	}
}
