package sniff

import (
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestDetectOBJ(t *testing.T) {
	path := write(t, "cube.obj", "# a cube\nmtllib cube.mtl\nv 0 0 0\nv 1 0 0\nf 1 2 3\n")
	got, err := Detect(path)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if got != OBJ {
		t.Errorf("Detect = %v, want OBJ", got)
	}
}

func TestDetectCollada(t *testing.T) {
	path := write(t, "cube.dae", "<?xml version=\"1.0\"?>\n<COLLADA xmlns=\"...\"></COLLADA>\n")
	got, err := Detect(path)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if got != COLLADA {
		t.Errorf("Detect = %v, want COLLADA", got)
	}
}

func TestDetectUnknown(t *testing.T) {
	path := write(t, "random.bin", "this is just some unrelated text file\nwith no recognizable markers\n")
	got, err := Detect(path)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if got != Unknown {
		t.Errorf("Detect = %v, want Unknown", got)
	}
}
