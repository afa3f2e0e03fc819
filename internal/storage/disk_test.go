package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()

	db := filepath.Join(dir, "recipes.db")
	if err := os.WriteFile(db, []byte("recipes"), 0644); err != nil {
		t.Fatal(err)
	}
	idx := filepath.Join(dir, "indices", "bleve")
	if err := os.MkdirAll(idx, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(idx, "store"), []byte("abc"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		paths []string
		want  int64
	}{
		{"database file", []string{db}, 7},
		{"index directory", []string{idx}, 3},
		{"file and directory", []string{db, idx}, 10},
		{"missing path skipped", []string{db, filepath.Join(dir, "missing")}, 7},
		{"empty path skipped", []string{"", idx}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DiskUsageBytes(tt.paths...)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %d bytes, want %d", got, tt.want)
			}
		})
	}
}
