package db

import (
	"testing"
	"testing/fstest"
)

func TestPendingFilesOrdersUpMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0002_apps.up.sql":    {Data: []byte("SELECT 2")},
		"m/0001_init.up.sql":    {Data: []byte("SELECT 1")},
		"m/0001_init.down.sql":  {Data: []byte("SELECT 0")},
		"m/README.md":           {Data: []byte("notes")},
		"m/0010_indexes.up.sql": {Data: []byte("SELECT 10")},
	}

	files, err := pendingFiles(fsys, "m")
	if err != nil {
		t.Fatalf("pendingFiles: %v", err)
	}

	want := []string{"0001_init.up.sql", "0002_apps.up.sql", "0010_indexes.up.sql"}
	if len(files) != len(want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, files[i], want[i])
		}
	}
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	files, err := pendingFiles(migrationFiles, "migrations")
	if err != nil {
		t.Fatalf("pendingFiles: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("expected embedded migrations")
	}
	if files[0] != "0001_init.up.sql" {
		t.Errorf("first migration = %s", files[0])
	}
}
