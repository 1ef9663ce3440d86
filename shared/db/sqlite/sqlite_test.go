package sqlite

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewSQLiteConfig(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want string
	}{
		{name: "path from environment", env: "/tmp/env.db", want: "/tmp/env.db"},
		{name: "default path", want: defaultPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SQLITE_DB_PATH", tt.env)

			if got := NewSQLiteDB(NewSQLiteConfig()).dbPath; got != tt.want {
				t.Errorf("dbPath = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSQLiteDB_Lifecycle(t *testing.T) {
	database := NewSQLiteDB(&SQLiteConfig{Path: filepath.Join(t.TempDir(), "blog.db")})

	if err := database.Close(); err != nil {
		t.Errorf("Close() before Connect() error = %v", err)
	}

	if err := database.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if database.DB() == nil {
		t.Fatal("DB() = nil after Connect()")
	}
	if err := database.Connect(); err == nil {
		t.Error("second Connect() should fail")
	}

	if err := database.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if database.DB() != nil {
		t.Error("DB() should be nil after Close()")
	}
}

func TestSQLiteDB_CreatesDataDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	database := NewSQLiteDB(&SQLiteConfig{Path: filepath.Join(dir, "blog.db")})

	if err := database.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer database.Close()

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("data directory not created: %v", err)
	}
}

func TestSQLiteDB_DocumentsTableIsMigrated(t *testing.T) {
	database := NewSQLiteDB(&SQLiteConfig{Path: filepath.Join(t.TempDir(), "blog.db")})
	if err := database.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer database.Close()

	const body = `{"title":"Hello World"}`
	now := time.Now().UTC()

	_, err := database.DB().Exec(`
		INSERT INTO documents (database_id, collection_id, id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		"blog", "posts", "hello-world", body, now, now)
	if err != nil {
		t.Fatalf("insert document: %v", err)
	}

	var data string
	if err := database.DB().Get(&data, `SELECT data FROM documents WHERE id = ?`, "hello-world"); err != nil {
		t.Fatalf("select document: %v", err)
	}
	if data != body {
		t.Errorf("data = %q, want %q", data, body)
	}
}

func TestSQLiteDB_InMemory(t *testing.T) {
	database := NewSQLiteDB(&SQLiteConfig{Path: ":memory:"})
	if err := database.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer database.Close()

	// a second connection would see an empty database without the files table
	if got := database.DB().Stats().MaxOpenConnections; got != 1 {
		t.Errorf("MaxOpenConnections = %d, want 1", got)
	}

	var count int
	if err := database.DB().Get(&count, `SELECT COUNT(*) FROM files`); err != nil {
		t.Fatalf("files table not migrated: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}
