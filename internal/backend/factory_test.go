package backend

import (
	"context"
	"path/filepath"
	"testing"

	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/storage/memory"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	got, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Type != SQLiteBackend || got.SQLiteDBPath != "x.db" {
		t.Fatalf("unexpected backend config: %+v", got)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "a.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(log.Nop())

	res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.Repository.(*memory.Store); !ok {
		t.Fatalf("memory backend returned %T", res.Repository)
	}

	dbPath := filepath.Join(t.TempDir(), "nested", "fintrack.db")
	res, err = f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: dbPath})
	if err != nil {
		t.Fatal(err)
	}
	defer res.Cleanup()
	if err := res.Repository.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	if _, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend}); err == nil {
		t.Fatal("expected error for sqlite without a path")
	}
}
