package backend

import (
	"context"
	"testing"

	"github.com/LuizHUlmi/life-planner-sub000/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Config
		want    BackendType
		wantErr bool
	}{
		{
			name: "memory",
			cfg:  &config.Config{DataBackend: "memory"},
			want: MemoryBackend,
		},
		{
			name: "postgres",
			cfg:  &config.Config{DataBackend: "postgres", PostgresDSN: "postgres://x"},
			want: PostgresBackend,
		},
		{
			name:    "unknown backend",
			cfg:     &config.Config{DataBackend: "sheets"},
			wantErr: true,
		},
		{
			name:    "nil config",
			cfg:     nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAppConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromAppConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got.Type != tt.want {
				t.Errorf("FromAppConfig() type = %v, want %v", got.Type, tt.want)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory needs nothing", Config{Type: MemoryBackend}, false},
		{"sqlite needs path", Config{Type: SQLiteBackend}, true},
		{"sqlite with path", Config{Type: SQLiteBackend, SQLiteDBPath: "./x.db"}, false},
		{"postgres needs dsn", Config{Type: PostgresBackend}, true},
		{"postgres with dsn", Config{Type: PostgresBackend, PostgresDSN: "postgres://x"}, false},
		{"invalid type", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateMemoryStore(t *testing.T) {
	result, err := NewFactory(nil).CreateStore(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	if result.Store == nil {
		t.Fatal("store is nil")
	}
	if result.Cleanup != nil {
		t.Error("memory store should not need cleanup")
	}
}

func TestCreateStoreRejectsInvalidConfig(t *testing.T) {
	if _, err := NewFactory(nil).CreateStore(context.Background(), Config{Type: "sheets"}); err == nil {
		t.Fatal("expected error for invalid backend type")
	}
}
