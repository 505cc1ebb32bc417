package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-kratos/kratos/v2/log"
)

// unsetenv removes keys for the duration of the test.  cleanenv treats a
// variable set to "" as a value, so t.Setenv(key, "") would skip defaults.
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	unsetenv(t, "CONFIG_PATH", "SEAT_FILE", "LEDGER_BACKEND", "EVENTS_BACKEND")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Ledger.Backend != LedgerFile {
		t.Errorf("Ledger.Backend = %q, want %q", cfg.Ledger.Backend, LedgerFile)
	}
	if cfg.Events.Backend != EventsNone {
		t.Errorf("Events.Backend = %q, want %q", cfg.Events.Backend, EventsNone)
	}
	if cfg.SeatFile != "data/seatplan.csv" {
		t.Errorf("SeatFile = %q", cfg.SeatFile)
	}
}

func TestLoadFromEnv(t *testing.T) {
	unsetenv(t, "CONFIG_PATH")
	t.Setenv("LEDGER_BACKEND", "MySQL")
	t.Setenv("EVENTS_BACKEND", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASS", "secret")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("DB_NAME", "flights")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Ledger.Backend != LedgerMySQL {
		t.Errorf("Ledger.Backend = %q, want %q", cfg.Ledger.Backend, LedgerMySQL)
	}
	if len(cfg.Events.KafkaBrokers) != 2 || cfg.Events.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("KafkaBrokers = %v", cfg.Events.KafkaBrokers)
	}
	want := "app:secret@tcp(db:3307)/flights?charset=utf8mb4&parseTime=true&loc=UTC"
	if got := cfg.Database.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"Ledger", "LEDGER_BACKEND", "sqlite"},
		{"Events", "EVENTS_BACKEND", "nats"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unsetenv(t, "CONFIG_PATH", "LEDGER_BACKEND", "EVENTS_BACKEND")
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil || !strings.Contains(err.Error(), "invalid configuration") {
				t.Errorf("Load() error = %v, want invalid configuration", err)
			}
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "seat_file: /srv/seats.csv\nledger:\n  backend: redis\n  redis_prefix: flight42\nredis:\n  addr: cache:6380\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)
	unsetenv(t, "LEDGER_BACKEND", "LEDGER_REDIS_PREFIX", "EVENTS_BACKEND", "SEAT_FILE", "REDIS_ADDR", "REDIS_HOST", "REDIS_PORT")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.SeatFile != "/srv/seats.csv" || cfg.Ledger.Backend != LedgerRedis || cfg.Ledger.RedisPrefix != "flight42" {
		t.Errorf("cfg = %+v", cfg)
	}
	if got := cfg.Redis.Address(); got != "cache:6380" {
		t.Errorf("Redis.Address() = %q, want cache:6380", got)
	}
}

func TestRedisAddress(t *testing.T) {
	tests := []struct {
		name string
		cfg  Redis
		want string
	}{
		{"Default", Redis{}, "localhost:6379"},
		{"Addr", Redis{Addr: "r:1"}, "r:1"},
		{"Host and port win", Redis{Addr: "r:1", Host: "h", Port: "2"}, "h:2"},
		{"Host without port", Redis{Addr: "r:1", Host: "h"}, "r:1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Address(); got != tt.want {
				t.Errorf("Address() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewLoggerFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	h := log.NewHelper(NewLogger(&buf, "seatbook", "warn"))
	h.Info("hidden")
	h.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "service=seatbook") {
		t.Errorf("warn record missing or untagged: %q", out)
	}
}
