package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", "")
	t.Setenv("POSTGRES_DSN", "")
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != "5000" || cfg.ServiceName != "arbiter" {
		t.Fatalf("unexpected defaults: port=%q service=%q", cfg.HTTPPort, cfg.ServiceName)
	}
	if cfg.DecisionInterval != 10*time.Second || cfg.RouterTimeout != 5*time.Second || cfg.RetryDelay != 2*time.Second {
		t.Fatalf("unexpected durations: %+v", cfg)
	}
	if cfg.MinSamples != 10 || cfg.PromoteThreshold != 99 || cfg.RollbackThreshold != 95 || cfg.WeightIncrement != 0.10 {
		t.Fatalf("unexpected policy defaults: %+v", cfg)
	}
	if strings.Join(cfg.Services, ",") != "php,python" || strings.Join(cfg.DecisionServices, ",") != "php" {
		t.Fatalf("unexpected services: %v / %v", cfg.Services, cfg.DecisionServices)
	}
	if cfg.ShadowTopic != "shadow-requests" || cfg.StateUpdateGroup != "arbiter-db-group" {
		t.Fatalf("unexpected topics: %+v", cfg)
	}
	if cfg.DedupEnabled || cfg.ScoreMode != "combined" {
		t.Fatalf("unexpected scoring defaults: dedup=%v mode=%q", cfg.DedupEnabled, cfg.ScoreMode)
	}
	if err := cfg.ValidateIngest(); err == nil || !strings.Contains(err.Error(), "POSTGRES_DSN") {
		t.Fatalf("expected ingest validation to require POSTGRES_DSN, got %v", err)
	}
}

func TestLoadOverridesAndTrimsLists(t *testing.T) {
	t.Setenv("ENV_FILE", "")
	t.Setenv("ACCOUNTS_DRIVER", "memory")
	t.Setenv("SERVICES", " php , python ,php")
	t.Setenv("DECISION_SERVICES", "php,python")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("SCORE_MODE", "split")
	t.Setenv("DEDUP_ENABLED", "true")
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if strings.Join(cfg.Services, ",") != "php,python" {
		t.Fatalf("unexpected services: %v", cfg.Services)
	}
	if strings.Join(cfg.KafkaBrokers, ",") != "k1:9092,k2:9092" {
		t.Fatalf("unexpected brokers: %v", cfg.KafkaBrokers)
	}
	if cfg.ScoreMode != "split" || !cfg.DedupEnabled {
		t.Fatalf("expected overrides to apply: %+v", cfg)
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arbiter.env")
	content := "ACCOUNTS_DRIVER=memory\nMIN_SAMPLES=25\nHTTP_PORT=6000\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ENV_FILE", path)
	t.Setenv("HTTP_PORT", "7000")
	// godotenv sets variables without registering cleanup.
	t.Cleanup(func() {
		_ = os.Unsetenv("ACCOUNTS_DRIVER")
		_ = os.Unsetenv("MIN_SAMPLES")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MinSamples != 25 {
		t.Fatalf("expected MIN_SAMPLES from file, got %d", cfg.MinSamples)
	}
	if cfg.HTTPPort != "7000" {
		t.Fatalf("expected process env to win over file, got %q", cfg.HTTPPort)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cfg := Config{
		Services:          []string{"php"},
		DecisionServices:  []string{"python"},
		MinSamples:        0,
		PromoteThreshold:  90,
		RollbackThreshold: 95,
		WeightIncrement:   0,
		BalanceEpsilon:    0.0001,
		DecisionInterval:  time.Second,
		RetryDelay:        time.Second,
		RouterTimeout:     time.Second,
		ScoreMode:         "median",
		StateDriver:       DriverMemory,
		AccountsDriver:    DriverPostgres,
		MessagingDriver:   DriverMemory,
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{
		"DECISION_SERVICES",
		"MIN_SAMPLES",
		"ROLLBACK_THRESHOLD",
		"WEIGHT_INCREMENT",
		"SCORE_MODE",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %s in error, got %v", want, err)
		}
	}
}

func TestValidateIngestRequiresDriverSettings(t *testing.T) {
	cfg := Config{
		AccountsDriver:  DriverPostgres,
		MessagingDriver: DriverKafka,
	}
	err := cfg.ValidateIngest()
	if err == nil {
		t.Fatalf("expected ingest validation error")
	}
	for _, want := range []string{"POSTGRES_DSN", "KAFKA_BROKERS"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %s in error, got %v", want, err)
		}
	}

	cfg.PostgresDSN = "postgres://arbiter@localhost/bank"
	cfg.KafkaBrokers = []string{"kafka:9092"}
	if err := cfg.ValidateIngest(); err != nil {
		t.Fatalf("expected valid ingest config, got %v", err)
	}

	memoryOnly := Config{AccountsDriver: DriverMemory, MessagingDriver: DriverMemory}
	if err := memoryOnly.ValidateIngest(); err != nil {
		t.Fatalf("expected memory drivers to need nothing, got %v", err)
	}
}
