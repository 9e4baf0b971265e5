package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithEnvMap(map[string]string{
			"API_FIRESTORE_PROJECT_ID": "gamex-test",
		}),
	)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Fatalf("unexpected read timeout %v", cfg.Server.ReadTimeout)
	}
	if cfg.Storefront.OrderTimeout != 10*time.Second {
		t.Fatalf("unexpected order timeout %v", cfg.Storefront.OrderTimeout)
	}
	if cfg.Events.ProjectID != "gamex-test" {
		t.Fatalf("expected events project to default to firestore project, got %q", cfg.Events.ProjectID)
	}
}

func TestLoadHonoursExplicitValues(t *testing.T) {
	cfg, err := Load(
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithEnvMap(map[string]string{
			"API_SERVER_PORT":              "9090",
			"API_FIRESTORE_PROJECT_ID":     "gamex-test",
			"API_EVENTS_PROJECT_ID":        "gamex-events",
			"API_EVENTS_ORDER_TOPIC":       "order-events",
			"API_STOREFRONT_ORDER_TIMEOUT": "3s",
		}),
	)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Fatalf("unexpected port %q", cfg.Server.Port)
	}
	if cfg.Events.ProjectID != "gamex-events" || cfg.Events.OrderTopic != "order-events" {
		t.Fatalf("unexpected events config %+v", cfg.Events)
	}
	if cfg.Storefront.OrderTimeout != 3*time.Second {
		t.Fatalf("unexpected order timeout %v", cfg.Storefront.OrderTimeout)
	}
}

func TestLoadReadsDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nexport API_FIRESTORE_PROJECT_ID=gamex-dotenv\nAPI_SERVER_PORT=\"7070\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(WithoutSystemEnv(), WithEnvFile(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Firestore.ProjectID != "gamex-dotenv" {
		t.Fatalf("unexpected project id %q", cfg.Firestore.ProjectID)
	}
	if cfg.Server.Port != "7070" {
		t.Fatalf("expected quotes stripped, got %q", cfg.Server.Port)
	}
}

func TestLoadExplicitMapWinsOverDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("API_FIRESTORE_PROJECT_ID=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(
		WithoutSystemEnv(),
		WithEnvFile(path),
		WithEnvMap(map[string]string{"API_FIRESTORE_PROJECT_ID": "from-map"}),
	)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Firestore.ProjectID != "from-map" {
		t.Fatalf("expected explicit map to win, got %q", cfg.Firestore.ProjectID)
	}
}

func TestLoadReportsMissingFields(t *testing.T) {
	_, err := Load(WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected validation error")
	}

	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %T", err)
	}

	fields := validation.Fields()
	found := false
	for _, field := range fields {
		if field == "Firestore.ProjectID" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected Firestore.ProjectID in %v", fields)
	}
}
