package main

import (
	"strings"
	"testing"
	"time"

	"github.com/debemdeboas/quill/internal/config"
	"gopkg.in/yaml.v3"
)

func TestExampleConfigRoundTrip(t *testing.T) {
	out, err := exampleConfig()
	if err != nil {
		t.Fatalf("exampleConfig failed: %v", err)
	}
	if !strings.HasPrefix(string(out), "# Quill") {
		t.Error("Expected the header comment")
	}

	for _, key := range []string{"server_url:", "autosave_delay:", "redis:", "archive:"} {
		if !strings.Contains(string(out), key) {
			t.Errorf("Expected %q in the example", key)
		}
	}

	var cfg config.Config
	if err := yaml.Unmarshal(out, &cfg); err != nil {
		t.Fatalf("Example does not parse: %v", err)
	}
	if cfg.Client.AutosaveDelay != 2*time.Second || cfg.Database.Driver != config.DriverSQLite {
		t.Errorf("Unexpected parsed defaults %+v", cfg.Client)
	}
}
