package config

import (
	"strings"
	"testing"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("http:\n  port: 8080\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Engine.URL != "http://localhost:9200" {
		t.Errorf("engine.url = %q", cfg.Engine.URL)
	}
	if cfg.Engine.PoolSize != 10 {
		t.Errorf("engine.pool_size = %d, want 10", cfg.Engine.PoolSize)
	}
	if cfg.Engine.InstallTemplate == nil || !*cfg.Engine.InstallTemplate {
		t.Error("install_template should default to true")
	}
	if cfg.Search.DefaultPageSize != 20 || cfg.Search.MaxPageSize != 100 {
		t.Errorf("unexpected search defaults: %+v", cfg.Search)
	}
}

func TestParse_ExplicitTemplateOff(t *testing.T) {
	cfg, err := Parse([]byte("http:\n  port: 8080\nengine:\n  install_template: false\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if *cfg.Engine.InstallTemplate {
		t.Error("install_template: false was overridden")
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("PARIAH_ENGINE_URL", "http://es.internal:9200")

	src := `
http:
  port: ${PARIAH_PORT:-9090}
engine:
  url: ${PARIAH_ENGINE_URL}
  pool_size: 4
logging:
  level: ${PARIAH_LOG_LEVEL:-warn}
`
	cfg, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.HTTP.Port)
	}
	if cfg.Engine.URL != "http://es.internal:9200" {
		t.Errorf("url = %q", cfg.Engine.URL)
	}
	if cfg.Engine.PoolSize != 4 {
		t.Errorf("pool_size = %d, want 4", cfg.Engine.PoolSize)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("level = %q, want warn", cfg.Logging.Level)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{HTTP: HTTPConfig{Port: 0}}
	cfg.ApplyDefaults()

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_EngineURL(t *testing.T) {
	for _, u := range []string{"localhost:9200", "ftp://es:21", "http://"} {
		t.Run(u, func(t *testing.T) {
			cfg := Config{HTTP: HTTPConfig{Port: 8080}, Engine: EngineConfig{URL: u}}
			cfg.ApplyDefaults()
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), "engine.url") {
				t.Fatalf("expected engine.url error, got %v", err)
			}
		})
	}
}

func TestValidate_NegativeRateLimit(t *testing.T) {
	cfg := Config{HTTP: HTTPConfig{Port: 8080}, Engine: EngineConfig{RateLimitRPS: -1}}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative rate limit")
	}
}

func TestValidate_PageSizes(t *testing.T) {
	cfg := Config{
		HTTP:   HTTPConfig{Port: 8080},
		Search: SearchConfig{DefaultPageSize: 500, MaxPageSize: 100},
	}
	cfg.ApplyDefaults()

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error when default page size exceeds max")
	}
	expected := "search.default_page_size (500) must not exceed search.max_page_size (100)"
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestParse_Malformed(t *testing.T) {
	if _, err := Parse([]byte("http: [unclosed")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestParse_APIKeys(t *testing.T) {
	t.Setenv("PARIAH_API_KEY", "s3cret")

	cfg, err := Parse([]byte("http:\n  port: 8080\nauth:\n  api_keys: [\"${PARIAH_API_KEY:-}\", static]\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cfg.Auth.APIKeys) != 2 || cfg.Auth.APIKeys[0] != "s3cret" || cfg.Auth.APIKeys[1] != "static" {
		t.Errorf("api_keys = %v", cfg.Auth.APIKeys)
	}
}

func TestLoad_ShippedConfigs(t *testing.T) {
	t.Setenv("PARIAH_ENGINE_URL", "http://localhost:9200")
	for _, env := range []string{"local", "prod"} {
		if _, err := Load(env); err != nil {
			t.Errorf("Load(%q): %v", env, err)
		}
	}
}
