package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.APIURL != "http://localhost:8000/api" {
		t.Errorf("APIURL = %q, want default", cfg.APIURL)
	}
	if cfg.DefaultServer != "https://demo2.traccar.org" {
		t.Errorf("DefaultServer = %q, want %q", cfg.DefaultServer, "https://demo2.traccar.org")
	}
	if cfg.SessionStore != StoreBolt {
		t.Errorf("SessionStore = %q, want %q", cfg.SessionStore, StoreBolt)
	}
	if cfg.SessionBoltPath != "traccar-session.db" {
		t.Errorf("SessionBoltPath = %q, want default", cfg.SessionBoltPath)
	}
	if cfg.SessionRedisPrefix != "traccarclient:" {
		t.Errorf("SessionRedisPrefix = %q, want default", cfg.SessionRedisPrefix)
	}
	if cfg.SessionNamespace != "default" {
		t.Errorf("SessionNamespace = %q, want default", cfg.SessionNamespace)
	}
	if cfg.ServiceName != "traccar-client" {
		t.Errorf("ServiceName = %q, want traccar-client", cfg.ServiceName)
	}
	if cfg.TelemetryKafkaTopic != "traccar-client-telemetry" {
		t.Errorf("TelemetryKafkaTopic = %q, want default", cfg.TelemetryKafkaTopic)
	}
	if cfg.KafkaGroupID != "traccar-client-telemetry-worker" {
		t.Errorf("KafkaGroupID = %q, want default", cfg.KafkaGroupID)
	}
	if cfg.RequestTimeout() != 15*time.Second {
		t.Errorf("RequestTimeout = %v, want 15s", cfg.RequestTimeout())
	}
	if cfg.ChatRequestTimeout() != 60*time.Second {
		t.Errorf("ChatRequestTimeout = %v, want 60s", cfg.ChatRequestTimeout())
	}
	if cfg.OTLPInsecure {
		t.Error("OTLPInsecure should default to false")
	}
	if cfg.TelemetryKafkaBrokersList() != nil {
		t.Errorf("TelemetryKafkaBrokersList = %v, want nil", cfg.TelemetryKafkaBrokersList())
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("TRACCAR_API_URL", "https://fleet.example.com/api")
	os.Setenv("API_TIMEOUT", "5s")
	os.Setenv("SESSION_STORE", "Memory")
	os.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "https://fleet.example.com/api" {
		t.Errorf("APIURL = %q, want override", cfg.APIURL)
	}
	if cfg.RequestTimeout() != 5*time.Second {
		t.Errorf("RequestTimeout = %v, want 5s", cfg.RequestTimeout())
	}
	if cfg.SessionStore != StoreMemory {
		t.Errorf("SessionStore = %q, want normalized %q", cfg.SessionStore, StoreMemory)
	}
	if !cfg.OTLPInsecure {
		t.Error("OTLPInsecure should be true")
	}
}

func TestLoad_InvalidTimeouts(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"API_TIMEOUT", "soon"},
		{"API_TIMEOUT", "0s"},
		{"CHAT_TIMEOUT", "-1m"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			os.Clearenv()
			os.Setenv(tt.key, tt.value)
			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error %q should name %s", err, tt.key)
			}
		})
	}
}

func TestLoad_SessionStoreRequirements(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"unknown backend", map[string]string{"SESSION_STORE": "sqlite"}, "unknown SESSION_STORE"},
		{"redis without url", map[string]string{"SESSION_STORE": "redis"}, "REDIS_URL"},
		{"postgres without dsn", map[string]string{"SESSION_STORE": "postgres"}, "DATABASE_URL"},
		{"redis with url", map[string]string{"SESSION_STORE": "redis", "REDIS_URL": "redis://localhost:6379/0"}, ""},
		{"postgres with dsn", map[string]string{"SESSION_STORE": "postgres", "DATABASE_URL": "postgres://localhost/traccar"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.env {
				os.Setenv(k, v)
			}
			_, err := Load()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Load: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestRequestTimeout_InvalidFallsBack(t *testing.T) {
	cfg := &Config{APITimeout: "invalid", ChatTimeout: "-5s"}
	if cfg.RequestTimeout() != 15*time.Second {
		t.Errorf("RequestTimeout = %v, want 15s", cfg.RequestTimeout())
	}
	if cfg.ChatRequestTimeout() != 60*time.Second {
		t.Errorf("ChatRequestTimeout = %v, want 60s", cfg.ChatRequestTimeout())
	}
}

func TestTelemetryKafkaBrokersList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"localhost:9092", []string{"localhost:9092"}},
		{" a:9092 , ,b:9092 ", []string{"a:9092", "b:9092"}},
	}
	for _, tt := range tests {
		got := (&Config{TelemetryKafkaBrokers: tt.in}).TelemetryKafkaBrokersList()
		if len(got) != len(tt.want) {
			t.Errorf("TelemetryKafkaBrokersList(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("TelemetryKafkaBrokersList(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}

	var nilCfg *Config
	if nilCfg.TelemetryKafkaBrokersList() != nil {
		t.Error("nil config should return nil brokers")
	}
}
