package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Store.Backend != BackendBolt {
		t.Errorf("Expected default backend bolt, got %q", cfg.Store.Backend)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.HTTP.Port)
	}
	if cfg.Store.BoltPath == "" {
		t.Error("Expected a default bolt path")
	}
}

func TestLoadInvalidBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "cassandra")
	if _, err := Load(); err == nil {
		t.Fatal("Expected error for unknown backend")
	}
}

func TestLoadCouchbaseRequiresURL(t *testing.T) {
	t.Setenv("STORE_BACKEND", BackendCouchbase)
	t.Setenv("COUCHBASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("Expected error when COUCHBASE_URL is unset")
	}
}

func TestLoadCouchbaseConfig(t *testing.T) {
	t.Setenv("STORE_BACKEND", BackendCouchbase)
	t.Setenv("COUCHBASE_URL", "couchbase://db")
	t.Setenv("COUCHBASE_USERNAME", "clinic")
	t.Setenv("COUCHBASE_BUCKET", "records")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store.Couchbase.URL != "couchbase://db" || cfg.Store.Couchbase.Bucket != "records" {
		t.Errorf("Unexpected couchbase config %+v", cfg.Store.Couchbase)
	}
}

func TestLoadInvalidPort(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-port")
	if _, err := Load(); err == nil {
		t.Fatal("Expected error for unparseable port")
	}
}
