package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setWarehouseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SNOWFLAKE_ACCOUNT", "xy12345")
	t.Setenv("SNOWFLAKE_USER", "careconnect")
	t.Setenv("SNOWFLAKE_PASSWORD", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setWarehouseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "COMPUTE_WH", cfg.Warehouse.Warehouse)
	assert.Equal(t, "MEDICAL_CORTEX_SEARCH_APP", cfg.Warehouse.Database)
	assert.Equal(t, "DATA", cfg.Warehouse.Schema)
	assert.Equal(t, 30*time.Second, cfg.Warehouse.LoginTimeout)

	assert.Equal(t, "MEDICAL_CORTEX_SEARCH_APP", cfg.Search.Database)
	assert.Equal(t, "DATA", cfg.Search.Schema)
	assert.Equal(t, "CC_SEARCH_SERVICE_CS", cfg.Search.Service)
	assert.Equal(t, 3, cfg.Search.Limit)
	assert.Equal(t, 360, cfg.Search.URLTTL)

	assert.Equal(t, 1500, cfg.Ingest.ChunkSize)
	assert.Equal(t, 100, cfg.Ingest.ChunkOverlap)

	assert.Equal(t, "memory", cfg.App.SessionStore)
	assert.Equal(t, "mixtral-8x7b", cfg.Catalog.DefaultModel)
	assert.Len(t, cfg.Catalog.Models, 9)
}

func TestLoadMissingCredentials(t *testing.T) {
	setWarehouseEnv(t)
	// t.Setenv above restores the originals after the test.
	os.Unsetenv("SNOWFLAKE_USER")
	os.Unsetenv("SNOWFLAKE_PASSWORD")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	setWarehouseEnv(t)
	t.Setenv("SNOWFLAKE_WAREHOUSE", "CHAT_WH")
	t.Setenv("SESSION_STORE", "Redis")
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("CORTEX_SEARCH_LIMIT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "CHAT_WH", cfg.Warehouse.Warehouse)
	assert.Equal(t, "redis", cfg.App.SessionStore)
	assert.Equal(t, 15*time.Minute, cfg.App.SessionTTL)
	assert.Equal(t, 3, cfg.Search.Limit)
}

func TestLoadCatalog(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantErr     bool
		wantModels  []string
		wantDefault string
		wantTTL     time.Duration
	}{
		{
			name:        "full file",
			body:        "models: [llama3-8b, mistral-large]\ndefault_model: mistral-large\ndocuments_ttl: 1m\n",
			wantModels:  []string{"llama3-8b", "mistral-large"},
			wantDefault: "mistral-large",
			wantTTL:     time.Minute,
		},
		{
			name:        "default model falls back to first",
			body:        "models: [reka-flash]\n",
			wantModels:  []string{"reka-flash"},
			wantDefault: "reka-flash",
			wantTTL:     5 * time.Minute,
		},
		{
			name:    "default model not listed",
			body:    "models: [reka-flash]\ndefault_model: gemma-7b\n",
			wantErr: true,
		},
		{
			name:    "broken yaml",
			body:    "models: [reka-flash\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "catalog.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))

			catalog, err := LoadCatalog(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModels, catalog.Models)
			assert.Equal(t, tt.wantDefault, catalog.DefaultModel)
			assert.Equal(t, "ALL", catalog.DefaultCategory)
			assert.Equal(t, tt.wantTTL, catalog.DocumentsTTL)
		})
	}
}
