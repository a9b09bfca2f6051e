package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

// ---------------------------------------------------------------------------
// Helper function tests
// ---------------------------------------------------------------------------

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string // nil = don't set; pointer to distinguish "" from unset
		fallback string
		want     string
	}{
		{name: "returns fallback when unset", key: "PAPAN_TEST_GETENV_UNSET", setVal: nil, fallback: "default", want: "default"},
		{name: "returns env value when set", key: "PAPAN_TEST_GETENV_SET", setVal: strPtr("custom"), fallback: "default", want: "custom"},
		{name: "returns fallback when empty string", key: "PAPAN_TEST_GETENV_EMPTY", setVal: strPtr(""), fallback: "default", want: "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got := getEnv(tc.key, tc.fallback)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback int
		want     int
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "PAPAN_TEST_INT_UNSET", setVal: nil, fallback: 42, want: 42},
		{name: "parses valid int", key: "PAPAN_TEST_INT_VALID", setVal: strPtr("8080"), fallback: 0, want: 8080},
		{name: "returns fallback for empty string", key: "PAPAN_TEST_INT_EMPTY", setVal: strPtr(""), fallback: 25, want: 25},
		{name: "errors on non-numeric", key: "PAPAN_TEST_INT_NAN", setVal: strPtr("abc"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvInt(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback time.Duration
		want     time.Duration
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "PAPAN_TEST_DUR_UNSET", setVal: nil, fallback: 15 * time.Second, want: 15 * time.Second},
		{name: "parses duration", key: "PAPAN_TEST_DUR_VALID", setVal: strPtr("45s"), fallback: 0, want: 45 * time.Second},
		{name: "parses compound duration", key: "PAPAN_TEST_DUR_COMPOUND", setVal: strPtr("1h30m"), fallback: 0, want: 90 * time.Minute},
		{name: "errors on bare number", key: "PAPAN_TEST_DUR_BARE", setVal: strPtr("30"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvDuration(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvList(t *testing.T) {
	t.Run("splits and trims", func(t *testing.T) {
		t.Setenv("PAPAN_TEST_LIST", "http://a.example, http://b.example ,,")
		got := getEnvList("PAPAN_TEST_LIST", nil)
		assert.Equal(t, []string{"http://a.example", "http://b.example"}, got)
	})

	t.Run("fallback when unset", func(t *testing.T) {
		got := getEnvList("PAPAN_TEST_LIST_UNSET", []string{"http://localhost:3000"})
		assert.Equal(t, []string{"http://localhost:3000"}, got)
	})
}

// ---------------------------------------------------------------------------
// Load and validate
// ---------------------------------------------------------------------------

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PAPAN_JWT_SECRET", "test-secret-key-at-least-32-chars-long")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 25, cfg.Database.MaxConns)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, 15*time.Second, cfg.Stream.Heartbeat)
	assert.Equal(t, 64, cfg.Stream.Buffer)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("PAPAN_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAPAN_JWT_SECRET")
}

func TestLoadRejectsShortJWTSecret(t *testing.T) {
	t.Setenv("PAPAN_JWT_SECRET", "too-short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 characters")
}

func TestLoadRejectsBadBounds(t *testing.T) {
	t.Setenv("PAPAN_JWT_SECRET", "test-secret-key-at-least-32-chars-long")

	t.Run("db port out of range", func(t *testing.T) {
		t.Setenv("PAPAN_DB_PORT", "99999")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PAPAN_DB_PORT")
	})

	t.Run("stream heartbeat must be positive", func(t *testing.T) {
		t.Setenv("PAPAN_STREAM_HEARTBEAT", "-1s")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PAPAN_STREAM_HEARTBEAT")
	})

	t.Run("stream buffer must be positive", func(t *testing.T) {
		t.Setenv("PAPAN_STREAM_BUFFER", "0")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PAPAN_STREAM_BUFFER")
	})
}

func TestDSN(t *testing.T) {
	t.Parallel()

	db := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "papan",
		Password: "pw",
		DBName:   "papan_prod",
		SSLMode:  "require",
	}
	assert.Equal(t,
		"host=db.internal port=5433 user=papan password=pw dbname=papan_prod sslmode=require",
		db.DSN())
}
