package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]string{"-token-secret", "s3cr3t"})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:80", cfg.Addr)
	assert.Equal(t, "http://localhost:80", cfg.Url())
	assert.Equal(t, "qforms.sqlite", cfg.DBUrl)
	assert.Equal(t, 120*time.Second, cfg.TokenTTL)
	assert.Equal(t, "disk", cfg.ImageBackend)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
}

func TestParseEnvironmentThenFlags(t *testing.T) {
	t.Setenv("QFORMS_PORT", "8081")
	t.Setenv("QFORMS_TOKEN_SECRET", "from-env")
	t.Setenv("QFORMS_DB_URL", "env.sqlite")

	cfg, err := Parse([]string{"-db-url", "flag.sqlite"})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8081", cfg.Addr)
	assert.Equal(t, "from-env", cfg.TokenSecret)
	assert.Equal(t, "flag.sqlite", cfg.DBUrl)
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing secret", nil},
		{"s3 without bucket", []string{"-token-secret", "x", "-image-backend", "s3"}},
		{"gcs without bucket", []string{"-token-secret", "x", "-image-backend", "gcs"}},
		{"unknown backend", []string{"-token-secret", "x", "-image-backend", "ftp"}},
		{"zero upload size", []string{"-token-secret", "x", "-max-upload-bytes", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.args)
			assert.Error(t, err)
		})
	}
}
