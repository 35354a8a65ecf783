package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test_key")
	t.Setenv("RAZORPAY_KEY_SECRET", "rzp_test_secret")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.HTTPPort)
	assert.Equal(t, "legaleagle.db", cfg.DatabaseURL)
	assert.Equal(t, VectorBackendSQLite, cfg.VectorBackend)
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, int64(50*1024*1024), cfg.MaxUploadBytes())
	assert.Equal(t, 2, cfg.FreeChatLimit)
	assert.Equal(t, 2, cfg.FreeDocumentLimit)
	assert.Equal(t, int64(49900), cfg.PremiumPriceINR)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "@every 1h", cfg.SweepSchedule)
	assert.True(t, cfg.SweepEnabled)
	assert.InDelta(t, 0.3, cfg.LLMTemperature, 1e-6)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("VECTOR_BACKEND", "Qdrant")
	t.Setenv("QDRANT_URL", "http://localhost:6333")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("FREE_CHAT_LIMIT", "5")
	t.Setenv("TOP_K", "not-a-number")
	t.Setenv("SWEEP_ENABLED", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, VectorBackendQdrant, cfg.VectorBackend)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 5, cfg.FreeChatLimit)
	assert.Equal(t, 5, cfg.TopK)
	assert.False(t, cfg.SweepEnabled)
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing gemini key":  {"GEMINI_API_KEY": ""},
		"missing razorpay":    {"RAZORPAY_KEY_SECRET": ""},
		"qdrant without url":  {"VECTOR_BACKEND": "qdrant"},
		"unknown backend":     {"VECTOR_BACKEND": "pinecone"},
		"overlap above size":  {"CHUNK_SIZE": "100", "CHUNK_OVERLAP": "100"},
		"zero upload limit":   {"MAX_UPLOAD_MB": "0"},
		"negative free limit": {"FREE_DOCUMENT_LIMIT": "-1"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			t.Setenv("QDRANT_URL", "")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
