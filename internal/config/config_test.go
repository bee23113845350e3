package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SURVEY_CACHE_TTL", "30s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.SurveyCacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Origins())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.GetKafkaBrokers())
	assert.Equal(t, "survey-events", cfg.Events.SurveyTopic)
	assert.False(t, cfg.IsProduction())
}
