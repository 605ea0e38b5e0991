package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "github", cfg.SnapshotSource)
	assert.Equal(t, "CSSEGISandData", cfg.GitHubOwner)
	assert.Equal(t, "COVID-19", cfg.GitHubRepo)
	assert.Equal(t, "csse_covid_19_data/csse_covid_19_daily_reports", cfg.GitHubPath)
	assert.Equal(t, "master", cfg.GitHubRef)
	assert.Equal(t, 4, cfg.FetchConcurrency)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 128, cfg.FetchCacheSize)

	assert.Equal(t, time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC), cfg.CutoverDate)
	assert.Equal(t, []string{"US", "Canada"}, cfg.CutoverCountries)
	assert.Equal(t, "Hubei", cfg.EpicenterSubregion)
	assert.Equal(t, "Mainland China", cfg.EpicenterRegion)

	assert.False(t, cfg.KafkaEnabled)
	assert.True(t, cfg.ChartEnabled)
	assert.Equal(t, "charts", cfg.ChartDir)
	assert.Equal(t, "out", cfg.OutputDir)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoadCustomValues(t *testing.T) {
	t.Setenv("SNAPSHOT_SOURCE", "dir")
	t.Setenv("SNAPSHOT_DIR", "/srv/reports")
	t.Setenv("FETCH_CONCURRENCY", "8")
	t.Setenv("FETCH_TIMEOUT", "1m")
	t.Setenv("CUTOVER_DATE", "2020-04-15")
	t.Setenv("CUTOVER_COUNTRIES", "US, Canada , Australia")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092,broker-2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "case-counts")
	t.Setenv("CHART_ENABLED", "false")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dir", cfg.SnapshotSource)
	assert.Equal(t, "/srv/reports", cfg.SnapshotDir)
	assert.Equal(t, 8, cfg.FetchConcurrency)
	assert.Equal(t, time.Minute, cfg.FetchTimeout)
	assert.Equal(t, time.Date(2020, 4, 15, 0, 0, 0, 0, time.UTC), cfg.CutoverDate)
	assert.Equal(t, []string{"US", "Canada", "Australia"}, cfg.CutoverCountries)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "case-counts", cfg.KafkaSinkTopic)
	assert.False(t, cfg.ChartEnabled)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown snapshot source",
			env:     map[string]string{"SNAPSHOT_SOURCE": "ftp"},
			wantErr: "SNAPSHOT_SOURCE",
		},
		{
			name:    "fetch concurrency not a number",
			env:     map[string]string{"FETCH_CONCURRENCY": "many"},
			wantErr: "FETCH_CONCURRENCY",
		},
		{
			name:    "fetch concurrency out of range",
			env:     map[string]string{"FETCH_CONCURRENCY": "100"},
			wantErr: "FETCH_CONCURRENCY",
		},
		{
			name:    "negative fetch timeout",
			env:     map[string]string{"FETCH_TIMEOUT": "-5s"},
			wantErr: "FETCH_TIMEOUT",
		},
		{
			name:    "malformed cutover date",
			env:     map[string]string{"CUTOVER_DATE": "03/01/2020"},
			wantErr: "CUTOVER_DATE",
		},
		{
			name:    "kafka enabled without topic",
			env:     map[string]string{"KAFKA_ENABLED": "true", "KAFKA_SINK_TOPIC": " "},
			wantErr: "KAFKA_SINK_TOPIC",
		},
		{
			name:    "empty epicenter region",
			env:     map[string]string{"EPICENTER_REGION": " "},
			wantErr: "EPICENTER_REGION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
