package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recipientYAML = "digest:\n  recipient: team@example.com\n"

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(recipientYAML + "ingest:\n  keywords: [AI]\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"AI"}, cfg.Ingest.Keywords)
	assert.Equal(t, []string{"JP"}, cfg.Ingest.Regions)
	assert.Equal(t, "ja", cfg.Feed.Language)
	assert.Equal(t, 3, cfg.Feed.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Feed.Retry.BaseDelay)
	assert.Equal(t, 24*time.Hour, cfg.Feed.FreshnessWindow)
	assert.Equal(t, 500*time.Millisecond, cfg.Feed.PacingDelay)
	assert.Equal(t, 2000, cfg.Ingest.DedupLookback)
	assert.Equal(t, 6*time.Hour, cfg.Ingest.DedupTTL)
	assert.Equal(t, 2000, cfg.Reputation.Lookback)
	assert.Equal(t, 2, cfg.Reputation.MinRatings)
	assert.Equal(t, 2.0, cfg.Reputation.MinMean)
	assert.Equal(t, 3, cfg.Digest.ItemsPerGroup)
	assert.Equal(t, []int{7}, cfg.Digest.DeliveryHours)
	assert.Equal(t, "local", cfg.Lock.Backend)
	assert.Equal(t, 30*time.Second, cfg.Lock.Wait)
	assert.Equal(t, 4, cfg.Slack.MinRating)
	assert.Equal(t, "Asia/Tokyo", cfg.Timezone)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestParse_CommaSeparatedLists(t *testing.T) {
	cfg, err := Parse([]byte(recipientYAML + `
ingest:
  keywords: ["AI, robotics", " ", "chips"]
  regions: ["JP,US"]
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"AI", "robotics", "chips"}, cfg.Ingest.Keywords)
	assert.Equal(t, []string{"JP", "US"}, cfg.Ingest.Regions)
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("NEWSAGENT_TEST_SECRET", "s3cret")

	cfg, err := Parse([]byte(recipientYAML + "http:\n  cron_secret: ${NEWSAGENT_TEST_SECRET}\n"))
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.HTTP.CronSecret)
}

func TestCampaignSet(t *testing.T) {
	cfg, err := Parse([]byte(recipientYAML + `
campaigns:
  - name: Expo
    keywords: ["expo, osaka"]
    start_date: "2026-10-01"
    end_date: "2026-10-31"
    email: expo@example.com
`))
	require.NoError(t, err)

	campaigns, err := cfg.CampaignSet()
	require.NoError(t, err)
	require.Len(t, campaigns, 1)

	c := campaigns[0]
	assert.Equal(t, "Expo", c.Name)
	assert.Equal(t, []string{"expo", "osaka"}, c.Keywords)
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), c.StartDate)
	assert.Equal(t, time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC), c.EndDate)
	assert.Equal(t, "expo@example.com", c.NotifyAddress)
}

func TestParse_InvalidCampaign(t *testing.T) {
	_, err := Parse([]byte(recipientYAML + `
campaigns:
  - name: Broken
    start_date: "2026-10-31"
    end_date: "2026-10-01"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "end_date before start_date")
}

func TestParse_RedisLockRequiresRedis(t *testing.T) {
	_, err := Parse([]byte(recipientYAML + "lock:\n  backend: redis\n"))
	require.Error(t, err)

	cfg, err := Parse([]byte(recipientYAML + "redis:\n  enabled: true\nlock:\n  backend: redis\n"))
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Lock.Backend)
}

func TestParse_InvalidDeliveryHour(t *testing.T) {
	_, err := Parse([]byte("digest:\n  recipient: team@example.com\n  delivery_hours: [7, 24]\n"))
	require.Error(t, err)
}

func TestParse_RequiresRecipient(t *testing.T) {
	_, err := Parse([]byte("ingest:\n  keywords: [AI]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "digest.recipient")

	_, err = Parse([]byte("digest:\n  recipient: \"  \"\n"))
	require.Error(t, err)
}

func TestParse_NegativeLockWait(t *testing.T) {
	_, err := Parse([]byte(recipientYAML + "lock:\n  wait: -1s\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lock.wait")
}
