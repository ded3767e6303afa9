//go:build integration

package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

type RedisTierIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *tcredis.RedisContainer
	rdb       *redis.Client
}

func (s *RedisTierIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := tcredis.Run(s.ctx, "redis:7-alpine")
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx)
	s.Require().NoError(err)

	opts, err := redis.ParseURL(connStr)
	s.Require().NoError(err)
	s.rdb = redis.NewClient(opts)
}

func (s *RedisTierIntegrationSuite) TearDownSuite() {
	if s.rdb != nil {
		s.rdb.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *RedisTierIntegrationSuite) SetupTest() {
	s.Require().NoError(s.rdb.FlushDB(s.ctx).Err())
}

func TestRedisTierIntegrationSuite(t *testing.T) {
	suite.Run(t, new(RedisTierIntegrationSuite))
}

func (s *RedisTierIntegrationSuite) TestInsertAndLookup() {
	tier := NewRedisTier(s.rdb, "test:", time.Hour)

	found, err := tier.Lookup(s.ctx, "https://a.example.com/1")
	s.NoError(err)
	s.False(found)

	s.NoError(tier.Insert(s.ctx, "https://a.example.com/1"))

	found, err = tier.Lookup(s.ctx, "https://a.example.com/1")
	s.NoError(err)
	s.True(found)

	ttl, err := s.rdb.TTL(s.ctx, tier.Key("https://a.example.com/1")).Result()
	s.NoError(err)
	s.Greater(ttl, 59*time.Minute)
}

func (s *RedisTierIntegrationSuite) TestEntriesExpire() {
	tier := NewRedisTier(s.rdb, "test:", 500*time.Millisecond)
	s.NoError(tier.Insert(s.ctx, "https://a.example.com/short"))

	s.Eventually(func() bool {
		found, err := tier.Lookup(s.ctx, "https://a.example.com/short")
		return err == nil && !found
	}, 5*time.Second, 100*time.Millisecond)
}

func (s *RedisTierIntegrationSuite) TestSharedAcrossRuns() {
	tier := NewRedisTier(s.rdb, "test:", time.Hour)

	first := New(testLogger(), NewMemoryTier(nil), tier)
	first.Add(s.ctx, "https://a.example.com/shared")

	second := New(testLogger(), NewMemoryTier(nil), tier)
	s.True(second.Exists(s.ctx, "https://a.example.com/shared"))
}
