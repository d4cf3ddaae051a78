package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/ScaffoldNet/internal/domain/scaffold"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/ScaffoldNet/pkg/errors"
)

type CacheTestSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	client *Client
	cache  *NetworkCache
}

func (s *CacheTestSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	rdb := goredis.NewClient(&goredis.Options{Addr: s.mr.Addr()})
	s.client = NewClientFromUniversal(rdb, logging.NewNopLogger())
	s.cache = NewNetworkCache(s.client, nil, WithPrefix("test:"), WithJitter(0), WithDefaultTTL(time.Hour))
}

func (s *CacheTestSuite) TearDownTest() {
	_ = s.client.Close()
}

func sampleNetwork() *scaffold.Network {
	net := scaffold.NewNetwork()
	net.Nodes = []scaffold.CanonicalKey{"c1ccccc1", "*c1ccccc1"}
	net.Counts = []int{1, 1}
	net.Edges = []scaffold.Edge{{BeginIdx: 0, EndIdx: 1, Type: scaffold.RemoveAttachmentEdge}}
	return net
}

func (s *CacheTestSuite) TestSetThenGet() {
	ctx := context.Background()
	s.Require().NoError(s.cache.Set(ctx, "fp1", sampleNetwork(), 0))

	s.True(s.mr.Exists("test:network:fp1"))
	s.Equal(time.Hour, s.mr.TTL("test:network:fp1"))

	got, ok, err := s.cache.Get(ctx, "fp1")
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal(sampleNetwork().Nodes, got.Nodes)
	s.Equal(sampleNetwork().Edges, got.Edges)
	idx, found := got.NodeIndex("*c1ccccc1")
	s.True(found)
	s.Equal(1, idx)
}

func (s *CacheTestSuite) TestGet_Miss() {
	got, ok, err := s.cache.Get(context.Background(), "missing")
	s.NoError(err)
	s.False(ok)
	s.Nil(got)
}

func (s *CacheTestSuite) TestGet_CorruptEntryIsDropped() {
	s.Require().NoError(s.mr.Set("test:network:bad", "{not json"))
	_, ok, err := s.cache.Get(context.Background(), "bad")
	s.NoError(err)
	s.False(ok)
	s.False(s.mr.Exists("test:network:bad"))
}

func (s *CacheTestSuite) TestSet_ExplicitTTLAndNil() {
	ctx := context.Background()
	s.Require().NoError(s.cache.Set(ctx, "fp2", sampleNetwork(), time.Minute))
	s.Equal(time.Minute, s.mr.TTL("test:network:fp2"))

	err := s.cache.Set(ctx, "fp3", nil, 0)
	s.True(pkgerrors.IsCode(err, pkgerrors.CodeInvalidParam))
}

func (s *CacheTestSuite) TestInvalidate() {
	ctx := context.Background()
	s.Require().NoError(s.cache.Set(ctx, "fp", sampleNetwork(), 0))
	s.Require().NoError(s.cache.Invalidate(ctx, "fp"))
	_, ok, err := s.cache.Get(ctx, "fp")
	s.NoError(err)
	s.False(ok)
}

func (s *CacheTestSuite) TestGetOrBuild_SingleFlight() {
	var calls int32
	release := make(chan struct{})
	build := func(context.Context) (*scaffold.Network, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return sampleNetwork(), nil
	}

	var wg sync.WaitGroup
	results := make([]*scaffold.Network, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			net, _, err := s.cache.GetOrBuild(context.Background(), "fp-sf", 0, build)
			s.NoError(err)
			results[i] = net
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	s.LessOrEqual(atomic.LoadInt32(&calls), int32(2))
	for _, r := range results {
		s.Require().NotNil(r)
		s.Len(r.Nodes, 2)
	}

	// the result is now cached
	_, hit, err := s.cache.GetOrBuild(context.Background(), "fp-sf", 0, build)
	s.NoError(err)
	s.True(hit)
}

func (s *CacheTestSuite) TestGetOrBuild_ErrorNotCached() {
	boom := pkgerrors.New(pkgerrors.ErrCodeLimitExceeded, "too big")
	_, _, err := s.cache.GetOrBuild(context.Background(), "fp-err", 0, func(context.Context) (*scaffold.Network, error) {
		return nil, boom
	})
	s.ErrorIs(err, boom)
	s.False(s.mr.Exists("test:network:fp-err"))
}

func (s *CacheTestSuite) TestClosedClient() {
	s.Require().NoError(s.client.Close())
	_, _, err := s.cache.Get(context.Background(), "fp")
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
	assert.ErrorIs(s.T(), s.client.Ping(context.Background()), ErrClientClosed)
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func TestJitterTTL(t *testing.T) {
	c := NewNetworkCache(nil, nil, WithJitter(0.1))
	for i := 0; i < 100; i++ {
		got := c.jitterTTL(time.Hour)
		require.GreaterOrEqual(t, got, 54*time.Minute)
		require.LessOrEqual(t, got, 66*time.Minute)
	}
	assert.Equal(t, time.Duration(0), c.jitterTTL(0))
}

//Personal.AI order the ending
