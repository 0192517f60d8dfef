package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/bluele/gcache"
	gtfsrt "github.com/jamespfennell/gtfs/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

func testFeed(entityIDs ...string) *gtfsrt.FeedMessage {
	feed := &gtfsrt.FeedMessage{
		Header: &gtfsrt.FeedHeader{GtfsRealtimeVersion: proto.String("2")},
	}
	for _, id := range entityIDs {
		feed.Entity = append(feed.Entity, &gtfsrt.FeedEntity{Id: proto.String(id)})
	}
	return feed
}

func TestFeedCacheGetPut(t *testing.T) {
	clock := gcache.NewFakeClock()
	c := NewFeedCache(0, clock, nil)

	_, ok := c.GetFeed("gtfs:rt:TRAMBAIX")
	assert.False(t, ok)

	feed := testFeed("a", "b")
	c.PutFeed("gtfs:rt:TRAMBAIX", feed, 30*time.Second)

	got, ok := c.GetFeed("gtfs:rt:TRAMBAIX")
	require.True(t, ok)
	assert.Same(t, feed, got)
}

func TestFeedCacheExpiry(t *testing.T) {
	clock := gcache.NewFakeClock()
	c := NewFeedCache(4, clock, nil)

	c.PutFeed("gtfs:rt:TRAMBESOS", testFeed("a"), 30*time.Second)

	clock.Advance(29 * time.Second)
	_, ok := c.GetFeed("gtfs:rt:TRAMBESOS")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.GetFeed("gtfs:rt:TRAMBESOS")
	assert.False(t, ok)
}

func TestFeedCacheZeroTTLRemoves(t *testing.T) {
	c := NewFeedCache(4, gcache.NewFakeClock(), nil)

	c.PutFeed("k", testFeed("a"), time.Minute)
	c.PutFeed("k", testFeed("b"), 0)

	_, ok := c.GetFeed("k")
	assert.False(t, ok)
}

func TestFeedCacheReplacesWholesale(t *testing.T) {
	c := NewFeedCache(4, gcache.NewFakeClock(), nil)

	c.PutFeed("k", testFeed("a"), time.Minute)
	c.PutFeed("k", testFeed("b", "c"), time.Minute)

	got, ok := c.GetFeed("k")
	require.True(t, ok)
	assert.Len(t, got.GetEntity(), 2)
	assert.Equal(t, "b", got.GetEntity()[0].GetId())
}

func TestFeedCacheIsCapacityBounded(t *testing.T) {
	c := NewFeedCache(2, gcache.NewFakeClock(), nil)

	for i := 0; i < 3; i++ {
		c.PutFeed(fmt.Sprintf("k%d", i), testFeed("a"), time.Minute)
	}

	_, ok := c.GetFeed("k0")
	assert.False(t, ok)
	_, ok = c.GetFeed("k2")
	assert.True(t, ok)
}

func TestFeedCacheClear(t *testing.T) {
	c := NewFeedCache(2, gcache.NewFakeClock(), nil)
	c.PutFeed("k", testFeed("a"), time.Minute)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())

	_, ok := c.GetFeed("k")
	assert.False(t, ok)
}
