package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotonda-go/rib/internal/af"
	"github.com/rotonda-go/rib/internal/epoch"
)

type sumMerger struct{}

func (sumMerger) Merge(existing, incoming int) int { return existing + incoming }

type lastWriteWinsMerger struct{}

func (lastWriteWinsMerger) Merge(existing, incoming int) int { return incoming }

func TestUpsertThenRetrieveRoundTrips(t *testing.T) {
	s := NewPrefixStore[int](32, nil, epoch.NewRegistry(), nil)
	id := af.NewPrefixID(af.IPv4, af.FromIPv4(0x0A000000), 8)

	require.NoError(t, s.Upsert(id, 42, lastWriteWinsMerger{}))
	got, ok := s.Retrieve(id)
	require.True(t, ok)
	assert.Equal(t, 42, got)
}

func TestUpsertDefaultRouteSucceeds(t *testing.T) {
	s := NewPrefixStore[int](32, nil, epoch.NewRegistry(), nil)
	id := af.NewPrefixID(af.IPv4, af.Bits128{}, 0)

	require.NoError(t, s.Upsert(id, 7, lastWriteWinsMerger{}), "length-0 upsert must succeed after the levelSpan fix")
	got, ok := s.Retrieve(id)
	require.True(t, ok)
	assert.Equal(t, 7, got)
}

func TestRetrieveMissReturnsFalse(t *testing.T) {
	s := NewPrefixStore[int](32, nil, epoch.NewRegistry(), nil)
	id := af.NewPrefixID(af.IPv4, af.FromIPv4(0x0A000000), 8)
	_, ok := s.Retrieve(id)
	assert.False(t, ok)
}

func TestUpsertMergesOnSecondWrite(t *testing.T) {
	s := NewPrefixStore[int](32, nil, epoch.NewRegistry(), nil)
	id := af.NewPrefixID(af.IPv4, af.FromIPv4(0x0A000000), 8)

	require.NoError(t, s.Upsert(id, 1, sumMerger{}))
	require.NoError(t, s.Upsert(id, 2, sumMerger{}))

	got, ok := s.Retrieve(id)
	require.True(t, ok)
	assert.Equal(t, 3, got, "the merger must combine the existing and incoming values")
}

func TestUpsertDistinctLengthsDoNotCollide(t *testing.T) {
	s := NewPrefixStore[int](32, nil, epoch.NewRegistry(), nil)
	short := af.NewPrefixID(af.IPv4, af.FromIPv4(0x0A000000), 8)
	long := af.NewPrefixID(af.IPv4, af.FromIPv4(0x0A000000), 16)

	require.NoError(t, s.Upsert(short, 1, lastWriteWinsMerger{}))
	require.NoError(t, s.Upsert(long, 2, lastWriteWinsMerger{}))

	gotShort, ok := s.Retrieve(short)
	require.True(t, ok)
	assert.Equal(t, 1, gotShort)

	gotLong, ok := s.Retrieve(long)
	require.True(t, ok)
	assert.Equal(t, 2, gotLong)
}

func TestWalkVisitsOnlyExactLength(t *testing.T) {
	s := NewPrefixStore[int](32, nil, epoch.NewRegistry(), nil)
	a := af.NewPrefixID(af.IPv4, af.FromIPv4(0x0A000000), 16)
	b := af.NewPrefixID(af.IPv4, af.FromIPv4(0x0A010000), 16)
	other := af.NewPrefixID(af.IPv4, af.FromIPv4(0x0A000000), 24)

	require.NoError(t, s.Upsert(a, 1, lastWriteWinsMerger{}))
	require.NoError(t, s.Upsert(b, 2, lastWriteWinsMerger{}))
	require.NoError(t, s.Upsert(other, 3, lastWriteWinsMerger{}))

	var seen []af.PrefixID
	s.Walk(16, func(id af.PrefixID, meta int) {
		seen = append(seen, id)
	})
	assert.Len(t, seen, 2)
	for _, id := range seen {
		assert.EqualValues(t, 16, id.Len)
	}
}

func TestConcurrentUpsertsNeverLoseAnUpdate(t *testing.T) {
	s := NewPrefixStore[int](32, nil, epoch.NewRegistry(), nil)
	id := af.NewPrefixID(af.IPv4, af.FromIPv4(0x0A000000), 8)

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, s.Upsert(id, 1, sumMerger{}))
		}()
	}
	wg.Wait()

	got, ok := s.Retrieve(id)
	require.True(t, ok)
	assert.Equal(t, writers, got, "every concurrent +1 must be reflected, no lost updates")
}
