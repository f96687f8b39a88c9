package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	s := NewStore(Config{})

	first := s.GetOrCreate("abc")
	assert.Equal(t, "abc", first.ID)
	assert.Empty(t, first.History)
	assert.Nil(t, first.LastContext)

	s.GetOrCreate("abc")
	assert.Equal(t, 1, s.Len())
}

func TestHistoryIsASlidingWindow(t *testing.T) {
	s := NewStore(Config{MaxHistory: DefaultMaxHistory})

	for i := 1; i <= 9; i++ {
		s.AppendExchange("s", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i), QueryContext{QueryType: "general"})
		sess := s.GetOrCreate("s")
		require.LessOrEqual(t, len(sess.History), DefaultMaxHistory)
		if i >= 6 {
			require.Len(t, sess.History, DefaultMaxHistory)
		}
	}

	sess := s.GetOrCreate("s")
	// 9 exchanges, 6 retained: the three oldest pairs were evicted first.
	assert.Equal(t, Message{Role: RoleUser, Content: "q4"}, sess.History[0])
	assert.Equal(t, Message{Role: RoleAssistant, Content: "a4"}, sess.History[1])
	assert.Equal(t, Message{Role: RoleAssistant, Content: "a9"}, sess.History[11])
}

func TestRecentReturnsWindow(t *testing.T) {
	s := NewStore(Config{})
	for i := 1; i <= 5; i++ {
		s.AppendExchange("s", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i), QueryContext{})
	}

	got := s.Recent("s", DefaultWindow)
	want := []Message{
		{RoleUser, "q2"}, {RoleAssistant, "a2"},
		{RoleUser, "q3"}, {RoleAssistant, "a3"},
		{RoleUser, "q4"}, {RoleAssistant, "a4"},
		{RoleUser, "q5"}, {RoleAssistant, "a5"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Recent mismatch (-want +got):\n%s", diff)
	}

	assert.Len(t, s.Recent("s", 100), 10)
	assert.Nil(t, s.Recent("s", 0))
	assert.Nil(t, s.Recent("unknown", 8))
	assert.Equal(t, 1, s.Len(), "Recent does not create sessions")
}

func TestSnapshotsDoNotAlias(t *testing.T) {
	s := NewStore(Config{})
	s.AppendExchange("s", "q", "a", QueryContext{QueryType: "data_query", ResultCount: 3})

	sess := s.GetOrCreate("s")
	sess.History[0].Content = "mutated"
	sess.LastContext.ResultCount = 99

	recent := s.Recent("s", 2)
	recent[1].Content = "mutated"

	again := s.GetOrCreate("s")
	assert.Equal(t, "q", again.History[0].Content)
	assert.Equal(t, "a", again.History[1].Content)
	assert.Equal(t, 3, again.LastContext.ResultCount)
}

func TestLastContextIsOverwritten(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(Config{}, WithClock(clock.Now))

	_, ok := s.LastContext("s")
	assert.False(t, ok)

	s.AppendExchange("s", "q1", "a1", QueryContext{QueryType: "data_query", ResultCount: 4, Timestamp: clock.Now()})
	s.AppendExchange("s", "q2", "a2", QueryContext{QueryType: "general", Timestamp: clock.Now()})

	qc, ok := s.LastContext("s")
	require.True(t, ok)
	assert.Equal(t, QueryContext{QueryType: "general", Timestamp: clock.Now()}, qc)
}

func TestSweep(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(Config{TTL: time.Hour}, WithClock(clock.Now))

	s.GetOrCreate("old")
	clock.Advance(45 * time.Minute)
	s.GetOrCreate("fresh")
	clock.Advance(30 * time.Minute)

	assert.Equal(t, 1, s.Sweep(clock.Now()))
	assert.Equal(t, 1, s.Len())
	_, stillThere := s.LastContext("old")
	assert.False(t, stillThere)

	// Reads refresh last access.
	clock.Advance(50 * time.Minute)
	s.Recent("fresh", 8)
	clock.Advance(50 * time.Minute)
	assert.Zero(t, s.Sweep(clock.Now()))
}

func TestSweepDisabledWithoutTTL(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(Config{}, WithClock(clock.Now))
	s.GetOrCreate("s")

	clock.Advance(1000 * time.Hour)
	assert.Zero(t, s.Sweep(clock.Now()))
	assert.Equal(t, 1, s.Len())
}

func TestRunEvictsUntilCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := newFakeClock()
	s := NewStore(Config{TTL: time.Minute}, WithClock(clock.Now))
	s.GetOrCreate("s")
	clock.Advance(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx, time.Millisecond)
	}()

	require.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, time.Millisecond)
	cancel()
	<-done
}

func TestRunReturnsWhenDisabled(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewStore(Config{})
	s.Run(context.Background(), time.Millisecond)
}

func TestConcurrentSessions(t *testing.T) {
	s := NewStore(Config{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				s.AppendExchange(id, "q", "a", QueryContext{})
				s.Recent(id, DefaultWindow)
			}
		}(fmt.Sprintf("s%d", i))
	}
	wg.Wait()

	assert.Equal(t, 16, s.Len())
	assert.Len(t, s.GetOrCreate("s3").History, DefaultMaxHistory)
}
