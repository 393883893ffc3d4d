// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package waitset_test

import (
	"math"
	"testing"
	"time"

	waitset "github.com/joeycumines/go-waitset"
	"github.com/joeycumines/go-waitset/msgqueue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQueues(t *testing.T, n int) []*msgqueue.Queue[int] {
	t.Helper()
	queues := make([]*msgqueue.Queue[int], n)
	for i := range queues {
		q, err := msgqueue.New[int]()
		require.NoError(t, err)
		t.Cleanup(func() { assert.NoError(t, q.Close()) })
		queues[i] = q
	}
	return queues
}

func newWaitSet(t *testing.T, capacity int) *waitset.WaitSet {
	t.Helper()
	ws, err := waitset.New(capacity)
	require.NoError(t, err)
	return ws
}

func tokens(t *testing.T, events []waitset.Event) []any {
	t.Helper()
	result := make([]any, 0, len(events))
	for _, ev := range events {
		assert.True(t, ev.Ready.Has(waitset.ReadyRead), ev.Ready)
		result = append(result, ev.Token)
	}
	return result
}

func TestWaitSet_queueScenario(t *testing.T) {
	ws := newWaitSet(t, 4)
	queues := newQueues(t, 2)
	q1, q2 := queues[0], queues[1]

	require.NoError(t, ws.Add(q1, waitset.ReadyRead, `q1`))
	require.NoError(t, ws.Add(q2, waitset.ReadyRead, `q2`))
	assert.Equal(t, 2, ws.Size())

	events, err := ws.WaitTimeout(0)
	require.NoError(t, err)
	assert.Empty(t, events)

	require.NoError(t, q1.Push(1))
	events, err = ws.Wait()
	require.NoError(t, err)
	assert.Equal(t, []any{`q1`}, tokens(t, events))

	require.NoError(t, q2.Push(2))
	events, err = ws.Wait()
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{`q1`, `q2`}, tokens(t, events))

	v, ok := q1.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	events, err = ws.WaitTimeout(100)
	require.NoError(t, err)
	assert.Equal(t, []any{`q2`}, tokens(t, events))

	ws.Remove(q1)
	ws.Remove(q2)
	assert.False(t, q1.IsAdded())
	assert.False(t, q2.IsAdded())
	require.NoError(t, ws.Close())
}

func TestWaitSet_queueRoundTrip(t *testing.T) {
	const n = 8
	ws := newWaitSet(t, n)
	queues := newQueues(t, n)
	for i, q := range queues {
		require.NoError(t, ws.Add(q, waitset.ReadyRead, i))
	}
	defer func() {
		for _, q := range queues {
			ws.Remove(q)
		}
		require.NoError(t, ws.Close())
	}()

	for _, subset := range [][]int{{0}, {7}, {1, 3, 5}, {0, 1, 2, 3, 4, 5, 6, 7}} {
		for _, i := range subset {
			require.NoError(t, queues[i].Push(i))
		}

		events, err := ws.WaitTimeout(1000)
		require.NoError(t, err)
		want := make([]any, len(subset))
		for j, i := range subset {
			want[j] = i
		}
		assert.ElementsMatch(t, want, tokens(t, events))

		for _, i := range subset {
			_, ok := queues[i].Pop()
			require.True(t, ok)
		}
		events, err = ws.WaitTimeout(0)
		require.NoError(t, err)
		assert.Empty(t, events)
	}
}

func TestWaitSet_queueDrainIsIdempotent(t *testing.T) {
	ws := newWaitSet(t, 1)
	q := newQueues(t, 1)[0]
	require.NoError(t, ws.Add(q, waitset.ReadyRead, nil))
	defer func() {
		ws.Remove(q)
		require.NoError(t, ws.Close())
	}()

	require.NoError(t, q.Push(1))
	events, err := ws.WaitTimeout(1000)
	require.NoError(t, err)
	require.Len(t, events, 1)

	_, ok := q.Pop()
	require.True(t, ok)
	_, ok = q.Pop()
	require.False(t, ok)

	events, err = ws.WaitTimeout(0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestWaitSet_queueCrossGoroutine(t *testing.T) {
	ws := newWaitSet(t, 1)
	q := newQueues(t, 1)[0]
	require.NoError(t, ws.Add(q, waitset.ReadyRead, `q`))
	defer func() {
		ws.Remove(q)
		require.NoError(t, ws.Close())
	}()

	pushed := make(chan error, 1)
	go func() {
		time.Sleep(time.Second)
		pushed <- q.Push(1)
	}()

	start := time.Now()
	events, err := ws.WaitTimeout(3000)
	elapsed := time.Since(start)
	require.NoError(t, err)
	require.NoError(t, <-pushed)

	assert.Equal(t, []any{`q`}, tokens(t, events))
	assert.GreaterOrEqual(t, elapsed, 900*time.Millisecond)
	assert.Less(t, elapsed, 2000*time.Millisecond)
}

func TestWaitSet_queueMaxTimeout(t *testing.T) {
	ws := newWaitSet(t, 1)
	q := newQueues(t, 1)[0]
	require.NoError(t, ws.Add(q, waitset.ReadyRead, `q`))
	defer func() {
		ws.Remove(q)
		require.NoError(t, ws.Close())
	}()

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = q.Push(1)
	}()

	events, err := ws.WaitTimeout(math.MaxUint32)
	require.NoError(t, err)
	assert.Equal(t, []any{`q`}, tokens(t, events))
}

func TestWaitSet_queueTimeoutLowerBound(t *testing.T) {
	ws := newWaitSet(t, 1)
	q := newQueues(t, 1)[0]
	require.NoError(t, ws.Add(q, waitset.ReadyRead, nil))
	defer func() {
		ws.Remove(q)
		require.NoError(t, ws.Close())
	}()

	for _, timeout := range []uint32{1, 15, 50} {
		start := time.Now()
		events, err := ws.WaitTimeout(timeout)
		elapsed := time.Since(start)
		require.NoError(t, err)
		assert.Empty(t, events)
		assert.GreaterOrEqual(t, elapsed, time.Duration(timeout)*time.Millisecond)
	}
	assert.Equal(t, uint64(3), ws.Stats().Timeouts)
}

func TestWaitSet_sizeInvariant(t *testing.T) {
	ws := newWaitSet(t, 2)
	queues := newQueues(t, 3)
	check := func() {
		assert.GreaterOrEqual(t, ws.Size(), 0)
		assert.LessOrEqual(t, ws.Size(), ws.Capacity())
	}
	check()
	for _, q := range queues {
		_ = ws.Add(q, waitset.ReadyRead, nil)
		check()
	}
	assert.Equal(t, 2, ws.Size())
	assert.False(t, queues[2].IsAdded())

	// moved between wait sets
	other := newWaitSet(t, 1)
	assert.ErrorIs(t, other.Add(queues[0], waitset.ReadyRead, nil), waitset.ErrAlreadyAdded)
	ws.Remove(queues[0])
	check()
	require.NoError(t, other.Add(queues[0], waitset.ReadyRead, nil))

	ws.Remove(queues[1])
	other.Remove(queues[0])
	require.NoError(t, ws.Close())
	require.NoError(t, other.Close())
}
