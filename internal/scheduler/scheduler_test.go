package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFlusher struct {
	calls atomic.Int32
	err   error
}

func (f *countingFlusher) FlushIfDirty(context.Context) (bool, error) {
	f.calls.Add(1)
	return true, f.err
}

func TestScheduler_RunsFlushOnSchedule(t *testing.T) {
	f := &countingFlusher{}
	s := New(Options{FlushEvery: "@every 1s"}, f, nil, nil)
	require.NoError(t, s.Start(context.Background()))

	require.Eventually(t, func() bool { return f.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	before := f.calls.Load()
	s.Stop()
	assert.Equal(t, before+1, f.calls.Load(), "stop flushes once more")
}

func TestScheduler_BadSpec(t *testing.T) {
	s := New(Options{FlushEvery: "every now and then"}, &countingFlusher{}, nil, nil)
	assert.Error(t, s.Start(context.Background()))
}

func TestScheduler_PurgeOnceRunsEveryPurger(t *testing.T) {
	var tokens, sessions atomic.Int32
	s := New(Options{}, nil, map[string]Purger{
		"candidate_tokens": func(context.Context) (int64, error) {
			tokens.Add(1)
			return 2, nil
		},
		"employer_sessions": func(context.Context) (int64, error) {
			sessions.Add(1)
			return 0, errors.New("locked")
		},
	}, nil)

	s.PurgeOnce()
	assert.EqualValues(t, 1, tokens.Load())
	assert.EqualValues(t, 1, sessions.Load())
}

func TestScheduler_FlushErrorIsLogged(t *testing.T) {
	f := &countingFlusher{err: errors.New("disk full")}
	s := New(Options{}, f, nil, nil)
	s.FlushOnce()
	assert.EqualValues(t, 1, f.calls.Load())
}
