package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalLocker_SerializesSameKey(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Lock(ctx, "a1")
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, locker.held())
}

func TestLocalLocker_DifferentKeysDoNotBlock(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	releaseA, err := locker.Lock(ctx, "a1")
	require.NoError(t, err)
	defer releaseA()

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	releaseB, err := locker.Lock(ctx, "a2")
	require.NoError(t, err)
	releaseB()
}

func TestLocalLocker_ContextCancel(t *testing.T) {
	locker := NewLocalLocker()

	release, err := locker.Lock(context.Background(), "a1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "a1")
	require.ErrorIs(t, err, ErrNotAcquired)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release()
	assert.Equal(t, 0, locker.held())
}

// fakeRedis implements RedisClient with a map and the compare-and-delete script.
type fakeRedis struct {
	mu       sync.Mutex
	data     map[string]string
	setErr   error
	setCalls int
	evals    int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	cmd := redis.NewBoolCmd(ctx, "set", key, value, "nx")
	if f.setErr != nil {
		cmd.SetErr(f.setErr)
		return cmd
	}
	if _, exists := f.data[key]; exists {
		cmd.SetVal(false)
		return cmd
	}
	f.data[key] = value.(string)
	cmd.SetVal(true)
	return cmd
}

func (f *fakeRedis) Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evals++
	cmd := redis.NewCmd(ctx, "eval", script, keys, args)
	if f.data[keys[0]] == args[0].(string) {
		delete(f.data, keys[0])
		cmd.SetVal(int64(1))
		return cmd
	}
	cmd.SetVal(int64(0))
	return cmd
}

func TestRedisLocker_AcquireAndRelease(t *testing.T) {
	client := newFakeRedis()
	locker := NewRedisLocker(client, RedisOptions{Prefix: "grant:lock:", Retry: time.Millisecond}, zap.NewNop())

	release, err := locker.Lock(context.Background(), "a1")
	require.NoError(t, err)
	assert.Contains(t, client.data, "grant:lock:a1")

	release()
	release()
	assert.NotContains(t, client.data, "grant:lock:a1")
	assert.Equal(t, 1, client.evals)
}

func TestRedisLocker_WaitsForHolder(t *testing.T) {
	client := newFakeRedis()
	locker := NewRedisLocker(client, RedisOptions{Retry: time.Millisecond}, zap.NewNop())

	release, err := locker.Lock(context.Background(), "a1")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		second, err := locker.Lock(context.Background(), "a1")
		if err == nil {
			second()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first was held")
	case <-time.After(20 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock never acquired")
	}
}

func TestRedisLocker_TimesOut(t *testing.T) {
	client := newFakeRedis()
	client.data["lock:a1"] = "someone-else"
	locker := NewRedisLocker(client, RedisOptions{Retry: time.Millisecond}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Millisecond)
	defer cancel()
	_, err := locker.Lock(ctx, "a1")
	require.ErrorIs(t, err, ErrNotAcquired)
	assert.Greater(t, client.setCalls, 1)
	assert.Equal(t, "someone-else", client.data["lock:a1"])
}

func TestRedisLocker_ClientError(t *testing.T) {
	client := newFakeRedis()
	client.setErr = errors.New("connection refused")
	locker := NewRedisLocker(client, RedisOptions{}, nil)

	_, err := locker.Lock(context.Background(), "a1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotAcquired)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRedisLocker_ReleaseKeepsForeignToken(t *testing.T) {
	client := newFakeRedis()
	locker := NewRedisLocker(client, RedisOptions{}, nil)

	release, err := locker.Lock(context.Background(), "a1")
	require.NoError(t, err)
	client.data["lock:a1"] = "stolen-after-expiry"

	release()
	assert.Equal(t, "stolen-after-expiry", client.data["lock:a1"])
}
