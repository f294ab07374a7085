package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linarqa/linarqa-web/pkg/config"
)

// fakeRedis keeps values in a map and interprets the window counting script.
type fakeRedis struct {
	data    map[string]string
	ttls    map[string]time.Duration
	evals   int
	evalErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	f.data[key] = fmt.Sprint(value)
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			n++
		}
		delete(f.data, key)
		delete(f.ttls, key)
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	f.evals++
	cmd := redis.NewCmd(ctx)
	if f.evalErr != nil {
		cmd.SetErr(f.evalErr)
		return cmd
	}
	var n int64
	fmt.Sscan(f.data[keys[0]], &n)
	n++
	f.data[keys[0]] = fmt.Sprint(n)
	if ms := args[0].(int64); n == 1 && ms > 0 {
		f.ttls[keys[0]] = time.Duration(ms) * time.Millisecond
	}
	cmd.SetVal(n)
	return cmd
}

func TestLocalEntryLifecycle(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	client := &Client{cmds: fake}

	key := client.LocalKey("sid-1", "jwt-token")
	require.NoError(t, client.Set(ctx, key, "tok", 10*time.Minute))
	assert.Equal(t, 10*time.Minute, fake.ttls[key])

	got, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "tok", got)

	require.NoError(t, client.Del(ctx, key))
	_, err = client.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNil)
	assert.NoError(t, client.Del(ctx))
}

func TestIncrWithTTLArmsWindowOnFirstHit(t *testing.T) {
	fake := newFakeRedis()
	client := &Client{cmds: fake}
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := client.IncrWithTTL(ctx, "lq:login:ip:10.0.0.1", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 3, fake.evals)
	assert.Equal(t, time.Minute, fake.ttls["lq:login:ip:10.0.0.1"])
}

func TestIncrWithTTLWrapsErrors(t *testing.T) {
	fake := newFakeRedis()
	fake.evalErr = errors.New("NOSCRIPT")
	client := &Client{cmds: fake}

	_, err := client.IncrWithTTL(context.Background(), "k", time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `count "k"`)
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	ctx := context.Background()
	assert.Error(t, client.Ping(ctx))
	assert.Error(t, client.Set(ctx, "k", "v", 0))
	_, err := client.IncrWithTTL(ctx, "k", time.Second)
	assert.Error(t, err)
	assert.NoError(t, client.Close())
}

func TestKeyLayout(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "lq:local:sid:app-mode", client.LocalKey("sid", "app-mode"))
	assert.Equal(t, "lq:session:sid", client.SessionKey("sid"))
	assert.Equal(t, "lq:local:app-mode", client.LocalKey(" ", "app-mode"))
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	assert.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{Address: "localhost:6379", PoolSize: 7, DialTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, time.Second, opts.DialTimeout)

	opts, err = optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6380/2", ReadTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, time.Second, opts.ReadTimeout)

	opts, err = optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6380", DB: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, opts.DB)
}
