package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Squareczm/DocumentationTool/internal/common"
	"github.com/Squareczm/DocumentationTool/internal/model"
)

type fakeClient struct {
	err     func(call int) error
	reply   string
	prompts []string
	mu      sync.Mutex
}

func (f *fakeClient) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		if err := f.err(len(f.prompts)); err != nil {
			return "", err
		}
	}
	return f.reply, nil
}

func (f *fakeClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func testConfig() Config {
	return Config{
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
		CacheTTL:   time.Minute,
		RateLimit:  6000,
		Timeout:    time.Second,
	}
}

func testDoc(content string) model.Document {
	return model.Document{Path: "/inbox/a.md", Name: "a.md", Extension: ".md", Content: content}
}

func TestLabeler_LabelAndCache(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	client := &fakeClient{reply: `{"subject":"周会纪要","suggested_folder":"会议沟通","confidence":0.9}`}
	l := NewLabeler(client, testConfig(), nil)
	defer l.Close()

	ctx := context.Background()
	hint, err := l.Label(ctx, testDoc("本周会议"), []string{"会议沟通"})
	require.NoError(t, err)
	assert.Equal(t, "周会纪要", hint.Subject)
	assert.Equal(t, "会议沟通", hint.Category)

	again, err := l.Label(ctx, testDoc("本周会议"), []string{"会议沟通"})
	require.NoError(t, err)
	assert.Equal(t, hint, again)
	assert.Equal(t, 1, client.calls(), "second call is served from cache")

	_, err = l.Label(ctx, testDoc("另一份"), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, client.calls())
}

func TestLabeler_RetriesTransientErrors(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	client := &fakeClient{
		reply: `{"subject":"ok"}`,
		err: func(call int) error {
			if call < 3 {
				return common.Transient(errors.New("503"))
			}
			return nil
		},
	}
	l := NewLabeler(client, testConfig(), nil)
	defer l.Close()

	hint, err := l.Label(context.Background(), testDoc("x"), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", hint.Subject)
	assert.Equal(t, 3, client.calls())
}

func TestLabeler_UnparseableReplyFails(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	client := &fakeClient{reply: "I cannot help with that."}
	l := NewLabeler(client, testConfig(), nil)
	defer l.Close()

	_, err := l.Label(context.Background(), testDoc("x"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMaxRetries)
	assert.Equal(t, 3, client.calls())
}

func TestLabeler_BreakerOpens(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	client := &fakeClient{
		err: func(int) error { return common.Permanent(errors.New("401 unauthorized")) },
	}
	l := NewLabeler(client, testConfig(), nil, WithBreakerSettings(BreakerSettings{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      2,
		FailureThreshold: 0.5,
	}))
	defer l.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := l.Label(ctx, testDoc(string(rune('a'+i))), nil)
		require.Error(t, err)
		assert.NotErrorIs(t, err, common.ErrLabelerUnavailable)
	}

	_, err := l.Label(ctx, testDoc("c"), nil)
	assert.ErrorIs(t, err, common.ErrLabelerUnavailable)
	assert.Equal(t, 2, client.calls(), "open breaker short-circuits the provider")
}

func TestLabeler_ContextCanceled(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	client := &fakeClient{
		err: func(int) error { return common.Transient(errors.New("timeout")) },
	}
	l := NewLabeler(client, testConfig(), nil)
	defer l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Label(ctx, testDoc("x"), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHintCache(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	cache := newHintCache(50 * time.Millisecond)
	defer cache.Close()

	cache.set("k", model.LabelerHint{Subject: "s"})
	got, ok := cache.get("k")
	require.True(t, ok)
	assert.Equal(t, "s", got.Subject)
	assert.Equal(t, 1, cache.size())

	_, ok = cache.get("missing")
	assert.False(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := cache.get("k")
		return !ok
	}, time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool { return cache.size() == 0 }, time.Second, 10*time.Millisecond,
		"cleanup removes expired entries")
}

func TestRateLimiter(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	t.Run("burst then wait", func(t *testing.T) {
		rl := newRateLimiter(600)
		defer rl.Close()

		for i := 0; i < 600; i++ {
			require.True(t, rl.tryAcquire())
		}
		assert.False(t, rl.tryAcquire())

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, rl.wait(ctx), "a token is refilled every 100ms")
	})

	t.Run("context cancellation", func(t *testing.T) {
		rl := newRateLimiter(1)
		defer rl.Close()

		require.NoError(t, rl.wait(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, rl.wait(ctx), context.DeadlineExceeded)
	})
}
