package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/webpulse/webpulse/internal/domain"
)

type stubProvider struct {
	name  string
	text  string
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Complete(ctx context.Context, system, user string) (string, error) {
	s.calls++
	return s.text, s.err
}

func testChain(providers ...Provider) *Chain {
	return NewChain(ChainConfig{RateLimitRPM: 100000}, zap.NewNop(), providers...)
}

func TestChain_FirstProviderWins(t *testing.T) {
	first := &stubProvider{name: "anthropic", text: "from anthropic"}
	second := &stubProvider{name: "openai", text: "from openai"}

	comp, err := testChain(first, second).Complete(context.Background(), "sys", "user")

	require.NoError(t, err)
	assert.Equal(t, "from anthropic", comp.Text)
	assert.Equal(t, "anthropic", comp.Provider)
	assert.Zero(t, second.calls, "chain must not touch later providers after a success")
}

func TestChain_FallsThroughOnFailure(t *testing.T) {
	first := &stubProvider{name: "anthropic", err: errors.New("overloaded")}
	second := &stubProvider{name: "openai", text: "from openai"}

	comp, err := testChain(first, second).Complete(context.Background(), "sys", "user")

	require.NoError(t, err)
	assert.Equal(t, "openai", comp.Provider)
	assert.Equal(t, 1, first.calls)
}

func TestChain_AllProvidersFail(t *testing.T) {
	first := &stubProvider{name: "anthropic", err: errors.New("overloaded")}
	second := &stubProvider{name: "openai", err: errors.New("quota")}

	_, err := testChain(first, second).Complete(context.Background(), "sys", "user")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstreamVal))
}

func TestChain_BreakerSkipsFailingProvider(t *testing.T) {
	failing := &stubProvider{name: "anthropic", err: errors.New("down")}
	healthy := &stubProvider{name: "openai", text: "ok"}
	chain := NewChain(ChainConfig{RateLimitRPM: 100000, BreakerCooldown: time.Hour}, zap.NewNop(), failing, healthy)

	// Default threshold trips the breaker after three consecutive failures.
	for i := 0; i < 5; i++ {
		comp, err := chain.Complete(context.Background(), "sys", "user")
		require.NoError(t, err)
		assert.Equal(t, "openai", comp.Provider)
	}

	assert.Equal(t, 3, failing.calls, "tripped provider should no longer be attempted")
	stats := chain.Stats()
	assert.Equal(t, int64(3), stats["anthropic"].Failures)
	assert.Equal(t, int64(5), stats["openai"].Successes)
}

func TestChain_StaticTerminalNeverFails(t *testing.T) {
	failing := &stubProvider{name: "anthropic", err: errors.New("down")}
	chain := testChain(failing, NewStaticProvider(""))

	comp, err := chain.Complete(context.Background(), "sys", "user")

	require.NoError(t, err)
	assert.Equal(t, StaticName, comp.Provider)
	assert.False(t, comp.AIGenerated())
	assert.NotEmpty(t, comp.Text)
}

func TestChain_NoProviders(t *testing.T) {
	chain := testChain()
	assert.False(t, chain.Available())

	_, err := chain.Complete(context.Background(), "sys", "user")
	assert.Error(t, err)
}

func TestChain_CompleteInto(t *testing.T) {
	t.Run("decodes required keys", func(t *testing.T) {
		p := &stubProvider{name: "anthropic", text: "```json\n{\"summary\": \"fine\", \"quick_wins\": [\"a\"]}\n```"}
		var out struct {
			Summary   string   `json:"summary"`
			QuickWins []string `json:"quick_wins"`
		}

		provider, err := testChain(p).CompleteInto(context.Background(), "sys", "user", []string{"summary", "quick_wins"}, &out)

		require.NoError(t, err)
		assert.Equal(t, "anthropic", provider)
		assert.Equal(t, "fine", out.Summary)
	})

	t.Run("missing required key is an error", func(t *testing.T) {
		p := &stubProvider{name: "anthropic", text: `{"summary": "fine"}`}
		var out map[string]any

		_, err := testChain(p).CompleteInto(context.Background(), "sys", "user", []string{"summary", "quick_wins"}, &out)

		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrUpstreamVal))
	})
}
