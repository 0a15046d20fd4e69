package loader

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LoaderConfig
		wantErr bool
	}{
		{name: "default", cfg: DefaultLoaderConfig()},
		{name: "no window", cfg: DefaultLoaderConfig().WithWindow(0)},
		{name: "negative window", cfg: DefaultLoaderConfig().WithWindow(-1), wantErr: true},
		{name: "refresh at window", cfg: DefaultLoaderConfig().WithRefreshInterval(time.Second)},
		{name: "refresh below window", cfg: DefaultLoaderConfig().WithRefreshInterval(500 * time.Millisecond), wantErr: true},
		{name: "negative refresh", cfg: DefaultLoaderConfig().WithRefreshInterval(-time.Second), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewRefresher_Disabled(t *testing.T) {
	l := newTestLoader(t, newMockProvider(), time.Millisecond)

	r, err := NewRefresher(l)
	require.NoError(t, err)
	assert.Nil(t, r)

	_, err = NewRefresher(nil)
	assert.Error(t, err)
}

func TestRefresher_Loop(t *testing.T) {
	p := newMockProvider()
	l, err := New(p, DefaultLoaderConfig().WithWindow(5*time.Millisecond).WithRefreshInterval(20*time.Millisecond),
		WithLogger(quietLogger()))
	require.NoError(t, err)
	defer l.Close()

	r, err := NewRefresher(l)
	require.NoError(t, err)
	require.NotNil(t, r)

	require.NoError(t, r.Start(context.Background()))
	assert.Error(t, r.Start(context.Background()), "second Start must fail")

	assert.Eventually(t, func() bool {
		return len(p.callsOf("totals")) >= 2
	}, time.Second, 5*time.Millisecond)
	r.Stop()

	n := len(p.callsOf("totals"))
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, n, len(p.callsOf("totals")), "no refresh after Stop")

	stats, ok := l.Statistics().Value()
	require.True(t, ok)
	assert.True(t, stats.Scope.IsGlobal())
}

func TestRefresher_PullOnceUsesCurrentScope(t *testing.T) {
	p := newMockProvider()
	l, err := New(p, DefaultLoaderConfig().WithWindow(time.Millisecond).WithRefreshInterval(time.Hour),
		WithLogger(quietLogger()))
	require.NoError(t, err)
	defer l.Close()

	require.True(t, l.SetScope(context.Background(), Country("US")))
	l.Wait()

	r, err := NewRefresher(l)
	require.NoError(t, err)
	require.NoError(t, r.PullOnce(context.Background()))

	totals := p.callsOf("totals")
	require.Len(t, totals, 2)
	assert.Equal(t, "US", totals[1].code)
}
