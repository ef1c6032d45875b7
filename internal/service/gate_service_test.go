package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
	"github.com/haierkeys/cloudnav-sync-service/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGate(kv *memKV, password string) *gateService {
	return NewGateService(kv, SecurityServiceConfig{Password: password}, metrics.New(), nil).(*gateService)
}

func TestGateVerify(t *testing.T) {
	g := newTestGate(newMemKV(), "s3cret")

	assert.True(t, g.RequiresAuth())
	assert.True(t, g.Verify("s3cret"))
	assert.False(t, g.Verify("s3cre"))
	assert.False(t, g.Verify(""))

	open := newTestGate(newMemKV(), "   ")
	assert.False(t, open.RequiresAuth())
	assert.True(t, open.Verify("anything"))
}

func TestGateIsExpired(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		name    string
		website string
		last    string
		want    bool
	}{
		{"default week, 8 days ago", "", ms(now.Add(-8 * day)), true},
		{"default week, 6 days ago", "", ms(now.Add(-6 * day)), false},
		{"permanent", `{"passwordExpiry":{"value":1,"unit":"permanent"}}`, ms(now.Add(-3650 * day)), false},
		{"no last auth time", "", "", false},
		{"invalid last auth time", "", "abc", false},
		{"zero last auth time", "", "0", false},
		{"two days policy", `{"passwordExpiry":{"value":2,"unit":"day"}}`, ms(now.Add(-3 * day)), true},
		{"value clamped to one", `{"passwordExpiry":{"value":0,"unit":"day"}}`, ms(now.Add(-25 * time.Hour)), true},
		{"month is 30 days", `{"passwordExpiry":{"value":1,"unit":"month"}}`, ms(now.Add(-29 * day)), false},
		{"year is 365 days", `{"passwordExpiry":{"value":1,"unit":"year"}}`, ms(now.Add(-366 * day)), true},
		{"broken website config uses default", `{oops`, ms(now.Add(-8 * day)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := newMemKV()
			if tt.website != "" {
				kv.data[domain.KeyWebsiteConfig] = tt.website
			}
			if tt.last != "" {
				kv.data[domain.KeyLastAuthTime] = tt.last
			}
			g := newTestGate(kv, "pw")

			got, err := g.IsExpired(context.Background(), now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func ms(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func TestGateAuthorize(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("open mode", func(t *testing.T) {
		g := newTestGate(newMemKV(), "")
		assert.NoError(t, g.Authorize(ctx, "", AuthorizeOptions{CheckExpiry: true}))
		assert.ErrorIs(t, g.Authorize(ctx, "", AuthorizeOptions{Required: true}), domain.ErrUnauthorized)
	})

	t.Run("wrong credential", func(t *testing.T) {
		g := newTestGate(newMemKV(), "pw")
		assert.ErrorIs(t, g.Authorize(ctx, "nope", AuthorizeOptions{}), domain.ErrUnauthorized)
	})

	t.Run("expired", func(t *testing.T) {
		kv := newMemKV()
		kv.data[domain.KeyLastAuthTime] = ms(now.Add(-8 * 24 * time.Hour))
		g := newTestGate(kv, "pw")
		assert.ErrorIs(t, g.Authorize(ctx, "pw", AuthorizeOptions{CheckExpiry: true}), domain.ErrExpired)
		// 不检查有效期的路径不受影响
		assert.NoError(t, g.Authorize(ctx, "pw", AuthorizeOptions{}))
	})

	t.Run("touches last auth time", func(t *testing.T) {
		kv := newMemKV()
		g := newTestGate(kv, "pw")
		g.now = func() time.Time { return now }
		require.NoError(t, g.Authorize(ctx, "pw", AuthorizeOptions{CheckExpiry: true}))
		assert.Equal(t, ms(now), kv.data[domain.KeyLastAuthTime])
	})
}

func TestGateCheckAuth(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	kv.data[domain.KeyLastAuthTime] = ms(time.Now().Add(-30 * 24 * time.Hour))
	g := newTestGate(kv, "pw")

	st, err := g.CheckAuth(ctx, "pw")
	require.NoError(t, err)
	assert.Equal(t, domain.AuthStatus{HasPassword: true, RequiresAuth: true, Expired: true}, *st)

	// 凭证错误时不泄露过期状态
	st, err = g.CheckAuth(ctx, "bad")
	require.NoError(t, err)
	assert.False(t, st.Expired)

	open := newTestGate(newMemKV(), "")
	st, err = open.CheckAuth(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, domain.AuthStatus{}, *st)
}

func TestGateLogin(t *testing.T) {
	ctx := context.Background()

	open := newTestGate(newMemKV(), "")
	res, err := open.Login(ctx, "1.1.1.1", "")
	require.NoError(t, err)
	assert.True(t, res.NoPasswordRequired)

	kv := newMemKV()
	g := newTestGate(kv, "pw")

	for i := 0; i < 10; i++ {
		_, err := g.Login(ctx, "1.1.1.1", "bad")
		require.ErrorIs(t, err, domain.ErrUnauthorized)
	}
	_, err = g.Login(ctx, "1.1.1.1", "pw")
	assert.ErrorIs(t, err, domain.ErrTooManyAttempts)

	// 其他 IP 不受影响
	res, err = g.Login(ctx, "2.2.2.2", "pw")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.NotEmpty(t, kv.data[domain.KeyLastAuthTime])
}

func TestExpiryDuration(t *testing.T) {
	day := 24 * time.Hour
	assert.Equal(t, 7*day, ExpiryDuration(domain.ExpiryPolicy{Value: 1, Unit: domain.ExpiryWeek}))
	assert.Equal(t, 60*day, ExpiryDuration(domain.ExpiryPolicy{Value: 2, Unit: domain.ExpiryMonth}))
	assert.Equal(t, day, ExpiryDuration(domain.ExpiryPolicy{Value: -3, Unit: domain.ExpiryDay}))
	assert.Equal(t, time.Duration(0), ExpiryDuration(domain.ExpiryPolicy{Value: 1, Unit: domain.ExpiryPermanent}))
}
