package limiter

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestAttemptWindow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	w := NewAttemptWindow(10, 15*time.Minute)
	w.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		assert.True(t, w.Allow("1.2.3.4"), "attempt %d", i+1)
	}
	assert.False(t, w.Allow("1.2.3.4"))
	assert.True(t, w.Allow("5.6.7.8"))

	now = now.Add(15 * time.Minute)
	assert.False(t, w.Allow("1.2.3.4"))

	now = now.Add(time.Millisecond)
	assert.True(t, w.Allow("1.2.3.4"))
	assert.Equal(t, 1, w.Prune())
	assert.Equal(t, 1, w.Len())
}

func TestMethodLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := NewMethodLimiter().AddBuckets(BucketRule{
		Key:          "/api/storage/login",
		FillInterval: time.Hour,
		Capacity:     2,
		Quantum:      1,
	})

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/api/storage/login?lang=en", nil)

	key := l.Key(c)
	assert.Equal(t, "/api/storage/login", key)

	bucket, ok := l.GetBucket(key)
	assert.True(t, ok)
	assert.Equal(t, int64(1), bucket.TakeAvailable(1))
	assert.Equal(t, int64(1), bucket.TakeAvailable(1))
	assert.Equal(t, int64(0), bucket.TakeAvailable(1))

	_, ok = l.GetBucket("/api/other")
	assert.False(t, ok)
}
