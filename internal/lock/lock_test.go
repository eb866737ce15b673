package lock

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"onlineticket/internal/utils"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockSerializes(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	var mu sync.Mutex
	inside, maxInside := 0, 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "slots", time.Second)
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			mu.Lock()
			inside++
			if inside > maxInside {
				maxInside = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxInside)
}

func TestLocalLockHonoursContext(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "slots", time.Second)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "slots", time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// other names are independent
	other, err := l.Lock(context.Background(), "other", time.Second)
	require.NoError(t, err)
	other()
}

func TestLocalUnlockTwiceIsSafe(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "slots", time.Second)
	require.NoError(t, err)
	unlock()
	unlock()

	again, err := l.Lock(context.Background(), "slots", time.Second)
	require.NoError(t, err)
	again()
}

func newTestRedis(t *testing.T) (*Redis, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	l := NewRedis(db)
	l.Retry = time.Millisecond
	l.Token = func() string { return "tok-1" }
	return l, mock
}

func TestRedisLockAcquireAndRelease(t *testing.T) {
	l, mock := newTestRedis(t)

	mock.ExpectSetNX("lock:tickets:advertise", "tok-1", 5*time.Second).SetVal(true)
	mock.ExpectEval(releaseScript, []string{"lock:tickets:advertise"}, "tok-1").SetVal(int64(1))

	unlock, err := l.Lock(context.Background(), "tickets:advertise", 5*time.Second)
	require.NoError(t, err)
	unlock()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLockRetriesUntilFree(t *testing.T) {
	l, mock := newTestRedis(t)

	mock.ExpectSetNX("lock:slots", "tok-1", time.Second).SetVal(false)
	mock.ExpectSetNX("lock:slots", "tok-1", time.Second).SetVal(true)
	mock.ExpectEval(releaseScript, []string{"lock:slots"}, "tok-1").SetVal(int64(1))

	unlock, err := l.Lock(context.Background(), "slots", time.Second)
	require.NoError(t, err)
	unlock()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLockGivesUpAfterTTL(t *testing.T) {
	l, mock := newTestRedis(t)
	ttl := 5 * time.Millisecond
	for i := 0; i < 200; i++ {
		mock.ExpectSetNX("lock:slots", "tok-1", ttl).SetVal(false)
	}

	_, err := l.Lock(context.Background(), "slots", ttl)
	assert.True(t, errors.Is(err, ErrNotAcquired))
}

func TestRedisLockLogsFailedRelease(t *testing.T) {
	var buf bytes.Buffer
	utils.SetupLogger("info", "json", &buf)
	defer utils.SetupLogger("info", "text", nil)

	l, mock := newTestRedis(t)
	mock.ExpectSetNX("lock:slots", "tok-1", time.Second).SetVal(true)
	mock.ExpectEval(releaseScript, []string{"lock:slots"}, "tok-1").SetErr(errors.New("connection reset"))

	ctx := utils.WithRequestID(context.Background(), "rid-7")
	unlock, err := l.Lock(ctx, "slots", time.Second)
	require.NoError(t, err)
	unlock()

	assert.NoError(t, mock.ExpectationsWereMet())
	out := buf.String()
	assert.Contains(t, out, "connection reset")
	assert.Contains(t, out, `"module":"LOCK"`)
	assert.Contains(t, out, `"request_id":"rid-7"`)
}

func TestRedisLockSurfacesRedisErrors(t *testing.T) {
	l, mock := newTestRedis(t)
	mock.ExpectSetNX("lock:slots", "tok-1", time.Second).SetErr(errors.New("connection refused"))

	_, err := l.Lock(context.Background(), "slots", time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
