package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/fekuna/stockinator-service/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextDelay(t *testing.T) {
	var got []time.Duration
	var d time.Duration
	for i := 0; i < 7; i++ {
		d = NextDelay(d, time.Second, 30*time.Second)
		got = append(got, d)
	}
	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
		16 * time.Second, 30 * time.Second, 30 * time.Second,
	}, got)
}

func TestCheck(t *testing.T) {
	var healthy atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("pong"))
	}))
	defer srv.Close()

	p := New(Config{URL: srv.URL, Timeout: time.Second}, srv.Client(), logger.NewNop())
	assert.Error(t, p.Check(context.Background()))

	healthy.Store(true)
	assert.NoError(t, p.Check(context.Background()))
}

func TestCheck_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	p := New(Config{URL: srv.URL, Timeout: 50 * time.Millisecond}, srv.Client(), logger.NewNop())
	start := time.Now()
	err := p.Check(context.Background())
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRun_ReportsFlips(t *testing.T) {
	var healthy atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	p := New(Config{
		URL:          srv.URL,
		Interval:     10 * time.Millisecond,
		InitialDelay: 5 * time.Millisecond,
		MaxDelay:     20 * time.Millisecond,
		Timeout:      time.Second,
	}, srv.Client(), logger.NewNop())

	var mu sync.Mutex
	var flips []bool
	p.OnChange(func(online bool) {
		mu.Lock()
		flips = append(flips, online)
		mu.Unlock()
	})
	snapshot := func() []bool {
		mu.Lock()
		defer mu.Unlock()
		return append([]bool(nil), flips...)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, p.Status().Online)
	require.Eventually(t, func() bool { return p.Status().ConsecutiveFailures >= 2 }, time.Second, 5*time.Millisecond)

	healthy.Store(true)
	require.Eventually(t, func() bool { return len(snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []bool{false, true}, snapshot())
	assert.True(t, p.Status().Online)
	assert.Equal(t, 0, p.Status().ConsecutiveFailures)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("prober did not stop")
	}
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := New(Config{URL: "http://127.0.0.1:0"}, nil, logger.NewNop())
	p.record(nil)

	r := gin.New()
	r.GET("/api/status", p.Handler())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var st Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.True(t, st.Online)
	assert.True(t, st.Checked)
}
