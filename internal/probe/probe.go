// Package probe tracks whether the hosted backend is reachable by polling
// one of its static assets.
package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/fekuna/stockinator-service/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Config struct {
	URL          string
	Interval     time.Duration
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Timeout      time.Duration
}

type Status struct {
	Online              bool      `json:"online"`
	Checked             bool      `json:"checked"`
	LastChecked         time.Time `json:"last_checked,omitempty"`
	LastError           string    `json:"last_error,omitempty"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
}

type Prober struct {
	cfg    Config
	client *http.Client
	logger logger.ZapLogger

	mu       sync.RWMutex
	status   Status
	onChange []func(online bool)
}

func New(cfg Config, client *http.Client, log logger.ZapLogger) *Prober {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Prober{cfg: cfg, client: client, logger: log}
}

// OnChange registers fn to be called whenever the online state flips,
// including the first result.
func (p *Prober) OnChange(fn func(online bool)) {
	p.mu.Lock()
	p.onChange = append(p.onChange, fn)
	p.mu.Unlock()
}

func (p *Prober) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// Check makes one attempt, aborted after the configured timeout.
func (p *Prober) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Cache-Control", "no-cache")
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("probe %s: status %d", p.cfg.URL, resp.StatusCode)
	}
	return nil
}

// Run polls until ctx is done. Healthy checks repeat at the steady
// interval; failures retry with a doubling delay up to MaxDelay.
func (p *Prober) Run(ctx context.Context) {
	var delay time.Duration
	for {
		err := p.Check(ctx)
		if ctx.Err() != nil {
			return
		}
		p.record(err)

		wait := p.cfg.Interval
		if err != nil {
			delay = NextDelay(delay, p.cfg.InitialDelay, p.cfg.MaxDelay)
			wait = delay
			p.logger.Debug("backend probe failed", zap.Duration("retry_in", wait), zap.Error(err))
		} else {
			delay = 0
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// NextDelay is the retry delay after a failure that followed prev. Zero
// prev starts the sequence.
func NextDelay(prev, initial, maxDelay time.Duration) time.Duration {
	if prev <= 0 {
		return initial
	}
	next := prev * 2
	if next > maxDelay {
		return maxDelay
	}
	return next
}

func (p *Prober) record(err error) {
	p.mu.Lock()
	was, checked := p.status.Online, p.status.Checked
	p.status.Checked = true
	p.status.LastChecked = time.Now()
	if err != nil {
		p.status.Online = false
		p.status.LastError = err.Error()
		p.status.ConsecutiveFailures++
	} else {
		p.status.Online = true
		p.status.LastError = ""
		p.status.ConsecutiveFailures = 0
	}
	online := p.status.Online
	hooks := append([]func(bool){}, p.onChange...)
	p.mu.Unlock()

	if checked && was == online {
		return
	}
	if online {
		p.logger.Info("backend is online")
	} else {
		p.logger.Warn("backend is offline", zap.Error(err))
	}
	for _, fn := range hooks {
		fn(online)
	}
}

// Handler serves the current status.
func (p *Prober) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, p.Status())
	}
}
