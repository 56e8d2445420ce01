// Package health runs a periodic reachability probe against the
// upstream service, so an outage shows up in the logs before the
// first user hits it.
package health

import (
	"context"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

type Probe struct {
	baseURL string
	client  *http.Client
	cron    *cron.Cron

	mu sync.Mutex
	up bool
}

func NewProbe(baseURL string, timeout time.Duration) *Probe {
	return &Probe{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		// Start optimistic so only an actual failure logs.
		up: true,
	}
}

// Start schedules the probe. Spec is a robfig/cron expression or a
// descriptor like "@every 15m".
func (p *Probe) Start(spec string) error {
	p.cron = cron.New()
	if _, err := p.cron.AddFunc(spec, p.check); err != nil {
		return err
	}
	p.cron.Start()
	log.Printf("[health] probing %s (%s)", p.baseURL, spec)
	return nil
}

func (p *Probe) Stop() {
	if p.cron != nil {
		ctx := p.cron.Stop()
		<-ctx.Done()
	}
}

// Up reports the result of the most recent check.
func (p *Probe) Up() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.up
}

func (p *Probe) check() {
	ctx, cancel := context.WithTimeout(context.Background(), p.client.Timeout)
	defer cancel()

	up := false
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL, nil)
	if err == nil {
		resp, err := p.client.Do(req)
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			up = resp.StatusCode < http.StatusInternalServerError
		}
	}

	p.mu.Lock()
	changed := up != p.up
	p.up = up
	p.mu.Unlock()

	if changed {
		if up {
			log.Printf("[health] upstream %s is reachable again", p.baseURL)
		} else {
			log.Printf("[health] upstream %s is unreachable", p.baseURL)
		}
	}
}
