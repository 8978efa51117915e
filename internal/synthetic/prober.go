// Package synthetic runs scheduled availability probes (http, api, tcp)
// and evaluates assertions against their outcomes. Browser tests run in an
// external driver and are not probed here; their results arrive through
// the collaborator boundary.
package synthetic

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/logseer/logseer/internal/datastore/entities"
	"github.com/logseer/logseer/internal/errors"
)

// maxBodyBytes caps how much of a probe response is retained for
// assertion evaluation.
const maxBodyBytes = 1 << 20

// Outcome is the raw result of one probe before assertions.
type Outcome struct {
	Success    bool
	StatusCode int
	Body       []byte
	Duration   time.Duration
	Err        error
}

// Prober executes one kind of synthetic test.
type Prober interface {
	Probe(ctx context.Context, cfg *entities.ProbeConfig, timeout time.Duration) *Outcome
}

// Registry maps test types to probers.
type Registry struct {
	probers map[string]Prober
}

// NewRegistry builds the default registry with http, api and tcp probers.
// Browser tests have no in-process prober.
func NewRegistry() *Registry {
	httpProber := &HTTPProber{}
	return &Registry{probers: map[string]Prober{
		entities.SyntheticTypeHTTP: httpProber,
		entities.SyntheticTypeAPI:  httpProber,
		entities.SyntheticTypeTCP:  &TCPProber{},
	}}
}

// Prober returns the prober for a test type.
func (r *Registry) Prober(testType string) (Prober, error) {
	p, ok := r.probers[testType]
	if !ok {
		return nil, errors.NewValidation("type", fmt.Sprintf("no prober for test type %q", testType))
	}
	return p, nil
}

// HTTPProber issues an HTTP request and captures status, body and timing.
// It serves both http and api test types; the difference is only in which
// assertions users attach.
type HTTPProber struct {
	// Client overrides the default client, used by tests.
	Client *http.Client
}

func (p *HTTPProber) Probe(ctx context.Context, cfg *entities.ProbeConfig, timeout time.Duration) *Outcome {
	started := time.Now()
	fail := func(err error) *Outcome {
		return &Outcome{Duration: time.Since(started), Err: err}
	}

	method := cfg.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if cfg.Body != "" {
		body = bytes.NewBufferString(cfg.Body)
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, method, cfg.URL, body)
	if err != nil {
		return fail(err)
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fail(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fail(err)
	}

	return &Outcome{
		Success:    resp.StatusCode < 400,
		StatusCode: resp.StatusCode,
		Body:       data,
		Duration:   time.Since(started),
	}
}

// TCPProber checks that a TCP connection can be established.
type TCPProber struct{}

func (p *TCPProber) Probe(ctx context.Context, cfg *entities.ProbeConfig, timeout time.Duration) *Outcome {
	started := time.Now()
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	duration := time.Since(started)
	if err != nil {
		return &Outcome{Duration: duration, Err: err}
	}
	conn.Close()
	return &Outcome{Success: true, Duration: duration}
}
