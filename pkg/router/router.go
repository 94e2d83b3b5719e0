// Package router executes a prioritized fallback chain of generative
// backends. Each chain entry carries its own cooldown deadline: a model that
// signals rate limiting is skipped until the deadline passes, while the rest
// of the chain keeps serving requests. The breaker and the chain-wide
// fallback are orthogonal and compose.
package router

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"

	"github.com/gen-labs/gen-assistant/pkg/models"
)

// User-visible fallback messages. The router never returns an error: total
// exhaustion and missing configuration degrade to these replies.
const (
	MsgNoCredential = "ERRO: Nenhuma chave de API configurada."
	MsgOverloaded   = "⚠️ O sistema está sobrecarregado. Tente novamente em instantes."
)

const (
	// DefaultCooldown is how long a rate-limited model stays out of the chain.
	DefaultCooldown = 120 * time.Second
	// DefaultTimeout bounds a single model call.
	DefaultTimeout = 60 * time.Second
)

// ErrRateLimited marks a rate-limit-class failure. Agents used in tests can
// return it directly; real SDK errors are recognized by classifyError.
var ErrRateLimited = errors.New("rate limited")

// Endpoint is one entry of the fallback chain, fastest/cheapest first.
type Endpoint struct {
	Name  string
	Agent models.Agent

	unavailableUntil time.Time
}

// Router holds the chain and the per-endpoint breaker state. It is shared
// across concurrently handled requests; cooldown reads and writes go through
// the mutex.
type Router struct {
	mu        sync.Mutex
	endpoints []*Endpoint

	cooldown    time.Duration
	timeout     time.Duration
	now         func() time.Time
	logger      *zap.Logger
	onAttempt   func(endpoint, outcome string)
	onExhausted func()

	configured bool
}

// Options configure a new Router.
type Options struct {
	Endpoints []*Endpoint
	Cooldown  time.Duration
	Timeout   time.Duration
	Logger    *zap.Logger
	// Configured reports whether a usable credential exists. When false the
	// router answers MsgNoCredential without touching the network.
	Configured bool
	// OnAttempt, when set, observes every attempt outcome
	// ("success", "rate_limited", "error", "skipped") for metrics.
	OnAttempt func(endpoint, outcome string)
	// OnExhausted, when set, fires once per request that ran out of usable
	// models.
	OnExhausted func()
}

func New(opts Options) *Router {
	cooldown := opts.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	onAttempt := opts.OnAttempt
	if onAttempt == nil {
		onAttempt = func(string, string) {}
	}
	onExhausted := opts.OnExhausted
	if onExhausted == nil {
		onExhausted = func() {}
	}
	return &Router{
		endpoints:   opts.Endpoints,
		cooldown:    cooldown,
		timeout:     timeout,
		now:         time.Now,
		logger:      logger,
		onAttempt:   onAttempt,
		onExhausted: onExhausted,
		configured:  opts.Configured,
	}
}

// SetConfigured flips credential availability at runtime (the customer can
// save a key while the process is running).
func (r *Router) SetConfigured(ok bool) {
	r.mu.Lock()
	r.configured = ok
	r.mu.Unlock()
}

// SetEndpoints replaces the chain. Key activation rebuilds the agents with
// the new credential; in-flight requests keep the chain they started with.
func (r *Router) SetEndpoints(eps []*Endpoint) {
	r.mu.Lock()
	r.endpoints = eps
	r.mu.Unlock()
}

// attemptResult makes the chain loop a plain iteration over values instead of
// nested error handling.
type attemptResult struct {
	output      string
	ok          bool
	rateLimited bool
	err         error
}

// Generate walks the chain in priority order and returns the first successful
// output. It never fails: rate-limited endpoints open their breaker and the
// next model is tried; transient errors are logged and skipped; exhaustion
// returns the fixed overload message. An optional image is attached to every
// attempt.
func (r *Router) Generate(ctx context.Context, prompt string, image *models.File) string {
	r.mu.Lock()
	if !r.configured {
		r.mu.Unlock()
		return MsgNoCredential
	}
	endpoints := r.endpoints
	r.mu.Unlock()

	for _, ep := range endpoints {
		if r.coolingDown(ep) {
			r.onAttempt(ep.Name, "skipped")
			continue
		}

		res := r.attempt(ctx, ep, prompt, image)
		switch {
		case res.ok:
			r.onAttempt(ep.Name, "success")
			return res.output
		case res.rateLimited:
			r.openBreaker(ep)
			r.onAttempt(ep.Name, "rate_limited")
			r.logger.Warn("model rate limited, cooling down",
				zap.String("model", ep.Name),
				zap.Duration("cooldown", r.cooldown))
		default:
			r.onAttempt(ep.Name, "error")
			r.logger.Error("model call failed, trying next",
				zap.String("model", ep.Name),
				zap.Error(res.err))
		}
	}

	r.onExhausted()
	return MsgOverloaded
}

func (r *Router) attempt(ctx context.Context, ep *Endpoint, prompt string, image *models.File) attemptResult {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var (
		out any
		err error
	)
	if image != nil {
		out, err = ep.Agent.GenerateWithFiles(callCtx, prompt, []models.File{*image})
	} else {
		out, err = ep.Agent.Generate(callCtx, prompt)
	}
	if err != nil {
		if classifyRateLimit(err) {
			return attemptResult{rateLimited: true, err: err}
		}
		return attemptResult{err: err}
	}
	return attemptResult{output: models.Text(out), ok: true}
}

func (r *Router) coolingDown(ep *Endpoint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.now().Before(ep.unavailableUntil)
}

func (r *Router) openBreaker(ep *Endpoint) {
	r.mu.Lock()
	ep.unavailableUntil = r.now().Add(r.cooldown)
	r.mu.Unlock()
}

// classifyRateLimit recognizes HTTP-429-class failures across the SDKs in the
// chain. Anything else is treated as transient and does not open the breaker.
func classifyRateLimit(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests {
		return true
	}

	var oerr *openai.APIError
	if errors.As(err, &oerr) && oerr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(strings.ToLower(msg), "rate limit")
}
