package location

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

var (
	ErrCircuitOpen        = errors.New("circuit breaker is open")
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

// ClientConfig configures the retrying, circuit breaking HTTP client used
// for geocoder calls.
type ClientConfig struct {
	Name            string
	Timeout         time.Duration
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// BreakerTimeout is how long the breaker stays open before probing.
	BreakerTimeout time.Duration
	// UserAgent is sent with every request; public OSM services require one.
	UserAgent string
}

func DefaultClientConfig(name string) ClientConfig {
	return ClientConfig{
		Name:            name,
		Timeout:         10 * time.Second,
		MaxRetries:      3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		BreakerTimeout:  60 * time.Second,
		UserAgent:       "towertalk/1.0",
	}
}

type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	config     ClientConfig
}

func NewClient(logger *slog.Logger, cfg ClientConfig) *Client {
	def := DefaultClientConfig(cfg.Name)
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = def.InitialInterval
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = def.MaxInterval
	}
	if cfg.BreakerTimeout == 0 {
		cfg.BreakerTimeout = def.BreakerTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: readyToTrip,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("geocoder circuit changed", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    gobreaker.NewCircuitBreaker[*http.Response](settings),
		config:     cfg,
	}
}

// readyToTrip opens the circuit at a 50% failure rate over 5+ requests.
func readyToTrip(counts gobreaker.Counts) bool {
	failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
	return counts.Requests >= 5 && failureRatio >= 0.5
}

// ServerError is a 5xx answer; it counts as a failure for the breaker.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return "server error: " + http.StatusText(e.StatusCode)
}

// Do executes req, retrying network errors and 5xx answers with
// exponential backoff. The caller closes the response body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.InitialInterval
	bo.MaxInterval = c.config.MaxInterval
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.config.MaxRetries), ctx)

	var resp *http.Response
	operation := func() error {
		r, err := c.breaker.Execute(func() (*http.Response, error) {
			clone := req.Clone(ctx)
			clone.Header.Set("User-Agent", c.config.UserAgent)
			r, err := c.httpClient.Do(clone)
			if err != nil {
				return nil, err
			}
			if r.StatusCode >= 500 {
				r.Body.Close()
				return nil, &ServerError{StatusCode: r.StatusCode}
			}
			return r, nil
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			return err
		}
		resp = r
		return nil
	}
	if err := backoff.Retry(operation, policy); err != nil {
		var se *ServerError
		if errors.As(err, &se) {
			return nil, errors.Join(ErrMaxRetriesExceeded, err)
		}
		return nil, err
	}
	return resp, nil
}

func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}
