package probe

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Result is what a single HEAD probe observed. A zero Result means the
// transport failed; that is informationally equivalent to "no redirect"
// and never an error.
type Result struct {
	StatusCode int    `json:"status_code,omitempty"`
	Location   string `json:"location,omitempty"`
}

// Prober issues non-redirecting HEAD requests so the first hop's
// Location header stays observable.
type Prober struct {
	client  *http.Client
	limiter *rate.Limiter
	logger  *logrus.Logger
}

func NewProber(timeout time.Duration, requestsPerSecond float64, logger *logrus.Logger) *Prober {
	if logger == nil {
		logger = logrus.New()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: timeout,
		MaxIdleConns:        50,
		IdleConnTimeout:     30 * time.Second,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}

	return &Prober{client: client, limiter: limiter, logger: logger}
}

// Probe HEADs a single URL. Transport errors of any kind (timeout,
// refused connection, TLS failure) yield the zero Result.
func (p *Prober) Probe(ctx context.Context, rawURL string) Result {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return Result{}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		p.logger.Debugf("bad probe URL %s: %v", rawURL, err)
		return Result{}
	}
	req.Header.Set("User-Agent", "domainkin/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debugf("probe failed for %s: %v", rawURL, err)
		return Result{}
	}
	defer resp.Body.Close()

	return Result{
		StatusCode: resp.StatusCode,
		Location:   strings.TrimSpace(resp.Header.Get("Location")),
	}
}
