// Package matomo sends page views to a Matomo instance through its HTTP
// tracking API.
package matomo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gojektech/heimdall/v6"
	"github.com/gojektech/heimdall/v6/httpclient"

	"github.com/wadjakorntonsri/go-shortlink/pkg/ports"
)

const (
	defaultTimeout    = 10 * time.Second
	retryBackoff      = 200 * time.Millisecond
	maxJitterInterval = 5 * time.Millisecond
)

var ErrInvalidOptions = errors.New("matomo: base URL and site ID are required")

type Options struct {
	BaseURL  string
	SiteID   string
	APIToken string
	Retries  int
	Timeout  time.Duration
}

// TrackerBuilder creates one Tracker per page view. All trackers share the
// same HTTP client.
type TrackerBuilder struct {
	opts   Options
	client heimdall.Doer
}

func NewTrackerBuilder(opts Options) *TrackerBuilder {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	backoff := heimdall.NewConstantBackoff(retryBackoff, maxJitterInterval)
	client := httpclient.NewClient(
		httpclient.WithHTTPTimeout(opts.Timeout),
		httpclient.WithRetrier(heimdall.NewRetrier(backoff)),
		httpclient.WithRetryCount(opts.Retries),
	)

	return &TrackerBuilder{opts: opts, client: client}
}

func (b *TrackerBuilder) BuildMatomoTracker() (ports.MatomoTracker, error) {
	if b.opts.BaseURL == "" || b.opts.SiteID == "" {
		return nil, ErrInvalidOptions
	}

	return &Tracker{
		client:   b.client,
		endpoint: strings.TrimRight(b.opts.BaseURL, "/") + "/matomo.php",
		params: url.Values{
			"idsite": {b.opts.SiteID},
			"rec":    {"1"},
			"apiv":   {"1"},
		},
		token: b.opts.APIToken,
	}, nil
}

// Tracker collects parameters for a single tracking request.
type Tracker struct {
	client   heimdall.Doer
	endpoint string
	params   url.Values
	token    string
}

func (t *Tracker) SetURL(u string)           { t.params.Set("url", u) }
func (t *Tracker) SetUserAgent(ua string)    { t.params.Set("ua", ua) }
func (t *Tracker) SetURLReferrer(ref string) { t.params.Set("urlref", ref) }
func (t *Tracker) SetCity(city string)       { t.params.Set("city", city) }
func (t *Tracker) SetIP(ip string)           { t.params.Set("cip", ip) }
func (t *Tracker) SetLatitude(lat float64)   { t.params.Set("lat", formatCoordinate(lat)) }
func (t *Tracker) SetLongitude(long float64) { t.params.Set("long", formatCoordinate(long)) }
func (t *Tracker) SetCountry(country string) { t.params.Set("country", strings.ToLower(country)) }

func (t *Tracker) SetCustomTrackingParameter(name, value string) {
	t.params.Set(name, value)
}

// DoTrackPageView sends the collected parameters. Any non-2xx answer is an error.
func (t *Tracker) DoTrackPageView(ctx context.Context, title string) error {
	params := make(url.Values, len(t.params)+3)
	for k, v := range t.params {
		params[k] = v
	}
	params.Set("action_name", title)
	params.Set("send_image", "0")
	// cip is only honored on authenticated requests.
	if t.token != "" {
		params.Set("token_auth", t.token)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("matomo: tracking request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("matomo: tracking request returned %s", resp.Status)
	}
	return nil
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var (
	_ ports.MatomoTrackerBuilder = (*TrackerBuilder)(nil)
	_ ports.MatomoTracker        = (*Tracker)(nil)
)
