// Package samvidha talks to the Samvidha student portal.
//
// It only knows how to log in and how to fetch pages, what is inside the
// pages is the concern of the extract package.
package samvidha

import (
	"attendtrack-backend/internal/components/assert"
	"attendtrack-backend/internal/components/telemetry"
	"attendtrack-backend/lib/restyutil"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const DefaultBaseUrl = "https://samvidha.iare.ac.in"

const (
	report_client_acquire_session = "client.acquire-session"
	report_client_fetch           = "client.fetch"
)

var (
	// InvalidCredentials is returned when the portal explicitly rejects a login.
	InvalidCredentials = fmt.Errorf("Invalid Credentials")
	// UpstreamUnavailable wraps every transport failure while talking to the portal.
	UpstreamUnavailable = fmt.Errorf("samvidha is unavailable")
)

type Options struct {
	// BaseUrl defaults to DefaultBaseUrl.
	BaseUrl string
	// RequestsPerSecond paces requests across every job using this client,
	// 0 means no pacing.
	RequestsPerSecond float64
	// Timeout is per request, it defaults to 30 seconds.
	Timeout          time.Duration
	CloudflareBypass bool
	// Output receives every full http exchange if it is not nil.
	Output restyutil.InstrumentOutput
}

type Client struct {
	baseUrl string
	http    *resty.Client
	tel     telemetry.API
}

func NewClient(opts Options, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("samvidha", tel)

	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	baseUrl := strings.TrimSuffix(opts.BaseUrl, "/")
	parsedBaseUrl, err := url.Parse(baseUrl)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(baseUrl)
	// cookies are carried explicitly by each job's credential, a shared jar
	// would leak sessions between users.
	httpClient.SetCookieJar(nil)
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	httpClient.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(parsedBaseUrl.Hostname()))
	httpClient.SetTimeout(opts.Timeout)

	limit := rate.Inf
	burst := 1
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
		burst = max(1, int(math.Ceil(opts.RequestsPerSecond)))
	}
	rateLimiter := rate.NewLimiter(limit, burst)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, tel, opts.Output)

	return &Client{
		baseUrl: baseUrl,
		http:    httpClient,
		tel:     tel,
	}, nil
}

// Credential is the list of "name=value" cookies that identify a logged in
// session, in the order the portal issued them.
type Credential []string

// Header is the value of the Cookie header for the credential.
func (c Credential) Header() string {
	return strings.Join(c, "; ")
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", UpstreamUnavailable, err)
}
