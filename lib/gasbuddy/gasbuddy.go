// Package gasbuddy scrapes fuel price data from the GasBuddy GraphQL API.
//
// Every query must carry a csrf token that GasBuddy rotates behind anti-bot
// protection; the client acquires it from the landing page (directly or via a
// FlareSolverr-style solver), caches it on disk and re-acquires it only after
// the upstream rejects it.
package gasbuddy

import (
	"net/http/cookiejar"
	"strconv"
	"time"

	"gasbuddy-client/lib/gasbuddy/tokenstore"
	"gasbuddy-client/lib/restyutil"
	"gasbuddy-client/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type tokenState int

const (
	// tokenUnknown: nothing is known yet, a cached token is trusted as-is.
	tokenUnknown tokenState = iota
	tokenFresh
	tokenStale
)

// Client issues authenticated GraphQL queries against GasBuddy. A single
// logical request is in flight per instance; concurrent callers race on the
// token, which is tolerated because the token is idempotently re-derivable.
type Client struct {
	// graphql carries the fixed default headers plus the csrf token.
	graphql *resty.Client
	// page fetches the landing page / solver without the GraphQL headers.
	page *resty.Client

	store     tokenstore.Store
	endpoints Endpoints
	stationID int
	solverURL string
	// solver render budget, forwarded as maxTimeout in milliseconds
	solverTimeout time.Duration

	requestRetry retryPolicy
	acquireRetry retryPolicy

	token     string
	state     tokenState
	storeRead bool
}

type ClientOptions struct {
	// StationID is the station queried by PriceLookup.
	StationID int
	// SolverURL points at a challenge-solver service. When set, the landing
	// page is rendered through the solver instead of fetched directly.
	SolverURL string
	// SolverTimeout bounds the solver's render time. Defaults to 60s.
	SolverTimeout time.Duration
	// CacheFile overrides the token cache location.
	CacheFile string
	// Endpoints overrides the upstream URLs, primarily for tests.
	Endpoints *Endpoints
}

func NewClient(opts ClientOptions) (*Client, error) {
	endpoints := defaultEndpoints()
	if opts.Endpoints != nil {
		endpoints = *opts.Endpoints
	}
	solverTimeout := opts.SolverTimeout
	if solverTimeout == 0 {
		solverTimeout = time.Minute
	}

	graphql := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	graphql.SetCookieJar(jar)
	graphql.SetHeaders(defaultHeaders())
	graphql.SetHeader("user-agent", userAgent)
	graphql.SetTimeout(time.Second * 30)
	graphql.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(graphql.GetClient().Transport)

	page := resty.New()
	pageJar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	page.SetCookieJar(pageJar)
	page.SetHeader("user-agent", userAgent)
	page.SetTimeout(time.Second * 30)
	page.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(page.GetClient().Transport)

	telemetry.InstrumentResty(graphql, "scrapers/gasbuddy/graphql")
	telemetry.InstrumentResty(page, "scrapers/gasbuddy/page")
	restyutil.InstrumentClient(graphql, tracer, restyInstrumentOutput)
	restyutil.InstrumentClient(page, tracer, restyInstrumentOutput)

	return &Client{
		graphql:       graphql,
		page:          page,
		store:         tokenstore.New(opts.CacheFile),
		endpoints:     endpoints,
		stationID:     opts.StationID,
		solverURL:     opts.SolverURL,
		solverTimeout: solverTimeout,
		requestRetry:  defaultRequestRetry(),
		acquireRetry:  defaultAcquireRetry(),
	}, nil
}

// ClearCache drops the persisted token record along with the in-memory copy,
// forcing a fresh landing-page acquisition on the next request.
func (c *Client) ClearCache() error {
	c.token = ""
	c.state = tokenStale
	c.storeRead = true
	return c.store.Clear()
}

func (c *Client) stationIDVariable() string {
	return strconv.Itoa(c.stationID)
}
