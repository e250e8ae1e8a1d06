package gasbuddy

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"gasbuddy-client/lib/gasbuddy/tokenstore"
	"gasbuddy-client/lib/telemetry"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/station.json
var stationFixture string

//go:embed testdata/station_nocash.json
var stationNoCashFixture string

//go:embed testdata/location.json
var locationFixture string

//go:embed testdata/landing.html
var landingFixture string

const (
	testGraphqlURL = "https://gasbuddy.test/graphql"
	testHomeURL    = "https://gasbuddy.test/home"

	// matches the token embedded in testdata/landing.html
	landingToken = "1.NFZ8swZbeHdmVzCi"
	cachedToken  = "1.CaChEd/t0kEnVaLu3"
)

type testClient struct {
	*Client
	graphqlMock *httpmock.MockTransport
	pageMock    *httpmock.MockTransport
	cacheFile   string
}

func newTestClient(t *testing.T, opts ClientOptions) testClient {
	t.Helper()

	cleanup := telemetry.SetupForTesting(t, "test:gasbuddy")
	t.Cleanup(cleanup)

	if opts.CacheFile == "" {
		opts.CacheFile = filepath.Join(t.TempDir(), "token.json")
	}
	opts.Endpoints = &Endpoints{GraphQL: testGraphqlURL, Home: testHomeURL}

	client, err := NewClient(opts)
	require.NoError(t, err)

	graphqlMock := httpmock.NewMockTransport()
	pageMock := httpmock.NewMockTransport()
	client.graphql.GetClient().Transport = graphqlMock
	client.page.GetClient().Transport = pageMock

	// keep backoff delays out of test runtime
	client.requestRetry.initial = time.Millisecond
	client.acquireRetry.initial = time.Millisecond

	return testClient{
		Client:      client,
		graphqlMock: graphqlMock,
		pageMock:    pageMock,
		cacheFile:   opts.CacheFile,
	}
}

func jsonResponder(status int, body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(status, body)
	resp.Header.Set("Content-Type", "application/json")
	return httpmock.ResponderFromResponse(resp)
}

func TestPriceLookupWithCachedToken(t *testing.T) {
	client := newTestClient(t, ClientOptions{StationID: 205033})
	err := tokenstore.New(client.cacheFile).Set(cachedToken)
	require.NoError(t, err)

	client.graphqlMock.RegisterResponder("POST", testGraphqlURL,
		func(req *http.Request) (*http.Response, error) {
			require.Equal(t, cachedToken, req.Header.Get("gbcsrf"))
			return jsonResponder(200, stationFixture)(req)
		})
	client.pageMock.RegisterResponder("GET", testHomeURL,
		jsonResponder(200, landingFixture))

	result, err := client.PriceLookup(context.Background())
	require.NoError(t, err)

	require.Equal(t, "205033", result.StationID)
	require.Equal(t, "dollars_per_gallon", result.UnitOfMeasure)
	require.Equal(t, "USD", result.Currency)
	require.NotNil(t, result.ImageURL)
	require.Equal(t, "https://images.gasbuddy.io/b/60.png", *result.ImageURL)

	regular := result.Prices["regular_gas"]
	require.NotNil(t, regular.Credit)
	require.Equal(t, "Flemmit", *regular.Credit)
	require.NotNil(t, regular.Price)
	require.Equal(t, 3.27, *regular.Price)
	require.True(t, regular.HasCash)
	require.NotNil(t, regular.CashPrice)
	require.Equal(t, 3.17, *regular.CashPrice)
	require.NotNil(t, regular.LastUpdated)
	require.Equal(t, "2024-09-06T09:54:05.489Z", *regular.LastUpdated)

	// an empty cash object means cash pricing is not offered
	premium := result.Prices["premium_gas"]
	require.False(t, premium.HasCash)

	// a posted price of zero means unreported
	diesel := result.Prices["diesel"]
	require.Nil(t, diesel.Price)
	require.Nil(t, diesel.Credit)

	// a cached token must not trigger a landing page fetch
	require.Equal(t, 0, client.pageMock.GetTotalCallCount())
}

func TestPriceLookupWithoutCash(t *testing.T) {
	client := newTestClient(t, ClientOptions{StationID: 197274})
	require.NoError(t, tokenstore.New(client.cacheFile).Set(cachedToken))

	client.graphqlMock.RegisterResponder("POST", testGraphqlURL,
		jsonResponder(200, stationNoCashFixture))

	result, err := client.PriceLookup(context.Background())
	require.NoError(t, err)

	require.Equal(t, "197274", result.StationID)
	require.Equal(t, "cents_per_liter", result.UnitOfMeasure)
	require.Equal(t, "CAD", result.Currency)
	require.Nil(t, result.ImageURL)

	regular := result.Prices["regular_gas"]
	require.False(t, regular.HasCash)
	require.NotNil(t, regular.Price)
	require.Equal(t, 131.9, *regular.Price)

	raw, err := json.Marshal(regular)
	require.NoError(t, err)
	var encoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &encoded))
	_, hasCashPrice := encoded["cash_price"]
	require.False(t, hasCashPrice)
}

func TestPriceLookupAcquiresToken(t *testing.T) {
	client := newTestClient(t, ClientOptions{StationID: 205033})

	client.pageMock.RegisterResponder("GET", testHomeURL,
		httpmock.NewStringResponder(200, landingFixture))
	client.graphqlMock.RegisterResponder("POST", testGraphqlURL,
		func(req *http.Request) (*http.Response, error) {
			require.Equal(t, landingToken, req.Header.Get("gbcsrf"))
			return jsonResponder(200, stationFixture)(req)
		})

	result, err := client.PriceLookup(context.Background())
	require.NoError(t, err)
	require.Equal(t, "205033", result.StationID)

	require.Equal(t, 1, client.pageMock.GetTotalCallCount())
	require.Equal(t, landingToken, tokenstore.New(client.cacheFile).Get())
}

func TestPriceLookupThroughSolver(t *testing.T) {
	solverURL := "https://solver.test/v1"
	client := newTestClient(t, ClientOptions{StationID: 205033, SolverURL: solverURL})

	client.pageMock.RegisterResponder("POST", solverURL,
		func(req *http.Request) (*http.Response, error) {
			var cmd struct {
				Cmd        string `json:"cmd"`
				Url        string `json:"url"`
				MaxTimeout int64  `json:"maxTimeout"`
			}
			require.NoError(t, json.NewDecoder(req.Body).Decode(&cmd))
			require.Equal(t, "request.get", cmd.Cmd)
			require.Equal(t, testHomeURL, cmd.Url)
			require.Equal(t, int64(60000), cmd.MaxTimeout)

			solved, err := json.Marshal(map[string]any{
				"status":   "ok",
				"solution": map[string]any{"response": landingFixture},
			})
			require.NoError(t, err)
			return jsonResponder(200, string(solved))(req)
		})
	client.graphqlMock.RegisterResponder("POST", testGraphqlURL,
		func(req *http.Request) (*http.Response, error) {
			require.Equal(t, landingToken, req.Header.Get("gbcsrf"))
			return jsonResponder(200, stationFixture)(req)
		})

	result, err := client.PriceLookup(context.Background())
	require.NoError(t, err)
	require.Equal(t, "205033", result.StationID)

	counts := client.pageMock.GetCallCountInfo()
	require.Equal(t, 0, counts["GET "+testHomeURL])
	require.Equal(t, 1, counts["POST "+solverURL])
}

func TestClearCache(t *testing.T) {
	client := newTestClient(t, ClientOptions{StationID: 205033})
	store := tokenstore.New(client.cacheFile)
	require.NoError(t, store.Set(cachedToken))

	client.graphqlMock.RegisterResponder("POST", testGraphqlURL,
		jsonResponder(200, stationFixture))
	client.pageMock.RegisterResponder("GET", testHomeURL,
		httpmock.NewStringResponder(200, landingFixture))

	_, err := client.PriceLookup(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, client.pageMock.GetTotalCallCount())

	require.NoError(t, client.ClearCache())
	require.False(t, store.Exists())

	_, err = client.PriceLookup(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, client.pageMock.GetTotalCallCount())
}

func TestLocationSearchRequiresSearchData(t *testing.T) {
	client := newTestClient(t, ClientOptions{})

	_, err := client.LocationSearch(context.Background(), SearchQuery{})
	require.ErrorIs(t, err, ErrMissingSearchData)
	require.Equal(t, 0, client.graphqlMock.GetTotalCallCount())
	require.Equal(t, 0, client.pageMock.GetTotalCallCount())
}

func TestLocationSearchByZip(t *testing.T) {
	client := newTestClient(t, ClientOptions{})
	require.NoError(t, tokenstore.New(client.cacheFile).Set(cachedToken))

	client.graphqlMock.RegisterResponder("POST", testGraphqlURL,
		func(req *http.Request) (*http.Response, error) {
			var query Query
			require.NoError(t, json.NewDecoder(req.Body).Decode(&query))
			require.Equal(t, "LocationBySearchTerm", query.OperationName)
			require.Equal(t, "85037", query.Variables["search"])
			return jsonResponder(200, locationFixture)(req)
		})

	zip := 85037
	raw, err := client.LocationSearch(context.Background(), SearchQuery{Zipcode: &zip})
	require.NoError(t, err)
	require.Contains(t, raw, "data")
}

func TestPriceLookupByArea(t *testing.T) {
	client := newTestClient(t, ClientOptions{})
	require.NoError(t, tokenstore.New(client.cacheFile).Set(cachedToken))

	client.graphqlMock.RegisterResponder("POST", testGraphqlURL,
		jsonResponder(200, locationFixture))

	lat, lon := 33.459108, -112.395499
	result, err := client.PriceLookupByArea(
		context.Background(),
		SearchQuery{Lat: &lat, Lon: &lon},
		2,
	)
	require.NoError(t, err)

	require.Len(t, result.Results, 2)
	require.Equal(t, "205033", result.Results[0].StationID)
	require.Equal(t, "117512", result.Results[1].StationID)

	require.Len(t, result.Trend, 1)
	require.Equal(t, "Arizona", result.Trend[0].Area)
	require.Equal(t, 3.38, result.Trend[0].AveragePrice)
	require.Equal(t, 2.99, result.Trend[0].LowestPrice)
}

func TestPriceLookupByAreaZeroLimit(t *testing.T) {
	client := newTestClient(t, ClientOptions{})
	require.NoError(t, tokenstore.New(client.cacheFile).Set(cachedToken))

	client.graphqlMock.RegisterResponder("POST", testGraphqlURL,
		jsonResponder(200, locationFixture))

	zip := 85037
	result, err := client.PriceLookupByArea(context.Background(), SearchQuery{Zipcode: &zip}, 0)
	require.NoError(t, err)
	require.NotNil(t, result.Results)
	require.Len(t, result.Results, 0)
	require.Len(t, result.Trend, 1)
}

func TestGraphqlErrorSurfacesAsAPIError(t *testing.T) {
	client := newTestClient(t, ClientOptions{})
	require.NoError(t, tokenstore.New(client.cacheFile).Set(cachedToken))

	client.graphqlMock.RegisterResponder("POST", testGraphqlURL,
		jsonResponder(200, `{"errors":[{"message":"Fake Error"}]}`))

	zip := 85037
	_, err := client.PriceLookupByArea(context.Background(), SearchQuery{Zipcode: &zip}, 5)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Fake Error", apiErr.Message)
}

func TestChallengeRetriesThenSurfaces(t *testing.T) {
	client := newTestClient(t, ClientOptions{StationID: 205033})
	require.NoError(t, tokenstore.New(client.cacheFile).Set(cachedToken))

	client.graphqlMock.RegisterResponder("POST", testGraphqlURL,
		httpmock.NewStringResponder(403, "<html>denied</html>"))
	client.pageMock.RegisterResponder("GET", testHomeURL,
		httpmock.NewStringResponder(200, landingFixture))

	_, err := client.PriceLookup(context.Background())

	var libErr *LibraryError
	require.ErrorAs(t, err, &libErr)
	require.Equal(t, "<html>denied</html>", libErr.Detail)

	// one attempt on the cached token, then a re-acquisition per retry
	require.Equal(t, 5, client.graphqlMock.GetTotalCallCount())
	require.Equal(t, 4, client.pageMock.GetTotalCallCount())
}

func TestTokenMissingFromLandingPage(t *testing.T) {
	client := newTestClient(t, ClientOptions{StationID: 205033})

	client.pageMock.RegisterResponder("GET", testHomeURL,
		httpmock.NewStringResponder(200, "<html><body>nothing here</body></html>"))

	_, err := client.PriceLookup(context.Background())

	var libErr *LibraryError
	require.ErrorAs(t, err, &libErr)
	require.Equal(t, "Missing Token", libErr.Detail)

	// a token-less landing page is not retryable and the query is never sent
	require.Equal(t, 1, client.pageMock.GetTotalCallCount())
	require.Equal(t, 0, client.graphqlMock.GetTotalCallCount())
}

func TestTimeoutIsNotRetried(t *testing.T) {
	client := newTestClient(t, ClientOptions{StationID: 205033})
	require.NoError(t, tokenstore.New(client.cacheFile).Set(cachedToken))

	client.graphqlMock.RegisterResponder("POST", testGraphqlURL,
		httpmock.NewErrorResponder(&net.DNSError{Err: "timeout", IsTimeout: true}))

	_, err := client.PriceLookup(context.Background())

	var libErr *LibraryError
	require.ErrorAs(t, err, &libErr)
	require.Equal(t, "Timeout while updating", libErr.Detail)
	require.Equal(t, 1, client.graphqlMock.GetTotalCallCount())
}

func TestTransportErrorIsRetried(t *testing.T) {
	client := newTestClient(t, ClientOptions{StationID: 205033})
	require.NoError(t, tokenstore.New(client.cacheFile).Set(cachedToken))

	client.graphqlMock.RegisterResponder("POST", testGraphqlURL,
		httpmock.NewErrorResponder(errors.New("connection reset by peer")))

	_, err := client.PriceLookup(context.Background())

	var libErr *LibraryError
	require.ErrorAs(t, err, &libErr)
	require.Contains(t, libErr.Detail, "connection reset by peer")
	require.Equal(t, 5, client.graphqlMock.GetTotalCallCount())
}

func TestNonJSONSuccessBody(t *testing.T) {
	client := newTestClient(t, ClientOptions{StationID: 205033})
	require.NoError(t, tokenstore.New(client.cacheFile).Set(cachedToken))

	client.graphqlMock.RegisterResponder("POST", testGraphqlURL,
		httpmock.NewStringResponder(200, "<html>maintenance</html>"))

	_, err := client.PriceLookup(context.Background())

	var libErr *LibraryError
	require.ErrorAs(t, err, &libErr)
	require.Equal(t, "<html>maintenance</html>", libErr.Detail)
}
