package gasbuddy

// Endpoints carries the upstream URLs the client talks to. They are fixed in
// production but injectable so tests can point the client elsewhere.
type Endpoints struct {
	GraphQL string
	Home    string
}

func defaultEndpoints() Endpoints {
	return Endpoints{
		GraphQL: "https://www.gasbuddy.com/graphql",
		Home:    "https://www.gasbuddy.com",
	}
}

// defaultHeaders returns the fixed headers attached to every GraphQL POST.
// The gbcsrf entry is a placeholder; the live token overrides it per request.
func defaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type":             "application/json",
		"Sec-Fetch-Dest":           "",
		"Sec-Fetch-Mode":           "cors",
		"Sec-Fetch-Site":           "same-origin",
		"Priority":                 "u=0",
		"apollo-require-preflight": "true",
		"gbcsrf":                   "1.i+hEh7FkvCjr/eBk",
		"Origin":                   "https://www.gasbuddy.com",
		"Referer":                  "https://www.gasbuddy.com/home",
	}
}

const gasPriceQuery = `query GetStation($id: ID!) { station(id: $id) { brands { imageUrl } prices { cash { nickname postedTime price } credit { nickname postedTime price } fuelProduct longName } priceUnit currency id latitude longitude } }`

const locationQuery = `query LocationBySearchTerm($brandId: Int, $cursor: String, $fuel: Int, $lat: Float, $lng: Float, $maxAge: Int, $search: String) { locationBySearchTerm(lat: $lat, lng: $lng, search: $search) { stations(brandId: $brandId cursor: $cursor fuel: $fuel lat: $lat lng: $lng maxAge: $maxAge) { count results { address { line1 } id name } } } }`

const locationPricesQuery = `query LocationBySearchTerm($brandId: Int, $cursor: String, $fuel: Int, $lat: Float, $lng: Float, $maxAge: Int, $search: String) { locationBySearchTerm(lat: $lat, lng: $lng, search: $search) { stations(brandId: $brandId cursor: $cursor fuel: $fuel lat: $lat lng: $lng maxAge: $maxAge) { results { address { line1 } prices { cash { nickname postedTime price } credit { nickname postedTime price } fuelProduct longName } priceUnit currency id latitude longitude } } trends { areaName today todayLow } } }`
