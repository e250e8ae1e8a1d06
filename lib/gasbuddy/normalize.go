package gasbuddy

import (
	"encoding/json"
)

// PriceRecord is a flattened, null-safe view of one fuel product's pricing.
// A reported price of zero means "not reported" in this domain and comes out
// as a nil Price/CashPrice.
type PriceRecord struct {
	// Credit is the nickname of the member who posted the credit price.
	Credit *string
	// Price is the credit price, nil when zero or unreported.
	Price *float64
	// CashPrice is only meaningful when HasCash is set; upstream omits cash
	// pricing entirely for many stations.
	CashPrice   *float64
	HasCash     bool
	LastUpdated *string
}

// MarshalJSON preserves the upstream shape: the cash_price key is present
// only when the source payload carried a cash block at all.
func (r PriceRecord) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"credit":       r.Credit,
		"price":        r.Price,
		"last_updated": r.LastUpdated,
	}
	if r.HasCash {
		out["cash_price"] = r.CashPrice
	}
	return json.Marshal(out)
}

// StationPriceResult is a single station's normalized price data, keyed by
// fuel product. It is constructed fresh per lookup and never mutated after.
type StationPriceResult struct {
	StationID     string
	UnitOfMeasure string
	Currency      string
	Latitude      float64
	Longitude     float64
	ImageURL      *string
	Prices        map[string]PriceRecord
}

// TrendRecord summarizes area-level price trends from a search response.
type TrendRecord struct {
	AveragePrice float64
	LowestPrice  float64
	Area         string
}

// AreaPriceResult pairs the per-station results of an area lookup with the
// area trend summaries, both in upstream order.
type AreaPriceResult struct {
	Results []StationPriceResult
	Trend   []TrendRecord
}

// The payload structs below mirror the subset of the GraphQL response shape
// the normalizers care about; unknown fields are dropped on decode.

type priceEntry struct {
	Nickname   *string `json:"nickname"`
	PostedTime *string `json:"postedTime"`
	Price      float64 `json:"price"`
}

type priceNode struct {
	FuelProduct string      `json:"fuelProduct"`
	Credit      *priceEntry `json:"credit"`
	// cash is kept loose: upstream sends null, {} or a populated object, and
	// the distinction decides whether the record carries a cash price at all
	Cash map[string]any `json:"cash"`
}

type stationNode struct {
	ID        string  `json:"id"`
	PriceUnit string  `json:"priceUnit"`
	Currency  string  `json:"currency"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Brands    []struct {
		ImageURL string `json:"imageUrl"`
	} `json:"brands"`
	Prices []priceNode `json:"prices"`
}

type stationPayload struct {
	Data struct {
		Station *stationNode `json:"station"`
	} `json:"data"`
}

type locationPayload struct {
	Data struct {
		LocationBySearchTerm *struct {
			Stations struct {
				Results []stationNode `json:"results"`
			} `json:"stations"`
			Trends []struct {
				AreaName string  `json:"areaName"`
				Today    float64 `json:"today"`
				TodayLow float64 `json:"todayLow"`
			} `json:"trends"`
		} `json:"locationBySearchTerm"`
	} `json:"data"`
}

// decodeInto round-trips a generic payload through JSON into a typed shape.
func decodeInto(payload map[string]any, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// normalizeStation flattens a GetStation success payload into a
// StationPriceResult. Malformed payloads surface as LibraryError.
func normalizeStation(message map[string]any) (*StationPriceResult, error) {
	var payload stationPayload
	if err := decodeInto(message, &payload); err != nil {
		return nil, &LibraryError{Detail: err.Error()}
	}
	if payload.Data.Station == nil {
		return nil, &LibraryError{Detail: "response is missing station data"}
	}
	result := normalizeStationNode(*payload.Data.Station)
	return &result, nil
}

func normalizeStationNode(node stationNode) StationPriceResult {
	result := StationPriceResult{
		StationID:     node.ID,
		UnitOfMeasure: node.PriceUnit,
		Currency:      node.Currency,
		Latitude:      node.Latitude,
		Longitude:     node.Longitude,
		Prices:        map[string]PriceRecord{},
	}
	if len(node.Brands) > 0 {
		imageURL := node.Brands[0].ImageURL
		result.ImageURL = &imageURL
	}
	for _, price := range node.Prices {
		result.Prices[price.FuelProduct] = formatPriceNode(price)
	}
	return result
}

func formatPriceNode(node priceNode) PriceRecord {
	credit := node.Credit
	if credit == nil {
		credit = &priceEntry{}
	}
	record := PriceRecord{
		Credit:      credit.Nickname,
		Price:       nonZeroPrice(credit.Price),
		LastUpdated: credit.PostedTime,
	}
	if len(node.Cash) > 0 {
		record.HasCash = true
		if cashPrice, ok := node.Cash["price"].(float64); ok {
			record.CashPrice = nonZeroPrice(cashPrice)
		}
	}
	return record
}

// nonZeroPrice reinterprets a literal zero as "not reported".
func nonZeroPrice(price float64) *float64 {
	if price == 0 {
		return nil
	}
	return &price
}

// normalizeSearchResults flattens up to limit stations from a
// LocationBySearchTerm success payload, in upstream order. A non-positive
// limit yields an empty slice.
func normalizeSearchResults(message map[string]any, limit int) ([]StationPriceResult, error) {
	var payload locationPayload
	if err := decodeInto(message, &payload); err != nil {
		return nil, &LibraryError{Detail: err.Error()}
	}
	if payload.Data.LocationBySearchTerm == nil {
		return nil, &LibraryError{Detail: "response is missing search results"}
	}

	results := []StationPriceResult{}
	for _, node := range payload.Data.LocationBySearchTerm.Stations.Results {
		if limit <= 0 {
			break
		}
		limit--
		results = append(results, normalizeStationNode(node))
	}
	return results, nil
}

// normalizeTrends maps the trend summaries of a search payload in upstream
// order; an empty upstream list yields an empty slice, never nil.
func normalizeTrends(message map[string]any) ([]TrendRecord, error) {
	var payload locationPayload
	if err := decodeInto(message, &payload); err != nil {
		return nil, &LibraryError{Detail: err.Error()}
	}
	if payload.Data.LocationBySearchTerm == nil {
		return nil, &LibraryError{Detail: "response is missing search results"}
	}

	trends := []TrendRecord{}
	for _, trend := range payload.Data.LocationBySearchTerm.Trends {
		trends = append(trends, TrendRecord{
			AveragePrice: trend.Today,
			LowestPrice:  trend.TodayLow,
			Area:         trend.AreaName,
		})
	}
	return trends, nil
}
