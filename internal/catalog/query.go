package catalog

import (
	"cmp"
	"context"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/armystay/hotels/internal/normalize"
)

// Sort orders.
const (
	SortRecommended = "recommended"
	SortDistance    = "distance"
	SortDensity     = "army_density"
	SortLowestPrice = "lowest_price"
)

// All disables the city or category filter.
const All = "all"

// Query selects and orders catalog items.
type Query struct {
	City     string
	Category string
	// Text searches names, locations, addresses and tags. When set, City is
	// ignored.
	Text       string
	Sort       string
	SafeReturn bool
	Limit      int
	Offset     int
}

// Result is one page of matching items.
type Result struct {
	Total    int              `json:"total"`
	Items    []normalize.Item `json:"items"`
	Source   string           `json:"source"`
	Stale    bool             `json:"stale,omitempty"`
	CacheHit bool             `json:"cache_hit"`
}

// Search filters, sorts and pages the current snapshot.
func (c *Catalog) Search(ctx context.Context, q Query) (*Result, error) {
	snap, hit, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	items := Filter(snap.Items, q)
	SortItems(items, q.Sort)
	total := len(items)

	return &Result{
		Total:    total,
		Items:    page(items, q.Offset, q.Limit),
		Source:   snap.Source,
		Stale:    snap.Stale,
		CacheHit: hit,
	}, nil
}

// Filter returns the items matching q in their original order. The input
// is not modified.
func Filter(items []normalize.Item, q Query) []normalize.Item {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	city := strings.ToLower(strings.TrimSpace(q.City))
	category := strings.TrimSpace(q.Category)

	out := make([]normalize.Item, 0, len(items))
	for _, it := range items {
		if text != "" {
			if !matchesText(it, text) {
				continue
			}
		} else if !matchesCity(it, city) {
			continue
		}
		if category != "" && category != All && !strings.EqualFold(it.Type, category) {
			continue
		}
		if q.SafeReturn && !hasSafeReturn(it) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func matchesText(it normalize.Item, text string) bool {
	fields := []string{it.Name, it.NameKR, it.NameEn, it.Location, it.Address, it.AddressKR}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), text) {
			return true
		}
	}
	for _, tag := range it.Tags {
		if strings.Contains(strings.ToLower(tag), text) {
			return true
		}
	}
	return false
}

const gwanghwamun = "gwanghwamun"

func matchesCity(it normalize.Item, city string) bool {
	switch city {
	case "", All:
		return true
	case string(normalize.CityNearGwanghwamun):
		return nearGwanghwamun(it)
	case string(normalize.CitySeoul):
		return it.City == normalize.CitySeoul && it.CityKey != gwanghwamun
	}
	return string(it.City) == city
}

func nearGwanghwamun(it normalize.Item) bool {
	if it.CityKey == gwanghwamun || it.City == normalize.CityNearGwanghwamun {
		return true
	}
	if it.City != normalize.CitySeoul {
		return false
	}
	if strings.EqualFold(it.AreaEn, gwanghwamun) {
		return true
	}
	minutes := it.Minutes()
	if minutes <= 0 || minutes >= 15 {
		return false
	}
	display := it.Distance.DisplayEn
	if display == "" {
		display = it.Distance.Text
	}
	return strings.Contains(strings.ToLower(display), gwanghwamun)
}

func hasSafeReturn(it normalize.Item) bool {
	if truthy(it.SafeReturn) || truthy(it.SafeRoute) {
		return true
	}
	for _, tag := range it.Tags {
		t := strings.ToLower(tag)
		if strings.Contains(t, "safe") || strings.Contains(t, "return") {
			return true
		}
	}
	return false
}

func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	}
	return true
}

// SortItems orders items in place. Unknown orders sort as recommended.
// Equal items keep their feed order.
func SortItems(items []normalize.Item, order string) {
	switch order {
	case SortDistance:
		slices.SortStableFunc(items, func(a, b normalize.Item) int {
			return cmp.Compare(minutesOr(a, 999), minutesOr(b, 999))
		})
	case SortDensity:
		slices.SortStableFunc(items, func(a, b normalize.Item) int {
			return cmp.Compare(b.ArmyDensity.Value, a.ArmyDensity.Value)
		})
	case SortLowestPrice:
		slices.SortStableFunc(items, func(a, b normalize.Item) int {
			return cmp.Compare(a.Price, b.Price)
		})
	default:
		slices.SortStableFunc(items, func(a, b normalize.Item) int {
			return cmp.Compare(recommendScore(b), recommendScore(a))
		})
	}
}

func minutesOr(it normalize.Item, missing float64) float64 {
	if m := it.Minutes(); m > 0 {
		return m
	}
	return missing
}

func recommendScore(it normalize.Item) float64 {
	return it.Rating*20 + 100 - minutesOr(it, 100)
}

func page(items []normalize.Item, offset, limit int) []normalize.Item {
	offset = max(offset, 0)
	if offset >= len(items) {
		return []normalize.Item{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// Stats summarizes the current snapshot for the landing page.
type Stats struct {
	AvailableCount int            `json:"available_count"`
	LowestPriceUSD float64        `json:"lowest_price_usd"`
	CityCounts     map[string]int `json:"city_counts"`
	Source         string         `json:"source"`
	Stale          bool           `json:"stale,omitempty"`
	LoadedAt       time.Time      `json:"loaded_at"`
}

// Stats returns the landing page figures. Figures precomputed by the feed
// win over ones derived from the items.
func (c *Catalog) Stats(ctx context.Context) (*Stats, error) {
	snap, _, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	st := &Stats{
		AvailableCount: len(snap.Items),
		LowestPriceUSD: lowestPrice(snap.Items),
		CityCounts:     countCities(snap.Items),
		Source:         snap.Source,
		Stale:          snap.Stale,
		LoadedAt:       snap.LoadedAt,
	}

	if h := snap.Home; h != nil {
		if h.AvailableCount > 0 {
			st.AvailableCount = h.AvailableCount
		}
		if h.LowestPriceKRW > 0 {
			st.LowestPriceUSD = math.Round(h.LowestPriceKRW / normalize.KRWPerUSD)
		}
		if len(h.CityCounts) > 0 {
			st.CityCounts = h.CityCounts
		}
	}
	return st, nil
}

func lowestPrice(items []normalize.Item) float64 {
	var lowest float64
	for _, it := range items {
		if it.Price > 0 && (lowest == 0 || it.Price < lowest) {
			lowest = it.Price
		}
	}
	return lowest
}

func countCities(items []normalize.Item) map[string]int {
	counts := make(map[string]int, len(normalize.Cities))
	for _, city := range normalize.Cities {
		counts[string(city)] = 0
	}
	for _, it := range items {
		counts[string(it.City)]++
	}
	return counts
}
