package feed

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/armystay/hotels/internal/normalize"
)

// Document is one parsed feed payload.
type Document struct {
	Items    []normalize.RawItem
	Home     *Home
	Spots    []LocalSpot
	Concerts json.RawMessage
	// Digest identifies the payload bytes; equal digests mean equal input.
	Digest string
}

// Home carries the precomputed landing page figures some feeds include.
type Home struct {
	AvailableCount int            `json:"available_count"`
	CityCounts     map[string]int `json:"city_counts,omitempty"`
	LowestPriceKRW float64        `json:"lowest_price_krw"`
}

// LocalSpot is a map marker: a subway station or a BTS location.
type LocalSpot struct {
	Name      string  `json:"name"`
	NameEn    string  `json:"name_en,omitempty"`
	NameKR    string  `json:"name_kr,omitempty"`
	Category  string  `json:"category,omitempty"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Desc      string  `json:"desc,omitempty"`
	LineColor string  `json:"lineColor"`
}

const (
	line3Color   = "#EF7C1C"
	defaultColor = "#00A84D"
)

// Empty reports whether the document has nothing to show.
func (d *Document) Empty() bool {
	return d == nil || len(d.Items) == 0
}

// BTSSpots returns the spots that count toward the fan density score.
func (d *Document) BTSSpots() []normalize.Spot {
	var spots []normalize.Spot
	for _, s := range d.Spots {
		if s.Category != "bts" || (s.Lat == 0 && s.Lng == 0) {
			continue
		}
		spots = append(spots, normalize.Spot{
			Name:   s.Name,
			NameKR: s.NameKR,
			Desc:   s.Desc,
			Coords: normalize.Coords{Lat: s.Lat, Lng: s.Lng},
		})
	}
	return spots
}

// ErrEmptyPayload is returned by Parse for a blank body.
var ErrEmptyPayload = errors.New("empty feed payload")

type envelope struct {
	TopRecommendations []any           `json:"top_recommendations"`
	Hotels             []any           `json:"hotels"`
	Home               map[string]any  `json:"home"`
	Map                *mapSection     `json:"map"`
	Concerts           json.RawMessage `json:"concerts"`
}

type mapSection struct {
	LocalSpots []any `json:"local_spots"`
}

// Parse decodes any of the accepted shapes: {"top_recommendations": [...]},
// {"hotels": [...]}, or a bare array. Array elements that are not objects
// are dropped.
func Parse(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrEmptyPayload
	}

	sum := sha256.Sum256(trimmed)
	doc := &Document{Digest: hex.EncodeToString(sum[:])}

	if trimmed[0] == '[' {
		var list []any
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("decode item array: %w", err)
		}
		doc.Items = objects(list)
		return doc, nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	doc.Items = objects(env.TopRecommendations)
	if len(doc.Items) == 0 {
		doc.Items = objects(env.Hotels)
	}
	if env.Home != nil {
		doc.Home = parseHome(env.Home)
	}
	if env.Map != nil {
		doc.Spots = parseSpots(env.Map.LocalSpots)
	}
	if len(env.Concerts) > 0 && !bytes.Equal(env.Concerts, []byte("null")) {
		doc.Concerts = env.Concerts
	}
	return doc, nil
}

func objects(list []any) []normalize.RawItem {
	items := make([]normalize.RawItem, 0, len(list))
	for _, v := range list {
		if m, ok := v.(map[string]any); ok {
			items = append(items, normalize.RawItem(m))
		}
	}
	return items
}

func parseHome(m normalize.RawItem) *Home {
	count, _ := m.Number("available_count")
	lowest, _ := m.Number("lowest_price_krw")
	h := &Home{AvailableCount: int(count), LowestPriceKRW: lowest}

	if counts, ok := m["city_counts"].(map[string]any); ok {
		h.CityCounts = make(map[string]int, len(counts))
		for city := range counts {
			n, _ := normalize.RawItem(counts).Number(city)
			h.CityCounts[city] = int(n)
		}
	}
	return h
}

func parseSpots(list []any) []LocalSpot {
	spots := make([]LocalSpot, 0, len(list))
	for _, m := range objects(list) {
		lat, _ := m.Number("lat")
		lng, _ := m.Number("lng")
		s := LocalSpot{
			Name:      m.Text("name"),
			NameEn:    m.Text("name_en"),
			NameKR:    m.Text("name_kr"),
			Category:  m.Text("category"),
			Lat:       lat,
			Lng:       lng,
			Desc:      m.Text("desc"),
			LineColor: m.Text("lineColor"),
		}
		if s.LineColor == "" {
			s.LineColor = lineColor(s.Name)
		}
		spots = append(spots, s)
	}
	return spots
}

// lineColor picks the subway line colour for a station marker.
func lineColor(name string) string {
	if strings.Contains(name, "Line 3") || strings.Contains(name, "3호선") {
		return line3Color
	}
	return defaultColor
}

//go:embed fallback.json
var fallbackJSON []byte

var bundled = sync.OnceValue(func() *Document {
	doc, err := Parse(fallbackJSON)
	if err != nil {
		panic(fmt.Sprintf("bundled feed is invalid: %v", err))
	}
	return doc
})

// Bundled returns the dataset compiled into the binary. Callers must not
// modify it.
func Bundled() *Document {
	return bundled()
}
