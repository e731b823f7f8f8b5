// Package normalize turns loosely-typed accommodation records into
// display-ready items with a city, a venue distance, a fan density score
// and a booking link.
//
// Normalization is pure: it performs no I/O and never fails. Every missing
// or malformed field degrades to a documented default.
package normalize

import (
	"fmt"
	"math"
	"strings"
)

// KRWPerUSD converts feed prices in won to the dollar prices shown to users.
const KRWPerUSD = 1350

// Normalize maps every raw item to exactly one Item, preserving order.
func Normalize(raw []RawItem, refs References) []Item {
	items := make([]Item, len(raw))
	for i, r := range raw {
		items[i] = normalizeItem(i, r, refs)
	}
	return items
}

func normalizeItem(index int, r RawItem, refs References) Item {
	if r == nil {
		r = RawItem{}
	}

	id := itemID(r, index)
	name := firstOf(r, field("hotel_name"), field("name_en"), field("name"))
	coords, hasCoords := resolveCoords(r, refs.DefaultCoords)
	cls := Classify(r)
	address := addressText(r)
	area := resolveArea(r, address)
	density := scoreDensity(r, coords, address, refs)

	itemType := r.str("type")
	if itemType == "" {
		itemType = "stay"
	}

	return Item{
		ID:                id,
		Name:              name,
		NameEn:            r.str("name_en"),
		NameKR:            r.str("name_kr"),
		Image:             ResolveImage(r, id, name, refs.Overrides),
		Price:             resolvePrice(r),
		Rating:            resolveRating(r),
		City:              cls.City,
		CityKey:           r.str("city_key"),
		Coords:            coords,
		Type:              itemType,
		AccommodationType: accommodationType(typeLabel(r)),
		ArmyDensity:       density,
		Location:          resolveLocation(r, area),
		AreaEn:            area,
		Address:           r.str("address"),
		AddressKR:         r.str("address_kr"),
		Link:              ResolveLink(r, name),
		Distance:          resolveDistance(r, cls, coords, hasCoords, refs.Venues),
		NearestBTSSpot:    resolveNearestSpot(r, coords, refs.Spots),
		Tags:              resolveTags(r, density),
		TransportDesc:     r.str("transport", "display_en"),
		SafeReturn:        rawValue(r, "safe_return"),
		SafeRoute:         rawValue(r, "safe_route"),
	}
}

func itemID(r RawItem, index int) string {
	if v, ok := r.value("id"); ok {
		if id := scalarString(v); id != "" {
			return id
		}
	}
	return fmt.Sprintf("item-%d", index)
}

// resolvePrice returns the nightly price in dollars. A won amount is
// converted; a plain number is taken as dollars already.
func resolvePrice(r RawItem) float64 {
	var price float64
	if p, ok := r.num("price"); ok && p != 0 {
		price = p
	} else {
		krw, _ := r.num("price", "discounted_price")
		if krw == 0 {
			krw, _ = r.num("price_krw")
		}
		if krw != 0 {
			price = math.Round(krw / KRWPerUSD)
		}
	}
	return max(price, 0)
}

func resolveRating(r RawItem) float64 {
	if v, ok := r.num("rating"); ok {
		return v
	}
	v, _ := r.num("rating", "score")
	return v
}

func accommodationType(label string) string {
	if strings.Contains(strings.ToLower(label), "airbnb") {
		return "Private Stay"
	}
	return label
}

// resolveTags puts the density label first. Stale density tags baked into
// the feed are dropped.
func resolveTags(r RawItem, d Density) []string {
	tags := []string{d.Label}
	for _, t := range r.stringList("tags") {
		if strings.Contains(strings.ToLower(t), "army density") {
			continue
		}
		tags = append(tags, t)
	}
	return tags
}

func rawValue(r RawItem, key string) any {
	v, ok := r.value(key)
	if !ok {
		return nil
	}
	return v
}
