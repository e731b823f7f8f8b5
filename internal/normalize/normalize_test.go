package normalize_test

import (
	"fmt"
	"net/url"
	"reflect"
	"testing"

	"github.com/goccy/go-json"

	"github.com/armystay/hotels/internal/normalize"
)

func normalizeOne(t *testing.T, raw normalize.RawItem) normalize.Item {
	t.Helper()
	items := normalize.Normalize([]normalize.RawItem{raw}, normalize.DefaultReferences())
	if len(items) != 1 {
		t.Fatalf("Normalize() returned %d items, want 1", len(items))
	}
	return items[0]
}

func TestNormalize_PreservesLengthAndOrder(t *testing.T) {
	raw := []normalize.RawItem{
		{"id": "b", "name": "Second"},
		nil,
		{"name": "Third"},
		{"id": "a", "hotel_name": "First"},
	}

	items := normalize.Normalize(raw, normalize.DefaultReferences())

	if len(items) != len(raw) {
		t.Fatalf("len(items) = %d, want %d", len(items), len(raw))
	}

	wantIDs := []string{"b", "item-1", "item-2", "a"}
	for i, want := range wantIDs {
		if items[i].ID != want {
			t.Errorf("items[%d].ID = %q, want %q", i, items[i].ID, want)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	raw := []normalize.RawItem{
		{
			"id":          "hotel_1",
			"hotel_name":  "Hongdae Stay",
			"address":     "Mapo-gu, Seoul",
			"lat":         37.5563,
			"lng":         126.9236,
			"price":       map[string]any{"discounted_price": 98000},
			"tags":        []any{"#Quiet"},
			"safe_return": map[string]any{"last_train": "00:10"},
			"distance":    map[string]any{"display_en": "10 min"},
		},
		{},
	}
	refs := normalize.DefaultReferences()

	first := normalize.Normalize(raw, refs)
	second := normalize.Normalize(raw, refs)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Normalize() is not idempotent:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestNormalize_EmptyItemDefaults(t *testing.T) {
	item := normalizeOne(t, normalize.RawItem{})

	if item.Image == "" {
		t.Error("Image is empty")
	}
	if _, err := url.ParseRequestURI(item.Image); err != nil {
		t.Errorf("Image = %q is not a valid URL: %v", item.Image, err)
	}
	if !item.City.Valid() {
		t.Errorf("City = %q, want a known city", item.City)
	}
	if item.Price != 0 {
		t.Errorf("Price = %v, want 0", item.Price)
	}
	if item.Rating != 0 {
		t.Errorf("Rating = %v, want 0", item.Rating)
	}
	want := normalize.Coords{Lat: 37.5300, Lng: 127.0500}
	if item.Coords != want {
		t.Errorf("Coords = %+v, want %+v", item.Coords, want)
	}
	if item.Type != "stay" {
		t.Errorf("Type = %q, want %q", item.Type, "stay")
	}
	if item.Location != "" {
		t.Errorf("Location = %q, want empty", item.Location)
	}
	if item.Distance != nil {
		t.Errorf("Distance = %+v, want nil", item.Distance)
	}
	if item.Link != "https://www.agoda.com/search?text=" {
		t.Errorf("Link = %q", item.Link)
	}
}

func TestNormalize_ID(t *testing.T) {
	tests := []struct {
		name string
		raw  normalize.RawItem
		want string
	}{
		{name: "string id", raw: normalize.RawItem{"id": "hotel_1"}, want: "hotel_1"},
		{name: "numeric id", raw: normalize.RawItem{"id": 42.0}, want: "42"},
		{name: "empty id", raw: normalize.RawItem{"id": ""}, want: "item-0"},
		{name: "missing id", raw: normalize.RawItem{}, want: "item-0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeOne(t, tt.raw).ID; got != tt.want {
				t.Errorf("ID = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalize_Name(t *testing.T) {
	tests := []struct {
		name string
		raw  normalize.RawItem
		want string
	}{
		{name: "hotel_name first", raw: normalize.RawItem{"hotel_name": "A", "name_en": "B", "name": "C"}, want: "A"},
		{name: "name_en second", raw: normalize.RawItem{"name_en": "B", "name": "C"}, want: "B"},
		{name: "name last", raw: normalize.RawItem{"name": "C"}, want: "C"},
		{name: "non-string ignored", raw: normalize.RawItem{"hotel_name": 12.0, "name": "C"}, want: "C"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeOne(t, tt.raw).Name; got != tt.want {
				t.Errorf("Name = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalize_Price(t *testing.T) {
	tests := []struct {
		name string
		raw  normalize.RawItem
		want float64
	}{
		{name: "discounted won", raw: normalize.RawItem{"price": map[string]any{"discounted_price": 135000}}, want: 100},
		{name: "won rounds", raw: normalize.RawItem{"price": map[string]any{"discounted_price": 100000}}, want: 74},
		{name: "flat won", raw: normalize.RawItem{"price_krw": 67500}, want: 50},
		{name: "dollars pass through", raw: normalize.RawItem{"price": 450.0}, want: 450},
		{name: "zero price uses won", raw: normalize.RawItem{"price": 0.0, "price_krw": 135000}, want: 100},
		{name: "negative clamps", raw: normalize.RawItem{"price": -5.0}, want: 0},
		{name: "garbage", raw: normalize.RawItem{"price": "cheap"}, want: 0},
		{name: "missing", raw: normalize.RawItem{}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeOne(t, tt.raw).Price; got != tt.want {
				t.Errorf("Price = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalize_Rating(t *testing.T) {
	tests := []struct {
		name string
		raw  normalize.RawItem
		want float64
	}{
		{name: "number", raw: normalize.RawItem{"rating": 4.7}, want: 4.7},
		{name: "score object", raw: normalize.RawItem{"rating": map[string]any{"score": 8.7}}, want: 8.7},
		{name: "missing", raw: normalize.RawItem{}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeOne(t, tt.raw).Rating; got != tt.want {
				t.Errorf("Rating = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalize_Coords(t *testing.T) {
	tests := []struct {
		name string
		raw  normalize.RawItem
		want normalize.Coords
	}{
		{name: "flat", raw: normalize.RawItem{"lat": 35.1, "lng": 129.1}, want: normalize.Coords{Lat: 35.1, Lng: 129.1}},
		{name: "nested", raw: normalize.RawItem{"coords": map[string]any{"lat": 37.66, "lng": 126.74}}, want: normalize.Coords{Lat: 37.66, Lng: 126.74}},
		{name: "flat wins", raw: normalize.RawItem{"lat": 35.1, "lng": 129.1, "coords": map[string]any{"lat": 1.0, "lng": 2.0}}, want: normalize.Coords{Lat: 35.1, Lng: 129.1}},
		{name: "half flat falls back", raw: normalize.RawItem{"lat": 35.1}, want: normalize.Coords{Lat: 37.53, Lng: 127.05}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeOne(t, tt.raw).Coords; got != tt.want {
				t.Errorf("Coords = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNormalize_ArmyDensity(t *testing.T) {
	// Far from every venue and spot.
	const farLat, farLng = 35.1601, 129.1650

	tests := []struct {
		name      string
		raw       normalize.RawItem
		refs      func() normalize.References
		wantValue int
		wantLevel string
	}{
		{
			name:      "guesthouse at the anchor",
			raw:       normalize.RawItem{"lat": 37.6695, "lng": 126.7490, "type": "Guesthouse"},
			wantValue: 80,
			wantLevel: "Very High",
		},
		{
			name:      "anchor only",
			raw:       normalize.RawItem{"lat": 37.6695, "lng": 126.7490},
			wantValue: 60,
			wantLevel: "High",
		},
		{
			name:      "base only",
			raw:       normalize.RawItem{"lat": farLat, "lng": farLng},
			wantValue: 30,
			wantLevel: "Normal",
		},
		{
			name:      "hostel",
			raw:       normalize.RawItem{"lat": farLat, "lng": farLng, "hotel_type": map[string]any{"label_en": "Hostel"}},
			wantValue: 48,
			wantLevel: "Normal",
		},
		{
			name:      "airbnb",
			raw:       normalize.RawItem{"lat": farLat, "lng": farLng, "type": "Airbnb Loft"},
			wantValue: 40,
			wantLevel: "Normal",
		},
		{
			name:      "guesthouse outranks hostel",
			raw:       normalize.RawItem{"lat": farLat, "lng": farLng, "type": "Guesthouse & Hostel"},
			wantValue: 50,
			wantLevel: "Normal",
		},
		{
			name:      "hongdae address",
			raw:       normalize.RawItem{"lat": farLat, "lng": farLng, "address": "Hongdae, Mapo-gu"},
			wantValue: 38,
			wantLevel: "Normal",
		},
		{
			name:      "mapo outranks sangam",
			raw:       normalize.RawItem{"lat": farLat, "lng": farLng, "address_kr": "서울 마포구 상암동"},
			wantValue: 38,
			wantLevel: "Normal",
		},
		{
			name:      "sangam only",
			raw:       normalize.RawItem{"lat": farLat, "lng": farLng, "address_en": "Sangam-dong"},
			wantValue: 35,
			wantLevel: "Normal",
		},
		{
			name:      "ilsan outranks hongdae",
			raw:       normalize.RawItem{"lat": farLat, "lng": farLng, "address": "Ilsan near Hongdae line"},
			wantValue: 40,
			wantLevel: "Normal",
		},
		{
			name:      "raw goyang city",
			raw:       normalize.RawItem{"lat": farLat, "lng": farLng, "city": "goyang"},
			wantValue: 40,
			wantLevel: "Normal",
		},
		{
			name:      "next to a spot",
			raw:       normalize.RawItem{"lat": 37.5240, "lng": 126.9646},
			wantValue: 45,
			wantLevel: "Normal",
		},
		{
			name: "clamped",
			raw:  normalize.RawItem{"lat": 37.6695, "lng": 126.7490, "type": "Guesthouse", "address": "Ilsan"},
			refs: func() normalize.References {
				return normalize.DefaultReferences().WithSpots(normalize.Spot{
					Name:   "KINTEX Hall 5",
					Coords: normalize.Coords{Lat: 37.6695, Lng: 126.7490},
				})
			},
			wantValue: 99,
			wantLevel: "Very High",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs := normalize.DefaultReferences()
			if tt.refs != nil {
				refs = tt.refs()
			}
			got := normalize.Normalize([]normalize.RawItem{tt.raw}, refs)[0].ArmyDensity

			if got.Value != tt.wantValue {
				t.Errorf("Value = %d, want %d", got.Value, tt.wantValue)
			}
			if got.Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", got.Level, tt.wantLevel)
			}
			wantLabel := fmt.Sprintf("ARMY %d%%", tt.wantValue)
			if got.Label != wantLabel {
				t.Errorf("Label = %q, want %q", got.Label, wantLabel)
			}
		})
	}
}

func TestNormalize_AccommodationType(t *testing.T) {
	tests := []struct {
		raw  normalize.RawItem
		want string
	}{
		{raw: normalize.RawItem{"type": "Airbnb Loft"}, want: "Private Stay"},
		{raw: normalize.RawItem{"hotel_type": map[string]any{"label_en": "Hotel"}}, want: "Hotel"},
		{raw: normalize.RawItem{}, want: ""},
	}

	for _, tt := range tests {
		if got := normalizeOne(t, tt.raw).AccommodationType; got != tt.want {
			t.Errorf("AccommodationType = %q, want %q", got, tt.want)
		}
	}
}

func TestNormalize_Location(t *testing.T) {
	tests := []struct {
		name     string
		raw      normalize.RawItem
		want     string
		wantArea string
	}{
		{
			name:     "area and address",
			raw:      normalize.RawItem{"location": map[string]any{"area_en": "Hongdae", "address_en": "Mapo-gu"}},
			want:     "Hongdae, Mapo-gu",
			wantArea: "Hongdae",
		},
		{
			name:     "inferred busan district",
			raw:      normalize.RawItem{"address": "123 Haeundae-ro, Busan"},
			want:     "Haeundae",
			wantArea: "Haeundae",
		},
		{
			name:     "inferred district in korean",
			raw:      normalize.RawItem{"address_kr": "부산 수영구 광안리"},
			want:     "Gwangalli",
			wantArea: "Gwangalli",
		},
		{
			name: "district needs busan",
			raw:  normalize.RawItem{"address": "Jung-gu, Seoul"},
			want: "Jung-gu, Seoul",
		},
		{
			name: "area object",
			raw:  normalize.RawItem{"area": map[string]any{"area_kr": "일산"}, "address": "ignored"},
			want: "일산",
		},
		{
			name: "area string",
			raw:  normalize.RawItem{"area": "Myeongdong", "address": "ignored"},
			want: "Myeongdong",
		},
		{
			name: "location string",
			raw:  normalize.RawItem{"location": "Lotte World Tower, Songpa-gu"},
			want: "Lotte World Tower, Songpa-gu",
		},
		{
			name: "addr",
			raw:  normalize.RawItem{"addr": "somewhere"},
			want: "somewhere",
		},
		{
			name: "capitalized city",
			raw:  normalize.RawItem{"city": "paju"},
			want: "Paju",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := normalizeOne(t, tt.raw)
			if item.Location != tt.want {
				t.Errorf("Location = %q, want %q", item.Location, tt.want)
			}
			if item.AreaEn != tt.wantArea {
				t.Errorf("AreaEn = %q, want %q", item.AreaEn, tt.wantArea)
			}
		})
	}
}

func decodeJSON(t *testing.T, data []byte) any {
	t.Helper()
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("failed to decode %s: %v", data, err)
	}
	return v
}

func distanceJSON(t *testing.T, d *normalize.Distance) any {
	t.Helper()
	if d == nil {
		return nil
	}
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("failed to encode distance: %v", err)
	}
	return decodeJSON(t, data)
}

func TestNormalize_Distance(t *testing.T) {
	tests := []struct {
		name string
		raw  normalize.RawItem
		want string
	}{
		{
			name: "at gwanghwamun",
			raw:  normalize.RawItem{"city": "seoul", "lat": 37.5759, "lng": 126.9768},
			want: `{"minutes":5,"distance_km":0,"display_en":"Gwanghwamun Square Drive 5min"}`,
		},
		{
			name: "at busan asiad",
			raw:  normalize.RawItem{"city": "busan", "coords": map[string]any{"lat": 35.1901, "lng": 129.0560}},
			want: `{"minutes":5,"distance_km":0,"display_en":"Busan Asiad Main Stadium Drive 5min"}`,
		},
		{
			name: "raw text kept",
			raw: normalize.RawItem{
				"city":     "seoul",
				"lat":      37.5759,
				"lng":      126.9768,
				"distance": map[string]any{"text": "walk"},
			},
			want: `{"text":"walk","minutes":5,"distance_km":0,"display_en":"Gwanghwamun Square Drive 5min"}`,
		},
		{
			name: "computed keeps unknown keys",
			raw: normalize.RawItem{
				"city":     "seoul",
				"lat":      37.5759,
				"lng":      126.9768,
				"distance": map[string]any{"walk_min": 7, "display_en": "10 min walk", "minutes": 12.5},
			},
			want: `{"walk_min":7,"minutes":5,"distance_km":0,"display_en":"Gwanghwamun Square Drive 5min"}`,
		},
		{
			name: "no venue for paju",
			raw:  normalize.RawItem{"city": "paju", "lat": 37.7088, "lng": 126.698},
			want: "",
		},
		{
			name: "no coords and no city passes through",
			raw:  normalize.RawItem{"distance": map[string]any{"minutes": 12, "display_en": "12 min walk"}},
			want: `{"minutes":12,"display_en":"12 min walk"}`,
		},
		{
			name: "no coords prefixes venue",
			raw:  normalize.RawItem{"city": "goyang", "distance": map[string]any{"text": "10 min", "mode": "bus"}},
			want: `{"text":"10 min","mode":"bus","display_en":"Goyang Stadium 10 min"}`,
		},
		{
			name: "no coords no text",
			raw:  normalize.RawItem{"city": "busan", "distance": map[string]any{"minutes": 7}},
			want: `{"minutes":7}`,
		},
		{
			name: "string distance with a venue",
			raw:  normalize.RawItem{"city": "busan", "distance": "1.2 km from venue"},
			want: `"1.2 km from venue"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := distanceJSON(t, normalizeOne(t, tt.raw).Distance)
			var want any
			if tt.want != "" {
				want = decodeJSON(t, []byte(tt.want))
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("distance = %#v, want %#v", got, want)
			}
		})
	}
}

func TestNormalize_DistancePassThrough(t *testing.T) {
	tests := []struct {
		name        string
		doc         string
		wantMinutes float64
	}{
		{
			name:        "unknown keys and fractional minutes",
			doc:         `{"name":"Quiet Stay","distance":{"walk_min":7,"display_en":"10 min walk","minutes":12.5}}`,
			wantMinutes: 12.5,
		},
		{
			name: "string",
			doc:  `{"name":"Quiet Stay","distance":"1.2 km from venue"}`,
		},
		{
			name: "array",
			doc:  `{"name":"Quiet Stay","distance":[3,"stops"]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw normalize.RawItem
			if err := json.Unmarshal([]byte(tt.doc), &raw); err != nil {
				t.Fatalf("failed to decode item: %v", err)
			}

			item := normalizeOne(t, raw)
			if item.Distance == nil {
				t.Fatal("Distance = nil, want the feed value")
			}
			if !reflect.DeepEqual(item.Distance.Raw(), raw["distance"]) {
				t.Errorf("Raw() = %#v, want %#v", item.Distance.Raw(), raw["distance"])
			}
			if got := distanceJSON(t, item.Distance); !reflect.DeepEqual(got, raw["distance"]) {
				t.Errorf("distance = %#v, want %#v", got, raw["distance"])
			}
			if item.Minutes() != tt.wantMinutes {
				t.Errorf("Minutes() = %v, want %v", item.Minutes(), tt.wantMinutes)
			}
		})
	}
}

func TestDistance_UnmarshalKeepsValue(t *testing.T) {
	var item normalize.Item
	if err := json.Unmarshal([]byte(`{"id":"h1","distance":{"minutes":9,"via":"line 3"}}`), &item); err != nil {
		t.Fatalf("failed to decode item: %v", err)
	}
	if item.Minutes() != 9 {
		t.Errorf("Minutes() = %v, want 9", item.Minutes())
	}
	want := map[string]any{"minutes": float64(9), "via": "line 3"}
	if got := distanceJSON(t, item.Distance); !reflect.DeepEqual(got, want) {
		t.Errorf("distance = %#v, want %#v", got, want)
	}
}

func TestNormalize_NearestBTSSpot(t *testing.T) {
	t.Run("curated guide wins", func(t *testing.T) {
		item := normalizeOne(t, normalize.RawItem{
			"lat": 37.5240,
			"lng": 126.9646,
			"army_local_guide": map[string]any{
				"bts": []any{
					map[string]any{"name_en": "Jin's Restaurant", "name_kr": "진 식당", "spot_tag": "Owned by Jin", "distance_km": 1.2},
				},
			},
		})
		want := &normalize.NearestSpot{Name: "Jin's Restaurant", NameKR: "진 식당", Desc: "Owned by Jin", Dist: 1.2}
		if !reflect.DeepEqual(item.NearestBTSSpot, want) {
			t.Errorf("NearestBTSSpot = %+v, want %+v", item.NearestBTSSpot, want)
		}
	})

	t.Run("nearest permanent spot", func(t *testing.T) {
		item := normalizeOne(t, normalize.RawItem{"lat": 37.5240, "lng": 126.9646})
		if item.NearestBTSSpot == nil {
			t.Fatal("NearestBTSSpot = nil")
		}
		if item.NearestBTSSpot.Name != "HYBE Insight" {
			t.Errorf("Name = %q, want %q", item.NearestBTSSpot.Name, "HYBE Insight")
		}
		if item.NearestBTSSpot.Dist != 0 {
			t.Errorf("Dist = %v, want 0", item.NearestBTSSpot.Dist)
		}
	})

	t.Run("no spots", func(t *testing.T) {
		refs := normalize.DefaultReferences()
		refs.Spots = nil
		item := normalize.Normalize([]normalize.RawItem{{}}, refs)[0]
		if item.NearestBTSSpot != nil {
			t.Errorf("NearestBTSSpot = %+v, want nil", item.NearestBTSSpot)
		}
	})
}

func TestNormalize_Tags(t *testing.T) {
	item := normalizeOne(t, normalize.RawItem{
		"lat":  37.6695,
		"lng":  126.7490,
		"tags": []any{"Hotel", "Army Density 91%", 7.0, "#Business"},
	})

	want := []string{"ARMY 60%", "Hotel", "#Business"}
	if !reflect.DeepEqual(item.Tags, want) {
		t.Errorf("Tags = %v, want %v", item.Tags, want)
	}
}

func TestNormalize_NestedLocationDrivesCity(t *testing.T) {
	item := normalizeOne(t, normalize.RawItem{
		"name":     "Sea View",
		"location": map[string]any{"area_en": "Haeundae", "address_en": "Haeundae-gu, Busan"},
	})

	if item.City != normalize.CityBusan {
		t.Errorf("City = %q, want %q", item.City, normalize.CityBusan)
	}
	if item.Location != "Haeundae, Haeundae-gu, Busan" {
		t.Errorf("Location = %q", item.Location)
	}
}
