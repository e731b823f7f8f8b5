package normalize_test

import (
	"testing"

	"github.com/armystay/hotels/internal/normalize"
)

func TestResolveLink(t *testing.T) {
	tests := []struct {
		name string
		raw  normalize.RawItem
		item string
		want string
	}{
		{
			name: "doubled booking prefix repaired",
			raw:  normalize.RawItem{"booking_url": "https://www.booking.comhttps://www.booking.com/hotel/foo"},
			want: "https://www.booking.com/hotel/foo",
		},
		{
			name: "hotel page outranks platform",
			raw: normalize.RawItem{
				"booking_url": "https://www.booking.com/hotel/kr/ilsan.html",
				"platform":    map[string]any{"booking_url": "https://www.agoda.com/ko-kr/ilsan/hotel/goyang-kr.html"},
			},
			want: "https://www.booking.com/hotel/kr/ilsan.html",
		},
		{
			name: "platform outranks root search",
			raw: normalize.RawItem{
				"booking_url": "https://www.booking.com/searchresults.html?ss=ilsan",
				"platform":    map[string]any{"booking_url": "https://www.agoda.com/ko-kr/ilsan/hotel/goyang-kr.html"},
			},
			want: "https://www.agoda.com/ko-kr/ilsan/hotel/goyang-kr.html",
		},
		{
			name: "platform search skipped",
			raw: normalize.RawItem{
				"platform": map[string]any{"booking_url": "https://www.agoda.com/search?city=14690&q=x"},
				"link":     "https://partner.example.com/r/1",
			},
			want: "https://partner.example.com/r/1",
		},
		{
			name: "root non-search url",
			raw:  normalize.RawItem{"booking_url": "https://example.com/stays/123"},
			want: "https://example.com/stays/123",
		},
		{
			name: "short root skipped",
			raw:  normalize.RawItem{"booking_url": "https://x.co/a", "link": "https://partner.example.com/r/2"},
			want: "https://partner.example.com/r/2",
		},
		{
			name: "malformed link falls back to search",
			raw:  normalize.RawItem{"link": "not a url"},
			item: "Hotel & Spa",
			want: "https://www.agoda.com/search?text=Hotel%20%26%20Spa",
		},
		{
			name: "root search falls back",
			raw:  normalize.RawItem{"booking_url": "https://www.booking.com/search?x=1"},
			item: "Kintex by K-Tree",
			want: "https://www.agoda.com/search?text=Kintex%20by%20K-Tree",
		},
		{
			name: "korean name escaped",
			raw:  normalize.RawItem{},
			item: "일산",
			want: "https://www.agoda.com/search?text=%EC%9D%BC%EC%82%B0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalize.ResolveLink(tt.raw, tt.item); got != tt.want {
				t.Errorf("ResolveLink() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "https://www.booking.comhttps://www.booking.com/hotel/a", want: "https://www.booking.com/hotel/a"},
		{in: "https://www.booking.comhttps://www.booking.comhttps://www.booking.com/hotel/a", want: "https://www.booking.com/hotel/a"},
		{in: "https://www.booking.com/hotel/a", want: "https://www.booking.com/hotel/a"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		if got := normalize.SanitizeURL(tt.in); got != tt.want {
			t.Errorf("SanitizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
