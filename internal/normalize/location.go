package normalize

type district struct {
	area     string
	keywords []string
}

// busanDistricts is checked in order; the first hit names the area.
var busanDistricts = []district{
	{area: "Haeundae", keywords: []string{"haeundae", "해운대"}},
	{area: "Gwangalli", keywords: []string{"suyeong", "gwangalli", "수영", "광안리"}},
	{area: "Seomyeon", keywords: []string{"busanjin", "seomyeon", "부산진", "서면"}},
	{area: "Nampo", keywords: []string{"jung-gu", "nampo", "중구", "남포"}},
	{area: "Yeongdo", keywords: []string{"yeongdo", "영도"}},
	{area: "Gijang", keywords: []string{"gijang", "기장"}},
}

// addressFields feed both the neighborhood bonus and district inference.
var addressFields = []accessor{
	field("location", "address_en"),
	field("address_en"),
	field("address"),
	field("location"),
	field("location_kr"),
	field("address_kr"),
}

// addressText is the folded address used for keyword matching.
func addressText(r RawItem) string {
	return fold(joinOf(r, addressFields...))
}

// resolveArea returns the explicit English area of an item, or the Busan
// district inferred from its address.
func resolveArea(r RawItem, address string) string {
	if area := r.str("location", "area_en"); area != "" {
		return area
	}
	if !containsAny(address, "busan", "부산") {
		return ""
	}
	for _, d := range busanDistricts {
		if containsAny(address, d.keywords...) {
			return d.area
		}
	}
	return ""
}

var locationFields = []accessor{
	field("area"),
	field("location_en"),
	field("address_en"),
	field("address"),
	field("location"),
	field("addr"),
	func(r RawItem) string { return capitalize(r.str("city")) },
}

// resolveLocation builds the human-readable location line. It may be empty.
func resolveLocation(r RawItem, area string) string {
	addressEn := r.str("location", "address_en")
	switch {
	case area != "" && addressEn != "":
		return area + ", " + addressEn
	case area != "":
		return area
	}

	// A structured area decides the line even when both names are blank.
	if a := r.object("area"); a != nil {
		return firstOf(a, field("area_en"), field("area_kr"))
	}
	return firstOf(r, locationFields...)
}
