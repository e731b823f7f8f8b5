package normalize

import "strings"

// Classification is the outcome of city detection.
type Classification struct {
	City City
	// Defaulted is set when no field of the item identified a city.
	Defaulted bool
}

// cityKeyAliases maps accepted city_key values onto classifications.
var cityKeyAliases = map[string]City{
	"seongsu": CitySeoul,
	"seoul":   CitySeoul,
	"busan":   CityBusan,
	"paju":    CityPaju,
	"goyang":  CityGoyang,
}

type cityRule struct {
	city     City
	keywords []string
	cityKey  string
}

func (r cityRule) matches(search, cityKey string) bool {
	if r.cityKey != "" && cityKey == r.cityKey {
		return true
	}
	return containsAny(search, r.keywords...)
}

// cityRules is evaluated top to bottom. An address naming two cities
// resolves to the first group listed.
var cityRules = []cityRule{
	{city: CityNearGwanghwamun, keywords: []string{"gwanghwamun", "광화문"}, cityKey: "gwanghwamun"},
	{city: CitySeoul, keywords: []string{"seoul", "gangnam", "hongdae", "mapo", "yongsan", "서울", "강남", "홍대", "마포", "용산"}},
	{city: CityBusan, keywords: []string{"busan", "haeundae", "seomyeon", "부산", "해운대", "서면"}},
	{city: CityPaju, keywords: []string{"paju", "파주"}},
	{city: CityGoyang, keywords: []string{"goyang", "ilsan", "kintex", "고양", "일산", "킨텍스"}},
}

const defaultCity = CityGoyang

// citySearchFields starts with the resolved location line so nested
// location objects take part in inference.
var citySearchFields = []accessor{
	func(r RawItem) string { return resolveLocation(r, resolveArea(r, addressText(r))) },
	field("address"),
	field("address_en"),
	field("address_kr"),
	field("location"),
	field("location_en"),
	field("location_kr"),
	field("area", "area_en"),
	field("area", "area_kr"),
}

// Classify detects the city of a raw item. Explicit city_key and city
// fields outrank keyword inference over the free-text address fields.
func Classify(r RawItem) Classification {
	cityKey := strings.ToLower(r.str("city_key"))
	if c, ok := cityKeyAliases[cityKey]; ok {
		return Classification{City: c}
	}

	if c := City(strings.ToLower(r.str("city"))); c.Valid() {
		return Classification{City: c}
	}

	search := fold(joinOf(r, citySearchFields...))
	for _, rule := range cityRules {
		if rule.matches(search, cityKey) {
			return Classification{City: rule.city}
		}
	}

	return Classification{City: defaultCity, Defaulted: true}
}
