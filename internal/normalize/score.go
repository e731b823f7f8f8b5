package normalize

import (
	"fmt"
	"strings"
)

const (
	baseScore = 30
	maxScore  = 99
)

// tier awards bonus when a distance is at most maxKm.
type tier struct {
	maxKm float64
	bonus int
}

var anchorTiers = []tier{{1, 30}, {3, 25}, {5, 20}, {10, 10}}

var spotTiers = []tier{{2, 15}, {5, 10}, {10, 5}}

func tierBonus(tiers []tier, km float64) int {
	for _, t := range tiers {
		if km <= t.maxKm {
			return t.bonus
		}
	}
	return 0
}

type keywordBonus struct {
	keywords []string
	bonus    int
}

// typeBonuses are mutually exclusive; the first match wins.
var typeBonuses = []keywordBonus{
	{keywords: []string{"guesthouse"}, bonus: 20},
	{keywords: []string{"hostel"}, bonus: 18},
	{keywords: []string{"airbnb", "bnb"}, bonus: 10},
	{keywords: []string{"residence"}, bonus: 8},
}

type neighborhoodRule struct {
	keywords []string
	// city also matches on the raw city or city_key field.
	city  string
	bonus int
}

var neighborhoodRules = []neighborhoodRule{
	{keywords: []string{"ilsan", "일산", "goyang", "고양"}, city: "goyang", bonus: 10},
	{keywords: []string{"hongdae", "홍대", "mapo", "마포"}, bonus: 8},
	{keywords: []string{"sangam", "상암"}, bonus: 5},
}

func (n neighborhoodRule) matches(r RawItem, address string) bool {
	if n.city != "" && (r.str("city") == n.city || r.str("city_key") == n.city) {
		return true
	}
	return containsAny(address, n.keywords...)
}

// scoreDensity computes the additive fan density score.
func scoreDensity(r RawItem, coords Coords, address string, refs References) Density {
	score := baseScore
	score += tierBonus(anchorTiers, Haversine(coords, refs.ScoreAnchor.Coords))

	typeKey := strings.ToLower(typeLabel(r))
	for _, b := range typeBonuses {
		if containsAny(typeKey, b.keywords...) {
			score += b.bonus
			break
		}
	}

	if _, km, ok := nearestSpot(coords, refs.Spots); ok {
		score += tierBonus(spotTiers, km)
	}

	for _, n := range neighborhoodRules {
		if n.matches(r, address) {
			score += n.bonus
			break
		}
	}

	score = min(score, maxScore)
	return Density{
		Value: score,
		Label: fmt.Sprintf("ARMY %d%%", score),
		Level: densityLevel(score),
	}
}

func densityLevel(score int) string {
	switch {
	case score >= 80:
		return "Very High"
	case score >= 60:
		return "High"
	}
	return "Normal"
}
