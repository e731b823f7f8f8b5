package normalize

import "strings"

const (
	stockBusan      = "https://images.unsplash.com/photo-1590483863741-f70cc6bf200c?auto=format&fit=crop&q=80&w=1080"
	stockGoyang     = "https://images.unsplash.com/photo-1549410961-d6a13180491b?auto=format&fit=crop&q=80&w=1080"
	stockGuesthouse = "https://images.unsplash.com/photo-1555854811-8aa226472e6c?auto=format&fit=crop&q=80&w=1080"
	stockDefault    = "https://images.unsplash.com/photo-1566073771259-6a8506099945?auto=format&fit=crop&q=80&w=1080"
)

// placeholderHosts serve design mockups, never real photos.
var placeholderHosts = []string{"figma.com", "s3-figma-foundry"}

const (
	thumbnailCDN  = "cf.bstatic.com"
	thumbnailSize = "square240"
	hdSize        = "max1024x768"
)

var rawImageFields = []accessor{
	func(r RawItem) string {
		if images := r.list("images"); len(images) > 0 {
			s, _ := images[0].(string)
			return s
		}
		return ""
	},
	field("image_url"),
	field("image"),
}

// ResolveImage picks the display image for an item. The result is never
// empty.
func ResolveImage(r RawItem, id, name string, overrides []ImageOverride) string {
	if url := overrideImage(overrides, id, name); url != "" {
		return url
	}

	if url := firstOf(r, rawImageFields...); url != "" && !containsAny(url, placeholderHosts...) && isAbsoluteURL(url) {
		if strings.Contains(url, thumbnailCDN) && strings.Contains(url, thumbnailSize) {
			url = strings.Replace(url, thumbnailSize, hdSize, 1)
		}
		return url
	}

	return stockImage(r)
}

func overrideImage(overrides []ImageOverride, id, name string) string {
	lowerName := strings.ToLower(name)
	for _, o := range overrides {
		if o.ID != "" && o.ID == id {
			return o.ImageURL
		}
		if o.Name != "" && strings.Contains(lowerName, strings.ToLower(o.Name)) {
			return o.ImageURL
		}
	}
	return ""
}

func stockImage(r RawItem) string {
	cityKey := strings.ToLower(firstOf(r, field("city_key"), field("city")))
	typeKey := strings.ToLower(typeLabel(r))

	switch {
	case cityKey == "busan":
		return stockBusan
	case cityKey == "goyang" || cityKey == "paju":
		return stockGoyang
	case containsAny(typeKey, "guesthouse", "hostel"):
		return stockGuesthouse
	}
	return stockDefault
}

// typeLabel is the free-text accommodation type of an item.
func typeLabel(r RawItem) string {
	return firstOf(r, field("hotel_type", "label_en"), field("type"))
}
