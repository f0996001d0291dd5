package stac

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Item is a single STAC feature returned by a search.
type Item struct {
	ID         string           `json:"id"`
	Collection string           `json:"collection"`
	Geometry   json.RawMessage  `json:"geometry,omitempty"`
	Properties ItemProperties   `json:"properties"`
	Assets     map[string]Asset `json:"assets"`
}

type ItemProperties struct {
	Datetime   string  `json:"datetime"`
	CloudCover float64 `json:"eo:cloud_cover"`
}

// Asset points at one downloadable file of an item, e.g. a band COG.
type Asset struct {
	Href  string `json:"href"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}

// Date returns the acquisition day as YYYY-MM-DD.
func (i Item) Date() string {
	if idx := strings.Index(i.Properties.Datetime, "T"); idx > 0 {
		return i.Properties.Datetime[:idx]
	}
	return i.Properties.Datetime
}

func (i Item) Time() (time.Time, error) {
	return ParseDatetime(i.Properties.Datetime)
}

// Catalogs are not consistent about sub-second precision or offsets, so try a
// few layouts before giving up.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func ParseDatetime(value string) (time.Time, error) {
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime %q", value)
}
