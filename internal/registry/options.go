package registry

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Geography endpoints behind the registration API.
const (
	provincesPath = "/api/registration/geography/provinces/"
	locationsPath = "/api/registration/geography/locations/"
	placesPath    = "/api/registration/geography/"
	sportsPath    = "/api/registration/sport/"
)

// defaultOptionLimit bounds dropdown option fetches.
const defaultOptionLimit = 1000

// placeOptionLimit is higher because place names are a long tail.
const placeOptionLimit = 5000

// Option is one dropdown entry.
type Option struct {
	Label string
	Value string
}

// Options fetches dropdown options from a registry endpoint. The endpoint may
// answer with {"results": [...]} objects, in which case labelKey/valueKey
// select the fields, or with a bare array of scalars used for both label and
// value. Any other shape yields no options.
func (c *Client) Options(ctx context.Context, token, path, labelKey, valueKey string, params url.Values, limit int) ([]Option, error) {
	if limit <= 0 {
		limit = defaultOptionLimit
	}
	merged := url.Values{}
	for key, values := range params {
		merged[key] = values
	}
	merged.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, token, path, merged)
	if err != nil {
		return nil, err
	}
	return parseOptions(body, labelKey, valueKey), nil
}

// parseOptions extracts options from either supported response shape.
func parseOptions(body []byte, labelKey, valueKey string) []Option {
	parsed := gjson.ParseBytes(body)

	if results := parsed.Get("results"); results.IsArray() {
		var options []Option
		results.ForEach(func(_, item gjson.Result) bool {
			label := item.Get(labelKey).String()
			value := item.Get(valueKey).String()
			if strings.TrimSpace(label) == "" {
				return true
			}
			options = append(options, Option{Label: label, Value: value})
			return true
		})
		return options
	}

	if parsed.IsArray() {
		var options []Option
		parsed.ForEach(func(_, item gjson.Result) bool {
			value := item.String()
			if strings.TrimSpace(value) == "" {
				return true
			}
			options = append(options, Option{Label: value, Value: value})
			return true
		})
		return options
	}

	return nil
}

// Sports lists sport options.
func (c *Client) Sports(ctx context.Context, token string) ([]Option, error) {
	return c.Options(ctx, token, sportsPath, "name", "id", nil, 0)
}

// Provinces lists province/territory options.
func (c *Client) Provinces(ctx context.Context, token string) ([]Option, error) {
	return c.Options(ctx, token, provincesPath, "name", "id", nil, 0)
}

// Locations lists location options within a province.
func (c *Client) Locations(ctx context.Context, token, provinceID string) ([]Option, error) {
	if strings.TrimSpace(provinceID) == "" {
		return nil, nil
	}
	params := url.Values{"province_territory": {provinceID}}
	return c.Options(ctx, token, locationsPath, "name", "id", params, 0)
}

// Places lists town/city options within a location, optionally narrowed by
// province.
func (c *Client) Places(ctx context.Context, token, provinceID, locationID string) ([]Option, error) {
	if strings.TrimSpace(locationID) == "" {
		return nil, nil
	}
	params := url.Values{"location": {locationID}}
	if strings.TrimSpace(provinceID) != "" {
		params.Set("province_territory", provinceID)
	}
	return c.Options(ctx, token, placesPath, "name", "id", params, placeOptionLimit)
}
