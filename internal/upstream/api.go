package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

type (
	// PhoneResult is the outcome of validating a phone number.
	PhoneResult struct {
		Valid   bool
		Country string // country name implied by the number's prefix
	}

	// Country is the canonical data for a country.
	Country struct {
		Name    string
		Capital string
		ISO2    string
	}

	// Coordinates locate a city.
	Coordinates struct {
		Lat, Lon float64
	}
)

// Wire formats of the upstream responses
type (
	phoneResponse struct {
		IsValid bool   `json:"is_valid"`
		Country string `json:"country"`
	}

	countryResponse struct {
		Name    string `json:"name"`
		Capital string `json:"capital"`
		ISO2    string `json:"iso2"`
	}

	cityResponse struct {
		Name      string   `json:"name"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}

	weatherResponse struct {
		Temp *float64 `json:"temp"`
	}

	worldTimeResponse struct {
		Datetime string  `json:"datetime"` // "2006-01-02 15:04:05"
		Hour     flexInt `json:"hour"`
		Minute   flexInt `json:"minute"`
	}
)

// ValidatePhone asks the upstream whether number is a valid phone number and which country it belongs to.
func (c *Client) ValidatePhone(ctx context.Context, number string) (PhoneResult, error) {
	r, err := get[phoneResponse](ctx, c, EndpointPhone, url.Values{"number": {number}})
	if err != nil {
		return PhoneResult{}, err
	}
	return PhoneResult{Valid: r.IsValid, Country: r.Country}, nil
}

// ResolveCountry returns the canonical name, capital and ISO code of the named country.
func (c *Client) ResolveCountry(ctx context.Context, name string) (Country, error) {
	list, err := get[[]countryResponse](ctx, c, EndpointCountry, url.Values{"name": {name}})
	if err != nil {
		return Country{}, err
	}
	if len(list) == 0 {
		return Country{}, ErrNoResult
	}
	return Country{Name: list[0].Name, Capital: list[0].Capital, ISO2: list[0].ISO2}, nil
}

// GeocodeCity returns the coordinates of the first city matching name.
func (c *Client) GeocodeCity(ctx context.Context, city string) (Coordinates, error) {
	list, err := get[[]cityResponse](ctx, c, EndpointCity, url.Values{"name": {city}})
	if err != nil {
		return Coordinates{}, err
	}
	if len(list) == 0 {
		return Coordinates{}, ErrNoResult
	}
	if list[0].Latitude == nil || list[0].Longitude == nil {
		return Coordinates{}, c.missingField(EndpointCity, "latitude/longitude")
	}
	return Coordinates{Lat: *list[0].Latitude, Lon: *list[0].Longitude}, nil
}

// FetchTemperature returns the current temperature (°C) at the given location.
func (c *Client) FetchTemperature(ctx context.Context, at Coordinates) (float64, error) {
	r, err := get[weatherResponse](ctx, c, EndpointWeather, coordParams(at))
	if err != nil {
		return 0, err
	}
	if r.Temp == nil {
		return 0, c.missingField(EndpointWeather, "temp")
	}
	return *r.Temp, nil
}

// FetchLocalTime returns the current local time at the given location formatted as "HH:MM".
func (c *Client) FetchLocalTime(ctx context.Context, at Coordinates) (string, error) {
	r, err := get[worldTimeResponse](ctx, c, EndpointWorldTime, coordParams(at))
	if err != nil {
		return "", err
	}
	if r.Hour.set && r.Minute.set {
		return fmt.Sprintf("%02d:%02d", r.Hour.v, r.Minute.v), nil
	}
	if hhmm, ok := clockFromDatetime(r.Datetime); ok {
		return hhmm, nil
	}
	return "", c.missingField(EndpointWorldTime, "hour/minute")
}

func coordParams(at Coordinates) url.Values {
	return url.Values{
		"lat": {strconv.FormatFloat(at.Lat, 'f', -1, 64)},
		"lon": {strconv.FormatFloat(at.Lon, 'f', -1, 64)},
	}
}

// clockFromDatetime extracts "HH:MM" from "YYYY-MM-DD HH:MM:SS" (or the ISO 8601 "T" form)
func clockFromDatetime(s string) (string, bool) {
	if len(s) < 16 || (s[10] != ' ' && s[10] != 'T') || s[13] != ':' {
		return "", false
	}
	hhmm := s[11:16]
	if strings.Trim(hhmm[:2]+hhmm[3:], "0123456789") != "" {
		return "", false
	}
	return hhmm, true
}

// flexInt decodes an integer sent either as a JSON number or as a numeric string.
type flexInt struct {
	v   int
	set bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid integer %s", b)
	}
	f.v, f.set = n, true
	return nil
}
