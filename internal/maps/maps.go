// Package maps builds Google Maps links for trip plans. No API key is needed
// for these URL forms.
package maps

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/neexbeast/tripmate/internal/trip"
)

const (
	mapsURL  = "https://www.google.com/maps"
	embedURL = "https://maps.google.com/maps"

	travelMode = "driving"
)

// DirectionsURL returns driving directions between two coordinates.
func DirectionsURL(from, to trip.LatLng) string {
	return directions(latLng(from), latLng(to))
}

// DirectionsByNameURL returns driving directions between two free-text places.
func DirectionsByNameURL(from, to string) string {
	return directions(strings.TrimSpace(from), strings.TrimSpace(to))
}

func directions(origin, destination string) string {
	q := url.Values{}
	q.Set("api", "1")
	q.Set("origin", origin)
	q.Set("destination", destination)
	q.Set("travelmode", travelMode)
	return mapsURL + "/dir/?" + q.Encode()
}

// SearchURL returns a map search for query.
func SearchURL(query string) string {
	q := url.Values{}
	q.Set("api", "1")
	q.Set("query", strings.TrimSpace(query))
	return mapsURL + "/search/?" + q.Encode()
}

// EmbedURL returns a URL suitable for an iframe showing query.
func EmbedURL(query string) string {
	q := url.Values{}
	q.Set("q", strings.TrimSpace(query))
	q.Set("output", "embed")
	return embedURL + "?" + q.Encode()
}

func latLng(p trip.LatLng) string {
	return fmt.Sprintf("%f,%f", float64(p.Lat), float64(p.Lng))
}

// RouteLink is the set of map links for one route option.
type RouteLink struct {
	Name       string `json:"name"`
	Directions string `json:"directions_url"`
	Embed      string `json:"embed_url,omitempty"`
}

// RouteLinks returns one link set per route in p. Routes without both
// coordinates fall back to the plan's from/to text; a route with neither is
// skipped. A plan with no routes but a known origin and destination gets a
// single entry.
func RouteLinks(p trip.Plan) []RouteLink {
	from := strings.TrimSpace(string(p.From))
	to := strings.TrimSpace(string(p.To))
	byName := from != "" && to != ""

	links := []RouteLink{}
	for i, r := range p.Routes {
		name := strings.TrimSpace(string(r.Name))
		if name == "" {
			name = fmt.Sprintf("Route %d", i+1)
		}

		var dir string
		switch {
		case r.Coordinates != nil && r.Coordinates.Start != nil && r.Coordinates.End != nil:
			dir = DirectionsURL(*r.Coordinates.Start, *r.Coordinates.End)
		case byName:
			dir = DirectionsByNameURL(from, to)
		default:
			continue
		}

		link := RouteLink{Name: name, Directions: dir}
		if to != "" {
			link.Embed = EmbedURL(to)
		}
		links = append(links, link)
	}

	if len(p.Routes) == 0 && byName {
		links = append(links, RouteLink{
			Name:       from + " to " + to,
			Directions: DirectionsByNameURL(from, to),
			Embed:      EmbedURL(to),
		})
	}
	return links
}
