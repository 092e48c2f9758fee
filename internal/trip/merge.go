package trip

import "strings"

// placeholderMarkers flag generic values that must not overwrite a known one.
var placeholderMarkers = []string{"your location", "unknown", "x days", "tbd"}

// IsPlaceholder reports whether s carries no real information.
func IsPlaceholder(s Text) bool {
	v := strings.ToLower(strings.TrimSpace(string(s)))
	if v == "" {
		return true
	}
	for _, m := range placeholderMarkers {
		if strings.Contains(v, m) {
			return true
		}
	}
	return false
}

// SameTrip reports whether incoming continues the trip described by
// existing: the destinations match case-insensitively when either contains
// the other, which covers "Queenstown" vs "Queenstown, New Zealand".
func SameTrip(existing *Plan, incoming Plan) bool {
	if existing == nil {
		return false
	}
	a := strings.ToLower(strings.TrimSpace(string(existing.To)))
	b := strings.ToLower(strings.TrimSpace(string(incoming.To)))
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// Merge folds incoming into existing. A different destination (or no
// existing trip) is a new trip and incoming is returned untouched. A
// follow-up overrides field by field:
//
//   - from, to, duration: incoming unless it is a placeholder
//   - routes, hotels, activities: incoming when non-empty
//   - flights, trains, ferry: always incoming, so an omitted category clears
//   - everything else: incoming when present
func Merge(existing *Plan, incoming Plan) (merged Plan, isNewTrip bool) {
	if !SameTrip(existing, incoming) {
		return incoming, true
	}

	merged = *existing

	merged.From = pickText(incoming.From, existing.From)
	merged.To = pickText(incoming.To, existing.To)
	merged.Duration = pickText(incoming.Duration, existing.Duration)

	if len(incoming.Routes) > 0 {
		merged.Routes = incoming.Routes
	}

	merged.Flights = incoming.Flights
	merged.Trains = incoming.Trains
	merged.Ferry = incoming.Ferry

	if incoming.TripType != "" {
		merged.TripType = incoming.TripType
	}
	if incoming.TravelDates != nil {
		merged.TravelDates = incoming.TravelDates
	}
	if incoming.GroupedItinerary != nil {
		merged.GroupedItinerary = incoming.GroupedItinerary
	}
	if incoming.DetailedTimeline != nil {
		merged.DetailedTimeline = incoming.DetailedTimeline
	}
	if incoming.Recommendations != nil {
		merged.Recommendations = incoming.Recommendations
	}
	if incoming.PackingList != nil {
		merged.PackingList = incoming.PackingList
	}
	if incoming.Places != nil {
		merged.Places = incoming.Places
	}
	if incoming.Amenities != nil {
		merged.Amenities = incoming.Amenities
	}
	if incoming.Weather != nil {
		merged.Weather = incoming.Weather
	}
	if incoming.CostEstimate != nil {
		merged.CostEstimate = incoming.CostEstimate
	}

	if len(incoming.Hotels) > 0 {
		merged.Hotels = incoming.Hotels
	}
	if len(incoming.Activities) > 0 {
		merged.Activities = incoming.Activities
	}

	return merged, false
}

func pickText(incoming, existing Text) Text {
	if IsPlaceholder(incoming) {
		return existing
	}
	return incoming
}
