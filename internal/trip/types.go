package trip

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Text is a free-text field. The assistant is inconsistent about quoting, so
// any JSON scalar is accepted and kept in its textual form.
type Text string

// UnmarshalJSON accepts strings, numbers, booleans and null.
// Objects and arrays are kept as compact JSON text.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*t = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case data[0] == '{' || data[0] == '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*t = Text(buf.String())
	default:
		*t = Text(data)
	}
	return nil
}

// String returns the text.
func (t Text) String() string { return string(t) }

// Degrees is a latitude or longitude. Numeric strings are accepted.
type Degrees float64

// UnmarshalJSON accepts a JSON number, a numeric string or null.
func (d *Degrees) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*d = 0
		return nil
	}
	s := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("parsing degrees %q: %w", s, err)
	}
	*d = Degrees(f)
	return nil
}

// DateRange holds the free-text travel dates.
type DateRange struct {
	Start Text `json:"start,omitempty"`
	End   Text `json:"end,omitempty"`
}

// LatLng is a coordinate pair.
type LatLng struct {
	Lat Degrees `json:"lat"`
	Lng Degrees `json:"lng"`
}

// RouteCoordinates are the endpoints of a driving route.
type RouteCoordinates struct {
	Start *LatLng `json:"start"`
	End   *LatLng `json:"end"`
}

// Route is one driving route option.
type Route struct {
	Name              Text              `json:"name,omitempty"`
	Distance          Text              `json:"distance,omitempty"`
	EstimatedTime     Text              `json:"estimated_time,omitempty"`
	Description       Text              `json:"description,omitempty"`
	BestDepartureTime Text              `json:"best_departure_time,omitempty"`
	ArrivalTime       Text              `json:"arrival_time,omitempty"`
	Highlights        []Text            `json:"highlights"`
	Coordinates       *RouteCoordinates `json:"coordinates"`
}

// TransportOption is a flight, train or ferry option.
type TransportOption struct {
	Airline        Text `json:"airline,omitempty"`
	Operator       Text `json:"operator,omitempty"`
	Route          Text `json:"route,omitempty"`
	Duration       Text `json:"duration,omitempty"`
	AveragePrice   Text `json:"average_price,omitempty"`
	Stops          Text `json:"stops,omitempty"`
	BookingLink    Text `json:"booking_link,omitempty"`
	BestTimeToBook Text `json:"best_time_to_book,omitempty"`
}

// TransportOptions is a list of options. A single JSON object decodes as a
// one-element list; the backend sends ferry either way.
type TransportOptions []TransportOption

// UnmarshalJSON accepts an array, a single object or null.
func (o *TransportOptions) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*o = nil
		return nil
	}
	if data[0] == '{' {
		var single TransportOption
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*o = TransportOptions{single}
		return nil
	}
	var list []TransportOption
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	if list == nil {
		list = []TransportOption{}
	}
	*o = list
	return nil
}

// Phase is one block of a grouped itinerary.
type Phase struct {
	Phase             Text   `json:"phase,omitempty"`
	Title             Text   `json:"title,omitempty"`
	Highlights        []Text `json:"highlights"`
	AccommodationArea Text   `json:"accommodation_area,omitempty"`
}

// ScheduleItem is one entry of a day's schedule.
type ScheduleItem struct {
	Time     Text `json:"time,omitempty"`
	Activity Text `json:"activity,omitempty"`
	Location Text `json:"location,omitempty"`
	Duration Text `json:"duration,omitempty"`
	Cost     Text `json:"cost,omitempty"`
}

// Day is one day of the detailed timeline.
type Day struct {
	Day      Text           `json:"day,omitempty"`
	Date     Text           `json:"date,omitempty"`
	Title    Text           `json:"title,omitempty"`
	Schedule []ScheduleItem `json:"schedule"`
}

// Hotel is an accommodation suggestion.
type Hotel struct {
	Name        Text `json:"name,omitempty"`
	Category    Text `json:"category,omitempty"`
	PriceRange  Text `json:"price_range,omitempty"`
	Rating      Text `json:"rating,omitempty"`
	Location    Text `json:"location,omitempty"`
	BookingLink Text `json:"booking_link,omitempty"`
}

// Activity is a suggested activity.
type Activity struct {
	Name        Text `json:"name,omitempty"`
	Location    Text `json:"location,omitempty"`
	Price       Text `json:"price,omitempty"`
	Category    Text `json:"category,omitempty"`
	Description Text `json:"description,omitempty"`
}

// Place is a point of interest.
type Place struct {
	Name                    Text `json:"name,omitempty"`
	Description             Text `json:"description,omitempty"`
	Distance                Text `json:"distance,omitempty"`
	DistanceFromDestination Text `json:"distance_from_destination,omitempty"`
	Location                Text `json:"location,omitempty"`
	RecommendedTime         Text `json:"recommended_time,omitempty"`
}

// Places groups points of interest by kind.
type Places struct {
	MustVisit       []Place `json:"must_visit"`
	HiddenGems      []Place `json:"hidden_gems"`
	NearDestination []Place `json:"near_destination"`
	AlongRoute      []Place `json:"along_route"`
	Popular         []Place `json:"popular"`
}

// Amenity is a restroom or food stop.
type Amenity struct {
	Name     Text `json:"name,omitempty"`
	Type     Text `json:"type,omitempty"`
	Location Text `json:"location,omitempty"`
}

// Amenities groups roadside amenities.
type Amenities struct {
	Restrooms []Amenity `json:"restrooms"`
	FoodStops []Amenity `json:"food_stops"`
}

// Forecast is one day of the weather forecast.
type Forecast struct {
	Date      Text `json:"date,omitempty"`
	Temp      Text `json:"temp,omitempty"`
	Condition Text `json:"condition,omitempty"`
}

// Weather summarises expected conditions.
type Weather struct {
	AverageTemp   Text       `json:"average_temp,omitempty"`
	Conditions    Text       `json:"conditions,omitempty"`
	PackingTip    Text       `json:"packing_tip,omitempty"`
	DailyForecast []Forecast `json:"daily_forecast"`
	BestTime      Text       `json:"best_time,omitempty"`
	DateRange     Text       `json:"date_range,omitempty"`
}

// CostEstimate holds free-text money amounts.
type CostEstimate struct {
	Flights       Text `json:"flights,omitempty"`
	Accommodation Text `json:"accommodation,omitempty"`
	Food          Text `json:"food,omitempty"`
	Transport     Text `json:"transport,omitempty"`
	Fuel          Text `json:"fuel,omitempty"`
	Activities    Text `json:"activities,omitempty"`
	Total         Text `json:"total,omitempty"`
}

// Plan is a display snapshot of a trip as described by the assistant.
// A nil slice means the field was absent; an empty slice means it was sent
// empty. Merge relies on that difference.
type Plan struct {
	From             Text             `json:"from,omitempty"`
	To               Text             `json:"to,omitempty"`
	Duration         Text             `json:"duration,omitempty"`
	TripType         Text             `json:"trip_type,omitempty"`
	TravelDates      *DateRange       `json:"travel_dates"`
	Routes           []Route          `json:"routes"`
	Flights          TransportOptions `json:"flights"`
	Trains           TransportOptions `json:"trains"`
	Ferry            TransportOptions `json:"ferry"`
	GroupedItinerary []Phase          `json:"grouped_itinerary"`
	DetailedTimeline []Day            `json:"detailed_timeline"`
	Hotels           []Hotel          `json:"hotels"`
	Activities       []Activity       `json:"activities"`
	Places           *Places          `json:"places"`
	Amenities        *Amenities       `json:"amenities"`
	Weather          *Weather         `json:"weather"`
	CostEstimate     *CostEstimate    `json:"cost_estimate"`
	PackingList      []Text           `json:"packing_list"`
	Recommendations  []Text           `json:"recommendations"`
}

// UnmarshalJSON decodes field by field. A field whose shape does not match is
// left at its zero value instead of failing the whole plan.
func (p *Plan) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*p, _ = decodePlan(fields)
	return nil
}

// decodePlan builds a Plan from raw object fields and returns, sorted, the
// keys that could not be decoded.
func decodePlan(fields map[string]json.RawMessage) (Plan, []string) {
	var p Plan
	targets := map[string]func(json.RawMessage) error{
		"from":              into(&p.From),
		"to":                into(&p.To),
		"duration":          into(&p.Duration),
		"trip_type":         into(&p.TripType),
		"travel_dates":      into(&p.TravelDates),
		"routes":            into(&p.Routes),
		"flights":           into(&p.Flights),
		"trains":            into(&p.Trains),
		"ferry":             into(&p.Ferry),
		"grouped_itinerary": into(&p.GroupedItinerary),
		"detailed_timeline": into(&p.DetailedTimeline),
		"hotels":            into(&p.Hotels),
		"activities":        into(&p.Activities),
		"places":            into(&p.Places),
		"amenities":         into(&p.Amenities),
		"weather":           into(&p.Weather),
		"cost_estimate":     into(&p.CostEstimate),
		"packing_list":      into(&p.PackingList),
		"recommendations":   into(&p.Recommendations),
	}

	var dropped []string
	for key, raw := range fields {
		decode, ok := targets[key]
		if !ok {
			continue
		}
		if err := decode(raw); err != nil {
			dropped = append(dropped, key)
		}
	}
	sort.Strings(dropped)
	return p, dropped
}

// into returns a decoder that only assigns dst when the whole value decodes.
func into[T any](dst *T) func(json.RawMessage) error {
	return func(raw json.RawMessage) error {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		*dst = v
		return nil
	}
}
