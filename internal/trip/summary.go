package trip

import (
	"fmt"
	"strings"
)

// Summarize returns the chat message shown in place of a reply whose plan
// was extracted. Only categories the plan actually carries are listed.
func Summarize(p Plan) string {
	dest := strings.TrimSpace(string(p.To))
	if dest == "" {
		dest = "your trip"
	}

	var parts []string
	if len(p.Flights) > 0 {
		parts = append(parts, "flights")
	}
	if len(p.Trains) > 0 {
		parts = append(parts, "train routes")
	}
	switch n := len(p.Routes); {
	case n == 1:
		parts = append(parts, "1 route option")
	case n > 1:
		parts = append(parts, fmt.Sprintf("%d route options", n))
	}
	if len(p.GroupedItinerary) > 0 {
		parts = append(parts, "trip overview")
	}
	if len(p.DetailedTimeline) > 0 {
		parts = append(parts, "day-by-day timeline")
	}
	if len(p.Hotels) > 0 {
		parts = append(parts, "hotel recommendations")
	}
	if len(p.Activities) > 0 {
		parts = append(parts, "activities")
	}

	if len(parts) == 0 {
		return fmt.Sprintf("I've put together a trip plan for %s. Check out the trip panel for the details!", dest)
	}
	return fmt.Sprintf("I've put together a trip plan for %s, including %s. Check out the trip panel for the details!",
		dest, strings.Join(parts, ", "))
}
