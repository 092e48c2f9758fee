package trip_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/neexbeast/tripmate/internal/trip"
)

func TestSummarize_ListsPresentCategories(t *testing.T) {
	p := trip.Plan{
		To:               "Queenstown",
		Routes:           []trip.Route{{Name: "A"}, {Name: "B"}},
		DetailedTimeline: []trip.Day{{Title: "Arrive"}},
		Activities:       []trip.Activity{{Name: "Bungy"}},
	}

	got := trip.Summarize(p)

	assert.Equal(t, "I've put together a trip plan for Queenstown, including 2 route options, "+
		"day-by-day timeline, activities. Check out the trip panel for the details!", got)
}

func TestSummarize_SingleRoute(t *testing.T) {
	got := trip.Summarize(trip.Plan{To: "Napier", Routes: []trip.Route{{Name: "SH2"}}})
	assert.Contains(t, got, "including 1 route option.")
}

func TestSummarize_NoCategoriesNoDestination(t *testing.T) {
	got := trip.Summarize(trip.Plan{})
	assert.Equal(t, "I've put together a trip plan for your trip. Check out the trip panel for the details!", got)
}
