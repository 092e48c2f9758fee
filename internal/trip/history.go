package trip

// History is the ordered list of trips produced in a session and the index
// of the one on display.
type History struct {
	Trips  []Plan `json:"trips"`
	Cursor int    `json:"cursor"`
}

// Len returns the number of recorded trips.
func (h *History) Len() int { return len(h.Trips) }

// Current returns the trip on display, or nil when nothing is recorded.
func (h *History) Current() *Plan {
	if h.Cursor < 0 || h.Cursor >= len(h.Trips) {
		return nil
	}
	return &h.Trips[h.Cursor]
}

// Record appends p and moves the cursor to it.
func (h *History) Record(p Plan) {
	h.Trips = append(h.Trips, p)
	h.Cursor = len(h.Trips) - 1
}

// Replace overwrites the trip on display. With an empty history it records.
func (h *History) Replace(p Plan) {
	if h.Current() == nil {
		h.Record(p)
		return
	}
	h.Trips[h.Cursor] = p
}

// Back moves to the previous trip. It reports whether the cursor moved.
func (h *History) Back() bool {
	if h.Cursor <= 0 {
		return false
	}
	h.Cursor--
	return true
}

// Forward moves to the next trip. It reports whether the cursor moved.
func (h *History) Forward() bool {
	if h.Cursor >= len(h.Trips)-1 {
		return false
	}
	h.Cursor++
	return true
}

// Apply merges incoming into the trip on display. A new trip is appended; a
// follow-up overwrites the current entry in place.
func (h *History) Apply(incoming Plan) (Plan, bool) {
	merged, isNew := Merge(h.Current(), incoming)
	if isNew {
		h.Record(merged)
	} else {
		h.Replace(merged)
	}
	return merged, isNew
}
