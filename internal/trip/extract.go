package trip

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Strategy names the parsing strategy that recovered a plan.
type Strategy string

const (
	StrategyNone           Strategy = "none"
	StrategyDirect         Strategy = "direct"
	StrategyNormalized     Strategy = "normalized"
	StrategyBalancedPrefix Strategy = "balanced_prefix"
	StrategyFieldSalvage   Strategy = "field_salvage"
)

// FallbackMessage replaces a reply that looked like raw JSON but could not be
// read as a trip plan.
const FallbackMessage = "I put together trip details but couldn't format them properly. Please try asking again."

// unknownDuration is used by field salvage when no duration is found.
const unknownDuration = "Unknown"

var (
	errNotObject     = errors.New("not a JSON object")
	errNoTripFields  = errors.New("no trip fields present")
	errNoPrefix      = errors.New("no balanced prefix")
	errMissingFields = errors.New("from and to not found")
)

// validityKeys are the fields of which at least one must be present for a
// parsed object to count as a trip plan.
var validityKeys = []string{"from", "to", "flights", "detailed_timeline", "grouped_itinerary"}

// prefixKeys is the looser check used while scanning balanced prefixes.
var prefixKeys = []string{"from", "to", "flights"}

var (
	fromField     = regexp.MustCompile(`"from"\s*:\s*"([^"]*)"`)
	toField       = regexp.MustCompile(`"to"\s*:\s*"([^"]*)"`)
	durationField = regexp.MustCompile(`"duration"\s*:\s*"([^"]*)"`)
	routesField   = regexp.MustCompile(`"routes"\s*:\s*\[`)
)

// Result is the outcome of extracting a plan from an assistant reply.
type Result struct {
	Plan           *Plan
	DisplayMessage string
	Strategy       Strategy
}

// input is what a strategy works on: the {...} candidate and the isolated
// text it was cut from, which still holds anything after the last brace.
type input struct {
	candidate string
	text      string
}

type strategy struct {
	name  Strategy
	parse func(in input) (*Plan, error)
}

// Extractor recovers trip plans from free-text assistant replies.
type Extractor struct {
	log        *slog.Logger
	strategies []strategy
}

// NewExtractor constructs an Extractor with the four parsing strategies in
// order of strictness.
func NewExtractor(log *slog.Logger) *Extractor {
	e := &Extractor{log: log}
	e.strategies = []strategy{
		{name: StrategyDirect, parse: e.direct},
		{name: StrategyNormalized, parse: e.normalized},
		{name: StrategyBalancedPrefix, parse: e.balancedPrefix},
		{name: StrategyFieldSalvage, parse: e.salvageFields},
	}
	return e
}

func looksLikeJSON(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "{")
}

// Extract looks for a trip plan in raw. On success the display message is a
// short summary of the plan; otherwise it is raw, unless raw is itself
// unreadable JSON, which is never shown to the user.
func (e *Extractor) Extract(raw string) Result {
	text, fenced := isolateFence(raw)

	if cand, ok := candidate(text); ok {
		in := input{candidate: cand, text: text}
		for _, s := range e.strategies {
			plan, err := s.parse(in)
			if err != nil {
				e.log.Debug("trip extraction strategy failed", "strategy", s.name, "err", err)
				continue
			}
			e.log.Info("trip plan extracted", "strategy", s.name, "to", plan.To, "fenced", fenced)
			return Result{Plan: plan, DisplayMessage: Summarize(*plan), Strategy: s.name}
		}
		e.log.Warn("no trip plan recovered from reply", "candidate_len", len(cand), "fenced", fenced)
	}

	msg := raw
	if looksLikeJSON(raw) || (fenced && looksLikeJSON(text)) {
		msg = FallbackMessage
	}
	return Result{DisplayMessage: msg, Strategy: StrategyNone}
}

func (e *Extractor) direct(in input) (*Plan, error) {
	return e.decode(in.candidate, validityKeys)
}

func (e *Extractor) normalized(in input) (*Plan, error) {
	return e.decode(normalize(in.candidate), validityKeys)
}

// balancedPrefix parses every prefix that closes at bracket depth zero and
// keeps the last one that reads as a trip.
func (e *Extractor) balancedPrefix(in input) (*Plan, error) {
	cand := in.candidate
	var (
		best    *Plan
		lastErr = errNoPrefix
	)
	for _, end := range balancedEnds(cand) {
		plan, err := e.decode(lightRepair(cand[:end]), prefixKeys)
		if err != nil {
			lastErr = err
			continue
		}
		best = plan
	}
	if best == nil {
		return nil, lastErr
	}
	return best, nil
}

// salvageFields pulls from, to and duration out with patterns when nothing
// parses. Routes are recovered separately if their array is intact. It reads
// the whole isolated text since a truncated reply loses its closing braces.
func (e *Extractor) salvageFields(in input) (*Plan, error) {
	text := in.text
	from := fromField.FindStringSubmatch(text)
	to := toField.FindStringSubmatch(text)
	if from == nil || to == nil {
		return nil, errMissingFields
	}

	plan := &Plan{
		From:             Text(from[1]),
		To:               Text(to[1]),
		Duration:         unknownDuration,
		Routes:           []Route{},
		Flights:          TransportOptions{},
		Trains:           TransportOptions{},
		GroupedItinerary: []Phase{},
		DetailedTimeline: []Day{},
		Hotels:           []Hotel{},
		Activities:       []Activity{},
		PackingList:      []Text{},
		Recommendations:  []Text{},
	}
	if d := durationField.FindStringSubmatch(text); d != nil && d[1] != "" {
		plan.Duration = Text(d[1])
	}

	if loc := routesField.FindStringIndex(text); loc != nil {
		open := loc[1] - 1
		if end := matchingBracket(text, open); end > 0 {
			var routes []Route
			if err := json.Unmarshal([]byte(lightRepair(text[open:end])), &routes); err != nil {
				e.log.Debug("salvaged routes unreadable", "err", err)
			} else if routes != nil {
				plan.Routes = routes
			}
		}
	}

	return plan, nil
}

// decode parses s as a JSON object, requires one of keys to be present and
// non-null, and decodes the known fields.
func (e *Extractor) decode(s string, keys []string) (*Plan, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &fields); err != nil {
		return nil, fmt.Errorf("parsing candidate: %w", err)
	}
	if fields == nil {
		return nil, errNotObject
	}
	if !hasAnyField(fields, keys) {
		return nil, errNoTripFields
	}

	plan, dropped := decodePlan(fields)
	if len(dropped) > 0 {
		e.log.Debug("dropped malformed trip fields", "fields", dropped)
	}
	return &plan, nil
}

func hasAnyField(fields map[string]json.RawMessage, keys []string) bool {
	for _, k := range keys {
		raw, ok := fields[k]
		if ok && strings.TrimSpace(string(raw)) != "null" {
			return true
		}
	}
	return false
}
