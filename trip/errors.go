// Package trip provides error handling for carousel operations.
//
// The trip package uses stumbling metaphors for failures - when a carousel
// hits a problem it "trips up" or "stumbles", and most of the time it has to
// keep its footing: the carousel is a background interaction layer and must
// never take its host down with it.
package trip

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Kind categorises where a trip happened.
type Kind string

const (
	// KindConfiguration covers missing panels and invalid declared settings.
	KindConfiguration Kind = "configuration"
	// KindNavigation covers navigation precondition violations.
	KindNavigation Kind = "navigation"
	// KindTimeout covers missed transition-completion signals.
	KindTimeout Kind = "timeout"
	// KindGesture covers anomalous gestures. These are normally dropped
	// silently and only recorded at debug verbosity.
	KindGesture Kind = "gesture"
	// KindStage covers failed waits and assertions of a headless stage run.
	KindStage Kind = "stage"
	// KindRender covers frame rasterisation and film output.
	KindRender Kind = "render"
)

// Trip represents a carousel failure with rich context.
//
// Example usage:
//
//	err := NewTrip(KindNavigation, "cannot resolve transition slides",
//	    Context{"direction": "forward", "center": 4})
//
//	if err.CanRecover() {
//	    // keep going, the carousel is still usable
//	}
type Trip struct {
	Kind      Kind      // Error category for systematic handling
	Message   string    // Human-readable description
	Context   Context   // Additional debugging information
	Timestamp time.Time // When the error occurred
	Severity  Severity  // How serious this error is
	Err       error     // Underlying cause, if any
}

// Context provides structured debugging information for trips.
type Context map[string]interface{}

// Severity indicates how serious a trip is and how it should be handled.
type Severity int

const (
	// Stumble indicates a recoverable hiccup, e.g. a completion signal that
	// never arrived and was replaced by the fallback timeout.
	Stumble Severity = iota

	// Error indicates a failed operation that left the carousel usable,
	// e.g. a navigation whose slides could not be resolved.
	Error

	// Fall indicates the carousel instance cannot run at all, e.g. a deck
	// without panels. The host degrades to static content.
	Fall
)

func (s Severity) String() string {
	switch s {
	case Stumble:
		return "stumble"
	case Error:
		return "error"
	case Fall:
		return "fall"
	default:
		return "unknown"
	}
}

// NewTrip creates a new trip with Error severity and the current timestamp.
func NewTrip(kind Kind, message string, context Context) *Trip {
	return &Trip{
		Kind:      kind,
		Message:   message,
		Context:   context,
		Timestamp: time.Now(),
		Severity:  Error,
	}
}

// NewStumble creates a new trip with Stumble severity.
func NewStumble(kind Kind, message string, context Context) *Trip {
	return NewTrip(kind, message, context).WithSeverity(Stumble)
}

// NewFall creates a new trip with Fall severity.
func NewFall(kind Kind, message string, context Context) *Trip {
	return NewTrip(kind, message, context).WithSeverity(Fall)
}

// Wrap creates a trip around an existing error.
func Wrap(err error, kind Kind, severity Severity, context Context) *Trip {
	t := NewTrip(kind, err.Error(), context).WithSeverity(severity)
	t.Err = err
	return t
}

// WithSeverity sets the severity level for this trip.
func (t *Trip) WithSeverity(severity Severity) *Trip {
	t.Severity = severity
	return t
}

// WithCause records the underlying error.
func (t *Trip) WithCause(err error) *Trip {
	t.Err = err
	return t
}

// Error implements the error interface.
func (t *Trip) Error() string {
	return fmt.Sprintf("[%s:%s] %s", t.Kind, t.Severity, t.Message)
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (t *Trip) Unwrap() error {
	return t.Err
}

// CanRecover returns true if the carousel keeps working despite this trip.
func (t *Trip) CanRecover() bool {
	return t.Severity != Fall
}

// IsFall returns true if the carousel instance cannot run.
func (t *Trip) IsFall() bool {
	return t.Severity == Fall
}

// GetContext returns a specific context value if it exists.
func (t *Trip) GetContext(key string) (interface{}, bool) {
	if t.Context == nil {
		return nil, false
	}
	val, exists := t.Context[key]
	return val, exists
}

// Keyvals flattens the trip into alternating key/value pairs for structured
// loggers, keys sorted for stable output.
func (t *Trip) Keyvals() []interface{} {
	keys := make([]string, 0, len(t.Context))
	for key := range t.Context {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	kv := []interface{}{"kind", string(t.Kind), "severity", t.Severity.String()}
	for _, key := range keys {
		kv = append(kv, key, t.Context[key])
	}
	if t.Err != nil {
		kv = append(kv, "err", t.Err)
	}
	return kv
}

// DetailedString returns a comprehensive error description with context.
func (t *Trip) DetailedString() string {
	var details strings.Builder

	details.WriteString(t.Error())
	details.WriteString(fmt.Sprintf("\n  Time: %s", t.Timestamp.Format("15:04:05.000")))

	if len(t.Context) > 0 {
		keys := make([]string, 0, len(t.Context))
		for key := range t.Context {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		details.WriteString("\n  Context:")
		for _, key := range keys {
			details.WriteString(fmt.Sprintf("\n    %s: %v", key, t.Context[key]))
		}
	}

	return details.String()
}

// As extracts a *Trip from an error chain.
func As(err error) (*Trip, bool) {
	var t *Trip
	if errors.As(err, &t) {
		return t, true
	}
	return nil, false
}

// Handler collects the trips of one carousel instance.
//
// Handler is safe for concurrent use: timers, gestures and the host all
// report through the same handler.
type Handler struct {
	mu        sync.Mutex
	component string  // Component name, usually the carousel identity
	trips     []*Trip // Errors and falls in chronological order
	stumbles  []*Trip // Recoverable hiccups in chronological order
	policy    *Policy
}

// Policy defines how accumulated trips are judged.
type Policy struct {
	// MaxStumbles caps the stumbles retained; older ones are dropped so a
	// long-running carousel with a silent renderer cannot grow without bound.
	MaxStumbles int

	// MaxTrips caps the retained errors the same way.
	MaxTrips int
}

// DefaultPolicy returns the default retention policy.
func DefaultPolicy() *Policy {
	return &Policy{
		MaxStumbles: 64,
		MaxTrips:    64,
	}
}

// NewHandler creates a new trip handler for a component.
func NewHandler(component string, policy *Policy) *Handler {
	if policy == nil {
		policy = DefaultPolicy()
	}

	return &Handler{
		component: component,
		trips:     make([]*Trip, 0),
		stumbles:  make([]*Trip, 0),
		policy:    policy,
	}
}

// Record adds a trip to the handler's collection.
func (h *Handler) Record(trip *Trip) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if trip.Severity == Stumble {
		h.stumbles = appendBounded(h.stumbles, trip, h.policy.MaxStumbles)
	} else {
		h.trips = appendBounded(h.trips, trip, h.policy.MaxTrips)
	}
}

func appendBounded(list []*Trip, trip *Trip, max int) []*Trip {
	list = append(list, trip)
	if max > 0 && len(list) > max {
		list = append([]*Trip(nil), list[len(list)-max:]...)
	}
	return list
}

// HasFall returns true if a fatal trip has been recorded.
func (h *Handler) HasFall() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, trip := range h.trips {
		if trip.IsFall() {
			return true
		}
	}
	return false
}

// HasTrips returns true if any errors (non-stumbles) have been recorded.
func (h *Handler) HasTrips() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.trips) > 0
}

// HasStumbles returns true if any stumbles have been recorded.
func (h *Handler) HasStumbles() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.stumbles) > 0
}

// GetTrips returns a copy of the recorded errors.
func (h *Handler) GetTrips() []*Trip {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Trip(nil), h.trips...)
}

// GetStumbles returns a copy of the recorded stumbles.
func (h *Handler) GetStumbles() []*Trip {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Trip(nil), h.stumbles...)
}

// Count returns how many trips of the given kind were recorded.
func (h *Handler) Count(kind Kind) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for _, list := range [][]*Trip{h.trips, h.stumbles} {
		for _, trip := range list {
			if trip.Kind == kind {
				n++
			}
		}
	}
	return n
}

// Summary provides a concise overview of all trips and stumbles.
func (h *Handler) Summary() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.trips) == 0 && len(h.stumbles) == 0 {
		return fmt.Sprintf("[%s] No issues", h.component)
	}

	return fmt.Sprintf("[%s] %d trips, %d stumbles",
		h.component, len(h.trips), len(h.stumbles))
}

// DetailedReport provides a comprehensive report of all issues.
func (h *Handler) DetailedReport() string {
	var report strings.Builder

	report.WriteString(fmt.Sprintf("=== %s Report ===\n", h.component))
	report.WriteString(h.Summary() + "\n")

	trips := h.GetTrips()
	if len(trips) > 0 {
		report.WriteString("\nTrips:\n")
		for i, trip := range trips {
			report.WriteString(fmt.Sprintf("%d. %s\n", i+1, trip.DetailedString()))
		}
	}

	stumbles := h.GetStumbles()
	if len(stumbles) > 0 {
		report.WriteString("\nStumbles:\n")
		for i, stumble := range stumbles {
			report.WriteString(fmt.Sprintf("%d. %s\n", i+1, stumble.DetailedString()))
		}
	}

	return report.String()
}
