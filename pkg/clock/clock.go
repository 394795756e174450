// Package clock provides time abstractions used by the caching and
// rate-limiting engines.
//
// All temporal math in the library flows through a Clock bound to a time
// zone, which makes TTL expiry and window rollover behavior testable with
// a controlled clock.
package clock

import (
	"fmt"
	"time"
)

// Clock provides an abstraction for time operations to enable testing.
//
// This interface allows for dependency injection of time functions,
// making it easy to test time-dependent behavior with fake clocks.
type Clock interface {
	// Now returns the current time.
	//
	// Production implementations should return time.Now().
	// Test implementations can return fixed or controlled times.
	Now() time.Time
}

// SystemClock is a Clock implementation that uses the system time.
type SystemClock struct{}

// Now returns the current system time.
func (c *SystemClock) Now() time.Time {
	return time.Now()
}

// ZonedClock binds a Clock to a time zone.
//
// Every timestamp produced by a ZonedClock is expressed in the configured
// location, so entries created by different storages sharing a zone compare
// consistently.
type ZonedClock struct {
	clock Clock
	zone  *time.Location
}

// NewZonedClock creates a ZonedClock from the given clock and zone.
//
// A nil clock defaults to SystemClock; a nil zone defaults to UTC.
func NewZonedClock(c Clock, zone *time.Location) *ZonedClock {
	if c == nil {
		c = &SystemClock{}
	}
	if zone == nil {
		zone = time.UTC
	}
	return &ZonedClock{clock: c, zone: zone}
}

// Now returns the current time in the configured zone.
func (c *ZonedClock) Now() time.Time {
	return c.clock.Now().In(c.zone)
}

// Zone returns the location the clock is bound to.
func (c *ZonedClock) Zone() *time.Location {
	return c.zone
}

// LoadZone resolves a zone identifier (e.g. "UTC", "Asia/Tokyo") to a
// location.
//
// An empty identifier resolves to UTC. Unknown identifiers return an error
// so that configuration loading can fall back to a default with a warning.
func LoadZone(id string) (*time.Location, error) {
	if id == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(id)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", id, err)
	}
	return loc, nil
}
