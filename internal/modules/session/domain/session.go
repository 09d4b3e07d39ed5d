package domain

import "time"

// ActiveSession is the in-progress tracking record. Its ID is assigned at
// start so that persisting it on stop can be retried without duplicates.
type ActiveSession struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Lat       *float64  `json:"lat,omitempty"`
	Lon       *float64  `json:"lon,omitempty"`
}

// Counters are denormalised for cheap reads; COUNT(*) over sleep sessions
// stays authoritative.
type Counters struct {
	LastSessionID string `json:"last_session_id"`
	SessionCount  int    `json:"session_count"`
}

func (c Counters) Added(id string) Counters {
	return Counters{LastSessionID: id, SessionCount: c.SessionCount + 1}
}

func (c Counters) Removed(id string) Counters {
	next := Counters{LastSessionID: c.LastSessionID, SessionCount: c.SessionCount - 1}
	if next.SessionCount < 0 {
		next.SessionCount = 0
	}
	if next.LastSessionID == id {
		next.LastSessionID = ""
	}
	return next
}

type RestartPolicy string

const (
	RestartOverwrite RestartPolicy = "overwrite"
	RestartReject    RestartPolicy = "reject"
)

type TrackingPolicy struct {
	// MinDuration rejects shorter sessions on stop; zero disables the check.
	MinDuration time.Duration
	Restart     RestartPolicy
}

func DefaultTrackingPolicy() TrackingPolicy {
	return TrackingPolicy{MinDuration: 15 * time.Minute, Restart: RestartOverwrite}
}
