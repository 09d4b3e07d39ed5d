package domain

import (
	recorddomain "sleepsun/internal/modules/record/domain"
	apperrors "sleepsun/internal/platform/errors"
)

// Version is the snapshot format written by Export.
const Version = 1

type Meta struct {
	ExportedAt int64  `json:"exportedAt"`
	Version    int    `json:"version"`
	Backend    string `json:"backend,omitempty"`
}

// Snapshot is the bulk export document.
type Snapshot struct {
	Meta          Meta                        `json:"meta"`
	SleepSessions []recorddomain.SleepSession `json:"sleepSessions"`
	SunTimes      []recorddomain.SunTimes     `json:"sunTimes"`
}

// Validate checks the format version and every record. Snapshots written
// before versioning carry version 0 and are accepted.
func (s Snapshot) Validate() error {
	if s.Meta.Version < 0 || s.Meta.Version > Version {
		return apperrors.Invalid("unsupported snapshot version %d", s.Meta.Version)
	}
	seen := make(map[string]struct{}, len(s.SleepSessions))
	for _, session := range s.SleepSessions {
		if err := session.Validate(); err != nil {
			return err
		}
		if _, dup := seen[session.ID]; dup {
			return apperrors.Invalid("duplicate sleep session id %q", session.ID)
		}
		seen[session.ID] = struct{}{}
	}
	for _, sun := range s.SunTimes {
		if err := sun.Validate(); err != nil {
			return err
		}
	}
	return nil
}
