package domain

import "time"

// Group is a named collection of users with a creator and a participant set.
//
// Participants is a set: no duplicate user ids, insertion order preserved for
// stable JSON output. The wire field name "participantes" is kept for
// compatibility with existing clients.
type Group struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Participants []string  `json:"participantes"`
	CreatedBy    string    `json:"createdBy"`
	CreatedAt    time.Time `json:"createdAt"`
}
