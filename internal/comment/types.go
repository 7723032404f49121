package comment

import (
	"time"

	"crewbase.org/internal/softdelete"
)

// Comment is a message posted to a team thread. Only the author may edit or
// delete it; deletion tombstones the row.
type Comment struct {
	ID          string     `json:"id"`
	TeamID      string     `json:"team_id"`
	ThreadID    string     `json:"thread_id"`
	AuthorID    string     `json:"author_id"`
	Message     string     `json:"message"`
	TimeCreated time.Time  `json:"time_created"`
	TimeUpdated *time.Time `json:"time_updated,omitempty"`

	softdelete.Tombstone
}

// Page bounds a thread listing.
type Page struct {
	Limit  int
	Offset int
}

// Clamp normalizes the page to the allowed window: limit 1..100, default 50.
func (p Page) Clamp() Page {
	if p.Limit < 1 || p.Limit > 100 {
		p.Limit = 50
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
