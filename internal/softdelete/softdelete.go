// Package softdelete carries the shared tombstone convention: deletable
// records are flagged and kept for audit instead of being removed, and a
// scheduled retention sweep purges them once they age out.
package softdelete

import "time"

// DefaultRetention is how long tombstoned records are kept before the sweep
// may purge them.
const DefaultRetention = 90 * 24 * time.Hour

// Tombstone marks a record as logically deleted. Reads that represent current
// state must filter on Deleted; authorization never honors tombstoned rows.
type Tombstone struct {
	Deleted     bool       `json:"deleted"`
	TimeDeleted *time.Time `json:"time_deleted,omitempty"`
	DeletedBy   string     `json:"deleted_by,omitempty"`
}

// Live reports whether the record still represents current state.
func (t Tombstone) Live() bool {
	return !t.Deleted
}

// Mark stamps the tombstone with the deletion time and acting principal.
func (t *Tombstone) Mark(at time.Time, by string) {
	t.Deleted = true
	at = at.UTC()
	t.TimeDeleted = &at
	t.DeletedBy = by
}
