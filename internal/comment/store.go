package comment

import "context"

// Store persists comments. Reads exclude tombstoned rows.
type Store interface {
	Create(ctx context.Context, c *Comment) error
	Find(ctx context.Context, id string) (*Comment, error)
	ListThread(ctx context.Context, teamID, threadID string, page Page) ([]*Comment, error)
	UpdateMessage(ctx context.Context, id, message string) (*Comment, error)
	Tombstone(ctx context.Context, id, deletedBy string) error
	TombstoneThread(ctx context.Context, teamID, threadID, deletedBy string) (int64, error)
	TombstoneByTeam(ctx context.Context, teamID, deletedBy string) (int64, error)
}
