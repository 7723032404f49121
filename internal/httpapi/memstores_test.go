package httpapi

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"crewbase.org/internal/comment"
	"crewbase.org/internal/identity"
	"crewbase.org/internal/team"
)

// In-memory store implementations mirroring the SQL semantics: uniqueness
// constraints, live-row filters and the single-winner conditional update.

type memUsers struct {
	mu      sync.Mutex
	users   map[string]*identity.User
	byEmail map[string]string
	creds   map[string]string
}

func newMemUsers() *memUsers {
	return &memUsers{
		users:   map[string]*identity.User{},
		byEmail: map[string]string{},
		creds:   map[string]string{},
	}
}

func (s *memUsers) Create(ctx context.Context, u *identity.User, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[u.Email]; ok {
		return identity.ErrConflict
	}
	u.TimeCreated = time.Now().UTC()
	cp := *u
	s.users[u.ID] = &cp
	s.byEmail[u.Email] = u.ID
	s.creds[u.ID] = passwordHash
	return nil
}

func (s *memUsers) Find(ctx context.Context, id string) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memUsers) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	s.mu.Lock()
	id, ok := s.byEmail[email]
	s.mu.Unlock()
	if !ok {
		return nil, identity.ErrNotFound
	}
	return s.Find(ctx, id)
}

func (s *memUsers) Credential(ctx context.Context, userID string) (*identity.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash, ok := s.creds[userID]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return &identity.Credential{UserID: userID, PasswordHash: hash}, nil
}

type memTokens struct {
	mu     sync.Mutex
	tokens map[string]*identity.RefreshToken
}

func newMemTokens() *memTokens {
	return &memTokens{tokens: map[string]*identity.RefreshToken{}}
}

func (s *memTokens) Create(ctx context.Context, tok *identity.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[tok.JTI]; ok {
		return identity.ErrConflict
	}
	tok.TimeCreated = time.Now().UTC()
	cp := *tok
	s.tokens[tok.JTI] = &cp
	return nil
}

func (s *memTokens) Consume(ctx context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.tokens[jti]
	if !ok || tok.Revoked {
		return false, nil
	}
	tok.Revoked = true
	return true, nil
}

func (s *memTokens) Revoke(ctx context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok, ok := s.tokens[jti]; ok {
		tok.Revoked = true
	}
	return nil
}

func (s *memTokens) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for jti, tok := range s.tokens {
		if tok.TimeExpires.Before(before) {
			delete(s.tokens, jti)
			n++
		}
	}
	return n, nil
}

type memTeams struct {
	mu          sync.Mutex
	teams       map[string]*team.Team
	memberships map[string]*team.Membership
	users       *memUsers
}

func newMemTeams(users *memUsers) *memTeams {
	return &memTeams{
		teams:       map[string]*team.Team{},
		memberships: map[string]*team.Membership{},
		users:       users,
	}
}

func membershipKey(teamID, memberID string) string {
	return teamID + "/" + memberID
}

func (s *memTeams) Create(ctx context.Context, t *team.Team, creator *team.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.teams {
		if existing.Live() && existing.CreatorID == t.CreatorID &&
			strings.EqualFold(existing.Name, t.Name) {
			return team.ErrNameTaken
		}
	}
	t.TimeCreated = time.Now().UTC()
	creator.TimeCreated = t.TimeCreated
	tc, cc := *t, *creator
	s.teams[t.ID] = &tc
	s.memberships[membershipKey(creator.TeamID, creator.MemberID)] = &cc
	return nil
}

func (s *memTeams) Find(ctx context.Context, id string) (*team.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams[id]
	if !ok || !t.Live() {
		return nil, team.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *memTeams) ListByMember(ctx context.Context, memberID string) ([]*team.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*team.Team
	for _, m := range s.memberships {
		if m.MemberID != memberID || !m.Live() {
			continue
		}
		if t, ok := s.teams[m.TeamID]; ok && t.Live() {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimeCreated.Before(out[j].TimeCreated) })
	return out, nil
}

func (s *memTeams) Rename(ctx context.Context, id, name string) (*team.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams[id]
	if !ok || !t.Live() {
		return nil, team.ErrNotFound
	}
	t.Name = name
	now := time.Now().UTC()
	t.TimeUpdated = &now
	cp := *t
	return &cp, nil
}

func (s *memTeams) Tombstone(ctx context.Context, id, deletedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams[id]
	if !ok || !t.Live() {
		return team.ErrNotFound
	}
	t.Mark(time.Now().UTC(), deletedBy)
	return nil
}

// memMemberships shares the map with memTeams so membership reads observe
// team tombstones.
type memMemberships struct {
	teams *memTeams
}

func (s *memMemberships) Create(ctx context.Context, m *team.Membership) error {
	s.teams.mu.Lock()
	defer s.teams.mu.Unlock()
	key := membershipKey(m.TeamID, m.MemberID)
	if existing, ok := s.teams.memberships[key]; ok && existing.Live() {
		return team.ErrDuplicateMember
	}
	m.TimeCreated = time.Now().UTC()
	cp := *m
	s.teams.memberships[key] = &cp
	return nil
}

func (s *memMemberships) Find(ctx context.Context, teamID, memberID string) (*team.Membership, error) {
	s.teams.mu.Lock()
	defer s.teams.mu.Unlock()
	m, ok := s.teams.memberships[membershipKey(teamID, memberID)]
	if !ok || !m.Live() {
		return nil, team.ErrNotFound
	}
	t, ok := s.teams.teams[teamID]
	if !ok || !t.Live() {
		return nil, team.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *memMemberships) ListMembers(ctx context.Context, teamID string) ([]team.Member, error) {
	s.teams.mu.Lock()
	defer s.teams.mu.Unlock()
	var out []team.Member
	for _, m := range s.teams.memberships {
		if m.TeamID != teamID || !m.Live() {
			continue
		}
		mb := team.Member{MemberID: m.MemberID, Role: m.Role}
		if u, ok := s.teams.users.users[m.MemberID]; ok {
			mb.Name = u.Name
			mb.Email = u.Email
		}
		out = append(out, mb)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out, nil
}

func (s *memMemberships) UpdateRole(ctx context.Context, teamID, memberID string, role team.Role) (*team.Membership, error) {
	s.teams.mu.Lock()
	defer s.teams.mu.Unlock()
	m, ok := s.teams.memberships[membershipKey(teamID, memberID)]
	if !ok || !m.Live() {
		return nil, team.ErrNotFound
	}
	m.Role = role
	now := time.Now().UTC()
	m.TimeUpdated = &now
	cp := *m
	return &cp, nil
}

func (s *memMemberships) Tombstone(ctx context.Context, teamID, memberID, deletedBy string) error {
	s.teams.mu.Lock()
	defer s.teams.mu.Unlock()
	m, ok := s.teams.memberships[membershipKey(teamID, memberID)]
	if !ok || !m.Live() {
		return team.ErrNotFound
	}
	m.Mark(time.Now().UTC(), deletedBy)
	return nil
}

type memComments struct {
	mu       sync.Mutex
	comments map[string]*comment.Comment
}

func newMemComments() *memComments {
	return &memComments{comments: map[string]*comment.Comment{}}
}

func (s *memComments) Create(ctx context.Context, c *comment.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.TimeCreated = time.Now().UTC()
	cp := *c
	s.comments[c.ID] = &cp
	return nil
}

func (s *memComments) Find(ctx context.Context, id string) (*comment.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok || !c.Live() {
		return nil, comment.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memComments) ListThread(ctx context.Context, teamID, threadID string, page comment.Page) ([]*comment.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*comment.Comment
	for _, c := range s.comments {
		if c.TeamID == teamID && c.ThreadID == threadID && c.Live() {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimeCreated.Before(out[j].TimeCreated) })
	if page.Offset >= len(out) {
		return nil, nil
	}
	out = out[page.Offset:]
	if page.Limit < len(out) {
		out = out[:page.Limit]
	}
	return out, nil
}

func (s *memComments) UpdateMessage(ctx context.Context, id, message string) (*comment.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok || !c.Live() {
		return nil, comment.ErrNotFound
	}
	c.Message = message
	now := time.Now().UTC()
	c.TimeUpdated = &now
	cp := *c
	return &cp, nil
}

func (s *memComments) Tombstone(ctx context.Context, id, deletedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok || !c.Live() {
		return comment.ErrNotFound
	}
	c.Mark(time.Now().UTC(), deletedBy)
	return nil
}

func (s *memComments) TombstoneThread(ctx context.Context, teamID, threadID, deletedBy string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	now := time.Now().UTC()
	for _, c := range s.comments {
		if c.TeamID == teamID && c.ThreadID == threadID && c.Live() {
			c.Mark(now, deletedBy)
			n++
		}
	}
	return n, nil
}

func (s *memComments) TombstoneByTeam(ctx context.Context, teamID, deletedBy string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	now := time.Now().UTC()
	for _, c := range s.comments {
		if c.TeamID == teamID && c.Live() {
			c.Mark(now, deletedBy)
			n++
		}
	}
	return n, nil
}
