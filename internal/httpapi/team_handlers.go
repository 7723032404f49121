package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"crewbase.org/internal/audit"
	"crewbase.org/internal/identity"
	"crewbase.org/internal/team"
)

type teamRequest struct {
	Name string `json:"name"`
}

type addMemberRequest struct {
	Email string `json:"email"`
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

func (a *API) handleTeamCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := a.principal(w, r)
	if !ok {
		return
	}
	var req teamRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	t, err := a.teams.Create(r.Context(), user.ID, req.Name)
	if err != nil {
		handleTeamError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "team.created", map[string]any{
		"team_id": t.ID,
		"name":    t.Name,
	})
	w.Header().Set("Location", fmt.Sprintf("/v1/teams/%s", t.ID))
	writeJSON(w, http.StatusCreated, t)
}

func (a *API) handleTeamList(w http.ResponseWriter, r *http.Request) {
	user, ok := a.principal(w, r)
	if !ok {
		return
	}
	teams, err := a.teams.MyTeams(r.Context(), user.ID)
	if err != nil {
		handleTeamError(w, r, err)
		return
	}
	if teams == nil {
		teams = []*team.Team{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"teams": teams})
}

func (a *API) handleTeamRename(w http.ResponseWriter, r *http.Request) {
	user, ok := a.principal(w, r)
	if !ok {
		return
	}
	var req teamRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	t, err := a.teams.Rename(r.Context(), user.ID, chi.URLParam(r, "teamID"), req.Name)
	if err != nil {
		handleTeamError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "team.renamed", map[string]any{
		"team_id": t.ID,
		"name":    t.Name,
	})
	writeJSON(w, http.StatusOK, t)
}

func (a *API) handleTeamDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := a.principal(w, r)
	if !ok {
		return
	}
	teamID := chi.URLParam(r, "teamID")
	// Comments cascade first: the admin gate inside DeleteByTeam needs the
	// team still live to resolve the actor's membership.
	if _, err := a.teams.RequireCreator(r.Context(), teamID, user.ID); err != nil {
		handleTeamError(w, r, err)
		return
	}
	n, err := a.comments.DeleteByTeam(r.Context(), user.ID, teamID)
	if err != nil {
		handleCommentError(w, r, err)
		return
	}
	if err := a.teams.Delete(r.Context(), user.ID, teamID); err != nil {
		handleTeamError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "team.deleted", map[string]any{
		"team_id":          teamID,
		"comments_deleted": n,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleMemberAdd(w http.ResponseWriter, r *http.Request) {
	user, ok := a.principal(w, r)
	if !ok {
		return
	}
	var req addMemberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	teamID := chi.URLParam(r, "teamID")
	m, err := a.teams.AddMember(r.Context(), user.ID, teamID, req.Email)
	if err != nil {
		handleTeamError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "team.member.added", map[string]any{
		"team_id":   teamID,
		"member_id": m.MemberID,
	})
	writeJSON(w, http.StatusCreated, m)
}

func (a *API) handleMemberList(w http.ResponseWriter, r *http.Request) {
	user, ok := a.principal(w, r)
	if !ok {
		return
	}
	members, err := a.teams.ListMembers(r.Context(), user.ID, chi.URLParam(r, "teamID"))
	if err != nil {
		handleTeamError(w, r, err)
		return
	}
	if members == nil {
		members = []team.Member{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": members})
}

func (a *API) handleMemberRoleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := a.principal(w, r)
	if !ok {
		return
	}
	var req updateRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	role, err := team.ParseRole(req.Role)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	teamID := chi.URLParam(r, "teamID")
	memberID := chi.URLParam(r, "memberID")
	m, err := a.teams.UpdateMemberRole(r.Context(), user.ID, teamID, memberID, role)
	if err != nil {
		handleTeamError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "team.member.role_updated", map[string]any{
		"team_id":   teamID,
		"member_id": memberID,
		"role":      string(m.Role),
	})
	writeJSON(w, http.StatusOK, m)
}

func (a *API) handleMemberRemove(w http.ResponseWriter, r *http.Request) {
	user, ok := a.principal(w, r)
	if !ok {
		return
	}
	teamID := chi.URLParam(r, "teamID")
	memberID := chi.URLParam(r, "memberID")
	if err := a.teams.RemoveMember(r.Context(), user.ID, teamID, memberID); err != nil {
		handleTeamError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "team.member.removed", map[string]any{
		"team_id":   teamID,
		"member_id": memberID,
	})
	w.WriteHeader(http.StatusNoContent)
}

func handleTeamError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, team.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, team.ErrForbidden):
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, team.ErrNameTaken):
		// Duplicates are validation failures, scoped to the offending field.
		writeFieldErrors(w, r, identity.FieldErrors{
			"name": {"a team with this name already exists"},
		})
	case errors.Is(err, team.ErrDuplicateMember):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, team.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
