package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"crewbase.org/internal/audit"
	"crewbase.org/internal/comment"
	"crewbase.org/internal/team"
)

type commentRequest struct {
	Message string `json:"message"`
}

func (a *API) handleCommentCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := a.principal(w, r)
	if !ok {
		return
	}
	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	teamID := chi.URLParam(r, "teamID")
	threadID := chi.URLParam(r, "threadID")
	c, err := a.comments.Create(r.Context(), user.ID, teamID, threadID, req.Message)
	if err != nil {
		handleCommentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (a *API) handleCommentList(w http.ResponseWriter, r *http.Request) {
	user, ok := a.principal(w, r)
	if !ok {
		return
	}
	page := comment.Page{
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	comments, err := a.comments.ListThread(r.Context(), user.ID, chi.URLParam(r, "teamID"), chi.URLParam(r, "threadID"), page)
	if err != nil {
		handleCommentError(w, r, err)
		return
	}
	if comments == nil {
		comments = []*comment.Comment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": comments})
}

func (a *API) handleThreadDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := a.principal(w, r)
	if !ok {
		return
	}
	teamID := chi.URLParam(r, "teamID")
	threadID := chi.URLParam(r, "threadID")
	n, err := a.comments.DeleteThread(r.Context(), user.ID, teamID, threadID)
	if err != nil {
		handleCommentError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "comment.thread.deleted", map[string]any{
		"team_id":   teamID,
		"thread_id": threadID,
		"deleted":   n,
	})
	writeJSON(w, http.StatusOK, map[string]any{"deleted": n})
}

func (a *API) handleCommentUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := a.principal(w, r)
	if !ok {
		return
	}
	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	c, err := a.comments.Update(r.Context(), user.ID, chi.URLParam(r, "commentID"), req.Message)
	if err != nil {
		handleCommentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) handleCommentDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := a.principal(w, r)
	if !ok {
		return
	}
	commentID := chi.URLParam(r, "commentID")
	if err := a.comments.Delete(r.Context(), user.ID, commentID); err != nil {
		handleCommentError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "comment.deleted", map[string]any{
		"comment_id": commentID,
	})
	w.WriteHeader(http.StatusNoContent)
}

func handleCommentError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, comment.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, comment.ErrNotOwner):
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, comment.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, team.ErrForbidden), errors.Is(err, team.ErrNotFound):
		handleTeamError(w, r, err)
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func queryInt(r *http.Request, key string) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
