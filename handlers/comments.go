package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"blogging-platform/models"
	"blogging-platform/utils"

	"github.com/gorilla/mux"
)

func (a *API) CreateCommentHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	var req models.CreateCommentRequest
	if err := a.decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	req.PostID = strings.TrimSpace(req.PostID)
	if err := a.validateRequest(&req); err != nil {
		a.writeError(w, r, err)
		return
	}

	ctx, cancel := a.storeContext(r)
	defer cancel()

	comment := models.Comment{
		Content:  req.Content,
		AuthorID: userID,
		PostID:   req.PostID,
	}
	if err := a.store.CreateComment(ctx, &comment); err != nil {
		a.writeError(w, r, err)
		return
	}

	created, err := a.store.GetComment(ctx, comment.ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, created)
}

func (a *API) ListCommentsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.storeContext(r)
	defer cancel()

	comments, err := a.store.ListComments(ctx, strings.TrimSpace(r.URL.Query().Get("postId")))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, comments)
}

// ListPostCommentsHandler is GET /posts/{id}/comments; unlike the query form it
// answers 404 for an unknown post.
func (a *API) ListPostCommentsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.storeContext(r)
	defer cancel()

	postID := mux.Vars(r)["id"]
	if _, err := a.store.GetPost(ctx, postID); err != nil {
		a.writeError(w, r, err)
		return
	}

	comments, err := a.store.ListComments(ctx, postID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, comments)
}

func (a *API) GetCommentHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.storeContext(r)
	defer cancel()

	comment, err := a.store.GetComment(ctx, mux.Vars(r)["id"])
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, comment)
}

func (a *API) authorizeComment(r *http.Request, userID, id string) error {
	ctx, cancel := a.storeContext(r)
	defer cancel()

	comment, err := a.store.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if !a.canModify(userID, comment.AuthorID) {
		return fmt.Errorf("%w: only the author can modify this comment", models.ErrForbidden)
	}
	return nil
}

func (a *API) UpdateCommentHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	var req models.UpdateCommentRequest
	if err := a.decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if err := a.validateRequest(&req); err != nil {
		a.writeError(w, r, err)
		return
	}

	if err := a.authorizeComment(r, userID, id); err != nil {
		a.writeError(w, r, err)
		return
	}

	ctx, cancel := a.storeContext(r)
	defer cancel()

	comment, err := a.store.UpdateComment(ctx, id, req.Content)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, comment)
}

func (a *API) DeleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	if err := a.authorizeComment(r, userID, id); err != nil {
		a.writeError(w, r, err)
		return
	}

	ctx, cancel := a.storeContext(r)
	defer cancel()

	if err := a.store.DeleteComment(ctx, id); err != nil {
		a.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, models.MessageResponse{Message: "Comment deleted"})
}
