package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"blogging-platform/models"
	"blogging-platform/utils"

	"github.com/gorilla/mux"
)

func (a *API) decodePostRequest(w http.ResponseWriter, r *http.Request) (*models.PostRequest, error) {
	var req models.PostRequest
	if err := a.decodeJSON(w, r, &req); err != nil {
		return nil, err
	}
	req.Title = strings.TrimSpace(req.Title)
	if strings.TrimSpace(req.Content) == "" {
		req.Content = ""
	}
	if err := a.validateRequest(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (a *API) CreatePostHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	req, err := a.decodePostRequest(w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	ctx, cancel := a.storeContext(r)
	defer cancel()

	post := models.Post{
		Title:    req.Title,
		Content:  req.Content,
		AuthorID: userID,
	}
	if err := a.store.CreatePost(ctx, &post); err != nil {
		a.writeError(w, r, err)
		return
	}

	created, err := a.store.GetPost(ctx, post.ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, created)
}

func (a *API) ListPostsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.storeContext(r)
	defer cancel()

	posts, err := a.store.ListPosts(ctx)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, posts)
}

func (a *API) GetPostHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.storeContext(r)
	defer cancel()

	post, err := a.store.GetPost(ctx, mux.Vars(r)["id"])
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, post)
}

// authorizePost loads the post and applies the ownership policy.
func (a *API) authorizePost(r *http.Request, userID, id string) error {
	ctx, cancel := a.storeContext(r)
	defer cancel()

	post, err := a.store.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if !a.canModify(userID, post.AuthorID) {
		return fmt.Errorf("%w: only the author can modify this post", models.ErrForbidden)
	}
	return nil
}

func (a *API) UpdatePostHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	req, err := a.decodePostRequest(w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	if err := a.authorizePost(r, userID, id); err != nil {
		a.writeError(w, r, err)
		return
	}

	ctx, cancel := a.storeContext(r)
	defer cancel()

	post, err := a.store.UpdatePost(ctx, id, req.Title, req.Content)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, post)
}

func (a *API) DeletePostHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	if err := a.authorizePost(r, userID, id); err != nil {
		a.writeError(w, r, err)
		return
	}

	ctx, cancel := a.storeContext(r)
	defer cancel()

	if err := a.store.DeletePost(ctx, id); err != nil {
		a.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, models.MessageResponse{Message: "Post deleted"})
}
