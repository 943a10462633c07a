package handlers

import (
	"context"
	"net/http"
	"time"

	"blogging-platform/config"
	"blogging-platform/database"
	"blogging-platform/middleware"
	"blogging-platform/models"
	"blogging-platform/utils"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// API binds the HTTP routes to the store and token service.
type API struct {
	store    database.Store
	tokens   *utils.TokenService
	auth     config.AuthConfig
	timeout  time.Duration
	logger   logrus.FieldLogger
	validate *validator.Validate
}

func NewAPI(store database.Store, tokens *utils.TokenService, cfg *config.Config, logger logrus.FieldLogger) *API {
	return &API{
		store:    store,
		tokens:   tokens,
		auth:     cfg.Auth,
		timeout:  cfg.Database.Timeout,
		logger:   logger,
		validate: newValidator(),
	}
}

func (a *API) storeContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), a.timeout)
}

// requireUser returns the authenticated user id. Routes reaching it are
// wrapped in AuthMiddleware, so a miss means a wiring bug.
func (a *API) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		a.writeError(w, r, models.ErrUnauthenticated)
		return "", false
	}
	return userID, true
}

// canModify applies the ownership policy to a record authored by authorID.
func (a *API) canModify(userID, authorID string) bool {
	return !a.auth.EnforceOwnership || userID == authorID
}
