package handlers

import (
	"context"
	"net/http"
	"time"

	"blogging-platform/models"
	"blogging-platform/utils"
)

func (a *API) IndexHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Blogging platform API\n"))
}

func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.store.Ping(ctx); err != nil {
		a.logger.WithError(err).Warn("health check: store unreachable")
		utils.WriteJSON(w, http.StatusServiceUnavailable, models.HealthResponse{Status: "degraded", Database: "unreachable"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, models.HealthResponse{Status: "ok", Database: "connected"})
}
