package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"blogging-platform/models"
	"blogging-platform/utils"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *API) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := a.decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = normalizeEmail(req.Email)
	if err := a.validateRequest(&req); err != nil {
		a.writeError(w, r, err)
		return
	}
	// validator counts runes, bcrypt counts bytes.
	if len(req.Password) > utils.MaxPasswordBytes {
		a.writeError(w, r, fmt.Errorf("%w: password must be at most %d bytes", models.ErrValidation, utils.MaxPasswordBytes))
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password, a.auth.BcryptCost)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashedPassword,
	}

	ctx, cancel := a.storeContext(r)
	defer cancel()

	if err := a.store.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, models.ErrConflict) {
			utils.WriteError(w, http.StatusConflict, "Email already registered")
			return
		}
		a.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, models.SignupResponse{
		Message: "User created",
		User:    user,
	})
}

// LoginHandler answers 400 for both an unknown email and a wrong password,
// with distinct messages.
func (a *API) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := a.decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	req.Email = normalizeEmail(req.Email)
	if err := a.validateRequest(&req); err != nil {
		a.writeError(w, r, err)
		return
	}

	ctx, cancel := a.storeContext(r)
	defer cancel()

	user, err := a.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			utils.WriteError(w, http.StatusBadRequest, "User not found")
			return
		}
		a.writeError(w, r, err)
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		utils.WriteError(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	token, err := a.tokens.GenerateToken(user.ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, models.LoginResponse{
		Token: token,
		User:  *user,
	})
}
