package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"rental-backend/internal/middleware"
	"rental-backend/internal/repositories"
	"rental-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type UserHandler struct {
	userRepo *repositories.UserRepository
}

func NewUserHandler(userRepo *repositories.UserRepository) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

// List returns all accounts for the admin user screen
// GET /api/admin/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userRepo.List(r.Context())
	if err != nil {
		utils.ErrorFromDomain(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, users)
}

// SetActive suspends or reactivates an account. Suspension takes effect on
// the next request: the auth middleware re-reads the user row per request.
// POST /api/admin/users/{id}/active
func (h *UserHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// An admin cannot suspend their own account
	adminID, _ := middleware.GetUserIDFromContext(r.Context())
	if adminID == id && !req.IsActive {
		utils.Error(w, http.StatusBadRequest, "Cannot suspend your own account")
		return
	}

	if _, err := h.userRepo.Get(r.Context(), id); err != nil {
		utils.ErrorFromDomain(w, err)
		return
	}
	if err := h.userRepo.SetActiveStatus(r.Context(), id, req.IsActive); err != nil {
		utils.ErrorFromDomain(w, err)
		return
	}

	log.Printf("[User] Account %d active=%v set by admin %d", id, req.IsActive, adminID)
	utils.JSON(w, http.StatusOK, map[string]bool{"is_active": req.IsActive})
}
