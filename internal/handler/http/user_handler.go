package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sainikcanteen/storefront/internal/user"
)

type UpdateUserRequest struct {
	Name     string  `json:"name" validate:"required,min=2"`
	Email    string  `json:"email" validate:"required,email"`
	Phone    string  `json:"phone"`
	Address  string  `json:"address"`
	City     string  `json:"city"`
	State    string  `json:"state"`
	Pincode  string  `json:"pincode"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=6"`
}

type UserHandler struct {
	users      user.Service
	adminEmail string
	validate   *validator.Validate
}

func NewUserHandler(users user.Service, adminEmail string) *UserHandler {
	return &UserHandler{users: users, adminEmail: adminEmail, validate: validator.New()}
}

func (h *UserHandler) handleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users")
		respondWithError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "users": users})
}

func (h *UserHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	userID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	if userID != principal.ID && !h.isAdmin(principal) {
		respondWithError(w, http.StatusForbidden, "Not allowed to view this user")
		return
	}

	found, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Error().Err(err).Msg("Failed to get user")
		respondWithError(w, http.StatusInternalServerError, "Failed to get user")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": found})
}

func (h *UserHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	userID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	if userID != principal.ID && !h.isAdmin(principal) {
		respondWithError(w, http.StatusForbidden, "Not allowed to update this user")
		return
	}

	var requestPayload UpdateUserRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(requestPayload); err != nil {
		respondValidationError(w, err)
		return
	}

	// Read-modify-write keeps the stored hash and role when the request
	// doesn't change them.
	existing, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Error().Err(err).Msg("Failed to load user for update")
		respondWithError(w, http.StatusInternalServerError, "Failed to update user")
		return
	}

	existing.Name = requestPayload.Name
	existing.Email = requestPayload.Email
	existing.Phone = requestPayload.Phone
	existing.Address = requestPayload.Address
	existing.City = requestPayload.City
	existing.State = requestPayload.State
	existing.Pincode = requestPayload.Pincode

	newPassword := ""
	if requestPayload.Password != nil {
		newPassword = *requestPayload.Password
	}

	if err := h.users.Update(r.Context(), existing, newPassword); err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, user.ErrEmailExists):
			respondWithError(w, http.StatusBadRequest, "Email already registered")
		default:
			log.Error().Err(err).Msg("Failed to update user")
			respondWithError(w, http.StatusInternalServerError, "Failed to update user")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": existing})
}

func (h *UserHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	if err := h.users.Delete(r.Context(), userID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Error().Err(err).Msg("Failed to delete user")
		respondWithError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "User deleted"})
}

func (h *UserHandler) isAdmin(principal *user.User) bool {
	if principal.Role == user.RoleAdmin {
		return true
	}
	return h.adminEmail != "" && strings.EqualFold(principal.Email, h.adminEmail)
}
