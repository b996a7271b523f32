// FilePath: api/resources/api.resource.auth.go
package resources

import (
	"encoding/json"
	"net/http"

	"github.com/smartir/hub/internal/auth"
	"github.com/smartir/hub/internal/errors"
	"github.com/smartir/hub/internal/hubservice"
	"github.com/smartir/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// AuthHandlers encapsulates login and account creation.
type AuthHandlers struct {
	hubservice *hubservice.HubService
	gate       *auth.Gate
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    userSummary `json:"user"`
}

type userSummary struct {
	ID       int64           `json:"id"`
	Username string          `json:"username"`
	Role     models.UserRole `json:"role"`
}

// @Summary Log in
// @Description Exchange username and password for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body loginRequest true "Credentials"
// @Success 200 {object} loginResponse
// @Failure 401 {object} errors.APIError
// @Failure 403 {object} errors.APIError
// @Router /auth/login [post]
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	if req.Username == "" || req.Password == "" {
		respondWithError(w, errors.NewValidationError("username and password required", nil).WithRequestID(requestID))
		return
	}

	result, err := h.gate.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		respondWithError(w, asAPIError(err, requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, loginResponse{
		Message: "Login successful",
		Token:   result.Token,
		User: userSummary{
			ID:       result.User.ID,
			Username: result.User.Username,
			Role:     result.User.Role,
		},
	})
}

type registerRequest struct {
	Username string          `json:"username"`
	Password string          `json:"password"`
	Email    string          `json:"email"`
	Role     models.UserRole `json:"role"`
}

// @Summary Create an account
// @Description Admin-only account creation; the password is hashed before the record is stored
// @Tags auth
// @Accept json
// @Produce json
// @Param account body registerRequest true "New account"
// @Success 201 {object} models.User
// @Failure 409 {object} errors.APIError
// @Router /auth/register [post]
// @Security BearerAuth
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	if req.Username == "" || req.Password == "" {
		respondWithError(w, errors.NewValidationError("username and password required", nil).WithRequestID(requestID))
		return
	}
	if req.Role != "" && req.Role != models.RoleUser && req.Role != models.RoleAdmin {
		respondWithError(w, errors.NewValidationError("role must be user or admin", nil).WithRequestID(requestID))
		return
	}

	user, err := models.NewUser(req.Username, req.Password, req.Email, req.Role)
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to create user", err).WithRequestID(requestID))
		return
	}
	if err := h.hubservice.Users.Create(r.Context(), user); err != nil {
		respondWithError(w, asAPIError(err, requestID))
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User created",
		"user":    user,
	})
}
