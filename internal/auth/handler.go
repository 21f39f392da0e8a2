package auth

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/redmonkez12/car-api/internal/httputil"
	"github.com/redmonkez12/car-api/internal/logging"
	"github.com/redmonkez12/car-api/internal/user"
)

// Handler contains HTTP handlers for user endpoints
type Handler struct {
	service      *Service
	rateLimiter  RateLimiter
	isProduction bool
}

func NewHandler(service *Service, rateLimiter RateLimiter, isProduction bool) *Handler {
	return &Handler{
		service:      service,
		rateLimiter:  rateLimiter,
		isProduction: isProduction,
	}
}

// SignupRequest represents the signup request body
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SigninRequest represents the signin request body
type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse wraps a user in API responses
type UserResponse struct {
	Message string     `json:"message"`
	Data    *user.User `json:"data"`
}

// TokenResponse is returned by a successful signin
type TokenResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// Signup handles POST /api/users/signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if !h.allow(w, r, "signup") {
		return
	}

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid signup request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	newUser, err := h.service.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			logger.Warn("signup failed: email already exists")
			httputil.RespondErrorWithCode(w, "User already exists", httputil.CodeUserAlreadyExists, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrValidation) {
			logger.Warn("signup failed: validation error", "error", err.Error())
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
			return
		}
		logger.Error("signup failed: internal error", "error", err.Error())
		httputil.RespondInternalError(w, "Error registering user", err, !h.isProduction)
		return
	}

	logger.Info("user registered successfully", "user_id", newUser.ID)

	httputil.RespondJSON(w, UserResponse{
		Message: "User registered successfully",
		Data:    newUser,
	}, http.StatusCreated)
}

// Signin handles POST /api/users/signin
func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if !h.allow(w, r, "signin") {
		return
	}

	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid signin request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	token, err := h.service.Signin(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			logger.Warn("signin failed: unknown email")
			httputil.RespondErrorWithCode(w, "User doesn't exist", httputil.CodeUserNotFound, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidCredentials):
			logger.Warn("signin failed: invalid credentials")
			httputil.RespondErrorWithCode(w, "Invalid credentials", httputil.CodeInvalidCredentials, http.StatusBadRequest)
		case errors.Is(err, ErrValidation):
			logger.Warn("signin failed: validation error", "error", err.Error())
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		default:
			logger.Error("signin failed: internal error", "error", err.Error())
			httputil.RespondInternalError(w, "Error logging in", err, !h.isProduction)
		}
		return
	}

	logger.Info("user logged in successfully")

	httputil.RespondJSON(w, TokenResponse{Message: "Login successful", Token: token}, http.StatusOK)
}

// GetUser handles GET /api/users/get-user. Runs behind RequireAuth.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "Access denied. No token provided.", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	u, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			logger.Warn("user from token not found", "user_id", userID)
			httputil.RespondErrorWithCode(w, "User not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to get user", "user_id", userID, "error", err.Error())
		httputil.RespondInternalError(w, "Error fetching user", err, !h.isProduction)
		return
	}

	httputil.RespondJSON(w, UserResponse{
		Message: "User details fetched successfully",
		Data:    u,
	}, http.StatusOK)
}

// allow applies the per-IP limit for purpose. A limiter failure lets the request through.
func (h *Handler) allow(w http.ResponseWriter, r *http.Request, purpose string) bool {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	ok, err := h.rateLimiter.Allow(r.Context(), purpose+":"+ip)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
		return true
	}
	if !ok {
		logger.Warn("IP rate limit exceeded", "purpose", purpose, "ip", ip)
		httputil.RespondErrorWithCode(w, "Too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return false
	}
	return true
}

// getClientIP returns the client address the limiter is keyed on. Forwarding headers are
// not read here: chi's RealIP has already applied them to RemoteAddr at the edge.
func getClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
