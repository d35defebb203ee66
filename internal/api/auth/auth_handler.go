package auth

import (
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/cv-builder-api/internal/api"
	"github.com/FACorreiaa/cv-builder-api/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	GoogleLogin(w http.ResponseWriter, r *http.Request)
	GetUser(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	authService AuthService
	logger      *slog.Logger
}

// NewAuthHandlerImpl creates a new auth HandlerImpl instance.
func NewAuthHandlerImpl(authService AuthService, logger *slog.Logger) *HandlerImpl {
	if logger == nil {
		panic("PANIC: Attempting to create HandlerImpl with nil logger!")
	}
	return &HandlerImpl{
		authService: authService,
		logger:      logger,
	}
}

// Register godoc
// @Summary      Register a new user
// @Description  Creates a local account and returns the public user fields with a session token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body types.RegisterRequest true "Registration details"
// @Success      201 {object} types.AuthResponse "User registered"
// @Failure      400 {object} types.Response "Missing fields or email already registered"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Router       /api/auth/register [post]
func (h *HandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "Register"))

	var req types.RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Username, email, and password are required.")
		return
	}

	user, token, err := h.authService.Register(ctx, req)
	if err != nil {
		api.WriteError(w, r, l, err, "Server error during registration")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, types.AuthResponse{
		Success: true,
		Message: "User registered successfully",
		User:    user.Public(),
		Token:   token,
	})
}

// Login godoc
// @Summary      Log in with email or username
// @Description  Authenticates a local account and returns a session token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body types.LoginRequest true "Credentials"
// @Success      200 {object} types.AuthResponse "Login successful"
// @Failure      400 {object} types.Response "Missing fields"
// @Failure      401 {object} types.Response "Invalid credentials"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Router       /api/auth/login [post]
func (h *HandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "Login"))

	var req types.LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Email/Username and password are required.")
		return
	}

	user, token, err := h.authService.Login(ctx, req.EmailOrUsername, req.Password)
	if err != nil {
		api.WriteError(w, r, l, err, "Server error during login")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.AuthResponse{
		Success: true,
		Message: "Login successful",
		User:    user.Public(),
		Token:   token,
	})
}

// GoogleLogin godoc
// @Summary      Log in with Google
// @Description  Verifies a Google ID token, links or creates the account, and returns a session token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body types.GoogleLoginRequest true "Google ID token"
// @Success      200 {object} types.AuthResponse "Google login successful"
// @Failure      400 {object} types.Response "Missing or invalid Google token"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Router       /api/auth/google [post]
func (h *HandlerImpl) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "GoogleLogin"))

	var req types.GoogleLoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Google token is required.")
		return
	}

	user, token, err := h.authService.GoogleLogin(ctx, req.Token)
	if err != nil {
		api.WriteError(w, r, l, err, "Server error during Google login")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.AuthResponse{
		Success: true,
		Message: "Google login successful",
		User:    user.Public(),
		Token:   token,
	})
}

// GetUser godoc
// @Summary      Get the authenticated user
// @Description  Resolves the bearer token to the full user profile.
// @Tags         Auth
// @Produce      json
// @Success      200 {object} types.UserResponse "User profile"
// @Failure      401 {object} types.Response "No or invalid token"
// @Failure      404 {object} types.Response "User not found"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Security     BearerAuth
// @Router       /api/auth/get-user [get]
func (h *HandlerImpl) GetUser(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("HandlerImpl", "GetUser"))

	profile, err := h.authService.GetUser(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		api.WriteError(w, r, l, err, "Server error while fetching user")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.UserResponse{
		Success: true,
		User:    profile,
	})
}
