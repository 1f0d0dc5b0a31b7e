package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog/internal/apperr"
	"github.com/iliyamo/movie-catalog/internal/auth"
	"github.com/iliyamo/movie-catalog/internal/model"
)

// AuthHandler bundles dependencies for auth and admin endpoints.
type AuthHandler struct {
	Accounts *auth.Service
	Logger   *slog.Logger
}

func NewAuthHandler(accounts *auth.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{Accounts: accounts, Logger: logger}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userCreatedResp struct {
	Message string `json:"message"`
	Email   string `json:"email"`
	Role    string `json:"role"`
}

type userPart struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type usersResp struct {
	Users []userPart `json:"users"`
}

// Register: POST /auth/register
func (h *AuthHandler) Register(c echo.Context) error {
	var req auth.Credentials
	if err := bind(c, &req); err != nil {
		return fail(c, h.Logger, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Accounts.Register(ctx, req)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusCreated, created("user created", u))
}

// Login: POST /auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return fail(c, h.Logger, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.Accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		if apperr.Is(err, apperr.CodeUnauthorized) {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		}
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, res)
}

// ListUsers: GET /admin/users
func (h *AuthHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	users, err := h.Accounts.ListUsers(ctx)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	out := usersResp{Users: make([]userPart, 0, len(users))}
	for _, u := range users {
		out.Users = append(out.Users, userPart{ID: u.ID, Email: u.Email, Role: u.Role})
	}
	return c.JSON(http.StatusOK, out)
}

// CreateAdmin: POST /admin/create-admin
func (h *AuthHandler) CreateAdmin(c echo.Context) error {
	var req auth.Credentials
	if err := bind(c, &req); err != nil {
		return fail(c, h.Logger, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Accounts.CreateAdmin(ctx, req)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusCreated, created("admin created", u))
}

func created(msg string, u model.User) userCreatedResp {
	return userCreatedResp{Message: msg, Email: u.Email, Role: u.Role}
}
