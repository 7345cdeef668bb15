package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"calibration-qa-backend/internal/model"
	"calibration-qa-backend/internal/mw"
	"calibration-qa-backend/internal/store"
)

type loginRequest struct {
	UserID string `json:"userId" binding:"required"`
}

type userView struct {
	model.User
	RoleLabel string `json:"roleLabel"`
}

func viewUser(u model.User) userView {
	return userView{User: u, RoleLabel: u.Role.Label()}
}

// Login signs in one of the registered operators.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	user, err := h.store.GetUser(c.Request.Context(), req.UserID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	token, expires, err := h.tokens.Issue(user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expiresAt": expires, "user": viewUser(*user)})
}

// ListUsers returns the operators offered on the sign-in screen.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]userView, len(users))
	for i, u := range users {
		out[i] = viewUser(u)
	}
	c.JSON(http.StatusOK, out)
}

// Me returns the signed-in operator.
func (h *Handler) Me(c *gin.Context) {
	claims, ok := mw.CurrentClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}
	user, err := h.store.GetUser(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewUser(*user))
}
