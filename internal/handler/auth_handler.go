package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"counseling-scheduler-api/internal/auth"
	"counseling-scheduler-api/internal/model"
	"counseling-scheduler-api/internal/store"
)

type registerRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	IDNumber  string `json:"id_number"`
	Birthdate string `json:"birthdate"`
	Role      string `json:"role"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request data", "malformed JSON body")
		return
	}

	var missing []string
	for _, f := range []struct{ name, val string }{
		{"username", req.Username},
		{"password", req.Password},
		{"id_number", req.IDNumber},
		{"birthdate", req.Birthdate},
	} {
		if f.val == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"message":        "Missing required fields",
			"error":          "Missing fields: " + strings.Join(missing, ", "),
			"missing_fields": missing,
		})
		return
	}
	if len(req.Password) < 6 {
		fail(c, http.StatusBadRequest, "Registration failed", "Password must be at least 6 characters long")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Registration error", "failed to hash password")
		return
	}

	u := &model.User{
		Username:     req.Username,
		PasswordHash: hash,
		IDNumber:     req.IDNumber,
		Birthdate:    req.Birthdate,
		Role:         req.Role,
	}
	id, err := h.store.CreateUser(c.Request.Context(), u)
	switch {
	case errors.Is(err, store.ErrDuplicateUsername):
		fail(c, http.StatusConflict, "Registration failed", "Username already exists")
		return
	case errors.Is(err, store.ErrDuplicateIDNumber):
		fail(c, http.StatusConflict, "Registration failed", "ID number already registered")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, "Registration failed", "Failed to create user in database")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful! Please login.",
		"user_id": id,
		"user": gin.H{
			"username":  u.Username,
			"id_number": u.IDNumber,
			"birthdate": u.Birthdate,
			"role":      u.Role,
		},
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		fail(c, http.StatusBadRequest, "Login failed", "Username and password are required")
		return
	}

	u, err := h.store.Authenticate(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, store.ErrInvalidCredentials) {
		fail(c, http.StatusUnauthorized, "Login failed", "Invalid username or password")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "Login error", "internal error")
		return
	}

	token, err := auth.MakeToken(u.ID, u.Role, h.secret)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Login error", "failed to issue token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user": gin.H{
			"username":  u.Username,
			"id_number": u.IDNumber,
			"birthdate": u.Birthdate,
			"user_id":   u.ID,
			"role":      u.Role,
		},
	})
}

func (h *Handler) UserProfile(c *gin.Context) {
	u, err := h.store.UserByID(c.Request.Context(), c.Param("userID"))
	if errors.Is(err, store.ErrNotFound) {
		fail(c, http.StatusNotFound, "User not found", "Invalid user ID")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "Error retrieving user profile", "internal error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User profile retrieved successfully",
		"user": gin.H{
			"username":   u.Username,
			"id_number":  u.IDNumber,
			"birthdate":  u.Birthdate,
			"user_id":    u.ID,
			"role":       u.Role,
			"created_at": u.CreatedAt,
		},
	})
}
