package auth

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kingscode/bootcamp-api/config"
	"github.com/kingscode/bootcamp-api/pkg/response"
	"github.com/kingscode/bootcamp-api/pkg/utils"
)

// LoginRequest is the body for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	staff  config.StaffConfig
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler for the configured staff account.
func NewHandler(staff config.StaffConfig, jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{staff: staff, jwt: jwt, logger: logger}
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c *gin.Context) {
	if h.staff.PasswordHash == "" {
		response.ServiceUnavailable(c, "staff login not configured")
		return
	}
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.staff.Username)) == 1
	if !utils.CheckPassword(req.Password, h.staff.PasswordHash) || !userOK {
		h.logger.Warn("staff login rejected", zap.String("username", req.Username), zap.String("client_ip", c.ClientIP()))
		response.Unauthorized(c, "invalid username or password")
		return
	}

	token, err := h.jwt.Generate(h.staff.Username, RoleStaff)
	if err != nil {
		h.logger.Error("generate token failed", zap.Error(err))
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, TokenResponse{Token: token, Username: h.staff.Username, Role: RoleStaff})
}
