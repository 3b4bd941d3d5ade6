package courses

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kingscode/bootcamp-api/pkg/response"
)

// Handler serves the course catalog to the registration form.
type Handler struct{}

// NewHandler creates a courses handler.
func NewHandler() *Handler {
	return &Handler{}
}

// List handles GET /api/courses. With ?hasLaptop=true|false it returns the course names open to that
// answer; without it, the full catalog with laptop requirements.
func (h *Handler) List(c *gin.Context) {
	raw, ok := c.GetQuery("hasLaptop")
	if !ok || raw == "" {
		response.OK(c, All())
		return
	}
	hasLaptop, err := strconv.ParseBool(raw)
	if err != nil {
		response.BadRequest(c, "hasLaptop must be true or false")
		return
	}
	response.OK(c, ForLaptop(hasLaptop))
}
