package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// normalizedQuery reads a query param with the same upper-case/trim
// treatment the write paths apply, so filters match stored values.
func normalizedQuery(c *gin.Context, name string) string {
	return strings.ToUpper(strings.TrimSpace(c.Query(name)))
}

// paginationParams reads page/limit query params with sane bounds.
func paginationParams(c *gin.Context) (limit, offset int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	return limit, (page - 1) * limit
}

// pageFromOffset converts back for the response envelope.
func pageFromOffset(limit, offset int) int {
	return offset/limit + 1
}
