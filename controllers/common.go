package controllers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harbdev/blogapi/models"
	"github.com/harbdev/blogapi/utils"
)

const dateLayout = "2006-01-02"

// parseLimitSkip reads pagination query parameters with the API defaults.
func parseLimitSkip(ctx *gin.Context) (limit, skip int) {
	limit, skip = 10, 0
	if v := strings.TrimSpace(ctx.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := strings.TrimSpace(ctx.Query("skip")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			skip = n
		}
	}
	return limit, skip
}

// parseIDParam reads a numeric path parameter.
func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(ctx.Param(name)), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func userView(u models.User) gin.H {
	view := gin.H{
		"user_id":    u.ID,
		"username":   u.Username,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"email":      u.Email,
		"admin":      u.Admin,
		"created_at": u.CreatedAt,
	}
	if u.Phone != nil {
		view["phone"] = *u.Phone
	}
	if u.Birthdate != nil {
		view["birthdate"] = u.Birthdate.Format(dateLayout)
	}
	return view
}

func postView(p models.Post) gin.H {
	return gin.H{
		"post_id":    p.ID,
		"title":      p.Title,
		"content":    p.Content,
		"like_count": p.LikeCount,
		"created_at": p.CreatedAt,
		"updated_at": p.UpdatedAt,
		"author":     p.User.Public(),
	}
}

func commentView(c models.Comment) gin.H {
	return gin.H{
		"comment_id": c.ID,
		"post_id":    c.PostID,
		"content":    c.Content,
		"like_count": c.LikeCount,
		"created_at": c.CreatedAt,
		"updated_at": c.UpdatedAt,
		"author":     c.User.Public(),
	}
}

// cacheEnvelope wraps a payload in the standard response body so cached
// bytes can be served verbatim.
func cacheEnvelope(payload interface{}) utils.JSONResponse {
	return utils.JSONResponse{Code: 0, Message: "success", Data: payload}
}

func parseBirthdate(s string) (*time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return &t, nil
}
