package controllers

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/harbdev/blogapi/config"
	"github.com/harbdev/blogapi/middleware"
	"github.com/harbdev/blogapi/models"
	"github.com/harbdev/blogapi/utils"
)

// UserController manages registration, administration, and account lifecycle.
type UserController struct {
	db *gorm.DB
}

// NewUserController creates a UserController.
func NewUserController(db *gorm.DB) *UserController {
	return &UserController{db: db}
}

// Register creates a new account. Registration is anonymous; creating an
// account with the admin flag requires the configured master passphrase.
func (u *UserController) Register(ctx *gin.Context) {
	var req struct {
		Username  string  `json:"username" binding:"required,min=3,max=50"`
		FirstName string  `json:"first_name" binding:"required,max=50"`
		LastName  string  `json:"last_name" binding:"required,max=50"`
		Email     string  `json:"email" binding:"required,email"`
		Password  string  `json:"password" binding:"required,min=6"`
		Phone     *string `json:"phone"`
		Birthdate *string `json:"birthdate"`
		Admin     bool    `json:"admin"`
		RootPass  string  `json:"root_pass"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	if req.Admin {
		rootPass := config.Get().RootPass
		if subtle.ConstantTimeCompare([]byte(req.RootPass), []byte(rootPass)) != 1 {
			utils.Error(ctx, http.StatusUnauthorized, 40110, "not allowed to create an admin user without the master passphrase")
			return
		}
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to hash password")
		return
	}

	user := models.User{
		Username:     strings.TrimSpace(req.Username),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		Admin:        req.Admin,
		Phone:        req.Phone,
	}
	if req.Birthdate != nil {
		bd, err := parseBirthdate(*req.Birthdate)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40002, "birthdate must be YYYY-MM-DD")
			return
		}
		user.Birthdate = bd
	}

	if err := u.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Error(ctx, http.StatusConflict, 40901, "duplicate entry")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to create user")
		return
	}

	utils.Created(ctx, userView(user))
}

// ListUsers returns every account. Admin only.
func (u *UserController) ListUsers(ctx *gin.Context) {
	caller, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40100, "unauthenticated")
		return
	}
	if !caller.Admin {
		utils.Error(ctx, http.StatusForbidden, 40302, "only admins are allowed to list users")
		return
	}

	var users []models.User
	if err := u.db.Order("created_at").Find(&users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50005, "failed to list users")
		return
	}

	views := make([]gin.H, 0, len(users))
	for _, user := range users {
		views = append(views, userView(user))
	}
	utils.Success(ctx, views)
}

// userEdit is a partial-update payload: only fields present in the request
// body are applied.
type userEdit struct {
	Username  *string `json:"username"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Birthdate *string `json:"birthdate"`
	Password  *string `json:"password"`
}

func (e userEdit) updates() (map[string]interface{}, error) {
	updates := map[string]interface{}{}
	if e.Username != nil {
		updates["username"] = strings.TrimSpace(*e.Username)
	}
	if e.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*e.FirstName)
	}
	if e.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*e.LastName)
	}
	if e.Email != nil {
		updates["email"] = strings.TrimSpace(*e.Email)
	}
	if e.Phone != nil {
		updates["phone"] = *e.Phone
	}
	if e.Birthdate != nil {
		bd, err := parseBirthdate(*e.Birthdate)
		if err != nil {
			return nil, err
		}
		updates["birthdate"] = bd
	}
	if e.Password != nil {
		hash, err := utils.HashPassword(*e.Password)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = hash
	}
	return updates, nil
}

func (u *UserController) applyEdit(ctx *gin.Context, target *models.User) {
	var req userEdit
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}
	updates, err := req.updates()
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40002, "invalid field value")
		return
	}

	if len(updates) > 0 {
		if err := u.db.Model(target).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				utils.Error(ctx, http.StatusConflict, 40901, "duplicate entry")
				return
			}
			utils.Error(ctx, http.StatusInternalServerError, 50006, "failed to update user")
			return
		}
	}

	var updated models.User
	if err := u.db.First(&updated, target.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50006, "failed to update user")
		return
	}
	utils.Success(ctx, userView(updated))
}

// UpdateMe partially edits the caller's own account.
func (u *UserController) UpdateMe(ctx *gin.Context) {
	caller, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40100, "unauthenticated")
		return
	}
	u.applyEdit(ctx, caller)
}

// UpdateUser partially edits another account by username. Admin only;
// existence is checked before the admin gate.
func (u *UserController) UpdateUser(ctx *gin.Context) {
	caller, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40100, "unauthenticated")
		return
	}

	username := strings.TrimSpace(ctx.Param("username"))
	var target models.User
	if err := u.db.Where("username = ?", username).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40403, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50006, "failed to load user")
		return
	}

	if !caller.Admin {
		utils.Error(ctx, http.StatusForbidden, 40302, "only admins are allowed to edit other users")
		return
	}
	u.applyEdit(ctx, &target)
}

// DeleteMe removes the caller's own account. The request re-supplies form
// credentials instead of a bearer token; everything the account owns is
// removed in the same transaction.
func (u *UserController) DeleteMe(ctx *gin.Context) {
	var req struct {
		Username string `form:"username" binding:"required"`
		Password string `form:"password" binding:"required"`
	}
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	var user models.User
	if err := u.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		utils.Error(ctx, http.StatusForbidden, 40301, "invalid credentials")
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusForbidden, 40301, "invalid credentials")
		return
	}

	if err := u.db.Transaction(func(tx *gorm.DB) error {
		return deleteUserCascade(tx, user.ID)
	}); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50007, "failed to delete user")
		return
	}

	utils.InvalidateByPrefix("cache:")
	ctx.Status(http.StatusNoContent)
}

// DeleteUser removes another account by username. Admin only; existence is
// checked before the admin gate.
func (u *UserController) DeleteUser(ctx *gin.Context) {
	caller, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40100, "unauthenticated")
		return
	}

	username := strings.TrimSpace(ctx.Param("username"))
	var target models.User
	if err := u.db.Where("username = ?", username).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40403, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50007, "failed to load user")
		return
	}

	if !caller.Admin {
		utils.Error(ctx, http.StatusForbidden, 40302, "only admins are allowed to delete other users")
		return
	}

	if err := u.db.Transaction(func(tx *gorm.DB) error {
		return deleteUserCascade(tx, target.ID)
	}); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50007, "failed to delete user")
		return
	}

	utils.InvalidateByPrefix("cache:")
	ctx.Status(http.StatusNoContent)
}

// deleteUserCascade removes a user together with their posts, comments,
// and likes. Likes the user placed on surviving posts/comments have their
// counters decremented so like_count keeps matching the like rows.
func deleteUserCascade(tx *gorm.DB, userID uint) error {
	postSub := tx.Model(&models.PostLike{}).Select("post_id").Where("user_id = ?", userID)
	if err := tx.Model(&models.Post{}).Where("id IN (?)", postSub).
		UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error; err != nil {
		return err
	}
	commentSub := tx.Model(&models.CommentLike{}).Select("comment_id").Where("user_id = ?", userID)
	if err := tx.Model(&models.Comment{}).Where("id IN (?)", commentSub).
		UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error; err != nil {
		return err
	}
	if err := tx.Where("user_id = ?", userID).Delete(&models.PostLike{}).Error; err != nil {
		return err
	}
	if err := tx.Where("user_id = ?", userID).Delete(&models.CommentLike{}).Error; err != nil {
		return err
	}

	var postIDs []uint
	if err := tx.Model(&models.Post{}).Where("user_id = ?", userID).Pluck("id", &postIDs).Error; err != nil {
		return err
	}

	// Comments authored by the user anywhere, plus comments by anyone on
	// the user's posts, disappear along with their likes.
	var commentIDs []uint
	commentQuery := tx.Model(&models.Comment{}).Where("user_id = ?", userID)
	if len(postIDs) > 0 {
		commentQuery = tx.Model(&models.Comment{}).Where("user_id = ? OR post_id IN ?", userID, postIDs)
	}
	if err := commentQuery.Pluck("id", &commentIDs).Error; err != nil {
		return err
	}
	if len(commentIDs) > 0 {
		if err := tx.Where("comment_id IN ?", commentIDs).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", commentIDs).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
	}

	if len(postIDs) > 0 {
		if err := tx.Where("post_id IN ?", postIDs).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", postIDs).Delete(&models.Post{}).Error; err != nil {
			return err
		}
	}

	return tx.Delete(&models.User{}, userID).Error
}
