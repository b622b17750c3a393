package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/tobywinn/giftlist/internal/hash"
	auth "github.com/tobywinn/giftlist/internal/middleware/auth"
	"github.com/tobywinn/giftlist/internal/models"
	"github.com/tobywinn/giftlist/internal/mykafka"
	"github.com/tobywinn/giftlist/internal/render"
	"github.com/tobywinn/giftlist/internal/token"
)

type AuthHandler struct {
	DB       *gorm.DB
	Tokens   *token.Service
	Producer *mykafka.Producer
}

func CreateCookie(name, value, path string, maxAge int) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}

	return cookie
}

func (h *AuthHandler) publish(c echo.Context, event map[string]interface{}) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Username        string `form:"username" json:"username"`
		Password        string `form:"password" json:"password"`
		ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}
	if req.Password != req.ConfirmPassword {
		c.Response().Header().Set(render.HeaderRetarget, "#register-response")
		return c.HTML(http.StatusUnprocessableEntity, "Your passwords must match")
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	user := models.User{
		Username:     req.Username,
		PasswordHash: pwHash,
	}
	var existing models.User
	result := h.DB.Where("username = ?", req.Username).First(&existing)
	if result.Error == nil {
		c.Response().Header().Set(render.HeaderRetarget, "#register-response")
		return c.HTML(http.StatusConflict, "That username is already taken")
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, result.Error)
	}
	if err := h.DB.Create(&user).Error; err != nil {
		// the unique column catches a race the lookup above missed
		c.Response().Header().Set(render.HeaderRetarget, "#register-response")
		return c.HTML(http.StatusConflict, "That username is already taken")
	}

	h.publish(c, map[string]interface{}{
		"type":     "user_registered",
		"userID":   user.ID,
		"username": user.Username,
	})

	c.Response().Header().Set(render.HeaderLocation, "./index.html")
	return c.HTML(http.StatusOK, "")
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Username string `form:"username" json:"username"`
		Password string `form:"password" json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	var user models.User
	err := h.DB.Where("username = ?", req.Username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// burn a hash so an unknown username costs the same as a
		// wrong password
		hash.FakeCheck(req.Password)
		return loginRejected(c)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return loginRejected(c)
	}

	tok, _, err := h.Tokens.Issue(user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	maxAge := int(h.Tokens.Duration / time.Second)
	c.SetCookie(CreateCookie(auth.CookieName, tok, "/", maxAge))
	c.Response().Header().Set(render.HeaderLocation, "./home.html")

	h.publish(c, map[string]interface{}{
		"type":     "user_logged_in",
		"userID":   user.ID,
		"username": user.Username,
	})

	return c.HTML(http.StatusOK, "")
}

// loginRejected is the single collapsed outcome for unknown username
// and wrong password alike.
func loginRejected(c echo.Context) error {
	c.Response().Header().Set(render.HeaderRetarget, "#login-response")
	return c.HTML(http.StatusUnauthorized, "Invalid username or password")
}

func (h *AuthHandler) Logout(c echo.Context) error {
	ck, err := c.Cookie(auth.CookieName)
	if err != nil {
		return c.HTML(http.StatusOK, "")
	}

	if err := h.Tokens.Revoke(ck.Value); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	c.SetCookie(CreateCookie(auth.CookieName, "", "/", -1))
	c.Response().Header().Set(render.HeaderLocation, "./index.html")
	return c.HTML(http.StatusOK, "")
}

func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		CurrentPassword string `form:"current_password" json:"current_password"`
		Password        string `form:"password" json:"password"`
		ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if req.Password != req.ConfirmPassword {
		return c.HTML(http.StatusUnprocessableEntity, "Your passwords must match")
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	if !hash.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return c.HTML(http.StatusUnauthorized, "Your current password is incorrect")
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	if err := h.DB.Model(&user).Update("password_hash", pwHash).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	return c.HTML(http.StatusOK, "")
}
