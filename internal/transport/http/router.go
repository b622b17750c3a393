package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/tobywinn/giftlist/internal/handlers"
	auth "github.com/tobywinn/giftlist/internal/middleware/auth"
)

type Deps struct {
	DB            *gorm.DB
	AuthHandler   *handlers.AuthHandler
	ItemHandler   *handlers.ItemHandler
	SearchHandler *handlers.SearchHandler
	Gate          *auth.Gate
	AssetsDir     string
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	e.POST("/register", d.AuthHandler.Register)
	e.POST("/login", d.AuthHandler.Login)
	e.POST("/logout", d.AuthHandler.Logout)

	protected := e.Group("", d.Gate.RequireLogin)

	protected.POST("/item", d.ItemHandler.Add)
	protected.DELETE("/item/:item_id", d.ItemHandler.Delete)
	protected.PATCH("/item/:item_id", d.ItemHandler.Allocate)
	protected.GET("/items", d.ItemHandler.List)
	protected.GET("/items/:user_id", d.ItemHandler.List)
	protected.GET("/users", d.ItemHandler.Users)
	protected.PATCH("/password", d.AuthHandler.UpdatePassword)

	if d.SearchHandler != nil {
		protected.GET("/search", d.SearchHandler.Search)
	}

	if d.AssetsDir != "" {
		e.Static("/", d.AssetsDir)
	}
}
