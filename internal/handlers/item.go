package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	auth "github.com/tobywinn/giftlist/internal/middleware/auth"
	"github.com/tobywinn/giftlist/internal/models"
	"github.com/tobywinn/giftlist/internal/mykafka"
	"github.com/tobywinn/giftlist/internal/render"
	"github.com/tobywinn/giftlist/internal/service/search"
)

type ItemHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	// Indexer is nil when search is not configured.
	Indexer *search.Indexer
}

func (h *ItemHandler) publish(c echo.Context, event map[string]interface{}) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "item_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

func (h *ItemHandler) index(c echo.Context, item models.Item) {
	if h.Indexer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	doc := search.Doc{
		ID:      item.ID,
		OwnerID: item.OwnerID,
		Name:    item.Name,
		URL:     item.URL,
		Price:   item.Price,
	}
	if err := h.Indexer.Add(ctx, doc); err != nil {
		c.Logger().Errorf("search index error: %v", err)
	}
}

func (h *ItemHandler) deindex(c echo.Context, id uint) {
	if h.Indexer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Indexer.Remove(ctx, id); err != nil {
		c.Logger().Errorf("search index error: %v", err)
	}
}

func itemIDParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("item_id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid item id")
	}
	return uint(id), nil
}

func (h *ItemHandler) Add(c echo.Context) error {
	ownerID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		Name  string  `form:"name" json:"name"`
		URL   string  `form:"url" json:"url"`
		Price float64 `form:"price" json:"price"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "item name is required")
	}

	item := models.Item{
		OwnerID: ownerID,
		Name:    req.Name,
		URL:     req.URL,
		Price:   req.Price,
	}
	if err := h.DB.Create(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	h.publish(c, map[string]interface{}{
		"type":   "item_added",
		"userID": ownerID,
		"itemID": item.ID,
		"name":   item.Name,
	})
	h.index(c, item)

	view := render.ItemView{
		ID:    item.ID,
		Name:  item.Name,
		URL:   item.URL,
		Price: item.Price,
	}
	c.Response().Header().Set(render.HeaderTriggerAfterSwap, render.TriggerSomePresents)
	return c.HTML(http.StatusOK, render.OwnerRow(view))
}

func (h *ItemHandler) Delete(c echo.Context) error {
	ownerID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	itemID, err := itemIDParam(c)
	if err != nil {
		return err
	}

	result := h.DB.Where("id = ? AND owner_id = ?", itemID, ownerID).Delete(&models.Item{})
	if result.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, result.Error)
	}
	if result.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "item not found")
	}

	h.publish(c, map[string]interface{}{
		"type":   "item_deleted",
		"userID": ownerID,
		"itemID": itemID,
	})
	h.deindex(c, itemID)

	return c.HTML(http.StatusOK, "")
}

// Allocate claims an item for the caller. The update only touches rows
// still unclaimed, so of two concurrent claims exactly one wins; the
// loser gets a conflict, never a silent overwrite.
func (h *ItemHandler) Allocate(c echo.Context) error {
	claimerID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	claimerName, err := auth.Username(c)
	if err != nil {
		return err
	}
	itemID, err := itemIDParam(c)
	if err != nil {
		return err
	}

	var item models.Item
	err = h.DB.First(&item, itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "item not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	if item.OwnerID == claimerID {
		return echo.NewHTTPError(http.StatusConflict, "you cannot claim an item on your own list")
	}

	result := h.DB.Model(&models.Item{}).
		Where("id = ? AND taken = ?", itemID, false).
		Updates(map[string]interface{}{"taken": true, "taken_by_id": claimerID})
	if result.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, result.Error)
	}
	if result.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusConflict, "item already claimed")
	}

	h.publish(c, map[string]interface{}{
		"type":   "item_allocated",
		"userID": claimerID,
		"itemID": itemID,
	})

	// Only immutable columns feed the view; the claim state is what
	// the conditional update just reported.
	view := render.ItemView{
		ID:      item.ID,
		Name:    item.Name,
		URL:     item.URL,
		Price:   item.Price,
		Taken:   true,
		TakenBy: claimerName,
	}
	return c.HTML(http.StatusOK, render.AllocatedCells(view))
}

type itemRow struct {
	ID      uint
	Name    string
	URL     string
	Price   float64
	Taken   bool
	TakenBy *string
}

func (h *ItemHandler) List(c echo.Context) error {
	callerID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	requestedID := callerID
	if raw := c.Param("user_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
		}
		requestedID = uint(parsed)
	}

	var rows []itemRow
	err = h.DB.Table("items").
		Select("items.id, items.name, items.url, items.price, items.taken, users.username AS taken_by").
		Joins("LEFT JOIN users ON users.id = items.taken_by_id").
		Where("items.owner_id = ?", requestedID).
		Order("items.id ASC").
		Scan(&rows).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	perspective := render.Visitor
	if callerID == requestedID {
		perspective = render.Owner
	}

	views := make([]render.ItemView, 0, len(rows))
	for _, row := range rows {
		view := render.ItemView{
			ID:    row.ID,
			Name:  row.Name,
			URL:   row.URL,
			Price: row.Price,
			Taken: row.Taken,
		}
		// the claimer's name never reaches an owner view
		if perspective == render.Visitor && row.TakenBy != nil {
			view.TakenBy = *row.TakenBy
		}
		views = append(views, view)
	}

	header := c.Response().Header()
	if perspective == render.Owner {
		header.Set(render.HeaderTrigger, render.TriggerShowAddForm)
	} else {
		header.Set(render.HeaderTrigger, render.TriggerHideAddForm)
	}
	if len(views) == 0 {
		header.Set(render.HeaderTriggerAfterSwap, render.TriggerNoPresents)
	} else {
		header.Set(render.HeaderTriggerAfterSwap, render.TriggerSomePresents)
	}

	return c.HTML(http.StatusOK, render.Table(views, perspective))
}

func (h *ItemHandler) Users(c echo.Context) error {
	callerID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var users []models.User
	err = h.DB.Where("id <> ?", callerID).
		Order("username ASC").
		Find(&users).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	options := make([]render.UserOption, 0, len(users))
	for _, u := range users {
		options = append(options, render.UserOption{ID: u.ID, Username: u.Username})
	}

	return c.HTML(http.StatusOK, render.UserOptions(callerID, options))
}
