package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tastebud-ai/tastebud/internal/docstore"
	"github.com/tastebud-ai/tastebud/models"
)

type RestaurantsHandler struct {
	Store docstore.Store
}

func (h *RestaurantsHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.GET("/:id/menu", h.menu)
}

func (h *RestaurantsHandler) list(c echo.Context) error {
	restaurants, err := h.Store.ListRestaurants(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"restaurants": restaurants})
}

func (h *RestaurantsHandler) get(c echo.Context) error {
	restaurants, err := h.Store.ListRestaurants(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	id := c.Param("id")
	for _, r := range restaurants {
		if r.ID == id {
			return c.JSON(http.StatusOK, r)
		}
	}
	return echo.NewHTTPError(http.StatusNotFound, "restaurant not found")
}

func (h *RestaurantsHandler) menu(c echo.Context) error {
	items, err := h.Store.ListMenuItems(c.Request().Context(), c.Param("id"))
	if errors.Is(err, models.ErrRestaurantNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "restaurant not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"menu": items})
}
