package httpapi

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-map-sync/internal/controller"
	"github.com/i474232898/weather-map-sync/internal/geo"
	"github.com/i474232898/weather-map-sync/internal/resolver"
	"github.com/i474232898/weather-map-sync/internal/store"
	"github.com/i474232898/weather-map-sync/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app. positions may be
// nil when the device position is not reported over HTTP.
func RegisterRoutes(app *fiber.App, ctrl *controller.Controller, positions *geo.ReportedSource) {
	v1 := app.Group("/api/v1")

	v1.Get("/view", func(c *fiber.Ctx) error {
		return c.JSON(ctrl.View())
	})

	v1.Post("/search/input", func(c *fiber.Ctx) error {
		var req searchInputRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		ctrl.SearchInput(req.Text)
		return c.Status(fiber.StatusAccepted).JSON(ctrl.View().Search)
	})

	v1.Post("/search/submit", func(c *fiber.Ctx) error {
		ctrl.SearchSubmit()
		return c.Status(fiber.StatusAccepted).JSON(ctrl.View().Search)
	})

	v1.Post("/map/click", func(c *fiber.Ctx) error {
		var req coordinatesRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		id, err := ctrl.MapClick(*req.Latitude, *req.Longitude)
		if err != nil {
			return requestError(err)
		}
		return accepted(c, id)
	})

	v1.Post("/locate", func(c *fiber.Ctx) error {
		id, err := ctrl.Locate()
		if err != nil {
			return requestError(err)
		}
		return accepted(c, id)
	})

	v1.Post("/device/position", func(c *fiber.Ctx) error {
		if positions == nil {
			return fiber.NewError(fiber.StatusNotFound, "device position reporting is disabled")
		}
		var req devicePositionRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		if req.Error != "" {
			positions.Fail(geo.ParseError(req.Error))
			return c.SendStatus(fiber.StatusAccepted)
		}
		if req.Latitude == nil || req.Longitude == nil {
			return fiber.NewError(fiber.StatusBadRequest, "latitude and longitude are required")
		}
		positions.Report(weather.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude})
		return c.SendStatus(fiber.StatusAccepted)
	})

	v1.Get("/favorites", func(c *fiber.Ctx) error {
		favorites, err := ctrl.ListFavorites(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "failed to list favorites")
		}
		return c.JSON(favorites)
	})

	v1.Post("/favorites", func(c *fiber.Ctx) error {
		var req favoriteRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		f, err := ctrl.AddFavorite(c.UserContext(), req.PlaceName, req.PlaceDescription)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "failed to save favorite")
		}
		return c.Status(fiber.StatusCreated).JSON(f)
	})

	v1.Delete("/favorites/:id", func(c *fiber.Ctx) error {
		if err := ctrl.DeleteFavorite(c.UserContext(), c.Params("id")); err != nil {
			return favoriteError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Post("/favorites/:id/select", func(c *fiber.Ctx) error {
		id, err := ctrl.SelectFavorite(c.UserContext(), c.Params("id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return favoriteError(err)
			}
			return requestError(err)
		}
		return accepted(c, id)
	})
}

type searchInputRequest struct {
	Text string `json:"text" validate:"max=200"`
}

// coordinatesRequest uses pointers so that a missing field is distinguishable from 0.
type coordinatesRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"required"`
}

type devicePositionRequest struct {
	Latitude  *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude"`
	Error     string   `json:"error" validate:"omitempty,max=64"`
}

type favoriteRequest struct {
	PlaceName        string `json:"placeName" validate:"max=200"`
	PlaceDescription string `json:"placeDescription" validate:"max=1000"`
}

func bindJSON(c *fiber.Ctx, out any) error {
	if len(strings.TrimSpace(string(c.Body()))) > 0 {
		if err := c.BodyParser(out); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}
	if err := validate.Struct(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

func accepted(c *fiber.Ctx, id uint64) error {
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"requestId": id})
}

func requestError(err error) error {
	switch {
	case errors.Is(err, resolver.ErrInvalidCoordinates), errors.Is(err, resolver.ErrEmptyPlaceName):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, resolver.ErrClosed):
		return fiber.NewError(fiber.StatusServiceUnavailable, "shutting down")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to issue request")
	}
}

func favoriteError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "favorite not found")
	}
	return fiber.NewError(fiber.StatusBadGateway, "favorites backend unavailable")
}
