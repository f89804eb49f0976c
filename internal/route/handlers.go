package route

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Use(authMiddleware)

	r.Get("/", func(c *fiber.Ctx) error {
		filter, err := parseListFilter(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		routes, err := svc.List(c.Context(), userID(c), filter)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(routes)
	})

	r.Get("/stats", func(c *fiber.Ctx) error {
		days := c.QueryInt("days", DefaultStatsDays)
		if days < 1 || days > MaxStatsDays {
			return fiber.NewError(fiber.StatusBadRequest, "days must be between 1 and 365")
		}
		stats, err := svc.Stats(c.Context(), userID(c), days)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(stats)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		route, err := svc.Get(c.Context(), userID(c), c.Params("id"))
		if errors.Is(err, ErrRouteNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(route)
	})

	r.Delete("/:id", func(c *fiber.Ctx) error {
		err := svc.Delete(c.Context(), userID(c), c.Params("id"))
		if errors.Is(err, ErrRouteNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func parseListFilter(c *fiber.Ctx) (ListFilter, error) {
	f := ListFilter{
		ActivityType: c.Query("activity_type"),
		Limit:        c.QueryInt("limit", DefaultLimit),
		Offset:       c.QueryInt("offset", 0),
	}
	if f.Limit < 1 || f.Limit > MaxLimit {
		return ListFilter{}, errors.New("limit must be between 1 and 100")
	}
	if f.Offset < 0 {
		return ListFilter{}, errors.New("offset must not be negative")
	}

	var err error
	if v := c.Query("date_from"); v != "" {
		if f.From, err = time.Parse(time.RFC3339, v); err != nil {
			return ListFilter{}, errors.New("date_from must be RFC3339")
		}
	}
	if v := c.Query("date_to"); v != "" {
		if f.To, err = time.Parse(time.RFC3339, v); err != nil {
			return ListFilter{}, errors.New("date_to must be RFC3339")
		}
	}
	return f, nil
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
