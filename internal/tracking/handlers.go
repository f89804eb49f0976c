package tracking

import (
	"errors"

	"backend-corevia/internal/activity"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Use(authMiddleware)

	r.Post("/sessions", func(c *fiber.Ctx) error {
		var req StartRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}
		if !validActivityType(req.ActivityType) {
			return fiber.NewError(fiber.StatusBadRequest, "activity_type must be running, walking or cycling")
		}
		view, err := svc.StartSession(c.Context(), userID(c), req.ActivityType)
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(view)
	})

	r.Get("/sessions/:id", func(c *fiber.Ctx) error {
		view, err := svc.Get(c.Context(), userID(c), c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(view)
	})

	r.Post("/sessions/:id/fixes", func(c *fiber.Ctx) error {
		var fix activity.LocationFix
		if err := c.BodyParser(&fix); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		view, err := svc.AddFix(c.Context(), userID(c), c.Params("id"), fix)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(view)
	})

	r.Post("/sessions/:id/steps", func(c *fiber.Ctx) error {
		var req StepsRequest
		if err := c.BodyParser(&req); err != nil || req.Steps < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "steps must be a non-negative integer")
		}
		view, err := svc.UpdateSteps(c.Context(), userID(c), c.Params("id"), req.Steps)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(view)
	})

	r.Post("/sessions/:id/pause", func(c *fiber.Ctx) error {
		view, err := svc.Pause(c.Context(), userID(c), c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(view)
	})

	r.Post("/sessions/:id/resume", func(c *fiber.Ctx) error {
		view, err := svc.Resume(c.Context(), userID(c), c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(view)
	})

	r.Post("/sessions/:id/stop", func(c *fiber.Ctx) error {
		result, err := svc.Stop(c.Context(), userID(c), c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(result)
	})
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, activity.ErrRunnerClosed):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, activity.ErrInvalidTransition):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
