package sim

import (
	"github.com/gofiber/fiber/v2"
)

type moveRequest struct {
	Current float64 `json:"current"`
	Delta   float64 `json:"delta"`
	Degrees bool    `json:"degrees"`
}

type intensityRequest struct {
	Level float64 `json:"level"`
}

// NewBridge exposes the rig through the console bridge REST API, so the
// HTTP controller can be driven against it.
func NewBridge(r *Rig) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	api := app.Group("/api")
	api.Get("/fixtures", func(c *fiber.Ctx) error {
		channels, _ := r.ListFixtures()
		return c.JSON(channels)
	})

	fx := api.Group("/fixtures/:ch")
	fx.Get("/range", func(c *fiber.Ctx) error {
		ch, err := c.ParamsInt("ch")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid channel")
		}
		pan, err := r.PanRange(ch)
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		tilt, _ := r.TiltRange(ch)
		return c.JSON(fiber.Map{
			"pan":  [2]float64{pan.Min, pan.Max},
			"tilt": [2]float64{tilt.Min, tilt.Max},
		})
	})
	fx.Post("/intensity", func(c *fiber.Ctx) error {
		ch, err := c.ParamsInt("ch")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid channel")
		}
		var req intensityRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid body")
		}
		if err := r.SetIntensity(ch, req.Level); err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
	fx.Post("/pan", moveHandler(r.SetPan))
	fx.Post("/tilt", moveHandler(r.SetTilt))

	// Sensor readings as the websocket feed would carry them, for polling.
	app.Get("/sensors", func(c *fiber.Ctx) error {
		return c.JSON(r.Snapshot())
	})

	return app
}

func moveHandler(move func(channel int, current, delta float64, useDegrees bool) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ch, err := c.ParamsInt("ch")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid channel")
		}
		var req moveRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid body")
		}
		if err := move(ch, req.Current, req.Delta, req.Degrees); err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
