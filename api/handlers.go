package api

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/CristiGvl/picoSensors/internal/classify"
	"github.com/CristiGvl/picoSensors/internal/registry"
	"github.com/gofiber/fiber/v2"
)

// typeFilter parses the optional ?type= query. ok is false when no filter
// was given.
func typeFilter(c *fiber.Ctx) (t classify.Type, ok bool, err error) {
	raw := c.Query("type")
	if raw == "" {
		return classify.Other, false, nil
	}
	t, err = classify.Parse(raw)
	return t, err == nil, err
}

// Sensors endpoint
func (s *Server) getSensors(c *fiber.Ctx) error {
	kind, filter, err := typeFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	s.mu.Lock()
	sensors := s.registry.Sensors()
	s.mu.Unlock()

	out := make([]*registry.Sensor, 0, len(sensors))
	for _, sensor := range sensors {
		if filter && sensor.Kind() != kind {
			continue
		}
		out = append(out, sensor)
	}
	return c.JSON(out)
}

// Single sensor endpoint
func (s *Server) getSensor(c *fiber.Ctx) error {
	id, err := url.PathUnescape(c.Params("+"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	s.mu.Lock()
	sensor, ok := s.registry.Lookup(id)
	s.mu.Unlock()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no sensor " + strconv.Quote(id)})
	}
	return c.JSON(sensor)
}

// Values endpoint. Every request refreshes all backends.
func (s *Server) getValues(c *fiber.Ctx) error {
	kind, filter, err := typeFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.updateTimeout)
	defer cancel()

	s.mu.Lock()
	readings, err := s.registry.Update(ctx)
	s.mu.Unlock()
	if err != nil {
		s.log.WithError(err).Warn("sensor update failed")
		status := fiber.StatusInternalServerError
		if errors.Is(err, registry.ErrClosed) {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	out := make([]registry.Reading, 0, len(readings))
	for _, r := range readings {
		if filter && r.Sensor.Kind() != kind {
			continue
		}
		out = append(out, r)
	}
	return c.JSON(out)
}
