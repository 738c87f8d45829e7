package http

import (
	"net/http"

	"github.com/fyrsmithlabs/lifearchitect/internal/timeline"
	"github.com/labstack/echo/v4"
)

func (s *Server) listEvents(c echo.Context) error {
	day, err := s.day(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	if s.config.Samples && s.isToday(day) {
		if _, err := s.svc.Timeline.SeedSamples(ctx, day); err != nil {
			return err
		}
	}

	events, err := s.svc.Timeline.ForDate(ctx, day)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, events)
}

func (s *Server) createEvent(c echo.Context) error {
	day, err := s.day(c)
	if err != nil {
		return err
	}
	var form timeline.Form
	if err := bind(c, &form); err != nil {
		return err
	}
	ev, err := s.svc.Timeline.Create(c.Request().Context(), day, form)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ev)
}

func (s *Server) updateEvent(c echo.Context) error {
	day, err := s.day(c)
	if err != nil {
		return err
	}
	var form timeline.Form
	if err := bind(c, &form); err != nil {
		return err
	}
	ev, err := s.svc.Timeline.Update(c.Request().Context(), day, c.Param("id"), form)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ev)
}

func (s *Server) deleteEvent(c echo.Context) error {
	day, err := s.day(c)
	if err != nil {
		return err
	}
	if err := s.svc.Timeline.Delete(c.Request().Context(), day, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
