package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fyrsmithlabs/lifearchitect/internal/dates"
	"github.com/fyrsmithlabs/lifearchitect/internal/flows"
	"github.com/fyrsmithlabs/lifearchitect/internal/logging"
	"github.com/fyrsmithlabs/lifearchitect/internal/timeparse"
	"github.com/labstack/echo/v4"
)

func withFlow(c echo.Context, flow string) {
	req := c.Request()
	c.SetRequest(req.WithContext(logging.WithFlow(req.Context(), flow)))
}

func (s *Server) decomposeGoal(c echo.Context) error {
	var req DecomposeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	withFlow(c, flows.FlowGoalDecomposition)

	g, err := s.svc.Planner.DecomposeGoal(c.Request().Context(), req.Goal)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, g)
}

func (s *Server) listGoals(c echo.Context) error {
	list, err := s.svc.Goals.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) getGoal(c echo.Context) error {
	g, err := s.svc.Goals.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, g)
}

func (s *Server) deleteGoal(c echo.Context) error {
	if err := s.svc.Goals.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) acceptGoalTask(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "index must be a non-negative integer")
	}
	var req AcceptRequest
	if c.Request().ContentLength != 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}
	day, err := s.resolveDay(req.Day)
	if err != nil {
		return err
	}

	task, err := s.svc.Planner.AcceptTask(c.Request().Context(), c.Param("id"), index, day)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, task)
}

func (s *Server) schedule(c echo.Context) error {
	var req ScheduleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	day, err := s.resolveDay(req.Day)
	if err != nil {
		return err
	}
	withFlow(c, flows.FlowScheduling)
	r := c.Request()
	c.SetRequest(r.WithContext(logging.WithDay(r.Context(), dates.Key(day))))

	report, err := s.svc.Planner.Schedule(c.Request().Context(), req.ScheduleDescription, day)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) parseTime(c echo.Context) error {
	var req TimeParseRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ref := s.now()
	if req.Reference != "" {
		t, err := time.Parse(time.RFC3339, req.Reference)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "reference must be RFC 3339")
		}
		ref = t.In(s.config.Location)
	}

	r, err := timeparse.Parse(req.Value, ref)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, TimeParseResponse{
		Time:      r.Time,
		Layout:    r.Layout,
		Pattern:   r.Pattern,
		Tomorrow:  r.Tomorrow,
		Formatted: timeparse.Format(r),
	})
}
