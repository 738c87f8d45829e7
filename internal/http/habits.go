package http

import (
	"net/http"

	"github.com/fyrsmithlabs/lifearchitect/internal/dates"
	"github.com/fyrsmithlabs/lifearchitect/internal/habits"
	"github.com/labstack/echo/v4"
)

func (s *Server) listHabits(c echo.Context) error {
	list, err := s.svc.Habits.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) addHabit(c echo.Context) error {
	var in habits.Input
	if err := bind(c, &in); err != nil {
		return err
	}
	h, err := s.svc.Habits.Add(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, h)
}

func (s *Server) updateHabit(c echo.Context) error {
	var in habits.Input
	if err := bind(c, &in); err != nil {
		return err
	}
	h, err := s.svc.Habits.Update(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h)
}

func (s *Server) deleteHabit(c echo.Context) error {
	if err := s.svc.Habits.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) completeHabit(c echo.Context) error {
	return s.setCompletion(c, true)
}

func (s *Server) uncompleteHabit(c echo.Context) error {
	return s.setCompletion(c, false)
}

func (s *Server) setCompletion(c echo.Context, done bool) error {
	day, err := s.day(c)
	if err != nil {
		return err
	}
	h, err := s.svc.Habits.SetCompletion(c.Request().Context(), c.Param("id"), day, done)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h)
}

// habitChains summarizes every habit for ?month=YYYY-MM (default: this month).
func (s *Server) habitChains(c echo.Context) error {
	today := dates.StartOfDay(s.now())
	month := dates.StartOfMonth(today)
	if v := c.QueryParam("month"); v != "" {
		m, err := dates.ParseMonth(v, s.config.Location)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "month must be YYYY-MM")
		}
		month = m
	}

	list, err := s.svc.Habits.List(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]habits.MonthSummary, 0, len(list))
	for _, h := range list {
		out = append(out, habits.Summarize(h, month, today))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) listCategories(c echo.Context) error {
	return c.JSON(http.StatusOK, habits.Categories)
}
