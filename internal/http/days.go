package http

import (
	"net/http"
	"time"

	"github.com/fyrsmithlabs/lifearchitect/internal/dates"
	"github.com/fyrsmithlabs/lifearchitect/internal/logging"
	"github.com/labstack/echo/v4"
)

func (s *Server) now() time.Time {
	return s.config.Now().In(s.config.Location)
}

// resolveDay parses "today", "" or YYYY-MM-DD in the calendar zone.
func (s *Server) resolveDay(v string) (time.Time, error) {
	if v == "" || v == "today" {
		return dates.StartOfDay(s.now()), nil
	}
	day, err := dates.ParseKey(v, s.config.Location)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "day must be 'today' or YYYY-MM-DD")
	}
	return day, nil
}

// day resolves the :day path parameter and tags the request context with it.
func (s *Server) day(c echo.Context) (time.Time, error) {
	day, err := s.resolveDay(c.Param("day"))
	if err != nil {
		return time.Time{}, err
	}
	req := c.Request()
	c.SetRequest(req.WithContext(logging.WithDay(req.Context(), dates.Key(day))))
	return day, nil
}

func (s *Server) isToday(day time.Time) bool {
	return dates.SameDay(day, s.now())
}

func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return nil
}
