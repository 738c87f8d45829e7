package http

import (
	"net/http"

	"github.com/fyrsmithlabs/lifearchitect/internal/journal"
	"github.com/labstack/echo/v4"
)

func (s *Server) getLog(c echo.Context) error {
	day, err := s.day(c)
	if err != nil {
		return err
	}
	entry, err := s.svc.Journal.Get(c.Request().Context(), day)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entry)
}

func (s *Server) putLog(c echo.Context) error {
	day, err := s.day(c)
	if err != nil {
		return err
	}
	var entry journal.Entry
	if err := bind(c, &entry); err != nil {
		return err
	}
	entry, err = s.svc.Journal.Put(c.Request().Context(), day, entry)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entry)
}
