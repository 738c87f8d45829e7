package http

import (
	"net/http"

	"github.com/fyrsmithlabs/lifearchitect/internal/dates"
	"github.com/fyrsmithlabs/lifearchitect/internal/tasks"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func (s *Server) listTasks(c echo.Context) error {
	day, err := s.day(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	if s.config.Samples && s.isToday(day) {
		if seeded, err := s.svc.Tasks.SeedSamples(ctx, day); err != nil {
			return err
		} else if seeded {
			s.logger.Info(ctx, "seeded sample tasks")
		}
	}

	list, err := s.svc.Tasks.ForDate(ctx, day)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) addTask(c echo.Context) error {
	day, err := s.day(c)
	if err != nil {
		return err
	}
	var req AddTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	task, err := s.svc.Tasks.Add(c.Request().Context(), day, req.Text, req.GoalID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, task)
}

func (s *Server) patchTask(c echo.Context) error {
	day, err := s.day(c)
	if err != nil {
		return err
	}
	var req PatchTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Text == nil && req.IsCompleted == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "nothing to update: set text or isCompleted")
	}

	ctx := c.Request().Context()
	id := c.Param("id")
	var task tasks.Task
	if req.Text != nil {
		if task, err = s.svc.Tasks.EditText(ctx, day, id, *req.Text); err != nil {
			return err
		}
	}
	if req.IsCompleted != nil {
		if task, err = s.svc.Tasks.SetCompleted(ctx, day, id, *req.IsCompleted); err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) deleteTask(c echo.Context) error {
	day, err := s.day(c)
	if err != nil {
		return err
	}
	if err := s.svc.Tasks.Delete(c.Request().Context(), day, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) toggleTask(c echo.Context) error {
	day, err := s.day(c)
	if err != nil {
		return err
	}
	task, err := s.svc.Tasks.Toggle(c.Request().Context(), day, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) reorderTasks(c echo.Context) error {
	day, err := s.day(c)
	if err != nil {
		return err
	}
	var req ReorderRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	list, err := s.svc.Tasks.Reorder(c.Request().Context(), day, req.ActiveID, req.OverID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) migrateTasks(c echo.Context) error {
	day, err := s.day(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	n, err := s.svc.Tasks.Migrate(ctx, day)
	if err != nil {
		return err
	}
	next := dates.AddDays(day, 1)
	s.logger.Info(ctx, "tasks migrated", zap.Int("count", n), zap.String("to", dates.Key(next)))
	return c.JSON(http.StatusOK, MigrateResponse{Migrated: n, From: dates.Key(day), To: dates.Key(next)})
}
