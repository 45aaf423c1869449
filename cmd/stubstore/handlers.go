package main

import (
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/premhagargi/Kollab/domain"
)

const requestBodyMaxSize = 1 << 20

// authFunc resolves the caller from an Authorization header value.
type authFunc func(header string) (string, error)

// register wires up all routes on the provided Echo instance.
func register(e *echo.Echo, store *memStore, authenticate authFunc, logger *log.Logger) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	e.POST("/api/boards", postBoard(store, authenticate))
	e.GET("/api/boards/:id", getBoard(store, authenticate))
	e.PATCH("/api/boards/:id", patchBoard(store, authenticate, logger))
	e.GET("/api/boards/:id/tasks", getBoardTasks(store, authenticate))
	e.POST("/api/tasks", postTask(store, authenticate, logger))
	e.PATCH("/api/tasks/:id", patchTask(store, authenticate, logger))
	e.DELETE("/api/tasks/:id", deleteTask(store, authenticate))
	e.GET("/api/users", getUsers(store, authenticate))
	e.POST("/api/users", postUser(store, authenticate))
}

func decodeBody(c echo.Context, out any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	return dec.Decode(out)
}

func callerID(c echo.Context, authenticate authFunc) (string, error) {
	return authenticate(c.Request().Header.Get("Authorization"))
}

func postBoard(store *memStore, authenticate authFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := callerID(c, authenticate)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var body struct {
			Name string `json:"name"`
		}
		if err := decodeBody(c, &body); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if strings.TrimSpace(body.Name) == "" {
			return c.String(http.StatusBadRequest, "board name is required")
		}
		board := store.CreateBoard(strings.TrimSpace(body.Name), userID)
		return c.JSON(http.StatusCreated, board)
	}
}

func getBoard(store *memStore, authenticate authFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := callerID(c, authenticate); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		board, ok := store.Board(c.Param("id"))
		if !ok {
			return c.NoContent(http.StatusNotFound)
		}
		return c.JSON(http.StatusOK, board)
	}
}

func patchBoard(store *memStore, authenticate authFunc, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := callerID(c, authenticate)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var body struct {
			Columns []domain.Column `json:"columns"`
		}
		if err := decodeBody(c, &body); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		board, ok := store.UpdateColumns(c.Param("id"), body.Columns)
		if !ok {
			return c.NoContent(http.StatusNotFound)
		}
		logger.WithFields(log.Fields{
			"board":   board.ID,
			"user":    userID,
			"columns": len(board.Columns),
		}).Debug("columns updated")
		return c.JSON(http.StatusOK, board)
	}
}

func getBoardTasks(store *memStore, authenticate authFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := callerID(c, authenticate); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		if _, ok := store.Board(c.Param("id")); !ok {
			return c.NoContent(http.StatusNotFound)
		}
		tasks := store.TasksForBoard(c.Param("id"))
		return c.JSON(http.StatusOK, map[string]any{"tasks": tasks})
	}
}

func postTask(store *memStore, authenticate authFunc, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := callerID(c, authenticate)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var draft domain.TaskDraft
		if err := decodeBody(c, &draft); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if draft.BoardID == "" || draft.ColumnID == "" {
			return c.String(http.StatusBadRequest, "boardId and columnId are required")
		}
		board, ok := store.Board(draft.BoardID)
		if !ok {
			return c.String(http.StatusBadRequest, "unknown board")
		}
		if board.ColumnIndex(draft.ColumnID) < 0 {
			return c.String(http.StatusBadRequest, "unknown column")
		}
		if draft.CreatorID == "" {
			draft.CreatorID = userID
		}
		task := store.CreateTask(draft)
		logger.WithFields(log.Fields{"task": task.ID, "board": task.BoardID}).Debug("task created")
		return c.JSON(http.StatusCreated, task)
	}
}

func patchTask(store *memStore, authenticate authFunc, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := callerID(c, authenticate); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var patch domain.TaskPatch
		if err := decodeBody(c, &patch); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		task, ok := store.PatchTask(c.Param("id"), patch)
		if !ok {
			return c.NoContent(http.StatusNotFound)
		}
		logger.WithField("task", task.ID).Debug("task updated")
		return c.JSON(http.StatusOK, task)
	}
}

func deleteTask(store *memStore, authenticate authFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := callerID(c, authenticate); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		if !store.DeleteTask(c.Param("id")) {
			return c.NoContent(http.StatusNotFound)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func getUsers(store *memStore, authenticate authFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := callerID(c, authenticate); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		raw := strings.TrimSpace(c.QueryParam("ids"))
		ids := []string{}
		if raw != "" {
			ids = strings.Split(raw, ",")
		}
		users := store.UsersByIDs(ids)
		return c.JSON(http.StatusOK, map[string]any{"users": users})
	}
}

func postUser(store *memStore, authenticate authFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := callerID(c, authenticate); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var profile domain.UserProfile
		if err := decodeBody(c, &profile); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		return c.JSON(http.StatusCreated, store.PutUser(profile))
	}
}
