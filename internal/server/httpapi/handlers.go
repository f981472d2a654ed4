package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/branchkeeper/internal/common"
	"github.com/dmitrijs2005/branchkeeper/internal/server/hierarchy"
	"github.com/dmitrijs2005/branchkeeper/internal/server/models"
	"github.com/labstack/echo/v4"
)

type registerRequest struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
}

type categoryRequest struct {
	Name string `json:"name"`
}

type parentRequest struct {
	ParentType string `json:"parentType"`
	ParentID   string `json:"parentId"`
}

type searchRequest struct {
	Types []models.Kind `json:"types"`
	Query string        `json:"query"`
}

func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return fmt.Errorf("%w: malformed body", common.ErrorValidation)
	}
	return nil
}

func pathKind(c echo.Context) (models.Kind, error) {
	return models.ParseKind(c.Param("kind"))
}

func (s *Server) registerUser(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err, nil)
	}
	u, err := s.users.Register(c.Request().Context(), caller(c), req.UserName, req.Email)
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.JSON(http.StatusCreated, u)
}

func (s *Server) getUser(c echo.Context) error {
	u, err := s.users.Get(c.Request().Context(), caller(c))
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.JSON(http.StatusOK, u)
}

func (s *Server) updateUser(c echo.Context) error {
	var patch models.UserPatch
	if err := bind(c, &patch); err != nil {
		return writeError(c, err, nil)
	}
	u, err := s.users.Update(c.Request().Context(), caller(c), patch)
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.JSON(http.StatusOK, u)
}

func (s *Server) listCategories(c echo.Context) error {
	cats, err := s.branches.ListCategories(c.Request().Context(), caller(c))
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.JSON(http.StatusOK, cats)
}

func (s *Server) createCategory(c echo.Context) error {
	var req categoryRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err, nil)
	}
	cat, err := s.branches.CreateCategory(c.Request().Context(), caller(c), req.Name)
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (s *Server) getEntity(c echo.Context) error {
	kind, err := pathKind(c)
	if err != nil {
		return writeError(c, err, nil)
	}
	ent, err := s.branches.GetEntity(c.Request().Context(), caller(c), kind, c.Param("id"))
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.JSON(http.StatusOK, ent)
}

func (s *Server) updateEntity(c echo.Context) error {
	kind, err := pathKind(c)
	if err != nil {
		return writeError(c, err, nil)
	}
	ctx, id, who := c.Request().Context(), c.Param("id"), caller(c)

	var out any
	switch kind {
	case models.KindCategory:
		var p models.CategoryPatch
		if err = bind(c, &p); err == nil {
			out, err = s.branches.UpdateCategory(ctx, who, id, p)
		}
	case models.KindTask:
		var p models.TaskPatch
		if err = bind(c, &p); err == nil {
			out, err = s.branches.UpdateTask(ctx, who, id, p)
		}
	case models.KindEvent:
		var p models.EventPatch
		if err = bind(c, &p); err == nil {
			out, err = s.branches.UpdateEvent(ctx, who, id, p)
		}
	case models.KindNote:
		var p models.NotePatch
		if err = bind(c, &p); err == nil {
			out, err = s.branches.UpdateNote(ctx, who, id, p)
		}
	}
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) deleteEntity(c echo.Context) error {
	kind, err := pathKind(c)
	if err != nil {
		return writeError(c, err, nil)
	}
	tree, err := s.branches.Delete(c.Request().Context(), caller(c), kind, c.Param("id"))
	if err != nil {
		if tree != nil {
			return writeError(c, err, tree)
		}
		return writeError(c, err, nil)
	}
	return c.JSON(http.StatusOK, tree)
}

func (s *Server) getTree(c echo.Context) error {
	kind, err := pathKind(c)
	if err != nil {
		return writeError(c, err, nil)
	}
	opts := hierarchy.GetOptions{}
	if v := c.QueryParam("notes"); v != "" {
		if opts.IncludeNotes, err = strconv.ParseBool(v); err != nil {
			return writeError(c, fmt.Errorf("%w: notes must be a boolean", common.ErrorValidation), nil)
		}
	}
	if v := c.QueryParam("depth"); v != "" {
		if opts.MaxDepth, err = strconv.Atoi(v); err != nil || opts.MaxDepth < 0 {
			return writeError(c, fmt.Errorf("%w: depth must be a non-negative integer", common.ErrorValidation), nil)
		}
	}
	tree, err := s.branches.GetTree(c.Request().Context(), caller(c), kind, c.Param("id"), opts)
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.JSON(http.StatusOK, tree)
}

func (s *Server) newParent(c echo.Context) (models.ParentRef, error) {
	var req parentRequest
	if err := bind(c, &req); err != nil {
		return models.ParentRef{}, err
	}
	return models.ParseParentRef(req.ParentType, req.ParentID)
}

func (s *Server) deleteAndRebase(c echo.Context) error {
	kind, err := pathKind(c)
	if err != nil {
		return writeError(c, err, nil)
	}
	parent, err := s.newParent(c)
	if err != nil {
		return writeError(c, err, nil)
	}
	res, err := s.branches.DeleteAndRebase(c.Request().Context(), caller(c), kind, c.Param("id"), parent)
	if err != nil {
		if res != nil {
			return writeError(c, err, res)
		}
		return writeError(c, err, nil)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) rebase(c echo.Context) error {
	kind, err := pathKind(c)
	if err != nil {
		return writeError(c, err, nil)
	}
	parent, err := s.newParent(c)
	if err != nil {
		return writeError(c, err, nil)
	}
	child := models.ChildRef{Kind: kind, ID: c.Param("id")}
	res, err := s.branches.Rebase(c.Request().Context(), caller(c), child, parent)
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) createTask(c echo.Context) error {
	parent, err := models.ParseParentRef(c.Param("kind"), c.Param("id"))
	if err != nil {
		return writeError(c, err, nil)
	}
	var draft models.Task
	if err := bind(c, &draft); err != nil {
		return writeError(c, err, nil)
	}
	t, err := s.branches.CreateTask(c.Request().Context(), caller(c), parent, draft)
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.JSON(http.StatusCreated, t)
}

func (s *Server) createEvent(c echo.Context) error {
	parent, err := models.ParseParentRef(c.Param("kind"), c.Param("id"))
	if err != nil {
		return writeError(c, err, nil)
	}
	var draft models.Event
	if err := bind(c, &draft); err != nil {
		return writeError(c, err, nil)
	}
	e, err := s.branches.CreateEvent(c.Request().Context(), caller(c), parent, draft)
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.JSON(http.StatusCreated, e)
}

func (s *Server) createNote(c echo.Context) error {
	parent, err := models.ParseParentRef(c.Param("kind"), c.Param("id"))
	if err != nil {
		return writeError(c, err, nil)
	}
	var draft models.Note
	if err := bind(c, &draft); err != nil {
		return writeError(c, err, nil)
	}
	n, err := s.branches.CreateNote(c.Request().Context(), caller(c), parent, draft)
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.JSON(http.StatusCreated, n)
}

func (s *Server) search(c echo.Context) error {
	var req searchRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err, nil)
	}
	hits, err := s.branches.Search(c.Request().Context(), caller(c), req.Types, req.Query)
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.JSON(http.StatusOK, hits)
}
