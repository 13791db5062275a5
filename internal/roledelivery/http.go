// Package roledelivery manages delivery layer of roles.
package roledelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-finance/internal/domain"
	"github.com/go-petr/pet-finance/pkg/errorspkg"
	"github.com/go-petr/pet-finance/pkg/web"
)

// Service provides service layer interface needed by role delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package roledelivery
type Service interface {
	Create(ctx context.Context, name string) (domain.Role, error)
	Get(ctx context.Context, id int32) (domain.Role, error)
	List(ctx context.Context) ([]domain.Role, error)
	Update(ctx context.Context, id int32, name string) (domain.Role, error)
	Delete(ctx context.Context, id int32) (domain.Role, error)
}

// Handler facilitates role delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns role handler.
func NewHandler(rs Service) *Handler {
	return &Handler{service: rs}
}

type roleData struct {
	Role domain.Role `json:"role"`
}

type rolesData struct {
	Roles []domain.Role `json:"roles"`
}

type uriRequest struct {
	ID int32 `uri:"id" binding:"required,min=1"`
}

type nameRequest struct {
	Name string `json:"name" binding:"required"`
}

func writeError(gctx *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRoleName):
		gctx.JSON(http.StatusBadRequest, web.Error(err))
	case errors.Is(err, domain.ErrRoleNotFound):
		gctx.JSON(http.StatusNotFound, web.Error(err))
	case errors.Is(err, domain.ErrRoleAlreadyExists), errors.Is(err, domain.ErrRoleInUse),
		errors.Is(err, domain.ErrBuiltinRole):
		gctx.JSON(http.StatusConflict, web.Error(err))
	default:
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
	}
}

func badRequest(gctx *gin.Context, err error) {
	zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
	gctx.JSON(http.StatusBadRequest, web.Response{Error: web.GetErrorMsg(err)})
}

// Create handles http request to create a role.
func (h *Handler) Create(gctx *gin.Context) {
	var req nameRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		badRequest(gctx, err)
		return
	}

	role, err := h.service.Create(gctx.Request.Context(), req.Name)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, web.Response{Data: roleData{role}})
}

// Get handles http request to get a role.
func (h *Handler) Get(gctx *gin.Context) {
	var req uriRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		badRequest(gctx, err)
		return
	}

	role, err := h.service.Get(gctx.Request.Context(), req.ID)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: roleData{role}})
}

// List handles http request to list all roles.
func (h *Handler) List(gctx *gin.Context) {
	roles, err := h.service.List(gctx.Request.Context())
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: rolesData{roles}})
}

// Update handles http request to rename a role.
func (h *Handler) Update(gctx *gin.Context) {
	var uri uriRequest
	if err := gctx.ShouldBindUri(&uri); err != nil {
		badRequest(gctx, err)
		return
	}

	var req nameRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		badRequest(gctx, err)
		return
	}

	role, err := h.service.Update(gctx.Request.Context(), uri.ID, req.Name)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: roleData{role}})
}

// Delete handles http request to delete a role.
func (h *Handler) Delete(gctx *gin.Context) {
	var req uriRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		badRequest(gctx, err)
		return
	}

	role, err := h.service.Delete(gctx.Request.Context(), req.ID)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: roleData{role}})
}
