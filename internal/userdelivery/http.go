// Package userdelivery manages delivery layer of users.
package userdelivery

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-finance/internal/domain"
	"github.com/go-petr/pet-finance/internal/middleware"
	"github.com/go-petr/pet-finance/internal/transactionservice"
	"github.com/go-petr/pet-finance/pkg/errorspkg"
	"github.com/go-petr/pet-finance/pkg/tokenpkg"
	"github.com/go-petr/pet-finance/pkg/web"
)

// Service provides service layer interface needed by user delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package userdelivery
type Service interface {
	Register(ctx context.Context, arg domain.NewUserParams) (domain.UserWithoutPassword, error)
	Create(ctx context.Context, arg domain.NewUserParams) (domain.UserWithoutPassword, error)
	CheckPassword(ctx context.Context, email, password string) (domain.UserWithoutPassword, error)
	Get(ctx context.Context, id int32) (domain.UserWithoutPassword, error)
	List(ctx context.Context, pageID, pageSize int32) ([]domain.UserWithoutPassword, error)
	Update(ctx context.Context, arg domain.ChangeUserParams) (domain.UserWithoutPassword, error)
	Delete(ctx context.Context, id int32) error
}

// Ledger gives admins read access to another user's entries and balance check.
type Ledger interface {
	Audit(ctx context.Context, userID int32) (transactionservice.AuditReport, error)
	List(ctx context.Context, userID int32) ([]domain.Transaction, error)
}

// Handler facilitates user delivery layer logic.
type Handler struct {
	service       Service
	ledger        Ledger
	tokenMaker    tokenpkg.Maker
	tokenDuration time.Duration
}

// NewHandler returns user handler.
func NewHandler(us Service, ledger Ledger, tokenMaker tokenpkg.Maker, tokenDuration time.Duration) *Handler {
	return &Handler{
		service:       us,
		ledger:        ledger,
		tokenMaker:    tokenMaker,
		tokenDuration: tokenDuration,
	}
}

type userData struct {
	User domain.UserWithoutPassword `json:"user"`
}

type usersData struct {
	Users []domain.UserWithoutPassword `json:"users"`
}

type userDetailData struct {
	User         domain.UserWithoutPassword `json:"user"`
	Transactions []domain.Transaction       `json:"transactions"`
}

type auditData struct {
	Audit transactionservice.AuditReport `json:"audit"`
}

func writeError(gctx *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrOpeningBalanceNotPosted):
		gctx.JSON(http.StatusInternalServerError, web.Error(domain.ErrOpeningBalanceNotPosted))
	case errors.Is(err, domain.ErrInvalidAmount):
		gctx.JSON(http.StatusBadRequest, web.Error(err))
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrRoleNotFound):
		gctx.JSON(http.StatusNotFound, web.Error(err))
	case errors.Is(err, domain.ErrWrongPassword):
		gctx.JSON(http.StatusUnauthorized, web.Error(err))
	case errors.Is(err, domain.ErrEmailAlreadyExists), errors.Is(err, domain.ErrConflict):
		gctx.JSON(http.StatusConflict, web.Error(err))
	default:
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
	}
}

func badRequest(gctx *gin.Context, err error) {
	zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
	gctx.JSON(http.StatusBadRequest, web.Response{Error: web.GetErrorMsg(err)})
}

// respondWithToken issues an access token for u and writes it together with the user.
func (h *Handler) respondWithToken(gctx *gin.Context, status int, u domain.UserWithoutPassword) {
	accessToken, payload, err := h.tokenMaker.CreateToken(u.ID, u.Role.Name, h.tokenDuration)
	if err != nil {
		zerolog.Ctx(gctx.Request.Context()).Error().Err(err).Send()
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(status, web.Response{
		AccessToken:          accessToken,
		AccessTokenExpiresAt: payload.ExpiredAt.Format(time.RFC3339),
		Data:                 userData{u},
	})
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"max=32"`
	Password string `json:"password" binding:"required,min=6"`
}

// Register handles http request to sign up a user with the default role.
func (h *Handler) Register(gctx *gin.Context) {
	var req registerRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		badRequest(gctx, err)
		return
	}

	createdUser, err := h.service.Register(gctx.Request.Context(), domain.NewUserParams{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		writeError(gctx, err)
		return
	}

	h.respondWithToken(gctx, http.StatusCreated, createdUser)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// Login handles http login request and returns user and access token.
func (h *Handler) Login(gctx *gin.Context) {
	var req loginRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		badRequest(gctx, err)
		return
	}

	u, err := h.service.CheckPassword(gctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(gctx, err)
		return
	}

	h.respondWithToken(gctx, http.StatusOK, u)
}

// Me handles http request to get the profile of the authenticated user.
func (h *Handler) Me(gctx *gin.Context) {
	payload := middleware.Payload(gctx)

	u, err := h.service.Get(gctx.Request.Context(), payload.UserID)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: userData{u}})
}

type createRequest struct {
	Name           string          `json:"name" binding:"required"`
	Email          string          `json:"email" binding:"required,email"`
	Phone          string          `json:"phone" binding:"max=32"`
	Password       string          `json:"password" binding:"required,min=6"`
	RoleID         int32           `json:"role_id" binding:"required,min=1"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// Create handles http request of an administrator to create a user with any
// role and an opening balance.
func (h *Handler) Create(gctx *gin.Context) {
	var req createRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		badRequest(gctx, err)
		return
	}

	createdUser, err := h.service.Create(gctx.Request.Context(), domain.NewUserParams{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Password:       req.Password,
		RoleID:         req.RoleID,
		OpeningBalance: req.OpeningBalance,
	})
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, web.Response{Data: userData{createdUser}})
}

type uriRequest struct {
	ID int32 `uri:"id" binding:"required,min=1"`
}

// Get handles http request to get a user together with the user's transactions.
func (h *Handler) Get(gctx *gin.Context) {
	var req uriRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		badRequest(gctx, err)
		return
	}

	u, err := h.service.Get(gctx.Request.Context(), req.ID)
	if err != nil {
		writeError(gctx, err)
		return
	}

	transactions, err := h.ledger.List(gctx.Request.Context(), u.ID)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: userDetailData{User: u, Transactions: transactions}})
}

type listRequest struct {
	PageID   int32 `form:"page_id" binding:"required,min=1"`
	PageSize int32 `form:"page_size" binding:"required,min=1,max=100"`
}

// List handles http request to list users page by page.
func (h *Handler) List(gctx *gin.Context) {
	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		badRequest(gctx, err)
		return
	}

	users, err := h.service.List(gctx.Request.Context(), req.PageID, req.PageSize)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: usersData{users}})
}

type updateRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Phone    *string `json:"phone" binding:"omitempty,max=32"`
	Password *string `json:"password" binding:"omitempty,min=6"`
	RoleID   *int32  `json:"role_id" binding:"omitempty,min=1"`
}

// Update handles http request to change user data. The balance is not editable.
func (h *Handler) Update(gctx *gin.Context) {
	var uri uriRequest
	if err := gctx.ShouldBindUri(&uri); err != nil {
		badRequest(gctx, err)
		return
	}

	var req updateRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		badRequest(gctx, err)
		return
	}

	u, err := h.service.Update(gctx.Request.Context(), domain.ChangeUserParams{
		ID:       uri.ID,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		RoleID:   req.RoleID,
	})
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: userData{u}})
}

// Delete handles http request to delete a user together with its transactions.
func (h *Handler) Delete(gctx *gin.Context) {
	var req uriRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		badRequest(gctx, err)
		return
	}

	if err := h.service.Delete(gctx.Request.Context(), req.ID); err != nil {
		writeError(gctx, err)
		return
	}

	gctx.Status(http.StatusNoContent)
}

// Audit handles http request to check a user's balance against its transactions.
func (h *Handler) Audit(gctx *gin.Context) {
	var req uriRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		badRequest(gctx, err)
		return
	}

	report, err := h.ledger.Audit(gctx.Request.Context(), req.ID)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: auditData{report}})
}
