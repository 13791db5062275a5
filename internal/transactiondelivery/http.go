// Package transactiondelivery manages delivery layer of ledger transactions.
package transactiondelivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-finance/internal/domain"
	"github.com/go-petr/pet-finance/internal/middleware"
	"github.com/go-petr/pet-finance/pkg/errorspkg"
	"github.com/go-petr/pet-finance/pkg/web"
)

// DateLayout is the format of transaction dates in requests.
const DateLayout = "2006-01-02"

// Service provides service layer interface needed by transaction delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package transactiondelivery
type Service interface {
	Create(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error)
	Update(ctx context.Context, arg domain.UpdateTransactionParams) (domain.Transaction, error)
	Delete(ctx context.Context, id int64, userID int32) (domain.Transaction, error)
	Get(ctx context.Context, id int64, userID int32) (domain.Transaction, error)
	List(ctx context.Context, userID int32) ([]domain.Transaction, error)
}

// Handler facilitates transaction delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns transaction handler.
func NewHandler(ts Service) *Handler {
	return &Handler{service: ts}
}

type transactionData struct {
	Transaction domain.Transaction `json:"transaction"`
}

type transactionsData struct {
	Transactions []domain.Transaction `json:"transactions"`
}

func writeError(gctx *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidTransactionType):
		gctx.JSON(http.StatusBadRequest, web.Error(err))
	case errors.Is(err, domain.ErrTransactionNotFound), errors.Is(err, domain.ErrAccountNotFound):
		gctx.JSON(http.StatusNotFound, web.Error(err))
	case errors.Is(err, domain.ErrInsufficientFunds):
		gctx.JSON(http.StatusUnprocessableEntity, web.Error(err))
	case errors.Is(err, domain.ErrConflict):
		gctx.JSON(http.StatusConflict, web.Error(err))
	default:
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
	}
}

func badRequest(gctx *gin.Context, err error) {
	zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
	gctx.JSON(http.StatusBadRequest, web.Response{Error: web.GetErrorMsg(err)})
}

type createRequest struct {
	UserID  int32       `json:"user_id" binding:"omitempty,min=1"`
	Concept string      `json:"concept" binding:"required,max=255"`
	Amount  json.Number `json:"amount" binding:"required,amount"`
	Date    string      `json:"date" binding:"required,datetime=2006-01-02"`
	Type    string      `json:"transaction_type" binding:"required,transaction_type"`
}

// Create handles http request to record a transaction of the authenticated
// user. Administrators may record it for another user.
func (h *Handler) Create(gctx *gin.Context) {
	var req createRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		badRequest(gctx, err)
		return
	}

	payload := middleware.Payload(gctx)

	userID := payload.UserID
	if req.UserID != 0 && req.UserID != payload.UserID {
		if payload.Role != domain.RoleAdmin {
			zerolog.Ctx(gctx.Request.Context()).Info().Err(middleware.ErrForbidden).Send()
			gctx.JSON(http.StatusForbidden, web.Error(middleware.ErrForbidden))

			return
		}

		userID = req.UserID
	}

	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil {
		badRequest(gctx, err)
		return
	}

	date, err := time.Parse(DateLayout, req.Date)
	if err != nil {
		badRequest(gctx, err)
		return
	}

	t, err := h.service.Create(gctx.Request.Context(), domain.CreateTransactionParams{
		UserID:  userID,
		Concept: req.Concept,
		Amount:  amount,
		Type:    domain.TransactionType(req.Type),
		Date:    date,
	})
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, web.Response{Data: transactionData{t}})
}

type uriRequest struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

type updateRequest struct {
	Concept *string      `json:"concept" binding:"omitempty,min=1,max=255"`
	Amount  *json.Number `json:"amount" binding:"omitempty,amount"`
	Date    *string      `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Type    *string      `json:"transaction_type" binding:"omitempty,transaction_type"`
}

// Update handles http request to change a transaction of the authenticated user.
// Absent fields keep their value.
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

	arg := domain.UpdateTransactionParams{
		ID:      uri.ID,
		UserID:  middleware.Payload(gctx).UserID,
		Concept: req.Concept,
	}

	if req.Amount != nil {
		amount, err := decimal.NewFromString(req.Amount.String())
		if err != nil {
			badRequest(gctx, err)
			return
		}

		arg.Amount = &amount
	}

	if req.Date != nil {
		date, err := time.Parse(DateLayout, *req.Date)
		if err != nil {
			badRequest(gctx, err)
			return
		}

		arg.Date = &date
	}

	if req.Type != nil {
		t := domain.TransactionType(*req.Type)
		arg.Type = &t
	}

	t, err := h.service.Update(gctx.Request.Context(), arg)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: transactionData{t}})
}

// Delete handles http request to delete a transaction of the authenticated user.
func (h *Handler) Delete(gctx *gin.Context) {
	var req uriRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		badRequest(gctx, err)
		return
	}

	t, err := h.service.Delete(gctx.Request.Context(), req.ID, middleware.Payload(gctx).UserID)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: transactionData{t}})
}

// Get handles http request to get a transaction of the authenticated user.
func (h *Handler) Get(gctx *gin.Context) {
	var req uriRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		badRequest(gctx, err)
		return
	}

	t, err := h.service.Get(gctx.Request.Context(), req.ID, middleware.Payload(gctx).UserID)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: transactionData{t}})
}

// List handles http request to list the transactions of the authenticated user.
func (h *Handler) List(gctx *gin.Context) {
	transactions, err := h.service.List(gctx.Request.Context(), middleware.Payload(gctx).UserID)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: transactionsData{transactions}})
}
