// Package ledgerdelivery manages the delivery layer of the balance ledger.
package ledgerdelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/pocket-bank/internal/domain"
	"github.com/go-petr/pocket-bank/internal/middleware"
	"github.com/go-petr/pocket-bank/pkg/errorspkg"
	"github.com/go-petr/pocket-bank/pkg/tokenpkg"
	"github.com/go-petr/pocket-bank/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Service provides service layer interface needed by ledger delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package ledgerdelivery
type Service interface {
	Deposit(ctx context.Context, owner, amount string) (domain.TxResult, error)
	Withdraw(ctx context.Context, owner, amount string) (domain.TxResult, error)
	GetBalance(ctx context.Context, owner string) (string, error)
	ListTransactions(ctx context.Context, owner string, limit int32) ([]domain.Transaction, error)
}

// Handler facilitates ledger delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns ledger handler.
func NewHandler(ls Service) *Handler {
	return &Handler{service: ls}
}

type txData struct {
	Balance     string             `json:"balance"`
	Transaction domain.Transaction `json:"transaction"`
}

type amountRequest struct {
	Amount string `json:"amount" binding:"required"`
}

func owner(gctx *gin.Context) string {
	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)
	return authPayload.Username
}

func bindAmount(gctx *gin.Context) (string, bool) {
	l := zerolog.Ctx(gctx.Request.Context())

	var req amountRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()

		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			gctx.JSON(http.StatusBadRequest, web.Response{Error: web.GetErrorMsg(ve)})
			return "", false
		}

		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return "", false
	}

	return req.Amount, true
}

func txErrorStatus(err error) int {
	switch err {
	case domain.ErrInvalidAmount, domain.ErrInsufficientBalance:
		return http.StatusBadRequest
	case domain.ErrAccountNotFound:
		return http.StatusNotFound
	}

	return http.StatusInternalServerError
}

// Deposit handles http request to deposit money to the user's account.
func (h *Handler) Deposit(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	amount, ok := bindAmount(gctx)
	if !ok {
		return
	}

	result, err := h.service.Deposit(ctx, owner(gctx), amount)
	if err != nil {
		status := txErrorStatus(err)
		if status == http.StatusInternalServerError {
			err = errorspkg.ErrInternal
		}

		gctx.JSON(status, web.Error(err))

		return
	}

	res := web.Response{
		Data: txData{
			Balance:     result.Account.Balance,
			Transaction: result.Transaction,
		},
	}

	gctx.JSON(http.StatusOK, res)
}

// Withdraw handles http request to withdraw money from the user's account.
func (h *Handler) Withdraw(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	amount, ok := bindAmount(gctx)
	if !ok {
		return
	}

	result, err := h.service.Withdraw(ctx, owner(gctx), amount)
	if err != nil {
		status := txErrorStatus(err)
		if status == http.StatusInternalServerError {
			err = errorspkg.ErrInternal
		}

		gctx.JSON(status, web.Error(err))

		return
	}

	res := web.Response{
		Data: txData{
			Balance:     result.Account.Balance,
			Transaction: result.Transaction,
		},
	}

	gctx.JSON(http.StatusOK, res)
}

type balanceData struct {
	Balance string `json:"balance"`
}

// GetBalance handles http request to get the user's current balance.
func (h *Handler) GetBalance(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	balance, err := h.service.GetBalance(ctx, owner(gctx))
	if err != nil {
		if err == domain.ErrAccountNotFound {
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: balanceData{Balance: balance}})
}

type listRequest struct {
	Limit int32 `form:"limit" binding:"omitempty,min=1,max=100"`
}

type transactionsData struct {
	Transactions []domain.Transaction `json:"transactions"`
}

// ListTransactions handles http request to list the user's most recent
// transactions, newest first.
func (h *Handler) ListTransactions(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		l.Info().Err(err).Send()

		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			gctx.JSON(http.StatusBadRequest, web.Response{Error: web.GetErrorMsg(ve)})
			return
		}

		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	transactions, err := h.service.ListTransactions(ctx, owner(gctx), req.Limit)
	if err != nil {
		if err == domain.ErrAccountNotFound {
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: transactionsData{Transactions: transactions}})
}
