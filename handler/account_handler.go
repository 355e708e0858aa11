package handler

import (
	"encoding/json"
	"errors"
	"go-ledger-api/common"
	"go-ledger-api/logger"
	"go-ledger-api/model"
	"go-ledger-api/repository"
	"go-ledger-api/service"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type AccountHandler struct {
	service *service.AccountService
}

func NewAccountHandler(service *service.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

// CreateAccount godoc
// @Summary      Open a new ledger account
// @Description  Creates a zero-balance account under the caller-supplied UUID
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request  body  model.CreateAccountRequest  true  "Account to create"
// @Success      201  {object}  map[string]string
// @Failure      409  {object}  common.AppError
// @Security     BearerAuth
// @Router       /accounts [post]
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.CreateAccountRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	accountID, err := uuid.Parse(req.ID)
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid account id", err)
	}
	currency, err := model.ParseCurrency(req.Currency)
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid currency", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"account_id": accountID,
		"currency":   currency,
	}).Info("Create account request received")

	createdID, err := h.service.CreateAccount(r.Context(), accountID, currency)
	if err != nil {
		return accountError(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"id": createdID.String()})

	return nil
}

// GetAccount godoc
// @Summary      Get an account
// @Description  Returns an account's currency and current balance
// @Tags         accounts
// @Produce      json
// @Param        id   path  string  true  "Account UUID"
// @Success      200  {object}  model.Account
// @Failure      404  {object}  common.AppError
// @Security     BearerAuth
// @Router       /accounts/{id} [get]
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	accountID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid account id", err)
	}

	account, err := h.service.GetAccount(r.Context(), accountID)
	if err != nil {
		return accountError(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(account)

	return nil
}

// Deposit godoc
// @Summary      Deposit funds
// @Description  Credits the account and returns the new balance
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        id       path  string               true  "Account UUID"
// @Param        request  body  model.DepositRequest true  "Amount in minor units"
// @Success      200  {object}  model.Money
// @Failure      404  {object}  common.AppError
// @Failure      422  {object}  common.AppError
// @Security     BearerAuth
// @Router       /accounts/{id}/deposit [post]
func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) *common.AppError {
	accountID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid account id", err)
	}

	var req model.DepositRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}
	currency, err := model.ParseCurrency(req.Currency)
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid currency", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"account_id": accountID,
		"amount":     req.Amount,
		"currency":   currency,
	}).Info("Deposit request received")

	balance, err := h.service.DepositAccount(r.Context(), accountID, model.NewMoney(req.Amount, currency))
	if err != nil {
		return accountError(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(balance)

	return nil
}

// Transfer godoc
// @Summary      Transfer funds between accounts
// @Description  Debits the source account (amount plus 0.5% commission) and credits the destination
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        id       path  string                true  "Source account UUID"
// @Param        request  body  model.TransferRequest true  "Transfer details"
// @Success      204  "No Content"
// @Failure      404  {object}  common.AppError
// @Failure      422  {object}  common.AppError
// @Security     BearerAuth
// @Router       /accounts/{id}/transfer [post]
func (h *AccountHandler) Transfer(w http.ResponseWriter, r *http.Request) *common.AppError {
	sourceID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid source account id", err)
	}

	var req model.TransferRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}
	destinationID, err := uuid.Parse(req.ToAccountID)
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid destination account id", err)
	}
	currency, err := model.ParseCurrency(req.Currency)
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid currency", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"source_account_id":      sourceID,
		"destination_account_id": destinationID,
		"amount":                 req.Amount,
	}).Info("Transfer request received")

	err = h.service.MoneyTransfer(r.Context(), sourceID, destinationID, model.NewMoney(req.Amount, currency))
	if err != nil {
		return accountError(err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// accountError translates service and domain failures into HTTP responses.
// Domain-rule rejections are 422: the request was well-formed, the ledger
// refused it.
func accountError(err error) *common.AppError {
	switch {
	case errors.Is(err, repository.ErrAccountNotFound):
		return common.NewAppError(http.StatusNotFound, "Account not found", err)
	case errors.Is(err, service.ErrCannotCreateAccount):
		return common.NewAppError(http.StatusConflict, "Account id already taken", err)
	case errors.Is(err, service.ErrSameAccountTransfer):
		return common.NewAppError(http.StatusUnprocessableEntity, "Cannot transfer to the same account", err)
	case errors.Is(err, model.ErrInvalidCurrency):
		return common.NewAppError(http.StatusUnprocessableEntity, "Currency mismatch", err)
	case errors.Is(err, model.ErrInsufficientBalance):
		return common.NewAppError(http.StatusUnprocessableEntity, "Insufficient balance", err)
	case errors.Is(err, model.ErrDailyTransactionLimitAchieved):
		return common.NewAppError(http.StatusUnprocessableEntity, "Daily transaction limit achieved", err)
	default:
		return common.NewAppError(http.StatusInternalServerError, "Internal server error", err)
	}
}
