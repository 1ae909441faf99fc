package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/SscSPs/wallet_ledger/internal/adapters/settlement"
	"github.com/SscSPs/wallet_ledger/internal/apperrors"
	"github.com/SscSPs/wallet_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/wallet_ledger/internal/core/ports/services"
	"github.com/SscSPs/wallet_ledger/internal/core/services"
	"github.com/SscSPs/wallet_ledger/internal/dto"
	"github.com/SscSPs/wallet_ledger/internal/platform/config"
	"github.com/SscSPs/wallet_ledger/internal/platform/vault"
	"github.com/SscSPs/wallet_ledger/internal/repositories/memory"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type LedgerHandlerTestSuite struct {
	suite.Suite
	router            *gin.Engine
	mockLedgerService *MockLedgerService
}

func (suite *LedgerHandlerTestSuite) SetupTest() {
	suite.mockLedgerService = new(MockLedgerService)
	suite.router = newRouter(&config.Config{IsProduction: true}, &portssvc.ServiceContainer{
		Account: new(MockAccountService),
		Ledger:  suite.mockLedgerService,
	})
}

func TestLedgerHandler(t *testing.T) {
	suite.Run(t, new(LedgerHandlerTestSuite))
}

func completedEntry(entryType domain.EntryType, amount string) *domain.LedgerEntry {
	e := domain.NewLedgerEntry("e1", "acc", decimal.RequireFromString(amount), entryType)
	e.Complete("simulated_hash_e1")
	return e
}

func (suite *LedgerHandlerTestSuite) TestDeposit_Success() {
	amount := decimal.RequireFromString("100.5")
	suite.mockLedgerService.On("Deposit", mock.Anything, "acc", mock.MatchedBy(amount.Equal)).
		Return(completedEntry(domain.EntryTypeDeposit, "100.5"), nil).Once()

	w := serve(suite.router, http.MethodPost, "/api/v1/transactions/deposit", `{"accountID":"acc","amount":"100.5"}`)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.TransactionResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("100.50000000", resp.Amount)
	suite.Equal("deposit", resp.Type)
	suite.Equal("completed", resp.Status)
	suite.Require().NotNil(resp.SettlementRef)
	suite.Equal("simulated_hash_e1", *resp.SettlementRef)
	suite.mockLedgerService.AssertExpectations(suite.T())
}

func (suite *LedgerHandlerTestSuite) TestDeposit_NumericAmount() {
	suite.mockLedgerService.On("Deposit", mock.Anything, "acc", mock.MatchedBy(decimal.NewFromInt(7).Equal)).
		Return(completedEntry(domain.EntryTypeDeposit, "7"), nil).Once()

	w := serve(suite.router, http.MethodPost, "/api/v1/transactions/deposit", `{"accountID":"acc","amount":7}`)

	suite.Equal(http.StatusCreated, w.Code)
	suite.mockLedgerService.AssertExpectations(suite.T())
}

func (suite *LedgerHandlerTestSuite) TestDeposit_MissingAccountID() {
	w := serve(suite.router, http.MethodPost, "/api/v1/transactions/deposit", `{"amount":"1"}`)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("accountID is required", decodeError(w).Fields["accountID"])
	suite.mockLedgerService.AssertNotCalled(suite.T(), "Deposit", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerHandlerTestSuite) TestDeposit_InvalidAmountFromService() {
	suite.mockLedgerService.On("Deposit", mock.Anything, "acc", mock.Anything).
		Return(nil, apperrors.NewFieldError(apperrors.ErrValidation, "amount", "amount must be greater than zero")).Once()

	w := serve(suite.router, http.MethodPost, "/api/v1/transactions/deposit", `{"accountID":"acc","amount":"-5"}`)

	suite.Equal(http.StatusBadRequest, w.Code)
	resp := decodeError(w)
	suite.Equal(apperrors.ErrValidation.Error(), resp.Error)
	suite.Equal("amount must be greater than zero", resp.Fields["amount"])
}

func (suite *LedgerHandlerTestSuite) TestWithdraw_InsufficientFunds() {
	suite.mockLedgerService.On("Withdraw", mock.Anything, "acc", mock.Anything).
		Return(nil, apperrors.NewFieldError(apperrors.ErrValidation, "amount", "insufficient funds")).Once()

	w := serve(suite.router, http.MethodPost, "/api/v1/transactions/withdraw", `{"accountID":"acc","amount":"50"}`)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("insufficient funds", decodeError(w).Fields["amount"])
}

func (suite *LedgerHandlerTestSuite) TestWithdraw_SettlementFailureHidesCause() {
	failed := domain.NewLedgerEntry("e1", "acc", decimal.NewFromInt(5), domain.EntryTypeWithdrawal)
	failed.Rollback()
	suite.mockLedgerService.On("Withdraw", mock.Anything, "acc", mock.Anything).
		Return(failed, apperrors.NewAppError(http.StatusInternalServerError, "settlement failed", errors.New("node unreachable at 10.0.0.7"))).Once()

	w := serve(suite.router, http.MethodPost, "/api/v1/transactions/withdraw", `{"accountID":"acc","amount":"5"}`)

	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.Equal("Failed to record withdrawal", decodeError(w).Error)
	suite.NotContains(w.Body.String(), "10.0.0.7")
}

func (suite *LedgerHandlerTestSuite) TestGetTransaction_NotFound() {
	suite.mockLedgerService.On("GetTransaction", mock.Anything, "nope").
		Return(nil, apperrors.NewFieldError(apperrors.ErrNotFound, "transactionID", "transaction not found")).Once()

	w := serve(suite.router, http.MethodGet, "/api/v1/transactions/nope", "")

	suite.Equal(http.StatusNotFound, w.Code)
	suite.Contains(decodeError(w).Fields, "transactionID")
}

func (suite *LedgerHandlerTestSuite) TestListTransactions_PassesToken() {
	next := "tok-2"
	suite.mockLedgerService.On("ListTransactions", mock.Anything, mock.MatchedBy(func(p dto.ListTransactionsParams) bool {
		return p.Limit == 5 && p.NextToken != nil && *p.NextToken == "tok-1"
	})).Return(&dto.ListTransactionsResponse{Transactions: []dto.TransactionResponse{}, NextToken: &next}, nil).Once()

	w := serve(suite.router, http.MethodGet, "/api/v1/transactions?limit=5&nextToken=tok-1", "")

	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"transactions":[],"nextToken":"tok-2"}`, w.Body.String())
	suite.mockLedgerService.AssertExpectations(suite.T())
}

func (suite *LedgerHandlerTestSuite) TestListTransactions_LimitTooLarge() {
	w := serve(suite.router, http.MethodGet, "/api/v1/transactions?limit=500", "")

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("limit must be at most 100", decodeError(w).Fields["limit"])
}

// --- End to end over the in-memory store ---

func newLiveRouter(t *testing.T) *gin.Engine {
	t.Helper()
	key, err := vault.GenerateKey()
	require.NoError(t, err)
	v, err := vault.New(key)
	require.NoError(t, err)

	repos := memory.NewRepositoryProvider(memory.NewStore())
	container := services.NewServiceContainer(repos, v, settlement.NewSimulated(0))
	return newRouter(&config.Config{IsProduction: true}, container)
}

func TestLedgerRoutes_EndToEnd(t *testing.T) {
	r := newLiveRouter(t)

	w := serve(r, http.MethodPost, "/api/v1/accounts", `{"publicAddress":"0xfeed"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created dto.CreateAccountResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Len(t, created.Secret, 64)

	w = serve(r, http.MethodPost, "/api/v1/transactions/deposit", `{"accountID":"`+created.ID+`","amount":"100"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = serve(r, http.MethodPost, "/api/v1/transactions/withdraw", `{"accountID":"`+created.ID+`","amount":"30.5"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = serve(r, http.MethodPost, "/api/v1/transactions/withdraw", `{"accountID":"`+created.ID+`","amount":"70"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "insufficient funds", decodeError(w).Fields["amount"])

	for _, amount := range []string{`"1e-20000000"`, `1e20000000`} {
		w = serve(r, http.MethodPost, "/api/v1/transactions/deposit", `{"accountID":"`+created.ID+`","amount":`+amount+`}`)
		require.Equal(t, http.StatusBadRequest, w.Code, amount)
		assert.Contains(t, decodeError(w).Fields, "amount")
	}

	w = serve(r, http.MethodGet, "/api/v1/accounts/"+created.ID+"/balance", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"accountID":"`+created.ID+`","balance":"69.50000000"}`, w.Body.String())

	w = serve(r, http.MethodGet, "/api/v1/accounts/"+created.ID+"/transactions", "")
	require.Equal(t, http.StatusOK, w.Code)
	var history dto.AccountTransactionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history.Transactions, 2)
	assert.Equal(t, "withdrawal", history.Transactions[0].Type)
	assert.Equal(t, "deposit", history.Transactions[1].Type)

	w = serve(r, http.MethodDelete, "/api/v1/accounts/"+created.ID, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = serve(r, http.MethodPost, "/api/v1/transactions/deposit", `{"accountID":"00000000-0000-0000-0000-000000000000","amount":"1"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decodeError(w).Fields, "accountID")
}
