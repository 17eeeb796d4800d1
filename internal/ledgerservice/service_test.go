package ledgerservice

import (
	"context"
	"testing"
	"time"

	"github.com/go-petr/pocket-bank/internal/domain"
	"github.com/go-petr/pocket-bank/pkg/configpkg"
	"github.com/go-petr/pocket-bank/pkg/errorspkg"
	"github.com/go-petr/pocket-bank/pkg/randompkg"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

var config = configpkg.Config{
	DepositCeiling: "1000000",
}

func testTxResult(owner string, txType domain.TxType, amount, balanceAfter string) domain.TxResult {
	return domain.TxResult{
		Account: domain.Account{
			ID:        1,
			Owner:     owner,
			Balance:   balanceAfter,
			CreatedAt: time.Now().Truncate(time.Second).UTC(),
		},
		Transaction: domain.Transaction{
			ID:           1,
			Owner:        owner,
			Type:         txType,
			Amount:       amount,
			BalanceAfter: balanceAfter,
			CreatedAt:    time.Now().Truncate(time.Second).UTC(),
		},
	}
}

func TestDeposit(t *testing.T) {
	owner := randompkg.Owner()
	txResult := testTxResult(owner, domain.TxTypeDeposit, "100.00", "100.00")

	testCases := []struct {
		name          string
		amount        string
		buildStubs    func(repo *MockRepo, publisher *MockPublisher)
		checkResponse func(res domain.TxResult, err error)
	}{
		{
			name:   "OK",
			amount: "100.00",
			buildStubs: func(repo *MockRepo, publisher *MockPublisher) {
				repo.EXPECT().
					Execute(gomock.Any(), gomock.Eq(owner), gomock.Eq(domain.TxTypeDeposit), gomock.Eq("100.00")).
					Times(1).
					Return(txResult, nil)
				publisher.EXPECT().
					Publish(gomock.Any(), gomock.Eq(txResult.Transaction)).
					Times(1).
					Return(nil)
			},
			checkResponse: func(res domain.TxResult, err error) {
				require.NoError(t, err)
				require.Equal(t, txResult, res)
			},
		},
		{
			name:   "MalformedAmount",
			amount: "!@#$",
			buildStubs: func(repo *MockRepo, publisher *MockPublisher) {
				repo.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.TxResult, err error) {
				require.Empty(t, res)
				require.EqualError(t, err, domain.ErrInvalidAmount.Error())
			},
		},
		{
			name:   "ZeroAmount",
			amount: "0",
			buildStubs: func(repo *MockRepo, publisher *MockPublisher) {
				repo.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.TxResult, err error) {
				require.Empty(t, res)
				require.EqualError(t, err, domain.ErrInvalidAmount.Error())
			},
		},
		{
			name:   "NegativeAmount",
			amount: "-5",
			buildStubs: func(repo *MockRepo, publisher *MockPublisher) {
				repo.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.TxResult, err error) {
				require.Empty(t, res)
				require.EqualError(t, err, domain.ErrInvalidAmount.Error())
			},
		},
		{
			name:   "TooManyFractionalDigits",
			amount: "10.001",
			buildStubs: func(repo *MockRepo, publisher *MockPublisher) {
				repo.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.TxResult, err error) {
				require.Empty(t, res)
				require.EqualError(t, err, domain.ErrInvalidAmount.Error())
			},
		},
		{
			name:   "AboveCeiling",
			amount: "1000001",
			buildStubs: func(repo *MockRepo, publisher *MockPublisher) {
				repo.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.TxResult, err error) {
				require.Empty(t, res)
				require.EqualError(t, err, domain.ErrInvalidAmount.Error())
			},
		},
		{
			name:   "ExactlyAtCeiling",
			amount: "1000000",
			buildStubs: func(repo *MockRepo, publisher *MockPublisher) {
				repo.EXPECT().
					Execute(gomock.Any(), gomock.Eq(owner), gomock.Eq(domain.TxTypeDeposit), gomock.Eq("1000000")).
					Times(1).
					Return(txResult, nil)
				publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(1).Return(nil)
			},
			checkResponse: func(res domain.TxResult, err error) {
				require.NoError(t, err)
			},
		},
		{
			name:   "ErrAccountNotFound",
			amount: "100.00",
			buildStubs: func(repo *MockRepo, publisher *MockPublisher) {
				repo.EXPECT().
					Execute(gomock.Any(), gomock.Eq(owner), gomock.Eq(domain.TxTypeDeposit), gomock.Eq("100.00")).
					Times(1).
					Return(domain.TxResult{}, domain.ErrAccountNotFound)
				publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.TxResult, err error) {
				require.Empty(t, res)
				require.EqualError(t, err, domain.ErrAccountNotFound.Error())
			},
		},
		{
			name:   "PublishErrorDoesNotFailDeposit",
			amount: "100.00",
			buildStubs: func(repo *MockRepo, publisher *MockPublisher) {
				repo.EXPECT().
					Execute(gomock.Any(), gomock.Eq(owner), gomock.Eq(domain.TxTypeDeposit), gomock.Eq("100.00")).
					Times(1).
					Return(txResult, nil)
				publisher.EXPECT().
					Publish(gomock.Any(), gomock.Eq(txResult.Transaction)).
					Times(1).
					Return(errorspkg.ErrInternal)
			},
			checkResponse: func(res domain.TxResult, err error) {
				require.NoError(t, err)
				require.Equal(t, txResult, res)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := NewMockRepo(ctrl)
			publisher := NewMockPublisher(ctrl)
			tc.buildStubs(repo, publisher)

			service, err := New(repo, publisher, config)
			require.NoError(t, err)

			res, err := service.Deposit(context.Background(), owner, tc.amount)

			tc.checkResponse(res, err)
		})
	}
}

func TestWithdraw(t *testing.T) {
	owner := randompkg.Owner()
	txResult := testTxResult(owner, domain.TxTypeWithdraw, "30.00", "70.00")

	testCases := []struct {
		name          string
		amount        string
		buildStubs    func(repo *MockRepo, publisher *MockPublisher)
		checkResponse func(res domain.TxResult, err error)
	}{
		{
			name:   "OK",
			amount: "30.00",
			buildStubs: func(repo *MockRepo, publisher *MockPublisher) {
				repo.EXPECT().
					Execute(gomock.Any(), gomock.Eq(owner), gomock.Eq(domain.TxTypeWithdraw), gomock.Eq("30.00")).
					Times(1).
					Return(txResult, nil)
				publisher.EXPECT().
					Publish(gomock.Any(), gomock.Eq(txResult.Transaction)).
					Times(1).
					Return(nil)
			},
			checkResponse: func(res domain.TxResult, err error) {
				require.NoError(t, err)
				require.Equal(t, txResult, res)
			},
		},
		{
			name:   "MalformedAmount",
			amount: "thirty",
			buildStubs: func(repo *MockRepo, publisher *MockPublisher) {
				repo.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.TxResult, err error) {
				require.Empty(t, res)
				require.EqualError(t, err, domain.ErrInvalidAmount.Error())
			},
		},
		{
			name: "NoCeilingOnWithdrawals",
			// There is deliberately no per-operation ceiling for
			// withdrawals. The balance is the only bound.
			amount: "2000000",
			buildStubs: func(repo *MockRepo, publisher *MockPublisher) {
				repo.EXPECT().
					Execute(gomock.Any(), gomock.Eq(owner), gomock.Eq(domain.TxTypeWithdraw), gomock.Eq("2000000")).
					Times(1).
					Return(domain.TxResult{}, domain.ErrInsufficientBalance)
				publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.TxResult, err error) {
				require.Empty(t, res)
				require.EqualError(t, err, domain.ErrInsufficientBalance.Error())
			},
		},
		{
			name:   "ErrInsufficientBalance",
			amount: "100.01",
			buildStubs: func(repo *MockRepo, publisher *MockPublisher) {
				repo.EXPECT().
					Execute(gomock.Any(), gomock.Eq(owner), gomock.Eq(domain.TxTypeWithdraw), gomock.Eq("100.01")).
					Times(1).
					Return(domain.TxResult{}, domain.ErrInsufficientBalance)
				publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.TxResult, err error) {
				require.Empty(t, res)
				require.EqualError(t, err, domain.ErrInsufficientBalance.Error())
			},
		},
		{
			name:   "ErrInternal",
			amount: "30.00",
			buildStubs: func(repo *MockRepo, publisher *MockPublisher) {
				repo.EXPECT().
					Execute(gomock.Any(), gomock.Eq(owner), gomock.Eq(domain.TxTypeWithdraw), gomock.Eq("30.00")).
					Times(1).
					Return(domain.TxResult{}, errorspkg.ErrInternal)
				publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.TxResult, err error) {
				require.Empty(t, res)
				require.EqualError(t, err, errorspkg.ErrInternal.Error())
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := NewMockRepo(ctrl)
			publisher := NewMockPublisher(ctrl)
			tc.buildStubs(repo, publisher)

			service, err := New(repo, publisher, config)
			require.NoError(t, err)

			res, err := service.Withdraw(context.Background(), owner, tc.amount)

			tc.checkResponse(res, err)
		})
	}
}

func TestGetBalance(t *testing.T) {
	owner := randompkg.Owner()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := NewMockRepo(ctrl)
	publisher := NewMockPublisher(ctrl)

	repo.EXPECT().
		GetBalance(gomock.Any(), gomock.Eq(owner)).
		Times(1).
		Return("70.00", nil)

	service, err := New(repo, publisher, config)
	require.NoError(t, err)

	balance, err := service.GetBalance(context.Background(), owner)
	require.NoError(t, err)
	require.Equal(t, "70.00", balance)
}

func TestListTransactions(t *testing.T) {
	owner := randompkg.Owner()

	testCases := []struct {
		name      string
		limit     int32
		wantLimit int32
	}{
		{name: "ExplicitLimit", limit: 10, wantLimit: 10},
		{name: "DefaultLimit", limit: 0, wantLimit: DefaultTransactionsLimit},
		{name: "NegativeLimit", limit: -1, wantLimit: DefaultTransactionsLimit},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := NewMockRepo(ctrl)
			publisher := NewMockPublisher(ctrl)

			repo.EXPECT().
				ListTransactions(gomock.Any(), gomock.Eq(owner), gomock.Eq(tc.wantLimit)).
				Times(1).
				Return([]domain.Transaction{}, nil)

			service, err := New(repo, publisher, config)
			require.NoError(t, err)

			_, err = service.ListTransactions(context.Background(), owner, tc.limit)
			require.NoError(t, err)
		})
	}
}

func TestNewInvalidCeiling(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	badConfig := configpkg.Config{DepositCeiling: "not-a-number"}

	_, err := New(NewMockRepo(ctrl), NewMockPublisher(ctrl), badConfig)
	require.Error(t, err)
}
