package userrepo

import (
	"context"
	"database/sql"
	"log"
	"os"
	"testing"

	"github.com/go-petr/pocket-bank/internal/domain"
	"github.com/go-petr/pocket-bank/internal/ledgerrepo"
	"github.com/go-petr/pocket-bank/pkg/configpkg"
	"github.com/go-petr/pocket-bank/pkg/passpkg"
	"github.com/go-petr/pocket-bank/pkg/randompkg"
	"github.com/stretchr/testify/require"
)

var (
	testRepo       *RepoPGS
	testLedgerRepo *ledgerrepo.RepoPGS
)

func TestMain(m *testing.M) {
	config, err := configpkg.Load("../../configs")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	testDB, err := sql.Open(config.DBDriver, config.DBSource)
	if err != nil {
		log.Fatal("cannot connect to db:", err)
	}

	testRepo = NewRepoPGS(testDB)
	testLedgerRepo = ledgerrepo.NewRepoPGS(testDB)

	os.Exit(m.Run())
}

func randomCreateUserParams(t *testing.T) domain.CreateUserParams {
	t.Helper()

	hashedPassword, err := passpkg.Hash(randompkg.String(10))
	require.NoError(t, err)

	return domain.CreateUserParams{
		Username:       randompkg.Owner(),
		HashedPassword: hashedPassword,
		Email:          randompkg.Email(),
		Phone:          randompkg.Phone(),
	}
}

func createRandomUser(t *testing.T) domain.User {
	t.Helper()

	arg := randomCreateUserParams(t)

	testUser, err := testRepo.Create(context.Background(), arg)
	require.NoError(t, err)
	require.NotEmpty(t, testUser)

	require.Equal(t, arg.Username, testUser.Username)
	require.Equal(t, arg.HashedPassword, testUser.HashedPassword)
	require.Equal(t, arg.Email, testUser.Email)
	require.Equal(t, arg.Phone, testUser.Phone)
	require.NotZero(t, testUser.CreatedAt)

	return testUser
}

func TestCreate(t *testing.T) {
	testUser := createRandomUser(t)

	// Registration also opens the zero balance account.
	balance, err := testLedgerRepo.GetBalance(context.Background(), testUser.Username)
	require.NoError(t, err)
	require.Equal(t, "0.00", balance)
}

func TestCreateConstraintViolations(t *testing.T) {
	testUser := createRandomUser(t)

	testCases := []struct {
		name      string
		arg       func() domain.CreateUserParams
		wantError error
	}{
		{
			name: "ErrUsernameAlreadyExists",
			arg: func() domain.CreateUserParams {
				arg := randomCreateUserParams(t)
				arg.Username = testUser.Username

				return arg
			},
			wantError: domain.ErrUsernameAlreadyExists,
		},
		{
			name: "ErrEmailAlreadyExists",
			arg: func() domain.CreateUserParams {
				arg := randomCreateUserParams(t)
				arg.Email = testUser.Email

				return arg
			},
			wantError: domain.ErrEmailAlreadyExists,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			got, err := testRepo.Create(context.Background(), tc.arg())
			require.EqualError(t, err, tc.wantError.Error())
			require.Empty(t, got)
		})
	}
}

func TestGet(t *testing.T) {
	testUser := createRandomUser(t)

	got, err := testRepo.Get(context.Background(), testUser.Username)
	require.NoError(t, err)

	require.Equal(t, testUser.Username, got.Username)
	require.Equal(t, testUser.HashedPassword, got.HashedPassword)
	require.Equal(t, testUser.Email, got.Email)
	require.Equal(t, testUser.Phone, got.Phone)
}

func TestGetNotFound(t *testing.T) {
	got, err := testRepo.Get(context.Background(), "NotFound")
	require.EqualError(t, err, domain.ErrUserNotFound.Error())
	require.Empty(t, got)
}
