package domain

import (
	"errors"
	"time"
)

var (
	// ErrInvalidAmount indicates a malformed, non-positive or over-ceiling amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInsufficientBalance indicates that the account does not have sufficient balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// TxType enumerates the kinds of balance mutations.
type TxType string

// Transaction types.
const (
	TxTypeDeposit  TxType = "deposit"
	TxTypeWithdraw TxType = "withdraw"
)

// Transaction is an immutable record of one balance mutation.
// BalanceAfter snapshots the account balance right after the mutation
// and the newest transaction of an account always matches its balance.
type Transaction struct {
	ID           int64     `json:"id"`
	Owner        string    `json:"owner"`
	Type         TxType    `json:"type"`
	Amount       string    `json:"amount"`
	BalanceAfter string    `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}

// TxResult is the outcome of a committed deposit or withdrawal.
type TxResult struct {
	Account     Account     `json:"account"`
	Transaction Transaction `json:"transaction"`
}
