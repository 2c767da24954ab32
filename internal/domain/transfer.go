// Package domain はドメインモデルとビジネスルールを定義する。
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntrySide は台帳エントリの貸借区分を表す。
type EntrySide string

const (
	// EntrySideDebit は借方（振替元口座）のエントリを表す。
	EntrySideDebit EntrySide = "debit"
	// EntrySideCredit は貸方（振替先口座）のエントリを表す。
	EntrySideCredit EntrySide = "credit"
)

// TransferInstruction は復号済みの振替指示を表す。
// リクエストごとに構築され、記帳が完了または失敗した時点で破棄される。
type TransferInstruction struct {
	TransactionID string
	FromAccount   string
	ToAccount     string
	Amount        decimal.Decimal
	OccurredAt    time.Time
}

// LedgerEntry は台帳の1行（借方または貸方）を表す。
// Accountは保存時暗号化済みの値（Base64エンベロープ）。
// エントリは追記専用であり、更新・削除されることはない。
type LedgerEntry struct {
	ID            string
	TransactionID string
	Side          EntrySide
	Account       string
	Debit         decimal.Decimal
	Credit        decimal.Decimal
	OccurredAt    time.Time
	CreatedAt     time.Time
}

// NewDebitEntry は振替指示から借方エントリを構築する。
// encryptedAccountには保存時暗号化済みの振替元口座を渡す。
func NewDebitEntry(instr *TransferInstruction, encryptedAccount string) *LedgerEntry {
	return &LedgerEntry{
		TransactionID: instr.TransactionID,
		Side:          EntrySideDebit,
		Account:       encryptedAccount,
		Debit:         instr.Amount,
		Credit:        decimal.Zero,
		OccurredAt:    instr.OccurredAt,
	}
}

// NewCreditEntry は振替指示から貸方エントリを構築する。
// encryptedAccountには保存時暗号化済みの振替先口座を渡す。
func NewCreditEntry(instr *TransferInstruction, encryptedAccount string) *LedgerEntry {
	return &LedgerEntry{
		TransactionID: instr.TransactionID,
		Side:          EntrySideCredit,
		Account:       encryptedAccount,
		Debit:         decimal.Zero,
		Credit:        instr.Amount,
		OccurredAt:    instr.OccurredAt,
	}
}
