package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"transfer-ledger-service/internal/domain"
	"transfer-ledger-service/pkg/masking"
)

// LedgerRepository は台帳エントリのデータアクセスのインターフェース。
// InTransactionに渡した関数内でのみ書き込みを行うこと。関数がエラーを
// 返した場合、トランザクション内の全書き込みはロールバックされる。
type LedgerRepository interface {
	ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error)
	SaveAll(ctx context.Context, entries []*domain.LedgerEntry) error
	InTransaction(ctx context.Context, fn func(repo LedgerRepository) error) error
}

// AccountEncryptor は口座番号の保存時暗号化のインターフェース。
type AccountEncryptor interface {
	StorageEncrypt(account string) (string, error)
}

// TransferService は振替の記帳ロジックを提供する。
// 1件の振替は借方・貸方の2エントリとして原子的に記帳される。
type TransferService struct {
	repo      LedgerRepository
	encryptor AccountEncryptor
}

// NewTransferService は新しいTransferServiceを生成する。
func NewTransferService(repo LedgerRepository, encryptor AccountEncryptor) *TransferService {
	return &TransferService{
		repo:      repo,
		encryptor: encryptor,
	}
}

// ProcessTransfer は振替指示を検証し、台帳に借方・貸方の2エントリを記帳する。
//
// 重複チェックと2件のINSERTは1つのトランザクション内で実行する。
// 同一transactionIdの再送は記帳されずErrDuplicateTransactionになるため、
// 呼び出し元は同じ指示を安全に再送できる。
func (s *TransferService) ProcessTransfer(ctx context.Context, instr *domain.TransferInstruction) error {
	slog.InfoContext(ctx, "processing transfer",
		"transaction_id", masking.TransactionID(instr.TransactionID),
		"from_account", masking.Account(instr.FromAccount),
		"to_account", masking.Account(instr.ToAccount),
		"amount", masking.Amount(instr.Amount.String()),
		"time", masking.Time(instr.OccurredAt.String()),
	)

	if err := validateInstruction(instr); err != nil {
		return err
	}

	err := s.repo.InTransaction(ctx, func(repo LedgerRepository) error {
		exists, err := repo.ExistsByTransactionID(ctx, instr.TransactionID)
		if err != nil {
			return fmt.Errorf("%w: checking duplicate: %s", domain.ErrStorageFailure, masking.SensitiveData(err.Error()))
		}
		if exists {
			slog.WarnContext(ctx, "duplicate transaction ID detected",
				"transaction_id", masking.TransactionID(instr.TransactionID))
			return domain.ErrDuplicateTransaction
		}

		// 業務ルール検証（残高・口座状態の確認）は未実装のプレースホルダ
		s.validateBusinessRules(ctx, instr)

		entries, err := s.buildEntryPair(ctx, instr)
		if err != nil {
			return err
		}
		if err := repo.SaveAll(ctx, entries); err != nil {
			if errors.Is(err, domain.ErrDuplicateTransaction) {
				return err
			}
			return fmt.Errorf("%w: saving ledger entries: %s", domain.ErrStorageFailure, masking.SensitiveData(err.Error()))
		}
		return nil
	})
	if err != nil {
		if isLedgerError(err) {
			return err
		}
		// 予期しないエラーはメッセージを機密スクラブしてStorageFailureに包む
		return fmt.Errorf("%w: %s", domain.ErrStorageFailure, masking.SensitiveData(err.Error()))
	}

	slog.InfoContext(ctx, "transfer processed",
		"transaction_id", masking.TransactionID(instr.TransactionID))
	return nil
}

// buildEntryPair は振替指示から借方・貸方のエントリ対を構築する。
// 口座番号はエントリ構築時に保存時暗号化される。どちらか一方でも
// 暗号化に失敗した場合は対全体を中断する。
func (s *TransferService) buildEntryPair(ctx context.Context, instr *domain.TransferInstruction) ([]*domain.LedgerEntry, error) {
	fromEncrypted, err := s.encryptor.StorageEncrypt(instr.FromAccount)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt account for debit entry",
			"transaction_id", masking.TransactionID(instr.TransactionID),
			"account", masking.Account(instr.FromAccount),
		)
		return nil, fmt.Errorf("%w: debit entry: %v", domain.ErrEncryptionFailure, err)
	}
	toEncrypted, err := s.encryptor.StorageEncrypt(instr.ToAccount)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt account for credit entry",
			"transaction_id", masking.TransactionID(instr.TransactionID),
			"account", masking.Account(instr.ToAccount),
		)
		return nil, fmt.Errorf("%w: credit entry: %v", domain.ErrEncryptionFailure, err)
	}

	return []*domain.LedgerEntry{
		domain.NewDebitEntry(instr, fromEncrypted),
		domain.NewCreditEntry(instr, toEncrypted),
	}, nil
}

// validateInstruction は復号済みの振替指示を検証する。
func validateInstruction(instr *domain.TransferInstruction) error {
	switch {
	case instr.TransactionID == "":
		return fmt.Errorf("%w: transactionId", domain.ErrMissingField)
	case instr.FromAccount == "":
		return fmt.Errorf("%w: fromAccount", domain.ErrMissingField)
	case instr.ToAccount == "":
		return fmt.Errorf("%w: toAccount", domain.ErrMissingField)
	case instr.OccurredAt.IsZero():
		return fmt.Errorf("%w: time", domain.ErrMissingField)
	case instr.FromAccount == instr.ToAccount:
		return domain.ErrSameAccount
	case !instr.Amount.IsPositive():
		return domain.ErrInvalidAmount
	}
	return nil
}

// validateBusinessRules は残高・口座存在などの業務ルールを検証する。
// TODO: 口座サービス接続後に残高・口座状態の確認を実装する
func (s *TransferService) validateBusinessRules(ctx context.Context, instr *domain.TransferInstruction) {
	slog.DebugContext(ctx, "validating business rules",
		"from_account", masking.Account(instr.FromAccount),
		"to_account", masking.Account(instr.ToAccount),
		"amount", masking.Amount(instr.Amount.String()),
	)
}

// isLedgerError は台帳エラー種別のいずれかに該当するかを返す。
func isLedgerError(err error) bool {
	for _, kind := range []error{
		domain.ErrDuplicateTransaction,
		domain.ErrSameAccount,
		domain.ErrInvalidAmount,
		domain.ErrMissingField,
		domain.ErrEncryptionFailure,
		domain.ErrStorageFailure,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
