// Package repository はデータアクセス層の実装を提供する。
package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"transfer-ledger-service/internal/domain"
	"transfer-ledger-service/internal/usecase"
)

// LedgerEntryModel はgorm用のモデル定義。
// (transaction_id, entry_side) のユニーク制約は重複記帳の最終防衛線。
// 存在チェックをすり抜けた並行リクエストはここで弾かれる。
type LedgerEntryModel struct {
	ID            string          `gorm:"type:char(36);primaryKey"`
	TransactionID string          `gorm:"type:varchar(100);not null;uniqueIndex:uk_transaction_side;index:idx_transaction_id"`
	EntrySide     string          `gorm:"type:varchar(6);not null;uniqueIndex:uk_transaction_side"`
	Account       string          `gorm:"type:varchar(500);not null"`
	Debit         decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	Credit        decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	OccurredAt    time.Time       `gorm:"type:datetime(6);not null;index:idx_occurred_at"`
	CreatedAt     time.Time       `gorm:"type:datetime(6);not null;autoCreateTime"`
}

// TableName はテーブル名を返す。
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// BeforeCreate はレコード作成前にUUIDを生成する。
func (m *LedgerEntryModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// toDomain はモデルをドメインエンティティに変換する。
func (m *LedgerEntryModel) toDomain() *domain.LedgerEntry {
	return &domain.LedgerEntry{
		ID:            m.ID,
		TransactionID: m.TransactionID,
		Side:          domain.EntrySide(m.EntrySide),
		Account:       m.Account,
		Debit:         m.Debit,
		Credit:        m.Credit,
		OccurredAt:    m.OccurredAt,
		CreatedAt:     m.CreatedAt,
	}
}

// LedgerRepository は台帳エントリのデータアクセスを提供する。
type LedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository は新しいLedgerRepositoryを生成する。
func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// ExistsByTransactionID は指定された取引IDのエントリが存在するか確認する。
func (r *LedgerRepository) ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&LedgerEntryModel{}).
		Where("transaction_id = ?", transactionID).
		Count(&count).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to count ledger entries by transaction_id",
			"operation", "exists_by_transaction_id",
			"error", err,
		)
		return false, err
	}
	return count > 0, nil
}

// SaveAll は台帳エントリをまとめて保存する。
// ユニーク制約違反（並行した重複記帳）はErrDuplicateTransactionとして返す。
func (r *LedgerRepository) SaveAll(ctx context.Context, entries []*domain.LedgerEntry) error {
	models := make([]*LedgerEntryModel, len(entries))
	for i, e := range entries {
		models[i] = &LedgerEntryModel{
			ID:            e.ID,
			TransactionID: e.TransactionID,
			EntrySide:     string(e.Side),
			Account:       e.Account,
			Debit:         e.Debit,
			Credit:        e.Credit,
			OccurredAt:    e.OccurredAt,
		}
	}
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateTransaction
		}
		slog.ErrorContext(ctx, "failed to save ledger entries",
			"operation", "save_all",
			"count", len(models),
			"error", err,
		)
		return err
	}
	// gormで設定された値をドメインエンティティに反映
	for i, m := range models {
		entries[i].ID = m.ID
		entries[i].CreatedAt = m.CreatedAt
	}
	return nil
}

// FindByTransactionID は指定された取引IDの全エントリを取得する。
func (r *LedgerRepository) FindByTransactionID(ctx context.Context, transactionID string) ([]*domain.LedgerEntry, error) {
	var models []LedgerEntryModel
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("entry_side ASC").
		Find(&models).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to find ledger entries",
			"operation", "find_by_transaction_id",
			"error", err,
		)
		return nil, err
	}

	entries := make([]*domain.LedgerEntry, len(models))
	for i, m := range models {
		entries[i] = m.toDomain()
	}
	return entries, nil
}

// InTransaction は渡された関数を1つのデータベーストランザクション内で実行する。
// 関数がエラーを返した場合、トランザクション内の全書き込みはロールバックされる。
func (r *LedgerRepository) InTransaction(ctx context.Context, fn func(repo usecase.LedgerRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&LedgerRepository{db: tx})
	})
}
