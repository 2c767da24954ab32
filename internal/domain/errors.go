package domain

import "errors"

// 暗号処理のエラー種別。呼び出し側はerrors.Isで判別する。
var (
	// ErrMalformedCiphertext はBase64不正または暗号文が短すぎる場合のエラー。
	ErrMalformedCiphertext = errors.New("malformed ciphertext")

	// ErrAuthenticationFailed はAES-GCMの認証タグ検証に失敗した場合のエラー。
	// 鍵違いまたは改ざんを意味する。平文を返すことは決してない。
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrDecryptionFailed はRSA復号に失敗した場合のエラー。
	// パディング不正と鍵違いは区別しない（パディングオラクル対策）。
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrPlaintextTooLarge は平文がRSAの上限（RSA-2048で245バイト）を超える場合のエラー。
	ErrPlaintextTooLarge = errors.New("plaintext too large for RSA encryption")

	// ErrCipherUnavailable は暗号アルゴリズムが利用できない場合のエラー（起動時のみ）。
	ErrCipherUnavailable = errors.New("cipher unavailable")

	// ErrInvalidKeyMaterial は設定された鍵の形式が不正な場合のエラー。
	ErrInvalidKeyMaterial = errors.New("invalid key material")
)

// 台帳処理のエラー種別。
var (
	// ErrDuplicateTransaction は同一transactionIdの振替が既に記帳済みの場合のエラー。
	ErrDuplicateTransaction = errors.New("duplicate transaction ID")

	// ErrSameAccount は振替元と振替先の口座が同一の場合のエラー。
	ErrSameAccount = errors.New("from and to accounts must differ")

	// ErrInvalidAmount は金額が正の値でない場合のエラー。
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrMissingField は必須フィールドが欠落している場合のエラー。
	ErrMissingField = errors.New("missing required field")

	// ErrEncryptionFailure は記帳時の口座暗号化に失敗した場合のエラー。
	ErrEncryptionFailure = errors.New("account encryption failure")

	// ErrStorageFailure は分類されない永続化エラーのラッパー。
	ErrStorageFailure = errors.New("storage failure")
)

// マイグレーションのエラー種別。
var (
	// ErrMigrationFailed はマイグレーション実行時のエラー。
	ErrMigrationFailed = errors.New("migration failed")

	// ErrInvalidMigrationFile はマイグレーションファイルのフォーマットが不正な場合のエラー。
	ErrInvalidMigrationFile = errors.New("invalid migration file")
)
