// Package usecase はアプリケーションのユースケースを実装する。
package usecase

import (
	"fmt"
	"log/slog"
	"strings"

	"transfer-ledger-service/internal/crypto"
	"transfer-ledger-service/internal/domain"
)

// EncryptionService は通信路（RSA）と保存時（AES）の2つの暗号化経路を提供する。
// 通信路はリクエスト・レスポンス中のフィールド単位の暗号化、
// 保存時は台帳の口座カラムの暗号化に使う。用途の取り違えを防ぐため、
// 汎用的な暗号スイッチではなく目的別のメソッドとして公開する。
type EncryptionService struct {
	keys *crypto.KeyMaterial
}

// NewEncryptionService は新しいEncryptionServiceを生成する。
func NewEncryptionService(keys *crypto.KeyMaterial) *EncryptionService {
	return &EncryptionService{keys: keys}
}

// WireDecrypt は通信路上のフィールドをRSA秘密鍵で復号する。
// 空フィールドは復号を試みる前にErrMissingFieldとして弾く。
// 復号失敗時はフィールド名を付与して返す（フィールドの内容は含めない）。
func (s *EncryptionService) WireDecrypt(field, fieldName string) (string, error) {
	if strings.TrimSpace(field) == "" {
		return "", fmt.Errorf("%w: %s", domain.ErrMissingField, fieldName)
	}
	plaintext, err := crypto.DecryptRSA(field, s.keys.PrivateKey())
	if err != nil {
		return "", fmt.Errorf("decrypting %s: %w", fieldName, err)
	}
	return plaintext, nil
}

// WireEncrypt は平文をRSA公開鍵で暗号化する。
// 暗号化ユーティリティAPIとCLIからのみ使用する。
func (s *EncryptionService) WireEncrypt(plaintext string) (string, error) {
	return crypto.EncryptRSA(plaintext, s.keys.PublicKey())
}

// StorageEncrypt は口座番号を保存時暗号化する。
// 空入力はそのまま空を返す（暗号エラーにはしない）。
func (s *EncryptionService) StorageEncrypt(account string) (string, error) {
	if strings.TrimSpace(account) == "" {
		return "", nil
	}
	return crypto.EncryptAESGCM(account, s.keys.AESKey())
}

// StorageDecrypt は保存時暗号化された口座番号を復号する。
// 空入力はそのまま空を返す。
func (s *EncryptionService) StorageDecrypt(envelope string) (string, error) {
	if strings.TrimSpace(envelope) == "" {
		return "", nil
	}
	return crypto.DecryptAESGCM(envelope, s.keys.AESKey())
}

// PublicKeyBase64 は配布用のRSA公開鍵（Base64 DER）を返す。
func (s *EncryptionService) PublicKeyBase64() (string, error) {
	key, err := s.keys.PublicKeyBase64()
	if err != nil {
		slog.Error("failed to export RSA public key", "error", err)
		return "", err
	}
	return key, nil
}
