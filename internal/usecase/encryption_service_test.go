package usecase

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"transfer-ledger-service/config"
	"transfer-ledger-service/internal/crypto"
	"transfer-ledger-service/internal/domain"
)

func newTestEncryptionService(t *testing.T) *EncryptionService {
	t.Helper()

	aesKey, err := crypto.GenerateAESKey()
	if err != nil {
		t.Fatalf("GenerateAESKey failed: %v", err)
	}
	keys, err := crypto.LoadKeyMaterial(&config.Config{
		AESKey: base64.StdEncoding.EncodeToString(aesKey),
	})
	if err != nil {
		t.Fatalf("LoadKeyMaterial failed: %v", err)
	}
	return NewEncryptionService(keys)
}

func TestEncryptionService_WireRoundTrip(t *testing.T) {
	service := newTestEncryptionService(t)

	envelope, err := service.WireEncrypt("TXN20240115001")
	if err != nil {
		t.Fatalf("WireEncrypt failed: %v", err)
	}

	plaintext, err := service.WireDecrypt(envelope, "transactionId")
	if err != nil {
		t.Fatalf("WireDecrypt failed: %v", err)
	}
	if plaintext != "TXN20240115001" {
		t.Errorf("expected TXN20240115001, got %q", plaintext)
	}
}

func TestEncryptionService_WireDecrypt_MissingField(t *testing.T) {
	service := newTestEncryptionService(t)

	tests := []string{"", "   "}
	for _, field := range tests {
		_, err := service.WireDecrypt(field, "fromAccount")
		if !errors.Is(err, domain.ErrMissingField) {
			t.Errorf("expected ErrMissingField for %q, got %v", field, err)
		}
		if !strings.Contains(err.Error(), "fromAccount") {
			t.Errorf("expected field name in error, got %v", err)
		}
	}
}

func TestEncryptionService_WireDecrypt_TagsFieldName(t *testing.T) {
	service := newTestEncryptionService(t)

	// 復号不能な暗号文。エラーにはフィールド名のみが含まれ、内容は含まれない
	envelope := base64.StdEncoding.EncodeToString([]byte("not a valid RSA block"))
	_, err := service.WireDecrypt(envelope, "amount")
	if !errors.Is(err, domain.ErrDecryptionFailed) {
		t.Fatalf("expected ErrDecryptionFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "amount") {
		t.Errorf("expected field name in error, got %v", err)
	}
}

func TestEncryptionService_StorageRoundTrip(t *testing.T) {
	service := newTestEncryptionService(t)

	envelope, err := service.StorageEncrypt("1234567890")
	if err != nil {
		t.Fatalf("StorageEncrypt failed: %v", err)
	}
	if envelope == "1234567890" {
		t.Fatal("expected ciphertext, got plaintext")
	}

	plaintext, err := service.StorageDecrypt(envelope)
	if err != nil {
		t.Fatalf("StorageDecrypt failed: %v", err)
	}
	if plaintext != "1234567890" {
		t.Errorf("expected 1234567890, got %q", plaintext)
	}
}

func TestEncryptionService_StorageEmptyPassThrough(t *testing.T) {
	service := newTestEncryptionService(t)

	// 空入力は暗号エラーにせずそのまま返す
	encrypted, err := service.StorageEncrypt("")
	if err != nil {
		t.Fatalf("StorageEncrypt failed: %v", err)
	}
	if encrypted != "" {
		t.Errorf("expected empty string, got %q", encrypted)
	}

	decrypted, err := service.StorageDecrypt("")
	if err != nil {
		t.Fatalf("StorageDecrypt failed: %v", err)
	}
	if decrypted != "" {
		t.Errorf("expected empty string, got %q", decrypted)
	}
}

func TestEncryptionService_PublicKeyBase64(t *testing.T) {
	service := newTestEncryptionService(t)

	key, err := service.PublicKeyBase64()
	if err != nil {
		t.Fatalf("PublicKeyBase64 failed: %v", err)
	}
	if key == "" {
		t.Fatal("expected non-empty public key")
	}
	if _, err := crypto.ParseRSAPublicKey(key); err != nil {
		t.Errorf("exported key does not parse: %v", err)
	}
}
