package crypto

import (
	"crypto/x509"
	"encoding/base64"
	"errors"
	"testing"

	"transfer-ledger-service/config"
	"transfer-ledger-service/internal/domain"
)

func testConfigWithAESKey(t *testing.T) *config.Config {
	t.Helper()
	key, err := GenerateAESKey()
	if err != nil {
		t.Fatalf("GenerateAESKey failed: %v", err)
	}
	return &config.Config{
		AESKey: base64.StdEncoding.EncodeToString(key),
	}
}

func TestLoadKeyMaterial_WithConfiguredRSAKeys(t *testing.T) {
	priv, err := GenerateRSAKeyPair()
	if err != nil {
		t.Fatalf("GenerateRSAKeyPair failed: %v", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		t.Fatalf("marshaling public key: %v", err)
	}
	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		t.Fatalf("marshaling private key: %v", err)
	}

	cfg := testConfigWithAESKey(t)
	cfg.RSAPublicKey = base64.StdEncoding.EncodeToString(pubDER)
	cfg.RSAPrivateKey = base64.StdEncoding.EncodeToString(privDER)

	km, err := LoadKeyMaterial(cfg)
	if err != nil {
		t.Fatalf("LoadKeyMaterial failed: %v", err)
	}
	if km.Ephemeral() {
		t.Error("expected configured key pair, got ephemeral")
	}

	// 設定された鍵ペアで往復できる
	envelope, err := EncryptRSA("TXN20240115001", km.PublicKey())
	if err != nil {
		t.Fatalf("EncryptRSA failed: %v", err)
	}
	decrypted, err := DecryptRSA(envelope, km.PrivateKey())
	if err != nil {
		t.Fatalf("DecryptRSA failed: %v", err)
	}
	if decrypted != "TXN20240115001" {
		t.Errorf("expected TXN20240115001, got %q", decrypted)
	}
}

func TestLoadKeyMaterial_EphemeralFallback(t *testing.T) {
	cfg := testConfigWithAESKey(t)

	km, err := LoadKeyMaterial(cfg)
	if err != nil {
		t.Fatalf("LoadKeyMaterial failed: %v", err)
	}
	if !km.Ephemeral() {
		t.Error("expected ephemeral key pair when RSA keys are not configured")
	}
	if km.PublicKey() == nil || km.PrivateKey() == nil {
		t.Fatal("expected generated key pair, got nil")
	}

	// 一時鍵ペアでも往復できる
	envelope, err := EncryptRSA("1234567890", km.PublicKey())
	if err != nil {
		t.Fatalf("EncryptRSA failed: %v", err)
	}
	decrypted, err := DecryptRSA(envelope, km.PrivateKey())
	if err != nil {
		t.Fatalf("DecryptRSA failed: %v", err)
	}
	if decrypted != "1234567890" {
		t.Errorf("expected 1234567890, got %q", decrypted)
	}
}

func TestLoadKeyMaterial_InvalidAESKey(t *testing.T) {
	tests := []struct {
		name   string
		aesKey string
	}{
		{"missing", ""},
		{"not base64", "not-base64!!"},
		{"wrong length", base64.StdEncoding.EncodeToString([]byte("too-short"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadKeyMaterial(&config.Config{AESKey: tt.aesKey})
			if !errors.Is(err, domain.ErrInvalidKeyMaterial) {
				t.Errorf("expected ErrInvalidKeyMaterial, got %v", err)
			}
		})
	}
}

func TestPublicKeyBase64_RoundTrip(t *testing.T) {
	cfg := testConfigWithAESKey(t)
	km, err := LoadKeyMaterial(cfg)
	if err != nil {
		t.Fatalf("LoadKeyMaterial failed: %v", err)
	}

	exported, err := km.PublicKeyBase64()
	if err != nil {
		t.Fatalf("PublicKeyBase64 failed: %v", err)
	}

	parsed, err := ParseRSAPublicKey(exported)
	if err != nil {
		t.Fatalf("ParseRSAPublicKey failed: %v", err)
	}
	if parsed.N.Cmp(km.PublicKey().N) != 0 {
		t.Error("exported public key does not match the loaded key")
	}
}

func TestParseRSAPublicKey_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"not base64", "not-base64!!"},
		{"not DER", base64.StdEncoding.EncodeToString([]byte("garbage"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRSAPublicKey(tt.key)
			if !errors.Is(err, domain.ErrInvalidKeyMaterial) {
				t.Errorf("expected ErrInvalidKeyMaterial, got %v", err)
			}
		})
	}
}
