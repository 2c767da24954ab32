package crypto

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"log/slog"

	"transfer-ledger-service/config"
	"transfer-ledger-service/internal/domain"
)

// KeyMaterial はプロセス全体で共有する鍵を保持する。
// 起動時に一度だけ構築され、以降は読み取り専用。
// 同期なしで並行に読んで安全。
type KeyMaterial struct {
	aesKey     []byte
	publicKey  *rsa.PublicKey
	privateKey *rsa.PrivateKey
	ephemeral  bool
}

// LoadKeyMaterial は設定から鍵を読み込む。
// AES鍵は必須。RSA鍵ペアが設定にない場合は一時鍵を生成する
// （本番環境では設定された鍵を使用すること）。
func LoadKeyMaterial(cfg *config.Config) (*KeyMaterial, error) {
	if cfg.AESKey == "" {
		return nil, fmt.Errorf("%w: AES_KEY is required", domain.ErrInvalidKeyMaterial)
	}
	aesKey, err := base64.StdEncoding.DecodeString(cfg.AESKey)
	if err != nil {
		return nil, fmt.Errorf("%w: AES key is not valid base64", domain.ErrInvalidKeyMaterial)
	}
	if len(aesKey) != AESKeySize {
		return nil, fmt.Errorf("%w: AES key must be %d bytes, got %d",
			domain.ErrInvalidKeyMaterial, AESKeySize, len(aesKey))
	}
	slog.Info("AES key loaded from config")

	km := &KeyMaterial{aesKey: aesKey}

	if cfg.RSAPublicKey != "" && cfg.RSAPrivateKey != "" {
		pub, err := ParseRSAPublicKey(cfg.RSAPublicKey)
		if err != nil {
			return nil, err
		}
		priv, err := ParseRSAPrivateKey(cfg.RSAPrivateKey)
		if err != nil {
			return nil, err
		}
		km.publicKey = pub
		km.privateKey = priv
		slog.Info("RSA key pair loaded from config")
		return km, nil
	}

	slog.Warn("RSA keys not found in config, generating ephemeral key pair; do not use in production")
	priv, err := GenerateRSAKeyPair()
	if err != nil {
		return nil, err
	}
	km.privateKey = priv
	km.publicKey = &priv.PublicKey
	km.ephemeral = true
	slog.Warn("ephemeral RSA key pair generated", "bits", RSAKeySize)
	return km, nil
}

// AESKey は保存時暗号化用の鍵を返す。
func (k *KeyMaterial) AESKey() []byte {
	return k.aesKey
}

// PublicKey は通信路暗号化用のRSA公開鍵を返す。
func (k *KeyMaterial) PublicKey() *rsa.PublicKey {
	return k.publicKey
}

// PrivateKey は通信路復号用のRSA秘密鍵を返す。
func (k *KeyMaterial) PrivateKey() *rsa.PrivateKey {
	return k.privateKey
}

// Ephemeral は鍵ペアが起動時に一時生成されたものかどうかを返す。
func (k *KeyMaterial) Ephemeral() bool {
	return k.ephemeral
}

// PublicKeyBase64 は公開鍵をDERエンコードしBase64で返す。
// 呼び出し元はこの鍵で通信路上のフィールドを暗号化する。
func (k *KeyMaterial) PublicKeyBase64() (string, error) {
	der, err := x509.MarshalPKIXPublicKey(k.publicKey)
	if err != nil {
		return "", fmt.Errorf("%w: encoding public key: %v", domain.ErrInvalidKeyMaterial, err)
	}
	return base64.StdEncoding.EncodeToString(der), nil
}

// ParseRSAPublicKey はBase64 DER（PKIX）形式のRSA公開鍵をパースする。
func ParseRSAPublicKey(base64Key string) (*rsa.PublicKey, error) {
	der, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return nil, fmt.Errorf("%w: RSA public key is not valid base64", domain.ErrInvalidKeyMaterial)
	}
	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid RSA public key format", domain.ErrInvalidKeyMaterial)
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: public key is not RSA", domain.ErrInvalidKeyMaterial)
	}
	return pub, nil
}

// ParseRSAPrivateKey はBase64 DER（PKCS8）形式のRSA秘密鍵をパースする。
func ParseRSAPrivateKey(base64Key string) (*rsa.PrivateKey, error) {
	der, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return nil, fmt.Errorf("%w: RSA private key is not valid base64", domain.ErrInvalidKeyMaterial)
	}
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid RSA private key format", domain.ErrInvalidKeyMaterial)
	}
	priv, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: private key is not RSA", domain.ErrInvalidKeyMaterial)
	}
	return priv, nil
}
