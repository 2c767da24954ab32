// Package crypto は振替データの暗号化・復号を提供する。
//
// AES-256-GCMは口座番号の保存時暗号化（storage）に、
// RSA-2048/PKCS1は呼び出し元との通信路上のフィールド暗号化（wire）に使用する。
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"transfer-ledger-service/internal/domain"
)

const (
	// AESKeySize はAES-256の鍵長（バイト）。
	AESKeySize = 32
	// GCMNonceSize はGCMのnonce長（バイト）。
	GCMNonceSize = 12
	// GCMTagSize はGCMの認証タグ長（バイト）。
	GCMTagSize = 16
)

// EncryptAESGCM は平文をAES-256-GCMで暗号化し、
// Base64( nonce[12] ‖ ciphertext ‖ tag[16] ) のエンベロープを返す。
// nonceは呼び出しごとに暗号学的乱数から生成する（状態は持たない）。
func EncryptAESGCM(plaintext string, key []byte) (string, error) {
	aead, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, GCMNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("%w: generating nonce: %v", domain.ErrCipherUnavailable, err)
	}

	// Sealはnonceに続けてciphertext+tagを追記する
	combined := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(combined), nil
}

// DecryptAESGCM はエンベロープをBase64デコードして認証付き復号を行う。
// Base64不正または長さ不足はErrMalformedCiphertext、
// 認証タグ不一致（改ざんまたは鍵違い）はErrAuthenticationFailedを返す。
func DecryptAESGCM(envelope string, key []byte) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return "", fmt.Errorf("%w: invalid base64", domain.ErrMalformedCiphertext)
	}
	if len(decoded) < GCMNonceSize+1 {
		return "", fmt.Errorf("%w: ciphertext too short", domain.ErrMalformedCiphertext)
	}

	aead, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce, ciphertext := decoded[:GCMNonceSize], decoded[GCMNonceSize:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", domain.ErrAuthenticationFailed
	}
	return string(plaintext), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCipherUnavailable, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCipherUnavailable, err)
	}
	return aead, nil
}

// GenerateAESKey はAES-256鍵を生成する。
func GenerateAESKey() ([]byte, error) {
	key := make([]byte, AESKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating AES key: %w", err)
	}
	return key, nil
}
