package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"

	"transfer-ledger-service/internal/domain"
)

// RSAKeySize はRSA鍵長（ビット）。
const RSAKeySize = 2048

// pkcs1Overhead はPKCS1 v1.5パディングのオーバーヘッド（バイト）。
// RSA-2048では平文上限が 256 - 11 = 245 バイトになる。
const pkcs1Overhead = 11

// MaxPlaintextSize は鍵長に応じたRSA暗号化の平文上限を返す。
func MaxPlaintextSize(pub *rsa.PublicKey) int {
	return pub.Size() - pkcs1Overhead
}

// EncryptRSA は平文をRSA/PKCS1で暗号化し、Base64エンコードして返す。
// 平文が上限を超える場合はErrPlaintextTooLargeを返す。
func EncryptRSA(plaintext string, pub *rsa.PublicKey) (string, error) {
	if len(plaintext) > MaxPlaintextSize(pub) {
		return "", fmt.Errorf("%w: %d bytes exceeds limit of %d",
			domain.ErrPlaintextTooLarge, len(plaintext), MaxPlaintextSize(pub))
	}

	encrypted, err := rsa.EncryptPKCS1v15(rand.Reader, pub, []byte(plaintext))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCipherUnavailable, err)
	}
	return base64.StdEncoding.EncodeToString(encrypted), nil
}

// DecryptRSA はBase64エンベロープをデコードしてRSA/PKCS1で復号する。
// Base64不正はErrMalformedCiphertext、復号失敗はErrDecryptionFailedを返す。
// 鍵違いとパディング不正は区別しない（呼び出し側に判別材料を与えない）。
func DecryptRSA(envelope string, priv *rsa.PrivateKey) (string, error) {
	encrypted, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return "", fmt.Errorf("%w: invalid base64", domain.ErrMalformedCiphertext)
	}

	decrypted, err := rsa.DecryptPKCS1v15(nil, priv, encrypted)
	if err != nil {
		return "", domain.ErrDecryptionFailed
	}
	return string(decrypted), nil
}

// GenerateRSAKeyPair は2048ビットのRSA鍵ペアを生成する。
// 設定に鍵がない場合の一時鍵生成にのみ使用する。
func GenerateRSAKeyPair() (*rsa.PrivateKey, error) {
	priv, err := rsa.GenerateKey(rand.Reader, RSAKeySize)
	if err != nil {
		return nil, fmt.Errorf("%w: generating RSA key pair: %v", domain.ErrCipherUnavailable, err)
	}
	return priv, nil
}
