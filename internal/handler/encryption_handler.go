package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"transfer-ledger-service/internal/domain"
	"transfer-ledger-service/internal/usecase"
	"transfer-ledger-service/pkg/httputil"
)

// EncryptionHandler は暗号化ユーティリティAPIのHTTPハンドラを提供する。
// 接続側の動作確認用であり、振替フロー本体では使用しない。
type EncryptionHandler struct {
	encryption *usecase.EncryptionService
}

// NewEncryptionHandler は新しいEncryptionHandlerを生成する。
func NewEncryptionHandler(encryption *usecase.EncryptionService) *EncryptionHandler {
	return &EncryptionHandler{encryption: encryption}
}

// EncryptRequest は暗号化リクエストの形式。
type EncryptRequest struct {
	Plaintext string `json:"plaintext"`
}

// DecryptRequest は復号リクエストの形式。
type DecryptRequest struct {
	Ciphertext string `json:"ciphertext"`
}

// EncryptResponse は暗号化レスポンスの形式。
type EncryptResponse struct {
	Ciphertext string `json:"ciphertext"`
}

// DecryptResponse は復号レスポンスの形式。
type DecryptResponse struct {
	Plaintext string `json:"plaintext"`
}

// EncryptRSA は平文をRSA公開鍵で暗号化する。
func (h *EncryptionHandler) EncryptRSA(w http.ResponseWriter, r *http.Request) {
	var req EncryptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	ciphertext, err := h.encryption.WireEncrypt(req.Plaintext)
	if err != nil {
		writeCryptoError(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, EncryptResponse{Ciphertext: ciphertext})
}

// DecryptRSA はRSA暗号文を秘密鍵で復号する。
func (h *EncryptionHandler) DecryptRSA(w http.ResponseWriter, r *http.Request) {
	var req DecryptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	plaintext, err := h.encryption.WireDecrypt(req.Ciphertext, "ciphertext")
	if err != nil {
		writeCryptoError(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, DecryptResponse{Plaintext: plaintext})
}

// EncryptAES は平文をAES-256-GCMで暗号化する。
func (h *EncryptionHandler) EncryptAES(w http.ResponseWriter, r *http.Request) {
	var req EncryptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	ciphertext, err := h.encryption.StorageEncrypt(req.Plaintext)
	if err != nil {
		writeCryptoError(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, EncryptResponse{Ciphertext: ciphertext})
}

// DecryptAES はAES-256-GCM暗号文を復号する。
func (h *EncryptionHandler) DecryptAES(w http.ResponseWriter, r *http.Request) {
	var req DecryptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	plaintext, err := h.encryption.StorageDecrypt(req.Ciphertext)
	if err != nil {
		writeCryptoError(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, DecryptResponse{Plaintext: plaintext})
}

// writeCryptoError は暗号エラー種別をHTTPステータスに対応付ける。
// 暗号処理の内部詳細はレスポンスに含めない。
func writeCryptoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingField):
		httputil.Error(w, http.StatusBadRequest, "MISSING_FIELD", "required field is missing")
	case errors.Is(err, domain.ErrMalformedCiphertext):
		httputil.Error(w, http.StatusBadRequest, "MALFORMED_CIPHERTEXT", "ciphertext is malformed")
	case errors.Is(err, domain.ErrAuthenticationFailed):
		httputil.Error(w, http.StatusBadRequest, "AUTHENTICATION_FAILED", "ciphertext authentication failed")
	case errors.Is(err, domain.ErrDecryptionFailed):
		httputil.Error(w, http.StatusBadRequest, "DECRYPTION_FAILED", "decryption failed")
	case errors.Is(err, domain.ErrPlaintextTooLarge):
		httputil.Error(w, http.StatusBadRequest, "PLAINTEXT_TOO_LARGE", "plaintext exceeds encryption size limit")
	default:
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
