// Package handler はHTTPハンドラを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"transfer-ledger-service/internal/domain"
	"transfer-ledger-service/internal/middleware"
	"transfer-ledger-service/internal/usecase"
	"transfer-ledger-service/pkg/httputil"
	"transfer-ledger-service/pkg/masking"
)

// wireTimeLayout は通信路上のtimeフィールドの形式（タイムゾーンなしISO-8601）。
const wireTimeLayout = "2006-01-02T15:04:05"

// TransferHandler は振替APIのHTTPハンドラを提供する。
type TransferHandler struct {
	transfers  *usecase.TransferService
	encryption *usecase.EncryptionService
}

// NewTransferHandler は新しいTransferHandlerを生成する。
func NewTransferHandler(transfers *usecase.TransferService, encryption *usecase.EncryptionService) *TransferHandler {
	return &TransferHandler{
		transfers:  transfers,
		encryption: encryption,
	}
}

// TransferRequest は振替リクエストの形式。
// 全フィールドはRSA公開鍵で暗号化されたBase64文字列。
type TransferRequest struct {
	TransactionID string `json:"transactionId"`
	FromAccount   string `json:"fromAccount"`
	ToAccount     string `json:"toAccount"`
	Amount        string `json:"amount"`
	Time          string `json:"time"`
}

// TransferResponse は振替レスポンスの形式。
type TransferResponse struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

// PublicKeyResponse は公開鍵レスポンスの形式。
type PublicKeyResponse struct {
	PublicKey string `json:"publicKey"`
}

// Transfer は暗号化された振替指示を受け付け、台帳に記帳する。
func (h *TransferHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	instr, ok := h.decryptInstruction(w, &req)
	if !ok {
		return
	}

	maskedID := masking.TransactionID(instr.TransactionID)
	if err := h.transfers.ProcessTransfer(r.Context(), instr); err != nil {
		middleware.WriteAuditLog(r.Context(), "TRANSFER", maskedID, "FAILED")
		switch {
		case errors.Is(err, domain.ErrDuplicateTransaction):
			httputil.Error(w, http.StatusConflict, "DUPLICATE_TRANSACTION", "transaction ID already processed")
		case errors.Is(err, domain.ErrSameAccount):
			httputil.Error(w, http.StatusBadRequest, "SAME_ACCOUNT", "from and to accounts must differ")
		case errors.Is(err, domain.ErrInvalidAmount):
			httputil.Error(w, http.StatusBadRequest, "INVALID_AMOUNT", "amount must be positive")
		case errors.Is(err, domain.ErrMissingField):
			httputil.Error(w, http.StatusBadRequest, "MISSING_FIELD", "required field is missing")
		default:
			httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	middleware.WriteAuditLog(r.Context(), "TRANSFER", maskedID, "SUCCESS")
	httputil.JSON(w, http.StatusOK, TransferResponse{
		TransactionID: instr.TransactionID,
		Status:        "COMPLETED",
	})
}

// decryptInstruction はリクエストの5フィールドを復号し、振替指示を組み立てる。
// 失敗時はエラーレスポンスを書き込み、フィールド名のみを伝える
// （フィールドの内容は決して含めない）。
func (h *TransferHandler) decryptInstruction(w http.ResponseWriter, req *TransferRequest) (*domain.TransferInstruction, bool) {
	fields := []struct {
		name  string
		value string
	}{
		{"transactionId", req.TransactionID},
		{"fromAccount", req.FromAccount},
		{"toAccount", req.ToAccount},
		{"amount", req.Amount},
		{"time", req.Time},
	}

	decrypted := make([]string, len(fields))
	for i, f := range fields {
		plaintext, err := h.encryption.WireDecrypt(f.value, f.name)
		if err != nil {
			if errors.Is(err, domain.ErrMissingField) {
				httputil.Error(w, http.StatusBadRequest, "MISSING_FIELD", "missing required field: "+f.name)
				return nil, false
			}
			httputil.Error(w, http.StatusBadRequest, "DECRYPTION_FAILED", "failed to decrypt field: "+f.name)
			return nil, false
		}
		decrypted[i] = plaintext
	}

	amount, err := decimal.NewFromString(decrypted[3])
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_AMOUNT", "amount is not a valid decimal")
		return nil, false
	}
	occurredAt, err := time.ParseInLocation(wireTimeLayout, decrypted[4], time.Local)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_TIME_FORMAT", "time must be formatted as "+wireTimeLayout)
		return nil, false
	}

	return &domain.TransferInstruction{
		TransactionID: decrypted[0],
		FromAccount:   decrypted[1],
		ToAccount:     decrypted[2],
		Amount:        amount,
		OccurredAt:    occurredAt,
	}, true
}

// PublicKey は通信路暗号化用のRSA公開鍵（Base64 DER）を返す。
func (h *TransferHandler) PublicKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.encryption.PublicKeyBase64()
	if err != nil {
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}
	httputil.JSON(w, http.StatusOK, PublicKeyResponse{PublicKey: key})
}
