package handler

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"transfer-ledger-service/config"
	"transfer-ledger-service/internal/crypto"
	"transfer-ledger-service/internal/domain"
	"transfer-ledger-service/internal/usecase"
)

// mockLedgerRepository はテスト用のモックリポジトリ。
type mockLedgerRepository struct {
	existsResult bool
	existsErr    error
	saveErr      error
	savedEntries []*domain.LedgerEntry
}

func (m *mockLedgerRepository) ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error) {
	return m.existsResult, m.existsErr
}

func (m *mockLedgerRepository) SaveAll(ctx context.Context, entries []*domain.LedgerEntry) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.savedEntries = append(m.savedEntries, entries...)
	return nil
}

func (m *mockLedgerRepository) InTransaction(ctx context.Context, fn func(repo usecase.LedgerRepository) error) error {
	return fn(m)
}

// setupTestServer は一時鍵ペアと実サービスでテストサーバーを組み立てる。
func setupTestServer(t *testing.T, repo *mockLedgerRepository) (*httptest.Server, *rsa.PublicKey) {
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

	encryptionService := usecase.NewEncryptionService(keys)
	transferService := usecase.NewTransferService(repo, encryptionService)
	router := NewRouter(
		NewTransferHandler(transferService, encryptionService),
		NewEncryptionHandler(encryptionService),
	)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, keys.PublicKey()
}

// encryptedTransferRequest は5フィールドを公開鍵で暗号化したリクエストボディを組み立てる。
func encryptedTransferRequest(t *testing.T, pub *rsa.PublicKey, fields map[string]string) []byte {
	t.Helper()

	payload := make(map[string]string, len(fields))
	for name, value := range fields {
		encrypted, err := crypto.EncryptRSA(value, pub)
		if err != nil {
			t.Fatalf("encrypting %s: %v", name, err)
		}
		payload[name] = encrypted
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("encoding request: %v", err)
	}
	return body
}

func validTransferFields() map[string]string {
	return map[string]string{
		"transactionId": "TXN20240115001",
		"fromAccount":   "1234567890",
		"toAccount":     "9876543210",
		"amount":        "10000.50",
		"time":          "2024-01-15T10:30:00",
	}
}

func postTransfer(t *testing.T, server *httptest.Server, body []byte) *http.Response {
	t.Helper()
	resp, err := http.Post(server.URL+"/api/transactions/transfer", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	return resp
}

func decodeErrorResponse(t *testing.T, resp *http.Response) (code, message string) {
	t.Helper()
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	return errResp.Code, errResp.Message
}

func TestTransferHandler_Transfer(t *testing.T) {
	repo := &mockLedgerRepository{}
	server, pub := setupTestServer(t, repo)

	body := encryptedTransferRequest(t, pub, validTransferFields())
	resp := postTransfer(t, server, body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var result TransferResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if result.TransactionID != "TXN20240115001" {
		t.Errorf("expected TXN20240115001, got %q", result.TransactionID)
	}
	if result.Status != "COMPLETED" {
		t.Errorf("expected COMPLETED, got %q", result.Status)
	}

	if len(repo.savedEntries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(repo.savedEntries))
	}
	// 口座はそのままではなく暗号化されて保存されている
	for _, e := range repo.savedEntries {
		if e.Account == "1234567890" || e.Account == "9876543210" {
			t.Errorf("account stored as plaintext: %q", e.Account)
		}
	}
}

func TestTransferHandler_Transfer_Duplicate(t *testing.T) {
	repo := &mockLedgerRepository{existsResult: true}
	server, pub := setupTestServer(t, repo)

	body := encryptedTransferRequest(t, pub, validTransferFields())
	resp := postTransfer(t, server, body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.StatusCode)
	}
	code, _ := decodeErrorResponse(t, resp)
	if code != "DUPLICATE_TRANSACTION" {
		t.Errorf("expected DUPLICATE_TRANSACTION, got %q", code)
	}
}

func TestTransferHandler_Transfer_UndecryptableField(t *testing.T) {
	repo := &mockLedgerRepository{}
	server, pub := setupTestServer(t, repo)

	fields := validTransferFields()
	body := encryptedTransferRequest(t, pub, fields)

	// fromAccountを復号不能な値に差し替える
	var payload map[string]string
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	payload["fromAccount"] = base64.StdEncoding.EncodeToString([]byte("not a valid RSA block"))
	tampered, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("encoding payload: %v", err)
	}

	resp := postTransfer(t, server, tampered)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}
	code, message := decodeErrorResponse(t, resp)
	if code != "DECRYPTION_FAILED" {
		t.Errorf("expected DECRYPTION_FAILED, got %q", code)
	}
	// フィールド名は含むが、値は含まない
	if !strings.Contains(message, "fromAccount") {
		t.Errorf("expected field name in message, got %q", message)
	}
	if strings.Contains(message, "1234567890") {
		t.Errorf("message leaks field content: %q", message)
	}
	if len(repo.savedEntries) != 0 {
		t.Errorf("expected no entries saved, got %d", len(repo.savedEntries))
	}
}

func TestTransferHandler_Transfer_MissingField(t *testing.T) {
	repo := &mockLedgerRepository{}
	server, pub := setupTestServer(t, repo)

	fields := validTransferFields()
	delete(fields, "amount")
	body := encryptedTransferRequest(t, pub, fields)

	resp := postTransfer(t, server, body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}
	code, message := decodeErrorResponse(t, resp)
	if code != "MISSING_FIELD" {
		t.Errorf("expected MISSING_FIELD, got %q", code)
	}
	if !strings.Contains(message, "amount") {
		t.Errorf("expected field name in message, got %q", message)
	}
}

func TestTransferHandler_Transfer_SameAccount(t *testing.T) {
	repo := &mockLedgerRepository{}
	server, pub := setupTestServer(t, repo)

	fields := validTransferFields()
	fields["toAccount"] = fields["fromAccount"]
	body := encryptedTransferRequest(t, pub, fields)

	resp := postTransfer(t, server, body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}
	code, _ := decodeErrorResponse(t, resp)
	if code != "SAME_ACCOUNT" {
		t.Errorf("expected SAME_ACCOUNT, got %q", code)
	}
}

func TestTransferHandler_Transfer_InvalidAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount string
	}{
		{"not a number", "abc"},
		{"zero", "0"},
		{"negative", "-100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockLedgerRepository{}
			server, pub := setupTestServer(t, repo)

			fields := validTransferFields()
			fields["amount"] = tt.amount
			body := encryptedTransferRequest(t, pub, fields)

			resp := postTransfer(t, server, body)
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", resp.StatusCode)
			}
			code, _ := decodeErrorResponse(t, resp)
			if code != "INVALID_AMOUNT" {
				t.Errorf("expected INVALID_AMOUNT, got %q", code)
			}
		})
	}
}

func TestTransferHandler_Transfer_InvalidTimeFormat(t *testing.T) {
	repo := &mockLedgerRepository{}
	server, pub := setupTestServer(t, repo)

	fields := validTransferFields()
	fields["time"] = "2024/01/15 10:30"
	body := encryptedTransferRequest(t, pub, fields)

	resp := postTransfer(t, server, body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}
	code, _ := decodeErrorResponse(t, resp)
	if code != "INVALID_TIME_FORMAT" {
		t.Errorf("expected INVALID_TIME_FORMAT, got %q", code)
	}
}

func TestTransferHandler_Transfer_StorageFailure(t *testing.T) {
	repo := &mockLedgerRepository{saveErr: domain.ErrStorageFailure}
	server, pub := setupTestServer(t, repo)

	body := encryptedTransferRequest(t, pub, validTransferFields())
	resp := postTransfer(t, server, body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", resp.StatusCode)
	}
	code, message := decodeErrorResponse(t, resp)
	if code != "INTERNAL_ERROR" {
		t.Errorf("expected INTERNAL_ERROR, got %q", code)
	}
	// 内部詳細を漏らさない
	if message != "internal server error" {
		t.Errorf("unexpected message: %q", message)
	}
}

func TestTransferHandler_PublicKey(t *testing.T) {
	server, pub := setupTestServer(t, &mockLedgerRepository{})

	resp, err := http.Get(server.URL + "/api/transactions/public-key")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var result PublicKeyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}

	parsed, err := crypto.ParseRSAPublicKey(result.PublicKey)
	if err != nil {
		t.Fatalf("returned key does not parse: %v", err)
	}
	if parsed.N.Cmp(pub.N) != 0 {
		t.Error("returned key does not match the server key")
	}
}
