// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"time"
)

// WriteAuditLog は振替操作の監査ログを出力する。
// transactionIDは呼び出し側でマスク済みの値を渡すこと。
func WriteAuditLog(ctx context.Context, operation string, transactionID string, result string) {
	slog.InfoContext(ctx, "transfer operation completed",
		"operation", operation,
		"transaction_id", transactionID,
		"result", result,
		"timestamp", time.Now().UTC().Format(time.RFC3339),
	)
}
