package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter はルーターを生成する。
func NewRouter(th *TransferHandler, eh *EncryptionHandler) http.Handler {
	r := chi.NewRouter()

	// ミドルウェア
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)

	// ルート定義
	r.Route("/api/transactions", func(r chi.Router) {
		r.Post("/transfer", th.Transfer)
		r.Get("/public-key", th.PublicKey)
	})
	r.Route("/api/encryption", func(r chi.Router) {
		r.Post("/encrypt-rsa", eh.EncryptRSA)
		r.Post("/decrypt-rsa", eh.DecryptRSA)
		r.Post("/encrypt-aes", eh.EncryptAES)
		r.Post("/decrypt-aes", eh.DecryptAES)
	})

	return r
}
