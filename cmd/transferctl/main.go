// Package main はCLIツールのエントリポイント。
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"transfer-ledger-service/internal/crypto"
)

const version = "1.0.0"

const wireTimeLayout = "2006-01-02T15:04:05"

var (
	apiURL  string
	output  string
	timeout time.Duration
)

// HTTPクライアント
var httpClient *http.Client

func main() {
	rootCmd := &cobra.Command{
		Use:   "transferctl",
		Short: "Transfer Ledger Service CLI",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if apiURL == "" {
				apiURL = os.Getenv("TRANSFERCTL_API_URL")
			}
			httpClient = &http.Client{Timeout: timeout}
		},
	}

	// グローバルフラグ
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API endpoint URL (or set TRANSFERCTL_API_URL)")
	rootCmd.PersistentFlags().StringVar(&output, "output", "text", "Output format: text, json")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")

	// サブコマンド登録
	rootCmd.AddCommand(publicKeyCmd())
	rootCmd.AddCommand(transferCmd())
	rootCmd.AddCommand(encryptCmd())
	rootCmd.AddCommand(decryptCmd())
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// versionCmd はバージョン情報を表示する。
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("transferctl version %s\n", version)
		},
	}
}

// publicKeyCmd はサーバーのRSA公開鍵を取得するコマンド。
func publicKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "public-key",
		Short: "Fetch the server's RSA public key",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := fetchPublicKeyBase64()
			if err != nil {
				return err
			}
			fmt.Println(key)
			return nil
		},
	}
}

// transferCmd は振替指示の送信コマンド。
// 5フィールドをクライアント側でRSA暗号化してから送信する。
func transferCmd() *cobra.Command {
	var transactionID, fromAccount, toAccount, amount, occurredAt string
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Submit an encrypted transfer instruction",
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiURL == "" {
				return fmt.Errorf("--api-url is required (or set TRANSFERCTL_API_URL)")
			}
			if occurredAt == "" {
				occurredAt = time.Now().Format(wireTimeLayout)
			}

			keyBase64, err := fetchPublicKeyBase64()
			if err != nil {
				return err
			}
			pub, err := crypto.ParseRSAPublicKey(keyBase64)
			if err != nil {
				return fmt.Errorf("parsing server public key: %w", err)
			}

			// 全フィールドを公開鍵で暗号化
			payload := make(map[string]string, 5)
			for name, value := range map[string]string{
				"transactionId": transactionID,
				"fromAccount":   fromAccount,
				"toAccount":     toAccount,
				"amount":        amount,
				"time":          occurredAt,
			} {
				encrypted, err := crypto.EncryptRSA(value, pub)
				if err != nil {
					return fmt.Errorf("encrypting %s: %w", name, err)
				}
				payload[name] = encrypted
			}

			reqBody, err := json.Marshal(payload)
			if err != nil {
				return fmt.Errorf("encoding request: %w", err)
			}

			url := apiURL + "/api/transactions/transfer"
			resp, err := httpClient.Post(url, "application/json", bytes.NewReader(reqBody))
			if err != nil {
				return fmt.Errorf("API request failed: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("reading response: %w", err)
			}

			if resp.StatusCode != http.StatusOK {
				return handleErrorResponse(resp.StatusCode, body)
			}

			if output == "json" {
				fmt.Println(string(body))
			} else {
				var result map[string]interface{}
				if err := json.Unmarshal(body, &result); err != nil {
					return fmt.Errorf("parsing response: %w", err)
				}
				fmt.Printf("Transfer %v recorded (status: %v)\n", result["transactionId"], result["status"])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&transactionID, "transaction-id", "", "Transaction ID (required)")
	cmd.Flags().StringVar(&fromAccount, "from", "", "Source account (required)")
	cmd.Flags().StringVar(&toAccount, "to", "", "Destination account (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "Transfer amount (required)")
	cmd.Flags().StringVar(&occurredAt, "time", "", "Transfer time (defaults to now)")
	cmd.MarkFlagRequired("transaction-id")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	cmd.MarkFlagRequired("amount")
	return cmd
}

// encryptCmd はサーバーの暗号化ユーティリティAPIを呼び出すコマンド。
func encryptCmd() *cobra.Command {
	var algorithm string
	cmd := &cobra.Command{
		Use:   "encrypt [plaintext]",
		Short: "Encrypt a value using the server's encryption API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := callEncryptionAPI("encrypt-"+algorithm, map[string]string{"plaintext": args[0]})
			if err != nil {
				return err
			}
			fmt.Println(result["ciphertext"])
			return nil
		},
	}
	cmd.Flags().StringVar(&algorithm, "algorithm", "rsa", "Encryption algorithm: rsa, aes")
	return cmd
}

// decryptCmd はサーバーの復号ユーティリティAPIを呼び出すコマンド。
func decryptCmd() *cobra.Command {
	var algorithm string
	cmd := &cobra.Command{
		Use:   "decrypt [ciphertext]",
		Short: "Decrypt a value using the server's encryption API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := callEncryptionAPI("decrypt-"+algorithm, map[string]string{"ciphertext": args[0]})
			if err != nil {
				return err
			}
			fmt.Println(result["plaintext"])
			return nil
		},
	}
	cmd.Flags().StringVar(&algorithm, "algorithm", "rsa", "Decryption algorithm: rsa, aes")
	return cmd
}

// fetchPublicKeyBase64 はサーバーからRSA公開鍵（Base64 DER）を取得する。
func fetchPublicKeyBase64() (string, error) {
	if apiURL == "" {
		return "", fmt.Errorf("--api-url is required (or set TRANSFERCTL_API_URL)")
	}

	resp, err := httpClient.Get(apiURL + "/api/transactions/public-key")
	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", handleErrorResponse(resp.StatusCode, body)
	}

	var result struct {
		PublicKey string `json:"publicKey"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	return result.PublicKey, nil
}

// callEncryptionAPI は暗号化ユーティリティAPIを呼び出す。
func callEncryptionAPI(operation string, payload map[string]string) (map[string]string, error) {
	if apiURL == "" {
		return nil, fmt.Errorf("--api-url is required (or set TRANSFERCTL_API_URL)")
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/api/encryption/%s", apiURL, operation)
	resp, err := httpClient.Post(url, "application/json", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, handleErrorResponse(resp.StatusCode, body)
	}

	var result map[string]string
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return result, nil
}

func handleErrorResponse(statusCode int, body []byte) error {
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&errResp); err == nil && errResp.Message != "" {
		return fmt.Errorf("Error: %s", errResp.Message)
	}
	return fmt.Errorf("Error: server returned status %d", statusCode)
}
