// Package masking はログ・エラーメッセージ向けの機密データマスキングを提供する。
//
// 口座番号・取引ID・金額・時刻は、ログやエラーメッセージに出力される前に
// 必ずこのパッケージを通すこと。暗号処理や比較に使う値には適用しない。
package masking

import (
	"regexp"
	"strings"
)

// MaskChar はマスク文字。
const MaskChar = "?"

// labelPattern は自由形式テキスト中の label=value / label: value を検出する。
// 値はカンマ・空白・閉じ括弧で終端する。
var labelPattern = regexp.MustCompile(
	`(?i)(transactionId|fromAccount|toAccount|account|amount|debit|credit|time)[=:]\s*[^,\s}]+`)

// Mask は値を同じ長さのマスク文字列に置き換える。
// 空文字列はマスク文字1文字を返す。
func Mask(value string) string {
	if value == "" {
		return MaskChar
	}
	return strings.Repeat(MaskChar, len(value))
}

// TransactionID は取引IDをマスクする。
func TransactionID(transactionID string) string {
	return Mask(transactionID)
}

// Account は口座番号をマスクする。
func Account(account string) string {
	return Mask(account)
}

// Amount は金額をマスクする。
func Amount(amount string) string {
	return Mask(amount)
}

// Time は時刻をマスクする。
func Time(time string) string {
	return Mask(time)
}

// SensitiveData は自由形式テキスト中の label=value パターンを label=? に置き換える。
// 例外メッセージなど、どのフィールドが含まれるか不明なテキストに使用する。
func SensitiveData(text string) string {
	if text == "" {
		return text
	}
	return labelPattern.ReplaceAllStringFunc(text, func(match string) string {
		idx := strings.IndexAny(match, "=:")
		return match[:idx] + "=" + MaskChar
	})
}
