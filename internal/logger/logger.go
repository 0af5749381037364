// Package logger はJSON構造化ログの初期化を提供する。
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// RedactedValue は秘匿属性の値を置き換える文字列。
const RedactedValue = "[REDACTED]"

// sensitiveKeys はログに値を出力しない属性キー（小文字）。
// パスワード・認証トークン・接続文字列がログに残らないようにする。
var sensitiveKeys = map[string]struct{}{
	"password":       {},
	"token":          {},
	"x-auth-token":   {},
	"token_secret":   {},
	"database_url":   {},
	"cloudinary_url": {},
	"redis_url":      {},
}

// Options はロガーの設定。
type Options struct {
	Level   slog.Level
	Service string // 全ログに付与するserviceフィールド。空の場合は付与しない
}

// ParseLevel はLOG_LEVEL環境変数の値をslog.Levelに変換する。
// 未指定・不正な値の場合はInfoを返す。
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup はJSON構造化ログ出力のslog.Loggerを生成して返す。
// 秘匿属性（password、tokenなど）の値はRedactedValueに置き換えられる。
func Setup(w io.Writer, opts Options) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       opts.Level,
		ReplaceAttr: redact,
	})
	l := slog.New(handler)
	if opts.Service != "" {
		l = l.With(slog.String("service", opts.Service))
	}
	return l
}

// SetupDefault はJSON構造化ログ出力をグローバルロガーとして設定する。
// writerがnilの場合はos.Stdoutに出力する。レベルはLOG_LEVEL環境変数に従う。
func SetupDefault(w io.Writer, service string) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	l := Setup(w, Options{Level: ParseLevel(os.Getenv("LOG_LEVEL")), Service: service})
	slog.SetDefault(l)
	return l
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if _, ok := sensitiveKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, RedactedValue)
	}
	return a
}
