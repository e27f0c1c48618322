package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// StatusRecorder はhttp.ResponseWriterをラップし、ステータスコードを記録する。
// ロギングとメトリクスの両ミドルウェアで共用する。
type StatusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

// NewStatusRecorder は新しいStatusRecorderを生成する。ステータスの初期値は200。
func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	return &StatusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
}

// WriteHeader はステータスコードを記録してから委譲する。
func (sr *StatusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

// Write はデータを書き込む。WriteHeaderが未呼び出しの場合は200を記録する。
func (sr *StatusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// Status は記録されたステータスコードを返す。
func (sr *StatusRecorder) Status() int {
	return sr.statusCode
}

// requestLogRecord はリクエスト1件分のログ属性を集める可変レコード。
// ロギングミドルウェアが最外層でコンテキストに設置し、内側の認証ミドルウェアが
// 検証済みのユーザーIDを書き込む。派生コンテキストへの注入では外側のロガーから
// identityが見えないため、ポインタ共有で属性を運ぶ。
type requestLogRecord struct {
	userID string
}

// requestLogContextKey はリクエストコンテキストにrequestLogRecordを格納するためのキー。
var requestLogContextKey = contextKey("request_log")

// NewLoggingMiddleware はリクエストのJSON構造化ログを出力するミドルウェアを返す。
// ログにはmethod、path、status、duration_ms、user_id（認証済みの場合）を含む。
func NewLoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := NewStatusRecorder(w)

			record := &requestLogRecord{}
			ctx := context.WithValue(r.Context(), requestLogContextKey, record)

			next.ServeHTTP(rec, r.WithContext(ctx))

			duration := time.Since(start)
			durationMs := float64(duration.Nanoseconds()) / float64(time.Millisecond)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.Status()),
				slog.Float64("duration_ms", durationMs),
			}

			// 認証ミドルウェアがレコードに書き込んだユーザーIDを追加
			if record.userID != "" {
				attrs = append(attrs, slog.String("user_id", record.userID))
			}

			// slogのログレベルをステータスコードに応じて変更
			level := slog.LevelInfo
			if rec.Status() >= 500 {
				level = slog.LevelError
			} else if rec.Status() >= 400 {
				level = slog.LevelWarn
			}

			// slog.Attr をany スライスに変換
			args := make([]any, len(attrs))
			for i, attr := range attrs {
				args[i] = attr
			}

			logger.Log(r.Context(), level, "http_request", args...)
		})
	}
}
