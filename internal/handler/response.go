// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/bugtrack/internal/middleware"
	"github.com/hitoshi/bugtrack/internal/model"
)

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeText はプレーンテキストレスポンスを書き込む。
// 削除や開発者追加などメッセージのみを返す操作で使用する。
func writeText(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	w.Write([]byte(message))
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// エラーレスポンスの書き込みはミドルウェア層と共通のWriteErrorResponseに委譲する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		middleware.WriteErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden, model.ErrCodeNotProjectManager:
		return http.StatusForbidden
	case model.ErrCodeProjectNotFound, model.ErrCodeBugNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidToken, model.ErrCodeInvalidCredential,
		model.ErrCodeUserExists,
		model.ErrCodeDeveloperAssigned, model.ErrCodeDeveloperNotAssigned,
		model.ErrCodeInvalidRequest, model.ErrCodeInvalidRole,
		model.ErrCodeInvalidDeveloperType, model.ErrCodeInvalidBugStatus,
		model.ErrCodeInvalidImageURL:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
