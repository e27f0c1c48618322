package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/bugtrack/internal/auth"
	"github.com/hitoshi/bugtrack/internal/middleware"
	"github.com/hitoshi/bugtrack/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Register は新規ユーザーを登録する。
	Register(ctx context.Context, input auth.RegisterInput) (*model.User, error)
	// Login はユーザー名とパスワードを検証し、署名付きトークンを発行する。
	Login(ctx context.Context, username, password string) (string, error)
}

// AuthHandler は登録・ログインのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		service: service,
	}
}

// registerRequest はユーザー登録リクエストのボディ。
type registerRequest struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	DeveloperType string `json:"developerType"`
}

// registerResponse はユーザー登録のAPIレスポンス。
// パスワードおよびハッシュは決して含めない。
type registerResponse struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	DeveloperType string `json:"developerType"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse はログイン成功のAPIレスポンス。
type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// Register はユーザー登録を処理する。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	if req.Username == "" || req.Password == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	user, err := h.service.Register(r.Context(), auth.RegisterInput{
		Username:      req.Username,
		Password:      req.Password,
		Name:          req.Name,
		Role:          req.Role,
		DeveloperType: req.DeveloperType,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		ID:            user.ID,
		Username:      user.Username,
		Name:          user.Name,
		Role:          string(user.Role),
		DeveloperType: string(user.DeveloperType),
	})
}

// Login はログインを処理し、トークンを発行する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	token, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Message: "ログインしました。",
		Token:   token,
	})
}
