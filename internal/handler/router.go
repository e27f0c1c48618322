package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bugtrack/internal/middleware"
)

// HealthChecker はヘルスチェックに必要なインターフェース。
// *sql.DB がそのまま満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	HealthChecker     HealthChecker
	TokenVerifier     middleware.TokenVerifier
	RateLimiter       *middleware.RateLimiter
	CORSAllowedOrigin string

	// メトリクス（nilの場合は無効）
	MetricsMiddleware func(next http.Handler) http.Handler
	MetricsHandler    http.Handler

	// 認証
	AuthService AuthServiceInterface

	// プロジェクト
	ProjectService ProjectServiceInterface

	// バグ
	BugService BugServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → CORS → Metrics
//
// 認証ルート（/auth/*）はIP単位のレート制限のみを適用する。
// 認証が必要なルートはトークン検証後、ユーザーID単位のレート制限を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルート共通のミドルウェア
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.MetricsMiddleware != nil {
		r.Use(deps.MetricsMiddleware)
	}

	authHandler := NewAuthHandler(deps.AuthService)
	projectHandler := NewProjectHandler(deps.ProjectService)
	bugHandler := NewBugHandler(deps.BugService)

	// --- 運用エンドポイント ---

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.HealthChecker.PingContext(r.Context()); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証不要のルート ---

	// 登録・ログイン（IP単位のレート制限）
	r.Route("/auth", func(r chi.Router) {
		r.Use(deps.RateLimiter.AuthMiddleware())

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	// プロジェクト・バグの参照と更新系のうちトークン不要のもの
	r.Get("/projects/all", projectHandler.ListAll)
	r.Get("/projects/{id}", projectHandler.Get)

	r.Get("/bugs/all", bugHandler.ListAll)
	r.Get("/bugs/{id}", bugHandler.Get)
	r.Get("/bugs/project/{projectId}", bugHandler.ListByProject)
	r.Put("/bugs/update/{id}", bugHandler.Update)
	r.Delete("/bugs/delete/{id}", bugHandler.Delete)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/projects/my-projects", projectHandler.ListMine)
		r.Get("/bugs/mybugs", bugHandler.ListMine)
		r.Post("/bugs/report", bugHandler.Report)
	})

	// --- マネージャー権限が必要なルート ---
	// ミドルウェアスタック: Auth → ManagerOnly → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		r.Use(middleware.NewManagerOnlyMiddleware())
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Post("/projects/create", projectHandler.Create)
		r.Put("/projects/update/{id}", projectHandler.Update)
		r.Delete("/projects/delete/{id}", projectHandler.Delete)
		r.Post("/projects/addDeveloper", projectHandler.AddDeveloper)
		r.Post("/projects/removeDeveloper", projectHandler.RemoveDeveloper)
	})

	return r
}
