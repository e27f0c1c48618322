package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bugtrack/internal/model"
	"github.com/hitoshi/bugtrack/internal/repository"
)

// MetricsRecorder は認証サービスが記録するメトリクスのインターフェース。
type MetricsRecorder interface {
	RecordUserRegistered()
	RecordLogin()
}

// RegisterInput はユーザー登録の入力を表す。
type RegisterInput struct {
	Username      string
	Password      string
	Name          string
	Role          string
	DeveloperType string
}

// Service は登録・ログインのビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	tokens   *TokenManager
	metrics  MetricsRecorder
}

// NewService はServiceを生成する。
// metricsはnilを許容する（テスト用）。
func NewService(userRepo repository.UserRepository, tokens *TokenManager, metrics MetricsRecorder) *Service {
	return &Service{
		userRepo: userRepo,
		tokens:   tokens,
		metrics:  metrics,
	}
}

// Register は新規ユーザーを登録する。
// ユーザー名が既に存在する場合はエラーを返す。
// ロールと開発者タイプは未指定の場合デフォルト値（Developer / none）が入り、
// 指定された場合は定義済みの値のみを受け付ける。
func (s *Service) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	role := model.Role(input.Role)
	if input.Role == "" {
		role = model.RoleDeveloper
	}
	if !role.Valid() {
		return nil, model.NewInvalidRoleError(input.Role)
	}

	developerType := model.DeveloperType(input.DeveloperType)
	if input.DeveloperType == "" {
		developerType = model.DeveloperTypeNone
	}
	if !developerType.Valid() {
		return nil, model.NewInvalidDeveloperTypeError(input.DeveloperType)
	}

	existing, err := s.userRepo.FindByUsername(ctx, input.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, model.NewUserExistsError(input.Username)
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &model.User{
		ID:            uuid.New().String(),
		Username:      input.Username,
		PasswordHash:  hash,
		Name:          input.Name,
		Role:          role,
		DeveloperType: developerType,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)

	if s.metrics != nil {
		s.metrics.RecordUserRegistered()
	}

	return user, nil
}

// Login はユーザー名とパスワードを検証し、署名付きトークンを発行する。
// ユーザー不在とパスワード不一致は同一のエラーを返す。
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return "", model.NewInvalidCredentialError()
	}

	if !VerifyPassword(user.PasswordHash, password) {
		return "", model.NewInvalidCredentialError()
	}

	token, err := s.tokens.Issue(model.Identity{
		UserID:        user.ID,
		Role:          user.Role,
		DeveloperType: user.DeveloperType,
	})
	if err != nil {
		return "", err
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))

	if s.metrics != nil {
		s.metrics.RecordLogin()
	}

	return token, nil
}
