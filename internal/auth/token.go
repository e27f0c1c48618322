package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/bugtrack/internal/model"
)

// Claims はトークンに埋め込むクレームを表す。
// 標準クレームに加えてユーザーID・ロール・開発者タイプを保持する。
type Claims struct {
	jwt.RegisteredClaims
	UserID        string `json:"user_id"`
	Role          string `json:"role"`
	DeveloperType string `json:"developer_type"`
}

// TokenManager はHS256署名付きトークンの発行と検証を行う。
// 署名シークレットと有効期間はプロセス全体で共有される設定値。
type TokenManager struct {
	secret []byte
	expiry time.Duration
}

// NewTokenManager はTokenManagerを生成する。
func NewTokenManager(secret string, expiry time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		expiry: expiry,
	}
}

// Issue はidentityを埋め込んだ署名付きトークンを発行する。
func (m *TokenManager) Issue(identity model.Identity) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
		UserID:        identity.UserID,
		Role:          string(identity.Role),
		DeveloperType: string(identity.DeveloperType),
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify はトークンの署名と有効期限を検証し、埋め込まれたidentityを返す。
// 署名不正・期限切れの場合はエラーを返す。
func (m *TokenManager) Verify(tokenString string) (*model.Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}

	return &model.Identity{
		UserID:        claims.UserID,
		Role:          model.Role(claims.Role),
		DeveloperType: model.DeveloperType(claims.DeveloperType),
	}, nil
}
