// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの役割を表す。
type Role string

const (
	// RoleManager はプロジェクトを管理するマネージャー。
	RoleManager Role = "Manager"
	// RoleDeveloper は開発者。新規登録時のデフォルト。
	RoleDeveloper Role = "Developer"
)

// Valid はRoleが定義済みの値かどうかを返す。
func (r Role) Valid() bool {
	switch r {
	case RoleManager, RoleDeveloper:
		return true
	}
	return false
}

// DeveloperType は開発者の専門分野を表す。
type DeveloperType string

const (
	DeveloperTypeFrontend  DeveloperType = "Front-end"
	DeveloperTypeBackend   DeveloperType = "Back-end"
	DeveloperTypeFullstack DeveloperType = "Full-stack"
	DeveloperTypeDevOps    DeveloperType = "DevOps"
	DeveloperTypeCloud     DeveloperType = "Cloud"
	// DeveloperTypeNone は専門分野未設定を表す。デフォルト値。
	DeveloperTypeNone DeveloperType = "none"
)

// Valid はDeveloperTypeが定義済みの値かどうかを返す。
func (d DeveloperType) Valid() bool {
	switch d {
	case DeveloperTypeFrontend, DeveloperTypeBackend, DeveloperTypeFullstack,
		DeveloperTypeDevOps, DeveloperTypeCloud, DeveloperTypeNone:
		return true
	}
	return false
}

// User はサービス利用ユーザーを表す。
// PasswordHashはAPIレスポンスに含めてはならない。
type User struct {
	ID            string
	Username      string
	PasswordHash  string
	Name          string
	Role          Role
	DeveloperType DeveloperType
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Identity は認証済みリクエストに付与されるトークンクレームを表す。
type Identity struct {
	UserID        string
	Role          Role
	DeveloperType DeveloperType
}

// IsManager はマネージャー権限を持つかどうかを返す。
func (i Identity) IsManager() bool {
	return i.Role == RoleManager
}
