// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, project, bug, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthenticated       = "UNAUTHENTICATED"
	ErrCodeInvalidToken          = "INVALID_TOKEN"
	ErrCodeInvalidCredential     = "INVALID_CREDENTIAL"
	ErrCodeForbidden             = "FORBIDDEN"
	ErrCodeNotProjectManager     = "NOT_PROJECT_MANAGER"
	ErrCodeUserExists            = "USER_ALREADY_EXISTS"
	ErrCodeProjectNotFound       = "PROJECT_NOT_FOUND"
	ErrCodeBugNotFound           = "BUG_NOT_FOUND"
	ErrCodeDeveloperAssigned     = "DEVELOPER_ALREADY_ASSIGNED"
	ErrCodeDeveloperNotAssigned  = "DEVELOPER_NOT_ASSIGNED"
	ErrCodeInvalidRequest        = "INVALID_REQUEST"
	ErrCodeInvalidRole           = "INVALID_ROLE"
	ErrCodeInvalidDeveloperType  = "INVALID_DEVELOPER_TYPE"
	ErrCodeInvalidBugStatus      = "INVALID_BUG_STATUS"
	ErrCodeInvalidImageURL       = "INVALID_IMAGE_URL"
)

// NewUnauthenticatedError は認証情報が存在しない場合のエラーを生成する。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "認証情報がありません。",
		Category: "auth",
		Action:   "Authorizationヘッダーにトークンを指定してください。",
	}
}

// NewInvalidTokenError はトークンの検証に失敗した場合のエラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "トークンが無効です。",
		Category: "auth",
		Action:   "再度ログインしてトークンを取得し直してください。",
	}
}

// NewInvalidCredentialError はログイン失敗時のエラーを生成する。
// ユーザー不在とパスワード不一致のどちらでも同一のメッセージを返し、
// どちらの検証に失敗したかを漏らさない。
func NewInvalidCredentialError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredential,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewForbiddenError はマネージャー権限が必要な操作を権限なしで実行した場合のエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作にはマネージャー権限が必要です。",
		Category: "auth",
		Action:   "マネージャーのアカウントでログインしてください。",
	}
}

// NewNotProjectManagerError はプロジェクトの作成マネージャー以外が変更を試みた場合のエラーを生成する。
func NewNotProjectManagerError() *APIError {
	return &APIError{
		Code:     ErrCodeNotProjectManager,
		Message:  "プロジェクトを変更できるのは作成したマネージャーのみです。",
		Category: "project",
		Action:   "プロジェクトの作成者に依頼してください。",
	}
}

// NewUserExistsError はユーザー名が既に登録済みの場合のエラーを生成する。
func NewUserExistsError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeUserExists,
		Message:  fmt.Sprintf("ユーザー名は既に使用されています: %s", username),
		Category: "validation",
		Action:   "別のユーザー名を指定してください。",
	}
}

// NewProjectNotFoundError はプロジェクトが見つからない場合のエラーを生成する。
func NewProjectNotFoundError(projectID string) *APIError {
	return &APIError{
		Code:     ErrCodeProjectNotFound,
		Message:  fmt.Sprintf("指定されたプロジェクトが見つかりません: %s", projectID),
		Category: "project",
		Action:   "プロジェクトIDを確認してください。",
	}
}

// NewBugNotFoundError はバグが見つからない場合のエラーを生成する。
func NewBugNotFoundError(bugID string) *APIError {
	return &APIError{
		Code:     ErrCodeBugNotFound,
		Message:  fmt.Sprintf("指定されたバグが見つかりません: %s", bugID),
		Category: "bug",
		Action:   "バグIDを確認してください。",
	}
}

// NewDeveloperAssignedError は既にプロジェクトに参加している開発者を追加しようとした場合のエラーを生成する。
func NewDeveloperAssignedError() *APIError {
	return &APIError{
		Code:     ErrCodeDeveloperAssigned,
		Message:  "この開発者は既にプロジェクトに参加しています。",
		Category: "project",
		Action:   "プロジェクトの開発者一覧を確認してください。",
	}
}

// NewDeveloperNotAssignedError はプロジェクトに参加していない開発者を削除しようとした場合のエラーを生成する。
func NewDeveloperNotAssignedError() *APIError {
	return &APIError{
		Code:     ErrCodeDeveloperNotAssigned,
		Message:  "この開発者はプロジェクトに参加していません。",
		Category: "project",
		Action:   "プロジェクトの開発者一覧を確認してください。",
	}
}

// NewInvalidRequestError はリクエストボディの解析に失敗した場合のエラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewInvalidRoleError は未定義のロールが指定された場合のエラーを生成する。
func NewInvalidRoleError(role string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRole,
		Message:  fmt.Sprintf("無効なロールです: %s", role),
		Category: "validation",
		Action:   "ロールには Manager または Developer を指定してください。",
	}
}

// NewInvalidDeveloperTypeError は未定義の専門分野が指定された場合のエラーを生成する。
func NewInvalidDeveloperTypeError(developerType string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDeveloperType,
		Message:  fmt.Sprintf("無効な開発者タイプです: %s", developerType),
		Category: "validation",
		Action:   "Front-end、Back-end、Full-stack、DevOps、Cloud、none のいずれかを指定してください。",
	}
}

// NewInvalidBugStatusError は未定義のステータスが指定された場合のエラーを生成する。
func NewInvalidBugStatusError(status string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidBugStatus,
		Message:  fmt.Sprintf("無効なステータスです: %s", status),
		Category: "validation",
		Action:   "Open、To-do、Resolved、Closed のいずれかを指定してください。",
	}
}

// NewInvalidImageURLError は画像URLが安全性検証で拒否された場合のエラーを生成する。
func NewInvalidImageURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidImageURL,
		Message:  fmt.Sprintf("無効な画像URLです: %s", reason),
		Category: "validation",
		Action:   "http:// または https:// で始まる公開URLを指定してください。",
	}
}
