// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/bugtrack/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByUsername はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// NamesByIDs は指定ID群のユーザー名（表示名）をID→nameのマップで返す。
	// 存在しないIDはマップに含まれない。
	NamesByIDs(ctx context.Context, ids []string) (map[string]string, error)

	// UsernamesByIDs は指定ID群のログイン名をID→usernameのマップで返す。
	// 存在しないIDはマップに含まれない。
	UsernamesByIDs(ctx context.Context, ids []string) (map[string]string, error)
}

// ProjectRepository はプロジェクトデータの永続化インターフェース。
// 開発者ID集合とバグID集合は常にプロジェクト本体と一緒に読み込まれる。
type ProjectRepository interface {
	// Create はプロジェクトと開発者・バグID集合を同一トランザクションで作成する。
	Create(ctx context.Context, project *model.Project) error

	// FindByID は指定IDのプロジェクトを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Project, error)

	// ListAll は全プロジェクトを返す。
	ListAll(ctx context.Context) ([]*model.Project, error)

	// ListByMember はuserIDがマネージャーまたは開発者として参加している
	// プロジェクト一覧を返す。
	ListByMember(ctx context.Context, userID string) ([]*model.Project, error)

	// UpdateDetails はプロジェクトの名前と説明のみを更新する。
	UpdateDetails(ctx context.Context, id, name, description string) error

	// Delete は指定IDのプロジェクトを削除する。
	// 関連するproject_developers、project_bugsはCASCADE削除される。
	Delete(ctx context.Context, id string) error

	// AddDeveloper は開発者をプロジェクトの開発者集合に追加する。
	AddDeveloper(ctx context.Context, projectID, developerID string) error

	// RemoveDeveloper は開発者をプロジェクトの開発者集合から削除する。
	RemoveDeveloper(ctx context.Context, projectID, developerID string) error
}

// BugRepository はバグデータの永続化インターフェース。
// コメント列は常にバグ本体と一緒に時系列順で読み込まれる。
type BugRepository interface {
	// Create はバグとコメント列を同一トランザクションで作成する。
	Create(ctx context.Context, bug *model.Bug) error

	// FindByID は指定IDのバグを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Bug, error)

	// ListAll は全バグを返す。
	ListAll(ctx context.Context) ([]*model.Bug, error)

	// ListByAssignee は指定ユーザーに割り当てられたバグ一覧を返す。
	ListByAssignee(ctx context.Context, userID string) ([]*model.Bug, error)

	// ListByProject は指定プロジェクトのバグ一覧を返す。
	ListByProject(ctx context.Context, projectID string) ([]*model.Bug, error)

	// Update はバグ本体を上書きし、コメント列を置き換える。
	// 本体とコメントは同一トランザクションで書き込む。
	Update(ctx context.Context, bug *model.Bug) error

	// Delete は指定IDのバグを削除する。
	// 関連するbug_commentsはCASCADE削除される。
	Delete(ctx context.Context, id string) error
}
