package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/bugtrack/internal/model"
)

// PostgresProjectRepo はPostgreSQLを使用したプロジェクトリポジトリ。
type PostgresProjectRepo struct {
	db *sql.DB
}

// NewPostgresProjectRepo はPostgresProjectRepoを生成する。
func NewPostgresProjectRepo(db *sql.DB) *PostgresProjectRepo {
	return &PostgresProjectRepo{db: db}
}

// nullableID は空文字列をNULLとして書き込むための変換を行う。
func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}

// Create はプロジェクトと開発者・バグID集合を同一トランザクションで作成する。
func (r *PostgresProjectRepo) Create(ctx context.Context, project *model.Project) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO projects (id, name, description, manager_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		project.ID, project.Name, project.Description, nullableID(project.ManagerID), project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}

	for _, developerID := range project.Developers {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO project_developers (project_id, developer_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			project.ID, developerID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert project developer: %w", err)
		}
	}

	for _, bugID := range project.Bugs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO project_bugs (project_id, bug_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			project.ID, bugID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert project bug: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// FindByID は指定IDのプロジェクトを取得する。見つからない場合はnilを返す。
func (r *PostgresProjectRepo) FindByID(ctx context.Context, id string) (*model.Project, error) {
	project := &model.Project{}
	var managerID sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, manager_id, created_at, updated_at
		 FROM projects WHERE id = $1`,
		id,
	).Scan(&project.ID, &project.Name, &project.Description, &managerID, &project.CreatedAt, &project.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find project by ID: %w", err)
	}
	project.ManagerID = managerID.String

	if err := r.loadSets(ctx, project); err != nil {
		return nil, err
	}

	return project, nil
}

// ListAll は全プロジェクトを返す。
func (r *PostgresProjectRepo) ListAll(ctx context.Context) ([]*model.Project, error) {
	return r.list(ctx,
		`SELECT id, name, description, manager_id, created_at, updated_at
		 FROM projects ORDER BY created_at`,
	)
}

// ListByMember はuserIDがマネージャーまたは開発者として参加しているプロジェクト一覧を返す。
func (r *PostgresProjectRepo) ListByMember(ctx context.Context, userID string) ([]*model.Project, error) {
	return r.list(ctx,
		`SELECT p.id, p.name, p.description, p.manager_id, p.created_at, p.updated_at
		 FROM projects p
		 WHERE p.manager_id = $1
		    OR EXISTS (
		        SELECT 1 FROM project_developers pd
		        WHERE pd.project_id = p.id AND pd.developer_id = $1
		    )
		 ORDER BY p.created_at`,
		userID,
	)
}

// list はクエリを実行し、各プロジェクトのID集合も読み込んで返す。
func (r *PostgresProjectRepo) list(ctx context.Context, query string, args ...any) ([]*model.Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	projects := []*model.Project{}
	for rows.Next() {
		project := &model.Project{}
		var managerID sql.NullString
		if err := rows.Scan(&project.ID, &project.Name, &project.Description, &managerID, &project.CreatedAt, &project.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project row: %w", err)
		}
		project.ManagerID = managerID.String
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate project rows: %w", err)
	}

	for _, project := range projects {
		if err := r.loadSets(ctx, project); err != nil {
			return nil, err
		}
	}

	return projects, nil
}

// loadSets はプロジェクトの開発者ID集合とバグID集合を読み込む。
func (r *PostgresProjectRepo) loadSets(ctx context.Context, project *model.Project) error {
	developers, err := r.idSet(ctx,
		`SELECT developer_id FROM project_developers WHERE project_id = $1`,
		project.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to load project developers: %w", err)
	}
	project.Developers = developers

	bugs, err := r.idSet(ctx,
		`SELECT bug_id FROM project_bugs WHERE project_id = $1`,
		project.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to load project bugs: %w", err)
	}
	project.Bugs = bugs

	return nil
}

// idSet は単一カラムのID一覧を返す。
func (r *PostgresProjectRepo) idSet(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateDetails はプロジェクトの名前と説明のみを更新する。
func (r *PostgresProjectRepo) UpdateDetails(ctx context.Context, id, name, description string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE projects SET name = $1, description = $2, updated_at = now() WHERE id = $3`,
		name, description, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("project not found: %s", id)
	}
	return nil
}

// Delete は指定IDのプロジェクトを削除する。
// 関連するproject_developers、project_bugsはCASCADE削除される。
func (r *PostgresProjectRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM projects WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("project not found: %s", id)
	}
	return nil
}

// AddDeveloper は開発者をプロジェクトの開発者集合に追加する。
func (r *PostgresProjectRepo) AddDeveloper(ctx context.Context, projectID, developerID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO project_developers (project_id, developer_id) VALUES ($1, $2)`,
		projectID, developerID,
	)
	if err != nil {
		return fmt.Errorf("failed to add project developer: %w", err)
	}
	return nil
}

// RemoveDeveloper は開発者をプロジェクトの開発者集合から削除する。
func (r *PostgresProjectRepo) RemoveDeveloper(ctx context.Context, projectID, developerID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM project_developers WHERE project_id = $1 AND developer_id = $2`,
		projectID, developerID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove project developer: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ProjectRepository = (*PostgresProjectRepo)(nil)
