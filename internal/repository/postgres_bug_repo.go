package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/bugtrack/internal/model"
)

// PostgresBugRepo はPostgreSQLを使用したバグリポジトリ。
type PostgresBugRepo struct {
	db *sql.DB
}

// NewPostgresBugRepo はPostgresBugRepoを生成する。
func NewPostgresBugRepo(db *sql.DB) *PostgresBugRepo {
	return &PostgresBugRepo{db: db}
}

// Create はバグとコメント列を同一トランザクションで作成する。
func (r *PostgresBugRepo) Create(ctx context.Context, bug *model.Bug) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bugs (id, project_id, reported_by, assigned_to, priority, severity,
		                   steps_to_reproduce, image, deadline, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		bug.ID, nullableID(bug.ProjectID), nullableID(bug.ReportedBy), nullableID(bug.AssignedTo),
		bug.Priority, bug.Severity, bug.StepsToReproduce, bug.Image, bug.Deadline, bug.Status,
		bug.CreatedAt, bug.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bug: %w", err)
	}

	if err := insertComments(ctx, tx, bug.ID, bug.Comments); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// FindByID は指定IDのバグを取得する。見つからない場合はnilを返す。
func (r *PostgresBugRepo) FindByID(ctx context.Context, id string) (*model.Bug, error) {
	bug := &model.Bug{}
	var projectID, reportedBy, assignedTo sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, project_id, reported_by, assigned_to, priority, severity,
		        steps_to_reproduce, image, deadline, status, created_at, updated_at
		 FROM bugs WHERE id = $1`,
		id,
	).Scan(&bug.ID, &projectID, &reportedBy, &assignedTo, &bug.Priority, &bug.Severity,
		&bug.StepsToReproduce, &bug.Image, &bug.Deadline, &bug.Status, &bug.CreatedAt, &bug.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find bug by ID: %w", err)
	}
	bug.ProjectID = projectID.String
	bug.ReportedBy = reportedBy.String
	bug.AssignedTo = assignedTo.String

	if err := r.loadComments(ctx, bug); err != nil {
		return nil, err
	}

	return bug, nil
}

// ListAll は全バグを返す。
func (r *PostgresBugRepo) ListAll(ctx context.Context) ([]*model.Bug, error) {
	return r.list(ctx,
		`SELECT id, project_id, reported_by, assigned_to, priority, severity,
		        steps_to_reproduce, image, deadline, status, created_at, updated_at
		 FROM bugs ORDER BY created_at`,
	)
}

// ListByAssignee は指定ユーザーに割り当てられたバグ一覧を返す。
func (r *PostgresBugRepo) ListByAssignee(ctx context.Context, userID string) ([]*model.Bug, error) {
	return r.list(ctx,
		`SELECT id, project_id, reported_by, assigned_to, priority, severity,
		        steps_to_reproduce, image, deadline, status, created_at, updated_at
		 FROM bugs WHERE assigned_to = $1 ORDER BY created_at`,
		userID,
	)
}

// ListByProject は指定プロジェクトのバグ一覧を返す。
func (r *PostgresBugRepo) ListByProject(ctx context.Context, projectID string) ([]*model.Bug, error) {
	return r.list(ctx,
		`SELECT id, project_id, reported_by, assigned_to, priority, severity,
		        steps_to_reproduce, image, deadline, status, created_at, updated_at
		 FROM bugs WHERE project_id = $1 ORDER BY created_at`,
		projectID,
	)
}

// list はクエリを実行し、各バグのコメント列も読み込んで返す。
func (r *PostgresBugRepo) list(ctx context.Context, query string, args ...any) ([]*model.Bug, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bugs: %w", err)
	}
	defer rows.Close()

	bugs := []*model.Bug{}
	for rows.Next() {
		bug := &model.Bug{}
		var projectID, reportedBy, assignedTo sql.NullString
		if err := rows.Scan(&bug.ID, &projectID, &reportedBy, &assignedTo, &bug.Priority, &bug.Severity,
			&bug.StepsToReproduce, &bug.Image, &bug.Deadline, &bug.Status, &bug.CreatedAt, &bug.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bug row: %w", err)
		}
		bug.ProjectID = projectID.String
		bug.ReportedBy = reportedBy.String
		bug.AssignedTo = assignedTo.String
		bugs = append(bugs, bug)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bug rows: %w", err)
	}

	for _, bug := range bugs {
		if err := r.loadComments(ctx, bug); err != nil {
			return nil, err
		}
	}

	return bugs, nil
}

// loadComments はバグのコメント列を登録順で読み込む。
func (r *PostgresBugRepo) loadComments(ctx context.Context, bug *model.Bug) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, comment, date FROM bug_comments WHERE bug_id = $1 ORDER BY seq`,
		bug.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to load bug comments: %w", err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var comment model.Comment
		var userID sql.NullString
		if err := rows.Scan(&userID, &comment.Comment, &comment.Date); err != nil {
			return fmt.Errorf("failed to scan bug comment row: %w", err)
		}
		comment.UserID = userID.String
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate bug comment rows: %w", err)
	}

	bug.Comments = comments
	return nil
}

// Update はバグ本体を上書きし、コメント列を置き換える。
func (r *PostgresBugRepo) Update(ctx context.Context, bug *model.Bug) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE bugs SET project_id = $1, reported_by = $2, assigned_to = $3, priority = $4,
		        severity = $5, steps_to_reproduce = $6, image = $7, deadline = $8, status = $9,
		        updated_at = now()
		 WHERE id = $10`,
		nullableID(bug.ProjectID), nullableID(bug.ReportedBy), nullableID(bug.AssignedTo),
		bug.Priority, bug.Severity, bug.StepsToReproduce, bug.Image, bug.Deadline, bug.Status,
		bug.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update bug: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("bug not found: %s", bug.ID)
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM bug_comments WHERE bug_id = $1`, bug.ID)
	if err != nil {
		return fmt.Errorf("failed to delete bug comments: %w", err)
	}
	if err := insertComments(ctx, tx, bug.ID, bug.Comments); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Delete は指定IDのバグを削除する。
func (r *PostgresBugRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM bugs WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete bug: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("bug not found: %s", id)
	}
	return nil
}

// insertComments はコメント列を登録順で挿入する。
func insertComments(ctx context.Context, tx *sql.Tx, bugID string, comments []model.Comment) error {
	for _, comment := range comments {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO bug_comments (bug_id, user_id, comment, date) VALUES ($1, $2, $3, $4)`,
			bugID, nullableID(comment.UserID), comment.Comment, comment.Date,
		)
		if err != nil {
			return fmt.Errorf("failed to insert bug comment: %w", err)
		}
	}
	return nil
}

// compile-time interface check
var _ BugRepository = (*PostgresBugRepo)(nil)
