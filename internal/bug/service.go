// Package bug はバグ管理のドメインロジックを提供する。
package bug

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bugtrack/internal/model"
	"github.com/hitoshi/bugtrack/internal/repository"
	"github.com/hitoshi/bugtrack/internal/security"
)

// MetricsRecorder はバグサービスが記録するメトリクスのインターフェース。
type MetricsRecorder interface {
	RecordBugReported()
}

// CommentInput はコメントの入力を表す。Dateが未指定の場合は現在時刻が入る。
type CommentInput struct {
	UserID  string
	Comment string
	Date    *time.Time
}

// ReportInput はバグ報告の入力を表す。
// 報告者IDは入力に含まれず、認証済みidentityから常に設定される。
type ReportInput struct {
	ProjectID        string
	AssignedTo       string
	Priority         int
	Severity         int
	StepsToReproduce string
	Image            string
	Deadline         *time.Time
	Status           string
	Comments         []CommentInput
}

// Patch はバグの部分更新の入力を表す。
// nilのフィールドは変更しない。ゼロ値の明示的な設定とフィールド未指定を
// 区別するためポインタで保持する。
type Patch struct {
	AssignedTo       *string
	Priority         *int
	Severity         *int
	StepsToReproduce *string
	Image            *string
	Deadline         *time.Time
	Status           *string
	Comments         *[]CommentInput
}

// AssignedDetail はバグにプロジェクト名を展開したドメインオブジェクト。
// mybugs一覧で使用する。
type AssignedDetail struct {
	Bug         *model.Bug
	ProjectName string
}

// AssigneeDetail はバグに担当者のログイン名を展開したドメインオブジェクト。
// プロジェクト別一覧で使用する。
type AssigneeDetail struct {
	Bug              *model.Bug
	AssignedUsername string
}

// Service はバグ管理のサービス層。
type Service struct {
	bugRepo     repository.BugRepository
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	sanitizer   security.ContentSanitizerService
	imageGuard  security.ImageURLGuardService
	metrics     MetricsRecorder
}

// NewService はServiceを生成する。
// metricsはnilを許容する（テスト用）。
func NewService(
	bugRepo repository.BugRepository,
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	sanitizer security.ContentSanitizerService,
	imageGuard security.ImageURLGuardService,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		bugRepo:     bugRepo,
		projectRepo: projectRepo,
		userRepo:    userRepo,
		sanitizer:   sanitizer,
		imageGuard:  imageGuard,
		metrics:     metrics,
	}
}

// Report は新規バグを作成する。
// 報告者IDはクライアント指定値に関わらず操作者のIDが設定される。
// ステータスは未指定の場合Openが入り、指定された場合は定義済みの値のみを受け付ける。
func (s *Service) Report(ctx context.Context, identity model.Identity, input ReportInput) (*model.Bug, error) {
	status := model.BugStatus(input.Status)
	if input.Status == "" {
		status = model.BugStatusOpen
	}
	if !status.Valid() {
		return nil, model.NewInvalidBugStatusError(input.Status)
	}

	if err := validateOptionalID(input.ProjectID); err != nil {
		return nil, model.NewInvalidRequestError()
	}
	if err := validateOptionalID(input.AssignedTo); err != nil {
		return nil, model.NewInvalidRequestError()
	}

	if err := s.imageGuard.ValidateURL(input.Image); err != nil {
		return nil, model.NewInvalidImageURLError(err.Error())
	}

	comments, err := s.buildComments(input.Comments)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	b := &model.Bug{
		ID:               uuid.New().String(),
		ProjectID:        input.ProjectID,
		ReportedBy:       identity.UserID,
		AssignedTo:       input.AssignedTo,
		Priority:         input.Priority,
		Severity:         input.Severity,
		StepsToReproduce: s.sanitizer.Sanitize(input.StepsToReproduce),
		Image:            input.Image,
		Deadline:         input.Deadline,
		Status:           status,
		Comments:         comments,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.bugRepo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create bug: %w", err)
	}

	slog.Info("bug reported",
		slog.String("bug_id", b.ID),
		slog.String("reported_by", b.ReportedBy),
		slog.String("project_id", b.ProjectID),
	)

	if s.metrics != nil {
		s.metrics.RecordBugReported()
	}

	return b, nil
}

// ListAll は全バグを返す。
func (s *Service) ListAll(ctx context.Context) ([]*model.Bug, error) {
	bugs, err := s.bugRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bugs: %w", err)
	}
	return bugs, nil
}

// ListMine は指定ユーザーに割り当てられたバグ一覧を、プロジェクト名を展開して返す。
func (s *Service) ListMine(ctx context.Context, userID string) ([]AssignedDetail, error) {
	bugs, err := s.bugRepo.ListByAssignee(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bugs by assignee: %w", err)
	}

	// 同一プロジェクトの重複取得を避けるため名前をキャッシュする
	projectNames := map[string]string{}
	details := make([]AssignedDetail, 0, len(bugs))
	for _, b := range bugs {
		detail := AssignedDetail{Bug: b}
		if b.ProjectID != "" {
			name, ok := projectNames[b.ProjectID]
			if !ok {
				project, err := s.projectRepo.FindByID(ctx, b.ProjectID)
				if err != nil {
					return nil, fmt.Errorf("failed to expand project name: %w", err)
				}
				if project != nil {
					name = project.Name
				}
				projectNames[b.ProjectID] = name
			}
			detail.ProjectName = name
		}
		details = append(details, detail)
	}

	return details, nil
}

// Get は指定IDのバグを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Bug, error) {
	return s.find(ctx, id)
}

// ListByProject は指定プロジェクトのバグ一覧を、担当者のログイン名を展開して返す。
// 該当がない場合は空のスライスを返す。
func (s *Service) ListByProject(ctx context.Context, projectID string) ([]AssigneeDetail, error) {
	if uuid.Validate(projectID) != nil {
		return nil, model.NewProjectNotFoundError(projectID)
	}

	bugs, err := s.bugRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bugs by project: %w", err)
	}

	assigneeIDs := make([]string, 0, len(bugs))
	for _, b := range bugs {
		if b.AssignedTo != "" {
			assigneeIDs = append(assigneeIDs, b.AssignedTo)
		}
	}

	usernames, err := s.userRepo.UsernamesByIDs(ctx, assigneeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to expand assignee usernames: %w", err)
	}

	details := make([]AssigneeDetail, len(bugs))
	for i, b := range bugs {
		details[i] = AssigneeDetail{
			Bug:              b,
			AssignedUsername: usernames[b.AssignedTo],
		}
	}

	return details, nil
}

// Update はバグを部分更新する。
// nilでないフィールドのみを適用する。ゼロ値（priority 0や空のコメント列）も
// 明示的に指定されていれば適用される。報告者IDは変更できない。
func (s *Service) Update(ctx context.Context, id string, patch Patch) (*model.Bug, error) {
	b, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Status != nil {
		status := model.BugStatus(*patch.Status)
		if !status.Valid() {
			return nil, model.NewInvalidBugStatusError(*patch.Status)
		}
		b.Status = status
	}
	if patch.AssignedTo != nil {
		if err := validateOptionalID(*patch.AssignedTo); err != nil {
			return nil, model.NewInvalidRequestError()
		}
		b.AssignedTo = *patch.AssignedTo
	}
	if patch.Priority != nil {
		b.Priority = *patch.Priority
	}
	if patch.Severity != nil {
		b.Severity = *patch.Severity
	}
	if patch.StepsToReproduce != nil {
		b.StepsToReproduce = s.sanitizer.Sanitize(*patch.StepsToReproduce)
	}
	if patch.Image != nil {
		if err := s.imageGuard.ValidateURL(*patch.Image); err != nil {
			return nil, model.NewInvalidImageURLError(err.Error())
		}
		b.Image = *patch.Image
	}
	if patch.Deadline != nil {
		b.Deadline = patch.Deadline
	}
	if patch.Comments != nil {
		comments, err := s.buildComments(*patch.Comments)
		if err != nil {
			return nil, err
		}
		b.Comments = comments
	}

	if err := s.bugRepo.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to update bug: %w", err)
	}

	return b, nil
}

// Delete はバグを削除する。
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	if err := s.bugRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete bug: %w", err)
	}

	slog.Info("bug deleted", slog.String("bug_id", id))

	return nil
}

// find はIDでバグを取得し、存在しない場合はNotFoundエラーを返す。
// ID形式が不正な場合も存在しないものとして扱う。
func (s *Service) find(ctx context.Context, id string) (*model.Bug, error) {
	if uuid.Validate(id) != nil {
		return nil, model.NewBugNotFoundError(id)
	}

	b, err := s.bugRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find bug: %w", err)
	}
	if b == nil {
		return nil, model.NewBugNotFoundError(id)
	}
	return b, nil
}

// buildComments は入力コメント列をドメインのコメント列に変換する。
// コメント本文はサニタイズし、日時未指定のコメントには現在時刻を設定する。
func (s *Service) buildComments(inputs []CommentInput) ([]model.Comment, error) {
	comments := make([]model.Comment, len(inputs))
	for i, c := range inputs {
		if err := validateOptionalID(c.UserID); err != nil {
			return nil, model.NewInvalidRequestError()
		}
		date := time.Now()
		if c.Date != nil {
			date = *c.Date
		}
		comments[i] = model.Comment{
			UserID:  c.UserID,
			Comment: s.sanitizer.Sanitize(c.Comment),
			Date:    date,
		}
	}
	return comments, nil
}

// validateOptionalID は空文字列を許容しつつ、非空の場合はUUID形式を検証する。
func validateOptionalID(id string) error {
	if id == "" {
		return nil
	}
	return uuid.Validate(id)
}
