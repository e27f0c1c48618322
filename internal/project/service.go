// Package project はプロジェクト管理のドメインロジックを提供する。
package project

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bugtrack/internal/model"
	"github.com/hitoshi/bugtrack/internal/repository"
)

// MetricsRecorder はプロジェクトサービスが記録するメトリクスのインターフェース。
type MetricsRecorder interface {
	RecordProjectCreated()
}

// CreateInput はプロジェクト作成の入力を表す。
// DevelopersとBugsはクライアント指定のID集合をそのまま受け取る。
// IDの実在確認は行わない（参照整合性は規約レベル）。
type CreateInput struct {
	Name        string
	Description string
	Developers  []string
	Bugs        []string
}

// MemberInfo は名前展開済みのユーザー参照を表す。
type MemberInfo struct {
	ID   string
	Name string
}

// Detail はプロジェクトにマネージャー・開発者の名前を展開したドメインオブジェクト。
// my-projects一覧で使用する。
type Detail struct {
	Project    *model.Project
	Manager    *MemberInfo
	Developers []MemberInfo
}

// Service はプロジェクト管理のサービス層。
// すべての変更操作はCanMutateProjectによる所有者チェックを通る。
type Service struct {
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	metrics     MetricsRecorder
}

// NewService はServiceを生成する。
// metricsはnilを許容する（テスト用）。
func NewService(projectRepo repository.ProjectRepository, userRepo repository.UserRepository, metrics MetricsRecorder) *Service {
	return &Service{
		projectRepo: projectRepo,
		userRepo:    userRepo,
		metrics:     metrics,
	}
}

// Create は新規プロジェクトを作成する。
// マネージャーIDは操作者のIDが設定され、クライアントからは指定できない。
func (s *Service) Create(ctx context.Context, identity model.Identity, input CreateInput) (*model.Project, error) {
	if err := validateIDs(input.Developers); err != nil {
		return nil, model.NewInvalidRequestError()
	}
	if err := validateIDs(input.Bugs); err != nil {
		return nil, model.NewInvalidRequestError()
	}

	now := time.Now()
	project := &model.Project{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Description: input.Description,
		ManagerID:   identity.UserID,
		Developers:  dedupe(input.Developers),
		Bugs:        dedupe(input.Bugs),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	slog.Info("project created",
		slog.String("project_id", project.ID),
		slog.String("manager_id", project.ManagerID),
	)

	if s.metrics != nil {
		s.metrics.RecordProjectCreated()
	}

	return project, nil
}

// ListAll は全プロジェクトを返す。
func (s *Service) ListAll(ctx context.Context) ([]*model.Project, error) {
	projects, err := s.projectRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// ListMine はuserIDがマネージャーまたは開発者として参加しているプロジェクト一覧を、
// マネージャー・開発者の名前を展開して返す。該当がない場合は空のスライスを返す。
func (s *Service) ListMine(ctx context.Context, userID string) ([]Detail, error) {
	projects, err := s.projectRepo.ListByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects by member: %w", err)
	}

	details := make([]Detail, 0, len(projects))
	for _, p := range projects {
		detail, err := s.expand(ctx, p)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}

	return details, nil
}

// expand はプロジェクトのマネージャー・開発者参照を名前付きで展開する。
func (s *Service) expand(ctx context.Context, p *model.Project) (Detail, error) {
	ids := make([]string, 0, len(p.Developers)+1)
	if p.ManagerID != "" {
		ids = append(ids, p.ManagerID)
	}
	ids = append(ids, p.Developers...)

	names, err := s.userRepo.NamesByIDs(ctx, ids)
	if err != nil {
		return Detail{}, fmt.Errorf("failed to expand member names: %w", err)
	}

	detail := Detail{Project: p}
	if p.ManagerID != "" {
		detail.Manager = &MemberInfo{ID: p.ManagerID, Name: names[p.ManagerID]}
	}
	detail.Developers = make([]MemberInfo, len(p.Developers))
	for i, id := range p.Developers {
		detail.Developers[i] = MemberInfo{ID: id, Name: names[id]}
	}

	return detail, nil
}

// Get は指定IDのプロジェクトを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Project, error) {
	project, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return project, nil
}

// UpdateDetails はプロジェクトの名前と説明を更新する。
// 変更できるのは作成したマネージャー本人のみ。
func (s *Service) UpdateDetails(ctx context.Context, identity model.Identity, id, name, description string) (*model.Project, error) {
	project, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if !model.CanMutateProject(identity, project) {
		return nil, model.NewNotProjectManagerError()
	}

	if err := s.projectRepo.UpdateDetails(ctx, id, name, description); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	project.Name = name
	project.Description = description
	return project, nil
}

// Delete はプロジェクトを削除する。
// 削除できるのは作成したマネージャー本人のみ。
func (s *Service) Delete(ctx context.Context, identity model.Identity, id string) error {
	project, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if !model.CanMutateProject(identity, project) {
		return model.NewNotProjectManagerError()
	}

	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	slog.Info("project deleted",
		slog.String("project_id", id),
		slog.String("manager_id", identity.UserID),
	)

	return nil
}

// AddDeveloper は開発者をプロジェクトに追加する。
// 既に参加している場合はエラーを返し、集合は変更しない。
func (s *Service) AddDeveloper(ctx context.Context, identity model.Identity, projectID, developerID string) error {
	if uuid.Validate(developerID) != nil {
		return model.NewInvalidRequestError()
	}

	project, err := s.find(ctx, projectID)
	if err != nil {
		return err
	}

	if !model.CanMutateProject(identity, project) {
		return model.NewNotProjectManagerError()
	}

	if project.HasDeveloper(developerID) {
		return model.NewDeveloperAssignedError()
	}

	if err := s.projectRepo.AddDeveloper(ctx, projectID, developerID); err != nil {
		return fmt.Errorf("failed to add developer: %w", err)
	}

	return nil
}

// RemoveDeveloper は開発者をプロジェクトから削除する。
// 参加していない場合はエラーを返し、集合は変更しない。
func (s *Service) RemoveDeveloper(ctx context.Context, identity model.Identity, projectID, developerID string) error {
	if uuid.Validate(developerID) != nil {
		return model.NewInvalidRequestError()
	}

	project, err := s.find(ctx, projectID)
	if err != nil {
		return err
	}

	if !model.CanMutateProject(identity, project) {
		return model.NewNotProjectManagerError()
	}

	if !project.HasDeveloper(developerID) {
		return model.NewDeveloperNotAssignedError()
	}

	if err := s.projectRepo.RemoveDeveloper(ctx, projectID, developerID); err != nil {
		return fmt.Errorf("failed to remove developer: %w", err)
	}

	return nil
}

// find はIDでプロジェクトを取得し、存在しない場合はNotFoundエラーを返す。
// ID形式が不正な場合も存在しないものとして扱う。
func (s *Service) find(ctx context.Context, id string) (*model.Project, error) {
	if uuid.Validate(id) != nil {
		return nil, model.NewProjectNotFoundError(id)
	}

	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	if project == nil {
		return nil, model.NewProjectNotFoundError(id)
	}
	return project, nil
}

// validateIDs はID集合の各要素がUUID形式であることを検証する。
func validateIDs(ids []string) error {
	for _, id := range ids {
		if err := uuid.Validate(id); err != nil {
			return err
		}
	}
	return nil
}

// dedupe はID集合から重複を取り除く。順序は保持する。
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
