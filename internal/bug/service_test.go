package bug

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/bugtrack/internal/model"
	"github.com/hitoshi/bugtrack/internal/security"
)

// UUID形式のテスト用ID
const (
	testBugID      = "11111111-1111-1111-1111-111111111111"
	testProjectID  = "22222222-2222-2222-2222-222222222222"
	testReporterID = "33333333-3333-3333-3333-333333333333"
	testAssigneeID = "44444444-4444-4444-4444-444444444444"
)

// --- モック定義 ---

// mockBugRepo はrepository.BugRepositoryのモック実装。
type mockBugRepo struct {
	createFn         func(ctx context.Context, bug *model.Bug) error
	findByIDFn       func(ctx context.Context, id string) (*model.Bug, error)
	listAllFn        func(ctx context.Context) ([]*model.Bug, error)
	listByAssigneeFn func(ctx context.Context, userID string) ([]*model.Bug, error)
	listByProjectFn  func(ctx context.Context, projectID string) ([]*model.Bug, error)
	updateFn         func(ctx context.Context, bug *model.Bug) error
	deleteFn         func(ctx context.Context, id string) error
}

func (m *mockBugRepo) Create(ctx context.Context, bug *model.Bug) error {
	if m.createFn != nil {
		return m.createFn(ctx, bug)
	}
	return nil
}

func (m *mockBugRepo) FindByID(ctx context.Context, id string) (*model.Bug, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockBugRepo) ListAll(ctx context.Context) ([]*model.Bug, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return nil, nil
}

func (m *mockBugRepo) ListByAssignee(ctx context.Context, userID string) ([]*model.Bug, error) {
	if m.listByAssigneeFn != nil {
		return m.listByAssigneeFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockBugRepo) ListByProject(ctx context.Context, projectID string) ([]*model.Bug, error) {
	if m.listByProjectFn != nil {
		return m.listByProjectFn(ctx, projectID)
	}
	return nil, nil
}

func (m *mockBugRepo) Update(ctx context.Context, bug *model.Bug) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, bug)
	}
	return nil
}

func (m *mockBugRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// mockProjectRepo はrepository.ProjectRepositoryのモック実装。
// バグサービスはFindByIDのみ使用する。
type mockProjectRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Project, error)
}

func (m *mockProjectRepo) Create(ctx context.Context, project *model.Project) error { return nil }

func (m *mockProjectRepo) FindByID(ctx context.Context, id string) (*model.Project, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockProjectRepo) ListAll(ctx context.Context) ([]*model.Project, error) { return nil, nil }

func (m *mockProjectRepo) ListByMember(ctx context.Context, userID string) ([]*model.Project, error) {
	return nil, nil
}

func (m *mockProjectRepo) UpdateDetails(ctx context.Context, id, name, description string) error {
	return nil
}

func (m *mockProjectRepo) Delete(ctx context.Context, id string) error { return nil }

func (m *mockProjectRepo) AddDeveloper(ctx context.Context, projectID, developerID string) error {
	return nil
}

func (m *mockProjectRepo) RemoveDeveloper(ctx context.Context, projectID, developerID string) error {
	return nil
}

// mockUserRepo はrepository.UserRepositoryのモック実装。
type mockUserRepo struct {
	usernamesByIDsFn func(ctx context.Context, ids []string) (map[string]string, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error { return nil }

func (m *mockUserRepo) NamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	return map[string]string{}, nil
}

func (m *mockUserRepo) UsernamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	if m.usernamesByIDsFn != nil {
		return m.usernamesByIDsFn(ctx, ids)
	}
	return map[string]string{}, nil
}

func newTestService(bugRepo *mockBugRepo, projectRepo *mockProjectRepo, userRepo *mockUserRepo) *Service {
	return NewService(
		bugRepo, projectRepo, userRepo,
		security.NewContentSanitizer(),
		security.NewImageURLGuard(),
		nil,
	)
}

func reporterIdentity() model.Identity {
	return model.Identity{UserID: testReporterID, Role: model.RoleDeveloper}
}

func existingBug() *model.Bug {
	return &model.Bug{
		ID:               testBugID,
		ProjectID:        testProjectID,
		ReportedBy:       testReporterID,
		AssignedTo:       testAssigneeID,
		Priority:         3,
		Severity:         2,
		StepsToReproduce: "ログイン後に500エラー",
		Status:           model.BugStatusOpen,
	}
}

func assertAPIErrorCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != wantCode {
		t.Errorf("error code = %q, want %q", apiErr.Code, wantCode)
	}
}

// --- Report テスト ---

func TestService_Report_ReportedByForcedFromIdentity(t *testing.T) {
	var created *model.Bug
	repo := &mockBugRepo{
		createFn: func(ctx context.Context, bug *model.Bug) error {
			created = bug
			return nil
		},
	}
	svc := newTestService(repo, &mockProjectRepo{}, &mockUserRepo{})

	b, err := svc.Report(context.Background(), reporterIdentity(), ReportInput{
		ProjectID:        testProjectID,
		StepsToReproduce: "ログイン後に500エラー",
	})
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	if b.ReportedBy != testReporterID {
		t.Errorf("ReportedBy = %q, want %q", b.ReportedBy, testReporterID)
	}
	if created == nil {
		t.Fatal("expected Create to be called")
	}
}

func TestService_Report_DefaultStatusOpen(t *testing.T) {
	svc := newTestService(&mockBugRepo{}, &mockProjectRepo{}, &mockUserRepo{})

	b, err := svc.Report(context.Background(), reporterIdentity(), ReportInput{})
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	if b.Status != model.BugStatusOpen {
		t.Errorf("Status = %q, want Open", b.Status)
	}
}

func TestService_Report_InvalidStatus(t *testing.T) {
	svc := newTestService(&mockBugRepo{}, &mockProjectRepo{}, &mockUserRepo{})

	_, err := svc.Report(context.Background(), reporterIdentity(), ReportInput{
		Status: "InProgress",
	})

	assertAPIErrorCode(t, err, model.ErrCodeInvalidBugStatus)
}

func TestService_Report_SanitizesStepsAndComments(t *testing.T) {
	svc := newTestService(&mockBugRepo{}, &mockProjectRepo{}, &mockUserRepo{})

	b, err := svc.Report(context.Background(), reporterIdentity(), ReportInput{
		StepsToReproduce: `<p>手順</p><script>alert(1)</script>`,
		Comments: []CommentInput{
			{UserID: testAssigneeID, Comment: `<strong>重要</strong><script>x()</script>`},
		},
	})
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	if b.StepsToReproduce != "<p>手順</p>" {
		t.Errorf("StepsToReproduce = %q, script should be removed", b.StepsToReproduce)
	}
	if len(b.Comments) != 1 || b.Comments[0].Comment != "<strong>重要</strong>" {
		t.Errorf("Comments = %+v, script should be removed", b.Comments)
	}
}

func TestService_Report_CommentDateDefaultsToNow(t *testing.T) {
	svc := newTestService(&mockBugRepo{}, &mockProjectRepo{}, &mockUserRepo{})

	before := time.Now()
	b, err := svc.Report(context.Background(), reporterIdentity(), ReportInput{
		Comments: []CommentInput{{UserID: testAssigneeID, Comment: "最初のコメント"}},
	})
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	if b.Comments[0].Date.Before(before) {
		t.Errorf("comment date %v should not be before %v", b.Comments[0].Date, before)
	}
}

func TestService_Report_RejectsUnsafeImageURL(t *testing.T) {
	svc := newTestService(&mockBugRepo{}, &mockProjectRepo{}, &mockUserRepo{})

	_, err := svc.Report(context.Background(), reporterIdentity(), ReportInput{
		Image: "http://169.254.169.254/latest/meta-data/",
	})

	assertAPIErrorCode(t, err, model.ErrCodeInvalidImageURL)
}

func TestService_Report_InvalidProjectID(t *testing.T) {
	svc := newTestService(&mockBugRepo{}, &mockProjectRepo{}, &mockUserRepo{})

	_, err := svc.Report(context.Background(), reporterIdentity(), ReportInput{
		ProjectID: "not-a-uuid",
	})

	assertAPIErrorCode(t, err, model.ErrCodeInvalidRequest)
}

// --- ListMine テスト ---

func TestService_ListMine_ExpandsProjectName(t *testing.T) {
	bugRepo := &mockBugRepo{
		listByAssigneeFn: func(ctx context.Context, userID string) ([]*model.Bug, error) {
			return []*model.Bug{existingBug()}, nil
		},
	}
	projectRepo := &mockProjectRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Project, error) {
			return &model.Project{ID: id, Name: "決済システム"}, nil
		},
	}
	svc := newTestService(bugRepo, projectRepo, &mockUserRepo{})

	details, err := svc.ListMine(context.Background(), testAssigneeID)
	if err != nil {
		t.Fatalf("ListMine() error = %v", err)
	}

	if len(details) != 1 {
		t.Fatalf("len(details) = %d, want 1", len(details))
	}
	if details[0].ProjectName != "決済システム" {
		t.Errorf("ProjectName = %q, want 決済システム", details[0].ProjectName)
	}
}

func TestService_ListMine_NoBugs_ReturnsEmptySlice(t *testing.T) {
	svc := newTestService(&mockBugRepo{}, &mockProjectRepo{}, &mockUserRepo{})

	details, err := svc.ListMine(context.Background(), testAssigneeID)
	if err != nil {
		t.Fatalf("ListMine() error = %v", err)
	}

	// エラーではなく空のスライスを返す
	if details == nil || len(details) != 0 {
		t.Errorf("details = %v, want empty slice", details)
	}
}

// --- ListByProject テスト ---

func TestService_ListByProject_ExpandsAssigneeUsername(t *testing.T) {
	bugRepo := &mockBugRepo{
		listByProjectFn: func(ctx context.Context, projectID string) ([]*model.Bug, error) {
			return []*model.Bug{existingBug()}, nil
		},
	}
	userRepo := &mockUserRepo{
		usernamesByIDsFn: func(ctx context.Context, ids []string) (map[string]string, error) {
			return map[string]string{testAssigneeID: "suzuki"}, nil
		},
	}
	svc := newTestService(bugRepo, &mockProjectRepo{}, userRepo)

	details, err := svc.ListByProject(context.Background(), testProjectID)
	if err != nil {
		t.Fatalf("ListByProject() error = %v", err)
	}

	if len(details) != 1 {
		t.Fatalf("len(details) = %d, want 1", len(details))
	}
	if details[0].AssignedUsername != "suzuki" {
		t.Errorf("AssignedUsername = %q, want suzuki", details[0].AssignedUsername)
	}
}

func TestService_ListByProject_MalformedProjectID(t *testing.T) {
	svc := newTestService(&mockBugRepo{}, &mockProjectRepo{}, &mockUserRepo{})

	_, err := svc.ListByProject(context.Background(), "not-a-uuid")
	assertAPIErrorCode(t, err, model.ErrCodeProjectNotFound)
}

// --- Update テスト ---

func TestService_Update_AppliesOnlySpecifiedFields(t *testing.T) {
	repo := &mockBugRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Bug, error) {
			return existingBug(), nil
		},
	}
	svc := newTestService(repo, &mockProjectRepo{}, &mockUserRepo{})

	status := "Resolved"
	b, err := svc.Update(context.Background(), testBugID, Patch{Status: &status})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if b.Status != model.BugStatusResolved {
		t.Errorf("Status = %q, want Resolved", b.Status)
	}
	// 未指定のフィールドは変更されない
	if b.Priority != 3 {
		t.Errorf("Priority = %d, should be unchanged", b.Priority)
	}
	if b.StepsToReproduce != "ログイン後に500エラー" {
		t.Errorf("StepsToReproduce = %q, should be unchanged", b.StepsToReproduce)
	}
}

func TestService_Update_ZeroValueExplicitlyApplied(t *testing.T) {
	repo := &mockBugRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Bug, error) {
			return existingBug(), nil
		},
	}
	svc := newTestService(repo, &mockProjectRepo{}, &mockUserRepo{})

	// priority 0 の明示的な指定は適用される
	zero := 0
	empty := []CommentInput{}
	b, err := svc.Update(context.Background(), testBugID, Patch{
		Priority: &zero,
		Comments: &empty,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if b.Priority != 0 {
		t.Errorf("Priority = %d, want 0", b.Priority)
	}
	if len(b.Comments) != 0 {
		t.Errorf("Comments = %v, want empty", b.Comments)
	}
}

func TestService_Update_ReportedByUnchanged(t *testing.T) {
	var updated *model.Bug
	repo := &mockBugRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Bug, error) {
			return existingBug(), nil
		},
		updateFn: func(ctx context.Context, bug *model.Bug) error {
			updated = bug
			return nil
		},
	}
	svc := newTestService(repo, &mockProjectRepo{}, &mockUserRepo{})

	assignee := testReporterID
	if _, err := svc.Update(context.Background(), testBugID, Patch{AssignedTo: &assignee}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.ReportedBy != testReporterID {
		t.Errorf("ReportedBy = %q, should never change", updated.ReportedBy)
	}
}

func TestService_Update_InvalidStatus(t *testing.T) {
	repo := &mockBugRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Bug, error) {
			return existingBug(), nil
		},
	}
	svc := newTestService(repo, &mockProjectRepo{}, &mockUserRepo{})

	status := "Done"
	_, err := svc.Update(context.Background(), testBugID, Patch{Status: &status})
	assertAPIErrorCode(t, err, model.ErrCodeInvalidBugStatus)
}

func TestService_Update_NotFound(t *testing.T) {
	svc := newTestService(&mockBugRepo{}, &mockProjectRepo{}, &mockUserRepo{})

	_, err := svc.Update(context.Background(), testBugID, Patch{})
	assertAPIErrorCode(t, err, model.ErrCodeBugNotFound)
}

// --- Delete テスト ---

func TestService_Delete_Success(t *testing.T) {
	deleted := false
	repo := &mockBugRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Bug, error) {
			return existingBug(), nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}
	svc := newTestService(repo, &mockProjectRepo{}, &mockUserRepo{})

	if err := svc.Delete(context.Background(), testBugID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !deleted {
		t.Error("expected Delete to be called on repo")
	}
}

func TestService_Delete_NotFound(t *testing.T) {
	svc := newTestService(&mockBugRepo{}, &mockProjectRepo{}, &mockUserRepo{})

	err := svc.Delete(context.Background(), testBugID)
	assertAPIErrorCode(t, err, model.ErrCodeBugNotFound)
}

func TestService_Get_MalformedID_TreatedAsNotFound(t *testing.T) {
	svc := newTestService(&mockBugRepo{}, &mockProjectRepo{}, &mockUserRepo{})

	_, err := svc.Get(context.Background(), "not-a-uuid")
	assertAPIErrorCode(t, err, model.ErrCodeBugNotFound)
}
