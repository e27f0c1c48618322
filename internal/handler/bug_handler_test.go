package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/bugtrack/internal/bug"
	"github.com/hitoshi/bugtrack/internal/model"
)

// --- モック定義 ---

// mockBugService はBugServiceInterfaceのモック実装。
type mockBugService struct {
	reportFn        func(ctx context.Context, identity model.Identity, input bug.ReportInput) (*model.Bug, error)
	listAllFn       func(ctx context.Context) ([]*model.Bug, error)
	listMineFn      func(ctx context.Context, userID string) ([]bug.AssignedDetail, error)
	getFn           func(ctx context.Context, id string) (*model.Bug, error)
	listByProjectFn func(ctx context.Context, projectID string) ([]bug.AssigneeDetail, error)
	updateFn        func(ctx context.Context, id string, patch bug.Patch) (*model.Bug, error)
	deleteFn        func(ctx context.Context, id string) error
}

func (m *mockBugService) Report(ctx context.Context, identity model.Identity, input bug.ReportInput) (*model.Bug, error) {
	if m.reportFn != nil {
		return m.reportFn(ctx, identity, input)
	}
	return &model.Bug{}, nil
}

func (m *mockBugService) ListAll(ctx context.Context) ([]*model.Bug, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return nil, nil
}

func (m *mockBugService) ListMine(ctx context.Context, userID string) ([]bug.AssignedDetail, error) {
	if m.listMineFn != nil {
		return m.listMineFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockBugService) Get(ctx context.Context, id string) (*model.Bug, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return &model.Bug{}, nil
}

func (m *mockBugService) ListByProject(ctx context.Context, projectID string) ([]bug.AssigneeDetail, error) {
	if m.listByProjectFn != nil {
		return m.listByProjectFn(ctx, projectID)
	}
	return nil, nil
}

func (m *mockBugService) Update(ctx context.Context, id string, patch bug.Patch) (*model.Bug, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, patch)
	}
	return &model.Bug{}, nil
}

func (m *mockBugService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- POST /bugs/report テスト ---

func TestBugHandler_Report_IdentityPassedToService(t *testing.T) {
	svc := &mockBugService{
		reportFn: func(ctx context.Context, identity model.Identity, input bug.ReportInput) (*model.Bug, error) {
			if identity.UserID != testDevID {
				t.Errorf("identity.UserID = %q, want %q", identity.UserID, testDevID)
			}
			return &model.Bug{
				ID:         testBugID,
				ProjectID:  input.ProjectID,
				ReportedBy: identity.UserID,
				Status:     model.BugStatusOpen,
			}, nil
		},
	}
	h := NewBugHandler(svc)

	// reportedByをボディで指定しても無視される（リクエスト型に存在しない）
	body := `{"projectId":"` + testProjectID + `","reportedBy":"attacker","priority":3}`
	req := httptest.NewRequest(http.MethodPost, "/bugs/report", strings.NewReader(body))
	req = withIdentity(req, developerIdentity())
	w := httptest.NewRecorder()

	h.Report(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var resp bugResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if resp.ReportedBy != testDevID {
		t.Errorf("reportedBy = %q, want %q", resp.ReportedBy, testDevID)
	}
}

func TestBugHandler_Report_NoIdentity_ReturnsUnauthorized(t *testing.T) {
	h := NewBugHandler(&mockBugService{})

	req := httptest.NewRequest(http.MethodPost, "/bugs/report", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	h.Report(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestBugHandler_Report_InvalidJSON(t *testing.T) {
	h := NewBugHandler(&mockBugService{})

	req := httptest.NewRequest(http.MethodPost, "/bugs/report", strings.NewReader("{invalid"))
	req = withIdentity(req, developerIdentity())
	w := httptest.NewRecorder()

	h.Report(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// --- GET /bugs/mybugs テスト ---

func TestBugHandler_ListMine_ExpandsProject(t *testing.T) {
	svc := &mockBugService{
		listMineFn: func(ctx context.Context, userID string) ([]bug.AssignedDetail, error) {
			return []bug.AssignedDetail{
				{
					Bug:         &model.Bug{ID: testBugID, ProjectID: testProjectID, AssignedTo: userID, Status: model.BugStatusOpen},
					ProjectName: "決済システム",
				},
			}, nil
		},
	}
	h := NewBugHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/bugs/mybugs", nil)
	req = withIdentity(req, developerIdentity())
	w := httptest.NewRecorder()

	h.ListMine(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp []struct {
		ID      string `json:"id"`
		Project *struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"project"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("len(resp) = %d, want 1", len(resp))
	}
	if resp[0].Project == nil || resp[0].Project.Name != "決済システム" {
		t.Errorf("project = %+v, want name 決済システム", resp[0].Project)
	}
}

func TestBugHandler_ListMine_EmptyReturnsEmptyArray(t *testing.T) {
	svc := &mockBugService{
		listMineFn: func(ctx context.Context, userID string) ([]bug.AssignedDetail, error) {
			return []bug.AssignedDetail{}, nil
		},
	}
	h := NewBugHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/bugs/mybugs", nil)
	req = withIdentity(req, developerIdentity())
	w := httptest.NewRecorder()

	h.ListMine(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

// --- GET /bugs/project/{projectId} テスト ---

func TestBugHandler_ListByProject_ExpandsAssignee(t *testing.T) {
	svc := &mockBugService{
		listByProjectFn: func(ctx context.Context, projectID string) ([]bug.AssigneeDetail, error) {
			return []bug.AssigneeDetail{
				{
					Bug:              &model.Bug{ID: testBugID, ProjectID: projectID, AssignedTo: testAssigneeID, Status: model.BugStatusOpen},
					AssignedUsername: "suzuki",
				},
			}, nil
		},
	}
	h := NewBugHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/bugs/project/"+testProjectID, nil)
	req = withURLParam(req, "projectId", testProjectID)
	w := httptest.NewRecorder()

	h.ListByProject(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp []struct {
		Assignee *struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"assignee"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("len(resp) = %d, want 1", len(resp))
	}
	if resp[0].Assignee == nil || resp[0].Assignee.Username != "suzuki" {
		t.Errorf("assignee = %+v, want username suzuki", resp[0].Assignee)
	}
}

// --- PUT /bugs/update/{id} テスト ---

func TestBugHandler_Update_DistinguishesZeroFromOmitted(t *testing.T) {
	var got bug.Patch
	svc := &mockBugService{
		updateFn: func(ctx context.Context, id string, patch bug.Patch) (*model.Bug, error) {
			got = patch
			return &model.Bug{ID: id, Status: model.BugStatusOpen}, nil
		},
	}
	h := NewBugHandler(svc)

	// priority 0 は明示的な指定、severityは未指定
	body := `{"priority":0,"status":"Resolved"}`
	req := httptest.NewRequest(http.MethodPut, "/bugs/update/"+testBugID, strings.NewReader(body))
	req = withURLParam(req, "id", testBugID)
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	if got.Priority == nil || *got.Priority != 0 {
		t.Error("priority 0 should be passed as explicit zero")
	}
	if got.Severity != nil {
		t.Error("omitted severity should be nil")
	}
	if got.Status == nil || *got.Status != "Resolved" {
		t.Errorf("status = %v, want Resolved", got.Status)
	}
}

func TestBugHandler_Update_NotFound(t *testing.T) {
	svc := &mockBugService{
		updateFn: func(ctx context.Context, id string, patch bug.Patch) (*model.Bug, error) {
			return nil, model.NewBugNotFoundError(id)
		},
	}
	h := NewBugHandler(svc)

	req := httptest.NewRequest(http.MethodPut, "/bugs/update/"+testBugID, strings.NewReader(`{}`))
	req = withURLParam(req, "id", testBugID)
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// --- DELETE /bugs/delete/{id} テスト ---

func TestBugHandler_Delete_Success(t *testing.T) {
	deleted := false
	svc := &mockBugService{
		deleteFn: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}
	h := NewBugHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/bugs/delete/"+testBugID, nil)
	req = withURLParam(req, "id", testBugID)
	w := httptest.NewRecorder()

	h.Delete(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !deleted {
		t.Error("expected Delete to be called")
	}
}

func TestBugHandler_Delete_NotFound(t *testing.T) {
	svc := &mockBugService{
		deleteFn: func(ctx context.Context, id string) error {
			return model.NewBugNotFoundError(id)
		},
	}
	h := NewBugHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/bugs/delete/"+testBugID, nil)
	req = withURLParam(req, "id", testBugID)
	w := httptest.NewRecorder()

	h.Delete(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
