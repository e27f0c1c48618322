package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bugtrack/internal/middleware"
	"github.com/hitoshi/bugtrack/internal/model"
	"github.com/hitoshi/bugtrack/internal/project"
)

// ProjectServiceInterface はプロジェクトハンドラーが必要とするサービスインターフェース。
type ProjectServiceInterface interface {
	// Create は新規プロジェクトを作成する。マネージャーIDは操作者のIDが設定される。
	Create(ctx context.Context, identity model.Identity, input project.CreateInput) (*model.Project, error)
	// ListAll は全プロジェクトを返す。
	ListAll(ctx context.Context) ([]*model.Project, error)
	// ListMine は操作者が参加しているプロジェクト一覧を名前展開付きで返す。
	ListMine(ctx context.Context, userID string) ([]project.Detail, error)
	// Get は指定IDのプロジェクトを返す。
	Get(ctx context.Context, id string) (*model.Project, error)
	// UpdateDetails はプロジェクトの名前と説明を更新する。
	UpdateDetails(ctx context.Context, identity model.Identity, id, name, description string) (*model.Project, error)
	// Delete はプロジェクトを削除する。
	Delete(ctx context.Context, identity model.Identity, id string) error
	// AddDeveloper は開発者をプロジェクトに追加する。
	AddDeveloper(ctx context.Context, identity model.Identity, projectID, developerID string) error
	// RemoveDeveloper は開発者をプロジェクトから削除する。
	RemoveDeveloper(ctx context.Context, identity model.Identity, projectID, developerID string) error
}

// ProjectHandler はプロジェクト管理のHTTPハンドラー。
type ProjectHandler struct {
	service ProjectServiceInterface
}

// NewProjectHandler はProjectHandlerを生成する。
func NewProjectHandler(service ProjectServiceInterface) *ProjectHandler {
	return &ProjectHandler{
		service: service,
	}
}

// createProjectRequest はプロジェクト作成リクエストのボディ。
type createProjectRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Developers  []string `json:"developers"`
	Bugs        []string `json:"bugs"`
}

// updateProjectRequest はプロジェクト更新リクエストのボディ。
// 名前と説明のみ変更可能。
type updateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// memberRequest は開発者追加・削除リクエストのボディ。
type memberRequest struct {
	ProjectID   string `json:"projectId"`
	DeveloperID string `json:"developerId"`
}

// projectResponse はプロジェクト情報のAPIレスポンス。
type projectResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ManagerID   string   `json:"managerId"`
	Developers  []string `json:"developers"`
	Bugs        []string `json:"bugs"`
}

// memberResponse は名前展開済みのユーザー参照のAPIレスポンス。
type memberResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// projectDetailResponse はマネージャー・開発者の名前を展開したプロジェクトのAPIレスポンス。
type projectDetailResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Manager     *memberResponse  `json:"manager"`
	Developers  []memberResponse `json:"developers"`
	Bugs        []string         `json:"bugs"`
}

// Create はプロジェクト作成を処理する。
// POST /projects/create
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	p, err := h.service.Create(r.Context(), identity, project.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		Developers:  req.Developers,
		Bugs:        req.Bugs,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProjectResponse(p))
}

// ListAll は全プロジェクトの一覧を返す。
// GET /projects/all
func (h *ProjectHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]projectResponse, len(projects))
	for i, p := range projects {
		responses[i] = toProjectResponse(p)
	}

	writeJSON(w, http.StatusOK, responses)
}

// ListMine は操作者が参加しているプロジェクト一覧を返す。
// 該当がない場合は空の配列を返す。
// GET /projects/my-projects
func (h *ProjectHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	details, err := h.service.ListMine(r.Context(), identity.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]projectDetailResponse, len(details))
	for i, d := range details {
		responses[i] = toProjectDetailResponse(d)
	}

	writeJSON(w, http.StatusOK, responses)
}

// Get はプロジェクト詳細を取得する。
// GET /projects/{id}
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProjectResponse(p))
}

// Update はプロジェクトの名前と説明を更新する。
// PUT /projects/update/{id}
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	var req updateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	p, err := h.service.UpdateDetails(r.Context(), identity, chi.URLParam(r, "id"), req.Name, req.Description)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProjectResponse(p))
}

// Delete はプロジェクトを削除する。
// DELETE /projects/delete/{id}
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	if err := h.service.Delete(r.Context(), identity, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeText(w, http.StatusOK, "プロジェクトを削除しました。")
}

// AddDeveloper は開発者をプロジェクトに追加する。
// POST /projects/addDeveloper
func (h *ProjectHandler) AddDeveloper(w http.ResponseWriter, r *http.Request) {
	h.memberOperation(w, r, h.service.AddDeveloper, "開発者を追加しました。")
}

// RemoveDeveloper は開発者をプロジェクトから削除する。
// POST /projects/removeDeveloper
func (h *ProjectHandler) RemoveDeveloper(w http.ResponseWriter, r *http.Request) {
	h.memberOperation(w, r, h.service.RemoveDeveloper, "開発者を削除しました。")
}

// memberOperation は開発者追加・削除に共通するリクエスト処理を行う。
func (h *ProjectHandler) memberOperation(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, identity model.Identity, projectID, developerID string) error,
	successMessage string,
) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	if err := op(r.Context(), identity, req.ProjectID, req.DeveloperID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeText(w, http.StatusOK, successMessage)
}

// toProjectResponse はドメインのProjectをAPIレスポンス型に変換する。
func toProjectResponse(p *model.Project) projectResponse {
	developers := p.Developers
	if developers == nil {
		developers = []string{}
	}
	bugs := p.Bugs
	if bugs == nil {
		bugs = []string{}
	}
	return projectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		ManagerID:   p.ManagerID,
		Developers:  developers,
		Bugs:        bugs,
	}
}

// toProjectDetailResponse はドメインのDetailをAPIレスポンス型に変換する。
func toProjectDetailResponse(d project.Detail) projectDetailResponse {
	resp := projectDetailResponse{
		ID:          d.Project.ID,
		Name:        d.Project.Name,
		Description: d.Project.Description,
		Developers:  make([]memberResponse, len(d.Developers)),
		Bugs:        d.Project.Bugs,
	}
	if resp.Bugs == nil {
		resp.Bugs = []string{}
	}
	if d.Manager != nil {
		resp.Manager = &memberResponse{ID: d.Manager.ID, Name: d.Manager.Name}
	}
	for i, dev := range d.Developers {
		resp.Developers[i] = memberResponse{ID: dev.ID, Name: dev.Name}
	}
	return resp
}
