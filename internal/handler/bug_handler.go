package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bugtrack/internal/bug"
	"github.com/hitoshi/bugtrack/internal/middleware"
	"github.com/hitoshi/bugtrack/internal/model"
)

// BugServiceInterface はバグハンドラーが必要とするサービスインターフェース。
type BugServiceInterface interface {
	// Report は新規バグを作成する。報告者IDは操作者のIDが設定される。
	Report(ctx context.Context, identity model.Identity, input bug.ReportInput) (*model.Bug, error)
	// ListAll は全バグを返す。
	ListAll(ctx context.Context) ([]*model.Bug, error)
	// ListMine は操作者に割り当てられたバグ一覧をプロジェクト名展開付きで返す。
	ListMine(ctx context.Context, userID string) ([]bug.AssignedDetail, error)
	// Get は指定IDのバグを返す。
	Get(ctx context.Context, id string) (*model.Bug, error)
	// ListByProject は指定プロジェクトのバグ一覧を担当者名展開付きで返す。
	ListByProject(ctx context.Context, projectID string) ([]bug.AssigneeDetail, error)
	// Update はバグを部分更新する。
	Update(ctx context.Context, id string, patch bug.Patch) (*model.Bug, error)
	// Delete はバグを削除する。
	Delete(ctx context.Context, id string) error
}

// BugHandler はバグ管理のHTTPハンドラー。
type BugHandler struct {
	service BugServiceInterface
}

// NewBugHandler はBugHandlerを生成する。
func NewBugHandler(service BugServiceInterface) *BugHandler {
	return &BugHandler{
		service: service,
	}
}

// commentPayload はコメントのリクエスト・レスポンス共通の形。
type commentPayload struct {
	UserID  string     `json:"userId"`
	Comment string     `json:"comment"`
	Date    *time.Time `json:"date,omitempty"`
}

// reportBugRequest はバグ報告リクエストのボディ。
// reportedByは受け付けない（操作者のIDが常に設定される）。
type reportBugRequest struct {
	ProjectID        string           `json:"projectId"`
	AssignedTo       string           `json:"assignedTo"`
	Priority         int              `json:"priority"`
	Severity         int              `json:"severity"`
	StepsToReproduce string           `json:"stepsToReproduce"`
	Image            string           `json:"image"`
	Deadline         *time.Time       `json:"deadline"`
	Status           string           `json:"status"`
	Comments         []commentPayload `json:"comments"`
}

// updateBugRequest はバグ部分更新リクエストのボディ。
// 未指定のフィールドとゼロ値の明示的な指定を区別するためポインタで受ける。
type updateBugRequest struct {
	AssignedTo       *string           `json:"assignedTo"`
	Priority         *int              `json:"priority"`
	Severity         *int              `json:"severity"`
	StepsToReproduce *string           `json:"stepsToReproduce"`
	Image            *string           `json:"image"`
	Deadline         *time.Time        `json:"deadline"`
	Status           *string           `json:"status"`
	Comments         *[]commentPayload `json:"comments"`
}

// bugResponse はバグ情報のAPIレスポンス。
type bugResponse struct {
	ID               string           `json:"id"`
	ProjectID        string           `json:"projectId"`
	ReportedBy       string           `json:"reportedBy"`
	AssignedTo       string           `json:"assignedTo"`
	Priority         int              `json:"priority"`
	Severity         int              `json:"severity"`
	StepsToReproduce string           `json:"stepsToReproduce"`
	Image            string           `json:"image"`
	Deadline         *time.Time       `json:"deadline"`
	Status           string           `json:"status"`
	Comments         []commentPayload `json:"comments"`
}

// projectRefResponse は名前展開済みのプロジェクト参照。
type projectRefResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// assignedBugResponse はプロジェクト名を展開したバグのAPIレスポンス。
type assignedBugResponse struct {
	bugResponse
	Project *projectRefResponse `json:"project"`
}

// assigneeRefResponse はログイン名展開済みの担当者参照。
type assigneeRefResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// projectBugResponse は担当者名を展開したバグのAPIレスポンス。
type projectBugResponse struct {
	bugResponse
	Assignee *assigneeRefResponse `json:"assignee"`
}

// Report はバグ報告を処理する。
// POST /bugs/report
func (h *BugHandler) Report(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	var req reportBugRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	b, err := h.service.Report(r.Context(), identity, bug.ReportInput{
		ProjectID:        req.ProjectID,
		AssignedTo:       req.AssignedTo,
		Priority:         req.Priority,
		Severity:         req.Severity,
		StepsToReproduce: req.StepsToReproduce,
		Image:            req.Image,
		Deadline:         req.Deadline,
		Status:           req.Status,
		Comments:         toCommentInputs(req.Comments),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBugResponse(b))
}

// ListAll は全バグの一覧を返す。
// GET /bugs/all
func (h *BugHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	bugs, err := h.service.ListAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]bugResponse, len(bugs))
	for i, b := range bugs {
		responses[i] = toBugResponse(b)
	}

	writeJSON(w, http.StatusOK, responses)
}

// ListMine は操作者に割り当てられたバグ一覧を返す。
// GET /bugs/mybugs
func (h *BugHandler) ListMine(w http.ResponseWriter, r *http.Request) {
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

	responses := make([]assignedBugResponse, len(details))
	for i, d := range details {
		responses[i] = assignedBugResponse{bugResponse: toBugResponse(d.Bug)}
		if d.Bug.ProjectID != "" {
			responses[i].Project = &projectRefResponse{ID: d.Bug.ProjectID, Name: d.ProjectName}
		}
	}

	writeJSON(w, http.StatusOK, responses)
}

// Get はバグ詳細を取得する。
// GET /bugs/{id}
func (h *BugHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBugResponse(b))
}

// ListByProject は指定プロジェクトのバグ一覧を返す。
// 該当がない場合は空の配列を返す。
// GET /bugs/project/{projectId}
func (h *BugHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	details, err := h.service.ListByProject(r.Context(), chi.URLParam(r, "projectId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]projectBugResponse, len(details))
	for i, d := range details {
		responses[i] = projectBugResponse{bugResponse: toBugResponse(d.Bug)}
		if d.Bug.AssignedTo != "" {
			responses[i].Assignee = &assigneeRefResponse{ID: d.Bug.AssignedTo, Username: d.AssignedUsername}
		}
	}

	writeJSON(w, http.StatusOK, responses)
}

// Update はバグを部分更新する。
// PUT /bugs/update/{id}
func (h *BugHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateBugRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	patch := bug.Patch{
		AssignedTo:       req.AssignedTo,
		Priority:         req.Priority,
		Severity:         req.Severity,
		StepsToReproduce: req.StepsToReproduce,
		Image:            req.Image,
		Deadline:         req.Deadline,
		Status:           req.Status,
	}
	if req.Comments != nil {
		comments := toCommentInputs(*req.Comments)
		patch.Comments = &comments
	}

	b, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBugResponse(b))
}

// Delete はバグを削除する。
// DELETE /bugs/delete/{id}
func (h *BugHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeText(w, http.StatusOK, "バグを削除しました。")
}

// toCommentInputs はリクエストのコメント列をサービス入力型に変換する。
func toCommentInputs(payloads []commentPayload) []bug.CommentInput {
	inputs := make([]bug.CommentInput, len(payloads))
	for i, c := range payloads {
		inputs[i] = bug.CommentInput{
			UserID:  c.UserID,
			Comment: c.Comment,
			Date:    c.Date,
		}
	}
	return inputs
}

// toBugResponse はドメインのBugをAPIレスポンス型に変換する。
func toBugResponse(b *model.Bug) bugResponse {
	comments := make([]commentPayload, len(b.Comments))
	for i, c := range b.Comments {
		date := c.Date
		comments[i] = commentPayload{
			UserID:  c.UserID,
			Comment: c.Comment,
			Date:    &date,
		}
	}
	return bugResponse{
		ID:               b.ID,
		ProjectID:        b.ProjectID,
		ReportedBy:       b.ReportedBy,
		AssignedTo:       b.AssignedTo,
		Priority:         b.Priority,
		Severity:         b.Severity,
		StepsToReproduce: b.StepsToReproduce,
		Image:            b.Image,
		Deadline:         b.Deadline,
		Status:           string(b.Status),
		Comments:         comments,
	}
}
