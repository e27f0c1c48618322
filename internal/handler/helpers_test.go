package handler

import (
	"net/http"

	"github.com/hitoshi/bugtrack/internal/middleware"
	"github.com/hitoshi/bugtrack/internal/model"
)

// withIdentity は認証済みidentityをリクエストに注入するテストヘルパー。
func withIdentity(req *http.Request, identity model.Identity) *http.Request {
	ctx := middleware.ContextWithIdentity(req.Context(), identity)
	return req.WithContext(ctx)
}

// UUID形式のテスト用ID
const (
	testManagerID  = "11111111-1111-1111-1111-111111111111"
	testDevID      = "22222222-2222-2222-2222-222222222222"
	testProjectID  = "33333333-3333-3333-3333-333333333333"
	testBugID      = "44444444-4444-4444-4444-444444444444"
	testAssigneeID = "55555555-5555-5555-5555-555555555555"
)

func managerIdentity() model.Identity {
	return model.Identity{UserID: testManagerID, Role: model.RoleManager, DeveloperType: model.DeveloperTypeNone}
}

func developerIdentity() model.Identity {
	return model.Identity{UserID: testDevID, Role: model.RoleDeveloper, DeveloperType: model.DeveloperTypeBackend}
}
