package model

import "testing"

func TestProject_HasDeveloper(t *testing.T) {
	p := &Project{
		ID:         "project-1",
		Developers: []string{"dev-1", "dev-2"},
	}

	if !p.HasDeveloper("dev-1") {
		t.Error("expected dev-1 to be in developers")
	}
	if p.HasDeveloper("dev-3") {
		t.Error("expected dev-3 not to be in developers")
	}

	empty := &Project{ID: "project-2"}
	if empty.HasDeveloper("dev-1") {
		t.Error("empty developer set should not contain anyone")
	}
}

func TestCanMutateProject_OwningManager(t *testing.T) {
	p := &Project{ID: "project-1", ManagerID: "manager-1"}

	owner := Identity{UserID: "manager-1", Role: RoleManager}
	if !CanMutateProject(owner, p) {
		t.Error("owning manager should be able to mutate project")
	}
}

func TestCanMutateProject_OtherManager(t *testing.T) {
	p := &Project{ID: "project-1", ManagerID: "manager-1"}

	// マネージャー権限を持っていても作成者でなければ変更できない
	other := Identity{UserID: "manager-2", Role: RoleManager}
	if CanMutateProject(other, p) {
		t.Error("non-owning manager should not be able to mutate project")
	}
}

func TestCanMutateProject_EmptyManagerID(t *testing.T) {
	// ManagerIDが空のプロジェクトは誰も変更できない
	p := &Project{ID: "project-1", ManagerID: ""}

	anonymous := Identity{UserID: "", Role: RoleManager}
	if CanMutateProject(anonymous, p) {
		t.Error("project without manager should not be mutable by empty identity")
	}

	someone := Identity{UserID: "manager-1", Role: RoleManager}
	if CanMutateProject(someone, p) {
		t.Error("project without manager should not be mutable")
	}
}
