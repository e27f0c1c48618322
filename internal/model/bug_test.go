package model

import "testing"

func TestBugStatus_Valid(t *testing.T) {
	tests := []struct {
		status BugStatus
		want   bool
	}{
		{BugStatusOpen, true},
		{BugStatusTodo, true},
		{BugStatusResolved, true},
		{BugStatusClosed, true},
		{BugStatus(""), false},
		{BugStatus("open"), false},
		{BugStatus("InProgress"), false},
	}

	for _, tt := range tests {
		if got := tt.status.Valid(); got != tt.want {
			t.Errorf("BugStatus(%q).Valid() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestAPIError_Error(t *testing.T) {
	err := NewBugNotFoundError("bug-1")
	want := "[BUG_NOT_FOUND] 指定されたバグが見つかりません: bug-1"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestNewInvalidCredentialError_SameMessageForBothCauses(t *testing.T) {
	// ユーザー不在とパスワード不一致で同一のエラーを返すことの前提となる、
	// 引数なしコンストラクタであることを確認する
	a := NewInvalidCredentialError()
	b := NewInvalidCredentialError()

	if a.Code != b.Code || a.Message != b.Message {
		t.Error("invalid credential errors should be identical")
	}
}
