package model

import "time"

// BugStatus はバグの状態を表す。
// 状態遷移に順序の制約はなく、任意の状態から任意の状態へ変更できる。
type BugStatus string

const (
	BugStatusOpen     BugStatus = "Open"
	BugStatusTodo     BugStatus = "To-do"
	BugStatusResolved BugStatus = "Resolved"
	BugStatusClosed   BugStatus = "Closed"
)

// Valid はBugStatusが定義済みの値かどうかを返す。
func (s BugStatus) Valid() bool {
	switch s {
	case BugStatusOpen, BugStatusTodo, BugStatusResolved, BugStatusClosed:
		return true
	}
	return false
}

// Comment はバグに付けられたコメントを表す。時系列順に保持する。
type Comment struct {
	UserID  string
	Comment string
	Date    time.Time
}

// Bug は報告されたバグを表す。
// ReportedByは作成時に認証済みユーザーのIDが設定され、以後変更されない。
type Bug struct {
	ID               string
	ProjectID        string
	ReportedBy       string
	AssignedTo       string
	Priority         int
	Severity         int
	StepsToReproduce string
	Image            string
	Deadline         *time.Time
	Status           BugStatus
	Comments         []Comment
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
