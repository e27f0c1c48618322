package model

import "time"

// Project はバグ追跡対象のプロジェクトを表す。
// ManagerIDは作成時に設定され、以後のどの操作でも変更されない。
// DevelopersとBugsはID集合（順序なし・重複なし）として扱う。
type Project struct {
	ID          string
	Name        string
	Description string
	ManagerID   string
	Developers  []string
	Bugs        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasDeveloper は指定IDが開発者集合に含まれるかどうかを返す。
func (p *Project) HasDeveloper(developerID string) bool {
	for _, id := range p.Developers {
		if id == developerID {
			return true
		}
	}
	return false
}

// CanMutateProject はidentityがプロジェクトを変更できるかどうかを判定する。
// 変更できるのはプロジェクトを作成したマネージャー本人のみ。
// 更新・削除・開発者の追加・削除のすべてで共通に使用する。
func CanMutateProject(identity Identity, p *Project) bool {
	return p.ManagerID != "" && p.ManagerID == identity.UserID
}
