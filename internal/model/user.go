// Package model はドメインモデルを定義する。
package model

import "time"

// Role は認証済みプリンシパルの種別を表す。
type Role string

const (
	// RoleUser は求職者。
	RoleUser Role = "user"
	// RoleCompany は求人を掲載する企業（リクルーター）。
	RoleCompany Role = "company"
)

// Valid は既知のロールかどうかを返す。
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleCompany
}

// User は求職者アカウントを表す。
// ResumeURL は履歴書未登録の場合に空文字となる。
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	AvatarURL    string
	ResumeURL    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasResume は履歴書が登録済みかどうかを返す。
func (u *User) HasResume() bool {
	return u.ResumeURL != ""
}

// Company は求人を掲載する企業アカウントを表す。メールアドレスは一意。
type Company struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	LogoURL      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity はリクエストに紐付く認証済みプリンシパル。
// 認証ミドルウェアがトークンとセッションから解決し、コンテキストに注入する。
type Identity struct {
	ID        string
	Role      Role
	SessionID string
}

// Session はログインセッションを表す。
// トークンのjtiと対応し、ログアウトや退会で削除されると以後そのトークンは無効になる。
type Session struct {
	ID          string
	PrincipalID string
	Role        Role
	ExpiresAt   time.Time
	CreatedAt   time.Time
}
