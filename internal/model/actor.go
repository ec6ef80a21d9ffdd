package model

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Actor 發出請求的使用者，由 auth middleware 從 token 解析
type Actor struct {
	UserID int
	Role   Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanAccess 本人或管理員
func (a Actor) CanAccess(ownerID int) bool {
	return a.IsAdmin() || a.UserID == ownerID
}
