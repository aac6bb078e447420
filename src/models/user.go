package models

type Role string

const (
	RoleDepartment Role = "department"
	RoleQAA        Role = "qaa"
	RoleSuperuser  Role = "superuser"
	RoleAdmin      Role = "admin"
)

// AuthUser ข้อมูลผู้ใช้ที่ middleware แนบมากับทุก request ที่ผ่านการยืนยันตัวตน
type AuthUser struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	Department string `json:"department"`
	School     string `json:"school"`
	SchoolName string `json:"schoolName"`
}

func (u *AuthUser) HasRole(roles ...Role) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// IsPrivileged admin และ superuser ลบเอกสาร/เผยแพร่ผลได้
func (u *AuthUser) IsPrivileged() bool {
	return u.HasRole(RoleAdmin, RoleSuperuser)
}

// CanReadAll reviewer and approver roles can see any department's submission.
func (u *AuthUser) CanReadAll() bool {
	return u.HasRole(RoleQAA, RoleSuperuser, RoleAdmin)
}
