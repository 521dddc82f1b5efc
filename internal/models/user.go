package models

type Role string

const (
	Admin         Role = "ADMIN"
	SchoolManager Role = "SCHOOL_MANAGER"
	Teacher       Role = "TEACHER"
)

func (r Role) Valid() bool {
	switch r {
	case Admin, SchoolManager, Teacher:
		return true
	}
	return false
}

type User struct {
	ID         int64  `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	Role       Role   `db:"role" json:"role"`
	SchoolID   *int64 `db:"school_id" json:"schoolId,omitempty"`
	JobTypeID  *int64 `db:"job_type_id" json:"jobTypeId,omitempty"`
	IsActive   bool   `db:"is_active" json:"isActive"`
	TelegramID *int64 `db:"telegram_id" json:"-"`
}

// TeacherProfile: пользователь с ролью TEACHER, у которого обязательно заданы школа и должность.
type TeacherProfile struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	SchoolID  int64  `db:"school_id" json:"schoolId"`
	JobTypeID int64  `db:"job_type_id" json:"jobTypeId"`
	IsActive  bool   `db:"is_active" json:"isActive"`
}
