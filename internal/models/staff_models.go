package models

import "time"

// Staff is an HR profile, optionally linked one-to-one to a User.
type Staff struct {
	ID        int64     `json:"id" db:"id"`
	StaffID   string    `json:"staffId" db:"staff_id"`
	Name      string    `json:"name" db:"name"`
	IDNumber  string    `json:"idNumber" db:"id_number"`
	Gender    string    `json:"gender" db:"gender"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone" db:"phone"`
	Position  string    `json:"position" db:"position"`
	Salary    float64   `json:"salary" db:"salary"`
	Status    Status    `json:"status" db:"status"`
	JoinDate  time.Time `json:"joinDate" db:"join_date"`
	UserID    *int64    `json:"userId" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// Populated by list queries that join users.
	HasUserAccount *bool      `json:"hasUserAccount,omitempty"`
	User           *StaffUser `json:"user,omitempty"`
	DisplayName    string     `json:"displayName,omitempty"`
}

// StaffUser is the account summary shown next to a staff record.
type StaffUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	Status   Status `json:"status"`
}

// Summary converts a Staff record into the form carried on an Identity.
func (s *Staff) Summary() *StaffSummary {
	if s == nil {
		return nil
	}
	return &StaffSummary{ID: s.ID, StaffID: s.StaffID, Name: s.Name, Status: s.Status}
}

// Allowed gender values.
const (
	GenderMale   = "Lelaki"
	GenderFemale = "Perempuan"
)
