package models

import "time"

// Schedule enumerates the class time slots offered by the agency.
type Schedule string

const (
	ScheduleMorning Schedule = "morning"
	ScheduleEvening Schedule = "evening"
)

// Student represents an enrolled learner registered by a delegate.
type Student struct {
	ID               int64     `db:"id" json:"id"`
	FirstName        string    `db:"first_name" json:"first_name"`
	SecondName       string    `db:"second_name" json:"second_name"`
	ThirdName        string    `db:"third_name" json:"third_name"`
	LastName         string    `db:"last_name" json:"last_name"`
	NormalizedName   string    `db:"normalized_name" json:"-"`
	Phone            string    `db:"phone" json:"phone"`
	Course           string    `db:"course" json:"course"`
	Schedule         Schedule  `db:"schedule" json:"schedule"`
	DelegateID       int64     `db:"delegate_id" json:"delegate_id"`
	RegistrationDate string    `db:"registration_date" json:"registration_date"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// FullName joins the four name parts with single spaces.
func (s Student) FullName() string {
	parts := []string{s.FirstName, s.SecondName, s.ThirdName, s.LastName}
	full := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if full != "" {
			full += " "
		}
		full += p
	}
	return full
}

// StudentFilter captures allowed search parameters for listing students.
type StudentFilter struct {
	Search     string
	Course     string
	DelegateID int64
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
