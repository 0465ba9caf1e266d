package models

import "time"

// CourseStatus enumerates the lifecycle of a course offering.
type CourseStatus string

const (
	CourseUpcoming  CourseStatus = "upcoming"
	CourseActive    CourseStatus = "active"
	CourseCompleted CourseStatus = "completed"
)

// Course is a capacity-tracked offering. It is not referentially bound to
// students: deleting a course does not cascade.
type Course struct {
	ID              int64        `db:"id" json:"id"`
	Name            string       `db:"name" json:"name"`
	Status          CourseStatus `db:"status" json:"status"`
	StartDate       string       `db:"start_date" json:"start_date"`
	EndDate         string       `db:"end_date" json:"end_date"`
	CurrentStudents int          `db:"current_students" json:"current_students"`
	MaxStudents     int          `db:"max_students" json:"max_students"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}

// CourseDetail augments a course with its derived progress percentage.
type CourseDetail struct {
	Course
	Progress float64 `json:"progress"`
}
