package models

import "time"

// Student represents a learner whose transcript is being managed.
type Student struct {
	ID            string         `db:"id" json:"id"`
	FullName      string         `db:"full_name" json:"full_name"`
	Gender        string         `db:"gender" json:"gender"`
	Age           int            `db:"age" json:"age"`
	Template      Template       `db:"template" json:"template"`
	AcademicYears string         `db:"academic_years" json:"academic_years"`
	Grades        SubjectRecords `db:"grades" json:"grades"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Template  string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
