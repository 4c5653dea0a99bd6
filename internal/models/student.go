package models

import "time"

// Student is an enrolled learner scoped to a campus and intake group.
type Student struct {
	ID            string    `db:"id" json:"id"`
	StudentNumber string    `db:"student_number" json:"studentNumber"`
	Email         string    `db:"email" json:"email"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	FirstName     string    `db:"first_name" json:"firstName"`
	LastName      string    `db:"last_name" json:"lastName"`
	Active        bool      `db:"active" json:"active"`
	CampusID      string    `db:"campus_id" json:"campus"`
	IntakeGroupID string    `db:"intake_group_id" json:"intakeGroup"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
