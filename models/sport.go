package models

// Sport is immutable reference data, seeded once per deployment.
type Sport struct {
	ID     int    `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Code   string `json:"code" db:"code"`
	Active bool   `json:"active" db:"active"`
}
