package models

type Court struct {
	ID     int    `json:"id" db:"id"`
	Label  string `json:"label" db:"label"`
	Active bool   `json:"active" db:"active"`
}
