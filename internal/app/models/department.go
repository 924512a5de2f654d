package models

import "time"

// Department owns signup requests and prefixes the roll numbers of its students
type Department struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"createdAt"`
}
