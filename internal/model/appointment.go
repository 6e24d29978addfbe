package model

import "time"

type Appointment struct {
	ID          string
	EventTypeID int64
	UserID      int64
	StartTime   time.Time
	EndTime     time.Time
	CreatedAt   time.Time
}

type User struct {
	ID        int64
	Email     string
	FirstName string
	LastName  string
	Gender    Gender
	CreatedAt time.Time
	UpdatedAt time.Time
}
