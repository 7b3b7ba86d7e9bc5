// model/calendar.go
package model

import "time"

const EventTypeLibrary = "library"

type CalendarEvent struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	EventTitle  string    `json:"eventTitle"`
	EventDate   time.Time `json:"eventDate"`
	EventType   string    `json:"eventType"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}
