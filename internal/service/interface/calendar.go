package iface

import (
	"context"
	"time"
)

// Calendar represents a schedly calendar
type Calendar struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Timezone    string    `json:"timezone" yaml:"timezone"`
	Owner       string    `json:"owner" yaml:"owner"`
	Shared      bool      `json:"shared" yaml:"shared"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// Schedule represents one entry of a calendar
type Schedule struct {
	ID         string    `json:"id" yaml:"id"`
	CalendarID string    `json:"calendar_id" yaml:"calendar_id"`
	Title      string    `json:"title" yaml:"title"`
	Location   string    `json:"location,omitempty" yaml:"location,omitempty"`
	StartAt    time.Time `json:"start_at" yaml:"start_at"`
	EndAt      time.Time `json:"end_at" yaml:"end_at"`
	AllDay     bool      `json:"all_day" yaml:"all_day"`
}

// ScheduleRange bounds a schedule listing. Zero times leave that side open.
type ScheduleRange struct {
	From time.Time
	To   time.Time
}

// CalendarService defines the interface for calendar operations
type CalendarService interface {
	// ListCalendars returns all calendars visible to the authenticated user
	ListCalendars(ctx context.Context) ([]Calendar, error)

	// GetCalendar returns a calendar by ID
	GetCalendar(ctx context.Context, id string) (*Calendar, error)

	// ListSchedules returns the schedules of a calendar within r
	ListSchedules(ctx context.Context, calendarID string, r ScheduleRange) ([]Schedule, error)

	// DeleteSchedule deletes a schedule by ID
	DeleteSchedule(ctx context.Context, id string) error
}
