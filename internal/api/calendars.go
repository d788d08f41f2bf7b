package api

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Calendar represents a calendar as returned by /api/calendars
type Calendar struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Color       string    `json:"color,omitempty"`
	Timezone    string    `json:"timezone"`
	Owner       string    `json:"owner"`
	Shared      bool      `json:"shared"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Description string    `json:"description,omitempty"`
}

// Schedule represents a single schedule entry in a calendar
type Schedule struct {
	ID         string    `json:"id"`
	CalendarID string    `json:"calendar_id"`
	Title      string    `json:"title"`
	Location   string    `json:"location,omitempty"`
	StartAt    time.Time `json:"start_at"`
	EndAt      time.Time `json:"end_at"`
	AllDay     bool      `json:"all_day"`
	Recurrence string    `json:"recurrence,omitempty"`
}

// CalendarListResponse represents the response from GET /api/calendars
type CalendarListResponse struct {
	Calendars []Calendar `json:"calendars"`
}

// ScheduleListResponse represents the response from the schedules endpoint
type ScheduleListResponse struct {
	Schedules []Schedule `json:"schedules"`
}

// ListCalendars fetches all calendars visible to the user
func (c *Client) ListCalendars(ctx context.Context) ([]Calendar, error) {
	var resp CalendarListResponse
	if err := c.Get(ctx, "/api/calendars", &resp); err != nil {
		return nil, err
	}
	return resp.Calendars, nil
}

// GetCalendar fetches a calendar by ID
func (c *Client) GetCalendar(ctx context.Context, calendarID string) (*Calendar, error) {
	var resp Calendar
	if err := c.Get(ctx, "/api/calendars/"+url.PathEscape(calendarID), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListSchedules fetches the schedules of a calendar between from and to.
// Zero times leave the bound to the server.
func (c *Client) ListSchedules(ctx context.Context, calendarID string, from, to time.Time) ([]Schedule, error) {
	q := url.Values{}
	if !from.IsZero() {
		q.Set("from", from.Format(time.RFC3339))
	}
	if !to.IsZero() {
		q.Set("to", to.Format(time.RFC3339))
	}

	path := fmt.Sprintf("/api/calendars/%s/schedules", url.PathEscape(calendarID))
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp ScheduleListResponse
	if err := c.Get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Schedules, nil
}

// DeleteSchedule deletes a schedule by ID
func (c *Client) DeleteSchedule(ctx context.Context, scheduleID string) error {
	return c.Delete(ctx, "/api/schedules/"+url.PathEscape(scheduleID), nil)
}
