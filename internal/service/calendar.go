package service

import (
	"context"
	"fmt"

	"github.com/schedly/schedly-cli/internal/api"
	iface "github.com/schedly/schedly-cli/internal/service/interface"
)

// calendarService implements iface.CalendarService
type calendarService struct {
	client *api.Client
}

// NewCalendarService creates a new calendar service
func NewCalendarService(client *api.Client) iface.CalendarService {
	return &calendarService{
		client: client,
	}
}

// requireLogin fails fast when no token is stored, instead of sending an
// anonymous request that can only come back 401
func requireLogin(client *api.Client) error {
	if _, ok := client.Fetcher().Store().Token(); !ok {
		return api.ErrNotLoggedIn
	}
	return nil
}

// ListCalendars returns all calendars visible to the authenticated user
func (s *calendarService) ListCalendars(ctx context.Context) ([]iface.Calendar, error) {
	if err := requireLogin(s.client); err != nil {
		return nil, err
	}

	calendars, err := s.client.ListCalendars(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendars: %w", err)
	}

	result := make([]iface.Calendar, 0, len(calendars))
	for _, c := range calendars {
		result = append(result, toCalendar(c))
	}
	return result, nil
}

// GetCalendar returns a calendar by ID
func (s *calendarService) GetCalendar(ctx context.Context, id string) (*iface.Calendar, error) {
	if err := requireLogin(s.client); err != nil {
		return nil, err
	}

	calendar, err := s.client.GetCalendar(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar: %w", err)
	}

	c := toCalendar(*calendar)
	return &c, nil
}

// ListSchedules returns the schedules of a calendar within r
func (s *calendarService) ListSchedules(ctx context.Context, calendarID string, r iface.ScheduleRange) ([]iface.Schedule, error) {
	if err := requireLogin(s.client); err != nil {
		return nil, err
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return nil, fmt.Errorf("invalid range: %s is before %s", r.To.Format("2006-01-02"), r.From.Format("2006-01-02"))
	}

	schedules, err := s.client.ListSchedules(ctx, calendarID, r.From, r.To)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedules: %w", err)
	}

	result := make([]iface.Schedule, 0, len(schedules))
	for _, sc := range schedules {
		result = append(result, iface.Schedule{
			ID:         sc.ID,
			CalendarID: sc.CalendarID,
			Title:      sc.Title,
			Location:   sc.Location,
			StartAt:    sc.StartAt,
			EndAt:      sc.EndAt,
			AllDay:     sc.AllDay,
		})
	}
	return result, nil
}

// DeleteSchedule deletes a schedule by ID
func (s *calendarService) DeleteSchedule(ctx context.Context, id string) error {
	if err := requireLogin(s.client); err != nil {
		return err
	}

	if err := s.client.DeleteSchedule(ctx, id); err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	return nil
}

func toCalendar(c api.Calendar) iface.Calendar {
	return iface.Calendar{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Timezone:    c.Timezone,
		Owner:       c.Owner,
		Shared:      c.Shared,
		CreatedAt:   c.CreatedAt,
	}
}
