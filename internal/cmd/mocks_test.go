package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/schedly/schedly-cli/internal/di"
	iface "github.com/schedly/schedly-cli/internal/service/interface"
	"github.com/schedly/schedly-cli/internal/stream"
)

// MockAuthService is a mock implementation of iface.AuthService
type MockAuthService struct {
	LoginFunc      func(ctx context.Context) error
	LogoutFunc     func(ctx context.Context) error
	IsLoggedInFunc func() bool
	StatusFunc     func(ctx context.Context) (*iface.AuthStatus, error)
}

func (m *MockAuthService) Login(ctx context.Context) error {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx)
	}
	return nil
}

func (m *MockAuthService) Logout(ctx context.Context) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx)
	}
	return nil
}

func (m *MockAuthService) IsLoggedIn() bool {
	if m.IsLoggedInFunc != nil {
		return m.IsLoggedInFunc()
	}
	return true
}

func (m *MockAuthService) Status(ctx context.Context) (*iface.AuthStatus, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx)
	}
	return &iface.AuthStatus{}, nil
}

// MockCalendarService is a mock implementation of iface.CalendarService
type MockCalendarService struct {
	ListCalendarsFunc  func(ctx context.Context) ([]iface.Calendar, error)
	GetCalendarFunc    func(ctx context.Context, id string) (*iface.Calendar, error)
	ListSchedulesFunc  func(ctx context.Context, calendarID string, r iface.ScheduleRange) ([]iface.Schedule, error)
	DeleteScheduleFunc func(ctx context.Context, id string) error
}

func (m *MockCalendarService) ListCalendars(ctx context.Context) ([]iface.Calendar, error) {
	if m.ListCalendarsFunc != nil {
		return m.ListCalendarsFunc(ctx)
	}
	return nil, nil
}

func (m *MockCalendarService) GetCalendar(ctx context.Context, id string) (*iface.Calendar, error) {
	if m.GetCalendarFunc != nil {
		return m.GetCalendarFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockCalendarService) ListSchedules(ctx context.Context, calendarID string, r iface.ScheduleRange) ([]iface.Schedule, error) {
	if m.ListSchedulesFunc != nil {
		return m.ListSchedulesFunc(ctx, calendarID, r)
	}
	return nil, nil
}

func (m *MockCalendarService) DeleteSchedule(ctx context.Context, id string) error {
	if m.DeleteScheduleFunc != nil {
		return m.DeleteScheduleFunc(ctx, id)
	}
	return nil
}

// MockShopService is a mock implementation of iface.ShopService
type MockShopService struct {
	SearchFunc func(ctx context.Context, input *iface.SearchInput, onEvent stream.Sink) (*iface.SearchResult, error)
}

func (m *MockShopService) Search(ctx context.Context, input *iface.SearchInput, onEvent stream.Sink) (*iface.SearchResult, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, input, onEvent)
	}
	return &iface.SearchResult{Outcome: iface.SearchDone}, nil
}

func newTestRoot(auth iface.AuthService, calendars iface.CalendarService, shops iface.ShopService) *RootCommand {
	if auth == nil {
		auth = &MockAuthService{}
	}
	if calendars == nil {
		calendars = &MockCalendarService{}
	}
	if shops == nil {
		shops = &MockShopService{}
	}
	root := NewRootCommand()
	root.SetContainer(di.NewContainerWithServices(auth, calendars, shops))
	return root
}

// execute runs root with args and returns what it wrote to stdout and stderr
func execute(t *testing.T, root *RootCommand, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	capture := func(target **os.File) (restore func() string) {
		old := *target
		r, w, pipeErr := os.Pipe()
		if pipeErr != nil {
			t.Fatalf("os.Pipe: %v", pipeErr)
		}
		*target = w

		done := make(chan string)
		go func() {
			var buf bytes.Buffer
			io.Copy(&buf, r)
			done <- buf.String()
		}()

		return func() string {
			w.Close()
			*target = old
			return <-done
		}
	}

	restoreOut := capture(&os.Stdout)
	restoreErr := capture(&os.Stderr)

	root.Command().SetArgs(args)
	err = root.Command().Execute()

	stdout = restoreOut()
	stderr = restoreErr()
	return stdout, stderr, err
}
