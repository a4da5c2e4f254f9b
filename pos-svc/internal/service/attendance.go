package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"happy-hearts-pos/pos-svc/internal/domain"
)

const (
	TimeLogsKey   = "staffTimeLogs"
	HourlyRateKey = "staffHourlyRate"

	DefaultHourlyRate = 100.0
)

// Attendance is the append-only clock-in/clock-out log.
type Attendance struct {
	origin      Origin
	log         *slog.Logger
	defaultRate float64
	Now         func() time.Time
}

func NewAttendance(origin Origin, defaultRate float64, log *slog.Logger) *Attendance {
	if log == nil {
		log = slog.Default()
	}
	if defaultRate <= 0 {
		defaultRate = DefaultHourlyRate
	}
	return &Attendance{origin: origin, log: log, defaultRate: defaultRate, Now: systemNow}
}

// ClockIn is rejected while the staff member's latest event is already "in".
func (a *Attendance) ClockIn(ctx context.Context, staffName string) (domain.TimeLog, error) {
	return a.record(ctx, staffName, domain.ClockedIn)
}

// ClockOut is rejected unless the staff member's latest event is "in".
func (a *Attendance) ClockOut(ctx context.Context, staffName string) (domain.TimeLog, error) {
	return a.record(ctx, staffName, domain.ClockedOut)
}

func (a *Attendance) record(ctx context.Context, staffName string, typ domain.TimeLogType) (domain.TimeLog, error) {
	staffName = strings.TrimSpace(staffName)
	if staffName == "" {
		return domain.TimeLog{}, ErrStaffRequired
	}
	logs, err := a.Logs(ctx)
	if err != nil {
		return domain.TimeLog{}, err
	}

	clockedIn := lastEventIsIn(logs, staffName)
	switch {
	case typ == domain.ClockedIn && clockedIn:
		return domain.TimeLog{}, fmt.Errorf("%w: %s", ErrAlreadyClockedIn, staffName)
	case typ == domain.ClockedOut && !clockedIn:
		return domain.TimeLog{}, fmt.Errorf("%w: %s", ErrNotClockedIn, staffName)
	}

	entry := domain.TimeLog{StaffName: staffName, Timestamp: a.Now(), Type: typ}
	logs = append(logs, entry)
	if err := saveDocument(ctx, a.origin, a.log, TimeLogsKey, logs); err != nil {
		return domain.TimeLog{}, err
	}
	a.log.Info("time log recorded", "staff", staffName, "type", typ)
	return entry, nil
}

func (a *Attendance) IsClockedIn(ctx context.Context, staffName string) (bool, error) {
	logs, err := a.Logs(ctx)
	if err != nil {
		return false, err
	}
	return lastEventIsIn(logs, staffName), nil
}

func (a *Attendance) Logs(ctx context.Context) ([]domain.TimeLog, error) {
	logs := []domain.TimeLog{}
	if _, err := loadDocument(ctx, a.origin, TimeLogsKey, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (a *Attendance) HourlyRate(ctx context.Context) (float64, error) {
	raw, ok, err := a.origin.Get(ctx, HourlyRateKey)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if !ok {
		return a.defaultRate, nil
	}
	rate, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || rate < 0 {
		return a.defaultRate, nil
	}
	return rate, nil
}

func (a *Attendance) SetHourlyRate(ctx context.Context, rate float64) error {
	if rate < 0 {
		return ErrInvalidRate
	}
	if err := a.origin.Set(ctx, HourlyRateKey, strconv.FormatFloat(rate, 'f', -1, 64)); err != nil {
		a.log.Error("save failed", "key", HourlyRateKey, "err", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// Report reduces the stored log with the current hourly rate.
func (a *Attendance) Report(ctx context.Context) (AttendanceReport, error) {
	logs, err := a.Logs(ctx)
	if err != nil {
		return AttendanceReport{}, err
	}
	rate, err := a.HourlyRate(ctx)
	if err != nil {
		return AttendanceReport{}, err
	}
	report := Reduce(logs, a.Now())
	report.HourlyRate = rate
	report.Payroll = report.PayrollAt(rate)
	return report, nil
}

func lastEventIsIn(logs []domain.TimeLog, staffName string) bool {
	for i := len(logs) - 1; i >= 0; i-- {
		if logs[i].StaffName == staffName {
			return logs[i].Type == domain.ClockedIn
		}
	}
	return false
}

type WorkSession struct {
	StaffName string        `json:"staffName"`
	TimeIn    time.Time     `json:"timeIn"`
	TimeOut   *time.Time    `json:"timeOut,omitempty"`
	Duration  time.Duration `json:"duration"`
}

func (s WorkSession) Open() bool { return s.TimeOut == nil }

func (s WorkSession) Hours() float64 {
	if s.Duration < 0 {
		return 0
	}
	return s.Duration.Hours()
}

type StaffHours struct {
	StaffName string `json:"staffName"`
	// ClosedHours counts finished sessions only.
	ClosedHours float64 `json:"closedHours"`
	// EstimatedHours adds the time elapsed in an open session.
	EstimatedHours float64    `json:"estimatedHours"`
	OpenSince      *time.Time `json:"openSince,omitempty"`
}

type PayrollLine struct {
	StaffName       string  `json:"staffName"`
	Hours           float64 `json:"hours"`
	Salary          float64 `json:"salary"`
	EstimatedSalary float64 `json:"estimatedSalary"`
}

type AttendanceReport struct {
	// Sessions are newest first.
	Sessions   []WorkSession `json:"sessions"`
	Totals     []StaffHours  `json:"totals"`
	HourlyRate float64       `json:"hourlyRate"`
	Payroll    []PayrollLine `json:"payroll,omitempty"`
}

// Reduce pairs each staff member's events in time order. The first "in"
// without a matching "out" opens a session; further "in"s while it is open
// are ignored, as are "out"s with nothing open. A session still open at
// the end runs until now and only counts towards EstimatedHours.
func Reduce(logs []domain.TimeLog, now time.Time) AttendanceReport {
	var order []string
	byStaff := make(map[string][]domain.TimeLog)
	for _, l := range logs {
		if _, ok := byStaff[l.StaffName]; !ok {
			order = append(order, l.StaffName)
		}
		byStaff[l.StaffName] = append(byStaff[l.StaffName], l)
	}

	report := AttendanceReport{Sessions: []WorkSession{}, Totals: []StaffHours{}}
	for _, name := range order {
		entries := byStaff[name]
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Timestamp.Before(entries[j].Timestamp)
		})

		totals := StaffHours{StaffName: name}
		var openedAt *time.Time
		for _, e := range entries {
			switch {
			case e.Type == domain.ClockedIn && openedAt == nil:
				ts := e.Timestamp
				openedAt = &ts
			case e.Type == domain.ClockedOut && openedAt != nil:
				out := e.Timestamp
				session := WorkSession{StaffName: name, TimeIn: *openedAt, TimeOut: &out, Duration: out.Sub(*openedAt)}
				report.Sessions = append(report.Sessions, session)
				totals.ClosedHours += session.Hours()
				openedAt = nil
			}
		}
		totals.EstimatedHours = totals.ClosedHours
		if openedAt != nil {
			session := WorkSession{StaffName: name, TimeIn: *openedAt, Duration: now.Sub(*openedAt)}
			report.Sessions = append(report.Sessions, session)
			totals.EstimatedHours += session.Hours()
			totals.OpenSince = openedAt
		}
		report.Totals = append(report.Totals, totals)
	}

	for i, j := 0, len(report.Sessions)-1; i < j; i, j = i+1, j-1 {
		report.Sessions[i], report.Sessions[j] = report.Sessions[j], report.Sessions[i]
	}
	return report
}

// PayrollAt prices every staff member's hours at rate.
func (r AttendanceReport) PayrollAt(rate float64) []PayrollLine {
	lines := make([]PayrollLine, 0, len(r.Totals))
	for _, t := range r.Totals {
		lines = append(lines, PayrollLine{
			StaffName:       t.StaffName,
			Hours:           t.ClosedHours,
			Salary:          t.ClosedHours * rate,
			EstimatedSalary: t.EstimatedHours * rate,
		})
	}
	return lines
}
