package service

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"happy-hearts-pos/pos-svc/internal/domain"
)

type SalesSummary struct {
	Daily   float64 `json:"daily"`
	Weekly  float64 `json:"weekly"`
	Monthly float64 `json:"monthly"`
	Yearly  float64 `json:"yearly"`
	Orders  int     `json:"orders"`
}

// SummarizeSales totals order amounts since the start of today, the last
// seven days, the current month and the current year, in loc. Cancelled
// orders are left out.
func SummarizeSales(orders []domain.Order, now time.Time, loc *time.Location) SalesSummary {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	weekAgo := today.AddDate(0, 0, -7)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc)

	var s SalesSummary
	for _, o := range orders {
		if o.Status == domain.StatusCancelled {
			continue
		}
		s.Orders++
		if !o.Date.Before(today) {
			s.Daily += o.Total
		}
		if !o.Date.Before(weekAgo) {
			s.Weekly += o.Total
		}
		if !o.Date.Before(monthStart) {
			s.Monthly += o.Total
		}
		if !o.Date.Before(yearStart) {
			s.Yearly += o.Total
		}
	}
	return s
}

var salesHeader = []string{
	"OrderID", "Date", "Time", "Item Name", "Size", "Quantity",
	"Item Price", "Row Total", "Order Subtotal", "Delivery Fee", "Order Total", "Status",
}

// WriteSalesCSV writes one row per order line.
func WriteSalesCSV(w io.Writer, orders []domain.Order, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(salesHeader); err != nil {
		return err
	}
	for _, o := range orders {
		date := o.Date.In(loc)
		for _, item := range o.Items {
			size := "N/A"
			if item.SelectedSize != nil {
				size = item.SelectedSize.Name
			}
			row := []string{
				o.ID,
				date.Format("2006-01-02"),
				date.Format("15:04:05"),
				item.Name,
				size,
				strconv.Itoa(item.Quantity),
				formatAmount(item.UnitPrice()),
				formatAmount(item.LineTotal()),
				formatAmount(o.Subtotal),
				formatAmount(o.DeliveryFee),
				formatAmount(o.Total),
				string(o.Status),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

var timeLogHeader = []string{"Staff Name", "Date", "Time In", "Time Out", "Duration (Hours)"}

// WriteTimeLogCSV writes one row per work session, newest first.
func WriteTimeLogCSV(w io.Writer, report AttendanceReport, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(timeLogHeader); err != nil {
		return err
	}
	for _, s := range report.Sessions {
		in := s.TimeIn.In(loc)
		out := "Still Clocked In"
		if s.TimeOut != nil {
			out = s.TimeOut.In(loc).Format("15:04:05")
		}
		row := []string{
			s.StaffName,
			in.Format("2006-01-02"),
			in.Format("15:04:05"),
			out,
			strconv.FormatFloat(s.Hours(), 'f', 2, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Reports serves the back-office sales and attendance exports.
type Reports struct {
	ledger     *Ledger
	attendance *Attendance
	location   *time.Location
	Now        func() time.Time
}

func NewReports(ledger *Ledger, attendance *Attendance, loc *time.Location) *Reports {
	if loc == nil {
		loc = time.Local
	}
	return &Reports{ledger: ledger, attendance: attendance, location: loc, Now: systemNow}
}

func (r *Reports) Sales(ctx context.Context) (SalesSummary, error) {
	orders, err := r.ledger.All(ctx)
	if err != nil {
		return SalesSummary{}, err
	}
	return SummarizeSales(orders, r.Now(), r.location), nil
}

func (r *Reports) ExportSales(ctx context.Context, w io.Writer) error {
	orders, err := r.ledger.All(ctx)
	if err != nil {
		return err
	}
	return WriteSalesCSV(w, orders, r.location)
}

func (r *Reports) ExportTimeLogs(ctx context.Context, w io.Writer) error {
	report, err := r.attendance.Report(ctx)
	if err != nil {
		return err
	}
	return WriteTimeLogCSV(w, report, r.location)
}
