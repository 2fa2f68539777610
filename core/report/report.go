// Package report aggregates disbursements into the annual bursary report.
package report

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/mbooni/bursary/core/disbursement"
)

// Year statuses
const (
	StatusOngoing   = "Ongoing"
	StatusCompleted = "Completed"
)

// Row is the disbursement total of one payment year.
type Row struct {
	Year          string  `json:"year"`
	Beneficiaries int     `json:"beneficiaries"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"`
}

// Summary compares the current year to the previous one.
type Summary struct {
	Year          string   `json:"year"`
	Amount        float64  `json:"amount"`
	Beneficiaries int      `json:"beneficiaries"`
	Growth        *float64 `json:"growth"` // percent, nil without a previous year
}

type Report struct {
	Rows    []Row   `json:"rows"`  // newest first
	Trend   []Row   `json:"trend"` // oldest first
	Summary Summary `json:"summary"`
}

// counted reports whether the money of d has left the county.
func counted(d disbursement.Disbursement) bool {
	return d.Status == disbursement.StatusPaid || d.Status == disbursement.StatusCompleted
}

// Annual sums paid and completed disbursements per payment year, newest first.
// Beneficiaries are distinct applications. The year of now is Ongoing.
func Annual(ds []disbursement.Disbursement, now time.Time) []Row {
	type acc struct {
		amount float64
		apps   map[int]bool
	}
	years := make(map[int]*acc)
	for _, d := range ds {
		if !counted(d) {
			continue
		}
		paidOn, ok := d.PaidOn()
		if !ok {
			continue
		}
		a, ok := years[paidOn.Year()]
		if !ok {
			a = &acc{apps: make(map[int]bool)}
			years[paidOn.Year()] = a
		}
		a.amount += d.Amount
		a.apps[d.ApplicationID] = true
	}

	rows := make([]Row, 0, len(years))
	for y, a := range years {
		status := StatusCompleted
		if y >= now.Year() {
			status = StatusOngoing
		}
		rows = append(rows, Row{Year: strconv.Itoa(y), Beneficiaries: len(a.apps), Amount: a.amount, Status: status})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Year > rows[j].Year })
	return rows
}

// Trend returns the rows of Annual oldest first, as a chart series.
func Trend(ds []disbursement.Disbursement, now time.Time) []Row {
	rows := Annual(ds, now)
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows
}

// Summarize picks the current year out of rows (newest first) and its growth over the previous year.
func Summarize(rows []Row, now time.Time) Summary {
	s := Summary{Year: strconv.Itoa(now.Year())}
	prev := strconv.Itoa(now.Year() - 1)
	var prevAmount float64
	var hasPrev bool
	for _, r := range rows {
		switch r.Year {
		case s.Year:
			s.Amount = r.Amount
			s.Beneficiaries = r.Beneficiaries
		case prev:
			prevAmount, hasPrev = r.Amount, true
		}
	}
	if hasPrev && prevAmount > 0 {
		growth := (s.Amount - prevAmount) / prevAmount * 100
		s.Growth = &growth
	}
	return s
}

// Source provides the disbursements to report on.
type Source interface {
	All(ctx context.Context) ([]disbursement.Disbursement, error)
}

type Service struct {
	source  Source
	nowFunc func() time.Time // mockable
}

func NewService(source Source) *Service {
	return &Service{source: source, nowFunc: time.Now}
}

func (svc *Service) Annual(ctx context.Context) (Report, error) {
	ds, err := svc.source.All(ctx)
	if err != nil {
		return Report{}, errors.Wrap(err, "fetching disbursements")
	}
	now := svc.nowFunc()
	rows := Annual(ds, now)
	return Report{
		Rows:    rows,
		Trend:   Trend(ds, now),
		Summary: Summarize(rows, now),
	}, nil
}
