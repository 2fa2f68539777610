package application

import (
	"strconv"
	"strings"
	"time"

	"github.com/mbooni/bursary/core"
)

// Statuses
const (
	StatusPending  = "Pending"
	StatusReviewed = "Reviewed"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

// Levels
const (
	LevelSecondary = "Secondary"
	LevelTertiary  = "Tertiary"
	LevelOther     = "Other"
)

// FilterAll matches every value of a filter.
const FilterAll = "All"

const PageSize = 8

var (
	Statuses = []string{StatusPending, StatusReviewed, StatusApproved, StatusRejected}
	Levels   = []string{LevelSecondary, LevelTertiary, LevelOther}
)

// Application is a submitted application as listed on the admin dashboard.
type Application struct {
	ID              int       `json:"id"`
	Name            string    `json:"name"`
	AdmissionNo     string    `json:"admission_no"`
	Institution     string    `json:"institution"`
	Level           string    `json:"level"`
	Status          string    `json:"status"`
	SubmittedAt     time.Time `json:"submitted_at"`
	AmountRequested *float64  `json:"amount_requested,omitempty"`
	Ward            string    `json:"ward,omitempty"`
	Constituency    string    `json:"constituency,omitempty"`
	Notes           string    `json:"notes"`
}

// Stats are the dashboard counters, as computed by the backend.
type Stats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Reviewed int `json:"reviewed"`
	Rejected int `json:"rejected"`
}

// Listing is what the backend returns for an applications query.
type Listing struct {
	Applications []Application `json:"applications"`
	Stats        Stats         `json:"stats"`
}

// Page is one page of a filtered Listing.
type Page struct {
	Applications []Application `json:"applications"`
	Stats        Stats         `json:"stats"`
	Years        []string      `json:"years"`
	Page         int           `json:"page"`
	TotalPages   int           `json:"total_pages"`
	Total        int           `json:"total"`
}

type QueryFilter struct {
	Search string `query:"search"`
	Status string `query:"status"`
	Level  string `query:"level"`
	Year   string `query:"year"`
	Page   int    `query:"page"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status)
	qf.Level = core.CleanString(qf.Level)
	qf.Year = core.CleanString(qf.Year)
	if qf.Status == "" {
		qf.Status = FilterAll
	}
	if qf.Level == "" {
		qf.Level = FilterAll
	}
	if qf.Year == "" {
		qf.Year = FilterAll
	}
	if qf.Page < 1 {
		qf.Page = 1
	}
}

// Match applies every filter of qf to app (AND).
// Search is a case-insensitive substring match on the name, admission number or institution.
func (qf QueryFilter) Match(app Application) bool {
	if !isAll(qf.Status) && app.Status != qf.Status {
		return false
	}
	if !isAll(qf.Level) && app.Level != qf.Level {
		return false
	}
	if !isAll(qf.Year) && yearOf(app.SubmittedAt) != qf.Year {
		return false
	}

	q := strings.ToLower(qf.Search)
	return strings.Contains(strings.ToLower(app.Name), q) ||
		strings.Contains(strings.ToLower(app.AdmissionNo), q) ||
		strings.Contains(strings.ToLower(app.Institution), q)
}

func isAll(v string) bool {
	return v == "" || v == FilterAll
}

func yearOf(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strconv.Itoa(t.Year())
}
