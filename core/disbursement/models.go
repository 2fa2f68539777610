package disbursement

import (
	"strings"
	"time"

	"github.com/mbooni/bursary/core"
)

// Statuses
const (
	StatusPending        = "Pending"
	StatusApproved       = "Approved"
	StatusCompleted      = "Completed"
	StatusPaid           = "Paid"
	StatusAwaitingCheque = "Awaiting Cheque"
)

// FilterAll matches every status.
const FilterAll = "All"

// dateLayout is the layout of PaymentDate.
const dateLayout = "2006-01-02"

// Disbursement is a bursary payment made (or to be made) to an institution for an application.
type Disbursement struct {
	ID            int     `json:"id"`
	ApplicationID int     `json:"application_id"`
	ChequeNumber  string  `json:"cheque_number"`
	Amount        float64 `json:"amount"`
	PaymentDate   string  `json:"payment_date"` // YYYY-MM-DD, empty until paid
	Institution   string  `json:"institution"`
	Status        string  `json:"status"`
}

// Normalize trims text fields and defaults an empty status to Pending.
func (d *Disbursement) Normalize() {
	d.ChequeNumber = core.CleanString(d.ChequeNumber)
	d.Institution = core.CleanString(d.Institution)
	d.PaymentDate = core.CleanString(d.PaymentDate)
	d.Status = core.CleanString(d.Status)
	if d.Status == "" {
		d.Status = StatusPending
	}
}

func (d Disbursement) IsPaid() bool {
	return d.Status == StatusPaid
}

// PaidOn parses PaymentDate.
func (d Disbursement) PaidOn() (time.Time, bool) {
	if d.PaymentDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, d.PaymentDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Receipt is a payment receipt document.
type Receipt struct {
	Filename    string
	ContentType string
	Content     []byte
}

type Filter struct {
	Search string `query:"search"`
	Status string `query:"status"`
}

func (f *Filter) Clean() {
	f.Search = core.CleanString(f.Search)
	f.Status = core.CleanString(f.Status)
	if f.Status == "" {
		f.Status = FilterAll
	}
}

// Match does a case-insensitive search on the institution and the cheque number, then checks the status.
func (f Filter) Match(d Disbursement) bool {
	if q := strings.ToLower(f.Search); q != "" {
		if !(strings.Contains(strings.ToLower(d.Institution), q) || strings.Contains(strings.ToLower(d.ChequeNumber), q)) {
			return false
		}
	}
	return f.Status == "" || f.Status == FilterAll || d.Status == f.Status
}

// AdminSummary are the counters of the admin disbursements page. They cover every disbursement, not only the filtered ones.
type AdminSummary struct {
	Total       int     `json:"total"`
	TotalAmount float64 `json:"total_amount"`
	Completed   int     `json:"completed"`
	Pending     int     `json:"pending"`
	Approved    int     `json:"approved"`
}

func NewAdminSummary(ds []Disbursement) AdminSummary {
	s := AdminSummary{Total: len(ds)}
	for _, d := range ds {
		s.TotalAmount += d.Amount
		switch d.Status {
		case StatusCompleted:
			s.Completed++
		case StatusPending:
			s.Pending++
		case StatusApproved:
			s.Approved++
		}
	}
	return s
}

// StudentSummary are the cards of the student disbursements page.
type StudentSummary struct {
	TotalPaid      float64 `json:"total_paid"`
	AwaitingCheque int     `json:"awaiting_cheque"`
	Pending        int     `json:"pending"`
}

func NewStudentSummary(ds []Disbursement) StudentSummary {
	var s StudentSummary
	for _, d := range ds {
		switch d.Status {
		case StatusPaid:
			s.TotalPaid += d.Amount
		case StatusAwaitingCheque:
			s.AwaitingCheque++
		case StatusPending:
			s.Pending++
		}
	}
	return s
}

type (
	Listing struct {
		Disbursements []Disbursement `json:"disbursements"`
		Summary       AdminSummary   `json:"summary"`
	}

	StudentListing struct {
		Disbursements []Disbursement `json:"disbursements"`
		Summary       StudentSummary `json:"summary"`
	}
)
