package disbursement

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbooni/bursary/core"
	"github.com/mbooni/bursary/tests"
)

type backendMock struct {
	ds        []Disbursement
	err       error
	downloads []int
}

func (b *backendMock) Disbursements(context.Context) ([]Disbursement, error) {
	// callers must not see each other's changes
	ds := make([]Disbursement, len(b.ds))
	copy(ds, b.ds)
	return ds, b.err
}

func (b *backendMock) DownloadReceipt(_ context.Context, id int) (Receipt, error) {
	b.downloads = append(b.downloads, id)
	return Receipt{Filename: "receipt.pdf", ContentType: "application/pdf", Content: []byte("%PDF")}, nil
}

var testDisbursements = []Disbursement{
	{ID: 1, ApplicationID: 10, ChequeNumber: "CHQ-001", Amount: 15000, PaymentDate: "2024-02-10", Institution: "Machakos University", Status: StatusPaid},
	{ID: 2, ApplicationID: 11, ChequeNumber: "", Amount: 8000, Institution: "Kitondo Secondary", Status: " "},
	{ID: 3, ApplicationID: 12, ChequeNumber: "CHQ-003", Amount: 12000, Institution: "South Eastern Kenya University", Status: StatusAwaitingCheque},
	{ID: 4, ApplicationID: 10, ChequeNumber: "chq-004", Amount: 5000, PaymentDate: "2023-09-01", Institution: "Machakos University", Status: StatusCompleted},
	{ID: 5, ApplicationID: 13, ChequeNumber: "CHQ-005", Amount: 7000, Institution: "Mbooni Girls", Status: StatusApproved},
}

func newTestService(backend Backend) *Service {
	return NewService(backend, testutil.NewLogger())
}

func ids(ds []Disbursement) []int {
	res := make([]int, 0, len(ds))
	for _, d := range ds {
		res = append(res, d.ID)
	}
	return res
}

func TestService_Query(t *testing.T) {
	svc := newTestService(&backendMock{ds: testDisbursements})
	ctx := context.Background()

	tests := []struct {
		name   string
		filter Filter
		want   []int
	}{
		{name: "all", filter: Filter{}, want: []int{1, 2, 3, 4, 5}},
		{name: "status", filter: Filter{Status: StatusPending}, want: []int{2}},
		{name: "search institution", filter: Filter{Search: "machakos"}, want: []int{1, 4}},
		{name: "search cheque", filter: Filter{Search: "CHQ-00"}, want: []int{1, 3, 4, 5}},
		{name: "search and status", filter: Filter{Search: "university", Status: StatusCompleted}, want: []int{4}},
		{name: "nothing", filter: Filter{Search: "lol"}, want: []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listing, err := svc.Query(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(listing.Disbursements))
			assert.Equal(t, AdminSummary{Total: 5, TotalAmount: 47000, Completed: 1, Pending: 1, Approved: 1}, listing.Summary)
		})
	}
}

func TestService_Student(t *testing.T) {
	svc := newTestService(&backendMock{ds: testDisbursements})

	listing, err := svc.Student(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StudentSummary{TotalPaid: 15000, AwaitingCheque: 1, Pending: 1}, listing.Summary)
	assert.Equal(t, StatusPending, listing.Disbursements[1].Status, "empty status is pending")
}

func TestService_Receipt(t *testing.T) {
	backend := &backendMock{ds: testDisbursements}
	svc := newTestService(backend)
	ctx := context.Background()

	_, err := svc.Receipt(ctx, 42)
	assert.Equal(t, ErrNotFound, err)
	_, err = svc.Receipt(ctx, 3)
	assert.Equal(t, ErrReceiptUnavailable, err)
	assert.Empty(t, backend.downloads)

	rcpt, err := svc.Receipt(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "receipt.pdf", rcpt.Filename)
	assert.Equal(t, []int{1}, backend.downloads)

	backend.err = errors.Wrap(core.ErrUpstream, "timeout")
	_, err = svc.Receipt(ctx, 1)
	assert.Equal(t, core.ErrUpstream, errors.Cause(err))
}

func TestDisbursement_PaidOn(t *testing.T) {
	d := Disbursement{PaymentDate: "2024-02-10"}
	paidOn, ok := d.PaidOn()
	require.True(t, ok)
	assert.Equal(t, 2024, paidOn.Year())

	for _, date := range []string{"", "10/02/2024"} {
		_, ok = Disbursement{PaymentDate: date}.PaidOn()
		assert.False(t, ok, date)
	}
}
