package disbursement

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/mbooni/bursary/core"
)

var (
	// errors
	ErrNotFound           = errors.New("disbursement not found")
	ErrReceiptUnavailable = errors.New("a receipt is only available once the disbursement is paid")
)

// Backend is the remote system of record for disbursements.
type Backend interface {
	Disbursements(ctx context.Context) ([]Disbursement, error)
	DownloadReceipt(ctx context.Context, id int) (Receipt, error)
}

type Service struct {
	backend Backend
	logger  core.Logger
}

func NewService(backend Backend, logger core.Logger) *Service {
	return &Service{backend: backend, logger: logger}
}

// All returns every disbursement, normalized.
func (svc *Service) All(ctx context.Context) ([]Disbursement, error) {
	ds, err := svc.backend.Disbursements(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetching disbursements")
	}
	for i := range ds {
		ds[i].Normalize()
	}
	return ds, nil
}

// Query returns the disbursements matching filter along with the summary of all of them.
func (svc *Service) Query(ctx context.Context, filter Filter) (Listing, error) {
	filter.Clean()
	ds, err := svc.All(ctx)
	if err != nil {
		return Listing{}, err
	}
	filtered := make([]Disbursement, 0, len(ds))
	for _, d := range ds {
		if filter.Match(d) {
			filtered = append(filtered, d)
		}
	}
	return Listing{Disbursements: filtered, Summary: NewAdminSummary(ds)}, nil
}

func (svc *Service) Student(ctx context.Context) (StudentListing, error) {
	ds, err := svc.All(ctx)
	if err != nil {
		return StudentListing{}, err
	}
	return StudentListing{Disbursements: ds, Summary: NewStudentSummary(ds)}, nil
}

// Receipt downloads the receipt of a paid disbursement.
func (svc *Service) Receipt(ctx context.Context, id int) (Receipt, error) {
	ds, err := svc.All(ctx)
	if err != nil {
		return Receipt{}, err
	}
	for _, d := range ds {
		if d.ID != id {
			continue
		}
		if !d.IsPaid() {
			return Receipt{}, ErrReceiptUnavailable
		}
		rcpt, err := svc.backend.DownloadReceipt(ctx, id)
		if err != nil {
			svc.logger.Warn(fmt.Sprintf("disbursement.Service.Receipt(%d): %v", id, err), err)
			return Receipt{}, errors.Wrap(err, "downloading receipt")
		}
		return rcpt, nil
	}
	return Receipt{}, ErrNotFound
}
