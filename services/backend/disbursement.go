package backendsvc

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/mbooni/bursary/core"
	"github.com/mbooni/bursary/core/disbursement"
)

const (
	disbursementsFailText = "disbursements could not be loaded"
	receiptFailText       = "receipt could not be downloaded"
)

// disbursementRow is a disbursement as sent by the backend: snake_case keys with camelCase
// fallbacks, ids and amounts as numbers or strings.
type disbursementRow struct {
	ID                 flexInt    `json:"id"`
	ApplicationID      flexInt    `json:"application_id"`
	ApplicationIDCamel flexInt    `json:"applicationId"`
	ChequeNumber       flexString `json:"cheque_number"`
	ChequeNumberCamel  flexString `json:"chequeNumber"`
	Amount             flexFloat  `json:"amount"`
	PaymentDate        flexString `json:"payment_date"`
	PaymentDateCamel   flexString `json:"paymentDate"`
	Institution        flexString `json:"institution"`
	Status             flexString `json:"status"`
}

func (row disbursementRow) toDisbursement() disbursement.Disbursement {
	d := disbursement.Disbursement{
		ID:            int(row.ID),
		ApplicationID: int(row.ApplicationID),
		ChequeNumber:  first(row.ChequeNumber, row.ChequeNumberCamel),
		Amount:        row.Amount.Value,
		PaymentDate:   first(row.PaymentDate, row.PaymentDateCamel),
		Institution:   first(row.Institution),
		Status:        first(row.Status),
	}
	if d.ApplicationID == 0 {
		d.ApplicationID = int(row.ApplicationIDCamel)
	}
	if t := parseTime(d.PaymentDate); !t.IsZero() {
		d.PaymentDate = t.Format("2006-01-02")
	}
	d.Normalize()
	return d
}

func (c *Client) Disbursements(ctx context.Context) ([]disbursement.Disbursement, error) {
	env, err := c.call(ctx, c.newRequest(rest.Get, disbursementEndpoint), disbursementsFailText)
	if err != nil {
		return nil, err
	}
	if !env.succeeded() {
		return nil, core.NewRemoteError(env.message(disbursementsFailText))
	}

	var rows []disbursementRow
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err = decodeRaw(env.Data, &rows); err != nil {
			return nil, errors.Wrapf(core.ErrUpstream, "decoding disbursements: %v", err)
		}
	}
	ds := make([]disbursement.Disbursement, 0, len(rows))
	for _, row := range rows {
		ds = append(ds, row.toDisbursement())
	}
	return ds, nil
}

// DownloadReceipt fetches the receipt document of disbursement id.
// A JSON answer is an error report, never a receipt.
func (c *Client) DownloadReceipt(ctx context.Context, id int) (disbursement.Receipt, error) {
	req := c.newRequest(rest.Get, receiptEndpoint)
	req.Headers["Accept"] = "application/pdf, */*"
	req.QueryParams["id"] = strconv.Itoa(id)

	resp, err := c.send(ctx, req)
	if err != nil {
		return disbursement.Receipt{}, err
	}
	header := http.Header(resp.Headers)
	contentType := header.Get("Content-Type")

	if strings.Contains(contentType, "json") || resp.StatusCode >= http.StatusBadRequest || len(resp.Body) == 0 {
		if env, dErr := decodeEnvelope(resp.Body); dErr == nil && !env.succeeded() {
			return disbursement.Receipt{}, core.NewRemoteError(env.message(receiptFailText))
		}
		return disbursement.Receipt{}, errors.Wrapf(core.ErrUpstream, "downloading receipt %d: status %d", id, resp.StatusCode)
	}

	if contentType == "" {
		contentType = http.DetectContentType([]byte(resp.Body))
	}
	return disbursement.Receipt{
		Filename:    receiptFilename(header.Get("Content-Disposition"), id),
		ContentType: contentType,
		Content:     []byte(resp.Body),
	}, nil
}

func receiptFilename(disposition string, id int) string {
	if _, params, err := mime.ParseMediaType(disposition); err == nil && params["filename"] != "" {
		return params["filename"]
	}
	return fmt.Sprintf("receipt-%d.pdf", id)
}
