package echoapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/mbooni/bursary/core"
	"github.com/mbooni/bursary/core/application"
	"github.com/mbooni/bursary/core/disbursement"
	"github.com/mbooni/bursary/tests"
)

func Test_appHTTPErrorHandler(t *testing.T) {
	validate, translator := core.NewValidate()
	core.InitValidators(validate, translator)

	var shutdowns int
	handler := newAppHTTPErrorHandler(testutil.NewLogger(), translator, func() { shutdowns++ })

	type payload struct {
		Title string `json:"title" validate:"required"`
	}
	validationErr := validate.Struct(payload{})

	tests := []httpTest{
		{
			name: "validation errors", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, Response{Message: invalidDataText, Errors: map[string]string{"title": "this field is required"}}),
			extra:    errors.Wrap(validationErr, "validating payload"),
		},
		{
			name: "upstream", wantCode: http.StatusBadGateway,
			wantData: marchallObj(t, Response{Message: core.ErrUpstream.Error()}),
			extra:    errors.Wrap(core.ErrUpstream, "timeout"),
		},
		{
			name: "draft not found", wantCode: http.StatusNotFound,
			wantData: marchallObj(t, Response{Message: application.ErrDraftNotFound.Error()}),
			extra:    application.ErrDraftNotFound,
		},
		{
			name: "receipt unavailable", wantCode: http.StatusConflict,
			wantData: marchallObj(t, Response{Message: disbursement.ErrReceiptUnavailable.Error()}),
			extra:    errors.Wrap(disbursement.ErrReceiptUnavailable, "downloading receipt"),
		},
		{
			name: "remote", wantCode: http.StatusUnprocessableEntity,
			wantData: marchallObj(t, Response{Message: "Admission number already used"}),
			extra:    errors.Wrap(core.NewRemoteError("Admission number already used"), "submitting"),
		},
		{
			name: "shutdown", wantCode: http.StatusInternalServerError,
			wantData: marchallObj(t, Response{Message: http.StatusText(http.StatusInternalServerError)}),
			extra:    errors.Wrap(core.NewShutdownError("integrity issue"), "saving"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			handler(tt.extra.(error), ctx)
			checkCodeAndData(t, tt, rec)
		})
	}
	assert.Equal(t, 1, shutdowns)
}
