package backendsvc

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/pkg/errors"

	"github.com/mbooni/bursary/core/application"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeSubmission writes s as a multipart/form-data body: every string field in order, empty ones
// included, then every file with its original filename and content type.
func encodeSubmission(s application.Submission) ([]byte, string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	for _, v := range s.Values {
		if err := w.WriteField(v.Name, v.Value); err != nil {
			return nil, "", errors.Wrapf(err, "writing field %s", v.Name)
		}
	}

	for _, f := range s.Files {
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(f.Name), quoteEscaper.Replace(f.Filename)))
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", errors.Wrapf(err, "creating part %s", f.Name)
		}
		if _, err = part.Write(f.Content); err != nil {
			return nil, "", errors.Wrapf(err, "writing file %s", f.Name)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", errors.Wrap(err, "closing multipart writer")
	}
	return body.Bytes(), w.FormDataContentType(), nil
}
