package application

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/mbooni/bursary/core"
)

var (
	// errors
	ErrNoNextStep   = errors.New("already on the last step")
	ErrSubmitted    = errors.New("application already submitted")
	ErrNotConfirmed = errors.New("application must be confirmed before it is submitted")

	missingStepText   = "please fill all required fields"
	missingSubmitText = "please fill all required fields before submitting"
)

// Wizard sequences the steps of the Form over a Draft.
// Forward progress is gated on the required fields of the current step only.
type Wizard struct {
	form *Form
}

func NewWizard(form *Form) *Wizard {
	return &Wizard{form: form}
}

func (w *Wizard) Form() *Form { return w.form }

// IsConfirmStep reports whether the draft is on the last (confirmation) step.
func (w *Wizard) IsConfirmStep(d *Draft) bool {
	return d.Step == w.form.NumSteps()
}

// Advance moves the draft to the next step when no required field of the current step is empty.
// The missing fields are returned otherwise and the step is left unchanged.
func (w *Wizard) Advance(d *Draft) ([]string, error) {
	if d.Submitted {
		return nil, ErrSubmitted
	}
	if d.Step >= w.form.NumSteps() {
		return nil, ErrNoNextStep
	}
	if missing := w.form.Missing(d.Step, d); len(missing) > 0 {
		return missing, nil
	}
	d.Step++
	d.UpdatedAt = time.Now().UTC()
	return nil, nil
}

// Retreat moves the draft back one step, without validation. The first step is a floor.
func (w *Wizard) Retreat(d *Draft) error {
	if d.Submitted {
		return ErrSubmitted
	}
	if d.Step > 1 {
		d.Step--
		d.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// Set assigns a string field of the draft.
// An empty value clears the field.
func (w *Wizard) Set(d *Draft, name, value string) error {
	if d.Submitted {
		return ErrSubmitted
	}
	fld, ok := w.form.Field(name)
	if !ok {
		return fieldErr(name, "unknown field")
	}
	if fld.Kind == KindFile {
		return fieldErr(name, "a file is expected")
	}

	if fld.Kind == KindText {
		value = core.SanitizeText(value)
	} else {
		value = core.CleanString(value)
	}

	if value == "" {
		delete(d.Fields, name)
		w.cascade(d, name)
		d.UpdatedAt = time.Now().UTC()
		return nil
	}

	if err := w.check(d, fld, value); err != nil {
		return err
	}

	prev := d.Fields[name]
	d.Fields[name] = value
	if prev != value {
		w.cascade(d, name)
	}
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// SetAll assigns several fields at once; it stops at the first invalid field.
// Location fields are applied in cascading order so a constituency never clears a ward set alongside it.
func (w *Wizard) SetAll(d *Draft, fields map[string]string) error {
	for _, name := range []string{FieldConstituency, FieldWard, FieldSubWard} {
		if v, ok := fields[name]; ok {
			if err := w.Set(d, name, v); err != nil {
				return err
			}
		}
	}
	for name, v := range fields {
		switch name {
		case FieldConstituency, FieldWard, FieldSubWard:
			continue
		}
		if err := w.Set(d, name, v); err != nil {
			return err
		}
	}
	return nil
}

// Attach stores an uploaded document, replacing any previous one for the same field.
func (w *Wizard) Attach(d *Draft, f File) error {
	if d.Submitted {
		return ErrSubmitted
	}
	if !w.form.IsFile(f.Name) {
		return fieldErr(f.Name, "this field does not accept files")
	}
	if len(f.Content) == 0 {
		return fieldErr(f.Name, "the uploaded file is empty")
	}
	f.Size = len(f.Content)
	d.Files[f.Name] = f
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// CheckSubmit verifies that the draft can be sent to the backend.
func (w *Wizard) CheckSubmit(d *Draft) error {
	if d.Submitted {
		return ErrSubmitted
	}
	if !w.IsConfirmStep(d) {
		return ErrNotConfirmed
	}
	if missing := d.missing(w.form.SubmitRequired()); len(missing) > 0 {
		return core.NewMissingFieldsError(missingSubmitText, missing)
	}
	return nil
}

func (w *Wizard) check(d *Draft, fld Field, value string) error {
	switch {
	case len(fld.Choices) > 0:
		if !contains(fld.Choices, value) {
			return fieldErr(fld.Name, fmt.Sprintf("must be one of %v", fld.Choices))
		}
	case fld.Kind == KindNumber:
		if !isAmount(value) {
			return fieldErr(fld.Name, "must be a positive number")
		}
	case fld.Kind == KindLocation:
		var options []string
		switch fld.Name {
		case FieldConstituency:
			options = w.form.Constituencies()
		case FieldWard:
			options = w.form.Wards(d.Fields[FieldConstituency])
		case FieldSubWard:
			options = w.form.SubWards(d.Fields[FieldConstituency], d.Fields[FieldWard])
		}
		if !contains(options, value) {
			return fieldErr(fld.Name, "invalid location")
		}
	}
	return nil
}

// cascade clears the location fields that depend on the changed one.
func (w *Wizard) cascade(d *Draft, name string) {
	switch name {
	case FieldConstituency:
		delete(d.Fields, FieldWard)
		delete(d.Fields, FieldSubWard)
	case FieldWard:
		delete(d.Fields, FieldSubWard)
	}
}

// isAmount reports whether s is a finite, non-negative decimal number.
func isAmount(s string) bool {
	if strings.ContainsAny(s, "xX_") {
		return false
	}
	n, err := strconv.ParseFloat(s, 64)
	return err == nil && n >= 0 && !math.IsInf(n, 0) && !math.IsNaN(n)
}

func fieldErr(field, msg string) error {
	return core.NewValidationError(errors.New(msg), core.FieldError{Field: field, Error: msg})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
