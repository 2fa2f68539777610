package application

import "strings"

type (
	FieldValue struct {
		Name  string
		Value string
	}

	// Submission is the payload sent to the backend for a draft.
	Submission struct {
		DraftID string
		Values  []FieldValue // every non-file field of the form, in definition order; unset ones are empty
		Files   []File       // attached files, in definition order
	}
)

// Submission builds the backend payload of d. Every string field of the form is present, empty when unset.
func (f *Form) Submission(d *Draft) Submission {
	s := Submission{DraftID: d.ID}
	for _, fld := range f.Fields() {
		if fld.Kind == KindFile {
			if file, ok := d.Files[fld.Name]; ok && len(file.Content) > 0 {
				s.Files = append(s.Files, file)
			}
			continue
		}
		s.Values = append(s.Values, FieldValue{Name: fld.Name, Value: strings.TrimSpace(d.Fields[fld.Name])})
	}
	return s
}

// Value returns the value sent for a string field.
func (s Submission) Value(name string) string {
	for _, v := range s.Values {
		if v.Name == name {
			return v.Value
		}
	}
	return ""
}
