package application

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appfs "github.com/mbooni/bursary/fs"
)

func loadTestForm(t *testing.T) *Form {
	t.Helper()
	form, err := LoadForm(appfs.FS, "forms/application.yaml")
	require.NoError(t, err)
	return form
}

func TestLoadForm(t *testing.T) {
	form := loadTestForm(t)

	require.Equal(t, 4, form.NumSteps())
	var names []string
	for _, s := range form.Steps() {
		names = append(names, s.Name)
	}
	if diff := cmp.Diff([]string{"Personal Info", "Family Info", "Academic Files", "Confirm"}, names); diff != "" {
		t.Errorf("step names mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []string{"fullName", "admissionNo", "institution", "academicLevel"}, form.SubmitRequired())
	assert.True(t, form.IsFile("feeStructure"))
	assert.False(t, form.IsFile("fullName"))
	assert.False(t, form.Has("lol"))

	_, ok := form.Step(0)
	assert.False(t, ok)
	_, ok = form.Step(5)
	assert.False(t, ok)

	assert.Equal(t, []string{"Mbooni East", "Mbooni West"}, form.Constituencies())
	assert.Equal(t, []string{"Kalawa", "Tulimani", "Kithungo/Kitundu", "Mbooni"}, form.Wards("Mbooni East"))
	assert.Equal(t, []string{"Kako Market", "Waia", "Kilungu Base"}, form.SubWards("Mbooni West", "Waia/Kako"))
	assert.Nil(t, form.Wards("Nairobi"))
	assert.Nil(t, form.SubWards("Mbooni East", "Waia/Kako"))

	fields := form.Fields()
	require.NotEmpty(t, fields)
	assert.Equal(t, "fullName", fields[0].Name)
	assert.Equal(t, KindString, fields[0].Kind)
}

func TestParseForm_errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "invalid yaml", data: "steps: ["},
		{name: "single step", data: "steps: [{name: One}]"},
		{
			name: "unknown step field",
			data: "steps: [{name: One, required: [a]}, {name: Two}]\nfields: {b: {label: B}}",
		},
		{
			name: "unknown condition field",
			data: "steps: [{name: One, when: [{field: a, equals: x, require: [b]}]}, {name: Two}]\nfields: {b: {label: B}}",
		},
		{
			name: "unknown submit field",
			data: "steps: [{name: One}, {name: Two}]\nsubmit: [a]",
		},
		{
			name: "locations not a mapping",
			data: "steps: [{name: One}, {name: Two}]\nlocations: [a, b]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseForm([]byte(tt.data)); err == nil {
				t.Error("ParseForm() error = nil, want an error")
			}
		})
	}
}

func TestForm_Required(t *testing.T) {
	form := loadTestForm(t)
	base := []string{"academicLevel", "studentID", "nationalID", "admissionLetter", "feeStructure"}

	tests := []struct {
		name  string
		level string
		want  []string
	}{
		{name: "no level", want: base},
		{name: "Tertiary", level: LevelTertiary, want: append(append([]string{}, base...), "course", "yearOfStudy", "programType")},
		{name: "Secondary", level: LevelSecondary, want: append(append([]string{}, base...), "formLevel")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDraft("1", "owner")
			if tt.level != "" {
				d.Fields["academicLevel"] = tt.level
			}
			if diff := cmp.Diff(tt.want, form.Required(3, d)); diff != "" {
				t.Errorf("Required() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	assert.Empty(t, form.Required(4, NewDraft("1", "owner")))
	assert.Nil(t, form.Required(9, NewDraft("1", "owner")))
}
