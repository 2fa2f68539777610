package application

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbooni/bursary/core"
)

var (
	personalInfo = map[string]string{
		"fullName":     "Mwende Musyoka",
		"admissionNo":  "ADM/001/2024",
		"institution":  "Machakos University",
		"constituency": "Mbooni East",
		"ward":         "Kalawa",
		"subward":      "Kivani",
		"village":      "Kyamuoso",
		"reason":       "School fees arrears",
	}
	familyInfo = map[string]string{
		"fatherName":         "John Musyoka",
		"fatherOccupation":   "Farmer",
		"fatherIncome":       "4000",
		"motherName":         "Mary Mwikali",
		"motherOccupation":   "Trader",
		"motherIncome":       "3500",
		"familySize":         "7",
		"dependentsInSchool": "4",
	}
	academicFiles = []string{"studentID", "nationalID", "admissionLetter", "feeStructure"}
)

func testFile(name string) File {
	return File{Name: name, Filename: name + ".pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.4")}
}

// fillStep completes the required fields of step n (Tertiary for the academic step).
func fillStep(t *testing.T, w *Wizard, d *Draft, n int) {
	t.Helper()
	fillStepAs(t, w, d, n, LevelTertiary)
}

// fillStepAs completes the required fields of step n, the academic step for the given level.
func fillStepAs(t *testing.T, w *Wizard, d *Draft, n int, level string) {
	t.Helper()
	switch n {
	case 1:
		require.NoError(t, w.SetAll(d, personalInfo))
	case 2:
		require.NoError(t, w.SetAll(d, familyInfo))
	case 3:
		fields := map[string]string{"academicLevel": level, "formLevel": "Form 4"}
		if level == LevelTertiary {
			fields = map[string]string{
				"academicLevel": level,
				"course":        "BSc. Nursing",
				"yearOfStudy":   "2nd Year",
				"programType":   "Full-time",
			}
		}
		require.NoError(t, w.SetAll(d, fields))
		for _, name := range academicFiles {
			require.NoError(t, w.Attach(d, testFile(name)))
		}
	}
}

func TestWizard_Advance(t *testing.T) {
	w := NewWizard(loadTestForm(t))

	t.Run("empty required field keeps the step", func(t *testing.T) {
		d := NewDraft("1", "owner")
		missing, err := w.Advance(d)
		require.NoError(t, err)
		assert.Equal(t, 1, d.Step)
		assert.Equal(t, []string{"fullName", "admissionNo", "institution", "constituency", "ward", "subward", "village", "reason"}, missing)

		fillStep(t, w, d, 1)
		require.NoError(t, w.Set(d, "village", "   "))
		missing, err = w.Advance(d)
		require.NoError(t, err)
		assert.Equal(t, 1, d.Step)
		assert.Equal(t, []string{"village"}, missing)
	})

	t.Run("complete steps increment by one", func(t *testing.T) {
		d := NewDraft("1", "owner")
		for n := 1; n < 4; n++ {
			fillStep(t, w, d, n)
			missing, err := w.Advance(d)
			require.NoError(t, err)
			assert.Empty(t, missing)
			assert.Equal(t, n+1, d.Step)
		}
		assert.True(t, w.IsConfirmStep(d))

		_, err := w.Advance(d)
		assert.Equal(t, ErrNoNextStep, err)
		assert.Equal(t, 4, d.Step)
	})

	t.Run("only the current step is validated", func(t *testing.T) {
		d := NewDraft("1", "owner")
		fillStep(t, w, d, 1)
		_, _ = w.Advance(d)
		fillStep(t, w, d, 2)
		require.NoError(t, w.Set(d, "fullName", ""))

		missing, err := w.Advance(d)
		require.NoError(t, err)
		assert.Empty(t, missing)
		assert.Equal(t, 3, d.Step)
	})

	t.Run("academic level extends the step", func(t *testing.T) {
		d := NewDraft("1", "owner")
		d.Step = 3
		for _, name := range academicFiles {
			require.NoError(t, w.Attach(d, testFile(name)))
		}

		require.NoError(t, w.Set(d, "academicLevel", LevelTertiary))
		missing, _ := w.Advance(d)
		assert.Equal(t, []string{"course", "yearOfStudy", "programType"}, missing)

		require.NoError(t, w.Set(d, "academicLevel", LevelSecondary))
		missing, _ = w.Advance(d)
		assert.Equal(t, []string{"formLevel"}, missing)
		assert.Equal(t, 3, d.Step)

		require.NoError(t, w.Set(d, "formLevel", "Form 3"))
		missing, _ = w.Advance(d)
		assert.Empty(t, missing)
		assert.Equal(t, 4, d.Step)
	})

	t.Run("submitted draft", func(t *testing.T) {
		d := NewDraft("1", "owner")
		d.Submitted = true
		_, err := w.Advance(d)
		assert.Equal(t, ErrSubmitted, err)
	})
}

func TestWizard_Advance_anyRequiredFieldEmpty(t *testing.T) {
	form := loadTestForm(t)
	w := NewWizard(form)

	type stepCase struct {
		step  int
		level string
	}
	cases := []stepCase{{1, ""}, {2, ""}, {3, LevelTertiary}, {3, LevelSecondary}}
	for _, sc := range cases {
		filled := NewDraft("1", "owner")
		for n := 1; n <= sc.step; n++ {
			fillStepAs(t, w, filled, n, sc.level)
		}
		filled.Step = sc.step

		required := form.Required(sc.step, filled)
		require.NotEmpty(t, required)
		for _, name := range required {
			t.Run(fmt.Sprintf("step %d %s: %s", sc.step, sc.level, name), func(t *testing.T) {
				d := filled.Clone()
				if form.IsFile(name) {
					delete(d.Files, name)
				} else {
					d.Fields[name] = ""
				}

				missing, err := w.Advance(d)
				require.NoError(t, err)
				assert.Equal(t, sc.step, d.Step)
				assert.Equal(t, []string{name}, missing)
			})
		}

		t.Run(fmt.Sprintf("step %d %s: complete", sc.step, sc.level), func(t *testing.T) {
			d := filled.Clone()
			missing, err := w.Advance(d)
			require.NoError(t, err)
			assert.Empty(t, missing)
			assert.Equal(t, sc.step+1, d.Step)
		})
	}
}

func TestWizard_Retreat(t *testing.T) {
	w := NewWizard(loadTestForm(t))
	d := NewDraft("1", "owner")
	d.Step = 4

	for want := 3; want >= 1; want-- {
		require.NoError(t, w.Retreat(d))
		assert.Equal(t, want, d.Step)
	}
	require.NoError(t, w.Retreat(d))
	assert.Equal(t, 1, d.Step, "never below the first step")

	d.Submitted = true
	assert.Equal(t, ErrSubmitted, w.Retreat(d))
}

func TestWizard_Set(t *testing.T) {
	w := NewWizard(loadTestForm(t))

	tests := []struct {
		name    string
		before  map[string]string
		field   string
		value   string
		wantErr bool
		want    string
	}{
		{name: "unknown field", field: "lol", value: "x", wantErr: true},
		{name: "file field", field: "feeStructure", value: "x", wantErr: true},
		{name: "trimmed", field: "fullName", value: "  Mwende  ", want: "Mwende"},
		{name: "text sanitized", field: "reason", value: "<b>fees</b> & books<script>x</script>", want: "fees & books"},
		{name: "bad choice", field: "academicLevel", value: "University", wantErr: true},
		{name: "good choice", field: "academicLevel", value: LevelSecondary, want: LevelSecondary},
		{name: "negative number", field: "familySize", value: "-2", wantErr: true},
		{name: "not a number", field: "fatherIncome", value: "a lot", wantErr: true},
		{name: "NaN", field: "fatherIncome", value: "NaN", wantErr: true},
		{name: "infinity", field: "motherIncome", value: "Inf", wantErr: true},
		{name: "negative infinity", field: "motherIncome", value: "-Infinity", wantErr: true},
		{name: "overflow", field: "familySize", value: "1e400", wantErr: true},
		{name: "hex float", field: "fatherIncome", value: "0x1p3", wantErr: true},
		{name: "zero", field: "dependentsInSchool", value: "0", want: "0"},
		{name: "number", field: "fatherIncome", value: "2500.50", want: "2500.50"},
		{name: "unknown constituency", field: "constituency", value: "Kibwezi", wantErr: true},
		{name: "ward of another constituency", before: map[string]string{"constituency": "Mbooni East"}, field: "ward", value: "Waia/Kako", wantErr: true},
		{name: "ward without constituency", field: "ward", value: "Kalawa", wantErr: true},
		{name: "ward", before: map[string]string{"constituency": "Mbooni East"}, field: "ward", value: "Kalawa", want: "Kalawa"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDraft("1", "owner")
			for k, v := range tt.before {
				d.Fields[k] = v
			}
			err := w.Set(d, tt.field, tt.value)
			if tt.wantErr {
				require.Error(t, err)
				_, ok := errors.Cause(err).(*core.ValidationError)
				assert.True(t, ok, "want a *core.ValidationError, got %T", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Fields[tt.field])
		})
	}
}

func TestWizard_Set_cascade(t *testing.T) {
	w := NewWizard(loadTestForm(t))
	d := NewDraft("1", "owner")
	require.NoError(t, w.SetAll(d, personalInfo))

	// same value keeps dependents
	require.NoError(t, w.Set(d, "constituency", "Mbooni East"))
	assert.Equal(t, "Kalawa", d.Fields["ward"])

	require.NoError(t, w.Set(d, "ward", "Tulimani"))
	assert.Equal(t, "Tulimani", d.Fields["ward"])
	assert.Empty(t, d.Fields["subward"])

	require.NoError(t, w.Set(d, "subward", "Kasikeu"))
	require.NoError(t, w.Set(d, "constituency", "Mbooni West"))
	assert.Empty(t, d.Fields["ward"])
	assert.Empty(t, d.Fields["subward"])

	require.NoError(t, w.Set(d, "constituency", ""))
	_, ok := d.Fields["constituency"]
	assert.False(t, ok)
}

func TestWizard_Attach(t *testing.T) {
	w := NewWizard(loadTestForm(t))
	d := NewDraft("1", "owner")

	assert.Error(t, w.Attach(d, testFile("fullName")))
	assert.Error(t, w.Attach(d, File{Name: "studentID", Filename: "empty.pdf"}))

	require.NoError(t, w.Attach(d, testFile("studentID")))
	replacement := File{Name: "studentID", Filename: "id.png", Content: []byte("png")}
	require.NoError(t, w.Attach(d, replacement))
	assert.Equal(t, "id.png", d.Files["studentID"].Filename)
	assert.Equal(t, 3, d.Files["studentID"].Size)
	assert.False(t, d.IsEmpty("studentID"))

	d.Submitted = true
	assert.Equal(t, ErrSubmitted, w.Attach(d, testFile("nationalID")))
	assert.Equal(t, ErrSubmitted, w.Set(d, "fullName", "x"))
}

func TestWizard_CheckSubmit(t *testing.T) {
	w := NewWizard(loadTestForm(t))

	d := NewDraft("1", "owner")
	assert.Equal(t, ErrNotConfirmed, w.CheckSubmit(d))

	d.Step = 4
	err := w.CheckSubmit(d)
	mErr, ok := errors.Cause(err).(*core.MissingFieldsError)
	require.True(t, ok, "want a *core.MissingFieldsError, got %T", err)
	assert.Equal(t, "please fill all required fields before submitting", mErr.Message)
	assert.Equal(t, []string{"fullName", "admissionNo", "institution", "academicLevel"}, mErr.Fields)

	for n := 1; n < 4; n++ {
		fillStep(t, w, d, n)
	}
	assert.NoError(t, w.CheckSubmit(d))
}

func TestDraft_Clone(t *testing.T) {
	d := NewDraft("1", "owner")
	d.Fields["fullName"] = "Mwende"
	d.Files["studentID"] = testFile("studentID")

	c := d.Clone()
	c.Fields["fullName"] = "Other"
	f := c.Files["studentID"]
	f.Content[0] = 'X'

	assert.Equal(t, "Mwende", d.Fields["fullName"])
	assert.Equal(t, byte('%'), d.Files["studentID"].Content[0])
}
