package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForm_Submission(t *testing.T) {
	form := loadTestForm(t)
	w := NewWizard(form)

	d := NewDraft("draft-1", "owner")
	require.NoError(t, w.SetAll(d, map[string]string{
		"fullName":      "Mwende Musyoka",
		"academicLevel": LevelSecondary,
		"formLevel":     "Form 2",
	}))
	require.NoError(t, w.Attach(d, testFile("feeStructure")))
	require.NoError(t, w.Attach(d, testFile("studentID")))

	s := form.Submission(d)
	assert.Equal(t, "draft-1", s.DraftID)

	var names []string
	for _, v := range s.Values {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{
		"fullName", "admissionNo", "institution", "constituency", "ward", "subward", "village", "reason",
		"fatherName", "fatherOccupation", "fatherIncome", "motherName", "motherOccupation", "motherIncome",
		"familySize", "dependentsInSchool", "guardianName", "guardianContact",
		"academicLevel", "course", "yearOfStudy", "programType", "formLevel",
	}, names)

	assert.Equal(t, "Mwende Musyoka", s.Value("fullName"))
	assert.Equal(t, "Form 2", s.Value("formLevel"))
	for _, name := range []string{"course", "guardianName", "yearOfStudy"} {
		assert.Equal(t, "", s.Value(name), name)
	}

	require.Len(t, s.Files, 2)
	assert.Equal(t, "studentID", s.Files[0].Name)
	assert.Equal(t, "feeStructure", s.Files[1].Name)
}
