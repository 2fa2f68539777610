package application

// fixtures shared with the external test package
var (
	PersonalInfo  = personalInfo
	FamilyInfo    = familyInfo
	AcademicFiles = academicFiles
	TestFile      = testFile
)
