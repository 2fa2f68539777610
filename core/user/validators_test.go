package user

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbooni/bursary/core"
)

// uniquenessStub only answers CheckUniqueness.
type uniquenessStub struct {
	Service
	err error
}

func (s uniquenessStub) CheckUniqueness(context.Context, string, string, ...string) error {
	return s.err
}

func newTestValidate() *validator.Validate {
	validate, translator := core.NewValidate()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate
}

func validNewUser() NewUser {
	return NewUser{
		Name:            " Mwende Musyoka ",
		Gender:          "Female",
		EmailOrAdmNo:    " adm/001/2024",
		Phone:           "0712 345 678",
		SubCounty:       "Mbooni East",
		Ward:            "Kalawa",
		SubWard:         "Kivani",
		Village:         "Kyamuoso",
		Password:        "Kyaani#2024",
		PasswordConfirm: "Kyaani#2024",
	}
}

// fieldTags maps every failed field to its failed tag.
func fieldTags(t *testing.T, err error) map[string]string {
	t.Helper()
	vErrs, ok := errors.Cause(err).(validator.ValidationErrors)
	require.True(t, ok, "want validator.ValidationErrors, got %T (%v)", err, err)
	tags := make(map[string]string, len(vErrs))
	for _, vErr := range vErrs {
		tags[vErr.Field()] = vErr.Tag()
	}
	return tags
}

func TestNewUser_Validate(t *testing.T) {
	validate := newTestValidate()
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		nu := validNewUser()
		require.NoError(t, nu.Validate(ctx, validate, uniquenessStub{}))
		assert.Equal(t, "Mwende Musyoka", nu.Name)
		assert.Equal(t, GenderFemale, nu.Gender)
		assert.Equal(t, "ADM/001/2024", nu.EmailOrAdmNo)
		assert.Equal(t, "0712345678", nu.Phone)
	})

	tests := []struct {
		name   string
		modify func(nu *NewUser)
		want   map[string]string
	}{
		{
			name:   "required",
			modify: func(nu *NewUser) { *nu = NewUser{} },
			want: map[string]string{
				"fullName": "required", "gender": "required", "emailOrAdmNo": "required", "phone": "required",
				"subCounty": "required", "ward": "required", "subWard": "required", "village": "required",
				"password": "required", "confirmPassword": "required",
			},
		},
		{name: "gender", modify: func(nu *NewUser) { nu.Gender = "robot" }, want: map[string]string{"gender": "oneof"}},
		{name: "phone", modify: func(nu *NewUser) { nu.Phone = "+254712345678" }, want: map[string]string{"phone": "kephone"}},
		{name: "admission no", modify: func(nu *NewUser) { nu.EmailOrAdmNo = "adm 001" }, want: map[string]string{"emailOrAdmNo": "admno_or_email"}},
		{name: "email", modify: func(nu *NewUser) { nu.EmailOrAdmNo = "mwende@localhost" }, want: map[string]string{"emailOrAdmNo": "admno_or_email"}},
		{name: "password too short", modify: func(nu *NewUser) { nu.Password, nu.PasswordConfirm = "a1#", "a1#" }, want: map[string]string{"password": "pwdminlen"}},
		{name: "password with space", modify: func(nu *NewUser) { nu.Password, nu.PasswordConfirm = "kyaani 2024", "kyaani 2024" }, want: map[string]string{"password": "pwdnospace"}},
		{name: "numeric password", modify: func(nu *NewUser) { nu.Password, nu.PasswordConfirm = "20242024", "20242024" }, want: map[string]string{"password": "pwdnotallnum"}},
		{name: "password like name", modify: func(nu *NewUser) { nu.Password, nu.PasswordConfirm = "mwendemusyoka", "mwendemusyoka" }, want: map[string]string{"password": "pwdtoosim"}},
		{name: "password mismatch", modify: func(nu *NewUser) { nu.PasswordConfirm = "Kyaani#2025" }, want: map[string]string{"confirmPassword": "eqfield"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := validNewUser()
			tt.modify(&nu)
			err := nu.Validate(ctx, validate, uniquenessStub{})
			assert.Equal(t, tt.want, fieldTags(t, err))
		})
	}

	t.Run("taken", func(t *testing.T) {
		nu := validNewUser()
		vErr := core.NewValidationError(ErrAdmissionNoExists, core.FieldError{Field: "emailOrAdmNo", Error: ErrAdmissionNoExists.Error()})
		err := nu.Validate(ctx, validate, uniquenessStub{err: vErr})
		assert.Equal(t, vErr, err)
	})
}

func TestResetUserPassword_Validate(t *testing.T) {
	validate := newTestValidate()

	rp := ResetUserPassword{Token: "t", UID: "u", Password: "Kyaani#2024", PasswordConfirm: "Kyaani#2024"}
	assert.NoError(t, rp.Validate(validate))

	rp.Password, rp.PasswordConfirm = "123456", "123456"
	assert.Equal(t, map[string]string{"password": "pwdnotallnum"}, fieldTags(t, rp.Validate(validate)))

	assert.Equal(t, map[string]string{
		"token": "required", "uid": "required", "password": "required", "password_confirm": "required",
	}, fieldTags(t, ResetUserPassword{}.Validate(validate)))
}

func TestSplitIdentifier(t *testing.T) {
	tests := []struct {
		ident, email, admNo string
	}{
		{ident: " Mwende@Mbooni.TEST ", email: "mwende@mbooni.test"},
		{ident: "adm/001/2024", admNo: "ADM/001/2024"},
		{ident: "  "},
	}
	for _, tt := range tests {
		email, admNo := SplitIdentifier(tt.ident)
		assert.Equal(t, tt.email, email, tt.ident)
		assert.Equal(t, tt.admNo, admNo, tt.ident)
	}
}
