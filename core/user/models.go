package user

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/mbooni/bursary/core"
)

// Roles
const (
	RoleAdmin      = "admin:"
	RoleAdminOwner = "admin:owner"
	RoleStudent    = "student:"
)

// Genders
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

var (
	AdminRoles   = []string{RoleAdmin, RoleAdminOwner}
	StudentRoles = []string{RoleStudent}
	AllRoles     = append(append([]string{}, AdminRoles...), StudentRoles...)
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"full_name"`
	Gender       string    `json:"gender"`
	Email        string    `json:"email,omitempty"`
	AdmissionNo  string    `json:"admission_no,omitempty"`
	Phone        string    `json:"phone"`
	SubCounty    string    `json:"sub_county"`
	Ward         string    `json:"ward"`
	SubWard      string    `json:"sub_ward"`
	Village      string    `json:"village"`
	IsActive     bool      `json:"is_active"`
	Roles        []string  `json:"roles"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) RoleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.RoleStartsWith(RoleAdmin)
}

func (u *User) IsStudent() bool {
	return u.RoleStartsWith(RoleStudent)
}

// Identifier is what the user logs in with: the email if any, the admission number otherwise.
func (u *User) Identifier() string {
	if u.Email != "" {
		return u.Email
	}
	return u.AdmissionNo
}

// NewUser contains information needed to register a new User.
type NewUser struct {
	Name            string   `json:"fullName" validate:"required,notblank"`
	Gender          string   `json:"gender" validate:"required,oneof=male female other"`
	EmailOrAdmNo    string   `json:"emailOrAdmNo" validate:"required,admno_or_email"`
	Phone           string   `json:"phone" validate:"required,kephone"`
	SubCounty       string   `json:"subCounty" validate:"required,notblank"`
	Ward            string   `json:"ward" validate:"required,notblank"`
	SubWard         string   `json:"subWard" validate:"required,notblank"`
	Village         string   `json:"village" validate:"required,notblank"`
	Password        string   `json:"password" validate:"required"`
	PasswordConfirm string   `json:"confirmPassword" validate:"required,eqfield=Password"`
	Roles           []string `json:"-"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Gender = core.CleanString(nu.Gender, true /* lower */)
	nu.EmailOrAdmNo = CleanIdentifier(nu.EmailOrAdmNo)
	nu.Phone = strings.ReplaceAll(core.CleanString(nu.Phone), " ", "")
	nu.SubCounty = core.CleanString(nu.SubCounty)
	nu.Ward = core.CleanString(nu.Ward)
	nu.SubWard = core.CleanString(nu.SubWard)
	nu.Village = core.CleanString(nu.Village)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	email, admNo := SplitIdentifier(nu.EmailOrAdmNo)
	return svc.CheckUniqueness(ctx, email, admNo)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

type QueryFilter struct {
	Search   string   `query:"search"`
	Roles    []string `query:"role"`
	IsActive *bool    `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// GetFilter selects a single user; the first non-empty field wins.
type GetFilter struct {
	ID          string
	Email       string
	AdmissionNo string
	Identifier  string // email or admission number
}

// CleanIdentifier normalizes a login identifier: emails are lowered, admission numbers uppered.
func CleanIdentifier(ident string) string {
	ident = core.CleanString(ident)
	if strings.Contains(ident, "@") {
		return strings.ToLower(ident)
	}
	return strings.ToUpper(ident)
}

// SplitIdentifier returns the identifier as (email, "") or ("", admission number).
func SplitIdentifier(ident string) (email, admNo string) {
	ident = CleanIdentifier(ident)
	if strings.Contains(ident, "@") {
		return ident, ""
	}
	return "", ident
}
