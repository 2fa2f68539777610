package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/mbooni/bursary/core"
)

var (
	// errors
	ErrNotFound          = errors.New("user not found")
	ErrEmailExists       = errors.New("a user with this email already exists")
	ErrAdmissionNoExists = errors.New("a user with this admission number already exists")
	ErrInvalidResetLink  = errors.New("the password reset link is invalid or has expired")
	errMissingIdentifier = errors.New("an email or admission number is required")

	passwordResetTmplName = "password_reset"
)

type (
	Repository interface {
		// CheckUniqueness returns ErrEmailExists or ErrAdmissionNoExists when another user (not in excludedIDs) holds them.
		CheckUniqueness(ctx context.Context, email, admNo string, excludedIDs ...string) error
		CreateUser(ctx context.Context, usr User) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name, User.Email or User.AdmissionNo.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUsersByID(ctx context.Context, ids ...string) (int, error)
	}

	Service interface {
		CheckUniqueness(ctx context.Context, email, admNo string, excludedIDs ...string) error
		Register(ctx context.Context, nu NewUser) (User, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByIdentifier(ctx context.Context, ident string) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		SetPassword(ctx context.Context, usr User, pwd string) (User, error)
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, data ResetUserPassword) error
		Delete(ctx context.Context, ids ...string) (int, error)
	}

	service struct {
		repo     Repository
		mailSvc  core.EmailService
		logger   core.Logger
		tokenGen *tokenGenerator
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository, mailSvc core.EmailService, logger core.Logger, conf *core.Config) Service {
	return &service{
		repo:     repo,
		mailSvc:  mailSvc,
		logger:   logger,
		tokenGen: newTokenGenerator(conf.SecretKey, conf.PasswordResetTimeoutDelta),
	}
}

func (svc *service) CheckUniqueness(ctx context.Context, email, admNo string, excludedIDs ...string) error {
	if err := svc.repo.CheckUniqueness(ctx, email, admNo, excludedIDs...); err != nil {
		switch errors.Cause(err) {
		case ErrEmailExists, ErrAdmissionNoExists:
			return core.NewValidationError(err, core.FieldError{Field: "emailOrAdmNo", Error: err.Error()})
		default:
			return errors.Wrap(err, "checking user uniqueness")
		}
	}
	return nil
}

// Register creates a user from a validated NewUser.
// Users without roles are students.
func (svc *service) Register(ctx context.Context, nu NewUser) (User, error) {
	email, admNo := SplitIdentifier(nu.EmailOrAdmNo)
	if email == "" && admNo == "" {
		return User{}, errMissingIdentifier
	}
	roles := nu.Roles
	if len(roles) == 0 {
		roles = StudentRoles
	}

	now := time.Now().UTC()
	usr := User{
		Name:        nu.Name,
		Gender:      nu.Gender,
		Email:       email,
		AdmissionNo: admNo,
		Phone:       nu.Phone,
		SubCounty:   nu.SubCounty,
		Ward:        nu.Ward,
		SubWard:     nu.SubWard,
		Village:     nu.Village,
		IsActive:    true,
		Roles:       roles,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByIdentifier(ctx context.Context, ident string) (User, error) {
	ident = CleanIdentifier(ident)
	if ident == "" {
		return User{}, ErrNotFound
	}
	return svc.repo.GetUser(ctx, GetFilter{Identifier: ident})
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// RequestPasswordReset mails a password reset link to the active user owning email.
// The mail is sent in the background.
func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: CleanIdentifier(email)})
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}
	go svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *service) sendPasswordResetMail(usr User) {
	svc.mailSvc.SendMessages(svc.passwordResetMessage(usr))
}

func (svc *service) passwordResetMessage(usr User) *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: passwordResetTmplName,
		TemplateData: map[string]interface{}{
			"Name":  usr.Name,
			"UID":   EncodeUID(usr),
			"Token": svc.tokenGen.makeToken(usr),
		},
	}
}

func (svc *service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	id, err := decodeUID(data.UID)
	if err != nil {
		return core.NewValidationError(ErrInvalidResetLink)
	}
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewValidationError(ErrInvalidResetLink)
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if err = svc.tokenGen.verifyToken(usr, data.Token); err != nil {
		svc.logger.Info(fmt.Sprintf("user.ResetPassword(%s): %v", usr.ID, err))
		return core.NewValidationError(ErrInvalidResetLink)
	}
	if _, err = svc.SetPassword(ctx, usr, data.Password); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return nil
}

func (svc *service) Delete(ctx context.Context, ids ...string) (int, error) {
	return svc.repo.DeleteUsersByID(ctx, ids...)
}
