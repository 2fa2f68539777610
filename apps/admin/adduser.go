package main

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/mbooni/bursary/core"
	"github.com/mbooni/bursary/core/user"
)

// addUser updates or creates an active user.User identified by an email or an admission number.
func (cli *commandLine) addUser(name, ident, pwd string, isAdmin bool) error {
	name = core.CleanString(name)
	err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(name, "name"),
		vala.StringNotEmpty(user.CleanIdentifier(ident), "identifier"),
		vala.StringNotEmpty(pwd, "password"),
	).Check()
	if err != nil {
		return err
	}

	ctx := context.Background()
	now := time.Now().UTC()
	email, admNo := user.SplitIdentifier(ident)

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Identifier: user.CleanIdentifier(ident)})
	isNew := err == user.ErrNotFound
	switch {
	case isNew:
		usr = user.User{Email: email, AdmissionNo: admNo, CreatedAt: now}
	case err != nil:
		return errors.Wrap(err, "finding user")
	}

	usr.Name = name
	usr.Roles = user.StudentRoles
	if isAdmin {
		usr.Roles = user.AdminRoles
	}
	usr.IsActive = true
	usr.UpdatedAt = now
	if err = usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "setting password")
	}

	if isNew {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	}
	return errors.Wrap(err, "saving user")
}
