package main

import (
	"context"
	"time"

	"github.com/mbooni/bursary/core/user"
)

func (cli *commandLine) resetPassword(ident, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Identifier: user.CleanIdentifier(ident)})
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = cli.usrRepo.UpdateUser(ctx, usr)
	return err
}
