package main

import (
	"github.com/trezcool/goose"

	appfs "github.com/mbooni/bursary/fs"
	"github.com/mbooni/bursary/storage/database"
)

var gooseRunFunc = goose.RunFS // mockable

func (cli *commandLine) migrate(args []string) error {
	return gooseRunFunc(args[0], cli.db, appfs.FS, database.MigrationsDir, args[1:]...)
}
