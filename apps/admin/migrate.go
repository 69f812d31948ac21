package main

import (
	"database/sql"

	"github.com/trezcool/goose"

	"github.com/trezcool/educore/fs"
)

// gooseRunFunc runs a goose command against the embedded migrations in `dir`.
var gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error { // mockable
	return goose.RunFS(command, db, appfs.FS, dir, args...)
}

func (cli *commandLine) migrate(args []string) error {
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], cli.db, appfs.MigrationsDir, arguments...)
}
