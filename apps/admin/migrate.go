package main

import (
	"github.com/pkg/errors"

	"github.com/trezcool/fotoescola/storage/database"
)

var gooseRunFunc = database.Migrate // mockable

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errors.New("migrate requires the postgres engine")
	}
	return gooseRunFunc(cli.db, args[0], args[1:]...)
}
