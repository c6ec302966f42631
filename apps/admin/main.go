package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/fotoescola/core"
	"github.com/trezcool/fotoescola/core/blog"
	"github.com/trezcool/fotoescola/core/course"
	"github.com/trezcool/fotoescola/core/payment"
	logsvc "github.com/trezcool/fotoescola/services/logger"
	"github.com/trezcool/fotoescola/storage"
)

func main() {
	conf := core.NewConfig()

	console, err := logsvc.NewConsole(conf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setting up logger: %v\n", err)
		os.Exit(1)
	}
	logger := console.Named("ADMIN")
	defer func() { _ = logger.Sync() }()

	// set up DB; migrate runs its own goose command
	open := storage.Open
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		open = storage.OpenUnmigrated
	}
	repos, err := open(context.Background(), conf.Database)
	if err != nil {
		logger.Fatalw("setting up database", "error", err)
	}
	defer func() { _ = repos.Close() }()

	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())

	// start CLI
	cli := commandLine{
		db:         repos.DB(),
		usrRepo:    repos.Users,
		courseSvc:  course.NewService(repos.Courses),
		blogSvc:    blog.NewService(repos.Posts),
		paymentSvc: payment.NewService(repos.Transactions),
		validate:   validate,
		logger:     logger,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Errorw("command failed", "command", os.Args[1], "error", err)
		}
		_ = repos.Close()
		os.Exit(1)
	}
}
