package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof" // register the /debug/pprof handlers
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	echoapi "github.com/trezcool/fotoescola/apps/api/echo"
	"github.com/trezcool/fotoescola/core"
	"github.com/trezcool/fotoescola/core/blog"
	"github.com/trezcool/fotoescola/core/contact"
	"github.com/trezcool/fotoescola/core/course"
	"github.com/trezcool/fotoescola/core/invoice"
	"github.com/trezcool/fotoescola/core/payment"
	"github.com/trezcool/fotoescola/core/user"
	emailsvc "github.com/trezcool/fotoescola/services/email"
	logsvc "github.com/trezcool/fotoescola/services/logger"
	"github.com/trezcool/fotoescola/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	console, err := logsvc.NewConsole(conf)
	if err != nil {
		return errors.Wrap(err, "setting up console logger")
	}
	logger := logsvc.NewRollbarLogger(console.Named("API"), conf)
	logger.Enable(!conf.Debug)
	defer logger.Close()

	// set up DB
	repos, err := storage.Open(context.Background(), conf.Database)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err := repos.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	renderer, err := invoice.NewRenderer(conf.Invoice)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up invoice renderer: %v", err), err)
	}
	paymentSvc := payment.NewService(repos.Transactions)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build), "env", conf.Env, "engine", conf.Database.Engine)
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	user.LoadCommonPasswords(logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		UserSvc:    user.NewService(repos.Users, mailSvc, conf),
		CourseSvc:  course.NewService(repos.Courses),
		BlogSvc:    blog.NewService(repos.Posts),
		ContactSvc: contact.NewService(mailSvc, conf),
		PaymentSvc: paymentSvc,
		InvoiceSvc: invoice.NewService(repos.Invoices, paymentSvc, mailSvc, renderer, conf),
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		return errors.Wrap(err, "server error")

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				return errors.Wrap(err, "could not force stop server")
			}
		}
	}
	return nil
}
