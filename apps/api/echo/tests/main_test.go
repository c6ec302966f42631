package tests

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

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
	dummydb "github.com/trezcool/fotoescola/storage/database/dummy"
)

// testApp is a server wired on a fresh in-memory database.
type testApp struct {
	*echoapi.Server

	conf       *core.Config
	mailSvc    *emailsvc.ConsoleServiceMock
	usrSvc     user.Service
	usrRepo    user.Repository
	txRepo     payment.Repository
	invRepo    invoice.Repository
	courseRepo course.Repository
	postRepo   blog.Repository
}

func setup(t *testing.T) *testApp {
	t.Helper()

	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(zap.NewNop().Sugar(), conf)
	logger.Enable(false)

	// set up DB & repos
	db, err := dummydb.Open(conf.Database)
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	app := &testApp{
		conf:       conf,
		mailSvc:    emailsvc.NewConsoleServiceMock(conf, logger),
		usrRepo:    dummydb.NewUserRepository(db),
		txRepo:     dummydb.NewTransactionRepository(db),
		invRepo:    dummydb.NewInvoiceRepository(db),
		courseRepo: dummydb.NewCourseRepository(db),
		postRepo:   dummydb.NewPostRepository(db),
	}

	// set up services
	renderer, err := invoice.NewRenderer(conf.Invoice)
	if err != nil {
		t.Fatalf("invoice.NewRenderer() failed: %v", err)
	}
	paymentSvc := payment.NewService(app.txRepo)
	app.usrSvc = user.NewServiceMock(app.usrRepo, app.mailSvc, conf)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// set up server
	app.Server = echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
		UserSvc:        app.usrSvc,
		CourseSvc:      course.NewService(app.courseRepo),
		BlogSvc:        blog.NewService(app.postRepo),
		ContactSvc:     contact.NewService(app.mailSvc, conf),
		PaymentSvc:     paymentSvc,
		InvoiceSvc:     invoice.NewService(app.invRepo, paymentSvc, app.mailSvc, renderer, conf),
	})
	return app
}

func (app *testApp) token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := echoapi.GenerateToken(app.conf, echoapi.GetUserClaims(app.conf, usr))
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}
	return token
}
