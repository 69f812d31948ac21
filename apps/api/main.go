package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // register the /debug/pprof handlers
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/educore/apps/api/echo"
	"github.com/trezcool/educore/core"
	"github.com/trezcool/educore/core/assessment"
	"github.com/trezcool/educore/core/attendance"
	"github.com/trezcool/educore/core/fee"
	"github.com/trezcool/educore/core/learner"
	"github.com/trezcool/educore/core/school"
	"github.com/trezcool/educore/core/user"
	"github.com/trezcool/educore/fs"
	"github.com/trezcool/educore/services/email"
	"github.com/trezcool/educore/services/logger"
	"github.com/trezcool/educore/services/metrics"
	"github.com/trezcool/educore/storage/database"
	"github.com/trezcool/educore/storage/database/repos"
	"github.com/trezcool/educore/storage/database/sqlexec"
	"github.com/trezcool/educore/storage/scope"
)

// TODO:
// - rate limiting on the un-authed user endpoints
// - APM/Tracing
// - CSRF
func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	zl, err := logsvc.NewZapLogger(conf)
	if err != nil {
		log.Fatalf("setting up zap: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	logger := logsvc.NewRollbarLogger(zl.Named("api"), conf)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(zl.Named("db"), conf)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// every repository goes through the tenant scope
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mtr := metrics.New(reg)
	exec := scope.NewInterceptor(sqlexec.New(db), scope.Options{
		Strict:         conf.Tenancy.Strict,
		RejectMismatch: conf.Tenancy.RejectMismatch,
		Observer:       mtr,
	})

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(repos.NewUserRepository(exec), mailSvc, conf)
	lrnSvc := learner.NewService(repos.NewLearnerRepository(exec))
	feeSvc := fee.NewService(repos.NewInvoiceRepository(exec), lrnSvc)
	schSvc := school.NewService(repos.NewSchoolRepository(exec))
	attSvc := attendance.NewService(repos.NewAttendanceRepository(exec), lrnSvc)
	asmSvc := assessment.NewService(repos.NewAssessmentRepository(exec), lrnSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	learner.InitValidators(validate, translator)

	if err = core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, !conf.Debug); err != nil {
		logger.Fatal(fmt.Sprintf("parsing email templates: %v", err), err)
	}
	if err = user.LoadCommonPasswords(appfs.FS, appfs.CommonPasswordsFile); err != nil {
		logger.Error(fmt.Sprintf("loading common passwords: %v", err), err)
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.
	// /metrics - Prometheus metrics, including the tenant scope outcomes.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

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
		Metrics:    mtr,
		UserSvc:    usrSvc,
		LearnerSvc: lrnSvc,
		FeeSvc:     feeSvc,
		SchoolSvc:  schSvc,
		Validate:   validate,
		Translator: translator,

		AttendanceSvc: attSvc,
		AssessmentSvc: asmSvc,
	})

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)
		os.Exit(1)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
