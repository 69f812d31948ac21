package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/educore/core"
	"github.com/trezcool/educore/core/assessment"
	"github.com/trezcool/educore/core/attendance"
	"github.com/trezcool/educore/core/fee"
	"github.com/trezcool/educore/core/learner"
	"github.com/trezcool/educore/core/school"
	"github.com/trezcool/educore/core/user"
	"github.com/trezcool/educore/services/metrics"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Metrics    *metrics.Metrics // optional
		UserSvc    user.Service
		LearnerSvc *learner.Service
		FeeSvc     *fee.Service
		SchoolSvc  *school.Service

		AttendanceSvc *attendance.Service
		AssessmentSvc *assessment.Service
		Validate      *validator.Validate
		Translator    ut.Translator

		DisableReqLogs bool
	}

	Server struct {
		conf     *core.Config
		app      *echo.Echo
		shutdown chan os.Signal
		errors   chan error
	}
)

var _ http.Handler = (*Server)(nil)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		conf:     deps.Conf,
		app:      echo.New(),
		shutdown: make(chan os.Signal, 1),
		errors:   make(chan error, 1),
	}
	s.setup(deps)
	return s
}

func (s *Server) setup(deps ServerDeps) {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	if deps.Metrics != nil {
		s.app.Use(metricsMiddleware(deps.Metrics))
	}
	// do not recover in DEV|TEST mode
	if !(s.conf.Debug || s.conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(deps.Logger, deps.Translator, s.signalShutdown)
	s.app.Debug = s.conf.Debug

	s.app.GET("/", home)

	auth := newAuthenticator(s.conf)
	v1 := s.app.Group("/v1")

	// every authenticated request runs within the tenant of its caller
	jwt := middleware.JWTWithConfig(auth.jwtConfig)
	authed := []echo.MiddlewareFunc{jwt, tenantMiddleware, requireTenant}

	registerUserAPI(v1, authed, auth, deps.UserSvc, deps.Validate)
	registerSchoolAPI(v1.Group("/schools", authed...), deps.SchoolSvc, deps.Validate)
	registerLearnerAPI(v1.Group("/learners", authed...), deps.LearnerSvc, deps.Validate)
	registerInvoiceAPI(v1.Group("/invoices", authed...), deps.FeeSvc, deps.Validate)
	registerAttendanceAPI(v1.Group("/classes", authed...), v1.Group("/attendance", authed...), deps.AttendanceSvc, deps.Validate)
	registerAssessmentAPI(v1.Group("/assessments", authed...), deps.AssessmentSvc, deps.Validate)
}

// Start listens on the configured host until Shutdown; listening errors are sent to Errors().
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.conf.Server.Host); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to EDucore API!")
}
