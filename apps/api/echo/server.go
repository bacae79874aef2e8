package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/nkashama/bweni/core"
	"github.com/nkashama/bweni/core/attendance"
	"github.com/nkashama/bweni/core/complaint"
	"github.com/nkashama/bweni/core/leave"
	"github.com/nkashama/bweni/core/room"
	"github.com/nkashama/bweni/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		UserSvc       user.Service
		RoomSvc       room.Service
		ComplaintSvc  complaint.Service
		LeaveSvc      leave.Service
		AttendanceSvc attendance.Service

		Validate   *validator.Validate
		Translator ut.Translator
		Logger     core.Logger
		Conf       *core.Config

		// Shutdown gracefully stops the app on unrecoverable errors.
		Shutdown func()
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.opts.Shutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	api := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(newAppJWTConfig(conf))

	registerUserAPI(api, jwt, s.opts.UserSvc, s.opts.Validate, conf)
	registerRoomAPI(api, jwt, s.opts.RoomSvc, s.opts.UserSvc, s.opts.Validate)
	registerComplaintAPI(api, jwt, s.opts.ComplaintSvc, s.opts.UserSvc, s.opts.Validate)
	registerLeaveAPI(api, jwt, s.opts.LeaveSvc, s.opts.UserSvc, s.opts.Validate)
	registerAttendanceAPI(api, jwt, s.opts.AttendanceSvc, s.opts.UserSvc, s.opts.Validate)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Bweni API!")
}
