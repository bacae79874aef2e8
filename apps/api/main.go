package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/nkashama/bweni/apps/api/echo"
	"github.com/nkashama/bweni/core"
	"github.com/nkashama/bweni/core/attendance"
	"github.com/nkashama/bweni/core/complaint"
	"github.com/nkashama/bweni/core/leave"
	"github.com/nkashama/bweni/core/notif"
	"github.com/nkashama/bweni/core/room"
	"github.com/nkashama/bweni/core/user"
	emailsvc "github.com/nkashama/bweni/services/email"
	logsvc "github.com/nkashama/bweni/services/logger"
	msgsvc "github.com/nkashama/bweni/services/messaging"
	"github.com/nkashama/bweni/storage/database"
	sqlxrepos "github.com/nkashama/bweni/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	relayLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "NOTIF : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	relayLogger.Enable(!conf.Debug)

	// set up DB
	sdb, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = sdb.Close(); err != nil {
			logger.Error("failed to close database", err)
		}
	}()
	db := database.NewDB(sdb)

	// set up services
	var mailSvc core.EmailService
	var textSvc core.MessagingService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
		textSvc = msgsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger, conf)
		textSvc = msgsvc.NewTwilioService(conf)
	}

	usrRepo := sqlxrepos.NewUserRepository(db)
	notifRepo := sqlxrepos.NewNotifRepository(db)
	leaveRepo := sqlxrepos.NewLeaveRepository(db)

	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	roomSvc := room.NewService(db, sqlxrepos.NewRoomRepository(db), usrRepo)
	complSvc := complaint.NewService(sqlxrepos.NewComplaintRepository(db), usrRepo)
	leaveSvc := leave.NewService(db, leaveRepo, usrRepo, notifRepo)
	attSvc := attendance.NewService(db, sqlxrepos.NewAttendanceRepository(db), usrRepo, leaveRepo, notifRepo)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	leave.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err = http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start Notification Relay

	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()

	relay := notif.NewRelay(notifRepo, textSvc, relayLogger, conf)
	go func() {
		if err := relay.Start(relayCtx); err != nil {
			relayLogger.Error(fmt.Sprintf("notification relay stopped: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(&echoapi.Options{
		Address:       conf.Server.Host,
		UserSvc:       usrSvc,
		RoomSvc:       roomSvc,
		ComplaintSvc:  complSvc,
		LeaveSvc:      leaveSvc,
		AttendanceSvc: attSvc,
		Validate:      validate,
		Translator:    translator,
		Logger:        logger,
		Conf:          conf,
		Shutdown:      func() { shutdown <- syscall.SIGTERM },
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	stopRelay()

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	if err = server.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
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

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
