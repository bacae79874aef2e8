package tests

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

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
	dummydb "github.com/nkashama/bweni/storage/database/dummy"
)

var (
	conf *core.Config
	app  echoapi.Server
	db   *dummydb.DB

	usrRepo   user.Repository
	roomRepo  room.Repository
	complRepo complaint.Repository
	leaveRepo leave.Repository
	attRepo   attendance.Repository
	notifRepo notif.Repository

	attSvc attendance.Service

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errPermDenied   = httpErr{Error: "permission denied"}
)

func TestMain(m *testing.M) {
	conf = &core.Config{
		TestMode:        true,
		Env:             "TEST",
		AppName:         "Bweni",
		SecretKey:       []byte("secret"),
		FrontendBaseURL: "https://bweni.test",
		DefaultFromEmail: mail.Address{
			Name:    "Bweni",
			Address: "noreply@bweni.test",
		},
	}
	conf.Server.JWTExpirationDelta = 10 * time.Minute
	conf.Server.JWTRefreshExpirationDelta = 4 * time.Hour
	conf.Server.PasswordResetTimeoutDelta = 3 * 24 * time.Hour

	// set up DB & repos
	var err error
	db, err = dummydb.Open()
	if err != nil {
		log.Fatalf("dummydb.Open(): %v", err)
	}
	usrRepo = dummydb.NewUserRepository(db)
	roomRepo = dummydb.NewRoomRepository(db)
	complRepo = dummydb.NewComplaintRepository(db)
	leaveRepo = dummydb.NewLeaveRepository(db)
	attRepo = dummydb.NewAttendanceRepository(db)
	notifRepo = dummydb.NewNotifRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	leave.InitValidators(validate, translator)

	attSvc = attendance.NewService(db, attRepo, usrRepo, leaveRepo, notifRepo)

	// set up server
	app = echoapi.NewServer(&echoapi.Options{
		DisableReqLogs: true,
		UserSvc:        user.NewServiceMock(usrRepo, mailSvc, conf),
		RoomSvc:        room.NewService(db, roomRepo, usrRepo),
		ComplaintSvc:   complaint.NewService(complRepo, usrRepo),
		LeaveSvc:       leave.NewService(db, leaveRepo, usrRepo, notifRepo),
		AttendanceSvc:  attSvc,
		Validate:       validate,
		Translator:     translator,
		Logger:         logsvc.NewRollbarLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags), conf),
		Conf:           conf,
	})

	os.Exit(m.Run())
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func resetDB(t *testing.T) {
	t.Helper()
	db.Reset()
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()

	claims := echoapi.GetUserClaims(conf, usr)
	token, err := echoapi.GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()

	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()

	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()

	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
