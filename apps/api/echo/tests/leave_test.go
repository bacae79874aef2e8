package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/nkashama/bweni/core/leave"
	"github.com/nkashama/bweni/core/user"
	testutil "github.com/nkashama/bweni/tests"
)

func createLeave(t *testing.T, owner user.User, status string, start, end time.Time) leave.LeaveRequest {
	t.Helper()

	now := time.Now().UTC()
	lr, err := leaveRepo.CreateLeaveRequest(context.Background(), leave.LeaveRequest{
		StudentID: owner.ID,
		Reason:    "family visit",
		StartDate: start,
		EndDate:   end,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("createLeave() failed: %v", err)
	}
	return lr
}

func withLeaveStudentInfo(lr leave.LeaveRequest, owner user.User) leave.LeaveRequest {
	info := owner.PublicInfo()
	lr.StudentInfo = &info
	return lr
}

func countUnsentNotifs(t *testing.T) int {
	t.Helper()

	pending, err := notifRepo.QueryUnsentNotifications(context.Background(), 100)
	if err != nil {
		t.Fatalf("QueryUnsentNotifications() failed: %v", err)
	}
	return len(pending)
}

func Test_leaveApi_create(t *testing.T) {
	resetDB(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "hst001", "hero@test.cd", "", user.RoleStudent, true)
	studentToken := getToken(t, student)

	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	end := start.Add(3 * 24 * time.Hour)

	body := func(reason string, start, end time.Time) []byte {
		return marchallObj(t, leave.NewLeaveRequest{Reason: reason, StartDate: start, EndDate: end})
	}

	tests := []httpTest{
		{name: "Auth required", body: body("family visit", start, end), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "required fields", token: studentToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"reason": "this field is required", "startDate": "this field is required", "endDate": "this field is required",
			}),
		},
		{
			name: "endDate before startDate", token: studentToken, wantCode: http.StatusBadRequest,
			body:     body("family visit", end, start),
			wantData: marchallObj(t, map[string]string{"endDate": "endDate must not be before startDate"}),
		},
		{name: "requested", token: studentToken, body: body("family visit", start, end), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/api/leaves"

		t.Run(tt.name, func(t *testing.T) {
			unsentBefore := countUnsentNotifs(t)

			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var lr leave.LeaveRequest
				if err := json.Unmarshal(rec.Body.Bytes(), &lr); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if lr.Status != leave.StatusPending {
					t.Errorf("failed! status = %s; want %s", lr.Status, leave.StatusPending)
				}
				if lr.StudentID != student.ID {
					t.Errorf("failed! student = %s; want %s", lr.StudentID, student.ID)
				}

				// the parent notification is enqueued with the request
				if got := countUnsentNotifs(t); got != unsentBefore+1 {
					t.Fatalf("failed! unsent notifications = %d; want %d", got, unsentBefore+1)
				}
				pending, _ := notifRepo.QueryUnsentNotifications(context.Background(), 100)
				if n := pending[len(pending)-1]; n.Recipient != student.ParentMobile {
					t.Errorf("failed! notification recipient = %s; want %s", n.Recipient, student.ParentMobile)
				}
				return
			}

			checkCodeAndData(t, tt, rec)
			if got := countUnsentNotifs(t); got != unsentBefore {
				t.Errorf("failed! unsent notifications = %d; want %d", got, unsentBefore)
			}
		})
	}
}

func Test_leaveApi_queryRetrieve(t *testing.T) {
	resetDB(t)

	hero := testutil.CreateUser(t, usrRepo, "Hero", "hst001", "hero@test.cd", "", user.RoleStudent, true)
	king := testutil.CreateUser(t, usrRepo, "King", "hst002", "king@test.cd", "", user.RoleStudent, true)
	admin := testutil.CreateUser(t, usrRepo, "Warden", "stf001", "warden@test.cd", "", user.RoleAdmin, true)

	start := time.Now().UTC().Add(24 * time.Hour)
	end := start.Add(2 * 24 * time.Hour)
	heroLeave := createLeave(t, hero, leave.StatusPending, start, end)
	kingLeave := createLeave(t, king, leave.StatusApproved, start, end)

	heroOut := withLeaveStudentInfo(heroLeave, hero)
	kingOut := withLeaveStudentInfo(kingLeave, king)

	tests := []httpTest{
		{name: "Auth required", method: http.MethodGet, path: "/api/leaves", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "students see their own", method: http.MethodGet, path: "/api/leaves", token: getToken(t, hero),
			wantData: marchallList(t, heroOut),
		},
		{
			name: "wardens see all", method: http.MethodGet, path: "/api/leaves", token: getToken(t, admin),
			wantData: marchallList(t, heroOut, kingOut),
		},
		{
			name: "status filter", method: http.MethodGet, path: "/api/leaves?status=Approved", token: getToken(t, admin),
			wantData: marchallList(t, kingOut),
		},
		{
			name: "owner retrieves", method: http.MethodGet, path: "/api/leaves/" + heroLeave.ID, token: getToken(t, hero),
			wantData: marchallObj(t, heroOut),
		},
		{
			name: "warden retrieves any", method: http.MethodGet, path: "/api/leaves/" + kingLeave.ID, token: getToken(t, admin),
			wantData: marchallObj(t, kingOut),
		},
		{
			name: "others are forbidden", method: http.MethodGet, path: "/api/leaves/" + kingLeave.ID, token: getToken(t, hero),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
	}
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_leaveApi_decide(t *testing.T) {
	resetDB(t)

	hero := testutil.CreateUser(t, usrRepo, "Hero", "hst001", "hero@test.cd", "", user.RoleStudent, true)
	admin := testutil.CreateUser(t, usrRepo, "Warden", "stf001", "warden@test.cd", "", user.RoleAdmin, true)
	adminToken := getToken(t, admin)

	start := time.Now().UTC().Add(24 * time.Hour)
	end := start.Add(2 * 24 * time.Hour)
	toApprove := createLeave(t, hero, leave.StatusPending, start, end)
	toReject := createLeave(t, hero, leave.StatusPending, start, end)

	bPtr := func(b bool) *bool { return &b }

	type extraTest struct {
		wantStatus     string
		wantApprover   bool
		wantNotifDelta int
	}
	tests := []httpTest{
		{
			name: "decisions are warden-only", path: "/api/leaves/" + toApprove.ID, token: getToken(t, hero),
			body:     marchallObj(t, leave.UpdateLeaveRequest{Status: leave.StatusApproved}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
		{
			name: "invalid status", path: "/api/leaves/" + toApprove.ID, token: adminToken,
			body:     marchallObj(t, leave.UpdateLeaveRequest{Status: "Maybe"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"status": "status must be one of [Pending 'Parent Approval Pending' Approved Rejected]"}),
		},
		{
			name: "parent reply recorded without decision", path: "/api/leaves/" + toApprove.ID, token: adminToken,
			body:     marchallObj(t, leave.UpdateLeaveRequest{ParentApproval: bPtr(true)}),
			wantCode: http.StatusOK, extra: extraTest{wantStatus: leave.StatusPending},
		},
		{
			name: "approved", path: "/api/leaves/" + toApprove.ID, token: adminToken,
			body:     marchallObj(t, leave.UpdateLeaveRequest{Status: leave.StatusApproved}),
			wantCode: http.StatusOK, extra: extraTest{wantStatus: leave.StatusApproved, wantApprover: true, wantNotifDelta: 1},
		},
		{
			name: "rejected", path: "/api/leaves/" + toReject.ID, token: adminToken,
			body:     marchallObj(t, leave.UpdateLeaveRequest{Status: leave.StatusRejected, RejectionReason: "exams week"}),
			wantCode: http.StatusOK, extra: extraTest{wantStatus: leave.StatusRejected, wantNotifDelta: 1},
		},
		{
			name: "unknown request", path: "/api/leaves/lol", token: adminToken,
			body:     marchallObj(t, leave.UpdateLeaveRequest{Status: leave.StatusApproved}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "leave request not found"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPut

		t.Run(tt.name, func(t *testing.T) {
			unsentBefore := countUnsentNotifs(t)

			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if extra, ok := tt.extra.(extraTest); ok {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var lr leave.LeaveRequest
				if err := json.Unmarshal(rec.Body.Bytes(), &lr); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if lr.Status != extra.wantStatus {
					t.Errorf("failed! status = %s; want %s", lr.Status, extra.wantStatus)
				}
				if extra.wantApprover {
					if lr.ApprovedBy.String != admin.ID || !lr.AdminApproval {
						t.Errorf("failed! approval not stamped: approvedBy=%v adminApproval=%v", lr.ApprovedBy, lr.AdminApproval)
					}
					if lr.ApproverInfo == nil || lr.ApproverInfo.RollNumber != "" {
						t.Errorf("failed! unexpected approverInfo: %+v", lr.ApproverInfo)
					}
				}
				if got := countUnsentNotifs(t); got != unsentBefore+extra.wantNotifDelta {
					t.Errorf("failed! unsent notifications = %d; want %d", got, unsentBefore+extra.wantNotifDelta)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_leaveApi_destroy(t *testing.T) {
	resetDB(t)

	hero := testutil.CreateUser(t, usrRepo, "Hero", "hst001", "hero@test.cd", "", user.RoleStudent, true)
	king := testutil.CreateUser(t, usrRepo, "King", "hst002", "king@test.cd", "", user.RoleStudent, true)

	start := time.Now().UTC().Add(24 * time.Hour)
	end := start.Add(2 * 24 * time.Hour)
	heroLeave := createLeave(t, hero, leave.StatusPending, start, end)

	tests := []httpTest{
		{
			name: "only owner or warden may delete", path: "/api/leaves/" + heroLeave.ID, token: getToken(t, king),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
		{name: "owner withdraws", path: "/api/leaves/" + heroLeave.ID, token: getToken(t, hero), wantCode: http.StatusNoContent},
		{
			name: "unknown request", path: "/api/leaves/" + heroLeave.ID, token: getToken(t, hero),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "leave request not found"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodDelete

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusNoContent {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}
