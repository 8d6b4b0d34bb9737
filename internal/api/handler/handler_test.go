package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/dto"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/service"
	pkgerrors "github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/pkg/errors"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock IdentityService ──

type mockIdentityService struct {
	result        *dto.MatchResult
	gotContact    string
	gotIDProofNum string
}

func (m *mockIdentityService) Resolve(_ context.Context, contact, idProof string) *dto.MatchResult {
	m.gotContact, m.gotIDProofNum = contact, idProof
	return m.result
}

// ── Mock IntakeService ──

type mockIntakeService struct {
	createDraftResult *dto.CreateDraftResponse
	createDraftErr    error
	listResult        []dto.DraftResponse
	listTotal         int64
	listErr           error
	deleteErr         error
	createVolResult   *dto.CreateVolunteerResponse
	createVolErr      error
	getResult         *dto.VolunteerResponse
	getErr            error
	statusResult      *dto.VolunteerResponse
	statusErr         error
	gotActor          string
}

func (m *mockIntakeService) CreateDraft(_ context.Context, _ *dto.CreateDraftRequest, actorID string) (*dto.CreateDraftResponse, error) {
	m.gotActor = actorID
	return m.createDraftResult, m.createDraftErr
}
func (m *mockIntakeService) ListDrafts(_ context.Context, _ *dto.DraftListRequest) ([]dto.DraftResponse, int64, error) {
	return m.listResult, m.listTotal, m.listErr
}
func (m *mockIntakeService) DeleteDraft(_ context.Context, _ string, _ string) error {
	return m.deleteErr
}
func (m *mockIntakeService) CreateVolunteer(_ context.Context, _ *dto.CreateVolunteerRequest, actorID string) (*dto.CreateVolunteerResponse, error) {
	m.gotActor = actorID
	return m.createVolResult, m.createVolErr
}
func (m *mockIntakeService) GetVolunteer(_ context.Context, _ string) (*dto.VolunteerResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockIntakeService) UpdateStatus(_ context.Context, _ string, _ *dto.UpdateStatusRequest, _ string) (*dto.VolunteerResponse, error) {
	return m.statusResult, m.statusErr
}

// ── Mock StudyService ──

type mockStudyService struct {
	createResult *dto.StudyResponse
	createErr    error
	getResult    *dto.StudyResponse
	getErr       error
	listResult   []dto.StudyResponse
	assignResult *dto.AssignmentResponse
	assignErr    error
}

func (m *mockStudyService) Create(_ context.Context, _ *dto.CreateStudyRequest, _ string) (*dto.StudyResponse, error) {
	return m.createResult, m.createErr
}
func (m *mockStudyService) Get(_ context.Context, _ string) (*dto.StudyResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockStudyService) List(_ context.Context) ([]dto.StudyResponse, error) {
	return m.listResult, nil
}
func (m *mockStudyService) Assign(_ context.Context, _ string, _ *dto.AssignVolunteerRequest, _ string) (*dto.AssignmentResponse, error) {
	return m.assignResult, m.assignErr
}
func (m *mockStudyService) ListAssignments(_ context.Context, _ string) ([]dto.AssignmentResponse, error) {
	return nil, nil
}

// ── Mock AttendanceService ──

type mockAttendanceService struct {
	toggleResult   *dto.ToggleResponse
	toggleErr      error
	bulkResult     *dto.BulkToggleResponse
	bulkErr        error
	presenceResult *dto.PresenceResponse
	presenceErr    error
	gotLimit       int
}

func (m *mockAttendanceService) Toggle(_ context.Context, _ *dto.ToggleRequest, _ string) (*dto.ToggleResponse, error) {
	return m.toggleResult, m.toggleErr
}
func (m *mockAttendanceService) BulkToggle(_ context.Context, _ *dto.BulkToggleRequest, _ string) (*dto.BulkToggleResponse, error) {
	return m.bulkResult, m.bulkErr
}
func (m *mockAttendanceService) RapidEntry(_ context.Context, _, _ string) (*dto.ToggleResponse, error) {
	return m.toggleResult, m.toggleErr
}
func (m *mockAttendanceService) Presence(_ context.Context, _ string, limit int) (*dto.PresenceResponse, error) {
	m.gotLimit = limit
	return m.presenceResult, m.presenceErr
}
func (m *mockAttendanceService) History(_ context.Context, _ string, _ int) ([]dto.AttendanceEventResponse, error) {
	return nil, nil
}

// ── Mock SyncService ──

type mockSyncService struct {
	snapshot       *service.Snapshot
	snapshotErr    error
	gotIfNoneMatch string
}

func (m *mockSyncService) Contract() *dto.SyncContractResponse {
	return &dto.SyncContractResponse{DashboardPollIntervalMs: 30000, ServerTime: "2025-06-15T10:00:00+05:30", Timezone: "Asia/Kolkata"}
}
func (m *mockSyncService) Version(_ context.Context, _ string) (string, error) {
	return m.snapshot.ETag, nil
}
func (m *mockSyncService) Snapshot(_ context.Context, _, ifNoneMatch string) (*service.Snapshot, error) {
	m.gotIfNoneMatch = ifNoneMatch
	return m.snapshot, m.snapshotErr
}
func (m *mockSyncService) PollInterval() time.Duration { return 30 * time.Second }

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setAuth(c *gin.Context) {
	c.Set("user_id", "desk-user-id")
	c.Set("role", "coordinator")
}

func withAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		setAuth(c)
		c.Next()
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func serve(method, path string, body io.Reader, route string, h gin.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.Handle(method, route, withAuth(), h)
	r.ServeHTTP(w, req)
	return w
}

// ═══════════════════════════════════════════════════════════
// IdentityHandler Tests
// ═══════════════════════════════════════════════════════════

func TestIdentityHandler_Check(t *testing.T) {
	mock := &mockIdentityService{result: &dto.MatchResult{Exists: true, Location: dto.MatchLocationMaster, MasterID: "m-1"}}
	h := NewIdentityHandler(mock)

	w := serve("GET", "/identity/check?contact=98765%2043210&id_proof_number=ab12", nil, "/identity/check", h.Check)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.gotContact != "98765 43210" || mock.gotIDProofNum != "ab12" {
		t.Errorf("query 参数未透传: %q %q", mock.gotContact, mock.gotIDProofNum)
	}
	data := parseResponse(w).Data.(map[string]interface{})
	if data["exists"] != true || data["master_id"] != "m-1" {
		t.Errorf("unexpected data: %v", data)
	}
}

// ═══════════════════════════════════════════════════════════
// IntakeHandler Tests
// ═══════════════════════════════════════════════════════════

func TestIntakeHandler_CreateDraft_Success(t *testing.T) {
	mock := &mockIntakeService{createDraftResult: &dto.CreateDraftResponse{DraftID: "d-1"}}
	h := NewIntakeHandler(mock, &mockAttendanceService{})

	w := serve("POST", "/drafts", jsonBody(dto.CreateDraftRequest{FirstName: "Ravi", Surname: "Sharma", Contact: "9876543210"}), "/drafts", h.CreateDraft)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
	if mock.gotActor != "desk-user-id" {
		t.Errorf("actor 应取自认证上下文，实际 %q", mock.gotActor)
	}
}

func TestIntakeHandler_CreateDraft_BadJSON(t *testing.T) {
	h := NewIntakeHandler(&mockIntakeService{}, &mockAttendanceService{})

	w := serve("POST", "/drafts", bytes.NewReader([]byte(`{"first_name":"A"}`)), "/drafts", h.CreateDraft)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != codeValidation {
		t.Errorf("expected code %d, got %d", codeValidation, resp.Code)
	}
}

func TestIntakeHandler_CreateDraft_Unauthenticated(t *testing.T) {
	h := NewIntakeHandler(&mockIntakeService{}, &mockAttendanceService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/drafts", jsonBody(dto.CreateDraftRequest{FirstName: "A", Surname: "B", Contact: "9876543210"}))
	req.Header.Set("Content-Type", "application/json")
	r := gin.New()
	r.POST("/drafts", h.CreateDraft)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestIntakeHandler_CreateVolunteer_Duplicate(t *testing.T) {
	match := &dto.MatchResult{Exists: true, Location: dto.MatchLocationMaster, MatchType: dto.MatchTypeContact, MasterID: "m-1"}
	mock := &mockIntakeService{createVolErr: &service.DuplicateError{Match: match}}
	h := NewIntakeHandler(mock, &mockAttendanceService{})

	w := serve("POST", "/volunteers", jsonBody(dto.CreateVolunteerRequest{Name: "A", Contact: "9876543210"}), "/volunteers", h.CreateVolunteer)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != codeDuplicate {
		t.Errorf("expected code %d, got %d", codeDuplicate, resp.Code)
	}
	data := resp.Data.(map[string]interface{})
	if data["master_id"] != "m-1" {
		t.Errorf("409 应附带命中记录，实际 %v", data)
	}
}

func TestIntakeHandler_ListDrafts(t *testing.T) {
	mock := &mockIntakeService{listResult: []dto.DraftResponse{{DraftID: "d-1"}}, listTotal: 21}
	h := NewIntakeHandler(mock, &mockAttendanceService{})

	w := serve("GET", "/drafts?page=2&page_size=20", nil, "/drafts", h.ListDrafts)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	data := parseResponse(w).Data.(map[string]interface{})
	pg := data["pagination"].(map[string]interface{})
	if pg["total_pages"].(float64) != 2 || pg["page"].(float64) != 2 {
		t.Errorf("unexpected pagination: %v", pg)
	}
}

func TestIntakeHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantHTTP int
		wantCode int
	}{
		{"not found", service.ErrVolunteerNotFound, http.StatusNotFound, codeVolunteerNotFound},
		{"validation", service.ErrInvalidStatus, http.StatusBadRequest, codeValidation},
		{"optimistic lock", pkgerrors.ErrOptimisticLock, http.StatusConflict, codeVersionConflict},
		{"storage", pkgerrors.Storage("update_status", errors.New("conn reset")), http.StatusInternalServerError, 50000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewIntakeHandler(&mockIntakeService{statusErr: tc.err}, &mockAttendanceService{})

			w := serve("PUT", "/volunteers/v-1/status", jsonBody(dto.UpdateStatusRequest{Status: "approved"}), "/volunteers/:id/status", h.UpdateStatus)

			if w.Code != tc.wantHTTP {
				t.Errorf("expected %d, got %d", tc.wantHTTP, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tc.wantCode {
				t.Errorf("expected code %d, got %d", tc.wantCode, resp.Code)
			}
		})
	}
}

func TestIntakeHandler_GetAttendance_PassesLimit(t *testing.T) {
	att := &mockAttendanceService{presenceResult: &dto.PresenceResponse{VolunteerID: "v-1", State: "IN"}}
	h := NewIntakeHandler(&mockIntakeService{}, att)

	w := serve("GET", "/volunteers/v-1/attendance?limit=5", nil, "/volunteers/:id/attendance", h.GetAttendance)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if att.gotLimit != 5 {
		t.Errorf("limit 未透传，实际 %d", att.gotLimit)
	}
}

// ═══════════════════════════════════════════════════════════
// StudyHandler Tests
// ═══════════════════════════════════════════════════════════

func TestStudyHandler_CreateStudy_CodeTaken(t *testing.T) {
	h := NewStudyHandler(&mockStudyService{createErr: service.ErrStudyCodeTaken})

	w := serve("POST", "/studies", jsonBody(dto.CreateStudyRequest{StudyCode: "S1", Name: "x", StartDate: "2025-06-01"}), "/studies", h.CreateStudy)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestStudyHandler_CreateStudy_BadDate(t *testing.T) {
	h := NewStudyHandler(&mockStudyService{})

	w := serve("POST", "/studies", jsonBody(map[string]string{"study_code": "S1", "name": "x", "start_date": "15/06/2025"}), "/studies", h.CreateStudy)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestStudyHandler_GetStudy_NotFound(t *testing.T) {
	h := NewStudyHandler(&mockStudyService{getErr: service.ErrStudyNotFound})

	w := serve("GET", "/studies/NOPE", nil, "/studies/:code", h.GetStudy)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != codeStudyNotFound {
		t.Errorf("expected code %d, got %d", codeStudyNotFound, resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// AttendanceHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAttendanceHandler_Toggle_Success(t *testing.T) {
	mock := &mockAttendanceService{toggleResult: &dto.ToggleResponse{VolunteerID: "v-1", Changed: true, State: "IN"}}
	h := NewAttendanceHandler(mock)

	w := serve("POST", "/attendance/toggle", jsonBody(dto.ToggleRequest{VolunteerID: "v-1", Action: "IN"}), "/attendance/toggle", h.Toggle)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	data := parseResponse(w).Data.(map[string]interface{})
	if data["changed"] != true || data["state"] != "IN" {
		t.Errorf("unexpected data: %v", data)
	}
}

func TestAttendanceHandler_Toggle_RejectedIsNoOp(t *testing.T) {
	s1 := "S1"
	mock := &mockAttendanceService{toggleErr: &service.TransitionError{
		VolunteerID: "v-1",
		Current:     "IN",
		StudyCode:   &s1,
		Reason:      service.ErrOpenInOtherStudy,
	}}
	h := NewAttendanceHandler(mock)

	w := serve("POST", "/attendance/toggle", jsonBody(dto.ToggleRequest{VolunteerID: "v-1", Action: "IN"}), "/attendance/toggle", h.Toggle)

	if w.Code != http.StatusOK {
		t.Fatalf("状态变更被拒绝应返回 200，实际 %d", w.Code)
	}
	data := parseResponse(w).Data.(map[string]interface{})
	if data["changed"] != false || data["no_op"] != true || data["reason"] != "open_in_other_study" || data["study_code"] != "S1" {
		t.Errorf("unexpected data: %v", data)
	}
}

func TestAttendanceHandler_Toggle_InvalidAction(t *testing.T) {
	h := NewAttendanceHandler(&mockAttendanceService{})

	w := serve("POST", "/attendance/toggle", jsonBody(map[string]string{"volunteer_id": "v-1", "action": "LEAVE"}), "/attendance/toggle", h.Toggle)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAttendanceHandler_Bulk_TooLarge(t *testing.T) {
	h := NewAttendanceHandler(&mockAttendanceService{bulkErr: service.ErrBatchTooLarge})

	w := serve("POST", "/attendance/bulk", jsonBody(dto.BulkToggleRequest{VolunteerIDs: []string{"v-1"}, Action: "OUT"}), "/attendance/bulk", h.BulkToggle)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAttendanceHandler_Bulk_PartialFailure(t *testing.T) {
	mock := &mockAttendanceService{bulkResult: &dto.BulkToggleResponse{
		Succeeded: []string{"v-1"},
		Failed:    []dto.BulkFailure{{VolunteerID: "v-2", Reason: "already_in_state", CurrentState: "OUT"}},
	}}
	h := NewAttendanceHandler(mock)

	w := serve("POST", "/attendance/bulk", jsonBody(dto.BulkToggleRequest{VolunteerIDs: []string{"v-1", "v-2"}, Action: "OUT"}), "/attendance/bulk", h.BulkToggle)

	if w.Code != http.StatusOK {
		t.Fatalf("部分失败仍应返回 200，实际 %d", w.Code)
	}
	data := parseResponse(w).Data.(map[string]interface{})
	if len(data["failed"].([]interface{})) != 1 {
		t.Errorf("unexpected data: %v", data)
	}
}

func TestAttendanceHandler_Rapid_StorageError(t *testing.T) {
	h := NewAttendanceHandler(&mockAttendanceService{toggleErr: pkgerrors.Storage("append_event", errors.New("timeout"))})

	w := serve("POST", "/attendance/rapid", jsonBody(dto.RapidEntryRequest{VolunteerID: "v-1"}), "/attendance/rapid", h.RapidEntry)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// RosterHandler Tests
// ═══════════════════════════════════════════════════════════

func TestRosterHandler_GetRoster_Full(t *testing.T) {
	mock := &mockSyncService{snapshot: &service.Snapshot{
		ETag:   `"abc"`,
		Roster: &dto.RosterResponse{Scope: "S1", Version: `"abc"`, Count: 0, Entries: []dto.RosterEntry{}},
	}}
	h := NewRosterHandler(mock)

	w := serve("GET", "/roster?scope=S1", nil, "/roster", h.GetRoster)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("ETag") != `"abc"` {
		t.Errorf("ETag 头不符: %q", w.Header().Get("ETag"))
	}
	if w.Header().Get("Cache-Control") != "no-cache" || w.Header().Get("X-Poll-Interval") != "30" {
		t.Errorf("缓存或轮询头不符: %v", w.Header())
	}
}

func TestRosterHandler_GetRoster_NotModified(t *testing.T) {
	mock := &mockSyncService{snapshot: &service.Snapshot{ETag: `"abc"`, NotModified: true}}
	h := NewRosterHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/roster", nil)
	req.Header.Set("If-None-Match", `"abc"`)
	r := gin.New()
	r.GET("/roster", h.GetRoster)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotModified {
		t.Errorf("expected 304, got %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Error("304 不应有响应体")
	}
	if mock.gotIfNoneMatch != `"abc"` {
		t.Errorf("If-None-Match 未透传: %q", mock.gotIfNoneMatch)
	}
}

func TestRosterHandler_GetContract(t *testing.T) {
	h := NewRosterHandler(&mockSyncService{})

	w := serve("GET", "/sync/contract", nil, "/sync/contract", h.GetContract)

	data := parseResponse(w).Data.(map[string]interface{})
	if data["dashboard_poll_interval_ms"].(float64) != 30000 {
		t.Errorf("unexpected data: %v", data)
	}
}

// ═══════════════════════════════════════════════════════════
// HealthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestHealthHandler(t *testing.T) {
	ok := NewHealthHandler(&mockSyncService{}, func(context.Context) error { return nil })
	if w := serve("GET", "/health", nil, "/health", ok.Health); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	down := NewHealthHandler(&mockSyncService{}, func(context.Context) error { return errors.New("db down") })
	if w := serve("GET", "/health", nil, "/health", down.Health); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}
