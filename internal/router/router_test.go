package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"farm_ops_backend/internal/models"
	"farm_ops_backend/internal/repositories/repotest"
	"farm_ops_backend/internal/tokenstore"
	"farm_ops_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	utils.InitLoggerWithWriter("error", "json", io.Discard)
	os.Exit(m.Run())
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

type testServer struct {
	engine *gin.Engine
	store  *repotest.Store
}

func newTestServer(t *testing.T, pinger fakePinger) *testServer {
	t.Helper()
	store := repotest.NewStore()
	engine := gin.New()
	Setup(engine, Dependencies{
		Users:       store,
		Staff:       store,
		Attendance:  store,
		Crops:       store,
		Tasks:       store,
		PresetTasks: store,
		Transactor:  store,
		Pinger:      pinger,
		Tokens:      utils.NewTokenManager("router-test-secret", "farmops-test", time.Hour),
		Revoked:     tokenstore.NewMemoryStore(),
		Location:    time.UTC,
	})
	return &testServer{engine: engine, store: store}
}

func (s *testServer) seedUser(t *testing.T, username string, role models.Role) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("rahsia1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user, err := s.store.CreateUser(context.Background(), nil, &models.User{
		Username: username,
		Email:    username + "@farm.test",
		Role:     role,
		Status:   models.StatusActive,
	}, string(hash))
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func (s *testServer) linkStaff(t *testing.T, userID int64) {
	t.Helper()
	_, err := s.store.CreateStaff(context.Background(), nil, &models.Staff{
		StaffID:  "STF" + strconv.FormatInt(userID, 10),
		Name:     "Pekerja " + strconv.FormatInt(userID, 10),
		IDNumber: "90010101" + strconv.FormatInt(1000+userID, 10),
		Gender:   models.GenderFemale,
		Email:    "staff" + strconv.FormatInt(userID, 10) + "@farm.test",
		Phone:    "0131234567",
		Position: "Staff",
		Status:   models.StatusActive,
		JoinDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UserID:   &userID,
	})
	if err != nil {
		t.Fatalf("seed staff: %v", err)
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	decoded := map[string]interface{}{}
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec, decoded
}

func (s *testServer) login(t *testing.T, username string) string {
	t.Helper()
	rec, body := s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": username, "password": "rahsia1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", username, rec.Code, rec.Body.String())
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("login %s: no token in %v", username, body)
	}
	return token
}

func TestLoginAndMe(t *testing.T) {
	srv := newTestServer(t, fakePinger{})
	srv.seedUser(t, "pentadbir", models.RoleAdmin)

	rec, body := srv.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "pentadbir", "password": "salah"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", rec.Code)
	}
	if body["error"] != "Invalid credentials" || body["code"] != utils.ErrCodeUnauthorized {
		t.Fatalf("unexpected error body %v", body)
	}

	token := srv.login(t, "pentadbir")
	rec, body = srv.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status %d", rec.Code)
	}
	if body["username"] != "pentadbir" || body["role"] != string(models.RoleAdmin) {
		t.Fatalf("unexpected identity %v", body)
	}

	rec, _ = srv.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: status %d", rec.Code)
	}
	rec, _ = srv.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected revoked token to be rejected, got %d", rec.Code)
	}
}

func TestPunchInTwiceReturnsExistingRecord(t *testing.T) {
	srv := newTestServer(t, fakePinger{})
	user := srv.seedUser(t, "aminah", models.RoleStaff)
	srv.linkStaff(t, user.ID)
	token := srv.login(t, "aminah")

	rec, body := srv.do(t, http.MethodPost, "/api/v1/attendance", token, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first punch-in: status %d body %s", rec.Code, rec.Body.String())
	}
	first, _ := body["attendance"].(map[string]interface{})
	if first == nil || first["id"] == "" {
		t.Fatalf("expected attendance in body, got %v", body)
	}

	rec, body = srv.do(t, http.MethodPost, "/api/v1/attendance", token, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second punch-in: expected 409, got %d", rec.Code)
	}
	if body["success"] != false || body["message"] != "Already punched in for today" {
		t.Fatalf("unexpected conflict body %v", body)
	}
	existing, _ := body["attendance"].(map[string]interface{})
	if existing == nil || existing["id"] != first["id"] {
		t.Fatalf("expected the existing record %v, got %v", first["id"], body["attendance"])
	}
	if got := srv.store.AttendanceCount(); got != 1 {
		t.Fatalf("expected 1 attendance row, got %d", got)
	}

	rec, body = srv.do(t, http.MethodGet, "/api/v1/attendance", token, nil)
	if rec.Code != http.StatusOK || body["punchedIn"] != true || body["punchedOut"] != false {
		t.Fatalf("unexpected today status %d %v", rec.Code, body)
	}
	today, _ := body["attendance"].(map[string]interface{})
	if today == nil || today["id"] != first["id"] {
		t.Fatalf("expected today's record under attendance, got %v", body)
	}
}

func TestRouteAccessByRole(t *testing.T) {
	srv := newTestServer(t, fakePinger{})
	srv.seedUser(t, "pentadbir", models.RoleAdmin)
	srv.seedUser(t, "aminah", models.RoleStaff)
	srv.seedUser(t, "buruh", models.RoleWorker)
	admin := srv.login(t, "pentadbir")
	staff := srv.login(t, "aminah")
	worker := srv.login(t, "buruh")

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"no token", http.MethodGet, "/api/v1/crops", "", http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/v1/crops", "not-a-token", http.StatusUnauthorized},
		{"staff reads crops", http.MethodGet, "/api/v1/crops", staff, http.StatusOK},
		{"worker has no api access", http.MethodGet, "/api/v1/crops", worker, http.StatusForbidden},
		{"staff cannot list users", http.MethodGet, "/api/v1/admin/users", staff, http.StatusForbidden},
		{"admin lists users", http.MethodGet, "/api/v1/admin/users", admin, http.StatusOK},
		{"admin cannot punch in", http.MethodPost, "/api/v1/attendance", admin, http.StatusForbidden},
		{"staff cannot read report", http.MethodGet, "/api/v1/admin/attendance", staff, http.StatusForbidden},
		{"admin reads report", http.MethodGet, "/api/v1/admin/attendance", admin, http.StatusOK},
		{"staff cannot delete tasks", http.MethodDelete, "/api/v1/tasks/1", staff, http.StatusForbidden},
		{"staff lists assignable users", http.MethodGet, "/api/v1/users/assignable", staff, http.StatusOK},
		{"staff cannot list assignable crops", http.MethodGet, "/api/v1/crops/assignable", staff, http.StatusForbidden},
		{"staff lists assignable plots", http.MethodGet, "/api/v1/plots/assignable", staff, http.StatusOK},
		{"admin lists users without staff", http.MethodGet, "/api/v1/staff/users-without-staff", admin, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := srv.do(t, tc.method, tc.path, tc.token, nil)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d (%v)", tc.want, rec.Code, body)
			}
			if rec.Code >= 400 && body["error"] == nil {
				t.Fatalf("error response without error field: %v", body)
			}
		})
	}
}

func TestTaskCompatibilityRoutes(t *testing.T) {
	srv := newTestServer(t, fakePinger{})
	srv.seedUser(t, "pentadbir", models.RoleAdmin)
	worker := srv.seedUser(t, "aminah", models.RoleStaff)
	admin := srv.login(t, "pentadbir")
	staff := srv.login(t, "aminah")

	rec, body := srv.do(t, http.MethodPost, "/api/v1/tasks", admin, gin.H{
		"taskId":    "TSK001",
		"name":      "Siram pokok",
		"userId":    worker.ID,
		"startDate": "2024-05-01",
		"endDate":   "2024-05-03",
		"status":    models.TaskStatusPending,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task: status %d body %s", rec.Code, rec.Body.String())
	}
	id := int64(body["id"].(float64))

	rec, body = srv.do(t, http.MethodPut, "/api/v1/tasks", staff, gin.H{"id": id, "status": models.TaskStatusDone})
	if rec.Code != http.StatusOK || body["status"] != models.TaskStatusDone {
		t.Fatalf("id-in-body update: status %d body %v", rec.Code, body)
	}

	rec, body = srv.do(t, http.MethodPut, "/api/v1/tasks/"+strconv.FormatInt(id, 10), staff, gin.H{"name": "Baja"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("staff renaming a task: expected 403, got %d (%v)", rec.Code, body)
	}

	rec, _ = srv.do(t, http.MethodPut, "/api/v1/tasks", staff, gin.H{"status": models.TaskStatusDone})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("update without id: expected 400, got %d", rec.Code)
	}

	rec, _ = srv.do(t, http.MethodDelete, "/api/v1/tasks?id="+strconv.FormatInt(id, 10), admin, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete by query: expected 204, got %d", rec.Code)
	}
	rec, body = srv.do(t, http.MethodGet, "/api/v1/tasks/"+strconv.FormatInt(id, 10), admin, nil)
	if rec.Code != http.StatusNotFound || body["code"] != utils.ErrCodeNotFound {
		t.Fatalf("expected 404 after delete, got %d (%v)", rec.Code, body)
	}
}

func TestInternalErrorsHideCause(t *testing.T) {
	srv := newTestServer(t, fakePinger{})
	srv.seedUser(t, "pentadbir", models.RoleAdmin)
	admin := srv.login(t, "pentadbir")

	srv.store.ForcedError = errors.New("connection reset by peer")
	rec, body := srv.do(t, http.MethodGet, "/api/v1/crops", admin, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if body["details"] != "Internal error" {
		t.Fatalf("expected generic details, got %v", body)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("connection reset")) {
		t.Fatalf("driver error leaked: %s", rec.Body.String())
	}
}

func TestHealthEndpoints(t *testing.T) {
	up := newTestServer(t, fakePinger{})
	if rec, body := up.do(t, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK || body["database"] != "up" {
		t.Fatalf("healthy: %d %v", rec.Code, body)
	}
	if rec, body := up.do(t, http.MethodGet, "/ping", "", nil); rec.Code != http.StatusOK || body["message"] != "pong" {
		t.Fatalf("ping: %d %v", rec.Code, body)
	}

	down := newTestServer(t, fakePinger{err: errors.New("dial tcp: refused")})
	if rec, _ := down.do(t, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when the database is down, got %d", rec.Code)
	}
}
