package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tsg-Selina-Varshney/EMS/internal/ems"
)

// Route names accepted by FakeService.Fail, Hold and Calls.
const (
	RouteToken     = "token"
	RouteTableData = "tabledata"
	RouteSort      = "sort"
	RouteFilter    = "filter"
	RouteUnique    = "unique"
	RouteAdd       = "add"
	RouteUpdate    = "update"
	RouteDelete    = "delete"
	RouteAudit     = "audittabledata"
)

var fakeSigningKey = []byte("fake-service-signing-key")

// FakeService is an in-process stand-in for the remote employee directory.
// It serves the same routes as the real service over httptest, issues
// signed tokens, and can be told to fail or stall individual routes.
type FakeService struct {
	Server   *httptest.Server
	Clock    *StubClock
	TokenTTL time.Duration

	mu        sync.Mutex
	employees []ems.Employee
	audit     []ems.AuditEntry
	failures  map[string]failure
	holds     map[string][]*Hold
	calls     map[string]int
	requests  map[string]*http.Request
}

type failure struct {
	status int
	detail string
}

// Hold stalls one request to a route until released.
type Hold struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

// Entered is closed once the held request has arrived.
func (h *Hold) Entered() <-chan struct{} { return h.entered }

// Release lets the held request continue.
func (h *Hold) Release() { h.once.Do(func() { close(h.release) }) }

// NewFakeService starts a FakeService seeded with employees. Employees with a
// password can log in. The server is closed when the test completes.
func NewFakeService(t *testing.T, employees ...ems.Employee) *FakeService {
	t.Helper()

	s := &FakeService{
		Clock:     FixedClock(),
		TokenTTL:  time.Hour,
		employees: slices.Clone(employees),
		failures:  make(map[string]failure),
		holds:     make(map[string][]*Hold),
		calls:     make(map[string]int),
		requests:  make(map[string]*http.Request),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(func() {
		s.mu.Lock()
		for _, hs := range s.holds {
			for _, h := range hs {
				h.Release()
			}
		}
		s.mu.Unlock()
		s.Server.Close()
	})
	return s
}

// URL is the base URL of the fake service.
func (s *FakeService) URL() string { return s.Server.URL }

func (s *FakeService) routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/token", s.track(RouteToken, false, s.handleToken))
	r.Get("/tabledata", s.track(RouteTableData, true, s.handleTableData))
	r.Get("/sort", s.track(RouteSort, true, s.handleSort))
	r.Get("/filter/{column}/{value}", s.track(RouteFilter, true, s.handleFilter))
	r.Get("/unique/{column}", s.track(RouteUnique, true, s.handleUnique))
	r.Post("/add", s.track(RouteAdd, true, s.handleAdd))
	r.Put("/update/{username}", s.track(RouteUpdate, true, s.handleUpdate))
	r.Delete("/delete/{username}", s.track(RouteDelete, true, s.handleDelete))
	r.Get("/audittabledata", s.track(RouteAudit, true, s.handleAudit))
	return r
}

// track counts the call, applies holds and injected failures, and checks the
// bearer token when auth is set.
func (s *FakeService) track(route string, auth bool, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[route]++
		s.requests[route] = r.Clone(r.Context())
		var hold *Hold
		if hs := s.holds[route]; len(hs) > 0 {
			hold = hs[0]
			s.holds[route] = hs[1:]
		}
		s.mu.Unlock()

		if hold != nil {
			close(hold.entered)
			select {
			case <-hold.release:
			case <-r.Context().Done():
				return
			}
		}

		s.mu.Lock()
		f, failing := s.failures[route]
		s.mu.Unlock()
		if failing {
			writeDetail(w, f.status, f.detail)
			return
		}

		if auth {
			if _, err := s.verify(r); err != nil {
				writeDetail(w, http.StatusUnauthorized, "Invalid token")
				return
			}
		}
		next(w, r)
	}
}

// Fail makes every later request to route answer status with detail.
func (s *FakeService) Fail(route string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, detail: detail}
}

// Recover undoes Fail for route.
func (s *FakeService) Recover(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// Hold stalls the next request to route until the returned Hold is released.
func (s *FakeService) Hold(route string) *Hold {
	h := &Hold{entered: make(chan struct{}), release: make(chan struct{})}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holds[route] = append(s.holds[route], h)
	return h
}

// Calls returns how many requests route has received.
func (s *FakeService) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// TotalCalls returns how many requests the service has received.
func (s *FakeService) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// LastRequest returns the last request received on route, or nil.
func (s *FakeService) LastRequest(route string) *http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[route]
}

// Employees returns the service's records, passwords included.
func (s *FakeService) Employees() []ems.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.employees)
}

// Audit returns the audit entries recorded so far.
func (s *FakeService) Audit() []ems.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.audit)
}

// IssueToken signs a token for e that expires after ttl.
func (s *FakeService) IssueToken(e ems.Employee, ttl time.Duration) string {
	now := s.Clock.Now()
	claims := jwt.MapClaims{
		"username": e.Username,
		"role":     string(e.Role),
		"name":     e.Name,
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(fakeSigningKey)
	if err != nil {
		panic(err)
	}
	return token
}

// SessionFor returns a session for e as the service would issue it on login.
func (s *FakeService) SessionFor(e ems.Employee) ems.Session {
	return ems.Session{
		Token:    s.IssueToken(e, s.TokenTTL),
		Username: e.Username,
		Role:     e.Role,
		Name:     e.Name,
	}
}

func (s *FakeService) verify(r *http.Request) (jwt.MapClaims, error) {
	raw, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return fakeSigningKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.Clock.Now),
	)
	return claims, err
}

func (s *FakeService) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid form")
		return
	}
	username, password := r.PostForm.Get("username"), r.PostForm.Get("password")

	s.mu.Lock()
	e, ok := s.findLocked(username)
	s.mu.Unlock()
	if !ok || e.Password == "" || e.Password != password {
		writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": s.IssueToken(e, s.TokenTTL),
		"token_type":   "bearer",
		"username":     e.Username,
		"role":         string(e.Role),
		"name":         e.Name,
	})
}

func (s *FakeService) handleTableData(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := public(s.employees)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *FakeService) handleSort(w http.ResponseWriter, r *http.Request) {
	column := ems.Column(r.URL.Query().Get("column"))
	desc := r.URL.Query().Get("desc") == "true"
	if !slices.Contains(ems.Columns, column) {
		writeDetail(w, http.StatusBadRequest, "Invalid column")
		return
	}

	s.mu.Lock()
	out := public(s.employees)
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Field(column), out[j].Field(column)
		if desc {
			return a > b
		}
		return a < b
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *FakeService) handleFilter(w http.ResponseWriter, r *http.Request) {
	column := ems.Column(chi.URLParam(r, "column"))
	value, err := url.PathUnescape(chi.URLParam(r, "value"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid filter value")
		return
	}

	s.mu.Lock()
	var out []ems.Employee
	for _, e := range public(s.employees) {
		if e.Field(column) == value {
			out = append(out, e)
		}
	}
	s.mu.Unlock()
	if out == nil {
		out = []ems.Employee{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *FakeService) handleUnique(w http.ResponseWriter, r *http.Request) {
	column := ems.Column(chi.URLParam(r, "column"))

	s.mu.Lock()
	values := []string{}
	for _, e := range s.employees {
		if v := e.Field(column); v != "" && !slices.Contains(values, v) {
			values = append(values, v)
		}
	}
	s.mu.Unlock()
	sort.Strings(values)
	writeJSON(w, http.StatusOK, values)
}

func (s *FakeService) handleAdd(w http.ResponseWriter, r *http.Request) {
	var e ems.Employee
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.findLocked(e.Username); exists {
		writeDetail(w, http.StatusBadRequest, "Username already exists")
		return
	}
	if e.Password == "" {
		writeDetail(w, http.StatusBadRequest, "Password is required for new user creation.")
		return
	}
	s.employees = append(s.employees, e)
	s.recordLocked(r.Header.Get("current"), e.Username, "Created")
	writeJSON(w, http.StatusCreated, map[string]string{"username": e.Username, "role": string(e.Role)})
}

func (s *FakeService) handleUpdate(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	var e ems.Employee
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.employees {
		if s.employees[i].Username != username {
			continue
		}
		if e.Password == "" {
			e.Password = s.employees[i].Password
		}
		e.Username = username
		s.employees[i] = e
		s.recordLocked(r.URL.Query().Get("current"), username, "Updated")
		writeJSON(w, http.StatusOK, map[string]string{"message": "Row updated successfully"})
		return
	}
	writeDetail(w, http.StatusNotFound, "Row not found")
}

func (s *FakeService) handleDelete(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.employees {
		if s.employees[i].Username == username {
			s.employees = slices.Delete(s.employees, i, i+1)
			s.recordLocked("", username, "Deleted")
			writeJSON(w, http.StatusOK, map[string]string{"message": "Row deleted successfully"})
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Row not found")
}

func (s *FakeService) handleAudit(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := slices.Clone(s.audit)
	s.mu.Unlock()
	if out == nil {
		out = []ems.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *FakeService) findLocked(username string) (ems.Employee, bool) {
	for _, e := range s.employees {
		if e.Username == username {
			return e, true
		}
	}
	return ems.Employee{}, false
}

func (s *FakeService) recordLocked(by, subject, action string) {
	s.audit = append(s.audit, ems.AuditEntry{
		Timestamp: s.Clock.Now().Format(time.RFC3339),
		ChangedBy: by,
		Subject:   subject,
		Action:    action,
	})
}

func public(employees []ems.Employee) []ems.Employee {
	out := make([]ems.Employee, len(employees))
	for i, e := range employees {
		e.Password = ""
		out[i] = e
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
