package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shiplane/platform/internal/access"
	authdomain "github.com/shiplane/platform/internal/auth/domain"
	authservice "github.com/shiplane/platform/internal/auth/service"
	"github.com/shiplane/platform/internal/auth/session"
	companydomain "github.com/shiplane/platform/internal/company/domain"
	companyrepo "github.com/shiplane/platform/internal/company/repository"
	companyservice "github.com/shiplane/platform/internal/company/service"
	"github.com/shiplane/platform/internal/config"
	"github.com/shiplane/platform/internal/event"
	activationdomain "github.com/shiplane/platform/internal/module/activation/domain"
	activationrepo "github.com/shiplane/platform/internal/module/activation/repository"
	activationservice "github.com/shiplane/platform/internal/module/activation/service"
	"github.com/shiplane/platform/internal/module/catalog"
	"github.com/shiplane/platform/internal/platformsettings"
	rbacdomain "github.com/shiplane/platform/internal/rbac/domain"
	rbacrepo "github.com/shiplane/platform/internal/rbac/repository"
	rbacservice "github.com/shiplane/platform/internal/rbac/service"
	"github.com/shiplane/platform/internal/seed"
	"github.com/shiplane/platform/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testServer struct {
	srv    *Server
	router *gin.Engine
	db     *gorm.DB
}

func newTestServer(t *testing.T, node int64) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&authdomain.User{},
		&authdomain.Session{},
		&companydomain.Company{},
		&companydomain.CompanyMember{},
		&rbacdomain.Role{},
		&rbacdomain.Permission{},
		&activationdomain.CompanyModule{},
		&activationdomain.ModuleSetting{},
		&platformsettings.PlatformSettings{},
		&event.PlatformEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	genID, err := snowflake.NewNode(node)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	log := zap.NewNop()

	cat, err := catalog.New(catalog.Builtin())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}

	publisher := event.NewOutboxPublisher(genID)
	companyRepo := companyrepo.Provide()

	rbacsvc := rbacservice.New(rbacservice.Params{
		DB: conn, Log: log, GenID: genID,
		Repo:    rbacrepo.Provide(),
		Catalog: cat,
	})
	companysvc := companyservice.New(companyservice.Params{
		DB: conn, Log: log, GenID: genID,
		Repo:      companyRepo,
		Roles:     rbacsvc,
		Publisher: publisher,
	})
	activationsvc := activationservice.New(activationservice.Params{
		DB: conn, Log: log, GenID: genID,
		Repo:      activationrepo.Provide(),
		Companies: companyRepo,
		Catalog:   cat,
		Publisher: publisher,
	})
	accessEngine := access.New(access.Params{
		DB: conn, Log: log,
		Activation: activationsvc,
		RBAC:       rbacsvc,
		Companies:  companyRepo,
	})
	authsvc := authservice.New(authservice.Params{DB: conn, Log: log, GenID: genID})
	settings := platformsettings.New(platformsettings.Params{DB: conn, Log: log, GenID: genID})

	ctx := context.Background()
	if err := rbacsvc.SyncPermissions(ctx); err != nil {
		t.Fatalf("sync permissions: %v", err)
	}
	if _, err := settings.Ensure(ctx); err != nil {
		t.Fatalf("ensure settings: %v", err)
	}
	if err := seed.EnsurePlatformAdmin(conn); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())

	srv := NewServer(ServerParams{
		Gin:           router,
		Cfg:           config.Config{HTTPAddr: ":0"},
		DB:            conn,
		GenID:         genID,
		Sessions:      session.NewManager(config.Config{}),
		Authsvc:       authsvc,
		Companysvc:    companysvc,
		Companyrepo:   companyRepo,
		Rbacsvc:       rbacsvc,
		Activationsvc: activationsvc,
		Access:        accessEngine,
		Settings:      settings,
		Catalog:       cat,
	})

	return &testServer{srv: srv, router: router, db: conn}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, cookie string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: cookie})
	}
	resp := httptest.NewRecorder()
	ts.router.ServeHTTP(resp, req)
	return resp
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", resp.Body.String(), err)
	}
	return out
}

func sessionCookie(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	for _, c := range resp.Result().Cookies() {
		if c.Name == session.DefaultCookieName && c.Value != "" {
			return c.Value
		}
	}
	t.Fatalf("no session cookie in response")
	return ""
}

func (ts *testServer) login(t *testing.T, email, pass string) string {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/auth/login", gin.H{"email": email, "password": pass}, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, resp.Code, resp.Body.String())
	}
	return sessionCookie(t, resp)
}

func (ts *testServer) signupAndLogin(t *testing.T, email string) string {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/auth/signup", gin.H{
		"email": email, "password": "longenough", "display_name": "Test User",
	}, "")
	if resp.Code != http.StatusCreated {
		t.Fatalf("signup %s: status %d body %s", email, resp.Code, resp.Body.String())
	}
	return ts.login(t, email, "longenough")
}

func (ts *testServer) enableGlobally(t *testing.T, moduleKey string) {
	t.Helper()
	admin := ts.login(t, "admin@shiplane.local", "admin")
	resp := ts.do(t, http.MethodPatch, "/admin/modules/"+moduleKey, gin.H{"enabled": true}, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("enable %s globally: status %d body %s", moduleKey, resp.Code, resp.Body.String())
	}
}

func (ts *testServer) createCompany(t *testing.T, cookie, name string, jobdomains []string) string {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/api/companies", gin.H{
		"name": name, "jobdomains": jobdomains,
	}, cookie)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create company: status %d body %s", resp.Code, resp.Body.String())
	}
	body := decodeBody(t, resp)
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatalf("create company: missing id in %s", resp.Body.String())
	}
	return id
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t, 10)

	cookie := ts.signupAndLogin(t, "alice@example.com")

	resp := ts.do(t, http.MethodPost, "/auth/signup", gin.H{
		"email": "alice@example.com", "password": "longenough",
	}, "")
	if resp.Code != http.StatusConflict {
		t.Fatalf("duplicate signup: expected 409, got %d", resp.Code)
	}

	resp = ts.do(t, http.MethodPost, "/auth/login", gin.H{
		"email": "alice@example.com", "password": "wrong-password",
	}, "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", resp.Code)
	}

	resp = ts.do(t, http.MethodGet, "/auth/me", nil, cookie)
	if resp.Code != http.StatusOK {
		t.Fatalf("me: status %d body %s", resp.Code, resp.Body.String())
	}
	if got := decodeBody(t, resp)["email"]; got != "alice@example.com" {
		t.Fatalf("me: expected alice@example.com, got %v", got)
	}

	resp = ts.do(t, http.MethodPost, "/auth/logout", nil, cookie)
	if resp.Code != http.StatusOK {
		t.Fatalf("logout: status %d", resp.Code)
	}
	resp = ts.do(t, http.MethodGet, "/auth/me", nil, cookie)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout: expected 401, got %d", resp.Code)
	}
}

func TestSignupClosed(t *testing.T) {
	ts := newTestServer(t, 11)

	admin := ts.login(t, "admin@shiplane.local", "admin")
	resp := ts.do(t, http.MethodPatch, "/admin/settings", gin.H{"signup_open": false}, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("close signup: status %d body %s", resp.Code, resp.Body.String())
	}

	resp = ts.do(t, http.MethodPost, "/auth/signup", gin.H{
		"email": "late@example.com", "password": "longenough",
	}, "")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("signup while closed: expected 403, got %d", resp.Code)
	}
}

func TestCompanyLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t, 12)

	ts.enableGlobally(t, "shipments")
	ts.enableGlobally(t, "warehousing")

	cookie := ts.signupAndLogin(t, "owner@example.com")
	companyID := ts.createCompany(t, cookie, "Acme Freight", []string{"Freight"})

	resp := ts.do(t, http.MethodGet, "/api/companies", nil, cookie)
	if resp.Code != http.StatusOK {
		t.Fatalf("list companies: status %d", resp.Code)
	}
	companies, _ := decodeBody(t, resp)["companies"].([]any)
	if len(companies) != 1 {
		t.Fatalf("expected 1 company, got %d", len(companies))
	}

	resp = ts.do(t, http.MethodGet, "/api/companies/"+companyID, nil, cookie)
	if resp.Code != http.StatusOK {
		t.Fatalf("get company: status %d body %s", resp.Code, resp.Body.String())
	}
	body := decodeBody(t, resp)
	if body["plan_key"] != "starter" {
		t.Fatalf("expected starter plan, got %v", body["plan_key"])
	}

	// Owner can enable an addon the jobdomain allows.
	resp = ts.do(t, http.MethodPost, "/api/companies/"+companyID+"/modules/shipments/enable", nil, cookie)
	if resp.Code != http.StatusOK {
		t.Fatalf("enable shipments: status %d body %s", resp.Code, resp.Body.String())
	}
	if active := decodeBody(t, resp)["active"]; active != true {
		t.Fatalf("enable shipments: expected active, got %v", active)
	}

	// The starter plan does not reach warehousing.
	resp = ts.do(t, http.MethodPost, "/api/companies/"+companyID+"/modules/warehousing/enable", nil, cookie)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("enable warehousing: expected 422, got %d body %s", resp.Code, resp.Body.String())
	}
	if code := decodeBody(t, resp)["error_code"]; code != "plan_insufficient" {
		t.Fatalf("expected plan_insufficient, got %v", code)
	}

	resp = ts.do(t, http.MethodGet, "/api/companies/"+companyID+"/modules", nil, cookie)
	if resp.Code != http.StatusOK {
		t.Fatalf("list modules: status %d", resp.Code)
	}
	modules, _ := decodeBody(t, resp)["modules"].([]any)
	if len(modules) == 0 {
		t.Fatalf("expected modules in listing")
	}

	resp = ts.do(t, http.MethodGet, "/api/companies/"+companyID+"/navigation", nil, cookie)
	if resp.Code != http.StatusOK {
		t.Fatalf("navigation: status %d", resp.Code)
	}
	nav, _ := decodeBody(t, resp)["navigation"].([]any)
	foundShipments := false
	for _, raw := range nav {
		item, _ := raw.(map[string]any)
		if item["module"] == "shipments" {
			foundShipments = true
		}
		if item["module"] == "fleet" || item["module"] == "warehousing" {
			t.Fatalf("navigation leaked inactive module: %v", item["module"])
		}
	}
	if !foundShipments {
		t.Fatalf("expected shipments navigation entries, got %s", resp.Body.String())
	}
}

func TestCompanyAccessRequiresMembership(t *testing.T) {
	ts := newTestServer(t, 13)

	owner := ts.signupAndLogin(t, "owner@example.com")
	companyID := ts.createCompany(t, owner, "Acme Freight", []string{"freight"})

	outsider := ts.signupAndLogin(t, "outsider@example.com")
	resp := ts.do(t, http.MethodGet, "/api/companies/"+companyID, nil, outsider)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("outsider access: expected 403, got %d", resp.Code)
	}
}

func TestMemberWithoutAdminRoleCannotToggleModules(t *testing.T) {
	ts := newTestServer(t, 14)

	owner := ts.signupAndLogin(t, "owner@example.com")
	companyID := ts.createCompany(t, owner, "Acme Freight", []string{"freight"})

	member := ts.signupAndLogin(t, "member@example.com")
	resp := ts.do(t, http.MethodGet, "/auth/me", nil, member)
	memberID, _ := decodeBody(t, resp)["id"].(string)
	if memberID == "" {
		t.Fatalf("missing member id")
	}

	resp = ts.do(t, http.MethodGet, "/api/companies/"+companyID+"/roles", nil, owner)
	if resp.Code != http.StatusOK {
		t.Fatalf("list roles: status %d body %s", resp.Code, resp.Body.String())
	}
	var memberRoleID string
	roles, _ := decodeBody(t, resp)["roles"].([]any)
	for _, raw := range roles {
		role, _ := raw.(map[string]any)
		if role["key"] == rbacdomain.RoleKeyMember {
			memberRoleID, _ = role["id"].(string)
		}
	}
	if memberRoleID == "" {
		t.Fatalf("member role not found in %s", resp.Body.String())
	}

	resp = ts.do(t, http.MethodPost, "/api/companies/"+companyID+"/members", gin.H{
		"user_id": memberID, "role_id": memberRoleID,
	}, owner)
	if resp.Code != http.StatusCreated {
		t.Fatalf("add member: status %d body %s", resp.Code, resp.Body.String())
	}

	// Membership grants visibility but not structural changes.
	resp = ts.do(t, http.MethodGet, "/api/companies/"+companyID+"/modules", nil, member)
	if resp.Code != http.StatusOK {
		t.Fatalf("member list modules: status %d", resp.Code)
	}
	resp = ts.do(t, http.MethodPost, "/api/companies/"+companyID+"/modules/shipments/enable", nil, member)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("member toggle: expected 403, got %d body %s", resp.Code, resp.Body.String())
	}
}

func TestAdminModuleAvailability(t *testing.T) {
	ts := newTestServer(t, 15)

	user := ts.signupAndLogin(t, "user@example.com")
	resp := ts.do(t, http.MethodGet, "/admin/modules", nil, user)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("non admin: expected 403, got %d", resp.Code)
	}

	admin := ts.login(t, "admin@shiplane.local", "admin")
	resp = ts.do(t, http.MethodGet, "/admin/modules", nil, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("admin list modules: status %d body %s", resp.Code, resp.Body.String())
	}
	modules, _ := decodeBody(t, resp)["modules"].([]any)
	if len(modules) == 0 {
		t.Fatalf("expected global module listing")
	}

	resp = ts.do(t, http.MethodPatch, "/admin/modules/shipments", gin.H{"enabled": false}, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("disable globally: status %d body %s", resp.Code, resp.Body.String())
	}

	companyID := ts.createCompany(t, user, "Acme Freight", []string{"freight"})
	resp = ts.do(t, http.MethodPost, "/api/companies/"+companyID+"/modules/shipments/enable", nil, user)
	if resp.Code != http.StatusConflict {
		t.Fatalf("enable while globally off: expected 409, got %d body %s", resp.Code, resp.Body.String())
	}
	if code := decodeBody(t, resp)["error_code"]; code != "globally_disabled" {
		t.Fatalf("expected globally_disabled, got %v", code)
	}
}

func TestAdminCompanyPlanAndStatus(t *testing.T) {
	ts := newTestServer(t, 16)

	owner := ts.signupAndLogin(t, "owner@example.com")
	companyID := ts.createCompany(t, owner, "Acme Logistics", []string{"warehousing"})

	ts.enableGlobally(t, "warehousing")

	admin := ts.login(t, "admin@shiplane.local", "admin")
	resp := ts.do(t, http.MethodPatch, "/admin/companies/"+companyID+"/plan", gin.H{"plan_key": "business"}, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("change plan: status %d body %s", resp.Code, resp.Body.String())
	}

	// Business plan unlocks warehousing for the matching jobdomain.
	resp = ts.do(t, http.MethodPost, "/api/companies/"+companyID+"/modules/warehousing/enable", nil, owner)
	if resp.Code != http.StatusOK {
		t.Fatalf("enable warehousing on business: status %d body %s", resp.Code, resp.Body.String())
	}

	resp = ts.do(t, http.MethodPatch, "/admin/companies/"+companyID+"/status", gin.H{"status": "suspended"}, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("suspend: status %d body %s", resp.Code, resp.Body.String())
	}

	// Suspended companies are unreachable even for the owner.
	resp = ts.do(t, http.MethodGet, "/api/companies/"+companyID, nil, owner)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("suspended access: expected 403, got %d", resp.Code)
	}
}
