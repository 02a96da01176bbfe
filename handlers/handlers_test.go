package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"billed-backend/models"
	"billed-backend/repository"
	"billed-backend/service"
	"billed-backend/session"
	"billed-backend/storage"
	"billed-backend/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	testEmail   = "employee@test.tld"
	testBaseURL = "http://files.test"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router   *gin.Engine
	bills    *repository.SQLBillRepository
	sessions *session.MemoryStore
}

func newTestServer(t *testing.T, maxFileSize int64) *testServer {
	t.Helper()

	db, err := repository.OpenSQL("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := repository.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate db: %v", err)
	}

	users := repository.NewSQLUserRepository(db)
	if err := users.Create(context.Background(), &models.User{Email: testEmail, Name: "Employee"}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	fs, err := storage.NewLocalStorage(t.TempDir(), testBaseURL)
	if err != nil {
		t.Fatalf("local storage: %v", err)
	}

	sessions, err := session.NewMemoryStore(time.Hour, nil)
	if err != nil {
		t.Fatalf("session store: %v", err)
	}

	bills := repository.NewSQLBillRepository(db, "sqlite3")
	backend := store.NewBackend(bills, fs, nil)
	log := zap.NewNop()

	router, err := NewRouter(RouterConfig{
		Bills:    NewBillHandler(backend, service.NewBillsService(service.BillsWithRepository(bills)), fs, maxFileSize, log),
		Sessions: NewSessionHandler(users, sessions),
		NewBill:  NewNewBillFormHandler(backend, sessions, time.Second, maxFileSize, log),
		Log:      log,
	})
	if err != nil {
		t.Fatalf("NewRouter error: %v", err)
	}

	return &testServer{router: router, bills: bills, sessions: sessions}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) startSession(t *testing.T) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(`{"email":"`+testEmail+`"}`))
	req.Header.Set("Content-Type", "application/json")
	w := s.do(req)
	if w.Code != http.StatusCreated {
		t.Fatalf("start session: status %d body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			SessionID string `json:"session_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return resp.Data.SessionID
}

func multipartRequest(t *testing.T, target string, fields map[string]string, fileName, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if fileName != "" {
		part, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		io.WriteString(part, content)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func formFields() map[string]string {
	return map[string]string{
		"expense-type": "Transports",
		"expense-name": "Vol Paris Londres",
		"amount":       "348",
		"datepicker":   "2023-04-24",
		"vat":          "70",
		"pct":          "20",
		"commentary":   "seminar",
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return resp.Error.Code
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, 0)
	w := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health: %d", w.Code)
	}
}

func TestStartSessionUnknownEmployee(t *testing.T) {
	s := newTestServer(t, 0)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(`{"email":"nobody@test.tld"}`))
	req.Header.Set("Content-Type", "application/json")

	w := s.do(req)
	if w.Code != http.StatusNotFound || errorCode(t, w) != "USER_NOT_FOUND" {
		t.Fatalf("unexpected answer %d %s", w.Code, w.Body.String())
	}
}

func TestNewBillSubmission(t *testing.T) {
	s := newTestServer(t, 0)
	sid := s.startSession(t)

	req := multipartRequest(t, "/api/newbill", formFields(), "receipt.jpg", "jpeg bytes")
	req.Header.Set(SessionHeader, sid)
	w := s.do(req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status: want 303 got %d body %s", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != service.RouteBills {
		t.Fatalf("location: want %s got %s", service.RouteBills, loc)
	}

	stored, err := s.bills.ListByEmail(context.Background(), testEmail)
	if err != nil {
		t.Fatalf("ListByEmail error: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected a single record for the submission, got %d", len(stored))
	}
	bill := stored[0]
	if bill.Status != models.BillStatusPending || bill.Pct != 20 || bill.Amount != 348 {
		t.Fatalf("unexpected record %+v", bill)
	}
	if bill.FileName == nil || *bill.FileName != "receipt.jpg" || bill.FileURL == nil {
		t.Fatalf("attachment not recorded: %+v", bill)
	}

	path := strings.TrimPrefix(*bill.FileURL, testBaseURL)
	fw := s.do(httptest.NewRequest(http.MethodGet, path, nil))
	if fw.Code != http.StatusOK || fw.Body.String() != "jpeg bytes" {
		t.Fatalf("attachment not served: %d %q", fw.Code, fw.Body.String())
	}
	if ct := fw.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Fatalf("content type: got %s", ct)
	}
}

func TestNewBillRejectsAttachment(t *testing.T) {
	s := newTestServer(t, 0)
	sid := s.startSession(t)

	req := multipartRequest(t, "/api/newbill", formFields(), "file.webp", "webp")
	req.Header.Set(SessionHeader, sid)
	w := s.do(req)

	if w.Code != http.StatusUnprocessableEntity || errorCode(t, w) != "INVALID_FILE_TYPE" {
		t.Fatalf("unexpected answer %d %s", w.Code, w.Body.String())
	}
	stored, _ := s.bills.ListByEmail(context.Background(), testEmail)
	if len(stored) != 0 {
		t.Fatalf("rejected form must not be submitted, got %d records", len(stored))
	}
}

func TestNewBillWithoutSessionHeader(t *testing.T) {
	s := newTestServer(t, 0)

	w := s.do(multipartRequest(t, "/api/newbill", formFields(), "receipt.png", "png"))
	if w.Code != http.StatusUnauthorized || errorCode(t, w) != "MISSING_SESSION" {
		t.Fatalf("unexpected answer %d %s", w.Code, w.Body.String())
	}

	// a store-wide user item must not stand in for a missing header
	if err := session.Save(context.Background(), s.sessions, "", models.Session{Email: testEmail}); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	w = s.do(multipartRequest(t, "/api/newbill", formFields(), "receipt.png", "png"))
	if w.Code != http.StatusUnauthorized || errorCode(t, w) != "MISSING_SESSION" {
		t.Fatalf("unexpected answer %d %s", w.Code, w.Body.String())
	}
	if stored, _ := s.bills.ListByEmail(context.Background(), testEmail); len(stored) != 0 {
		t.Fatalf("expected no records, got %d", len(stored))
	}
}

func TestNewBillUnknownSession(t *testing.T) {
	s := newTestServer(t, 0)

	req := multipartRequest(t, "/api/newbill", formFields(), "receipt.png", "png")
	req.Header.Set(SessionHeader, "expired-or-unknown")
	w := s.do(req)
	if w.Code != http.StatusUnauthorized || errorCode(t, w) != "NO_SESSION" {
		t.Fatalf("unexpected answer %d %s", w.Code, w.Body.String())
	}
}

func TestCreateBillValidation(t *testing.T) {
	s := newTestServer(t, 8)

	tests := []struct {
		name     string
		fields   map[string]string
		file     string
		content  string
		wantCode string
	}{
		{"missing email", nil, "a.png", "png", "MISSING_EMAIL"},
		{"bad extension", map[string]string{"email": testEmail}, "a.gif", "gif", "INVALID_FILE_TYPE"},
		{"too large", map[string]string{"email": testEmail}, "a.png", "0123456789", "FILE_TOO_LARGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(multipartRequest(t, "/api/bills", tt.fields, tt.file, tt.content))
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status: want 400 got %d", w.Code)
			}
			if got := errorCode(t, w); got != tt.wantCode {
				t.Fatalf("code: want %s got %s", tt.wantCode, got)
			}
		})
	}
}

func TestUpdateBillRejectsBadDate(t *testing.T) {
	s := newTestServer(t, 0)

	req := httptest.NewRequest(http.MethodPut, "/api/bills/abc",
		strings.NewReader(`{"email":"`+testEmail+`","date":"24/04/2023","pct":20}`))
	req.Header.Set("Content-Type", "application/json")

	w := s.do(req)
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "INVALID_REQUEST" {
		t.Fatalf("unexpected answer %d %s", w.Code, w.Body.String())
	}
}

func TestGetBillNotFound(t *testing.T) {
	s := newTestServer(t, 0)
	w := s.do(httptest.NewRequest(http.MethodGet, "/api/bills/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status: want 404 got %d", w.Code)
	}
}

func TestWorkflowOverHTTPStore(t *testing.T) {
	s := newTestServer(t, 0)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	ctx := context.Background()
	if err := session.Save(ctx, s.sessions, "", models.Session{Email: testEmail}); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	var navigated []string
	workflow := service.NewNewBillWorkflow(
		service.WithBillStore(store.NewHTTPStore(srv.URL, srv.Client())),
		service.WithSessionProvider(session.NewProvider(s.sessions, "")),
		service.WithNavigator(func(p string) { navigated = append(navigated, p) }),
	)

	in := &service.FileInput{Files: []*models.Attachment{{Name: "ticket.PNG", Content: strings.NewReader("png")}}}
	if err := workflow.HandleChangeFile(in); err != nil {
		t.Fatalf("HandleChangeFile error: %v", err)
	}

	bill, err := workflow.Submit(ctx, service.FormSnapshot{
		Type:   "Restaurants et bars",
		Name:   "Dinner",
		Amount: "52",
		Date:   "2023-05-02",
		VAT:    "10",
	})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if len(navigated) != 1 || navigated[0] != service.RouteBills {
		t.Fatalf("unexpected navigation %v", navigated)
	}
	if bill.Pct != models.DefaultPct || bill.FileName == nil || *bill.FileName != "ticket.PNG" {
		t.Fatalf("unexpected stored bill %+v", bill)
	}

	resp, err := srv.Client().Get(srv.URL + "/api/bills?email=" + testEmail)
	if err != nil {
		t.Fatalf("list bills: %v", err)
	}
	defer resp.Body.Close()

	var listed struct {
		Data []struct {
			ID          string `json:"id"`
			StatusLabel string `json:"statusLabel"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Data) != 1 || listed.Data[0].ID != bill.ID || listed.Data[0].StatusLabel != "En attente" {
		t.Fatalf("unexpected listing %+v", listed.Data)
	}
}

func TestAttachmentURLRoundTrip(t *testing.T) {
	s := newTestServer(t, 0)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	for _, name := range []string{"recu#1.jpg", "note?v=2.png", "100%.jpeg"} {
		t.Run(name, func(t *testing.T) {
			req := multipartRequest(t, srv.URL+"/api/bills", map[string]string{"email": testEmail}, name, "image "+name)
			req.RequestURI = ""
			resp, err := srv.Client().Do(req)
			if err != nil {
				t.Fatalf("create bill: %v", err)
			}
			var created struct {
				Data models.UploadResult `json:"data"`
			}
			err = json.NewDecoder(resp.Body).Decode(&created)
			resp.Body.Close()
			if err != nil || resp.StatusCode != http.StatusCreated {
				t.Fatalf("create bill: status %d err %v", resp.StatusCode, err)
			}

			path := strings.TrimPrefix(created.Data.FileURL, testBaseURL)
			fileResp, err := srv.Client().Get(srv.URL + path)
			if err != nil {
				t.Fatalf("fetch attachment: %v", err)
			}
			defer fileResp.Body.Close()
			body, _ := io.ReadAll(fileResp.Body)
			if fileResp.StatusCode != http.StatusOK || string(body) != "image "+name {
				t.Fatalf("attachment %s: status %d body %q", created.Data.FileURL, fileResp.StatusCode, body)
			}
		})
	}
}

func TestWorkflowOverHTTPStoreKeepsParsedNumbers(t *testing.T) {
	s := newTestServer(t, 0)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	ctx := context.Background()
	if err := session.Save(ctx, s.sessions, "", models.Session{Email: testEmail}); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	workflow := service.NewNewBillWorkflow(
		service.WithBillStore(store.NewHTTPStore(srv.URL, srv.Client())),
		service.WithSessionProvider(session.NewProvider(s.sessions, "")),
	)

	bill, err := workflow.Submit(ctx, service.FormSnapshot{
		Type:   "Transports",
		Name:   "Refund",
		Amount: "-15",
		Date:   "2023-05-02",
		Pct:    "150",
	})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if bill.Amount != -15 || bill.Pct != 150 {
		t.Fatalf("returned bill: amount %d pct %d", bill.Amount, bill.Pct)
	}

	stored, err := s.bills.GetByID(ctx, bill.ID)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if stored.Amount != -15 || stored.Pct != 150 || stored.Name != "Refund" {
		t.Fatalf("stored bill not updated: %+v", stored)
	}
}

func TestUpdateBillIgnoresClientStatus(t *testing.T) {
	s := newTestServer(t, 0)

	req := httptest.NewRequest(http.MethodPut, "/api/bills/own-bill",
		strings.NewReader(`{"email":"`+testEmail+`","name":"Hotel","status":"accepted"}`))
	req.Header.Set("Content-Type", "application/json")

	w := s.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("status: want 200 got %d body %s", w.Code, w.Body.String())
	}
	stored, err := s.bills.GetByID(context.Background(), "own-bill")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if stored.Status != models.BillStatusPending {
		t.Fatalf("status: want pending got %s", stored.Status)
	}
}
