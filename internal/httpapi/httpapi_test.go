package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"medverify/backend/internal/anchor"
	"medverify/backend/internal/domain"
	"medverify/backend/internal/service"
	"medverify/backend/internal/store/memory"
)

func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("operator-secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if err := repo.CreateUser(context.Background(), domain.UserAccount{
		Username:  "operator",
		Password:  string(hash),
		Role:      "operator",
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	svc := service.New(repo, anchor.NewSeededStatic("epipoc"), nil, "epipoc", nil)
	auth := NewAuthManager("test-secret", time.Hour, repo)
	return New(svc, auth, "*", nil)
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode failed: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, handler http.Handler) string {
	t.Helper()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", "",
		domain.LoginRequest{Username: "operator", Password: "operator-secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed with %d: %s", rec.Code, rec.Body.String())
	}
	var resp domain.LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.AccessToken == "" || resp.Role != "operator" {
		t.Fatalf("unexpected login response %+v", resp)
	}
	return resp.AccessToken
}

func TestScanFlowOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := login(t, handler)

	payload := "010987654321098217270600" + "10B2400X\x1d21SN0001"
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/scans", token,
		domain.ScanRequest{Payload: payload})
	if rec.Code != http.StatusOK {
		t.Fatalf("scan failed with %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Outcome domain.ScanOutcome `json:"outcome"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode scan response: %v", err)
	}
	if envelope.Outcome.Kind != domain.OutcomeClassified {
		t.Fatalf("expected classified outcome, got %s", envelope.Outcome.Kind)
	}
	if envelope.Outcome.Record == nil || envelope.Outcome.Record.Status != domain.StatusVerified {
		t.Fatalf("unexpected record %+v", envelope.Outcome.Record)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/history?limit=10", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history failed with %d: %s", rec.Code, rec.Body.String())
	}
	var history struct {
		Records []domain.HistoryRecord `json:"records"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode history response: %v", err)
	}
	if len(history.Records) != 1 {
		t.Fatalf("expected one record, got %d", len(history.Records))
	}
}

func TestScanRejectedIsUnprocessable(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := login(t, handler)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/scans", token,
		domain.ScanRequest{Payload: "garbage payload"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for rejected scan, got %d", rec.Code)
	}

	var envelope struct {
		Outcome domain.ScanOutcome `json:"outcome"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode scan response: %v", err)
	}
	if envelope.Outcome.Kind != domain.OutcomeRejected || envelope.Outcome.Message != "err_barcode" {
		t.Fatalf("unexpected outcome %+v", envelope.Outcome)
	}
}

func TestScanRequiresAuth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/scans", "",
		domain.ScanRequest{Payload: "0109876543210982"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/scans", "not-a-token",
		domain.ScanRequest{Payload: "0109876543210982"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rec.Code)
	}
}

func TestScanRequiresPayload(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := login(t, handler)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/scans", token, domain.ScanRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty request, got %d", rec.Code)
	}
}

func TestHistoryRecordByKey(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := login(t, handler)

	payload := "010987654321098217270600" + "10B2400X\x1d21SN0002"
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/scans", token,
		domain.ScanRequest{Payload: payload})
	if rec.Code != http.StatusOK {
		t.Fatalf("scan failed with %d: %s", rec.Code, rec.Body.String())
	}

	path := "/api/v1/history/" + "ssi:gtin:epipoc:09876543210982:B2400X%7CSN0002"
	rec = doJSON(t, handler, http.MethodGet, path, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("record lookup failed with %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/history/no-such-key", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown key, got %d", rec.Code)
	}
}

func TestLoginRateLimit(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	bad := domain.LoginRequest{Username: "operator", Password: "wrong"}
	for i := 0; i < 5; i++ {
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", "", bad)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i, rec.Code)
		}
	}
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", "", bad)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t)
	rec := doJSON(t, api.Handler(), http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
