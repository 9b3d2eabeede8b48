package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func fetchToken(t *testing.T, ts *httptest.Server, password string) string {
	t.Helper()

	body, _ := json.Marshal(TokenRequest{Password: password})
	resp, err := ts.Client().Post(ts.URL+"/api/token", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("token request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("token request status = %d", resp.StatusCode)
	}

	var tr TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		t.Fatalf("decode token response: %v", err)
	}
	if tr.Token == "" {
		t.Fatal("empty token in response")
	}
	return tr.Token
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := startTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestTokenEndpointRejectsWrongPassword(t *testing.T) {
	ts, _ := startTestServer(t)

	body, _ := json.Marshal(TokenRequest{Password: "wrong"})
	resp, err := ts.Client().Post(ts.URL+"/api/token", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("token request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestTokenEndpointIssuesValidToken(t *testing.T) {
	ts, _ := startTestServer(t)

	token := fetchToken(t, ts, testPassword)
	if token == "" {
		t.Fatal("expected a token")
	}
}

func TestStatsEndpointReportsRoster(t *testing.T) {
	ts, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := dialWS(t, ctx, ts)
	alice.join(testPassword, "alice")

	resp, err := ts.Client().Get(ts.URL + "/api/stats")
	if err != nil {
		t.Fatalf("stats request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	var stats StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Online != 1 {
		t.Fatalf("online = %d, want 1", stats.Online)
	}
	if len(stats.Users) != 1 || stats.Users[0] != "alice" {
		t.Fatalf("users = %v, want [alice]", stats.Users)
	}
}

func TestAuditEndpointRequiresAdminPassword(t *testing.T) {
	ts, _ := startTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/audit", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("audit request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}

	req, err = http.NewRequest(http.MethodGet, ts.URL+"/api/audit", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+testPassword)

	resp, err = ts.Client().Do(req)
	if err != nil {
		t.Fatalf("audit request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("chat password accepted: status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestAuditEndpointReturnsRecentEntries(t *testing.T) {
	ts, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := dialWS(t, ctx, ts)
	alice.join(testPassword, "alice")

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/audit", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+testAdminPassword)

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("audit request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var entries []AuditEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode audit response: %v", err)
	}

	found := false
	for _, e := range entries {
		if e.Kind == "connect" && e.Actor == "alice" {
			found = true
			if e.ID == "" {
				t.Fatal("connect entry has empty id")
			}
			if e.CreatedAt.IsZero() {
				t.Fatal("connect entry has zero timestamp")
			}
		}
	}
	if !found {
		t.Fatalf("no connect entry for alice in %v", entries)
	}
}

func TestAuditEndpointRejectsBadLimit(t *testing.T) {
	ts, _ := startTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/audit?limit=zero", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+testAdminPassword)

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("audit request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}
