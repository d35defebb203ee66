package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// benchEnv holds a registered user on top of a wired test app.
type benchEnv struct {
	app    *testApp
	userID string
	token  string
}

func setupBenchmark(b *testing.B) *benchEnv {
	b.Helper()
	app := newTestApp()

	rr := serveJSON(app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "bench",
		"email":    "bench@example.com",
		"password": "Str0ngP@ss!",
	})
	if rr.Code != http.StatusCreated {
		b.Fatalf("register: status %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		b.Fatalf("decode register response: %v", err)
	}
	return &benchEnv{app: app, userID: resp.User.ID, token: resp.Token}
}

func serveJSON(app *testApp, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	app.handler.ServeHTTP(rr, req)
	return rr
}

func BenchmarkPing(b *testing.B) {
	app := newTestApp()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rr := httptest.NewRecorder()
		app.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))
	}
}

func BenchmarkLogin(b *testing.B) {
	env := setupBenchmark(b)
	creds := map[string]string{"emailOrUsername": "bench", "password": "Str0ngP@ss!"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if rr := serveJSON(env.app, http.MethodPost, "/api/auth/login", "", creds); rr.Code != http.StatusOK {
			b.Fatalf("login: status %d", rr.Code)
		}
	}
}

func BenchmarkResumeUpsert(b *testing.B) {
	env := setupBenchmark(b)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		body := map[string]any{
			"userId":   env.userID,
			"template": fmt.Sprintf("template-%d", i%8),
			"summary":  "Backend engineer",
			"skills":   []string{"go", "postgres", "mongodb"},
		}
		if rr := serveJSON(env.app, http.MethodPost, "/api/cv", env.token, body); rr.Code >= 300 {
			b.Fatalf("upsert: status %d", rr.Code)
		}
	}
}

func BenchmarkListResumesParallel(b *testing.B) {
	env := setupBenchmark(b)
	for i := 0; i < 8; i++ {
		serveJSON(env.app, http.MethodPost, "/api/cv", env.token, map[string]any{
			"userId":   env.userID,
			"template": fmt.Sprintf("template-%d", i),
		})
	}
	body := map[string]string{"userId": env.userID}
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if rr := serveJSON(env.app, http.MethodPost, "/api/cv/get-resume", env.token, body); rr.Code != http.StatusOK {
				b.Errorf("list: status %d", rr.Code)
				return
			}
		}
	})
}
