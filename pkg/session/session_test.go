package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/secure/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Source") != "WEB" || r.Header.Get("User-Agent") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "ok", Path: "/"})
	})
	mux.HandleFunc("/files/fs/captcha/", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session"); err != nil || c.Value != "ok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path == "/files/fs/captcha/empty" {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		_, _ = w.Write([]byte(`{"file":"data:image/png;base64,AAAA"}`))
	})
	mux.HandleFunc("/rs/reserve", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("captcha") != "19" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("wrong"))
			return
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientFlow(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL + "/")
	ctx := context.Background()

	if _, err := c.FetchCaptcha(ctx, "1"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized before login got %v", err)
	}
	if err := c.Login(ctx, "u", "bad"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized got %v", err)
	}
	if err := c.Login(ctx, "u", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	file, err := c.FetchCaptcha(ctx, "42")
	if err != nil || file != "data:image/png;base64,AAAA" {
		t.Fatalf("fetch got %q err=%v", file, err)
	}
	if _, err := c.FetchCaptcha(ctx, "empty"); !errors.Is(err, ErrNoCaptcha) {
		t.Fatalf("expected ErrNoCaptcha got %v", err)
	}
	if err := c.Submit(ctx, "42", "19"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	err = c.Submit(ctx, "42", "20")
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusBadRequest || se.Body != "wrong" {
		t.Fatalf("expected StatusError 400 got %v", err)
	}
}
