package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"net/http"
	"testing"
	"time"

	"capsolve/pkg/captcha"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
)

func TestSolveStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{fmt.Errorf("%w: x", captcha.ErrDecode), http.StatusBadRequest},
		{fmt.Errorf("%w: x", captcha.ErrNoParse), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: x", captcha.ErrRecognitionUnavailable), http.StatusBadGateway},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := solveStatus(c.err); got != c.want {
			t.Fatalf("solveStatus(%v) = %d want %d", c.err, got, c.want)
		}
	}
}

func TestSolveBodyOmitsAnswerWhenUnsolved(t *testing.T) {
	res := &captcha.Result{ID: "r", Corrected: "1+2+3", Normalized: captcha.Normalize(imaging.New(40, 20, color.NRGBA{0, 0, 0, 255}))}
	body := solveBody("c1", res, captcha.ErrNoParse)
	if _, ok := body["answer"]; ok {
		t.Fatalf("answer must be absent on no-parse: %v", body)
	}
	if body["corrected"] != "1+2+3" || body["error"] == nil || body["image"] == nil {
		t.Fatalf("unexpected body %v", body)
	}
	res.Solved, res.Answer = true, 19
	if body := solveBody("c1", res, nil); body["answer"] != int64(19) {
		t.Fatalf("expected answer 19 got %v", body["answer"])
	}
	if body := solveBody("c1", nil, captcha.ErrDecode); body["id"] != nil {
		t.Fatalf("unexpected id in %v", body)
	}
}

func TestMeRequiresValidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jwtSecret = []byte("test-secret")
	r := gin.New()
	r.GET("/me", jwtAuthMiddleware(), meHandler)

	resp := performRequest(r, http.MethodGet, "/me", nil, "", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
	resp = performRequest(r, http.MethodGet, "/me", nil, "garbage", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token got %d", resp.Code)
	}

	token, err := issueAccessToken("op1", "operator", time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	resp = performRequest(r, http.MethodGet, "/me", nil, token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
	var body map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &body)
	if body["username"] != "op1" || body["role"] != "operator" {
		t.Fatalf("unexpected body %v", body)
	}

	expired, _ := issueAccessToken("op1", "operator", -time.Minute)
	if resp := performRequest(r, http.MethodGet, "/me", nil, expired, ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token got %d", resp.Code)
	}
}
