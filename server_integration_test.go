package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"capsolve/pkg/captcha"
	"capsolve/pkg/config"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
)

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// stubFragments is what the test recognizer returns for every captcha.
var stubFragments = []string{"I2", "-", "T"}

func setupTestServer(t *testing.T) *gin.Engine {
	// integration tests are opt-in. Set DB_DSN_TEST=1 and DB_DSN to run them.
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gin.SetMode(gin.TestMode)
	tmp := t.TempDir()
	cfg = &config.Config{
		DBDSN:           os.Getenv("DB_DSN"),
		AutoMigrate:     true,
		CorrectionsPath: filepath.Join(tmp, "corrections.json"),
		BackgroundDir:   filepath.Join(tmp, "backgrounds"),
		MaxUploadBytes:  5 * 1024 * 1024,
	}
	jwtSecret = []byte("integration-secret")
	initDB()
	if err := os.MkdirAll(cfg.BackgroundDir, 0o755); err != nil {
		t.Fatal(err)
	}
	var err error
	tables, err = captcha.OpenTableStore(cfg.CorrectionsPath)
	if err != nil {
		t.Fatalf("open corrections: %v", err)
	}
	engine := captcha.RecognizerFunc(func(image.Image, string) ([]string, error) {
		return stubFragments, nil
	})
	solver = captcha.NewSolver(captcha.NewReferences(), tables, engine)
	r := gin.New()
	setupRoutes(r)
	return r
}

func jsonBody(v any) *bytes.Buffer {
	b, _ := json.Marshal(v)
	return bytes.NewBuffer(b)
}

func TestFullFlow(t *testing.T) {
	r := setupTestServer(t)

	resp := performRequest(r, http.MethodPost, "/register", jsonBody(map[string]string{"username": "operator1", "password": "pass123"}), "", "application/json")
	if resp.Code != 200 && resp.Code != 409 {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	resp = performRequest(r, http.MethodPost, "/login", jsonBody(map[string]string{"username": "operator1", "password": "pass123"}), "", "application/json")
	if resp.Code != 200 {
		t.Fatalf("login failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var loginResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &loginResp)
	token, _ := loginResp["token"].(string)
	if token == "" {
		t.Fatalf("empty token in login response: %+v", loginResp)
	}

	// Upload a background.
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	w, _ := mw.CreateFormFile("file", "bg1.png")
	_ = imaging.Encode(w, imaging.New(110, 60, color.NRGBA{200, 180, 160, 255}), imaging.PNG)
	_ = mw.Close()
	resp = performRequest(r, http.MethodPost, "/backgrounds", buf, token, mw.FormDataContentType())
	if resp.Code != 200 {
		t.Fatalf("upload background failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	if solver.References.Len() != 1 {
		t.Fatalf("expected 1 loaded reference got %d", solver.References.Len())
	}

	// Solve: the stub reads "12-7" which evaluates to 5.
	payload, _ := captcha.EncodeBase64PNG(imaging.New(110, 60, color.NRGBA{200, 180, 160, 255}))
	resp = performRequest(r, http.MethodPost, "/captcha/solve", jsonBody(map[string]string{"payload": payload, "captcha_id": "77"}), token, "application/json")
	if resp.Code != 200 {
		t.Fatalf("solve failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var solved map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &solved)
	if solved["corrected"] != "12-7" || solved["answer"] != float64(5) {
		t.Fatalf("unexpected solve response %v", solved)
	}
	attemptID := solved["attempt_id"]

	// Operator says the captcha really read 12+7.
	resp = performRequest(r, http.MethodPost, fmt.Sprintf("/attempts/%v/confirm", attemptID), jsonBody(map[string]string{"text": "12+7"}), token, "application/json")
	if resp.Code != 200 {
		t.Fatalf("confirm failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	resp = performRequest(r, http.MethodPost, "/captcha/solve", jsonBody(map[string]string{"payload": payload}), token, "application/json")
	_ = json.Unmarshal(resp.Body.Bytes(), &solved)
	if solved["answer"] != float64(19) {
		t.Fatalf("learned override not applied: %v", solved)
	}

	// Undecodable payloads are a client error, not a guess.
	resp = performRequest(r, http.MethodPost, "/captcha/solve", jsonBody(map[string]string{"payload": "aGVsbG8="}), token, "application/json")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad payload got %d", resp.Code)
	}

	resp = performRequest(r, http.MethodGet, "/corrections", nil, token, "")
	if resp.Code != 200 || !bytes.Contains(resp.Body.Bytes(), []byte(`"12-7":"12+7"`)) {
		t.Fatalf("corrections missing override status=%d body=%s", resp.Code, resp.Body.String())
	}

	resp = performRequest(r, http.MethodGet, "/attempts", nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("list attempts failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	unauth := performRequest(r, http.MethodGet, "/attempts", nil, "", "")
	if unauth.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unauthorized list attempts got %d", unauth.Code)
	}
}

func TestMigrateCommand(t *testing.T) {
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	cfg = config.Load()
	initDB()
}
