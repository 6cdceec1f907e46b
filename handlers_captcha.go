package main

import (
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"capsolve/models"
	"capsolve/pkg/captcha"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
)

// solveStatus maps pipeline failures to HTTP status codes.
func solveStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, captcha.ErrDecode):
		return http.StatusBadRequest
	case errors.Is(err, captcha.ErrNoParse):
		return http.StatusUnprocessableEntity
	case errors.Is(err, captcha.ErrRecognitionUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// solveBody renders a pipeline result. The answer is only present when the
// captcha was solved.
func solveBody(captchaID string, res *captcha.Result, err error) gin.H {
	body := gin.H{"captcha_id": captchaID}
	if err != nil {
		body["error"] = err.Error()
	}
	if res == nil {
		return body
	}
	body["id"] = res.ID
	body["fragments"] = res.Fragments
	body["corrected"] = res.Corrected
	if res.Solved {
		body["answer"] = res.Answer
	}
	if res.Normalized != nil {
		if img, encErr := captcha.EncodeBase64PNG(res.Normalized); encErr == nil {
			body["image"] = "data:image/png;base64," + img
		}
	}
	return body
}

func solveCaptchaHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		Payload   string `json:"payload" binding:"required"`
		CaptchaID string `json:"captcha_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := solver.SolveBase64(req.Payload)
	attempt := models.NewSolveAttempt(user.ID, req.CaptchaID, res, err)
	if dbErr := db.Create(&attempt).Error; dbErr != nil {
		log.Printf("failed to record solve attempt captcha=%s: %v", req.CaptchaID, dbErr)
	}
	body := solveBody(req.CaptchaID, res, err)
	body["attempt_id"] = attempt.ID
	c.JSON(solveStatus(err), body)
}

// listAttemptsHandler lists recent attempts; administrators see everyone's.
func listAttemptsHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	q := db.Model(&models.SolveAttempt{})
	if !isAdmin(c) {
		q = q.Where("user_id = ?", user.ID)
	}
	if s := c.Query("status"); s != "" {
		q = q.Where("status = ?", s)
	}
	var items []models.SolveAttempt
	if err := q.Order("id desc").Limit(200).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// confirmAttemptHandler is the learning event: the operator supplies the text
// the captcha really showed, which becomes an override for the attempt's
// corrected text.
func confirmAttemptHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var attempt models.SolveAttempt
	q := db.Where("id = ?", id)
	if !isAdmin(c) {
		q = q.Where("user_id = ?", user.ID)
	}
	if err := q.First(&attempt).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "attempt not found"})
		return
	}
	if attempt.Corrected == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "attempt has no recognized text"})
		return
	}
	confirmed := strings.TrimSpace(req.Text)
	learned, err := tables.Learn(attempt.Corrected, confirmed)
	if err != nil {
		log.Printf("learn failed attempt=%d: %v", attempt.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist correction"})
		return
	}
	attempt.Confirmed = true
	attempt.ConfirmedText = confirmed
	if err := db.Save(&attempt).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update attempt"})
		return
	}
	body := gin.H{"id": attempt.ID, "learned": learned, "confirmed": confirmed}
	if answer, err := captcha.Solve(confirmed); err == nil {
		body["answer"] = answer
	}
	c.JSON(http.StatusOK, body)
}

// correctionsView renders a table with string keys for JSON.
func correctionsView(t *captcha.CorrectionTable) gin.H {
	chars := make(map[string]string, len(t.Characters))
	for k, v := range t.Characters {
		chars[string(k)] = string(v)
	}
	return gin.H{"characters": chars, "strings": t.Strings}
}

func getCorrectionsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, correctionsView(tables.Snapshot()))
}

func learnCorrectionHandler(c *gin.Context) {
	var req struct {
		Original  string `json:"original" binding:"required"`
		Confirmed string `json:"confirmed" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	learned, err := tables.Learn(req.Original, req.Confirmed)
	if err != nil {
		log.Printf("learn failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist correction"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"learned": learned})
}

// uploadBackgroundHandler stores a background-only image and reloads the
// reference set.
func uploadBackgroundHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file missing"})
		return
	}
	if file.Size > cfg.MaxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
		return
	}
	name := filepath.Base(file.Filename)
	if !captcha.IsSupportedImage(name) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported image type"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}
	img, err := imaging.Decode(f)
	_ = f.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "not a decodable image"})
		return
	}
	fullPath := filepath.Join(cfg.BackgroundDir, name)
	if err := c.SaveUploadedFile(file, fullPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	bg := models.Background{FileName: name}
	attrs := models.Background{
		StorePath:   fullPath,
		ContentType: file.Header.Get("Content-Type"),
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		UploadedBy:  user.ID,
	}
	if err := db.Where("file_name = ?", name).Assign(attrs).FirstOrCreate(&bg).Error; err != nil {
		log.Printf("failed to record background %s: %v", name, err)
	}
	n, _ := solver.References.LoadDir(cfg.BackgroundDir)
	c.JSON(http.StatusOK, gin.H{"id": bg.ID, "file_name": name, "references": n})
}

func listBackgroundsHandler(c *gin.Context) {
	var items []models.Background
	if err := db.Order("file_name").Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"backgrounds": items, "loaded": solver.References.Len()})
}
