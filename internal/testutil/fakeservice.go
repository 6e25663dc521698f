// Package testutil provides an in-process fake of the exam service for
// package tests. It speaks the real wire format over httptest.
package testutil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/examtester/internal/model"
)

// Upload records a multipart file received by the fake.
type Upload struct {
	Field    string
	Filename string
	Content  []byte
}

// TimeUpdate records a PUT /exam-attempts/{id}/time call.
type TimeUpdate struct {
	AttemptID string
	Remaining int
}

type account struct {
	user     model.User
	password string
}

type failure struct {
	status  int
	message string
}

// FakeService is a thread-safe in-memory exam service.
type FakeService struct {
	mu          sync.Mutex
	accounts    map[string]account    // email|role
	tokens      map[string]model.User // active jti
	exams       []model.Exam
	submissions []model.Submission
	attempts    map[string]*model.Attempt // attempt id
	owners      map[string]string         // attempt id -> student id
	failures    map[string]failure        // "METHOD /path"
	calls       []string
	uploads     []Upload
	timeUpdates []TimeUpdate
	authHeaders []string

	server *httptest.Server
}

// NewFakeService starts the fake and closes it when the test ends.
func NewFakeService(t testing.TB) *FakeService {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &FakeService{
		accounts: make(map[string]account),
		tokens:   make(map[string]model.User),
		attempts: make(map[string]*model.Attempt),
		owners:   make(map[string]string),
		failures: make(map[string]failure),
	}
	f.server = httptest.NewServer(f.routes())
	t.Cleanup(f.server.Close)
	return f
}

// URL is the API root to configure clients with.
func (f *FakeService) URL() string {
	return f.server.URL + "/api"
}

// AddUser registers an account that can log in.
func (f *FakeService) AddUser(user model.User, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[accountKey(user.Email, user.Role)] = account{user: user, password: password}
}

// IssueToken returns a valid bearer token for user without logging in.
func (f *FakeService) IssueToken(user model.User) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issueLocked(user)
}

// RevokeTokens invalidates every issued token, so the next call gets a 401.
func (f *FakeService) RevokeTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = make(map[string]model.User)
}

// AddExam stores an exam and returns it with an id assigned if missing.
func (f *FakeService) AddExam(e model.Exam) model.Exam {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	f.exams = append(f.exams, e)
	return e
}

// AddSubmission stores a submission.
func (f *FakeService) AddSubmission(s model.Submission) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	f.submissions = append(f.submissions, s)
}

// AddAttempt stores an attempt so StartAttempt resumes it for any student.
func (f *FakeService) AddAttempt(a model.Attempt) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := a
	f.attempts[a.ID] = &cp
}

// Fail makes every call to method+path answer with status and message
// until cleared with Fail(method, path, 0, "").
func (f *FakeService) Fail(method, path string, status int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := method + " " + path
	if status == 0 {
		delete(f.failures, key)
		return
	}
	f.failures[key] = failure{status: status, message: message}
}

// Calls returns every "METHOD /path" received, in order.
func (f *FakeService) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount counts calls matching "METHOD /path".
func (f *FakeService) CallCount(method, path string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == method+" "+path {
			n++
		}
	}
	return n
}

// Uploads returns the files received so far.
func (f *FakeService) Uploads() []Upload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Upload(nil), f.uploads...)
}

// TimeUpdates returns the remaining-time updates received so far.
func (f *FakeService) TimeUpdates() []TimeUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]TimeUpdate(nil), f.timeUpdates...)
}

// AuthHeaders returns the Authorization header of each request.
func (f *FakeService) AuthHeaders() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.authHeaders...)
}

// Exam returns the stored exam with id.
func (f *FakeService) Exam(id string) (model.Exam, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.exams {
		if e.ID == id {
			return e, true
		}
	}
	return model.Exam{}, false
}

// Exams returns every stored exam in listing order.
func (f *FakeService) Exams() []model.Exam {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Exam(nil), f.exams...)
}

// Attempt returns the stored attempt with id.
func (f *FakeService) Attempt(id string) (model.Attempt, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, found := f.attempts[id]
	if !found {
		return model.Attempt{}, false
	}
	return *a, true
}

func accountKey(email string, role model.Role) string {
	return strings.ToLower(email) + "|" + string(role)
}

// ─── HTTP ──────────────────────────────────────────────────────────────

const ctxUser = "user"

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

func (f *FakeService) routes() *gin.Engine {
	r := gin.New()
	r.Use(f.record())

	api := r.Group("/api")
	api.POST("/auth/signup", f.signup)
	api.POST("/auth/login", f.login)

	authed := api.Group("")
	authed.Use(f.requireToken())
	{
		authed.POST("/exams", requireRole(model.RoleTeacher), f.createExam)
		authed.GET("/exams", f.listExams)
		authed.GET("/exams/:id", f.getExam)
		authed.PUT("/exams/:id/cancel", requireRole(model.RoleTeacher), f.setExamActive(false))
		authed.PUT("/exams/:id/activate", requireRole(model.RoleTeacher), f.setExamActive(true))

		authed.POST("/submissions", requireRole(model.RoleStudent), f.submitAnswer)
		authed.GET("/submissions", f.listSubmissions)
		authed.GET("/submissions/:examId", requireRole(model.RoleTeacher, model.RoleAdmin), f.listSubmissionsForExam)

		authed.POST("/exam-attempts/start", requireRole(model.RoleStudent), f.startAttempt)
		authed.GET("/exam-attempts/:id", f.getAttempt)
		authed.PUT("/exam-attempts/:id/time", f.updateTime)
		authed.PUT("/exam-attempts/:id/complete", f.completeAttempt)

		authed.GET("/users/students", requireRole(model.RoleAdmin), f.listUsers(model.RoleStudent))
		authed.GET("/users/teachers", requireRole(model.RoleAdmin), f.listUsers(model.RoleTeacher))
	}
	return r
}

// record logs the call and applies any configured failure.
func (f *FakeService) record() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := strings.TrimPrefix(c.Request.URL.Path, "/api")
		key := c.Request.Method + " " + path

		f.mu.Lock()
		f.calls = append(f.calls, key)
		f.authHeaders = append(f.authHeaders, c.GetHeader("Authorization"))
		fl, failing := f.failures[key]
		f.mu.Unlock()

		if failing {
			fail(c, fl.status, fl.message)
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) model.User {
	return c.MustGet(ctxUser).(model.User)
}

func (f *FakeService) signup(c *gin.Context) {
	var req model.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid signup payload")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := accountKey(req.Email, req.Role)
	if _, exists := f.accounts[key]; exists {
		fail(c, http.StatusConflict, "User already exists")
		return
	}
	user := model.User{ID: uuid.New().String(), Name: req.Name, Email: req.Email, Role: req.Role}
	f.accounts[key] = account{user: user, password: req.Password}
	ok(c, http.StatusCreated, gin.H{"user": user, "token": f.issueLocked(user)})
}

func (f *FakeService) login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid login payload")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	acc, exists := f.accounts[accountKey(req.Email, req.Role)]
	if !exists || acc.password != req.Password {
		fail(c, http.StatusBadRequest, "Invalid credentials")
		return
	}
	ok(c, http.StatusOK, gin.H{"user": acc.user, "token": f.issueLocked(acc.user)})
}

func (f *FakeService) readFile(c *gin.Context, field string) (Upload, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		return Upload{}, false
	}
	src, err := fh.Open()
	if err != nil {
		return Upload{}, false
	}
	defer src.Close()
	content, err := io.ReadAll(src)
	if err != nil {
		return Upload{}, false
	}
	return Upload{Field: field, Filename: fh.Filename, Content: content}, true
}

func (f *FakeService) createExam(c *gin.Context) {
	user := currentUser(c)
	up, found := f.readFile(c, "examPdf")
	if !found {
		fail(c, http.StatusBadRequest, "Exam file is required")
		return
	}
	duration, err := strconv.Atoi(c.PostForm("duration"))
	if err != nil || duration <= 0 {
		fail(c, http.StatusBadRequest, "Duration must be a positive number")
		return
	}

	fileID := uuid.New().String()
	exam := model.Exam{
		ID:              uuid.New().String(),
		Title:           c.PostForm("title"),
		DurationMinutes: duration,
		ExamFileID:      fileID,
		ExamPDFURL:      "/api/exams/file/" + fileID,
		CreatedBy:       model.Person{ID: user.ID, Name: user.Name, Email: user.Email},
		CreatedAt:       time.Now().UTC(),
		IsActive:        true,
	}

	f.mu.Lock()
	f.exams = append([]model.Exam{exam}, f.exams...)
	f.uploads = append(f.uploads, up)
	f.mu.Unlock()

	ok(c, http.StatusCreated, gin.H{"exam": exam})
}

func (f *FakeService) listExams(c *gin.Context) {
	user := currentUser(c)

	f.mu.Lock()
	defer f.mu.Unlock()

	exams := make([]model.Exam, 0, len(f.exams))
	for _, e := range f.exams {
		if user.Role == model.RoleStudent && !e.IsActive {
			continue
		}
		exams = append(exams, e)
	}
	ok(c, http.StatusOK, gin.H{"exams": exams})
}

// findExamLocked returns the index of the exam with id, or -1.
func (f *FakeService) findExamLocked(id string) int {
	for i, e := range f.exams {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (f *FakeService) getExam(c *gin.Context) {
	user := currentUser(c)

	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.findExamLocked(c.Param("id"))
	if i < 0 || (user.Role == model.RoleStudent && !f.exams[i].IsActive) {
		fail(c, http.StatusNotFound, "Exam not found")
		return
	}
	ok(c, http.StatusOK, gin.H{"exam": f.exams[i]})
}

func (f *FakeService) setExamActive(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()

		i := f.findExamLocked(c.Param("id"))
		if i < 0 {
			fail(c, http.StatusNotFound, "Exam not found")
			return
		}
		f.exams[i].IsActive = active
		ok(c, http.StatusOK, gin.H{"exam": f.exams[i]})
	}
}

func (f *FakeService) submitAnswer(c *gin.Context) {
	user := currentUser(c)
	examID := c.PostForm("examId")
	up, found := f.readFile(c, "answerFile")
	if !found {
		fail(c, http.StatusBadRequest, "Answer file is required")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.findExamLocked(examID)
	if i < 0 {
		fail(c, http.StatusNotFound, "Exam not found")
		return
	}
	sub := model.Submission{
		ID:          uuid.New().String(),
		Student:     &model.Person{ID: user.ID, Name: user.Name, Email: user.Email},
		Exam:        &model.ExamRef{ID: examID, Title: f.exams[i].Title},
		SubmittedAt: time.Now().UTC(),
		AnswerURL:   "/api/submissions/file/" + uuid.New().String(),
	}
	f.submissions = append(f.submissions, sub)
	f.uploads = append(f.uploads, up)
	ok(c, http.StatusCreated, gin.H{"submission": sub})
}

func (f *FakeService) listSubmissions(c *gin.Context) {
	user := currentUser(c)

	f.mu.Lock()
	defer f.mu.Unlock()

	subs := make([]model.Submission, 0, len(f.submissions))
	for _, s := range f.submissions {
		if user.Role == model.RoleStudent && (s.Student == nil || s.Student.ID != user.ID) {
			continue
		}
		subs = append(subs, s)
	}
	ok(c, http.StatusOK, gin.H{"submissions": subs})
}

func (f *FakeService) listSubmissionsForExam(c *gin.Context) {
	examID := c.Param("examId")

	f.mu.Lock()
	defer f.mu.Unlock()

	subs := make([]model.Submission, 0)
	for _, s := range f.submissions {
		if s.ExamID() == examID {
			subs = append(subs, s)
		}
	}
	ok(c, http.StatusOK, gin.H{"submissions": subs})
}

func (f *FakeService) startAttempt(c *gin.Context) {
	user := currentUser(c)
	var req model.StartAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ExamID == "" {
		fail(c, http.StatusBadRequest, "examId is required")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.findExamLocked(req.ExamID)
	if i < 0 || !f.exams[i].IsActive {
		fail(c, http.StatusNotFound, "Exam not found or has been cancelled")
		return
	}
	for id, a := range f.attempts {
		owner := f.owners[id]
		if a.ExamID == req.ExamID && a.Status == model.AttemptStatusInProgress && (owner == "" || owner == user.ID) {
			ok(c, http.StatusOK, gin.H{"attempt": a})
			return
		}
	}

	now := time.Now().UTC()
	a := &model.Attempt{
		ID:        uuid.New().String(),
		ExamID:    req.ExamID,
		StartedAt: &now,
		Status:    model.AttemptStatusInProgress,
	}
	f.attempts[a.ID] = a
	f.owners[a.ID] = user.ID
	ok(c, http.StatusCreated, gin.H{"attempt": a})
}

func (f *FakeService) getAttempt(c *gin.Context) {
	user := currentUser(c)
	examID := c.Param("id")

	f.mu.Lock()
	defer f.mu.Unlock()

	for id, a := range f.attempts {
		owner := f.owners[id]
		if a.ExamID == examID && (owner == "" || owner == user.ID) {
			ok(c, http.StatusOK, gin.H{"attempt": a})
			return
		}
	}
	fail(c, http.StatusNotFound, "Attempt not found")
}

func (f *FakeService) updateTime(c *gin.Context) {
	var req model.UpdateTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "timeRemaining is required")
		return
	}
	id := c.Param("id")

	f.mu.Lock()
	defer f.mu.Unlock()

	a, found := f.attempts[id]
	if !found {
		fail(c, http.StatusNotFound, "Attempt not found")
		return
	}
	remaining := req.TimeRemaining
	a.TimeRemaining = &remaining
	f.timeUpdates = append(f.timeUpdates, TimeUpdate{AttemptID: id, Remaining: remaining})
	ok(c, http.StatusOK, gin.H{"attempt": a})
}

func (f *FakeService) completeAttempt(c *gin.Context) {
	id := c.Param("id")

	f.mu.Lock()
	defer f.mu.Unlock()

	a, found := f.attempts[id]
	if !found {
		fail(c, http.StatusNotFound, "Attempt not found")
		return
	}
	a.Status = model.AttemptStatusCompleted
	ok(c, http.StatusOK, gin.H{"attempt": a})
}

func (f *FakeService) listUsers(role model.Role) gin.HandlerFunc {
	key := fmt.Sprintf("%ss", role)
	return func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()

		users := make([]model.User, 0)
		for _, acc := range f.accounts {
			if acc.user.Role == role {
				users = append(users, acc.user)
			}
		}
		sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
		ok(c, http.StatusOK, gin.H{key: users})
	}
}
