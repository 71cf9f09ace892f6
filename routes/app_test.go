package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/letsquiz/quiz_api/database"
	"github.com/letsquiz/quiz_api/handlers"
	"github.com/letsquiz/quiz_api/services"
	"github.com/letsquiz/quiz_api/utils"
	"github.com/letsquiz/quiz_api/websocket"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	app     *fiber.App
	store   *database.Store
	hub     *websocket.Hub
	avatars *memoryAvatars
}

type memoryAvatars struct {
	mu      sync.Mutex
	saved   []string
	removed []string
}

func (m *memoryAvatars) Save(_ context.Context, file *multipart.FileHeader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	url := "/uploads/avatars/" + file.Filename
	m.saved = append(m.saved, url)
	return url, nil
}

func (m *memoryAvatars) Remove(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, url)
	return nil
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.OpenInMemory(t.Name())
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	hub := websocket.NewHub()
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
	})

	store := database.NewStore(db)
	credentials := services.NewCredentialService(store, bcrypt.MinCost)
	quizzes := services.NewQuizService(store)
	avatars := &memoryAvatars{}
	h := &handlers.Handler{
		Credentials: credentials,
		Sessions:    services.NewSessionService(store, "test-secret", time.Hour, services.CookieOptions{}),
		Profiles:    services.NewProfileService(store, store, credentials),
		Quizzes:     quizzes,
		Attempts:    services.NewAttemptService(store, quizzes),
		Stats:       services.NewStatsService(store, store),
		Avatars:     avatars,
		Hub:         hub,
	}
	return &testServer{
		app:     NewApp(h, AppOptions{AllowedOrigins: []string{"http://localhost:3000"}}),
		store:   store,
		hub:     hub,
		avatars: avatars,
	}
}

type response struct {
	status  int
	body    []byte
	cookies []*http.Cookie
}

func (r response) decode(t *testing.T, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(r.body, v); err != nil {
		t.Fatalf("decode %s: %v", r.body, err)
	}
}

func (r response) errorCode(t *testing.T) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	r.decode(t, &body)
	return body.Code
}

func (s *testServer) do(t *testing.T, method, path string, payload interface{}, session *http.Cookie) response {
	t.Helper()
	if payload == nil {
		return s.send(t, method, path, nil, "", session)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return s.send(t, method, path, bytes.NewReader(raw), fiber.MIMEApplicationJSON, session)
}

func (s *testServer) send(t *testing.T, method, path string, body io.Reader, contentType string, session *http.Cookie) response {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if session != nil {
		req.AddCookie(session)
	}

	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return response{status: resp.StatusCode, body: data, cookies: resp.Cookies()}
}

func (s *testServer) register(t *testing.T, username, role string) {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/users/register", fiber.Map{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
		"role":     role,
	}, nil)
	if resp.status != fiber.StatusOK {
		t.Fatalf("register %s: %d %s", username, resp.status, resp.body)
	}
}

func (s *testServer) login(t *testing.T, username string) *http.Cookie {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/users/login", fiber.Map{
		"email":    username + "@example.com",
		"password": "password123",
	}, nil)
	if resp.status != fiber.StatusOK {
		t.Fatalf("login %s: %d %s", username, resp.status, resp.body)
	}
	for _, c := range resp.cookies {
		if c.Name == services.CookieName && c.Value != "" {
			return &http.Cookie{Name: c.Name, Value: c.Value}
		}
	}
	t.Fatalf("login %s set no session cookie", username)
	return nil
}

func TestQuizScenario(t *testing.T) {
	srv := newTestServer(t)
	srv.register(t, "alice", "teacher")
	srv.register(t, "bob", "student")
	alice := srv.login(t, "alice")
	bob := srv.login(t, "bob")

	resp := srv.do(t, http.MethodPost, "/api/quizzes/create", fiber.Map{
		"title":       "Arithmetic",
		"description": "Warm up",
		"category":    "math",
		"questions": []fiber.Map{
			{"question": "1+1?", "options": []string{"1", "2"}, "correctAnswer": 1},
			{"question": "2+2?", "options": []string{"4", "5"}, "correctAnswer": 0},
		},
	}, alice)
	if resp.status != fiber.StatusCreated {
		t.Fatalf("create quiz: %d %s", resp.status, resp.body)
	}
	var quiz struct {
		ID      string `json:"_id"`
		Creator string `json:"creator"`
	}
	resp.decode(t, &quiz)
	if quiz.ID == "" || quiz.Creator == "" {
		t.Fatalf("created quiz = %s", resp.body)
	}

	for _, score := range []float64{80, 60} {
		resp = srv.do(t, http.MethodPost, "/api/users/attempts", fiber.Map{"quizId": quiz.ID, "score": score}, bob)
		if resp.status != fiber.StatusOK {
			t.Fatalf("attempt %v: %d %s", score, resp.status, resp.body)
		}
	}

	resp = srv.do(t, http.MethodGet, "/api/quizzes/"+quiz.ID, nil, nil)
	var withStats struct {
		Attempts     int     `json:"attempts"`
		AverageScore float64 `json:"averageScore"`
		Questions    []struct {
			CorrectAnswer int `json:"correctAnswer"`
		} `json:"questions"`
	}
	resp.decode(t, &withStats)
	if withStats.Attempts != 2 || withStats.AverageScore != 70 || len(withStats.Questions) != 2 {
		t.Fatalf("quiz with stats = %s", resp.body)
	}

	resp = srv.do(t, http.MethodGet, "/api/leaderboard", nil, nil)
	var board []struct {
		QuizID      string `json:"quizId"`
		TopAttempts []struct {
			Username string  `json:"username"`
			Score    float64 `json:"score"`
		} `json:"topAttempts"`
		TotalAttempts int `json:"totalAttempts"`
	}
	resp.decode(t, &board)
	if len(board) != 1 || board[0].QuizID != quiz.ID || board[0].TotalAttempts != 2 {
		t.Fatalf("leaderboard = %s", resp.body)
	}
	top := board[0].TopAttempts
	if len(top) != 2 || top[0].Username != "bob" || top[0].Score != 80 || top[1].Score != 60 {
		t.Fatalf("top attempts = %+v", top)
	}

	resp = srv.do(t, http.MethodPut, "/api/quizzes/"+quiz.ID, fiber.Map{"title": "Hacked"}, bob)
	if resp.status != fiber.StatusForbidden {
		t.Fatalf("student update: %d %s", resp.status, resp.body)
	}
	var forbidden struct {
		Required string `json:"required"`
		Actual   string `json:"actual"`
	}
	resp.decode(t, &forbidden)
	if forbidden.Required != "teacher" || forbidden.Actual != "student" {
		t.Fatalf("forbidden body = %s", resp.body)
	}

	resp = srv.do(t, http.MethodGet, "/api/users", nil, bob)
	var me struct {
		Message string `json:"message"`
		Data    struct {
			Username string `json:"username"`
			Attempts []struct {
				QuizID *struct {
					Title string `json:"title"`
				} `json:"quizId"`
			} `json:"attempts"`
		} `json:"data"`
	}
	resp.decode(t, &me)
	if me.Message != "success" || me.Data.Username != "bob" || len(me.Data.Attempts) != 2 {
		t.Fatalf("current user = %s", resp.body)
	}
	if me.Data.Attempts[0].QuizID == nil || me.Data.Attempts[0].QuizID.Title != "Arithmetic" {
		t.Fatalf("attempt not populated: %s", resp.body)
	}

	resp = srv.do(t, http.MethodDelete, "/api/quizzes/"+quiz.ID, nil, alice)
	if resp.status != fiber.StatusOK || !bytes.Contains(resp.body, []byte("Quiz deleted successfully")) {
		t.Fatalf("delete: %d %s", resp.status, resp.body)
	}
	if resp = srv.do(t, http.MethodGet, "/api/quizzes/"+quiz.ID, nil, nil); resp.status != fiber.StatusNotFound {
		t.Fatalf("get deleted quiz: %d %s", resp.status, resp.body)
	}
}

func TestAuthFailures(t *testing.T) {
	srv := newTestServer(t)
	srv.register(t, "carol", "")

	resp := srv.do(t, http.MethodPost, "/api/users/attempts", fiber.Map{"quizId": "507f1f77bcf86cd799439011", "score": 1}, nil)
	if resp.status != fiber.StatusUnauthorized || resp.errorCode(t) != utils.CodeUnauthenticated {
		t.Fatalf("no cookie: %d %s", resp.status, resp.body)
	}

	resp = srv.do(t, http.MethodPost, "/api/users/register", fiber.Map{
		"username": "carol2", "email": "carol@example.com", "password": "x",
	}, nil)
	if resp.status != fiber.StatusBadRequest || resp.errorCode(t) != utils.CodeDuplicateEmail {
		t.Fatalf("duplicate email: %d %s", resp.status, resp.body)
	}

	resp = srv.do(t, http.MethodPost, "/api/users/register", fiber.Map{"username": "dan"}, nil)
	if resp.status != fiber.StatusBadRequest || resp.errorCode(t) != utils.CodeMissingFields {
		t.Fatalf("missing fields: %d %s", resp.status, resp.body)
	}

	resp = srv.do(t, http.MethodPost, "/api/users/register", fiber.Map{
		"username": "dan", "email": "dan@example.com", "password": "x", "role": "admin",
	}, nil)
	if resp.status != fiber.StatusBadRequest || resp.errorCode(t) != utils.CodeInvalidRole {
		t.Fatalf("invalid role: %d %s", resp.status, resp.body)
	}

	resp = srv.do(t, http.MethodPost, "/api/users/login", fiber.Map{"email": "carol@example.com", "password": "nope"}, nil)
	if resp.status != fiber.StatusUnauthorized || resp.errorCode(t) != utils.CodeInvalidPassword {
		t.Fatalf("wrong password: %d %s", resp.status, resp.body)
	}

	resp = srv.do(t, http.MethodPost, "/api/users/login", fiber.Map{"email": "nobody@example.com", "password": "x"}, nil)
	if resp.status != fiber.StatusNotFound || resp.errorCode(t) != utils.CodeUserNotFound {
		t.Fatalf("unknown user: %d %s", resp.status, resp.body)
	}

	carol := srv.login(t, "carol")
	resp = srv.do(t, http.MethodPost, "/api/quizzes/create", fiber.Map{
		"title": "T", "description": "D", "category": "C",
	}, carol)
	if resp.status != fiber.StatusForbidden {
		t.Fatalf("student create: %d %s", resp.status, resp.body)
	}

	resp = srv.do(t, http.MethodPost, "/api/users/logout", nil, carol)
	if resp.status != fiber.StatusOK {
		t.Fatalf("logout: %d %s", resp.status, resp.body)
	}
	var cleared bool
	for _, c := range resp.cookies {
		if c.Name == services.CookieName && c.Value == "" {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("logout did not clear the session cookie")
	}
}

func TestLoginHidesPassword(t *testing.T) {
	srv := newTestServer(t)
	srv.register(t, "erin", "student")

	resp := srv.do(t, http.MethodPost, "/api/users/login", fiber.Map{"email": "erin@example.com", "password": "password123"}, nil)
	if resp.status != fiber.StatusOK {
		t.Fatalf("login: %d %s", resp.status, resp.body)
	}
	var body struct {
		Message string                 `json:"message"`
		Data    map[string]interface{} `json:"data"`
	}
	resp.decode(t, &body)
	if body.Message != "success" || body.Data["username"] != "erin" {
		t.Fatalf("login body = %s", resp.body)
	}
	if _, ok := body.Data["password"]; ok {
		t.Fatalf("login response leaks the password hash")
	}
}

func TestQuizRoutesValidateIDs(t *testing.T) {
	srv := newTestServer(t)
	srv.register(t, "frank", "teacher")
	frank := srv.login(t, "frank")

	for _, tc := range []struct {
		method string
		cookie *http.Cookie
	}{
		{http.MethodGet, nil},
		{http.MethodPut, frank},
		{http.MethodDelete, frank},
	} {
		var payload interface{}
		if tc.method == http.MethodPut {
			payload = fiber.Map{"title": "x"}
		}
		resp := srv.do(t, tc.method, "/api/quizzes/not-an-id", payload, tc.cookie)
		if resp.status != fiber.StatusBadRequest || resp.errorCode(t) != utils.CodeMalformedID {
			t.Fatalf("%s malformed id: %d %s", tc.method, resp.status, resp.body)
		}
	}

	resp := srv.do(t, http.MethodGet, "/api/quizzes/507f1f77bcf86cd799439011", nil, nil)
	if resp.status != fiber.StatusNotFound || resp.errorCode(t) != utils.CodeNotFound {
		t.Fatalf("unknown quiz: %d %s", resp.status, resp.body)
	}

	resp = srv.do(t, http.MethodPost, "/api/quizzes", fiber.Map{"title": "Open", "description": "D", "category": "C"}, frank)
	if resp.status != fiber.StatusCreated {
		t.Fatalf("open create: %d %s", resp.status, resp.body)
	}
	if bytes.Contains(resp.body, []byte(`"creator"`)) {
		t.Fatalf("POST /quizzes should not record a creator: %s", resp.body)
	}

	resp = srv.do(t, http.MethodGet, "/api/quizzes", nil, nil)
	var list []map[string]interface{}
	resp.decode(t, &list)
	if len(list) != 1 || list[0]["attempts"] != float64(0) || list[0]["averageScore"] != float64(0) {
		t.Fatalf("quiz list = %s", resp.body)
	}

	resp = srv.do(t, http.MethodGet, "/health", nil, nil)
	if resp.status != fiber.StatusOK {
		t.Fatalf("health: %d", resp.status)
	}
}

func TestRegisterChecksRoleBeforeEmailFormat(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(t, http.MethodPost, "/api/users/register", fiber.Map{
		"username": "gina", "email": "not-an-email", "password": "x", "role": "admin",
	}, nil)
	if resp.status != fiber.StatusBadRequest || resp.errorCode(t) != utils.CodeInvalidRole {
		t.Fatalf("invalid role with odd email: %d %s", resp.status, resp.body)
	}

	srv.register(t, "gina", "student")
	resp = srv.do(t, http.MethodPost, "/api/users/register", fiber.Map{
		"username": "gina2", "email": "gina@example.com", "password": "x",
	}, nil)
	if resp.status != fiber.StatusBadRequest || resp.errorCode(t) != utils.CodeDuplicateEmail {
		t.Fatalf("duplicate email: %d %s", resp.status, resp.body)
	}
}

type recordingConn struct {
	messages chan interface{}
}

func (c *recordingConn) WriteJSON(v interface{}) error {
	c.messages <- v
	return nil
}

func (c *recordingConn) Close() error { return nil }

func TestAttemptPushesLeaderboardUpdate(t *testing.T) {
	srv := newTestServer(t)
	srv.register(t, "hank", "teacher")
	srv.register(t, "ivy", "student")
	hank := srv.login(t, "hank")
	ivy := srv.login(t, "ivy")

	resp := srv.do(t, http.MethodPost, "/api/quizzes/create", fiber.Map{
		"title": "Capitals", "description": "D", "category": "geo",
	}, hank)
	var quiz struct {
		ID string `json:"_id"`
	}
	resp.decode(t, &quiz)

	conn := &recordingConn{messages: make(chan interface{}, 4)}
	if !srv.hub.Register(&websocket.Client{ID: "watcher", Conn: conn}) {
		t.Fatalf("hub refused the client")
	}

	resp = srv.do(t, http.MethodPost, "/api/users/attempts", fiber.Map{"quizId": quiz.ID, "score": 55}, ivy)
	if resp.status != fiber.StatusOK {
		t.Fatalf("attempt: %d %s", resp.status, resp.body)
	}

	select {
	case v := <-conn.messages:
		msg, ok := v.(websocket.Message)
		if !ok || msg.Type != "leaderboard_update" {
			t.Fatalf("pushed %#v, want a leaderboard_update message", v)
		}
		entry, ok := msg.Data.(services.LeaderboardEntry)
		if !ok {
			t.Fatalf("pushed data %#v, want a leaderboard entry", msg.Data)
		}
		if entry.QuizID != quiz.ID || entry.TotalAttempts != 1 || entry.AverageScore != 55 {
			t.Fatalf("pushed entry = %+v", entry)
		}
		if len(entry.TopAttempts) != 1 || entry.TopAttempts[0].Username != "ivy" {
			t.Fatalf("pushed top attempts = %+v", entry.TopAttempts)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no leaderboard update pushed")
	}
}

func TestUpdateProfileJSON(t *testing.T) {
	srv := newTestServer(t)
	srv.register(t, "jack", "student")
	srv.register(t, "kate", "student")
	jack := srv.login(t, "jack")

	resp := srv.do(t, http.MethodPut, "/api/users/profile", fiber.Map{"username": "jackie"}, jack)
	if resp.status != fiber.StatusOK {
		t.Fatalf("rename: %d %s", resp.status, resp.body)
	}
	var body struct {
		Message string `json:"message"`
		Data    struct {
			Username string `json:"username"`
		} `json:"data"`
	}
	resp.decode(t, &body)
	if body.Message != "success" || body.Data.Username != "jackie" {
		t.Fatalf("rename body = %s", resp.body)
	}

	resp = srv.do(t, http.MethodPut, "/api/users/profile", fiber.Map{"username": "kate"}, jack)
	if resp.status != fiber.StatusBadRequest || resp.errorCode(t) != utils.CodeDuplicateUsername {
		t.Fatalf("taken username: %d %s", resp.status, resp.body)
	}

	resp = srv.do(t, http.MethodPut, "/api/users/profile", fiber.Map{
		"currentPassword": "password123", "newPassword": "short",
	}, jack)
	if resp.status != fiber.StatusBadRequest || resp.errorCode(t) != utils.CodePasswordTooShort {
		t.Fatalf("short password: %d %s", resp.status, resp.body)
	}

	resp = srv.do(t, http.MethodPut, "/api/users/profile", fiber.Map{
		"currentPassword": "wrong", "newPassword": "longenough",
	}, jack)
	if resp.status != fiber.StatusBadRequest || resp.errorCode(t) != utils.CodeWrongCurrentPassword {
		t.Fatalf("wrong password: %d %s", resp.status, resp.body)
	}

	if resp = srv.do(t, http.MethodPut, "/api/users/profile", fiber.Map{"username": "x"}, nil); resp.status != fiber.StatusUnauthorized {
		t.Fatalf("anonymous update: %d %s", resp.status, resp.body)
	}
}

func multipartProfile(t *testing.T, fields map[string]string, avatar []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField() error = %v", err)
		}
	}
	if avatar != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="avatar"; filename="me.png"`)
		h.Set("Content-Type", "image/png")
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart() error = %v", err)
		}
		part.Write(avatar)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestUpdateProfileMultipart(t *testing.T) {
	srv := newTestServer(t)
	srv.register(t, "leo", "student")
	leo := srv.login(t, "leo")

	body, contentType := multipartProfile(t, map[string]string{"username": "leon"}, []byte("png-bytes"))
	resp := srv.send(t, http.MethodPut, "/api/users/profile", body, contentType, leo)
	if resp.status != fiber.StatusOK {
		t.Fatalf("multipart update: %d %s", resp.status, resp.body)
	}
	var updated struct {
		Data struct {
			Username string  `json:"username"`
			Avatar   *string `json:"avatar"`
		} `json:"data"`
	}
	resp.decode(t, &updated)
	if updated.Data.Username != "leon" || updated.Data.Avatar == nil || *updated.Data.Avatar != "/uploads/avatars/me.png" {
		t.Fatalf("multipart body = %s", resp.body)
	}

	body, contentType = multipartProfile(t, map[string]string{"username": "leonard"}, nil)
	resp = srv.send(t, http.MethodPut, "/api/users/profile", body, contentType, leo)
	if resp.status != fiber.StatusOK {
		t.Fatalf("multipart without avatar: %d %s", resp.status, resp.body)
	}

	srv.avatars.mu.Lock()
	saved := len(srv.avatars.saved)
	srv.avatars.mu.Unlock()
	if saved != 1 {
		t.Fatalf("avatar store saved %d files, want 1", saved)
	}

	resp = srv.do(t, http.MethodGet, "/api/users", nil, leo)
	var me struct {
		Data struct {
			Username string  `json:"username"`
			Avatar   *string `json:"avatar"`
		} `json:"data"`
	}
	resp.decode(t, &me)
	if me.Data.Username != "leonard" || me.Data.Avatar == nil {
		t.Fatalf("profile after updates = %s", resp.body)
	}
}
