package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/giladwin/chat/internal/auth"
	"github.com/giladwin/chat/internal/chat"
	"github.com/giladwin/chat/internal/middleware"
	"github.com/giladwin/chat/internal/models"
	"github.com/giladwin/chat/internal/policy"
	"github.com/giladwin/chat/internal/repository"
	"github.com/giladwin/chat/internal/rooms"
	"github.com/giladwin/chat/internal/users"
)

type memUserRepo struct {
	mu    sync.Mutex
	users []*models.User
}

func (m *memUserRepo) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
		if u.Username == user.Username {
			return repository.ErrDuplicateUsername
		}
	}
	m.users = append(m.users, user)
	return nil
}

func (m *memUserRepo) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUserRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memRoomRepo struct {
	mu       sync.Mutex
	order    []string
	members  map[string][]string
	messages map[string][]models.Message
}

func newMemRoomRepo() *memRoomRepo {
	return &memRoomRepo{
		members:  map[string][]string{},
		messages: map[string][]models.Message{},
	}
}

func (m *memRoomRepo) CreateRoom(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.members[name]; ok {
		return repository.ErrDuplicateRoom
	}
	m.members[name] = []string{}
	m.order = append(m.order, name)
	return nil
}

func (m *memRoomRepo) RoomExists(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.members[name]
	return ok, nil
}

func (m *memRoomRepo) GetRoom(_ context.Context, name string) (*models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users, ok := m.members[name]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &models.Room{Name: name, Users: append([]string{}, users...)}, nil
}

func (m *memRoomRepo) ListRooms(_ context.Context) ([]models.RoomSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.RoomSummary{}
	for _, name := range m.order {
		out = append(out, models.RoomSummary{Name: name, Users: len(m.members[name])})
	}
	return out, nil
}

func (m *memRoomRepo) GetMessages(_ context.Context, name string) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.members[name]; !ok {
		return nil, repository.ErrNotFound
	}
	return append([]models.Message{}, m.messages[name]...), nil
}

func (m *memRoomRepo) AppendMessage(_ context.Context, name string, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[name] = append(m.messages[name], *msg)
	return nil
}

func (m *memRoomRepo) AddMember(_ context.Context, name, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.members[name] {
		if u == username {
			return nil
		}
	}
	m.members[name] = append(m.members[name], username)
	return nil
}

func (m *memRoomRepo) RemoveMember(_ context.Context, name, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := m.members[name][:0]
	for _, u := range m.members[name] {
		if u != username {
			users = append(users, u)
		}
	}
	m.members[name] = users
	return nil
}

type testEnv struct {
	router    http.Handler
	authority *auth.Authority
	roomRepo  *memRoomRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	authority := auth.NewAuthority("chat-server-secret-test")
	filter := policy.NewFilter([]string{"voldemort"})

	roomRepo := newMemRoomRepo()
	usersSvc := users.NewService(&memUserRepo{}, authority, filter)
	roomsSvc := rooms.NewService(roomRepo, filter)
	hub := chat.NewHub(roomsSvc, filter)
	t.Cleanup(hub.Shutdown)

	return &testEnv{
		router:    NewRouter(usersSvc, roomsSvc, authority, hub),
		authority: authority,
		roomRepo:  roomRepo,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set(middleware.TokenHeader, token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return out
}

func (e *testEnv) token(t *testing.T, username string) string {
	t.Helper()
	token, err := e.authority.Issue(username)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	return token
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/status", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /status = %d, want 200", rec.Code)
	}
}

func TestSignupReturnsToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/signup", "", map[string]string{
		"username": "gilad", "password": "1234", "email": "gilad@x.com",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /signup = %d, body %s", rec.Code, rec.Body.String())
	}

	body := decodeBody[map[string]string](t, rec)
	username, err := env.authority.Verify(body["token"])
	if err != nil {
		t.Fatalf("returned token does not verify: %v", err)
	}
	if username != "gilad" {
		t.Errorf("token username = %q, want %q", username, "gilad")
	}
}

func TestSignupMissingFields(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		payload map[string]string
		wantMsg string
	}{
		{
			"no username",
			map[string]string{"password": "1234", "email": "g@x.com"},
			"signup request must have an username",
		},
		{
			"no password",
			map[string]string{"username": "gilad", "email": "g@x.com"},
			"signup request must have an password",
		},
		{
			"no email",
			map[string]string{"username": "gilad", "password": "1234"},
			"signup request must have an email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/signup", "", tt.payload)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			body := decodeBody[map[string]string](t, rec)
			if body["message"] != tt.wantMsg {
				t.Errorf("message = %q, want %q", body["message"], tt.wantMsg)
			}
		})
	}
}

func TestSigninWrongPassword(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/signup", "", map[string]string{
		"username": "gilad", "password": "1234", "email": "gilad@x.com",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /signup = %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/signin", "", map[string]string{
		"password": "wrongpass", "email": "gilad@x.com",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("POST /signin = %d, want 400", rec.Code)
	}
	body := decodeBody[map[string]string](t, rec)
	want := "email 'gilad@x.com' does no exist or wrong password entered"
	if body["message"] != want {
		t.Errorf("message = %q, want %q", body["message"], want)
	}
}

func TestSignupThenSignin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/signup", "", map[string]string{
		"username": "gilad", "password": "1234", "email": "gilad@x.com",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /signup = %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/signin", "", map[string]string{
		"password": "1234", "email": "gilad@x.com",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /signin = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody[map[string]string](t, rec)
	if username, _ := env.authority.Verify(body["token"]); username != "gilad" {
		t.Errorf("signin token username = %q, want %q", username, "gilad")
	}
}

func TestRoomRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/room"},
		{http.MethodGet, "/rooms"},
		{http.MethodGet, "/room/lobby"},
		{http.MethodGet, "/room/lobby/messages"},
	}

	for _, p := range paths {
		rec := env.do(t, p.method, p.path, "", map[string]string{"room_name": "lobby"})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token = %d, want 401", p.method, p.path, rec.Code)
		}
	}
}

func TestCreateRoomTwice(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "gilad")

	rec := env.do(t, http.MethodPost, "/room", token, map[string]string{"room_name": "lobby"})
	if rec.Code != http.StatusOK {
		t.Fatalf("first POST /room = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody[map[string]string](t, rec)
	if body["message"] != "room 'lobby' was created" {
		t.Errorf("message = %q", body["message"])
	}

	rec = env.do(t, http.MethodPost, "/room", token, map[string]string{"room_name": "lobby"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("second POST /room = %d, want 400", rec.Code)
	}
	body = decodeBody[map[string]string](t, rec)
	want := "room 'lobby' is already exists, please choose it from the list or use a different name"
	if body["message"] != want {
		t.Errorf("message = %q, want %q", body["message"], want)
	}
}

func TestCreateRoomMissingName(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "gilad")

	rec := env.do(t, http.MethodPost, "/room", token, map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("POST /room = %d, want 400", rec.Code)
	}
	body := decodeBody[map[string]string](t, rec)
	if body["message"] != "no room name provided" {
		t.Errorf("message = %q", body["message"])
	}
}

func TestListRooms(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "gilad")

	env.do(t, http.MethodPost, "/room", token, map[string]string{"room_name": "lobby"})
	env.roomRepo.AddMember(context.Background(), "lobby", "gilad")

	rec := env.do(t, http.MethodGet, "/rooms", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /rooms = %d", rec.Code)
	}

	list := decodeBody[[]map[string]any](t, rec)
	if len(list) != 1 {
		t.Fatalf("rooms = %v, want one entry", list)
	}
	if list[0]["name"] != "lobby" || list[0]["users"] != float64(1) {
		t.Errorf("rooms[0] = %v, want lobby with one user", list[0])
	}
}

func TestGetRoom(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "gilad")

	env.do(t, http.MethodPost, "/room", token, map[string]string{"room_name": "lobby"})
	env.roomRepo.AddMember(context.Background(), "lobby", "gilad")

	rec := env.do(t, http.MethodGet, "/room/lobby", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /room/lobby = %d", rec.Code)
	}
	room := decodeBody[models.Room](t, rec)
	if room.Name != "lobby" || len(room.Users) != 1 || room.Users[0] != "gilad" {
		t.Errorf("room = %+v", room)
	}
}

func TestGetUnknownRoom(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "gilad")

	rec := env.do(t, http.MethodGet, "/room/nowhere", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET /room/nowhere = %d, want 404", rec.Code)
	}
	body := decodeBody[map[string]string](t, rec)
	want := "no such room 'nowhere', please create one or join existing room"
	if body["message"] != want {
		t.Errorf("message = %q, want %q", body["message"], want)
	}
}

func TestRoomMessages(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "gilad")

	env.do(t, http.MethodPost, "/room", token, map[string]string{"room_name": "lobby"})

	rec := env.do(t, http.MethodGet, "/room/lobby/messages", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET messages = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "[]\n" {
		t.Errorf("empty history body = %q, want []", got)
	}

	msg := models.NewMessage("hello", "gilad")
	env.roomRepo.AppendMessage(context.Background(), "lobby", msg)

	rec = env.do(t, http.MethodGet, "/room/lobby/messages", token, nil)
	history := decodeBody[[]models.Message](t, rec)
	if len(history) != 1 || history[0].Text != "hello" || history[0].Username != "gilad" {
		t.Fatalf("history = %+v", history)
	}
	if !history[0].TS.Equal(msg.TS) {
		t.Errorf("ts did not round-trip: %v != %v", history[0].TS, msg.TS)
	}

	// System messages serialize without a username field.
	raw, err := json.Marshal(models.NewSystemMessage("notice"))
	if err != nil {
		t.Fatalf("marshal system message: %v", err)
	}
	if bytes.Contains(raw, []byte("username")) {
		t.Errorf("system message JSON carries a username: %s", raw)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal system message: %v", err)
	}
	if _, err := time.Parse(time.RFC3339Nano, fields["ts"].(string)); err != nil {
		t.Errorf("ts is not an ISO-8601 instant: %v", fields["ts"])
	}
}

func TestForbiddenRoomName(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "gilad")

	rec := env.do(t, http.MethodPost, "/room", token, map[string]string{"room_name": "voldemort"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("POST /room = %d, want 400", rec.Code)
	}
	body := decodeBody[map[string]string](t, rec)
	if body["message"] != "room name contains forbidden word(s), please choose a nicer room name" {
		t.Errorf("message = %q", body["message"])
	}
}
