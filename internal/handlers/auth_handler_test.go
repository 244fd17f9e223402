package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bus-tracking-backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func newAuthRouter(t *testing.T, users *memUserStore) *gin.Engine {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/register", Register(users))
	r.POST("/api/login", Login(users))

	protected := r.Group("/api")
	protected.Use(middleware.JWTAuth())
	protected.GET("/user", GetCurrentUser(users))
	return r
}

func decodeAuth(t *testing.T, w *httptest.ResponseRecorder) AuthResponse {
	t.Helper()
	var resp AuthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("не удалось разобрать ответ: %v", err)
	}
	return resp
}

func TestRegisterCreatesAccount(t *testing.T) {
	users := newMemUserStore()
	r := newAuthRouter(t, users)

	w := postJSON(r, "/api/register", `{"username":"driver1","password":"secret"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("ожидался статус 201, получен %d: %s", w.Code, w.Body.String())
	}

	resp := decodeAuth(t, w)
	if !resp.Success || resp.Token == "" {
		t.Errorf("ожидался success=true с токеном, получено %+v", resp)
	}
	if resp.User.Username != "driver1" {
		t.Errorf("ожидался username driver1, получен %q", resp.User.Username)
	}
	if resp.User.Role != "driver" {
		t.Errorf("роль по умолчанию должна быть driver, получена %q", resp.User.Role)
	}

	// Пароль хранится только как bcrypt-хэш и не утекает в ответ
	stored := users.users["driver1"]
	if stored.PasswordHash == "secret" {
		t.Error("пароль не должен храниться открытым текстом")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret")); err != nil {
		t.Errorf("хэш не соответствует паролю: %v", err)
	}
	if strings.Contains(w.Body.String(), stored.PasswordHash) || strings.Contains(w.Body.String(), `"password"`) {
		t.Error("пароль или хэш попал в ответ")
	}
}

func TestRegisterExplicitRole(t *testing.T) {
	users := newMemUserStore()
	r := newAuthRouter(t, users)

	w := postJSON(r, "/api/register", `{"username":"admin1","password":"secret","role":"admin"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("статус %d: %s", w.Code, w.Body.String())
	}
	if resp := decodeAuth(t, w); resp.User.Role != "admin" {
		t.Errorf("ожидалась роль admin, получена %q", resp.User.Role)
	}
}

func TestRegisterMissingFields(t *testing.T) {
	cases := []string{
		`{"password":"secret"}`,
		`{"username":"driver1"}`,
		`{}`,
	}

	for _, body := range cases {
		users := newMemUserStore()
		r := newAuthRouter(t, users)

		w := postJSON(r, "/api/register", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("тело %s: ожидался статус 400, получен %d", body, w.Code)
		}
		if len(users.users) != 0 {
			t.Errorf("тело %s: аккаунт не должен создаваться", body)
		}
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	users := newMemUserStore()
	r := newAuthRouter(t, users)

	if w := postJSON(r, "/api/register", `{"username":"driver1","password":"first"}`); w.Code != http.StatusCreated {
		t.Fatalf("первая регистрация: статус %d", w.Code)
	}
	firstHash := users.users["driver1"].PasswordHash

	w := postJSON(r, "/api/register", `{"username":"driver1","password":"second"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("повторная регистрация должна давать 409, получен %d", w.Code)
	}

	// Пароль первого аккаунта не изменился
	if users.users["driver1"].PasswordHash != firstHash {
		t.Error("повторная регистрация не должна менять существующий аккаунт")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(users.users["driver1"].PasswordHash), []byte("first")); err != nil {
		t.Errorf("исходный пароль перестал подходить: %v", err)
	}
}

func TestLoginSuccess(t *testing.T) {
	users := newMemUserStore()
	r := newAuthRouter(t, users)

	postJSON(r, "/api/register", `{"username":"driver1","password":"secret","role":"driver"}`)

	w := postJSON(r, "/api/login", `{"username":"driver1","password":"secret"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("ожидался статус 200, получен %d: %s", w.Code, w.Body.String())
	}

	resp := decodeAuth(t, w)
	if !resp.Success || resp.Token == "" {
		t.Errorf("ожидался success=true с токеном, получено %+v", resp)
	}
	if resp.User.Username != "driver1" || resp.User.Role != "driver" {
		t.Errorf("публичные поля аккаунта не совпадают: %+v", resp.User)
	}
}

// Неизвестное имя и неверный пароль дают одинаковый 401, чтобы по
// ответу нельзя было перебирать существующие аккаунты
func TestLoginUnauthorizedUniform(t *testing.T) {
	users := newMemUserStore()
	r := newAuthRouter(t, users)

	postJSON(r, "/api/register", `{"username":"driver1","password":"secret"}`)

	wrongPass := postJSON(r, "/api/login", `{"username":"driver1","password":"wrong"}`)
	unknownUser := postJSON(r, "/api/login", `{"username":"ghost","password":"secret"}`)

	if wrongPass.Code != http.StatusUnauthorized {
		t.Errorf("неверный пароль: ожидался 401, получен %d", wrongPass.Code)
	}
	if unknownUser.Code != http.StatusUnauthorized {
		t.Errorf("неизвестное имя: ожидался 401, получен %d", unknownUser.Code)
	}
	if wrongPass.Body.String() != unknownUser.Body.String() {
		t.Errorf("ответы должны быть неразличимы: %s vs %s", wrongPass.Body.String(), unknownUser.Body.String())
	}
}

func TestLoginMissingFields(t *testing.T) {
	users := newMemUserStore()
	r := newAuthRouter(t, users)

	w := postJSON(r, "/api/login", `{"username":"driver1"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("ожидался статус 400, получен %d", w.Code)
	}
}

func TestRegisterStorageFault(t *testing.T) {
	users := newMemUserStore()
	users.fail = true
	r := newAuthRouter(t, users)

	w := postJSON(r, "/api/register", `{"username":"driver1","password":"secret"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("ожидался статус 500 при отказе хранилища, получен %d", w.Code)
	}
}

func TestGetCurrentUserWithToken(t *testing.T) {
	users := newMemUserStore()
	r := newAuthRouter(t, users)

	w := postJSON(r, "/api/register", `{"username":"driver1","password":"secret"}`)
	token := decodeAuth(t, w).Token

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался статус 200, получен %d: %s", rec.Code, rec.Body.String())
	}
	if resp := decodeAuth(t, rec); resp.User.Username != "driver1" {
		t.Errorf("ожидался driver1, получен %q", resp.User.Username)
	}

	// Без токена доступ закрыт
	req = httptest.NewRequest(http.MethodGet, "/api/user", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("без токена ожидался 401, получен %d", rec.Code)
	}
}

// Отказ хранилища и отсутствующий аккаунт — разные ситуации:
// первая дает 500, вторая 404
func TestGetCurrentUserStorageFault(t *testing.T) {
	users := newMemUserStore()
	r := newAuthRouter(t, users)

	w := postJSON(r, "/api/register", `{"username":"driver1","password":"secret"}`)
	token := decodeAuth(t, w).Token

	getUser := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	users.fail = true
	if rec := getUser(); rec.Code != http.StatusInternalServerError {
		t.Errorf("отказ хранилища должен давать 500, получен %d", rec.Code)
	}

	users.fail = false
	delete(users.users, "driver1")
	if rec := getUser(); rec.Code != http.StatusNotFound {
		t.Errorf("отсутствующий аккаунт должен давать 404, получен %d", rec.Code)
	}
}
