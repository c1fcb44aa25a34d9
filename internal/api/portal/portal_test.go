package portal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/skybi/restkit/internal/api/auth"
	"github.com/skybi/restkit/internal/api/schema"
	"github.com/skybi/restkit/internal/config"
	"github.com/skybi/restkit/internal/document"
	"github.com/skybi/restkit/internal/message"
	"github.com/skybi/restkit/internal/pagination"
	"github.com/skybi/restkit/internal/storage/memory"
	"github.com/skybi/restkit/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef"

type recordingMailer struct {
	mu    sync.Mutex
	mails []message.Mail
}

func (mailer *recordingMailer) SendMail(_ context.Context, mail message.Mail) error {
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	mailer.mails = append(mailer.mails, mail)
	return nil
}

type testEnv struct {
	t       *testing.T
	handler http.Handler
	issuer  *auth.HMACVerifier
	mailer  *recordingMailer
}

func newTestEnv(t *testing.T, mutate ...func(cfg *config.Config)) *testEnv {
	cfg := &config.Config{
		Environment:     "dev",
		BaseAddress:     "http://localhost:8081",
		AllowedOrigin:   "*",
		JWTKey:          "Authorization",
		JWTPrefix:       "JWT",
		JWTCookie:       "session_token",
		JWTSecret:       testSecret,
		JWTIssuer:       "restkit",
		AdminSubjects:   []string{"root"},
		DefaultPageSize: 10,
		MaxPageSize:     1000,
		MailFrom:        "noreply@restkit.local",
	}
	for _, fn := range mutate {
		fn(cfg)
	}

	driver := memory.New()
	require.NoError(t, driver.Initialize(context.Background()))
	t.Cleanup(driver.Close)

	mailer := new(recordingMailer)
	service := &Service{
		Config:  cfg,
		Storage: driver,
		Mailer:  mailer,
	}
	handler, err := service.Handler()
	require.NoError(t, err)

	return &testEnv{
		t:       t,
		handler: handler,
		issuer:  &auth.HMACVerifier{Secret: []byte(testSecret), Issuer: "restkit"},
		mailer:  mailer,
	}
}

func (env *testEnv) token(subject string) string {
	raw, err := env.issuer.Issue(&auth.Claims{Subject: subject, Name: strings.ToUpper(subject)}, time.Minute)
	require.NoError(env.t, err)
	return raw
}

func (env *testEnv) do(method, path, subject, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		request.Header.Set("Content-Type", "application/json")
	}
	if subject != "" {
		request.Header.Set("Authorization", "JWT "+env.token(subject))
	}
	recorder := httptest.NewRecorder()
	env.handler.ServeHTTP(recorder, request)
	return recorder
}

func (env *testEnv) createDocument(subject, title string) *document.Document {
	recorder := env.do(http.MethodPost, "/v1/documents", subject, `{"title": "`+title+`", "content": {"n": 1}}`)
	require.Equal(env.t, http.StatusCreated, recorder.Code, recorder.Body.String())
	return decode[document.Document](env.t, recorder)
}

func decode[T any](t *testing.T, recorder *httptest.ResponseRecorder) *T {
	value := new(T)
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), value), recorder.Body.String())
	return value
}

func errorTypes(t *testing.T, recorder *httptest.ResponseRecorder) []string {
	response := decode[schema.ErrorResponse](t, recorder)
	assert.Equal(t, recorder.Code, response.Status)
	types := make([]string, 0, len(response.Errors))
	for _, err := range response.Errors {
		types = append(types, err.Type)
	}
	return types
}

func TestAuthentication(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.do(http.MethodGet, "/v1/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, `JWT realm="api"`, recorder.Header().Get("WWW-Authenticate"))
	assert.Equal(t, []string{"access.unauthorized"}, errorTypes(t, recorder))

	for name, header := range map[string]string{
		"garbage":     "JWT garbage",
		"spaces":      "JWT a b",
		"prefix only": "JWT",
	} {
		t.Run(name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
			request.Header.Set("Authorization", header)
			recorder := httptest.NewRecorder()
			env.handler.ServeHTTP(recorder, request)
			assert.Equal(t, http.StatusUnauthorized, recorder.Code)
			assert.Equal(t, []string{"access.invalidCredentials"}, errorTypes(t, recorder))
		})
	}

	foreign, err := (&auth.HMACVerifier{Secret: []byte("fedcba9876543210"), Issuer: "restkit"}).Issue(&auth.Claims{Subject: "alice"}, time.Minute)
	require.NoError(t, err)
	request := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	request.Header.Set("Authorization", "JWT "+foreign)
	recorder = httptest.NewRecorder()
	env.handler.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestTokenFromCookie(t *testing.T) {
	env := newTestEnv(t)

	request := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	request.AddCookie(&http.Cookie{Name: "session_token", Value: env.token("alice")})
	recorder := httptest.NewRecorder()
	env.handler.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestUserProvisioning(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.do(http.MethodGet, "/v1/me", "alice", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	me := decode[user.User](t, recorder)
	assert.Equal(t, &user.User{ID: "alice", DisplayName: "ALICE"}, me)

	recorder = env.do(http.MethodGet, "/v1/me", "root", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, decode[user.User](t, recorder).Admin)
}

func TestEditSelfUser(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.do(http.MethodPatch, "/v1/me", "alice", `{"display_name": "Alice", "mobile": "(012) 345-678.90"}`)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	me := decode[user.User](t, recorder)
	assert.Equal(t, "Alice", me.DisplayName)
	assert.Equal(t, "01234567890", me.Mobile)

	recorder = env.do(http.MethodPatch, "/v1/me", "alice", `{"mobile": "123"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)

	recorder = env.do(http.MethodPatch, "/v1/me", "alice", `{"email": "nope"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	assert.Equal(t, []string{"validation.requestBody.parameter.invalid"}, errorTypes(t, recorder))

	// Users may not promote themselves
	recorder = env.do(http.MethodPatch, "/v1/me", "alice", `{"admin": true}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.False(t, decode[user.User](t, recorder).Admin)
}

func TestAdminUserManagement(t *testing.T) {
	env := newTestEnv(t)
	env.do(http.MethodGet, "/v1/me", "alice", "")
	env.do(http.MethodGet, "/v1/me", "bob", "")

	recorder := env.do(http.MethodGet, "/v1/users", "alice", "")
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	recorder = env.do(http.MethodGet, "/v1/users?page_size=2&page=7", "root", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	page := decode[pagination.Page[*user.User]](t, recorder)
	assert.Equal(t, 3, page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "root", page.Items[0].ID)

	recorder = env.do(http.MethodGet, "/v1/users/nobody", "root", "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	recorder = env.do(http.MethodPatch, "/v1/users/bob", "root", `{"restricted": true}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, decode[user.User](t, recorder).Restricted)

	recorder = env.do(http.MethodGet, "/v1/me", "bob", "")
	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Equal(t, []string{"access.restricted"}, errorTypes(t, recorder))

	recorder = env.do(http.MethodDelete, "/v1/users/bob", "root", "")
	assert.Equal(t, http.StatusNoContent, recorder.Code)
	recorder = env.do(http.MethodGet, "/v1/users/bob", "root", "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestDocumentOwnership(t *testing.T) {
	env := newTestEnv(t)
	doc := env.createDocument("alice", "report")
	assert.Equal(t, "alice", doc.CreatedBy)
	assert.Equal(t, map[string]any{"n": float64(1)}, doc.Content)

	path := "/v1/documents/" + doc.ID.String()

	recorder := env.do(http.MethodGet, path, "alice", "")
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = env.do(http.MethodGet, path, "bob", "")
	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Equal(t, []string{"access.forbidden"}, errorTypes(t, recorder))

	recorder = env.do(http.MethodDelete, path, "bob", "")
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	recorder = env.do(http.MethodGet, path, "root", "")
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = env.do(http.MethodGet, "/v1/documents/not-a-uuid", "alice", "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	recorder = env.do(http.MethodPatch, path, "alice", `{"title": "summary"}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	updated := decode[document.Document](t, recorder)
	assert.Equal(t, "summary", updated.Title)
	assert.Equal(t, doc.Content, updated.Content)
	assert.Equal(t, doc.CreateDate, updated.CreateDate)

	recorder = env.do(http.MethodPut, path, "alice", `{"title": "replaced", "content": {}}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, decode[document.Document](t, recorder).Content)

	recorder = env.do(http.MethodPut, path, "alice", `{"title": "replaced"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	assert.Equal(t, []string{"validation.requestBody.parameter.missing"}, errorTypes(t, recorder))

	recorder = env.do(http.MethodDelete, path, "alice", "")
	assert.Equal(t, http.StatusNoContent, recorder.Code)
	recorder = env.do(http.MethodGet, path, "alice", "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestDocumentProtectedFields(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.do(http.MethodPost, "/v1/documents", "alice", `{"title": "x", "created_by": "bob"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, []string{"validation.requestBody.protectedFields"}, errorTypes(t, recorder))

	doc := env.createDocument("alice", "x")
	recorder = env.do(http.MethodPatch, "/v1/documents/"+doc.ID.String(), "alice", `{"update_date": "2000-01-01T00:00:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestDocumentValidation(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.do(http.MethodPost, "/v1/documents", "alice", `{"content": {}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	assert.Equal(t, []string{"validation.requestBody.parameter.missing"}, errorTypes(t, recorder))

	recorder = env.do(http.MethodPost, "/v1/documents", "alice", `{"title": 1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	assert.Equal(t, []string{"validation.requestBody.parameter.invalidType"}, errorTypes(t, recorder))

	recorder = env.do(http.MethodPost, "/v1/documents", "alice", `{`)
	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	assert.Equal(t, []string{"validation.requestBody.invalidJSON"}, errorTypes(t, recorder))
}

func TestDocumentSingleton(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.DocumentsSingleton = true
	})

	env.createDocument("alice", "first")
	recorder := env.do(http.MethodPost, "/v1/documents", "alice", `{"title": "second"}`)
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Equal(t, []string{"resource.alreadyCreated"}, errorTypes(t, recorder))

	env.createDocument("bob", "first")
}

func TestDocumentSingletonConcurrentCreation(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.DocumentsSingleton = true
	})
	env.do(http.MethodGet, "/v1/me", "alice", "")

	const attempts = 8
	codes := make([]int, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = env.do(http.MethodPost, "/v1/documents", "alice", `{"title": "concurrent"}`).Code
		}(i)
	}
	wg.Wait()

	counts := make(map[int]int)
	for _, code := range codes {
		counts[code]++
	}
	assert.Equal(t, map[int]int{http.StatusCreated: 1, http.StatusConflict: attempts - 1}, counts)
}

func TestListDocuments(t *testing.T) {
	env := newTestEnv(t)
	for _, title := range []string{"c", "a", "b"} {
		env.createDocument("alice", title)
	}
	env.createDocument("bob", "d")

	recorder := env.do(http.MethodGet, "/v1/documents?order_by=title&page_size=2", "alice", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	page := decode[pagination.Page[*document.Document]](t, recorder)
	assert.Equal(t, 3, page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 2, page.NextPage)
	assert.Equal(t, pagination.NoPage, page.PreviousPage)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "a", page.Items[0].Title)
	assert.Equal(t, "b", page.Items[1].Title)

	recorder = env.do(http.MethodGet, "/v1/documents?order_by=-title&page_size=2&page=99", "alice", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	page = decode[pagination.Page[*document.Document]](t, recorder)
	assert.Equal(t, 2, page.CurrentPage)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "a", page.Items[0].Title)

	recorder = env.do(http.MethodGet, "/v1/documents?page_size=0", "root", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	page = decode[pagination.Page[*document.Document]](t, recorder)
	assert.Equal(t, 4, page.TotalItems)
	assert.Len(t, page.Items, 4)

	recorder = env.do(http.MethodGet, "/v1/documents?owner=bob", "alice", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 0, decode[pagination.Page[*document.Document]](t, recorder).TotalItems)

	recorder = env.do(http.MethodGet, "/v1/documents?order_by=content", "alice", "")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, []string{"validation.query.parameter.invalidValue"}, errorTypes(t, recorder))
}

func TestSearchDocuments(t *testing.T) {
	env := newTestEnv(t)
	for _, title := range []string{"a", "b", "b"} {
		env.createDocument("alice", title)
	}
	env.createDocument("bob", "b")

	recorder := env.do(http.MethodPost, "/v1/documents/search", "alice", `{"paginator": 1, "where": {"title": {"$eq": "b"}}}`)
	require.Equal(t, http.StatusAccepted, recorder.Code, recorder.Body.String())
	envelope := decode[struct {
		Data       pagination.Page[*document.Document] `json:"data"`
		StatusCode int                                 `json:"status_code"`
	}](t, recorder)
	assert.Equal(t, http.StatusAccepted, envelope.StatusCode)
	assert.Equal(t, 2, envelope.Data.TotalItems)
	assert.Equal(t, 2, envelope.Data.TotalPages)
	require.Len(t, envelope.Data.Items, 1)
	assert.Equal(t, "alice", envelope.Data.Items[0].CreatedBy)

	recorder = env.do(http.MethodPost, "/v1/documents/search", "root", "")
	require.Equal(t, http.StatusAccepted, recorder.Code)
	envelope = decode[struct {
		Data       pagination.Page[*document.Document] `json:"data"`
		StatusCode int                                 `json:"status_code"`
	}](t, recorder)
	assert.Equal(t, 4, envelope.Data.TotalItems)

	recorder = env.do(http.MethodPost, "/v1/documents/search", "alice", `{"order_by": ["content"]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)

	recorder = env.do(http.MethodPost, "/v1/documents/search", "alice", `{"where": {"title": {"$bogus": 1}}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)

}

type searchEnvelope struct {
	Data       pagination.Page[*document.Document] `json:"data"`
	StatusCode int                                 `json:"status_code"`
}

func TestSearchDocumentsClampsPagination(t *testing.T) {
	env := newTestEnv(t)
	for _, title := range []string{"a", "b", "c"} {
		env.createDocument("alice", title)
	}

	tests := []struct {
		name    string
		body    string
		items   int
		current int
	}{
		{"negative page size", `{"paginator": -1}`, 3, 1},
		{"zero page size", `{"paginator": 0, "page": 5}`, 3, 1},
		{"string page size", `{"paginator": "2"}`, 2, 1},
		{"malformed page size", `{"paginator": "abc"}`, 3, 1},
		{"non-integer page", `{"paginator": 1, "page": "abc"}`, 1, 1},
		{"fractional page", `{"paginator": 1, "page": 2.5}`, 1, 1},
		{"negative page", `{"paginator": 1, "page": -4}`, 1, 1},
		{"page beyond the last", `{"paginator": 2, "page": 99}`, 1, 2},
		{"null values", `{"paginator": null, "page": null}`, 3, 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			recorder := env.do(http.MethodPost, "/v1/documents/search", "alice", test.body)
			require.Equal(t, http.StatusAccepted, recorder.Code, recorder.Body.String())
			envelope := decode[searchEnvelope](t, recorder)
			assert.Equal(t, 3, envelope.Data.TotalItems)
			assert.Len(t, envelope.Data.Items, test.items)
			assert.Equal(t, test.current, envelope.Data.CurrentPage)
		})
	}
}

func TestSendMessage(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.do(http.MethodPost, "/v1/messages", "alice", `{"body": "hi", "recipients": ["a@example.com"]}`)
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	recorder = env.do(http.MethodPost, "/v1/messages", "root", `{"subject": "Hello", "body": "hi", "recipients": ["a@example.com"]}`)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	assert.Equal(t, &message.Result{Success: true, Message: message.ResultSent}, decode[message.Result](t, recorder))
	require.Len(t, env.mailer.mails, 1)
	assert.Equal(t, "noreply@restkit.local", env.mailer.mails[0].From)
	assert.Equal(t, []string{"a@example.com"}, env.mailer.mails[0].To)

	recorder = env.do(http.MethodPost, "/v1/messages", "root", `{"body": "hi", "recipients": ["a@example.com", "0123456789"]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)

	recorder = env.do(http.MethodPost, "/v1/messages", "root", `{"recipients": ["a@example.com"]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.do(http.MethodPost, "/v1/auth/logout", "", "")
	assert.Equal(t, http.StatusNoContent, recorder.Code)
	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session_token", cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.do(http.MethodGet, "/v1/nothing", "", "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, []string{"generic.notFound"}, errorTypes(t, recorder))
}

func TestSafeRedirectTarget(t *testing.T) {
	assert.Equal(t, "/", safeRedirectTarget(""))
	assert.Equal(t, "/dashboard?tab=1", safeRedirectTarget("/dashboard?tab=1"))
	assert.Equal(t, "/", safeRedirectTarget("https://evil.example"))
	assert.Equal(t, "/", safeRedirectTarget("//evil.example"))
	assert.Equal(t, "/", safeRedirectTarget("/\\evil.example"))
}

func TestNestOrder(t *testing.T) {
	var calls []string
	trace := func(name string) middleware {
		return func(next http.HandlerFunc) http.HandlerFunc {
			return func(writer http.ResponseWriter, request *http.Request) {
				calls = append(calls, name)
				next(writer, request)
			}
		}
	}

	handler := nest(func(http.ResponseWriter, *http.Request) {
		calls = append(calls, "endpoint")
	}, trace("a"), trace("b"))
	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a", "b", "endpoint"}, calls)
}
