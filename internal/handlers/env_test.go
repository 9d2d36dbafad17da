package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/festiva/festiva/internal/apperr"
	"github.com/festiva/festiva/internal/handlers"
	"github.com/festiva/festiva/internal/mail"
	authmw "github.com/festiva/festiva/internal/middleware/auth"
	"github.com/festiva/festiva/internal/models"
	"github.com/festiva/festiva/internal/repo"
	"github.com/festiva/festiva/internal/service"
	httpserver "github.com/festiva/festiva/internal/transport/http"
)

var (
	testAccessSecret  = []byte("test-access-secret")
	testRefreshSecret = []byte("test-refresh-secret")
)

type publishedEvent struct {
	Topic string
	Key   string
	Event any
}

type fakePublisher struct {
	published []publishedEvent
	fail      bool
}

func (f *fakePublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	if f.fail {
		return fmt.Errorf("broker unavailable")
	}
	f.published = append(f.published, publishedEvent{Topic: topic, Key: key, Event: event})
	return nil
}

type fakeIndex struct {
	docs map[uint]models.Event
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{docs: map[uint]models.Event{}}
}

func (f *fakeIndex) IndexEvent(_ context.Context, event *models.Event) error {
	f.docs[event.ID] = *event
	return nil
}

func (f *fakeIndex) DeleteEvent(_ context.Context, eventID uint) error {
	delete(f.docs, eventID)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, query string, from, size int) (int64, []models.Event, error) {
	var hits []models.Event
	q := strings.ToLower(query)
	for _, doc := range f.docs {
		if strings.Contains(strings.ToLower(doc.Title), q) ||
			strings.Contains(strings.ToLower(doc.Description), q) {
			hits = append(hits, doc)
		}
	}
	total := int64(len(hits))
	if from > len(hits) {
		from = len(hits)
	}
	hits = hits[from:]
	if size < len(hits) {
		hits = hits[:size]
	}
	return total, hits, nil
}

type fakeNotifier struct {
	fail bool
	sent []string
}

func (f *fakeNotifier) SendOrderConfirmation(_ context.Context, to string, _ mail.OrderSummary) error {
	if f.fail {
		return fmt.Errorf("smtp down")
	}
	f.sent = append(f.sent, to)
	return nil
}

type testEnv struct {
	DB       *gorm.DB
	E        *echo.Echo
	Producer *fakePublisher
	Index    *fakeIndex
	Notifier *fakeNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.RefreshToken{},
		&models.Event{}, &models.Order{}, &models.OrderItem{},
	))

	producer := &fakePublisher{}
	index := newFakeIndex()
	notifier := &fakeNotifier{}

	users := &repo.UserRepo{DB: db}
	refresh := &repo.RefreshRepo{DB: db}
	events := &repo.EventRepo{DB: db}
	orders := &repo.OrderRepo{DB: db}

	authSvc := &service.AuthService{
		Users:         users,
		Refresh:       refresh,
		Producer:      producer,
		AccessSecret:  testAccessSecret,
		RefreshSecret: testRefreshSecret,
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}
	eventSvc := &service.EventService{Events: events, Index: index}
	orderSvc := &service.OrderService{
		DB:       db,
		Events:   events,
		Orders:   orders,
		Users:    users,
		Notifier: notifier,
		Producer: producer,
	}

	e := echo.New()
	e.HTTPErrorHandler = apperr.HTTPErrorHandler
	httpserver.Register(e, &httpserver.Deps{
		DB:            db,
		Auth:          authmw.NewBearerAuth(testAccessSecret),
		AuthHandler:   &handlers.AuthHandler{Svc: authSvc},
		EventHandler:  &handlers.EventHandler{Svc: eventSvc},
		OrderHandler:  &handlers.OrderHandler{Svc: orderSvc},
		SearchHandler: &handlers.SearchHandler{Index: index},
	})

	return &testEnv{DB: db, E: e, Producer: producer, Index: index, Notifier: notifier}
}

type reqOption func(*http.Request)

func withBearer(token string) reqOption {
	return func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
}

func withCookie(ck *http.Cookie) reqOption {
	return func(r *http.Request) {
		r.AddCookie(ck)
	}
}

func (env *testEnv) do(t *testing.T, method, path string, body any, opts ...reqOption) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, opt := range opts {
		opt(req)
	}

	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, rec)
	code, _ := body["error"].(string)
	return code
}

// registerAndLogin creates a user through the public endpoints and returns
// the access token plus the refresh cookie from the login response.
func (env *testEnv) registerAndLogin(t *testing.T, username, email, password, role string) (string, *http.Cookie) {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	access, _ := body["accessToken"].(string)
	require.NotEmpty(t, access)

	var refreshCookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "refreshToken" {
			refreshCookie = ck
		}
	}
	require.NotNil(t, refreshCookie, "login must set the refresh cookie")
	return access, refreshCookie
}

func (env *testEnv) createEvent(t *testing.T, access string, title string, price float64, tickets uint) uint {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/events", map[string]any{
		"title":            title,
		"category":         "music",
		"startDate":        time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"location":         "Main Hall",
		"price":            price,
		"ticketsAvailable": tickets,
		"organizer":        "Festiva",
		"description":      "test event",
	}, withBearer(access))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	id, ok := body["id"].(float64)
	require.True(t, ok)
	return uint(id)
}
