package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tobywinn/giftlist/internal/hash"
	auth "github.com/tobywinn/giftlist/internal/middleware/auth"
	"github.com/tobywinn/giftlist/internal/models"
	"github.com/tobywinn/giftlist/internal/token"
)

type testEnv struct {
	T      *testing.T
	E      *echo.Echo
	DB     *gorm.DB
	Tokens *token.Service
	A      *AuthHandler
	I      *ItemHandler
}

func InitTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.AuthToken{}, &models.Item{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	db := InitTestDB(t)
	tokens := &token.Service{DB: db, Duration: time.Hour}

	return &testEnv{
		T:      t,
		E:      echo.New(),
		DB:     db,
		Tokens: tokens,
		A:      &AuthHandler{DB: db, Tokens: tokens},
		I:      &ItemHandler{DB: db},
	}
}

func (env *testEnv) createUser(username, password string) models.User {
	pwHash, err := hash.HashPassword(password)
	require.NoError(env.T, err)

	user := models.User{Username: username, PasswordHash: pwHash}
	require.NoError(env.T, env.DB.Create(&user).Error)
	return user
}

// doFormRequest builds an echo context carrying a form-encoded body,
// the way the frontend submits everything.
func (env *testEnv) doFormRequest(method, path string, form url.Values) (*httptest.ResponseRecorder, echo.Context) {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

// asUser builds a context as the given authenticated user, identity
// already resolved the way the login gate would.
func (env *testEnv) asUser(user models.User, method, path string, form url.Values) (*httptest.ResponseRecorder, echo.Context) {
	rec, c := env.doFormRequest(method, path, form)
	auth.SetIdentity(c, user.ID, user.Username)
	return rec, c
}

func requireHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError, got %v", err)
	require.Equal(t, code, he.Code)
}

func authCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == auth.CookieName {
			return ck
		}
	}
	t.Fatal("auth_token cookie not set")
	return nil
}
