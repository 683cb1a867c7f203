package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Miraines/videotube/internal/adapters/transport/http/dto"
	"github.com/Miraines/videotube/internal/adapters/transport/http/middleware"
	"github.com/Miraines/videotube/internal/adapters/transport/ratelimit"
	customErrors "github.com/Miraines/videotube/internal/domain/user/errors"
	"github.com/Miraines/videotube/internal/domain/user/model"
	"github.com/Miraines/videotube/internal/infra/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeService struct {
	registerFn func(ctx context.Context, in dto.RegisterDTO) (model.User, error)
	loginFn    func(ctx context.Context, in dto.LoginDTO) (model.Session, error)
	refreshFn  func(ctx context.Context, in dto.RefreshDTO) (model.Session, error)
	logoutFn   func(ctx context.Context, p model.Principal) error
	healthErr  error

	user model.User
}

func (f *fakeService) Register(ctx context.Context, in dto.RegisterDTO) (model.User, error) {
	return f.registerFn(ctx, in)
}

func (f *fakeService) Login(ctx context.Context, in dto.LoginDTO) (model.Session, error) {
	return f.loginFn(ctx, in)
}

func (f *fakeService) Refresh(ctx context.Context, in dto.RefreshDTO) (model.Session, error) {
	return f.refreshFn(ctx, in)
}

func (f *fakeService) Logout(ctx context.Context, p model.Principal) error {
	if f.logoutFn == nil {
		return nil
	}
	return f.logoutFn(ctx, p)
}

func (f *fakeService) Authenticate(_ context.Context, tok string) (model.Principal, error) {
	if tok != "valid-access" {
		return model.Principal{}, customErrors.New(customErrors.ErrInvalidToken, "Invalid access token")
	}
	return model.Principal{User: f.user, TokenID: "jti-1", ExpiresAt: time.Now().Add(time.Minute)}, nil
}

func (f *fakeService) CurrentUser(_ context.Context, id uuid.UUID) (model.User, error) {
	if id != f.user.ID {
		return model.User{}, customErrors.NewNotFound("User not found")
	}
	return f.user, nil
}

func (f *fakeService) Health(context.Context) error { return f.healthErr }

func testUser() model.User {
	return model.User{
		ID:         uuid.New(),
		Username:   "alice",
		Email:      "alice@example.com",
		FullName:   "Alice",
		Avatar:     "https://cdn/avatar.png",
		CoverImage: "https://cdn/cover.png",
	}
}

func session(u model.User) model.Session {
	return model.Session{User: u, Tokens: model.TokenPair{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		AccessTTL:    15 * time.Minute,
		RefreshTTL:   240 * time.Hour,
		UserId:       u.ID,
	}}
}

func newTestRouter(t *testing.T, svc *fakeService, mutate ...func(*config.Config)) (*gin.Engine, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Environment:      "development",
		UploadDir:        t.TempDir(),
		MaxUploadSizeMB:  1,
		AllowedOrigins:   []string{"*"},
		AllowCredentials: true,
	}
	for _, m := range mutate {
		m(cfg)
	}
	limiter := ratelimit.NewPerIP(1000, 1000, 100, time.Hour)
	t.Cleanup(limiter.Close)
	return NewRouter(cfg, svc, limiter, zap.NewNop()), cfg
}

func do(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func multipartRequest(t *testing.T, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, name := range files {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("image-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/user/register", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func registerFields() map[string]string {
	return map[string]string{
		"username": "Alice",
		"email":    "alice@example.com",
		"fullName": "Alice",
		"password": "secret",
	}
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestRegister_Created(t *testing.T) {
	u := testUser()
	var got dto.RegisterDTO
	svc := &fakeService{registerFn: func(_ context.Context, in dto.RegisterDTO) (model.User, error) {
		got = in
		_, err := os.Stat(in.AvatarPath)
		require.NoError(t, err, "avatar must be on disk while the service runs")
		return u, nil
	}}
	r, cfg := newTestRouter(t, svc)

	w := do(r, multipartRequest(t, registerFields(), map[string]string{
		"avatar":     "me.PNG",
		"coverImage": "cover.jpg",
	}))

	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	require.Equal(t, float64(201), body["statusCode"])
	require.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	require.Equal(t, u.ID.String(), data["_id"])
	require.NotContains(t, w.Body.String(), "password")

	require.Equal(t, "Alice", got.Username)
	require.True(t, strings.HasPrefix(got.AvatarPath, cfg.UploadDir))
	require.True(t, strings.HasSuffix(got.AvatarPath, ".png"))
	require.NotEmpty(t, got.CoverImagePath)

	_, err := os.Stat(got.AvatarPath)
	require.True(t, errors.Is(err, os.ErrNotExist), "temp upload must be removed")
	_, err = os.Stat(got.CoverImagePath)
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRegister_WithoutFilesPassesEmptyPaths(t *testing.T) {
	svc := &fakeService{registerFn: func(_ context.Context, in dto.RegisterDTO) (model.User, error) {
		require.Empty(t, in.AvatarPath)
		require.Empty(t, in.CoverImagePath)
		return model.User{}, customErrors.NewInvalidArgument("Avatar is required")
	}}
	r, _ := newTestRouter(t, svc)

	w := do(r, multipartRequest(t, registerFields(), nil))

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	require.Equal(t, "Avatar is required", body["message"])
	require.Equal(t, false, body["success"])
}

func TestRegister_ErrorStatuses(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"conflict", customErrors.NewAlreadyExists("User already exists with this username or email"), http.StatusConflict, "User already exists with this username or email"},
		{"upload", customErrors.WrapUpload(errors.New("s3 down"), "Failed to upload avatar"), http.StatusBadRequest, "Failed to upload avatar"},
		{"internal", customErrors.WrapInternal(errors.New("pq: boom"), "Something went wrong while creating user and files removed"), http.StatusInternalServerError, "Something went wrong while creating user and files removed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeService{registerFn: func(context.Context, dto.RegisterDTO) (model.User, error) {
				return model.User{}, tc.err
			}}
			r, _ := newTestRouter(t, svc)

			w := do(r, multipartRequest(t, registerFields(), map[string]string{"avatar": "a.png"}))
			require.Equal(t, tc.code, w.Code)
			require.Equal(t, tc.msg, decode(t, w)["message"])
			require.NotContains(t, w.Body.String(), "pq: boom")
		})
	}
}

func TestRegister_TooLarge(t *testing.T) {
	svc := &fakeService{registerFn: func(context.Context, dto.RegisterDTO) (model.User, error) {
		t.Fatal("service must not be called")
		return model.User{}, nil
	}}
	r, _ := newTestRouter(t, svc)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("avatar", "huge.png")
	require.NoError(t, err)
	_, err = fw.Write(bytes.Repeat([]byte("x"), 2<<20))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/user/register", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := do(r, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestLogin_SetsCookiesAndReturnsTokens(t *testing.T) {
	u := testUser()
	svc := &fakeService{loginFn: func(_ context.Context, in dto.LoginDTO) (model.Session, error) {
		require.Equal(t, "alice", in.Username)
		require.Equal(t, "secret", in.Password)
		return session(u), nil
	}}
	r, _ := newTestRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/user/login",
		strings.NewReader(`{"username":"alice","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	w := do(r, req)

	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	require.Equal(t, "new-access", data["accessToken"])
	require.Equal(t, "new-refresh", data["refreshToken"])
	require.Equal(t, u.ID.String(), data["user"].(map[string]any)["_id"])

	access := findCookie(w, middleware.AccessTokenCookie)
	require.NotNil(t, access)
	require.Equal(t, "new-access", access.Value)
	require.True(t, access.HttpOnly)
	require.False(t, access.Secure, "Secure only in production")

	refresh := findCookie(w, middleware.RefreshTokenCookie)
	require.NotNil(t, refresh)
	require.Equal(t, "new-refresh", refresh.Value)
	require.True(t, refresh.HttpOnly)
}

func TestLogin_FormAndProductionCookies(t *testing.T) {
	svc := &fakeService{loginFn: func(_ context.Context, in dto.LoginDTO) (model.Session, error) {
		require.Equal(t, "alice@example.com", in.Email)
		return session(testUser()), nil
	}}
	r, _ := newTestRouter(t, svc, func(c *config.Config) { c.Environment = "production" })

	req := httptest.NewRequest(http.MethodPost, "/api/v1/user/login",
		strings.NewReader("email=alice%40example.com&password=secret"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := do(r, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, findCookie(w, middleware.AccessTokenCookie).Secure)
	require.True(t, findCookie(w, middleware.RefreshTokenCookie).Secure)
}

func TestLogin_Errors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"bad password", customErrors.NewInvalidCredentials("Invalid user credentials"), http.StatusUnauthorized},
		{"unknown user", customErrors.NewNotFound("User not found"), http.StatusNotFound},
		{"validation", customErrors.NewInvalidArgument("Username or email is required"), http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeService{loginFn: func(context.Context, dto.LoginDTO) (model.Session, error) {
				return model.Session{}, tc.err
			}}
			r, _ := newTestRouter(t, svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/user/login", strings.NewReader(`{"password":"x"}`))
			req.Header.Set("Content-Type", "application/json")
			w := do(r, req)

			require.Equal(t, tc.code, w.Code)
			require.Nil(t, findCookie(w, middleware.AccessTokenCookie))
		})
	}
}

func TestLogin_BodyLimit(t *testing.T) {
	svc := &fakeService{loginFn: func(context.Context, dto.LoginDTO) (model.Session, error) {
		t.Fatal("service must not be called")
		return model.Session{}, nil
	}}
	r, _ := newTestRouter(t, svc)

	big := `{"username":"` + strings.Repeat("a", 20<<10) + `","password":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/user/login", strings.NewReader(big))
	req.Header.Set("Content-Type", "application/json")

	require.Equal(t, http.StatusRequestEntityTooLarge, do(r, req).Code)
}

func TestRefreshToken_FromCookie(t *testing.T) {
	svc := &fakeService{refreshFn: func(_ context.Context, in dto.RefreshDTO) (model.Session, error) {
		if in.RefreshToken != "old-refresh" {
			return model.Session{}, customErrors.New(customErrors.ErrInvalidToken, "Invalid refresh token")
		}
		return session(testUser()), nil
	}}
	r, _ := newTestRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/user/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: middleware.RefreshTokenCookie, Value: "old-refresh"})
	w := do(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "new-refresh", findCookie(w, middleware.RefreshTokenCookie).Value)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/user/refresh-token", strings.NewReader(`{"refreshToken":"stolen"}`))
	req.Header.Set("Content-Type", "application/json")
	w = do(r, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Invalid refresh token", decode(t, w)["message"])
}

func TestLogout(t *testing.T) {
	u := testUser()
	var loggedOut model.Principal
	svc := &fakeService{user: u, logoutFn: func(_ context.Context, p model.Principal) error {
		loggedOut = p
		return nil
	}}
	r, _ := newTestRouter(t, svc)

	w := do(r, httptest.NewRequest(http.MethodPost, "/api/v1/user/logout", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/user/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: "valid-access"})
	w = do(r, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, u.ID, loggedOut.User.ID)
	require.Equal(t, "jti-1", loggedOut.TokenID)
	cleared := findCookie(w, middleware.AccessTokenCookie)
	require.NotNil(t, cleared)
	require.Empty(t, cleared.Value)
	require.True(t, cleared.MaxAge < 0)
}

func TestCurrentUser(t *testing.T) {
	u := testUser()
	r, _ := newTestRouter(t, &fakeService{user: u})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/current-user", nil)
	req.Header.Set("Authorization", "Bearer valid-access")
	w := do(r, req)

	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	require.Equal(t, "alice", data["username"])
	require.Equal(t, u.CoverImage, data["coverImage"])
}

func TestHealthcheck(t *testing.T) {
	svc := &fakeService{}
	r, _ := newTestRouter(t, svc)

	w := do(r, httptest.NewRequest(http.MethodGet, "/api/v1/healthcheck", nil))
	require.Equal(t, http.StatusOK, w.Code)

	svc.healthErr = errors.New("redis down")
	w = do(r, httptest.NewRequest(http.MethodGet, "/api/v1/healthcheck", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NotContains(t, w.Body.String(), "redis down")
}

func TestMetricsAndNoRoute(t *testing.T) {
	r, _ := newTestRouter(t, &fakeService{})

	do(r, httptest.NewRequest(http.MethodGet, "/api/v1/healthcheck", nil))
	w := do(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "videotube_http_requests_total")

	w = do(r, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "Route not found", decode(t, w)["message"])
}

func TestCORS_EchoesOriginWithCredentials(t *testing.T) {
	r, _ := newTestRouter(t, &fakeService{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/user/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := do(r, req)

	require.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func newLimitedRouter(t *testing.T, proxies []string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{UploadDir: t.TempDir(), MaxUploadSizeMB: 1, TrustedProxies: proxies}
	limiter := ratelimit.NewPerIP(1, 1, 100, time.Hour)
	t.Cleanup(limiter.Close)
	return NewRouter(cfg, &fakeService{}, limiter, zap.NewNop())
}

func TestRateLimit_ForwardedForFromClientIsIgnored(t *testing.T) {
	r := newLimitedRouter(t, nil)

	var passed int
	for i := range 20 {
		req := httptest.NewRequest(http.MethodGet, "/missing", nil)
		req.RemoteAddr = "203.0.113.9:4000"
		req.Header.Set("X-Forwarded-For", "198.51.100."+strconv.Itoa(i))
		if do(r, req).Code != http.StatusTooManyRequests {
			passed++
		}
	}
	require.Equal(t, 1, passed, "a rotating X-Forwarded-For must not buy new buckets")
}

func TestRateLimit_TrustedProxyForwardsClientIP(t *testing.T) {
	r := newLimitedRouter(t, []string{"10.0.0.0/8"})

	for _, client := range []string{"198.51.100.1", "198.51.100.2"} {
		req := httptest.NewRequest(http.MethodGet, "/missing", nil)
		req.RemoteAddr = "10.0.0.5:4000"
		req.Header.Set("X-Forwarded-For", client)
		require.Equal(t, http.StatusNotFound, do(r, req).Code, client)
	}

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.RemoteAddr = "10.0.0.5:4000"
	req.Header.Set("X-Forwarded-For", "198.51.100.1")
	require.Equal(t, http.StatusTooManyRequests, do(r, req).Code)
}
