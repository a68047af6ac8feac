package handlers

import (
	"bytes"
	"chatapp-servers/internal/database"
	"chatapp-servers/internal/hub"
	"chatapp-servers/internal/jwt"
	"chatapp-servers/internal/keyValue"
	"chatapp-servers/internal/models"
	"chatapp-servers/internal/storage"
	"chatapp-servers/internal/store"
	"context"
	"encoding/json"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	nop := zap.NewNop().Sugar()
	jwt.Setup("test-secret", false)
	keyValue.Setup(nop, nil, true)
	hub.Setup(nop, nil, true)

	os.Exit(m.Run())
}

type testServer struct {
	router http.Handler
	store  *store.Store
	cfg    *models.ConfigFile
	ctx    context.Context
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	nop := zap.NewNop().Sugar()
	db, err := database.OpenSqlite(filepath.Join(t.TempDir(), "test.db"), nop)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	testCfg := &models.ConfigFile{UploadRoot: filepath.Join(t.TempDir(), "public")}
	testStore := store.New(db, storage.NewLocal(testCfg.UploadRoot), nop)

	Setup(testCfg, nop, testStore)

	return &testServer{
		router: NewRouter(),
		store:  testStore,
		cfg:    testCfg,
		ctx:    context.Background(),
	}
}

func (s *testServer) user(t *testing.T, name string, admin bool) (models.User, *http.Cookie) {
	t.Helper()

	u := models.User{Email: name + "@example.com", UserName: name, DisplayName: name, Password: []byte("hash")}
	require.NoError(t, s.store.CreateUser(s.ctx, &u))
	if admin {
		s.cfg.AdminUserIDs = append(s.cfg.AdminUserIDs, u.ID)
	}

	cookie, err := jwt.CreateToken(false, u.ID)
	require.NoError(t, err)
	return u, &cookie
}

func (s *testServer) do(req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) exists(t *testing.T, name string) bool {
	t.Helper()

	require.NotEmpty(t, name)
	_, err := os.Stat(filepath.Join(s.cfg.UploadRoot, filepath.FromSlash(name)))
	if os.IsNotExist(err) {
		return false
	}
	require.NoError(t, err)
	return true
}

func pngData(t *testing.T, size int) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, size, size))))
	return buf.Bytes()
}

func gifData(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 24, 24)), nil))
	return buf.Bytes()
}

func jpegData(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 640, 160)), nil))
	return buf.Bytes()
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files map[string]*storage.Upload) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	for field, upload := range files {
		part, err := writer.CreateFormFile(field, upload.Filename)
		require.NoError(t, err)
		_, err = part.Write(upload.Data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func formRequest(target string, fields map[string]string) *http.Request {
	values := url.Values{}
	for name, value := range fields {
		values.Set(name, value)
	}

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestRequiresLogin(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method string
		target string
	}{
		{http.MethodGet, "/api/category/fetch"},
		{http.MethodPost, "/api/server/create"},
		{http.MethodPost, "/api/channel/delete"},
		{http.MethodGet, "/api/user/fetch?userID=self"},
	}

	for _, tt := range tests {
		rec := s.do(httptest.NewRequest(tt.method, tt.target, nil), nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tt.target)
	}

	badCookie := &http.Cookie{Name: jwt.CookieName, Value: "not-a-token"}
	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/category/fetch", nil), badCookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	registration := `{"email":"alice@example.com","userName":"alice","password":"Secret123","confirmPassword":"Secret123"}`
	rec := s.do(httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(registration)), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	registered := decode[models.User](t, rec)
	assert.NotZero(t, registered.ID)
	assert.Equal(t, "alice", registered.DisplayName)

	rec = s.do(httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(registration)), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	weak := `{"email":"bob@example.com","userName":"bob","password":"weak","confirmPassword":"weak"}`
	rec = s.do(httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(weak)), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "password", decode[map[string]string](t, rec)["Password"])

	rec = s.do(httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"alice@example.com","password":"Wrong123"}`)), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"alice@example.com","password":"Secret123"}`)), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var jwtCookie *http.Cookie
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == jwt.CookieName {
			jwtCookie = cookie
		}
	}
	require.NotNil(t, jwtCookie)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/user/fetch?userID=self", nil), jwtCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	self := decode[models.User](t, rec)
	assert.Equal(t, registered.ID, self.ID)
	assert.Equal(t, "alice@example.com", self.Email)
}

func TestUserInfoHidesEmailOfOthers(t *testing.T) {
	s := newTestServer(t)

	_, cookie := s.user(t, "alice", false)
	bob, _ := s.user(t, "bob", false)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/user/fetch?userID="+formatID(bob.ID), nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	other := decode[models.User](t, rec)
	assert.Equal(t, "bob", other.UserName)
	assert.Empty(t, other.Email)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/user/fetch?userID=1", nil), cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategoryLifecycle(t *testing.T) {
	s := newTestServer(t)

	_, admin := s.user(t, "admin", true)
	_, regular := s.user(t, "regular", false)

	fields := map[string]string{"name": "Gaming", "description": "games"}
	icon := map[string]*storage.Upload{"icon": {Filename: "icon.png", Data: pngData(t, 32)}}

	rec := s.do(multipartRequest(t, "/api/category/create", fields, icon), regular)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(multipartRequest(t, "/api/category/create", fields, icon), admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	category := decode[models.Category](t, rec)
	assert.Equal(t, storage.CategoryIconPath(category.ID, "icon.png"), category.Icon)
	assert.True(t, s.exists(t, category.Icon))

	rec = s.do(httptest.NewRequest(http.MethodGet, "/cdn/"+category.Icon, nil), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	update := map[string]string{"categoryID": formatID(category.ID), "name": "Games"}
	newIcon := map[string]*storage.Upload{"icon": {Filename: "new.gif", Data: gifData(t)}}
	rec = s.do(multipartRequest(t, "/api/category/update", update, newIcon), admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[models.Category](t, rec)
	assert.Equal(t, "Games", updated.Name)
	assert.Equal(t, "games", updated.Description)
	assert.False(t, s.exists(t, category.Icon))
	assert.True(t, s.exists(t, updated.Icon))

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/category/fetch", nil), regular)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []models.Category{updated}, decode[[]models.Category](t, rec))

	rec = s.do(formRequest("/api/category/delete", map[string]string{"categoryID": formatID(category.ID)}), admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, s.exists(t, updated.Icon))

	rec = s.do(formRequest("/api/category/delete", map[string]string{"categoryID": formatID(category.ID)}), admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategoryClearIcon(t *testing.T) {
	s := newTestServer(t)

	_, admin := s.user(t, "admin", true)

	icon := map[string]*storage.Upload{"icon": {Filename: "icon.png", Data: pngData(t, 16)}}
	rec := s.do(multipartRequest(t, "/api/category/create", map[string]string{"name": "News"}, icon), admin)
	require.Equal(t, http.StatusOK, rec.Code)
	category := decode[models.Category](t, rec)

	rec = s.do(formRequest("/api/category/update", map[string]string{"categoryID": formatID(category.ID), "clearIcon": "true"}), admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[models.Category](t, rec).Icon)
	assert.False(t, s.exists(t, category.Icon))
}

func TestUploadValidation(t *testing.T) {
	s := newTestServer(t)

	_, admin := s.user(t, "admin", true)

	tests := []struct {
		name   string
		upload *storage.Upload
		code   string
	}{
		{"too large", &storage.Upload{Filename: "big.png", Data: pngData(t, 100)}, "icon_too_large"},
		{"bad extension", &storage.Upload{Filename: "icon.bmp", Data: pngData(t, 16)}, "bad_extension"},
		{"not an image", &storage.Upload{Filename: "icon.png", Data: []byte("text")}, "bad_image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := map[string]*storage.Upload{"icon": tt.upload}
			rec := s.do(multipartRequest(t, "/api/category/create", map[string]string{"name": "Art"}, files), admin)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, strings.TrimSpace(rec.Body.String()))
		})
	}

	rec := s.do(multipartRequest(t, "/api/category/create", map[string]string{"name": ""}, nil), admin)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "required", decode[map[string]string](t, rec)["Name"])

	_, err := os.Stat(filepath.Join(s.cfg.UploadRoot, "category"))
	assert.True(t, os.IsNotExist(err))
}

func TestServerAndChannelLifecycle(t *testing.T) {
	s := newTestServer(t)

	owner, ownerCookie := s.user(t, "owner", false)
	_, strangerCookie := s.user(t, "stranger", false)

	category := models.Category{Name: "General"}
	require.NoError(t, s.store.SaveCategory(s.ctx, &category, nil))

	rec := s.do(formRequest("/api/server/create", map[string]string{"categoryID": formatID(category.ID), "name": "Home"}), ownerCookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	server := decode[models.Server](t, rec)
	assert.Equal(t, owner.ID, server.OwnerID)

	channelFields := map[string]string{"serverID": formatID(server.ID), "name": "lobby", "topic": "hello"}
	channelFiles := map[string]*storage.Upload{
		"icon":   {Filename: "icon.png", Data: pngData(t, 32)},
		"banner": {Filename: "banner.png", Data: pngData(t, 400)},
	}

	rec = s.do(multipartRequest(t, "/api/channel/create", channelFields, channelFiles), strangerCookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(multipartRequest(t, "/api/channel/create", channelFields, channelFiles), ownerCookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	channel := decode[models.Channel](t, rec)
	assert.Equal(t, storage.ChannelIconPath(channel.ID, "icon.png"), channel.Icon)
	assert.Equal(t, storage.ChannelBannerPath(channel.ID, "banner.png"), channel.Banner)
	assert.True(t, s.exists(t, channel.Icon))
	assert.True(t, s.exists(t, channel.Banner))

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/channel/fetch?serverID="+formatID(server.ID), nil), strangerCookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/channel/fetch?serverID="+formatID(server.ID), nil), ownerCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []models.Channel{channel}, decode[[]models.Channel](t, rec))

	update := map[string]string{"channelID": formatID(channel.ID)}
	newBanner := map[string]*storage.Upload{"banner": {Filename: "banner2.jpg", Data: jpegData(t)}}

	rec = s.do(multipartRequest(t, "/api/channel/update", update, newBanner), strangerCookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(multipartRequest(t, "/api/channel/update", update, newBanner), ownerCookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[models.Channel](t, rec)
	assert.Equal(t, channel.Icon, updated.Icon)
	assert.Equal(t, "hello", updated.Topic)
	assert.True(t, s.exists(t, channel.Icon))
	assert.False(t, s.exists(t, channel.Banner))
	assert.True(t, s.exists(t, updated.Banner))

	rec = s.do(formRequest("/api/server/update", map[string]string{"serverID": formatID(server.ID), "name": "Renamed"}), strangerCookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(formRequest("/api/server/update", map[string]string{"serverID": formatID(server.ID), "name": "Renamed"}), ownerCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renamed", decode[models.Server](t, rec).Name)

	rec = s.do(formRequest("/api/server/delete", map[string]string{"serverID": formatID(server.ID)}), strangerCookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(formRequest("/api/server/delete", map[string]string{"serverID": formatID(server.ID)}), ownerCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, s.exists(t, updated.Icon))
	assert.False(t, s.exists(t, updated.Banner))

	_, err := s.store.GetChannel(s.ctx, channel.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteChannel(t *testing.T) {
	s := newTestServer(t)

	owner, ownerCookie := s.user(t, "owner", false)
	_, strangerCookie := s.user(t, "stranger", false)

	category := models.Category{Name: "General"}
	require.NoError(t, s.store.SaveCategory(s.ctx, &category, nil))
	server := models.Server{OwnerID: owner.ID, CategoryID: category.ID, Name: "Home"}
	require.NoError(t, s.store.SaveServer(s.ctx, &server))

	channel := models.Channel{OwnerID: owner.ID, ServerID: server.ID, Name: "lobby"}
	icon := &storage.Upload{Filename: "icon.png", Data: pngData(t, 32)}
	require.NoError(t, s.store.SaveChannel(s.ctx, &channel, icon, nil))

	target := map[string]string{"channelID": formatID(channel.ID)}

	rec := s.do(formRequest("/api/channel/delete", target), strangerCookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.True(t, s.exists(t, channel.Icon))

	rec = s.do(formRequest("/api/channel/delete", target), ownerCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, s.exists(t, channel.Icon))

	rec = s.do(formRequest("/api/channel/delete", target), ownerCookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMembers(t *testing.T) {
	s := newTestServer(t)

	owner, ownerCookie := s.user(t, "owner", false)
	guest, guestCookie := s.user(t, "guest", false)

	category := models.Category{Name: "General"}
	require.NoError(t, s.store.SaveCategory(s.ctx, &category, nil))
	server := models.Server{OwnerID: owner.ID, CategoryID: category.ID, Name: "Home"}
	require.NoError(t, s.store.SaveServer(s.ctx, &server))

	target := map[string]string{"serverID": formatID(server.ID)}
	fetch := "/api/members/fetch?serverID=" + formatID(server.ID)

	rec := s.do(httptest.NewRequest(http.MethodGet, fetch, nil), guestCookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(formRequest("/api/members/join", target), guestCookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, fetch, nil), guestCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	members := decode[[]models.Member](t, rec)
	require.Len(t, members, 2)
	assert.ElementsMatch(t, []int64{owner.ID, guest.ID}, []int64{members[0].UserID, members[1].UserID})

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/server/fetch", nil), guestCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []models.Server{server}, decode[[]models.Server](t, rec))

	rec = s.do(formRequest("/api/members/leave", target), ownerCookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(formRequest("/api/members/leave", target), guestCookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, fetch, nil), guestCookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteUserRemovesOwnedFiles(t *testing.T) {
	s := newTestServer(t)

	owner, ownerCookie := s.user(t, "owner", false)

	category := models.Category{Name: "General"}
	require.NoError(t, s.store.SaveCategory(s.ctx, &category, nil))
	server := models.Server{OwnerID: owner.ID, CategoryID: category.ID, Name: "Home"}
	require.NoError(t, s.store.SaveServer(s.ctx, &server))

	channel := models.Channel{OwnerID: owner.ID, ServerID: server.ID, Name: "lobby"}
	banner := &storage.Upload{Filename: "banner.png", Data: pngData(t, 300)}
	require.NoError(t, s.store.SaveChannel(s.ctx, &channel, nil, banner))

	rec := s.do(httptest.NewRequest(http.MethodPost, "/api/user/delete", nil), ownerCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, s.exists(t, channel.Banner))

	// the token outlives the account
	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/user/fetch?userID=self", nil), ownerCookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
