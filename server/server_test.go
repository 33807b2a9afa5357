package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/icebreakerhq/icebreaker/config"
	"github.com/icebreakerhq/icebreaker/db"
	apiError "github.com/icebreakerhq/icebreaker/errors"
	"github.com/icebreakerhq/icebreaker/models"
	"github.com/icebreakerhq/icebreaker/services"
	"github.com/icebreakerhq/icebreaker/services/jwt"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	os.Setenv("GIN_MODE", "test")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeAuthRepository struct {
	db.AuthRepository
	users       map[uint]*models.User
	blacklisted map[string]bool
	interests   []models.Interest
}

func newFakeAuthRepository(users ...*models.User) *fakeAuthRepository {
	r := &fakeAuthRepository{
		users:       make(map[uint]*models.User),
		blacklisted: make(map[string]bool),
	}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeAuthRepository) FindUserByID(id uint) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeAuthRepository) IsTokenInBlacklist(token string) bool {
	return r.blacklisted[token]
}

func (r *fakeAuthRepository) ListInterests() ([]models.Interest, error) {
	return r.interests, nil
}

type stubMailer struct {
	welcomes []string
}

func (m *stubMailer) SendWelcomeMessage(recipient, subject string) (string, error) {
	m.welcomes = append(m.welcomes, recipient)
	return "queued", nil
}

func (m *stubMailer) SendResetPassword(recipient, resetLink string) (string, error) {
	return "queued", nil
}

type stubAuthService struct {
	services.AuthService
	created *models.User
	profile *models.User
}

func (s *stubAuthService) SignupUser(user *models.User) (*models.User, error) {
	return s.created, nil
}

func (s *stubAuthService) GetUserProfile(userID uint) (*models.User, error) {
	return s.profile, nil
}

type stubInteractionService struct {
	services.InteractionService
	connection *models.ConnectionResponse
	apiErr     *apiError.Error
}

func (s *stubInteractionService) SendInteraction(actorID uint, counterpartHandle string, kind models.InteractionKind, message string) (*models.ConnectionResponse, *apiError.Error) {
	if s.apiErr != nil {
		return nil, s.apiErr
	}
	return s.connection, nil
}

type testServer struct {
	server *Server
	router *gin.Engine
	repo   *fakeAuthRepository
	mailer *stubMailer
}

func newTestServer(t *testing.T, users ...*models.User) *testServer {
	t.Helper()

	repo := newFakeAuthRepository(users...)
	mailer := &stubMailer{}
	s := &Server{
		Config:         &config.Config{JWTSecret: "test-secret"},
		Mail:           mailer,
		Logger:         zap.NewNop(),
		AuthRepository: repo,
	}
	return &testServer{server: s, router: s.setupRouter(), repo: repo, mailer: mailer}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	var envelope map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	}
	return w, envelope
}

func activeMember() *models.User {
	return &models.User{
		Model:         models.Model{ID: 1},
		Fullname:      "Ada Lovelace",
		Handle:        "ada",
		Email:         "ada@example.com",
		IsEmailActive: true,
	}
}

func tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	access, _, err := jwt.GenerateTokenPair(user.Email, "test-secret", user.ID)
	require.NoError(t, err)
	return access
}

func TestSignupRejectsBadBodies(t *testing.T) {
	ts := newTestServer(t)

	w, envelope := ts.do(t, http.MethodPost, "/api/v1/auth/signup", map[string]string{}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, envelope["errors"])

	w, envelope = ts.do(t, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"fullname":  "Ada Lovelace",
		"handle":    "ada",
		"email":     "ada@example.com",
		"password":  "s3cretpw",
		"birthdate": "15/06/1995",
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	errs, ok := envelope["errors"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "birthdate must look like 1999-01-31", errs["message"])
}

func TestSignupCreatesMember(t *testing.T) {
	ts := newTestServer(t)
	ts.server.AuthService = &stubAuthService{created: activeMember()}

	w, envelope := ts.do(t, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"fullname":  "Ada Lovelace",
		"handle":    "ada",
		"email":     "ada@example.com",
		"password":  "s3cretpw",
		"birthdate": "1995-06-15",
	}, "")

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "signup successful", envelope["message"])

	data, ok := envelope["data"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "ada", data["handle"])

	require.Equal(t, []string{"ada@example.com"}, ts.mailer.welcomes)
}

func TestAuthorize(t *testing.T) {
	t.Run("no token", func(t *testing.T) {
		ts := newTestServer(t)

		w, _ := ts.do(t, http.MethodGet, "/api/v1/me", nil, "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		ts := newTestServer(t)

		w, _ := ts.do(t, http.MethodGet, "/api/v1/me", nil, "not-a-real-token")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("blacklisted token", func(t *testing.T) {
		member := activeMember()
		ts := newTestServer(t, member)
		token := tokenFor(t, member)
		ts.repo.blacklisted[token] = true

		w, envelope := ts.do(t, http.MethodGet, "/api/v1/me", nil, token)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Equal(t, "access token is blacklisted", envelope["message"])
	})

	t.Run("token for a deleted account", func(t *testing.T) {
		ts := newTestServer(t)
		ghost := activeMember()

		w, _ := ts.do(t, http.MethodGet, "/api/v1/me", nil, tokenFor(t, ghost))
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("inactive account", func(t *testing.T) {
		member := activeMember()
		member.IsEmailActive = false
		ts := newTestServer(t, member)

		w, envelope := ts.do(t, http.MethodGet, "/api/v1/me", nil, tokenFor(t, member))
		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Equal(t, "inactive user", envelope["message"])
	})
}

func TestShowProfile(t *testing.T) {
	member := activeMember()
	ts := newTestServer(t, member)
	ts.server.AuthService = &stubAuthService{profile: member}

	w, envelope := ts.do(t, http.MethodGet, "/api/v1/me", nil, tokenFor(t, member))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "profile retrieved", envelope["message"])

	data, ok := envelope["data"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "ada@example.com", data["email"])
}

// The websocket dial cannot set headers, so the token may ride the
// query string instead.
func TestAuthorizeAcceptsQueryToken(t *testing.T) {
	member := activeMember()
	ts := newTestServer(t, member)
	ts.server.AuthService = &stubAuthService{profile: member}

	w, _ := ts.do(t, http.MethodGet, "/api/v1/me?token="+tokenFor(t, member), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestWaveRecorded(t *testing.T) {
	member := activeMember()
	ts := newTestServer(t, member)
	ts.server.InteractionService = &stubInteractionService{connection: &models.ConnectionResponse{
		Status:      models.ConnectionWaveSent,
		CanInteract: true,
	}}

	w, envelope := ts.do(t, http.MethodPost, "/api/v1/interactions/grace/wave", nil, tokenFor(t, member))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "wave recorded", envelope["message"])

	data, ok := envelope["data"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, string(models.ConnectionWaveSent), data["status"])
	require.Equal(t, true, data["can_interact"])
}

func TestWaveAgainstFrozenPair(t *testing.T) {
	member := activeMember()
	ts := newTestServer(t, member)
	ts.server.InteractionService = &stubInteractionService{
		apiErr: apiError.New("you cannot interact with this person right now", http.StatusForbidden),
	}

	w, envelope := ts.do(t, http.MethodPost, "/api/v1/interactions/grace/wave", nil, tokenFor(t, member))
	require.Equal(t, http.StatusForbidden, w.Code)

	errs, ok := envelope["errors"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "you cannot interact with this person right now", errs["message"])
}

func TestListInterestsIsPublic(t *testing.T) {
	ts := newTestServer(t)
	ts.repo.interests = []models.Interest{{Name: "jazz"}, {Name: "sailing"}}

	w, envelope := ts.do(t, http.MethodGet, "/api/v1/interests", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	data, ok := envelope["data"].([]interface{})
	require.True(t, ok)
	require.Len(t, data, 2)
}
