package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/icebreakerhq/icebreaker/config"
	apiError "github.com/icebreakerhq/icebreaker/errors"
	"github.com/icebreakerhq/icebreaker/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	return &config.Config{JWTSecret: "test-secret"}
}

func adultBirthdate() time.Time {
	return time.Date(1995, 6, 15, 0, 0, 0, 0, time.UTC)
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestSignupUser(t *testing.T) {
	t.Parallel()

	repo := newFakeAuthRepo()
	svc := NewAuthService(repo, testConfig(), zap.NewNop())

	created, err := svc.SignupUser(&models.User{
		Fullname:  "Ada Lovelace",
		Handle:    "ada",
		Email:     "ada@example.com",
		Password:  "s3cretpw",
		Birthdate: adultBirthdate(),
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.True(t, created.IsEmailActive)
	require.Empty(t, created.Password)
	require.NoError(t, created.VerifyPassword("s3cretpw"))
}

func TestSignupUserRejections(t *testing.T) {
	t.Parallel()

	existing := &models.User{
		Fullname: "Ada Lovelace",
		Handle:   "ada",
		Email:    "ada@example.com",
	}

	tests := []struct {
		name        string
		user        models.User
		wantMessage string
		wantStatus  int
	}{
		{
			name: "duplicate email",
			user: models.User{
				Fullname:  "Second Ada",
				Handle:    "ada2",
				Email:     "ada@example.com",
				Password:  "s3cretpw",
				Birthdate: adultBirthdate(),
			},
			wantMessage: "user with this email already exists",
			wantStatus:  http.StatusConflict,
		},
		{
			name: "duplicate handle",
			user: models.User{
				Fullname:  "Second Ada",
				Handle:    "ada",
				Email:     "ada2@example.com",
				Password:  "s3cretpw",
				Birthdate: adultBirthdate(),
			},
			wantMessage: "this handle is already taken",
			wantStatus:  http.StatusConflict,
		},
		{
			name: "overlong password",
			user: models.User{
				Fullname:  "Grace Hopper",
				Handle:    "grace",
				Email:     "grace@example.com",
				Password:  "way-too-long-to-ever-type",
				Birthdate: adultBirthdate(),
			},
			wantMessage: "password cant be more than 15 characters",
			wantStatus:  http.StatusBadRequest,
		},
		{
			name: "under eighteen",
			user: models.User{
				Fullname:  "Kid Next Door",
				Handle:    "kiddo",
				Email:     "kid@example.com",
				Password:  "s3cretpw",
				Birthdate: time.Now().AddDate(-17, 0, 0),
			},
			wantMessage: "you must be 18 or older to join",
			wantStatus:  http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := newFakeAuthRepo(&models.User{
				Fullname: existing.Fullname,
				Handle:   existing.Handle,
				Email:    existing.Email,
			})
			svc := NewAuthService(repo, testConfig(), zap.NewNop())

			user := tt.user
			_, err := svc.SignupUser(&user)
			require.Error(t, err)

			apiErr, ok := err.(*apiError.Error)
			require.True(t, ok)
			require.Equal(t, tt.wantMessage, apiErr.Message)
			require.Equal(t, tt.wantStatus, apiErr.Status)
		})
	}
}

func TestLoginUser(t *testing.T) {
	t.Parallel()

	member := &models.User{
		Fullname:       "Ada Lovelace",
		Handle:         "ada",
		Email:          "ada@example.com",
		HashedPassword: hashFor(t, "s3cretpw"),
		IsEmailActive:  true,
		Birthdate:      adultBirthdate(),
	}
	repo := newFakeAuthRepo(member)
	svc := NewAuthService(repo, testConfig(), zap.NewNop())

	resp, apiErr := svc.LoginUser(&models.LoginRequest{Email: "ada@example.com", Password: "s3cretpw"})
	require.Nil(t, apiErr)
	require.Equal(t, member.ID, resp.ID)
	require.Equal(t, "ada", resp.Handle)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
}

func TestLoginUserFailures(t *testing.T) {
	t.Parallel()

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()
		repo := newFakeAuthRepo(&models.User{
			Email:          "ada@example.com",
			Handle:         "ada",
			HashedPassword: hashFor(t, "s3cretpw"),
			IsEmailActive:  true,
		})
		svc := NewAuthService(repo, testConfig(), zap.NewNop())

		_, apiErr := svc.LoginUser(&models.LoginRequest{Email: "ada@example.com", Password: "nope"})
		require.Equal(t, apiError.ErrInvalidPassword, apiErr)
	})

	t.Run("unknown email", func(t *testing.T) {
		t.Parallel()
		svc := NewAuthService(newFakeAuthRepo(), testConfig(), zap.NewNop())

		_, apiErr := svc.LoginUser(&models.LoginRequest{Email: "ghost@example.com", Password: "s3cretpw"})
		require.Equal(t, apiError.ErrInvalidPassword, apiErr)
	})

	t.Run("inactive account", func(t *testing.T) {
		t.Parallel()
		repo := newFakeAuthRepo(&models.User{
			Email:          "ada@example.com",
			Handle:         "ada",
			HashedPassword: hashFor(t, "s3cretpw"),
		})
		svc := NewAuthService(repo, testConfig(), zap.NewNop())

		_, apiErr := svc.LoginUser(&models.LoginRequest{Email: "ada@example.com", Password: "s3cretpw"})
		require.Equal(t, apiError.InActiveUserError, apiErr)
	})
}

func TestGoogleLoginUser(t *testing.T) {
	t.Parallel()

	t.Run("existing member signs in", func(t *testing.T) {
		t.Parallel()
		member := &models.User{Email: "ada@example.com", Handle: "ada", Fullname: "Ada Lovelace"}
		repo := newFakeAuthRepo(member)
		svc := NewAuthService(repo, testConfig(), zap.NewNop())

		resp, apiErr := svc.GoogleLoginUser(&models.GoogleAuthResponse{Email: "ada@example.com", Name: "Ada Lovelace"})
		require.Nil(t, apiErr)
		require.Equal(t, member.ID, resp.ID)
		require.NotEmpty(t, resp.AccessToken)
		require.Len(t, repo.users, 1)
	})

	t.Run("first contact creates the account", func(t *testing.T) {
		t.Parallel()
		repo := newFakeAuthRepo()
		svc := NewAuthService(repo, testConfig(), zap.NewNop())

		resp, apiErr := svc.GoogleLoginUser(&models.GoogleAuthResponse{
			Email:   "Grace.Hopper@example.com",
			Name:    "Grace Hopper",
			Picture: "https://example.com/grace.png",
		})
		require.Nil(t, apiErr)
		require.Equal(t, "grace.hopper", resp.Handle)
		require.NotEmpty(t, resp.AccessToken)

		created, err := repo.FindUserByEmail("Grace.Hopper@example.com")
		require.NoError(t, err)
		require.True(t, created.IsSocial)
		require.True(t, created.IsEmailActive)
		require.Equal(t, "https://example.com/grace.png", created.AvatarURL)
	})

	t.Run("taken handle gets a suffix", func(t *testing.T) {
		t.Parallel()
		repo := newFakeAuthRepo(&models.User{Email: "other@example.com", Handle: "grace"})
		svc := NewAuthService(repo, testConfig(), zap.NewNop())

		resp, apiErr := svc.GoogleLoginUser(&models.GoogleAuthResponse{Email: "grace@gmail.com", Name: "Grace Hopper"})
		require.Nil(t, apiErr)
		require.NotEqual(t, "grace", resp.Handle)
		require.Contains(t, resp.Handle, "grace-")
	})
}

func TestUpdateUserLocation(t *testing.T) {
	t.Parallel()

	member := &models.User{Email: "ada@example.com", Handle: "ada"}
	repo := newFakeAuthRepo(member)
	svc := NewAuthService(repo, testConfig(), zap.NewNop())

	err := svc.UpdateUserLocation(member.ID, &models.UpdateLocationRequest{Latitude: 91, Longitude: 0})
	require.Error(t, err)

	err = svc.UpdateUserLocation(member.ID, &models.UpdateLocationRequest{Latitude: 52.52, Longitude: 13.405})
	require.NoError(t, err)
	require.Equal(t, 52.52, member.Latitude)
	require.Equal(t, 13.405, member.Longitude)
}
