package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/icebreakerhq/icebreaker/config"
	"github.com/icebreakerhq/icebreaker/db"
	apiError "github.com/icebreakerhq/icebreaker/errors"
	"github.com/icebreakerhq/icebreaker/models"
	"github.com/icebreakerhq/icebreaker/services/jwt"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthService interface
type AuthService interface {
	SignupUser(request *models.User) (*models.User, error)
	LoginUser(loginRequest *models.LoginRequest) (*models.LoginResponse, *apiError.Error)
	GoogleLoginUser(authResponse *models.GoogleAuthResponse) (*models.LoginResponse, *apiError.Error)
	GetUserProfile(userID uint) (*models.User, error)
	EditUserProfile(userID uint, userDetails *models.EditProfileRequest) error
	UpdateUserLocation(userID uint, req *models.UpdateLocationRequest) error
	SetPresence(userID uint, online bool)
}

// authService struct
type authService struct {
	Config   *config.Config
	authRepo db.AuthRepository
	log      *zap.Logger
}

// NewAuthService instantiate an authService
func NewAuthService(authRepo db.AuthRepository, conf *config.Config, log *zap.Logger) AuthService {
	return &authService{
		Config:   conf,
		authRepo: authRepo,
		log:      log,
	}
}

func (a *authService) SignupUser(user *models.User) (*models.User, error) {
	if user == nil {
		return nil, errors.New("user is nil")
	}
	if user.Email == "" {
		return nil, errors.New("email is empty")
	}

	if errs := models.ValidateStruct(user); len(errs) > 0 {
		return nil, apiError.New(fmt.Sprintf("%v", errs), http.StatusBadRequest)
	}
	if err := models.ValidatePassword(user.Password); err != nil {
		return nil, apiError.New(err.Error(), http.StatusBadRequest)
	}
	if !user.Birthdate.IsZero() && user.Age() < 18 {
		return nil, apiError.New("you must be 18 or older to join", http.StatusBadRequest)
	}

	if err := a.authRepo.IsEmailExist(user.Email); err != nil {
		a.log.Warn("signup rejected", zap.String("email", user.Email), zap.Error(err))
		return nil, apiError.GetUniqueContraintError(err)
	}
	if err := a.authRepo.IsHandleExist(user.Handle); err != nil {
		a.log.Warn("signup rejected", zap.String("handle", user.Handle), zap.Error(err))
		return nil, apiError.GetUniqueContraintError(err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		a.log.Error("hashing password failed", zap.Error(err))
		return nil, apiError.ErrInternalServerError
	}
	user.HashedPassword = string(hashedPassword)
	user.Password = "" // Clear the plain password
	user.IsEmailActive = true

	user, err = a.authRepo.CreateUser(user)
	if err != nil {
		a.log.Error("creating user failed", zap.Error(err))
		return nil, apiError.ErrInternalServerError
	}

	createdUser, err := a.authRepo.FindUserByEmail(user.Email)
	if err != nil {
		a.log.Error("fetching created user failed", zap.Error(err))
		return nil, apiError.ErrInternalServerError
	}

	return createdUser, nil
}

// LoginUser logs in a user and returns the login response
func (a *authService) LoginUser(loginRequest *models.LoginRequest) (*models.LoginResponse, *apiError.Error) {
	foundUser, err := a.authRepo.FindUserByEmail(loginRequest.Email)
	if err != nil {
		a.log.Info("login failed", zap.String("email", loginRequest.Email), zap.Error(err))
		return nil, apiError.ErrInvalidPassword
	}

	if err := foundUser.VerifyPassword(loginRequest.Password); err != nil {
		a.log.Info("invalid password", zap.String("email", foundUser.Email))
		return nil, apiError.ErrInvalidPassword
	}

	if !foundUser.IsEmailActive {
		return nil, apiError.InActiveUserError
	}

	accessToken, refreshToken, err := jwt.GenerateTokenPair(foundUser.Email, a.Config.JWTSecret, foundUser.ID)
	if err != nil {
		a.log.Error("generating token pair failed", zap.String("email", foundUser.Email), zap.Error(err))
		return nil, apiError.ErrInternalServerError
	}

	return &models.LoginResponse{
		UserResponse: models.NewUserResponse(foundUser),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// GoogleLoginUser signs the member in from a verified Google profile,
// creating the account on first contact.
func (a *authService) GoogleLoginUser(authResponse *models.GoogleAuthResponse) (*models.LoginResponse, *apiError.Error) {
	foundUser, err := a.authRepo.FindUserByEmail(authResponse.Email)
	if err != nil {
		return a.createGoogleUser(authResponse)
	}

	accessToken, refreshToken, err := jwt.GenerateTokenPair(foundUser.Email, a.Config.JWTSecret, foundUser.ID)
	if err != nil {
		a.log.Error("generating token pair failed", zap.String("email", foundUser.Email), zap.Error(err))
		return nil, apiError.ErrInternalServerError
	}

	return &models.LoginResponse{
		UserResponse: models.NewUserResponse(foundUser),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (a *authService) createGoogleUser(authResponse *models.GoogleAuthResponse) (*models.LoginResponse, *apiError.Error) {
	handle := strings.ToLower(strings.Split(authResponse.Email, "@")[0])
	if len(handle) < 2 {
		handle = handle + "user"
	}
	if err := a.authRepo.IsHandleExist(handle); err != nil {
		suffix, randErr := GenerateRandomString()
		if randErr != nil {
			return nil, apiError.ErrInternalServerError
		}
		handle = fmt.Sprintf("%s-%s", handle, strings.ToLower(suffix))
	}

	fullname := authResponse.Name
	if fullname == "" {
		fullname = handle
	}

	newUser := &models.User{
		Email:         authResponse.Email,
		Fullname:      fullname,
		Handle:        handle,
		AvatarURL:     authResponse.Picture,
		IsSocial:      true,
		IsEmailActive: true,
	}

	created, err := a.authRepo.CreateUser(newUser)
	if err != nil {
		a.log.Error("creating google user failed", zap.String("email", authResponse.Email), zap.Error(err))
		return nil, apiError.New("unable to create user", http.StatusInternalServerError)
	}

	accessToken, refreshToken, err := jwt.GenerateTokenPair(created.Email, a.Config.JWTSecret, created.ID)
	if err != nil {
		a.log.Error("generating token pair failed", zap.String("email", created.Email), zap.Error(err))
		return nil, apiError.ErrInternalServerError
	}

	return &models.LoginResponse{
		UserResponse: models.NewUserResponse(created),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func GenerateRandomString() (string, error) {
	n := 5
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := fmt.Sprintf("%X", b)
	return s, nil
}

func (a *authService) GetUserProfile(userID uint) (*models.User, error) {
	user, err := a.authRepo.GetUserProfile(userID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (a *authService) EditUserProfile(userID uint, userDetails *models.EditProfileRequest) error {
	if errs := models.ValidateStruct(userDetails); len(errs) > 0 {
		return apiError.New(fmt.Sprintf("%v", errs), http.StatusBadRequest)
	}
	return a.authRepo.EditUserProfile(userID, userDetails)
}

func (a *authService) UpdateUserLocation(userID uint, req *models.UpdateLocationRequest) error {
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		return apiError.New("coordinates out of range", http.StatusBadRequest)
	}
	return a.authRepo.UpdateUserLocation(userID, req.Latitude, req.Longitude)
}

// SetPresence mirrors the hub's view of the member into the users
// table so offline devices see it too.
func (a *authService) SetPresence(userID uint, online bool) {
	user := &models.User{Model: models.Model{ID: userID}, Online: online}

	var err error
	if online {
		err = a.authRepo.UpdateUserOnlineStatus(user)
	} else {
		err = a.authRepo.SetUserOffline(user)
	}
	if err != nil {
		a.log.Warn("updating presence failed", zap.Uint("user_id", userID), zap.Bool("online", online), zap.Error(err))
	}
}
