package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	jwtgo "github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	errs "github.com/icebreakerhq/icebreaker/errors"
	"github.com/icebreakerhq/icebreaker/models"
	"github.com/icebreakerhq/icebreaker/server/response"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

func (s *Server) handleSignup() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SignupRequest
		if err := decode(c, &req); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		user := models.User{
			Fullname: req.Fullname,
			Handle:   req.Handle,
			Email:    req.Email,
			Password: req.Password,
			Gender:   req.Gender,
			Bio:      req.Bio,
		}
		if req.Birthdate != "" {
			birthdate, err := time.Parse("2006-01-02", req.Birthdate)
			if err != nil {
				response.JSON(c, "", http.StatusBadRequest, nil, errs.New("birthdate must look like 1999-01-31", http.StatusBadRequest))
				return
			}
			user.Birthdate = birthdate
		}

		createdUser, err := s.AuthService.SignupUser(&user)
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		subject := "Welcome to Icebreaker!"
		if _, err := s.Mail.SendWelcomeMessage(createdUser.Email, subject); err != nil {
			s.Logger.Warn("sending welcome email failed", zap.String("email", createdUser.Email), zap.Error(err))
		}

		response.JSON(c, "signup successful", http.StatusCreated, models.NewUserResponse(createdUser), nil)
	}
}

func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var loginRequest models.LoginRequest
		if err := decode(c, &loginRequest); err != nil {
			response.JSON(c, "", errs.ErrBadRequest.Status, nil, err)
			return
		}
		userResponse, err := s.AuthService.LoginUser(&loginRequest)
		if err != nil {
			response.JSON(c, "", err.Status, nil, err)
			return
		}
		response.JSON(c, "login successful", http.StatusOK, userResponse, nil)
	}
}

func generateJWTState(secret string) (string, error) {
	claims := jwtgo.MapClaims{
		"exp":   time.Now().Add(10 * time.Minute).Unix(),
		"iat":   time.Now().Unix(),
		"state": uuid.New().String(),
	}

	token := jwtgo.NewWithClaims(jwtgo.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signedToken, nil
}

func verifyState(state string, secret string) bool {
	token, err := jwtgo.Parse(state, func(token *jwtgo.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	return err == nil && token.Valid
}

func (s *Server) HandleGoogleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		conf := &oauth2.Config{
			ClientID:     s.Config.GoogleClientID,
			ClientSecret: s.Config.GoogleClientSecret,
			RedirectURL:  s.Config.GoogleRedirectURL,
			Endpoint:     google.Endpoint,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
		}

		state, err := generateJWTState(s.Config.JWTSecret)
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.New("failed to generate state", http.StatusInternalServerError))
			return
		}

		authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
		c.Redirect(http.StatusTemporaryRedirect, authURL)
	}
}

func (s *Server) HandleGoogleCallback() gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Query("code")
		state := c.Query("state")

		if !verifyState(state, s.Config.JWTSecret) {
			response.JSON(c, "", http.StatusForbidden, nil, errs.New("invalid or expired state", http.StatusForbidden))
			return
		}

		tokenResponse, err := exchangeCodeForToken(code, s.Config.GoogleClientID, s.Config.GoogleClientSecret, s.Config.GoogleRedirectURL)
		if err != nil {
			s.Logger.Error("token exchange failed", zap.Error(err))
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.New("token exchange failed", http.StatusInternalServerError))
			return
		}

		accessToken, ok := tokenResponse["access_token"].(string)
		if !ok || accessToken == "" {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.New("access token missing in response", http.StatusInternalServerError))
			return
		}

		userData, err := getUserDataFromGoogle(accessToken)
		if err != nil {
			s.Logger.Error("fetching google profile failed", zap.Error(err))
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.New("failed to fetch user information", http.StatusInternalServerError))
			return
		}
		if userData.Email == "" {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("invalid user data: email missing", http.StatusBadRequest))
			return
		}

		loginResponse, apiErr := s.AuthService.GoogleLoginUser(userData)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "login successful", http.StatusOK, loginResponse, nil)
	}
}

func exchangeCodeForToken(code, clientID, clientSecret, redirectURI string) (map[string]interface{}, error) {
	tokenURL := "https://oauth2.googleapis.com/token"
	data := url.Values{
		"code":          {code},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
		"redirect_uri":  {redirectURI},
		"grant_type":    {"authorization_code"},
	}

	resp, err := http.PostForm(tokenURL, data)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var tokenResponse map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		return nil, err
	}
	return tokenResponse, nil
}

func getUserDataFromGoogle(accessToken string) (*models.GoogleAuthResponse, error) {
	userInfoURL := "https://www.googleapis.com/oauth2/v2/userinfo"
	req, err := http.NewRequest(http.MethodGet, userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request to fetch user data: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user data from Google: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code from Google API: %d", resp.StatusCode)
	}

	var userData models.GoogleAuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&userData); err != nil {
		return nil, err
	}
	return &userData, nil
}

// GetValuesFromContext returns the access token and user the Authorize
// middleware stored on the Context.
func GetValuesFromContext(c *gin.Context) (string, *models.User, *errs.Error) {
	var tokenI, userI interface{}
	var tokenExists, userExists bool

	if tokenI, tokenExists = c.Get("access_token"); !tokenExists {
		return "", nil, errs.New("forbidden", http.StatusForbidden)
	}
	if userI, userExists = c.Get("user"); !userExists {
		return "", nil, errs.New("forbidden", http.StatusForbidden)
	}
	token, ok := tokenI.(string)
	if !ok {
		return "", nil, errs.New("internal server error", http.StatusInternalServerError)
	}
	user, ok := userI.(*models.User)
	if !ok {
		return "", nil, errs.New("internal server error", http.StatusInternalServerError)
	}
	return token, user, nil
}

// Logout invalidates the access token and adds it to the blacklist
func (s *Server) handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken, user, apiErr := GetValuesFromContext(c)
		if apiErr != nil {
			respondAndAbort(c, "", apiErr.Status, nil, apiErr)
			return
		}

		blackListEntry := &models.Blacklist{
			Email: user.Email,
			Token: accessToken,
		}
		if err := s.AuthRepository.AddToBlackList(blackListEntry); err != nil {
			s.Logger.Error("adding token to blacklist failed", zap.Error(err))
			respondAndAbort(c, "logout failed", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}

		if err := s.AuthRepository.SetUserOffline(user); err != nil {
			s.Logger.Warn("setting user offline failed", zap.Uint("user_id", user.ID), zap.Error(err))
		}

		response.JSON(c, "logout successful", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleGetOnlineUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := s.AuthRepository.GetOnlineUserCount()
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}
		response.JSON(c, "online user count retrieved", http.StatusOK, gin.H{
			"db_online_count":  count,
			"hub_online_count": s.Hub.OnlineCount(),
		}, nil)
	}
}
