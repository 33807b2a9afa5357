package models

import (
	"errors"
	"fmt"
	"time"

	goval "github.com/go-passwd/validator"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/leebenson/conform"
	"golang.org/x/crypto/bcrypt"
)

// User represents a member of the app
type User struct {
	Model
	Fullname       string         `json:"fullname" binding:"required,min=2" conform:"trim"`
	Handle         string         `json:"handle" gorm:"unique;not null" binding:"required,min=2" conform:"trim,lower"`
	Email          string         `json:"email" gorm:"unique;not null" binding:"required,email" conform:"trim,lower"`
	Password       string         `json:"password,omitempty" gorm:"-" validate:"omitempty,min=6"`
	HashedPassword string         `json:"-"`
	IsEmailActive  bool           `json:"-"`
	IsSocial       bool           `json:"-"`
	AccessToken    string         `json:"-"`
	Bio            string         `json:"bio" conform:"trim"`
	Gender         string         `json:"gender"`
	Birthdate      time.Time      `json:"birthdate"`
	Latitude       float64        `json:"latitude"`
	Longitude      float64        `json:"longitude"`
	Online         bool           `json:"online"`
	LastSeen       time.Time      `json:"last_seen"`
	AvatarURL      string         `json:"avatar_url,omitempty"`
	ThumbNailURL   string         `json:"thumbnail_url,omitempty"`
	Interests      []Interest     `gorm:"many2many:user_interests;" json:"interests"`
	Photos         []ProfilePhoto `gorm:"foreignKey:UserID" json:"photos"`
	Notifications  []Notification `gorm:"foreignKey:UserID" json:"-"`
}

// Age is derived from Birthdate, never stored.
func (u *User) Age() int {
	if u.Birthdate.IsZero() {
		return 0
	}
	now := time.Now()
	age := now.Year() - u.Birthdate.Year()
	if now.YearDay() < u.Birthdate.YearDay() {
		age--
	}
	return age
}

func ValidatePassword(password string) error {
	passwordValidator := goval.New(goval.MinLength(6, errors.New("password cant be less than 6 characters")),
		goval.MaxLength(15, errors.New("password cant be more than 15 characters")))
	err := passwordValidator.Validate(password)
	return err
}

// ValidateStruct trims tagged fields in place, then runs the
// validate tags, returning one translated error per failure.
func ValidateStruct(req interface{}) []error {
	validate := validator.New()
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = entranslations.RegisterDefaultTranslations(validate, trans)
	if err := validateWhiteSpaces(req); err != nil {
		return []error{err}
	}
	err := validate.Struct(req)
	return translateError(err, trans)
}

func validateWhiteSpaces(data interface{}) error {
	return conform.Strings(data)
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	validatorErrs := err.(validator.ValidationErrors)
	for _, e := range validatorErrs {
		translatedErr := fmt.Errorf(e.Translate(trans) + "; ")
		errs = append(errs, translatedErr)
	}
	return errs
}

type UserResponse struct {
	ID           uint   `json:"id"`
	Fullname     string `json:"fullname"`
	Handle       string `json:"handle"`
	Email        string `json:"email"`
	Bio          string `json:"bio"`
	Age          int    `json:"age"`
	Gender       string `json:"gender"`
	Online       bool   `json:"online"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	ThumbNailURL string `json:"thumbnail_url,omitempty"`
}

// NewUserResponse strips a User down to the fields other members may see.
func NewUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Fullname:     u.Fullname,
		Handle:       u.Handle,
		Email:        u.Email,
		Bio:          u.Bio,
		Age:          u.Age(),
		Gender:       u.Gender,
		Online:       u.Online,
		AvatarURL:    u.AvatarURL,
		ThumbNailURL: u.ThumbNailURL,
	}
}

// DiscoverCandidate is a discovery card: the public profile plus the
// grid, how many interests the viewer has in common with the member,
// and how far away they are, when both sides shared a location.
type DiscoverCandidate struct {
	UserResponse
	Interests       []string `json:"interests"`
	SharedInterests int      `json:"shared_interests"`
	Photos          []string `json:"photos"`
	DistanceKm      *float64 `json:"distance_km,omitempty"`
}

type EditProfileRequest struct {
	Fullname  string   `json:"fullname" conform:"trim"`
	Bio       string   `json:"bio" conform:"trim"`
	Gender    string   `json:"gender"`
	Birthdate string   `json:"birthdate"`
	Interests []string `json:"interests"`
}

type SignupRequest struct {
	Fullname  string `json:"fullname" binding:"required,min=2" conform:"trim"`
	Handle    string `json:"handle" binding:"required,min=2,max=30" conform:"trim,lower"`
	Email     string `json:"email" binding:"required,email" conform:"trim,lower"`
	Password  string `json:"password" binding:"required"`
	Gender    string `json:"gender"`
	Birthdate string `json:"birthdate"`
	Bio       string `json:"bio" conform:"trim"`
}

type UpdateLocationRequest struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ForgotPassword struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPassword struct {
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type GoogleAuthResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	Locale        string `json:"locale"`
}

type LoginResponse struct {
	UserResponse
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// VerifyPassword verifies the collected password with the user's hashed password
func (u *User) VerifyPassword(password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password))
	if err != nil {
		return err
	}
	return nil
}
