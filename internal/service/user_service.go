package service

import (
	"context"
	"strings"

	"devgram/internal/models"
	"devgram/internal/repository"
	"devgram/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer signs session tokens for authenticated users.
type TokenIssuer interface {
	IssueToken(user *models.User) (string, error)
}

// UserService owns registration, login and profile management.
type UserService struct {
	users     repository.UserRepository
	follows   repository.FollowRepository
	tokens    TokenIssuer
	directory UserDirectory
	hashCost  int
}

// RegisterInput is a sign-up request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

// AccountSummary is the user projection returned alongside a token.
type AccountSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string         `json:"token"`
	User  AccountSummary `json:"user"`
}

// ProfileInput carries optional profile edits. Nil fields are left alone.
type ProfileInput struct {
	FullName *string
	Bio      *string
	Website  *string
	Avatar   *string
}

// NotificationSettingsPatch merges into NotificationSettings.
type NotificationSettingsPatch struct {
	Email     *bool `json:"email"`
	Push      *bool `json:"push"`
	Followers *bool `json:"followers"`
	Comments  *bool `json:"comments"`
	Likes     *bool `json:"likes"`
	Mentions  *bool `json:"mentions"`
	Marketing *bool `json:"marketing"`
}

// PrivacySettingsPatch merges into PrivacySettings.
type PrivacySettingsPatch struct {
	IsPrivate          *bool `json:"isPrivate"`
	ShowActivityStatus *bool `json:"showActivityStatus"`
	AllowTagging       *bool `json:"allowTagging"`
	AllowMessaging     *bool `json:"allowMessaging"`
	ShowPosts          *bool `json:"showPosts"`
	ShowStories        *bool `json:"showStories"`
}

// UpdateMeInput is a self-service account update.
type UpdateMeInput struct {
	ProfileInput
	CurrentPassword      string
	NewPassword          string
	NotificationSettings *NotificationSettingsPatch
	PrivacySettings      *PrivacySettingsPatch
	TwoFactorEnabled     *bool
}

// NewUserService returns a new UserService.
func NewUserService(users repository.UserRepository, follows repository.FollowRepository, tokens TokenIssuer, directory UserDirectory) *UserService {
	return &UserService{
		users:     users,
		follows:   follows,
		tokens:    tokens,
		directory: directory,
		hashCost:  bcrypt.DefaultCost,
	}
}

// Register creates an account and signs its first token.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = validation.NormalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)

	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, models.NewValidationError("Username, email and password are required")
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:             in.Username,
		Email:                in.Email,
		Password:             string(hash),
		FullName:             in.FullName,
		Avatar:               models.DefaultAvatar,
		NotificationSettings: models.DefaultNotificationSettings(),
		PrivacySettings:      models.DefaultPrivacySettings(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.authResult(user)
}

// Login verifies credentials and signs a token.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = validation.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, models.NewValidationError("Email and password are required")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return s.authResult(user)
}

func (s *UserService) authResult(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.IssueToken(user)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{
		Token: token,
		User: AccountSummary{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			FullName: user.FullName,
			Avatar:   user.Avatar,
		},
	}, nil
}

// GetProfile returns username's public profile as seen by viewer.
func (s *UserService) GetProfile(ctx context.Context, viewer Actor, username string) (*models.UserProfile, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	if err := s.withFollowing(ctx, user); err != nil {
		return nil, err
	}

	profile := &models.UserProfile{User: user.Public()}
	if viewer.ID != "" && viewer.ID != user.ID {
		profile.IsFollowing, err = s.follows.IsFollowing(ctx, viewer.ID, user.ID)
		if err != nil {
			return nil, err
		}
	}
	return profile, nil
}

// UpdateProfile edits username's profile. Only the owner may do so.
func (s *UserService) UpdateProfile(ctx context.Context, actor Actor, username string, in ProfileInput) (*models.User, error) {
	if actor.Username != username {
		return nil, models.NewForbiddenError("Not authorized")
	}
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := applyProfile(user, in); err != nil {
		return nil, err
	}
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	out := user.Public()
	return &out, nil
}

// GetMe returns the actor's own account, including email and settings.
func (s *UserService) GetMe(ctx context.Context, actor Actor) (*models.User, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := s.withFollowing(ctx, user); err != nil {
		return nil, err
	}
	user.Password = ""
	return user, nil
}

// UpdateMe applies profile, settings and password changes to the actor's
// account. The username cannot change.
func (s *UserService) UpdateMe(ctx context.Context, actor Actor, in UpdateMeInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := applyProfile(user, in.ProfileInput); err != nil {
		return nil, err
	}
	if in.NotificationSettings != nil {
		in.NotificationSettings.apply(&user.NotificationSettings)
	}
	if in.PrivacySettings != nil {
		in.PrivacySettings.apply(&user.PrivacySettings)
	}
	if in.TwoFactorEnabled != nil {
		user.TwoFactorEnabled = *in.TwoFactorEnabled
	}

	if in.NewPassword != "" {
		if err := s.changePassword(ctx, user, in.CurrentPassword, in.NewPassword); err != nil {
			return nil, err
		}
	}

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	return s.GetMe(ctx, actor)
}

func (s *UserService) changePassword(ctx context.Context, user *models.User, current, next string) error {
	if current == "" {
		return models.NewValidationError("Current password is required")
	}
	stored, err := s.users.GetByUsername(ctx, user.Username)
	if err != nil {
		return err
	}
	if stored == nil {
		return models.NewNotFoundError("User", user.Username)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte(current)) != nil {
		return models.NewValidationError("Current password is incorrect")
	}
	if err := validation.ValidatePassword(next); err != nil {
		return models.NewValidationError(err.Error())
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.hashCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	return s.users.UpdatePassword(ctx, user.ID, string(hash))
}

func (s *UserService) save(ctx context.Context, user *models.User) error {
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	if s.directory != nil {
		s.directory.Invalidate(user.Username)
	}
	return nil
}

func (s *UserService) withFollowing(ctx context.Context, user *models.User) error {
	ids, err := s.follows.FollowingIDs(ctx, user.ID)
	if err != nil {
		return err
	}
	user.Following = ids
	return nil
}

func applyProfile(user *models.User, in ProfileInput) error {
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if len(name) > 100 {
			return models.NewValidationError("Full name too long (max 100 characters)")
		}
		user.FullName = name
	}
	if in.Bio != nil {
		user.Bio = strings.TrimSpace(*in.Bio)
	}
	if in.Website != nil {
		user.Website = strings.TrimSpace(*in.Website)
	}
	if in.Avatar != nil {
		avatar := strings.TrimSpace(*in.Avatar)
		if avatar == "" {
			avatar = models.DefaultAvatar
		}
		user.Avatar = avatar
	}
	if err := validation.ValidateProfile(user.Bio, user.Website); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}

func (p *NotificationSettingsPatch) apply(s *models.NotificationSettings) {
	setBool(&s.Email, p.Email)
	setBool(&s.Push, p.Push)
	setBool(&s.Followers, p.Followers)
	setBool(&s.Comments, p.Comments)
	setBool(&s.Likes, p.Likes)
	setBool(&s.Mentions, p.Mentions)
	setBool(&s.Marketing, p.Marketing)
}

func (p *PrivacySettingsPatch) apply(s *models.PrivacySettings) {
	setBool(&s.IsPrivate, p.IsPrivate)
	setBool(&s.ShowActivityStatus, p.ShowActivityStatus)
	setBool(&s.AllowTagging, p.AllowTagging)
	setBool(&s.AllowMessaging, p.AllowMessaging)
	setBool(&s.ShowPosts, p.ShowPosts)
	setBool(&s.ShowStories, p.ShowStories)
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
