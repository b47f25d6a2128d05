package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"
	"time"

	apperrors "storefront-service/common/errors"
	"storefront-service/models"
	"storefront-service/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	defaultResetTTL   = 15 * time.Minute
	resetSentMessage  = "If an account exists for this email, a reset link has been sent"
)

var (
	ErrUserExists        = apperrors.BadRequest("User already exists")
	ErrEmailInUse        = apperrors.BadRequest("Email is already in use")
	ErrWrongPassword     = apperrors.BadRequest("Current password is incorrect")
	ErrPasswordTooShort  = apperrors.BadRequest("Password must be at least 6 characters")
	ErrCredentialsNeeded = apperrors.BadRequest("Email and password are required")
	ErrResetTokenInvalid = apperrors.BadRequest("Invalid or expired token")
	ErrAddressNotFound   = apperrors.NotFound("Address not found")
)

// TokenIssuer signs access tokens for a user id and role.
type TokenIssuer interface {
	Generate(userID, role string) (string, error)
}

type RegisterRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type ProfileUpdate struct {
	FullName   *string `json:"fullName"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	Address    *string `json:"address"`
	City       *string `json:"city"`
	PostalCode *string `json:"postalCode"`
	Country    *string `json:"country"`
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// PasswordResetConfig controls the admin reset flow. Without a Mailer the
// link is only logged, and only when LogLinks is set.
type PasswordResetConfig struct {
	Mailer   PasswordResetMailer
	BaseURL  string
	TTL      time.Duration
	LogLinks bool
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// AddressInput is the saved-address form. Nil fields keep their value on
// update.
type AddressInput struct {
	Type       *string `json:"type"`
	FullName   *string `json:"fullName"`
	Address    *string `json:"address"`
	City       *string `json:"city"`
	PostalCode *string `json:"postalCode"`
	Country    *string `json:"country"`
	Phone      *string `json:"phone"`
	IsPrimary  *bool   `json:"isPrimary"`
}

type AuthService struct {
	users  repository.UserRepo
	tokens TokenIssuer
	reset  PasswordResetConfig
	logger *zap.Logger
	now    func() time.Time
}

func NewAuthService(users repository.UserRepo, tokens TokenIssuer, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		reset:  PasswordResetConfig{BaseURL: "http://localhost:5173", TTL: defaultResetTTL},
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithPasswordReset replaces the reset settings. Zero fields keep their
// defaults.
func (s *AuthService) WithPasswordReset(cfg PasswordResetConfig) *AuthService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = s.reset.BaseURL
	}
	if cfg.TTL <= 0 {
		cfg.TTL = s.reset.TTL
	}
	s.reset = cfg
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperrors.ErrInternalServer.Wrap(err)
	}
	return string(hashed), nil
}

func (s *AuthService) issue(u *models.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(u.ID.Hex(), u.Role)
	if err != nil {
		return nil, apperrors.ErrInternalServer.Wrap(err)
	}
	return &AuthResult{Token: token, User: u}, nil
}

// Register creates a customer account. A passwordless guest created at
// checkout is claimed instead of rejected.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrCredentialsNeeded
	}
	if len(req.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	existing, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Password != "" {
			return nil, ErrUserExists
		}
		set := map[string]interface{}{"password": hashed}
		if name := strings.TrimSpace(req.FullName); name != "" {
			set["fullName"] = name
		}
		if phone := strings.TrimSpace(req.Phone); phone != "" {
			set["phone"] = phone
		}
		claimed, err := s.users.Update(ctx, existing.ID, set)
		if err != nil {
			return nil, err
		}
		s.logger.Info("Guest account claimed", zap.String("user_id", claimed.ID.Hex()))
		return s.issue(claimed)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	u := &models.User{
		Email:    email,
		Password: hashed,
		FullName: strings.TrimSpace(req.FullName),
		Phone:    strings.TrimSpace(req.Phone),
		Role:     models.RoleUser,
		Orders:   []primitive.ObjectID{},
		Notes:    []models.Note{},
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	s.logger.Info("User registered", zap.String("user_id", u.ID.Hex()))
	return s.issue(u)
}

func (s *AuthService) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	// guests have no password and cannot log in until they register
	if u.Password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.issue(u)
}

func (s *AuthService) AdminLogin(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin() {
		s.logger.Warn("Non-admin attempted admin login", zap.String("user_id", u.ID.Hex()))
		return nil, apperrors.ErrAdminOnly
	}
	return s.issue(u)
}

func (s *AuthService) Me(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, in ProfileUpdate) (*models.User, error) {
	set := map[string]interface{}{}
	put := func(key string, v *string) {
		if v != nil {
			set[key] = strings.TrimSpace(*v)
		}
	}
	put("fullName", in.FullName)
	put("phone", in.Phone)
	put("address", in.Address)
	put("city", in.City)
	put("postalCode", in.PostalCode)
	put("country", in.Country)

	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email == "" {
			return nil, apperrors.BadRequest("Email cannot be empty")
		}
		other, err := s.users.FindByEmail(ctx, email)
		switch {
		case err == nil && other.ID != userID:
			return nil, ErrEmailInUse
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}
		set["email"] = email
	}
	if len(set) == 0 {
		return s.Me(ctx, userID)
	}

	u, err := s.users.Update(ctx, userID, set)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrEmailInUse
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID primitive.ObjectID, current, next string) error {
	if len(next) < minPasswordLength {
		return ErrPasswordTooShort
	}
	u, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if u.Password == "" || bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(current)) != nil {
		return ErrWrongPassword
	}
	hashed, err := hashPassword(next)
	if err != nil {
		return err
	}
	if _, err := s.users.Update(ctx, userID, map[string]interface{}{"password": hashed}); err != nil {
		return err
	}
	s.logger.Info("Password changed", zap.String("user_id", userID.Hex()))
	return nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ForgotPassword emails an admin a single-use reset link. The returned
// message is the same whether or not the account exists.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", apperrors.BadRequest("Email is required")
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return resetSentMessage, nil
		}
		return "", err
	}
	if !u.IsAdmin() {
		return resetSentMessage, nil
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", apperrors.ErrInternalServer.Wrap(err)
	}
	token := hex.EncodeToString(raw)
	if _, err := s.users.Update(ctx, u.ID, map[string]interface{}{
		"resetPasswordToken":   hashResetToken(token),
		"resetPasswordExpires": s.now().Add(s.reset.TTL),
	}); err != nil {
		return "", err
	}

	link := strings.TrimRight(s.reset.BaseURL, "/") + "/admin/reset-password?" + url.Values{
		"token": {token},
		"email": {u.Email},
	}.Encode()
	if s.reset.Mailer != nil {
		if err := s.reset.Mailer.SendPasswordReset(ctx, u.Email, link, s.reset.TTL); err != nil {
			s.logger.Error("Password reset email failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		}
	}
	if s.reset.LogLinks {
		s.logger.Info("Password reset link", zap.String("user_id", u.ID.Hex()), zap.String("url", link))
	}
	return resetSentMessage, nil
}

// ResetPassword consumes a token issued by ForgotPassword.
func (s *AuthService) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	email := normalizeEmail(req.Email)
	if email == "" || req.Token == "" || req.NewPassword == "" {
		return apperrors.BadRequest("Email, token, and newPassword are required")
	}
	if len(req.NewPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return err
	}
	if !u.IsAdmin() {
		return ErrResetTokenInvalid
	}
	hashedPassword, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	ok, err := s.users.ConsumeResetToken(ctx, u.ID, hashResetToken(req.Token), hashedPassword, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrResetTokenInvalid
	}
	s.logger.Info("Password reset", zap.String("user_id", u.ID.Hex()))
	return nil
}

func addressList(u *models.User) []models.Address {
	if u.Addresses == nil {
		return []models.Address{}
	}
	return u.Addresses
}

func (s *AuthService) Addresses(ctx context.Context, userID primitive.ObjectID) ([]models.Address, error) {
	u, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	return addressList(u), nil
}

// AddAddress saves a new address; the first one saved is primary.
func (s *AuthService) AddAddress(ctx context.Context, userID primitive.ObjectID, in AddressInput) ([]models.Address, error) {
	addr := models.Address{
		Type:       trimmed(in.Type),
		FullName:   trimmed(in.FullName),
		Address:    trimmed(in.Address),
		City:       trimmed(in.City),
		PostalCode: trimmed(in.PostalCode),
		Country:    trimmed(in.Country),
		Phone:      trimmed(in.Phone),
		IsPrimary:  in.IsPrimary != nil && *in.IsPrimary,
	}
	if addr.Type == "" {
		addr.Type = "Home"
	}
	if addr.Address == "" || addr.City == "" {
		return nil, apperrors.BadRequest("Address and city are required")
	}
	u, err := s.users.AddAddress(ctx, userID, addr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return addressList(u), nil
}

// UpdateAddress changes the non-empty fields of one address.
func (s *AuthService) UpdateAddress(ctx context.Context, userID primitive.ObjectID, addressID string, in AddressInput) ([]models.Address, error) {
	oid, err := primitive.ObjectIDFromHex(addressID)
	if err != nil {
		return nil, ErrAddressNotFound
	}
	set := map[string]interface{}{}
	for key, val := range map[string]*string{
		"type":       in.Type,
		"fullName":   in.FullName,
		"address":    in.Address,
		"city":       in.City,
		"postalCode": in.PostalCode,
		"country":    in.Country,
		"phone":      in.Phone,
	} {
		if v := trimmed(val); v != "" {
			set[key] = v
		}
	}
	makePrimary := in.IsPrimary != nil && *in.IsPrimary
	if in.IsPrimary != nil && !*in.IsPrimary {
		set["isPrimary"] = false
	}
	u, err := s.users.UpdateAddress(ctx, userID, oid, set, makePrimary)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}
	return addressList(u), nil
}

// DeleteAddress removes the address if present and returns what is left.
func (s *AuthService) DeleteAddress(ctx context.Context, userID primitive.ObjectID, addressID string) ([]models.Address, error) {
	oid, err := primitive.ObjectIDFromHex(addressID)
	if err != nil {
		return nil, ErrAddressNotFound
	}
	u, err := s.users.RemoveAddress(ctx, userID, oid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return addressList(u), nil
}
