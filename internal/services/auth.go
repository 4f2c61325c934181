package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/metrics"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/repository"
	"github.com/example/storefront/internal/utils"
)

const minPasswordLength = 6

// AuthSettings are the lifetimes and limits the auth workflow runs with.
type AuthSettings struct {
	PendingTTL time.Duration
	SessionTTL time.Duration
	OTP        config.OTPConfig
}

// AuthSettingsFrom extracts AuthSettings from the application config.
func AuthSettingsFrom(cfg *config.Config) AuthSettings {
	return AuthSettings{PendingTTL: cfg.PendingTokenTTL, SessionTTL: cfg.SessionTTL, OTP: cfg.OTP}
}

// AuthDeps groups the collaborators of AuthService.
type AuthDeps struct {
	Tx          Transactor
	Users       UserStore
	Credentials CredentialStore
	Cart        *CartService
	Notifier    Notifier
	Limiter     RateLimiter
	Tokens      *utils.TokenIssuer
	Expiry      *OTPExpiry
	Log         *zap.Logger
}

// AuthService runs registration, login with emailed codes, password
// reset and password change.
type AuthService struct {
	AuthDeps
	settings AuthSettings
	now      func() time.Time
}

func NewAuthService(deps AuthDeps, settings AuthSettings) *AuthService {
	return &AuthService{AuthDeps: deps, settings: settings, now: time.Now}
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	Phone     string
}

// Register creates the account unless the email is taken.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.Phone) == "" {
		return nil, ErrInvalidInput.WithMessage("fname and phone are required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, ErrStore.Wrap(fmt.Errorf("hash password: %w", err))
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		Phone:        strings.TrimSpace(in.Phone),
	}
	created, err := s.Users.FindOrCreate(ctx, user)
	if err != nil {
		return nil, ErrStore.Wrap(err)
	}
	if !created {
		return nil, ErrDuplicateAccount
	}

	s.Log.Info("user registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

type LoginResult struct {
	PendingToken string
	User         *models.User
}

// Login checks the password, then stores a pending credential with a fresh
// code and emails the code. Nothing is written when the password is wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, ErrStore.Wrap(err)
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	if err := s.Limiter.Allow(ctx, string(models.PurposeLogin)+":"+user.Email); err != nil {
		return nil, err
	}

	token, code, err := s.issuePending(ctx, user, models.PurposeLogin)
	if err != nil {
		return nil, err
	}
	if err := s.sendCode(ctx, user.Email, "Your login code", code); err != nil {
		return nil, err
	}

	return &LoginResult{PendingToken: token, User: user}, nil
}

// VerifyResult is returned by VerifyOTP. Login credentials yield a session
// and the user's cart; reset credentials only report Verified.
type VerifyResult struct {
	Purpose      models.CredentialPurpose
	Verified     bool
	SessionToken string
	User         *models.User
	Cart         *CartView
}

// VerifyOTP checks code against the pending credential behind token. A
// login credential is exchanged for a session after items are merged into
// the cart; a reset credential is marked verified for ForgotPassword.
func (s *AuthService) VerifyOTP(ctx context.Context, token, code string, items []CartItem) (*VerifyResult, error) {
	cred, err := s.resolve(ctx, token, utils.TokenPending)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !cred.OTPUsable(now) || !utils.EqualHash(*cred.OTPHash, utils.HashOTP(cred.TokenHash, code)) {
		s.recordFailure(ctx, cred)
		return nil, ErrInvalidOTP
	}
	s.Expiry.Cancel(cred.ID)

	if cred.Purpose == models.PurposePasswordReset {
		if err := s.Credentials.MarkOTPVerified(ctx, cred.ID, now); err != nil {
			return nil, ErrStore.Wrap(err)
		}
		return &VerifyResult{Purpose: cred.Purpose, Verified: true}, nil
	}

	user, err := s.Users.FindByID(ctx, cred.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, ErrStore.Wrap(err)
	}

	var session string
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.consume(ctx, cred.ID, now); err != nil {
			return err
		}
		if err := s.Cart.Merge(ctx, user.ID, items); err != nil {
			return err
		}
		session, err = s.issueSession(ctx, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	cart, err := s.Cart.List(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.Log.Info("login verified", zap.String("user_id", user.ID.String()))
	return &VerifyResult{Purpose: cred.Purpose, Verified: true, SessionToken: session, User: user, Cart: cart}, nil
}

// VerifyEmail starts a password reset: it emails a code and returns the
// pending token the code must be presented with.
func (s *AuthService) VerifyEmail(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrEmailNotFound
		}
		return "", ErrStore.Wrap(err)
	}

	if err := s.Limiter.Allow(ctx, string(models.PurposePasswordReset)+":"+user.Email); err != nil {
		return "", err
	}

	token, code, err := s.issuePending(ctx, user, models.PurposePasswordReset)
	if err != nil {
		return "", err
	}
	if err := s.sendCode(ctx, user.Email, "Your password reset code", code); err != nil {
		return "", err
	}
	return token, nil
}

// ForgotPassword sets a new password for the holder of a verified reset token.
func (s *AuthService) ForgotPassword(ctx context.Context, token, password1, password2 string) error {
	if password1 != password2 {
		return ErrPasswordMismatch
	}
	if len(password1) < minPasswordLength {
		return ErrWeakPassword
	}

	cred, err := s.resolve(ctx, token, utils.TokenPending)
	if err != nil {
		return err
	}
	if cred.Purpose != models.PurposePasswordReset {
		return ErrInvalidToken
	}
	if cred.OTPVerifiedAt == nil {
		return ErrOTPNotVerified
	}

	hash, err := utils.HashPassword(password1)
	if err != nil {
		return ErrStore.Wrap(fmt.Errorf("hash password: %w", err))
	}

	return s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.consume(ctx, cred.ID, s.now()); err != nil {
			return err
		}
		return s.updatePassword(ctx, cred.UserID, hash)
	})
}

// ChangePassword replaces the password of the session's user.
func (s *AuthService) ChangePassword(ctx context.Context, sessionToken, password1, password2 string) error {
	if password1 != password2 {
		return ErrPasswordMismatch
	}
	if len(password1) < minPasswordLength {
		return ErrWeakPassword
	}

	cred, err := s.resolve(ctx, sessionToken, utils.TokenSession)
	if err != nil {
		return err
	}

	hash, err := utils.HashPassword(password1)
	if err != nil {
		return ErrStore.Wrap(fmt.Errorf("hash password: %w", err))
	}
	return s.updatePassword(ctx, cred.UserID, hash)
}

// Logout revokes the session credential. Unknown or expired tokens are
// treated as already logged out.
func (s *AuthService) Logout(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return nil
	}
	cred, err := s.Credentials.FindActive(ctx, utils.HashToken(sessionToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return ErrStore.Wrap(err)
	}
	if err := s.Credentials.Consume(ctx, cred.ID, s.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return ErrStore.Wrap(err)
	}
	return nil
}

// consume marks a credential used. Losing a race against another consumer
// reports the credential as gone so the caller's transaction rolls back.
func (s *AuthService) consume(ctx context.Context, id uuid.UUID, at time.Time) error {
	if err := s.Credentials.Consume(ctx, id, at); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return ErrStore.Wrap(err)
	}
	return nil
}

// Authenticate resolves an active session token to its user id.
func (s *AuthService) Authenticate(ctx context.Context, sessionToken string) (uuid.UUID, error) {
	cred, err := s.resolve(ctx, sessionToken, utils.TokenSession)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return uuid.Nil, ErrInvalidToken
		}
		return uuid.Nil, err
	}
	return cred.UserID, nil
}

// resolve verifies the token signature and returns its active credential.
// A valid signature without an active credential means the token was
// revoked or replaced.
func (s *AuthService) resolve(ctx context.Context, token string, kind utils.TokenKind) (*models.Credential, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	claims, err := s.Tokens.Verify(token)
	if err != nil || claims.Kind != kind {
		return nil, ErrInvalidToken
	}

	cred, err := s.Credentials.FindActive(ctx, utils.HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, ErrStore.Wrap(err)
	}
	if cred.UserID.String() != claims.UserID {
		return nil, ErrInvalidToken
	}
	if kind == utils.TokenPending && string(cred.Purpose) != claims.Purpose {
		return nil, ErrInvalidToken
	}
	return cred, nil
}

func (s *AuthService) issuePending(ctx context.Context, user *models.User, purpose models.CredentialPurpose) (string, string, error) {
	code, err := GenerateOTP(s.settings.OTP.Digits)
	if err != nil {
		return "", "", ErrStore.Wrap(err)
	}

	token, err := s.Tokens.Issue(utils.Claims{
		UserID:  user.ID.String(),
		Email:   user.Email,
		Kind:    utils.TokenPending,
		Purpose: string(purpose),
	}, s.settings.PendingTTL)
	if err != nil {
		return "", "", ErrStore.Wrap(err)
	}

	now := s.now()
	tokenHash := utils.HashToken(token)
	otpHash := utils.HashOTP(tokenHash, code)
	otpExpires := now.Add(s.settings.OTP.TTL)
	cred := &models.Credential{
		UserID:       user.ID,
		Purpose:      purpose,
		TokenHash:    tokenHash,
		OTPHash:      &otpHash,
		OTPExpiresAt: &otpExpires,
		ExpiresAt:    now.Add(s.settings.PendingTTL),
	}
	if err := s.Credentials.Issue(ctx, cred); err != nil {
		return "", "", ErrStore.Wrap(err)
	}

	s.Expiry.Schedule(cred.ID, s.settings.OTP.TTL)
	metrics.OTPIssued(string(purpose))
	return token, code, nil
}

func (s *AuthService) issueSession(ctx context.Context, user *models.User) (string, error) {
	token, err := s.Tokens.Issue(utils.Claims{UserID: user.ID.String(), Kind: utils.TokenSession}, s.settings.SessionTTL)
	if err != nil {
		return "", ErrStore.Wrap(err)
	}
	cred := &models.Credential{
		UserID:    user.ID,
		Purpose:   models.PurposeSession,
		TokenHash: utils.HashToken(token),
		ExpiresAt: s.now().Add(s.settings.SessionTTL),
	}
	if err := s.Credentials.Issue(ctx, cred); err != nil {
		return "", ErrStore.Wrap(err)
	}
	return token, nil
}

// recordFailure counts a wrong code and drops the code once the attempt
// limit is reached.
func (s *AuthService) recordFailure(ctx context.Context, cred *models.Credential) {
	if cred.OTPHash == nil {
		return
	}
	attempts, err := s.Credentials.RecordFailedAttempt(ctx, cred.ID)
	if err != nil {
		s.Log.Warn("record failed otp attempt", zap.Error(err))
		return
	}
	if attempts >= s.settings.OTP.MaxAttempts {
		s.Expiry.Cancel(cred.ID)
		if err := s.Credentials.ClearOTP(ctx, cred.ID); err != nil {
			s.Log.Warn("clear exhausted otp", zap.Error(err))
		}
	}
}

func (s *AuthService) updatePassword(ctx context.Context, userID uuid.UUID, hash string) error {
	if err := s.Users.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return ErrStore.Wrap(err)
	}
	return nil
}

func (s *AuthService) sendCode(ctx context.Context, to, subject, code string) error {
	msg := Message{
		To:      to,
		Subject: subject,
		Body:    fmt.Sprintf("Your verification code is %s. It expires in %s.", code, s.settings.OTP.TTL),
	}
	if err := s.Notifier.Send(ctx, msg); err != nil {
		s.Log.Error("otp delivery failed", zap.String("to", to), zap.Error(err))
		return ErrDelivery.Wrap(err)
	}
	return nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", ErrInvalidInput.WithMessage("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", ErrInvalidInput.WithMessage("email is invalid")
	}
	return email, nil
}
