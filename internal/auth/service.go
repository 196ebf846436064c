package auth

import (
	"context"
	goerrors "errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pkgauth "github.com/quickcart/quickcart-backend/pkg/auth"
	"github.com/quickcart/quickcart-backend/pkg/config"
	"github.com/quickcart/quickcart-backend/pkg/enums"
	pkgerrors "github.com/quickcart/quickcart-backend/pkg/errors"
	"github.com/quickcart/quickcart-backend/pkg/logger"
	"github.com/quickcart/quickcart-backend/pkg/metrics"
	"github.com/quickcart/quickcart-backend/pkg/security"
	"github.com/quickcart/quickcart-backend/pkg/sms"
)

const otpLength = 6

var phonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

// OTPStore is the slice of the Redis client the OTP flow needs.
type OTPStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	OTPKey(phone string) string
	OTPAttemptsKey(phone string) string
	OTPSendKey(phone string) string
}

// ServiceParams carries the dependencies for the auth service.
type ServiceParams struct {
	Repo      *Repository
	Store     OTPStore
	SMS       sms.Provider
	JWT       config.JWTConfig
	OTP       config.OTPConfig
	RateLimit config.AuthRateLimitConfig
	AppEnv    string
	Metrics   *metrics.Metrics
	Logger    *logger.Logger
}

// Service exposes phone OTP sign-in and the admin password login.
type Service interface {
	SendOTP(ctx context.Context, input SendOTPInput) (*SendOTPResponse, error)
	VerifyOTP(ctx context.Context, input VerifyOTPInput) (*TokenResponse, error)
	AdminLogin(ctx context.Context, input AdminLoginInput, clientIP string) (*TokenResponse, error)
}

// SendOTPInput carries the OTP dispatch request.
type SendOTPInput struct {
	Phone string `json:"phone" validate:"required"`
}

// SendOTPResponse acknowledges the dispatch. OTP is only populated in
// dev environments when configured to expose it.
type SendOTPResponse struct {
	Message string `json:"message"`
	OTP     string `json:"otp,omitempty"`
}

// VerifyOTPInput carries the OTP verification request.
type VerifyOTPInput struct {
	Phone string `json:"phone" validate:"required"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
	Name  string `json:"name" validate:"max=120"`
}

// AdminLoginInput carries the admin credential login request.
type AdminLoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is the successful sign-in payload.
type TokenResponse struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}

// UserSummary is the signed-in identity echoed with the token.
type UserSummary struct {
	ID      int64  `json:"id"`
	Phone   string `json:"phone"`
	Name    string `json:"name,omitempty"`
	IsAdmin bool   `json:"is_admin"`
}

type service struct {
	repo       *Repository
	store      OTPStore
	sms        sms.Provider
	jwtCfg     config.JWTConfig
	otpCfg     config.OTPConfig
	rateCfg    config.AuthRateLimitConfig
	devExpose  bool
	metrics    *metrics.Metrics
	logg       *logger.Logger
	now        func() time.Time
	makeOTP    func(length int) (string, error)
}

// NewService constructs the auth service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auth repo is required")
	case params.Store == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "otp store is required")
	case params.SMS == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sms provider is required")
	case params.JWT.Secret == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "jwt secret is required")
	}
	return &service{
		repo:      params.Repo,
		store:     params.Store,
		sms:       params.SMS,
		jwtCfg:    params.JWT,
		otpCfg:    params.OTP,
		rateCfg:   params.RateLimit,
		devExpose: params.OTP.DevExpose && params.AppEnv != config.AppEnvProd,
		metrics:   params.Metrics,
		logg:      params.Logger,
		now:       time.Now,
		makeOTP:   security.GenerateOTP,
	}, nil
}

// SendOTP generates and dispatches a one-time code, bounded per phone
// per day.
func (s *service) SendOTP(ctx context.Context, input SendOTPInput) (*SendOTPResponse, error) {
	phone, err := normalizePhone(input.Phone)
	if err != nil {
		return nil, err
	}

	sends, err := s.store.IncrWithTTL(ctx, s.store.OTPSendKey(phone), 24*time.Hour)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting otp sends")
	}
	if sends > int64(s.otpCfg.DailySendLimit) {
		return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "daily OTP limit reached for this phone")
	}

	code, err := s.makeOTP(otpLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating otp")
	}
	if err := s.store.Set(ctx, s.store.OTPKey(phone), code, s.otpCfg.TTL); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storing otp")
	}
	// Reset the attempt counter for the fresh code.
	if err := s.store.Del(ctx, s.store.OTPAttemptsKey(phone)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resetting otp attempts")
	}

	message := fmt.Sprintf("%s is your QuickCart verification code. Valid for %d minutes.", code, int(s.otpCfg.TTL.Minutes()))
	if err := s.sms.Send(ctx, phone, message); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dispatching otp sms")
	}

	s.metrics.IncOTPSent()
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "phone", maskPhone(phone)), "otp sent")
	}

	resp := &SendOTPResponse{Message: "OTP sent"}
	if s.devExpose {
		resp.OTP = code
	}
	return resp, nil
}

// VerifyOTP checks the submitted code, upserts the customer account,
// and mints an access token.
func (s *service) VerifyOTP(ctx context.Context, input VerifyOTPInput) (*TokenResponse, error) {
	phone, err := normalizePhone(input.Phone)
	if err != nil {
		return nil, err
	}

	stored, err := s.store.Get(ctx, s.store.OTPKey(phone))
	if goerrors.Is(err, goredis.Nil) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "OTP expired or not requested")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading otp")
	}

	if stored != input.OTP {
		attempts, err := s.store.IncrWithTTL(ctx, s.store.OTPAttemptsKey(phone), s.otpCfg.TTL)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting otp attempts")
		}
		if attempts >= int64(s.otpCfg.MaxAttempts) {
			if err := s.store.Del(ctx, s.store.OTPKey(phone), s.store.OTPAttemptsKey(phone)); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "discarding otp")
			}
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "too many wrong attempts, request a new OTP")
		}
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "incorrect OTP")
	}

	if err := s.store.Del(ctx, s.store.OTPKey(phone), s.store.OTPAttemptsKey(phone)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consuming otp")
	}

	user, err := s.repo.UpsertByPhone(ctx, phone, strings.TrimSpace(input.Name))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upserting user")
	}
	if err := s.repo.TouchLastLogin(ctx, user.ID, s.now()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stamping last login")
	}

	return s.issueToken(user.ID, user.Phone, user.Name, user.IsAdmin())
}

// AdminLogin verifies an admin credential pair under a per-IP and
// per-username rate limit.
func (s *service) AdminLogin(ctx context.Context, input AdminLoginInput, clientIP string) (*TokenResponse, error) {
	username := strings.TrimSpace(strings.ToLower(input.Username))
	if username == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}

	if clientIP != "" {
		allowed, _, err := s.store.FixedWindowAllow(ctx, "login:ip:"+clientIP, int64(s.rateCfg.LoginIPLimit), s.rateCfg.LoginWindow)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking login rate limit")
		}
		if !allowed {
			return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts")
		}
	}
	allowed, _, err := s.store.FixedWindowAllow(ctx, "login:user:"+username, int64(s.rateCfg.LoginUsernameLimit), s.rateCfg.LoginWindow)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking login rate limit")
	}
	if !allowed {
		return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts")
	}

	user, err := s.repo.FindAdminByUsername(ctx, username)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading admin user")
	}
	if user == nil || user.PasswordHash == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	ok, err := security.VerifyPassword(input.Password, *user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verifying password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	if err := s.repo.TouchLastLogin(ctx, user.ID, s.now()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stamping last login")
	}

	return s.issueToken(user.ID, user.Phone, user.Name, true)
}

func (s *service) issueToken(userID int64, phone, name string, isAdmin bool) (*TokenResponse, error) {
	role := enums.UserRoleCustomer
	if isAdmin {
		role = enums.UserRoleAdmin
	}
	token, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		UserID: userID,
		Phone:  phone,
		Name:   name,
		Role:   role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting access token")
	}
	return &TokenResponse{
		Token: token,
		User: UserSummary{
			ID:      userID,
			Phone:   phone,
			Name:    name,
			IsAdmin: isAdmin,
		},
	}, nil
}

// normalizePhone strips spaces and an optional +91 prefix, then checks
// for a valid Indian mobile number.
func normalizePhone(raw string) (string, error) {
	phone := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	phone = strings.TrimPrefix(phone, "+91")
	phone = strings.TrimPrefix(phone, "91")
	if len(phone) == 11 && strings.HasPrefix(phone, "0") {
		phone = phone[1:]
	}
	if !phonePattern.MatchString(phone) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "phone must be a valid 10-digit mobile number")
	}
	return phone, nil
}

func maskPhone(phone string) string {
	if len(phone) < 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

