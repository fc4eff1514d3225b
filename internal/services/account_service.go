package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mystrymsg/internal/metrics"
	"mystrymsg/internal/models"
	"mystrymsg/internal/repositories"
	"mystrymsg/internal/utils"
	"mystrymsg/internal/validation"
)

type AccountService interface {
	Register(ctx context.Context, req models.RegisterRequest) (string, error)
	VerifyCode(ctx context.Context, username, code string) (*models.Principal, error)
	ResendCode(ctx context.Context, username string) error
	SignIn(ctx context.Context, identifier, password string) (*models.Principal, string, error)
	CheckUsernameAvailable(ctx context.Context, username string) (bool, error)

	SetAcceptingMessages(ctx context.Context, p *models.Principal, accept bool) (bool, error)
	GetAcceptingMessages(ctx context.Context, p *models.Principal) (bool, error)
}

// VerificationPolicy bounds the one-time code flow.
type VerificationPolicy struct {
	CodeTTL        time.Duration
	MaxAttempts    int           // wrong codes accepted before the code is burned
	ResendCooldown time.Duration // minimum gap between two issued codes
}

func (p VerificationPolicy) withDefaults() VerificationPolicy {
	if p.CodeTTL <= 0 {
		p.CodeTTL = 10 * time.Minute
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 5
	}
	if p.ResendCooldown < 0 {
		p.ResendCooldown = 0
	}
	return p
}

type accountService struct {
	repo         repositories.AccountRepository
	authService  AuthService
	emailService EmailService
	metrics      *metrics.Metrics
	logger       *slog.Logger
	policy       VerificationPolicy
	now          func() time.Time

	dummyOnce sync.Once
	dummy     string
}

func NewAccountService(
	repo repositories.AccountRepository,
	authService AuthService,
	emailService EmailService,
	m *metrics.Metrics,
	logger *slog.Logger,
	policy VerificationPolicy,
) AccountService {
	return &accountService{
		repo:         repo,
		authService:  authService,
		emailService: emailService,
		metrics:      m,
		logger:       logger,
		policy:       policy.withDefaults(),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *accountService) Register(ctx context.Context, req models.RegisterRequest) (string, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := validation.ValidateRegistration(validation.Registration{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}); err != nil {
		s.metrics.Registration("invalid")
		return "", invalid(err)
	}

	taken, err := s.repo.IsUsernameVerified(ctx, req.Username)
	if err != nil {
		return "", err
	}
	if taken {
		s.metrics.Registration("conflict")
		return "", ErrUsernameTaken
	}

	byEmail, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return "", err
	}
	if byEmail != nil && byEmail.IsVerified {
		s.metrics.Registration("conflict")
		return "", ErrEmailTaken
	}
	now := s.now()
	if byEmail != nil && s.resendTooSoon(byEmail, now) {
		s.metrics.Registration("throttled")
		return "", ErrResendThrottled
	}
	if byEmail != nil && byEmail.Username != req.Username {
		// имя не меняется после создания: старую заявку удаляем целиком
		if err := s.repo.DeletePending(ctx, byEmail.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return "", err
		}
		s.logger.InfoContext(ctx, "pending registration replaced", "old_username", byEmail.Username, "username", req.Username)
		byEmail = nil
	}

	// someone else is mid-verification on this username
	byUsername, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return "", err
	}
	if byUsername != nil && byUsername.Email != req.Email {
		if !byUsername.CodeExpired(now) {
			s.metrics.Registration("conflict")
			return "", ErrUsernamePending
		}
		if err := s.repo.DeletePending(ctx, byUsername.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return "", err
		}
		s.logger.InfoContext(ctx, "stale pending registration removed", "username", req.Username)
	}

	hash, err := s.authService.HashPassword(req.Password)
	if err != nil {
		return "", err
	}
	code, err := utils.NewNumericCode(validation.CodeLength)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	account := &models.Account{
		Username:            req.Username,
		Email:               req.Email,
		PasswordHash:        hash,
		VerifyCode:          code,
		VerifyCodeExpiry:    now.Add(s.policy.CodeTTL),
		IsAcceptingMessages: true,
	}

	if byEmail != nil {
		account.ID = byEmail.ID
		err = s.repo.ResetPending(ctx, account)
	} else {
		account.ID = uuid.NewString()
		err = s.repo.Create(ctx, account)
	}
	if errors.Is(err, repositories.ErrDuplicate) {
		// lost a race with a concurrent registration
		s.metrics.Registration("conflict")
		return "", ErrUsernamePending
	}
	if err != nil {
		return "", err
	}

	// письмо не откатывает регистрацию: код можно запросить повторно
	if err := s.emailService.SendVerificationEmail(ctx, account.Email, account.Username, code); err != nil {
		s.metrics.EmailFailed()
		s.logger.ErrorContext(ctx, "verification email failed", "username", account.Username, "err", err)
	}

	s.metrics.Registration("ok")
	s.logger.InfoContext(ctx, "account registered", "username", account.Username)
	return account.Username, nil
}

func (s *accountService) VerifyCode(ctx context.Context, username, code string) (*models.Principal, error) {
	code = strings.TrimSpace(code)
	if err := validation.ValidateCode(code); err != nil {
		s.metrics.Verification("invalid")
		return nil, invalid(err)
	}

	account, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repositories.ErrNotFound) {
		s.metrics.Verification("not_found")
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if account.IsVerified {
		return account.Principal(), nil
	}
	if account.CodeExpired(s.now()) {
		s.metrics.Verification("expired")
		return nil, ErrCodeExpired
	}
	if account.VerifyAttempts >= s.policy.MaxAttempts {
		s.metrics.Verification("locked")
		return nil, ErrTooManyAttempts
	}
	if subtle.ConstantTimeCompare([]byte(account.VerifyCode), []byte(code)) != 1 {
		return nil, s.recordMismatch(ctx, account)
	}

	if err := s.repo.MarkVerified(ctx, account.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// pending record replaced or removed in between
			s.metrics.Verification("not_found")
			return nil, ErrNotFound
		}
		return nil, err
	}
	account.IsVerified = true

	s.metrics.Verification("ok")
	s.logger.InfoContext(ctx, "account verified", "username", account.Username)
	return account.Principal(), nil
}

func (s *accountService) recordMismatch(ctx context.Context, account *models.Account) error {
	n, err := s.repo.RecordFailedAttempt(ctx, account.ID)
	if errors.Is(err, repositories.ErrNotFound) {
		s.metrics.Verification("not_found")
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if n >= s.policy.MaxAttempts {
		s.metrics.Verification("locked")
		s.logger.WarnContext(ctx, "verification code locked", "username", account.Username, "attempts", n)
		return ErrTooManyAttempts
	}
	s.metrics.Verification("mismatch")
	return ErrCodeInvalid
}

// resendTooSoon reports whether the current code was issued less than the
// cooldown ago.
func (s *accountService) resendTooSoon(account *models.Account, now time.Time) bool {
	if s.policy.ResendCooldown == 0 || account.VerifyCodeExpiry.IsZero() {
		return false
	}
	issued := account.VerifyCodeExpiry.Add(-s.policy.CodeTTL)
	return now.Before(issued.Add(s.policy.ResendCooldown))
}

func (s *accountService) ResendCode(ctx context.Context, username string) error {
	account, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if account.IsVerified {
		return ErrAlreadyVerified
	}
	now := s.now()
	if s.resendTooSoon(account, now) {
		return ErrResendThrottled
	}

	code, err := utils.NewNumericCode(validation.CodeLength)
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	account.VerifyCode = code
	account.VerifyCodeExpiry = now.Add(s.policy.CodeTTL)

	if err := s.repo.ResetPending(ctx, account); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// verified in between
			return ErrAlreadyVerified
		}
		return err
	}

	if err := s.emailService.SendVerificationEmail(ctx, account.Email, account.Username, code); err != nil {
		s.metrics.EmailFailed()
		s.logger.ErrorContext(ctx, "verification email failed", "username", account.Username, "err", err)
		return fmt.Errorf("%w: could not send verification email", ErrDependency)
	}
	return nil
}

func (s *accountService) SignIn(ctx context.Context, identifier, password string) (*models.Principal, string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		s.metrics.SignIn("invalid")
		return nil, "", ErrInvalidCredentials
	}

	if strings.Contains(identifier, "@") {
		identifier = strings.ToLower(identifier)
	}

	account, err := s.repo.GetByIdentifier(ctx, identifier)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, "", err
	}
	if account == nil {
		s.authService.CheckPassword(s.dummyHash(), password)
		s.metrics.SignIn("invalid")
		return nil, "", ErrInvalidCredentials
	}

	if !s.authService.CheckPassword(account.PasswordHash, password) || !account.IsVerified {
		s.metrics.SignIn("invalid")
		return nil, "", ErrInvalidCredentials
	}

	token, _, err := s.authService.IssueToken(account)
	if err != nil {
		return nil, "", err
	}
	s.metrics.SignIn("ok")
	return account.Principal(), token, nil
}

// dummyHash keeps sign-in timing similar whether or not the account exists.
func (s *accountService) dummyHash() string {
	s.dummyOnce.Do(func() {
		s.dummy, _ = s.authService.HashPassword("not-a-real-password")
	})
	return s.dummy
}

func (s *accountService) CheckUsernameAvailable(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if err := validation.ValidateUsername(username); err != nil {
		return false, invalid(err)
	}
	taken, err := s.repo.IsUsernameVerified(ctx, username)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

func (s *accountService) SetAcceptingMessages(ctx context.Context, p *models.Principal, accept bool) (bool, error) {
	if p == nil || p.ID == "" {
		return false, ErrUnauthenticated
	}
	if err := s.repo.SetAcceptingMessages(ctx, p.ID, accept); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return false, ErrNotFound
		}
		return false, err
	}
	s.logger.InfoContext(ctx, "accepting messages updated", "username", p.Username, "accept", accept)
	return accept, nil
}

func (s *accountService) GetAcceptingMessages(ctx context.Context, p *models.Principal) (bool, error) {
	if p == nil || p.ID == "" {
		return false, ErrUnauthenticated
	}
	account, err := s.repo.GetByID(ctx, p.ID)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, err
	}
	return account.IsAcceptingMessages, nil
}
