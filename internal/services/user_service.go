package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/appforge/backend/internal/models"
	"github.com/appforge/backend/internal/repositories"
	"github.com/appforge/backend/internal/wallet"
	"go.uber.org/zap"
)

type UserStore interface {
	Create(ctx context.Context, address string) (*models.User, error)
	GetByAddress(ctx context.Context, address string) (*models.User, error)
	UpdateLastActive(ctx context.Context, address string) error
}

type NonceStore interface {
	Put(ctx context.Context, address, nonce string, ttl time.Duration) error
	Consume(ctx context.Context, address, nonce string) (bool, error)
}

// UserService registers wallets and signs them in with personal_sign.
type UserService struct {
	users               UserStore
	nonces              NonceStore
	verifier            SignatureVerifier
	audit               AuditLogger
	registrationMessage string
	nonceTTL            time.Duration
	log                 *zap.Logger
}

func NewUserService(users UserStore, nonces NonceStore, verifier SignatureVerifier, audit AuditLogger, registrationMessage string, nonceTTL time.Duration, log *zap.Logger) *UserService {
	return &UserService{
		users:               users,
		nonces:              nonces,
		verifier:            verifier,
		audit:               audit,
		registrationMessage: registrationMessage,
		nonceTTL:            nonceTTL,
		log:                 log,
	}
}

func (s *UserService) RegistrationMessage() string {
	return s.registrationMessage
}

// LoginMessage is the text a wallet signs to sign in with nonce.
func LoginMessage(address, nonce string) string {
	return fmt.Sprintf("Sign in to AppForge\n\nAddress: %s\nNonce: %s", address, nonce)
}

// Register creates the user once the wallet has signed the registration message.
func (s *UserService) Register(ctx context.Context, rawAddress, signature string) (*models.User, error) {
	address, err := wallet.NormalizeAddress(rawAddress)
	if err != nil {
		return nil, err
	}
	if !s.verifier.Verify(s.registrationMessage, signature, address) {
		return nil, ErrInvalidSignature
	}

	user, err := s.users.Create(ctx, address)
	if errors.Is(err, repositories.ErrAlreadyExists) {
		return nil, ErrUserExists
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorAddress: &address,
		ActorType:    "user",
		Action:       "user_registered",
		EntityType:   "user",
		EntityID:     &address,
	})
	s.log.Info("user registered", zap.String("address", address))

	return user, nil
}

// IssueNonce stores a fresh login nonce and returns it with the message to sign.
func (s *UserService) IssueNonce(ctx context.Context, rawAddress string) (nonce, message string, err error) {
	address, err := wallet.NormalizeAddress(rawAddress)
	if err != nil {
		return "", "", err
	}

	nonce, err = generateNonce(16)
	if err != nil {
		return "", "", err
	}
	if err := s.nonces.Put(ctx, address, nonce, s.nonceTTL); err != nil {
		return "", "", fmt.Errorf("store nonce: %w", err)
	}
	return nonce, LoginMessage(address, nonce), nil
}

// Login consumes the nonce and checks the signature over the login message.
func (s *UserService) Login(ctx context.Context, rawAddress, nonce, signature string) (*models.User, error) {
	address, err := wallet.NormalizeAddress(rawAddress)
	if err != nil {
		return nil, err
	}

	ok, err := s.nonces.Consume(ctx, address, nonce)
	if err != nil {
		return nil, fmt.Errorf("consume nonce: %w", err)
	}
	if !ok {
		return nil, ErrInvalidNonce
	}

	if !s.verifier.Verify(LoginMessage(address, nonce), signature, address) {
		return nil, ErrInvalidSignature
	}

	user, err := s.GetUser(ctx, address)
	if err != nil {
		return nil, err
	}
	_ = s.users.UpdateLastActive(ctx, address)
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, address string) (*models.User, error) {
	user, err := s.users.GetByAddress(ctx, address)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

var nonceSource io.Reader = rand.Reader

func generateNonce(n int) (string, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(nonceSource, b); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return hex.EncodeToString(b), nil
}
