// Package app contains the OTP decryption service.
package app

import (
	"context"
	"errors"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/fd1az/electrum-core/business/otp/domain"
	"github.com/fd1az/electrum-core/internal/apperror"
	"github.com/fd1az/electrum-core/internal/logger"
)

// Wallet is a local key that can receive OTPs.
type Wallet struct {
	Label      string
	PublicKey  string // compressed, hex
	PrivateKey *secp256k1.PrivateKey
}

// WalletSource lists the wallets available for decryption.
type WalletSource interface {
	Wallets(ctx context.Context) ([]Wallet, error)
}

// Result is a decrypted OTP.
type Result struct {
	OTP         string
	Wallet      string
	AppName     string
	ResponseURL string
}

// Service decrypts OTP payloads addressed to local wallets.
type Service struct {
	wallets WalletSource
	log     logger.LoggerInterface
}

// NewService creates a new Service.
func NewService(wallets WalletSource, log logger.LoggerInterface) *Service {
	return &Service{wallets: wallets, log: log}
}

// DecryptOTP decrypts a JSON envelope. A payload for an unknown key yields
// CodeOTPNoWalletMatch, any cipher failure CodeOTPDecryptFailed.
func (s *Service) DecryptOTP(ctx context.Context, raw string) (Result, error) {
	p, err := domain.ParsePayload([]byte(raw))
	if err != nil {
		s.log.Warn(ctx, "otp payload rejected", "error", err)
		return Result{}, apperror.New(apperror.CodeOTPInvalidPayload, apperror.WithCause(err))
	}
	return s.decrypt(ctx, p)
}

// HandleDecryptURL decrypts the payload of a deep link and builds the
// response link for the requesting app.
func (s *Service) HandleDecryptURL(ctx context.Context, link string) (Result, error) {
	req, err := domain.ParseDecryptURL(link)
	if err != nil {
		s.log.Warn(ctx, "decrypt link rejected", "error", err)
		return Result{}, apperror.New(apperror.CodeOTPInvalidPayload, apperror.WithCause(err))
	}

	res, err := s.decrypt(ctx, req.Payload)
	if err != nil {
		return Result{}, err
	}
	res.ResponseURL = req.ResponseURL(res.OTP)
	return res, nil
}

func (s *Service) decrypt(ctx context.Context, p domain.Payload) (Result, error) {
	s.log.Debug(ctx, "finding wallet for otp", "public_key", p.PublicKey, "app", p.AppName)

	w, err := s.findWallet(ctx, p.PublicKey)
	if err != nil {
		return Result{}, err
	}

	s.log.Debug(ctx, "decrypting otp", "wallet", w.Label)
	plain, err := domain.Decrypt(p, w.PrivateKey)
	if err != nil {
		s.log.Warn(ctx, "otp decryption failed", "wallet", w.Label, "step", domain.DecryptStep(err), "error", err)
		return Result{}, apperror.New(apperror.CodeOTPDecryptFailed, apperror.WithCause(err))
	}

	s.log.Info(ctx, "otp decrypted", "wallet", w.Label, "app", p.AppName)
	return Result{OTP: plain, Wallet: w.Label, AppName: p.AppName}, nil
}

func (s *Service) findWallet(ctx context.Context, pubKey string) (Wallet, error) {
	wallets, err := s.wallets.Wallets(ctx)
	if err != nil {
		return Wallet{}, apperror.Wrap(err, apperror.CodeInternalError, "list wallets")
	}

	for _, w := range wallets {
		if w.PrivateKey != nil && strings.EqualFold(w.PublicKey, pubKey) {
			return w, nil
		}
	}

	s.log.Warn(ctx, "no wallet matches otp recipient", "public_key", pubKey, "wallets", len(wallets))
	return Wallet{}, apperror.New(apperror.CodeOTPNoWalletMatch, apperror.WithCause(domain.ErrNoWalletMatched))
}

// IsNoWalletMatched reports whether err means no local wallet could decrypt.
func IsNoWalletMatched(err error) bool {
	return errors.Is(err, domain.ErrNoWalletMatched)
}
