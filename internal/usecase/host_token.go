package usecase

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HostTokenUsecase issues and verifies the token a room creator can use to
// reclaim host privileges after reconnecting under a new session id.
type HostTokenUsecase interface {
	Issue(roomID string) (string, error)
	Verify(roomID, token string) error
}

type hostTokenUsecase struct {
	secret []byte
}

func NewHostTokenUsecase(secret []byte) HostTokenUsecase {
	return &hostTokenUsecase{secret: secret}
}

func (h *hostTokenUsecase) Issue(roomID string) (string, error) {
	claims := &jwt.RegisteredClaims{
		Subject:   roomID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 72)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.secret)
}

func (h *hostTokenUsecase) Verify(roomID, token string) error {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		return h.secret, nil
	})
	if err != nil {
		return fmt.Errorf("parse host token: %w", err)
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return fmt.Errorf("invalid host token")
	}

	if claims.Subject != roomID {
		return fmt.Errorf("host token issued for another room")
	}

	return nil
}
