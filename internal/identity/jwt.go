package identity

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"go.pilab.hu/indexer/domain"
	serrors "go.pilab.hu/indexer/errors"
)

// UserClaims are the claims the identity service puts into its access tokens.
type UserClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier validates HS256 access tokens locally with the identity
// service's shared secret.
type JWTVerifier struct {
	secret []byte
	opts   []jwt.ParserOption
}

// NewJWTVerifier creates a verifier for secret. Additional parser options
// (audience, issuer, leeway) are applied to every parse.
func NewJWTVerifier(secret string, opts ...jwt.ParserOption) *JWTVerifier {
	return &JWTVerifier{
		secret: []byte(secret),
		opts: append([]jwt.ParserOption{
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		}, opts...),
	}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (*domain.Principal, error) {
	if token == "" {
		return nil, serrors.NewAuthError(serrors.MsgInvalidToken, nil)
	}

	var claims UserClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, v.opts...)
	if err != nil {
		return nil, serrors.NewAuthError(serrors.MsgInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, serrors.NewAuthError(serrors.MsgInvalidToken, errors.New("token has no subject"))
	}

	return &domain.Principal{ID: claims.Subject, Email: claims.Email}, nil
}
