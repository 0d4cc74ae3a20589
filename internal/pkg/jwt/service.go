package jwt

import (
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	RoleCandidate = "candidate"
	RoleEmployer  = "employer"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims identify a session holder. SessionID is set for employer sessions
// and names the employer_sessions row backing the token.
type Claims struct {
	SubjectID int64  `json:"sub_id"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role"`
	SessionID string `json:"sid,omitempty"`

	jwtlib.RegisteredClaims
}

type Service interface {
	Issue(role string, subjectID int64, email, sessionID string) (string, error)
	Validate(tokenString string) (Claims, error)
	TTL() time.Duration
}

type HMACService struct {
	secret    []byte
	expiresIn time.Duration

	now func() time.Time
}

func NewHMACService(secret string, expiresIn time.Duration) *HMACService {
	return &HMACService{
		secret:    []byte(secret),
		expiresIn: expiresIn,
		now:       time.Now,
	}
}

func (s *HMACService) TTL() time.Duration { return s.expiresIn }

func (s *HMACService) Issue(role string, subjectID int64, email, sessionID string) (string, error) {
	if len(s.secret) == 0 || s.expiresIn <= 0 || !validRole(role) || subjectID <= 0 {
		return "", ErrTokenInvalid
	}
	now := s.now().UTC()

	c := Claims{
		SubjectID: subjectID,
		Email:     email,
		Role:      role,
		SessionID: sessionID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(s.expiresIn)),
			Subject:   role + ":" + strconv.FormatInt(subjectID, 10),
		},
	}

	t := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, c)
	return t.SignedString(s.secret)
}

func (s *HMACService) Validate(tokenString string) (Claims, error) {
	p := jwtlib.NewParser(
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(s.now),
	)

	var c Claims
	tok, err := p.ParseWithClaims(tokenString, &c, func(token *jwtlib.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if tok == nil || !tok.Valid {
		return Claims{}, ErrTokenInvalid
	}
	if !validRole(c.Role) || c.SubjectID <= 0 {
		return Claims{}, ErrTokenInvalid
	}
	return c, nil
}

func validRole(role string) bool {
	return role == RoleCandidate || role == RoleEmployer
}
