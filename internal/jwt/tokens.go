package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/dropDatabas3/tokensmith/internal/keystore"
	"github.com/dropDatabas3/tokensmith/internal/metrics"
	"github.com/dropDatabas3/tokensmith/internal/observability/logger"
)

// DefaultTokenTTL se usa cuando ni la config ni el caller indican duración.
const DefaultTokenTTL = 900 * time.Second

// TokenServiceConfig: issuer/audience por defecto y TTL.
type TokenServiceConfig struct {
	Issuer   string
	Audience string
	TTL      time.Duration
	Metrics  *metrics.Metrics
	Clock    func() time.Time
}

// TokenService emite tokens con la clave activa del ring y los verifica por kid.
type TokenService struct {
	ring     *KeyRing
	issuer   string
	audience string
	ttl      time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time
	log      *zap.Logger

	// kid → *parsedKey. Los kids son únicos, así que una entrada nunca queda desactualizada;
	// una clave removida deja de resolverse en el ring antes de llegar acá.
	parsed *gocache.Cache
}

func NewTokenService(ring *KeyRing, cfg TokenServiceConfig) *TokenService {
	s := &TokenService{
		ring:     ring,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TTL,
		metrics:  cfg.Metrics,
		now:      cfg.Clock,
		log:      logger.Named("tokens"),
		parsed:   gocache.New(30*time.Minute, 10*time.Minute),
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTokenTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *TokenService) Issuer() string     { return s.issuer }
func (s *TokenService) Audience() string   { return s.audience }
func (s *TokenService) TTL() time.Duration { return s.ttl }
func (s *TokenService) Ring() *KeyRing     { return s.ring }

// IssuedToken es el resultado de IssueToken.
type IssuedToken struct {
	Token   string
	KeyID   string
	Payload Payload
}

// CreateToken firma un token para subject. ttl <= 0 usa el TTL configurado.
func (s *TokenService) CreateToken(subject string, claims Claims, ttl time.Duration) (string, error) {
	it, err := s.IssueToken(subject, claims, ttl)
	if err != nil {
		return "", err
	}
	return it.Token, nil
}

// IssueToken es CreateToken devolviendo además el kid y el payload firmado.
func (s *TokenService) IssueToken(subject string, claims Claims, ttl time.Duration) (*IssuedToken, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	pair, err := s.ring.SigningKey()
	if err != nil {
		return nil, err
	}
	key, err := s.parsedKey(pair)
	if err != nil {
		return nil, err
	}
	method, err := signingMethod(pair.Algorithm)
	if err != nil {
		return nil, err
	}
	jti, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	now := unixUTC(s.now())
	extra := make(Claims, len(claims))
	for k, v := range claims {
		if IsReserved(k) || v.IsZero() {
			continue
		}
		extra[k] = v
	}
	p := Payload{
		Subject:   subject,
		Issuer:    s.issuer,
		Audience:  s.audience,
		IssuedAt:  now,
		NotBefore: now,
		ExpiresAt: unixUTC(now.Add(ttl)),
		ID:        jti.String(),
		Extra:     extra.clone(),
	}

	tk := jwtv5.NewWithClaims(method, p.MapClaims())
	tk.Header["kid"] = pair.ID
	tk.Header["typ"] = "JWT"
	signed, err := tk.SignedString(key.priv)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.metrics.TokenIssued(string(pair.Algorithm))
	s.log.Debug("token issued", logger.KeyID(pair.ID), logger.Subject(subject), logger.TokenID(p.ID))
	return &IssuedToken{Token: signed, KeyID: pair.ID, Payload: p}, nil
}

// VerifyOptions ajusta VerifyToken. Audience/Issuer vacíos usan los configurados.
type VerifyOptions struct {
	Audience         string
	Issuer           string
	IgnoreExpiration bool
	ClockTolerance   time.Duration
}

// VerifyToken valida firma y claims y devuelve el payload.
//
// Orden: formato y kid (ErrInvalidTokenFormat), kid conocido (ErrUnknownKey),
// firma con el algoritmo de la clave, nbf, exp, aud, iss (*TokenVerificationError).
func (s *TokenService) VerifyToken(token string, opts *VerifyOptions) (Payload, error) {
	start := time.Now()
	p, kid, err := s.verify(token, opts)
	result := metrics.ResultOK
	if err != nil {
		result = verifyResult(err)
		s.log.Debug("token rejected", logger.KeyID(kid), logger.Reason(result), logger.Err(err))
	}
	s.metrics.TokenVerified(result, time.Since(start))
	return p, err
}

func (s *TokenService) verify(token string, opts *VerifyOptions) (Payload, string, error) {
	var o VerifyOptions
	if opts != nil {
		o = *opts
	}
	if o.Audience == "" {
		o.Audience = s.audience
	}
	if o.Issuer == "" {
		o.Issuer = s.issuer
	}

	unverified, _, err := jwtv5.NewParser().ParseUnverified(token, jwtv5.MapClaims{})
	if err != nil {
		return Payload{}, "", fmt.Errorf("%w: %v", ErrInvalidTokenFormat, err)
	}
	kid, _ := unverified.Header["kid"].(string)
	if kid == "" {
		return Payload{}, "", fmt.Errorf("%w: missing kid header", ErrInvalidTokenFormat)
	}

	pair, err := s.ring.VerificationKey(kid)
	if err != nil {
		return Payload{}, kid, err
	}
	key, err := s.parsedKey(pair)
	if err != nil {
		return Payload{}, kid, err
	}

	parser := jwtv5.NewParser(
		jwtv5.WithValidMethods([]string{string(pair.Algorithm)}),
		jwtv5.WithoutClaimsValidation(),
	)
	tok, err := parser.Parse(token, func(*jwtv5.Token) (any, error) { return key.pub, nil })
	if err != nil || !tok.Valid {
		if errors.Is(err, jwtv5.ErrTokenMalformed) {
			return Payload{}, kid, fmt.Errorf("%w: %v", ErrInvalidTokenFormat, err)
		}
		return Payload{}, kid, verificationErr(ReasonBadSignature, err)
	}
	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return Payload{}, kid, fmt.Errorf("%w: unexpected claims type", ErrInvalidTokenFormat)
	}
	p, err := payloadFromClaims(claims)
	if err != nil {
		return Payload{}, kid, fmt.Errorf("%w: %v", ErrInvalidTokenFormat, err)
	}

	now := s.now()
	tol := o.ClockTolerance
	if tol < 0 {
		tol = 0
	}
	if !p.NotBefore.IsZero() && now.Add(tol).Before(p.NotBefore) {
		return Payload{}, kid, verificationErr(ReasonNotYetValid, nil)
	}
	if !o.IgnoreExpiration && !p.ExpiresAt.IsZero() && !now.Add(-tol).Before(p.ExpiresAt) {
		return Payload{}, kid, verificationErr(ReasonExpired, nil)
	}
	if o.Audience != "" {
		aud, _ := claims.GetAudience()
		if !containsString(aud, o.Audience) {
			return Payload{}, kid, verificationErr(ReasonAudienceMismatch,
				fmt.Errorf("want %q", o.Audience))
		}
	}
	if o.Issuer != "" && p.Issuer != o.Issuer {
		return Payload{}, kid, verificationErr(ReasonIssuerMismatch, fmt.Errorf("want %q", o.Issuer))
	}
	return p, kid, nil
}

func (s *TokenService) parsedKey(pair keystore.KeyPair) (*parsedKey, error) {
	if v, ok := s.parsed.Get(pair.ID); ok {
		return v.(*parsedKey), nil
	}
	k, err := parseKeyPair(pair)
	if err != nil {
		return nil, err
	}
	s.parsed.SetDefault(pair.ID, k)
	return k, nil
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// verifyResult es el label de métricas/log para un error de verificación.
func verifyResult(err error) string {
	if r, ok := ReasonOf(err); ok {
		return string(r)
	}
	switch {
	case errors.Is(err, ErrInvalidTokenFormat):
		return "invalid-format"
	case errors.Is(err, ErrUnknownKey):
		return "unknown-key"
	case errors.Is(err, ErrRingNotReady):
		return "not-ready"
	}
	return metrics.ResultError
}
