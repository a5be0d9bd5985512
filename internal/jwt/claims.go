package jwt

import (
	"encoding/json"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// ClaimKind identifica la variante de un ClaimValue.
type ClaimKind uint8

const (
	KindString ClaimKind = iota + 1
	KindNumber
	KindBool
	KindObject
)

// ClaimValue es un valor de claim extra: string, número, bool o un objeto anidado.
// El valor cero no es válido; usar los constructores.
type ClaimValue struct {
	kind ClaimKind
	str  string
	num  float64
	b    bool
	obj  Claims
}

func StringClaim(s string) ClaimValue     { return ClaimValue{kind: KindString, str: s} }
func NumberClaim(n float64) ClaimValue    { return ClaimValue{kind: KindNumber, num: n} }
func BoolClaim(b bool) ClaimValue         { return ClaimValue{kind: KindBool, b: b} }
func ObjectClaim(c Claims) ClaimValue     { return ClaimValue{kind: KindObject, obj: c.clone()} }
func (v ClaimValue) Kind() ClaimKind      { return v.kind }
func (v ClaimValue) IsZero() bool         { return v.kind == 0 }
func (v ClaimValue) Str() (string, bool)  { return v.str, v.kind == KindString }
func (v ClaimValue) Num() (float64, bool) { return v.num, v.kind == KindNumber }
func (v ClaimValue) Bool() (bool, bool)   { return v.b, v.kind == KindBool }

// Object devuelve una copia del objeto anidado.
func (v ClaimValue) Object() (Claims, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.obj.clone(), true
}

// Any devuelve la representación JSON-compatible (string, float64, bool, map[string]any).
func (v ClaimValue) Any() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindObject:
		return v.obj.toMap()
	}
	return nil
}

func (v ClaimValue) MarshalJSON() ([]byte, error) {
	if v.kind == 0 {
		return nil, fmt.Errorf("empty claim value")
	}
	return json.Marshal(v.Any())
}

func (v *ClaimValue) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	cv, err := ClaimFromAny(raw)
	if err != nil {
		return err
	}
	*v = cv
	return nil
}

// ClaimFromAny convierte un valor decodificado de JSON a ClaimValue.
// Arrays y null no tienen variante y se rechazan.
func ClaimFromAny(x any) (ClaimValue, error) {
	switch t := x.(type) {
	case string:
		return StringClaim(t), nil
	case bool:
		return BoolClaim(t), nil
	case float64:
		return NumberClaim(t), nil
	case int:
		return NumberClaim(float64(t)), nil
	case int64:
		return NumberClaim(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return ClaimValue{}, err
		}
		return NumberClaim(f), nil
	case map[string]any:
		c := make(Claims, len(t))
		for k, v := range t {
			cv, err := ClaimFromAny(v)
			if err != nil {
				return ClaimValue{}, fmt.Errorf("%s: %w", k, err)
			}
			c[k] = cv
		}
		return ClaimValue{kind: KindObject, obj: c}, nil
	}
	return ClaimValue{}, fmt.Errorf("unsupported claim type %T", x)
}

// Claims son los claims extra de un token.
type Claims map[string]ClaimValue

func (c Claims) clone() Claims {
	out := make(Claims, len(c))
	for k, v := range c {
		if v.kind == KindObject {
			v.obj = v.obj.clone()
		}
		out[k] = v
	}
	return out
}

func (c Claims) toMap() map[string]any {
	out := make(map[string]any, len(c))
	for k, v := range c {
		if v.kind == 0 {
			continue
		}
		out[k] = v.Any()
	}
	return out
}

// Nombres registrados que el servicio siempre controla.
const (
	ClaimSubject   = "sub"
	ClaimIssuer    = "iss"
	ClaimAudience  = "aud"
	ClaimIssuedAt  = "iat"
	ClaimNotBefore = "nbf"
	ClaimExpiresAt = "exp"
	ClaimID        = "jti"
)

var reservedClaims = map[string]struct{}{
	ClaimSubject: {}, ClaimIssuer: {}, ClaimAudience: {}, ClaimIssuedAt: {},
	ClaimNotBefore: {}, ClaimExpiresAt: {}, ClaimID: {},
}

// IsReserved indica si name es un claim registrado (los valores del caller se descartan).
func IsReserved(name string) bool {
	_, ok := reservedClaims[name]
	return ok
}

// Payload es el contenido decodificado de un token.
type Payload struct {
	Subject   string
	Issuer    string
	Audience  string
	IssuedAt  time.Time
	NotBefore time.Time
	ExpiresAt time.Time
	ID        string
	Extra     Claims
}

// MapClaims arma los claims del token. Los reservados se escriben al final y pisan a Extra.
func (p Payload) MapClaims() jwtv5.MapClaims {
	m := jwtv5.MapClaims(p.Extra.toMap())
	m[ClaimSubject] = p.Subject
	m[ClaimIssuer] = p.Issuer
	m[ClaimAudience] = p.Audience
	m[ClaimIssuedAt] = p.IssuedAt.Unix()
	m[ClaimNotBefore] = p.NotBefore.Unix()
	m[ClaimExpiresAt] = p.ExpiresAt.Unix()
	m[ClaimID] = p.ID
	return m
}

// MarshalJSON serializa el payload plano, igual que viaja en el token.
func (p Payload) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any(p.MapClaims()))
}

// payloadFromClaims decodifica MapClaims ya verificados por firma.
func payloadFromClaims(m jwtv5.MapClaims) (Payload, error) {
	var p Payload
	var err error
	if p.Subject, err = m.GetSubject(); err != nil {
		return Payload{}, err
	}
	if p.Issuer, err = m.GetIssuer(); err != nil {
		return Payload{}, err
	}
	aud, err := m.GetAudience()
	if err != nil {
		return Payload{}, err
	}
	if len(aud) > 0 {
		p.Audience = aud[0]
	}
	for _, f := range []struct {
		get func() (*jwtv5.NumericDate, error)
		dst *time.Time
	}{
		{m.GetIssuedAt, &p.IssuedAt},
		{m.GetNotBefore, &p.NotBefore},
		{m.GetExpirationTime, &p.ExpiresAt},
	} {
		d, err := f.get()
		if err != nil {
			return Payload{}, err
		}
		if d != nil {
			*f.dst = unixUTC(d.Time)
		}
	}
	if jti, ok := m[ClaimID]; ok {
		s, ok := jti.(string)
		if !ok {
			return Payload{}, fmt.Errorf("%w: jti must be a string", jwtv5.ErrInvalidType)
		}
		p.ID = s
	}
	p.Extra = make(Claims, len(m))
	for k, v := range m {
		if IsReserved(k) {
			continue
		}
		cv, err := ClaimFromAny(v)
		if err != nil {
			return Payload{}, fmt.Errorf("claim %s: %w", k, err)
		}
		p.Extra[k] = cv
	}
	return p, nil
}

// unixUTC trunca a segundos, que es la resolución de los NumericDate.
func unixUTC(t time.Time) time.Time { return time.Unix(t.Unix(), 0).UTC() }
