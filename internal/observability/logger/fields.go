package logger

import (
	"time"

	"go.uber.org/zap"
)

// ─── HTTP ───

func RequestID(v string) zap.Field       { return zap.String("request_id", v) }
func Method(v string) zap.Field          { return zap.String("method", v) }
func Path(v string) zap.Field            { return zap.String("path", v) }
func Status(v int) zap.Field             { return zap.Int("status", v) }
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }
func ClientIP(v string) zap.Field        { return zap.String("client_ip", v) }

// ─── Claves y tokens ───

// KeyID identifica un par de claves (kid).
func KeyID(v string) zap.Field { return zap.String("kid", v) }

// Algorithm del par de claves (RS256 | ES256).
func Algorithm(v string) zap.Field { return zap.String("alg", v) }

// Subject de un token emitido.
func Subject(v string) zap.Field { return zap.String("sub", v) }

// TokenID (jti) de un token emitido.
func TokenID(v string) zap.Field { return zap.String("jti", v) }

// Reason de un rechazo de verificación.
func Reason(v string) zap.Field { return zap.String("reason", v) }

// Driver del keystore (memory, fs, postgres, redis, hybrid).
func Driver(v string) zap.Field { return zap.String("driver", v) }

// ─── Sistema ───

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Layer(v string) zap.Field     { return zap.String("layer", v) }
func Err(err error) zap.Field      { return zap.Error(err) }
func Count(v int) zap.Field        { return zap.Int("count", v) }

func String(key, v string) zap.Field  { return zap.String(key, v) }
func Int(key string, v int) zap.Field { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}
func Any(key string, v any) zap.Field { return zap.Any(key, v) }
