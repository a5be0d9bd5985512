package keystore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	migrations "github.com/dropDatabas3/tokensmith/migrations/postgres"
)

// pgQuerier es el subconjunto de *pgxpool.Pool que usa PGStore.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PGStore persiste pares en Postgres (tabla signing_keys).
type PGStore struct {
	db     pgQuerier
	pool   *pgxpool.Pool
	sealer Sealer
}

// OpenPGStore abre un pool contra dsn y asegura el schema.
func OpenPGStore(ctx context.Context, dsn string, maxConns int32, sealer Sealer) (*PGStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, wrapErr("postgres", "open", "", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, wrapErr("postgres", "open", "", err)
	}
	s := &PGStore{db: pool, pool: pool, sealer: sealer}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPGStore envuelve un pool existente (no crea schema).
func NewPGStore(pool *pgxpool.Pool, sealer Sealer) *PGStore {
	return &PGStore{db: pool, pool: pool, sealer: sealer}
}

// EnsureSchema aplica las migraciones embebidas (todas idempotentes).
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	stmts, err := migrations.Ordered()
	if err != nil {
		return wrapErr("postgres", "ensure_schema", "", err)
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return wrapErr("postgres", "ensure_schema", "", err)
		}
	}
	return nil
}

func (s *PGStore) Put(ctx context.Context, p KeyPair) error {
	if err := p.Validate(); err != nil {
		return wrapErr("postgres", "put", p.ID, err)
	}
	priv := string(p.PrivateKey)
	sealed := false
	if s.sealer != nil {
		enc, err := s.sealer.Seal(p.PrivateKey)
		if err != nil {
			return wrapErr("postgres", "put", p.ID, fmt.Errorf("seal private key: %w", err))
		}
		priv, sealed = enc, true
	}
	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	const q = `
INSERT INTO signing_keys (kid, alg, public_key, private_key, sealed, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (kid) DO UPDATE
SET alg = EXCLUDED.alg, public_key = EXCLUDED.public_key,
    private_key = EXCLUDED.private_key, sealed = EXCLUDED.sealed`
	_, err := s.db.Exec(ctx, q, p.ID, string(p.Algorithm), string(p.PublicKey), priv, sealed, created)
	return wrapErr("postgres", "put", p.ID, err)
}

func (s *PGStore) ListAll(ctx context.Context) ([]KeyPair, error) {
	const q = `SELECT kid, alg, public_key, private_key, sealed, created_at FROM signing_keys`
	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, wrapErr("postgres", "list", "", err)
	}
	defer rows.Close()

	var out []KeyPair
	for rows.Next() {
		var (
			kid, alg, pub, priv string
			sealed              bool
			created             time.Time
		)
		if err := rows.Scan(&kid, &alg, &pub, &priv, &sealed, &created); err != nil {
			return nil, wrapErr("postgres", "scan", "", err)
		}
		privBytes := []byte(priv)
		if sealed {
			if s.sealer == nil {
				return nil, wrapErr("postgres", "decode", kid, errSealerRequired)
			}
			if privBytes, err = s.sealer.Open(priv); err != nil {
				return nil, wrapErr("postgres", "decode", kid, fmt.Errorf("open private key: %w", err))
			}
		}
		p := KeyPair{ID: kid, Algorithm: Algorithm(alg), PublicKey: []byte(pub), PrivateKey: privBytes, CreatedAt: created.UTC()}
		if err := p.Validate(); err != nil {
			return nil, wrapErr("postgres", "decode", kid, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("postgres", "list", "", err)
	}
	return out, nil
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM signing_keys WHERE kid = $1`, id)
	return wrapErr("postgres", "delete", id, err)
}

func (s *PGStore) Ping(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	return wrapErr("postgres", "ping", "", s.pool.Ping(ctx))
}

// Close cierra el pool si fue abierto por OpenPGStore.
func (s *PGStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
