package keystore

import (
	"context"
	"errors"

	"github.com/dropDatabas3/tokensmith/internal/observability/logger"
)

// HybridStore compone un store primario (ej. Postgres) con uno de respaldo (ej. FS).
//
//   - Put escribe primero en el primario y falla si el primario falla; el
//     respaldo es best-effort.
//   - ListAll lee del primario y cae al respaldo si el primario falla.
//   - Delete exige el primario arriba (Ping) antes de tocar nada; borra en el
//     respaldo y después en el primario. Si el primario falla, la copia del
//     respaldo se repone, así un Delete fallido deja los dos stores como estaban
//     y uno exitoso no deja la clave en ninguna de las dos lecturas.
//
// Con el primario caído al reiniciar, ListAll solo ve el respaldo: una clave
// cuyo Put al respaldo falló (solo se loguea) no aparece y queda activa la anterior.
type HybridStore struct {
	primary  KeyStore
	fallback KeyStore
}

func NewHybridStore(primary, fallback KeyStore) *HybridStore {
	return &HybridStore{primary: primary, fallback: fallback}
}

func (h *HybridStore) Put(ctx context.Context, p KeyPair) error {
	if err := h.primary.Put(ctx, p); err != nil {
		return wrapErr("hybrid", "put", p.ID, err)
	}
	if err := h.fallback.Put(ctx, p); err != nil {
		logger.L().Warn("hybrid keystore: fallback put failed",
			logger.KeyID(p.ID), logger.Err(err))
	}
	return nil
}

func (h *HybridStore) ListAll(ctx context.Context) ([]KeyPair, error) {
	pairs, err := h.primary.ListAll(ctx)
	if err == nil {
		return pairs, nil
	}
	logger.L().Warn("hybrid keystore: primary list failed, using fallback", logger.Err(err))
	pairs, errFallback := h.fallback.ListAll(ctx)
	if errFallback != nil {
		return nil, wrapErr("hybrid", "list", "", errors.Join(err, errFallback))
	}
	return pairs, nil
}

func (h *HybridStore) Delete(ctx context.Context, id string) error {
	if err := ping(ctx, h.primary); err != nil {
		return wrapErr("hybrid", "delete", id, err)
	}
	backup, err := find(ctx, h.fallback, id)
	if err != nil {
		return wrapErr("hybrid", "delete", id, err)
	}
	if err := h.fallback.Delete(ctx, id); err != nil {
		return wrapErr("hybrid", "delete", id, err)
	}
	if err := h.primary.Delete(ctx, id); err != nil {
		if backup != nil {
			if errRestore := h.fallback.Put(ctx, *backup); errRestore != nil {
				logger.L().Error("hybrid keystore: fallback restore failed",
					logger.KeyID(id), logger.Err(errRestore))
				err = errors.Join(err, errRestore)
			}
		}
		return wrapErr("hybrid", "delete", id, err)
	}
	return nil
}

// find devuelve el par con ese id en s, o nil si no está.
func find(ctx context.Context, s KeyStore, id string) (*KeyPair, error) {
	pairs, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range pairs {
		if pairs[i].ID == id {
			return &pairs[i], nil
		}
	}
	return nil, nil
}

// Ping está ok si al menos uno de los dos responde.
func (h *HybridStore) Ping(ctx context.Context) error {
	errPrimary := ping(ctx, h.primary)
	if errPrimary == nil {
		return nil
	}
	if errFallback := ping(ctx, h.fallback); errFallback != nil {
		return wrapErr("hybrid", "ping", "", errors.Join(errPrimary, errFallback))
	}
	return nil
}

func ping(ctx context.Context, s KeyStore) error {
	if p, ok := s.(Pinger); ok {
		return p.Ping(ctx)
	}
	_, err := s.ListAll(ctx)
	return err
}

// Ping chequea un KeyStore cualquiera: usa Pinger si lo implementa, si no ListAll.
func Ping(ctx context.Context, s KeyStore) error { return ping(ctx, s) }
