// Package migrations embebe el schema SQL del keystore Postgres.
package migrations

import (
	"embed"
	"io/fs"
	"sort"
)

//go:embed sql/*.sql
var FS embed.FS

// Dir es el directorio dentro de FS donde viven las migraciones.
const Dir = "sql"

// Ordered devuelve el contenido de cada migración en orden lexicográfico de nombre.
func Ordered() ([]string, error) {
	entries, err := fs.ReadDir(FS, Dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make([]string, 0, len(names))
	for _, n := range names {
		b, err := FS.ReadFile(Dir + "/" + n)
		if err != nil {
			return nil, err
		}
		out = append(out, string(b))
	}
	return out, nil
}
