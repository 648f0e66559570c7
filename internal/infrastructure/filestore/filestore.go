// Package filestore guarda las copias de seguridad en un directorio local.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/jhoicas/facturacion-app/internal/domain"
	"github.com/jhoicas/facturacion-app/internal/domain/entity"
	"github.com/jhoicas/facturacion-app/internal/domain/repository"
)

// TimestampLayout parte fecha-hora del nombre de archivo.
const TimestampLayout = "20060102_150405"

// maxSuffix cabe en el sufijo de tres dígitos.
const maxSuffix = 1000

// El sufijo de colisión lleva tres dígitos para que el orden lexicográfico sea el de creación.
var namePattern = regexp.MustCompile(`^backup_\d{8}_\d{6}(?:_\d{3})?\.json$`)

var _ repository.BackupStorage = (*Store)(nil)

// Store directorio de copias de seguridad.
type Store struct {
	dir string
}

// New crea el adaptador; el directorio se crea al primer Save.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// FileName nombre canónico para el instante at (hora local).
func FileName(at time.Time, suffix int) string {
	if suffix == 0 {
		return fmt.Sprintf("backup_%s.json", at.Format(TimestampLayout))
	}
	return fmt.Sprintf("backup_%s_%03d.json", at.Format(TimestampLayout), suffix)
}

// ValidName informa si name cumple el formato de nombre de copia.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// Path ruta completa del archivo.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *Store) checkName(name string) error {
	if !ValidName(name) {
		return fmt.Errorf("%w: nombre de copia de seguridad %q", domain.ErrInvalidInput, name)
	}
	return nil
}

// Save escribe en un temporal del mismo directorio y lo enlaza con el nombre final.
// El enlace falla si el nombre ya existe, en cuyo caso se prueba con el sufijo siguiente;
// así nunca se sobrescribe una copia ni queda visible un archivo a medio escribir.
func (s *Store) Save(ctx context.Context, at time.Time, data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("crear directorio de copias: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, ".backup-*.tmp")
	if err != nil {
		return "", fmt.Errorf("crear temporal: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("escribir temporal: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("sync temporal: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("cerrar temporal: %w", err)
	}

	for suffix := 0; suffix < maxSuffix; suffix++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		name := FileName(at, suffix)
		err := os.Link(tmpPath, s.Path(name))
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("publicar %s: %w", name, err)
		}
	}
	return "", fmt.Errorf("publicar copia: demasiadas copias en el mismo segundo")
}

// Read devuelve el contenido completo de la copia.
func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	rc, _, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("leer %s: %w", name, err)
	}
	return data, nil
}

// Open abre la copia para lectura.
func (s *Store) Open(_ context.Context, name string) (io.ReadCloser, entity.BackupFile, error) {
	if err := s.checkName(name); err != nil {
		return nil, entity.BackupFile{}, err
	}
	f, err := os.Open(s.Path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, entity.BackupFile{}, fmt.Errorf("%w: %s", domain.ErrNotFound, name)
		}
		return nil, entity.BackupFile{}, fmt.Errorf("abrir %s: %w", name, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, entity.BackupFile{}, fmt.Errorf("stat %s: %w", name, err)
	}
	return f, entity.BackupFile{Name: name, Size: st.Size(), ModTime: st.ModTime()}, nil
}

// List devuelve las copias del directorio, la más reciente primero. Un directorio inexistente es una lista vacía.
func (s *Store) List(_ context.Context) ([]entity.BackupFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []entity.BackupFile{}, nil
		}
		return nil, fmt.Errorf("listar copias: %w", err)
	}
	files := make([]entity.BackupFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !ValidName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // borrado entre ReadDir e Info
		}
		files = append(files, entity.BackupFile{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Name > files[j].Name
	})
	return files, nil
}

// Delete borra la copia.
func (s *Store) Delete(_ context.Context, name string) error {
	if err := s.checkName(name); err != nil {
		return err
	}
	if err := os.Remove(s.Path(name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, name)
		}
		return fmt.Errorf("borrar %s: %w", name, err)
	}
	return nil
}
