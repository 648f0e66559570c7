package entity

import "time"

// BackupFile archivo de copia de seguridad en el directorio configurado.
type BackupFile struct {
	Name    string
	Size    int64
	ModTime time.Time
}
