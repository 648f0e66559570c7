package backup

import (
	"errors"
	"fmt"
)

// Errores del subsistema de copias de seguridad.
var (
	// ErrBackupNotFound el archivo indicado no existe (o su nombre no es válido).
	ErrBackupNotFound = errors.New("copia de seguridad no encontrada")
	// ErrInvalidSnapshot el archivo no se puede interpretar como snapshot soportado.
	ErrInvalidSnapshot = errors.New("snapshot inválido")
	// ErrBackupWrite no se pudo leer el estado o escribir el archivo.
	ErrBackupWrite = errors.New("error al crear la copia de seguridad")
	// ErrRestoreAborted la restauración atómica falló y se deshizo por completo.
	ErrRestoreAborted = errors.New("restauración abortada")
	// ErrInvalidPolicy política de restauración desconocida.
	ErrInvalidPolicy = errors.New("política de restauración inválida")
)

// StageError fallo de una etapa que aborta la restauración.
// errors.Is reconoce tanto ErrRestoreAborted como la causa.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: etapa %s: %v", ErrRestoreAborted, e.Stage, e.Err)
}

func (e *StageError) Unwrap() []error {
	return []error{ErrRestoreAborted, e.Err}
}
