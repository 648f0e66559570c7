package dto

import "time"

// BackupFileResponse entrada del catálogo de copias.
type BackupFileResponse struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateBackupResponse salida de la creación de una copia.
type CreateBackupResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// RestoreStageResponse contadores de una etapa.
type RestoreStageResponse struct {
	Stage    string `json:"stage"`
	Restored int    `json:"restored"`
	Failed   int    `json:"failed"`
	Gaps     int    `json:"gaps"`
	Error    string `json:"error,omitempty"`
}

// RestoreResponse resumen de una restauración.
type RestoreResponse struct {
	RestoreID    string                 `json:"restoreId"`
	File         string                 `json:"file"`
	Policy       string                 `json:"policy"`
	Status       string                 `json:"status"` // full | partial
	Message      string                 `json:"message"`
	SafetyBackup string                 `json:"safetyBackup,omitempty"`
	Stages       []RestoreStageResponse `json:"stages"`
}
