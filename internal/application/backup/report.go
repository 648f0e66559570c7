package backup

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Policy política de fallos de una restauración.
type Policy string

const (
	// PolicyIsolated una transacción por etapa y un savepoint por entidad; los fallos se contienen.
	PolicyIsolated Policy = "isolated"
	// PolicyAtomic una única transacción para todas las etapas que modifican datos.
	PolicyAtomic Policy = "atomic"
)

// ParsePolicy interpreta el nombre de la política; vacío devuelve def.
func ParsePolicy(s string, def Policy) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return def, nil
	case PolicyIsolated, PolicyAtomic:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
	}
}

// Stage etapa de la restauración.
type Stage string

// Etapas en orden de ejecución.
const (
	StageValidate     Stage = "validate"
	StageSafetyBackup Stage = "safety_backup"
	StageClear        Stage = "clear"
	StageRoles        Stage = "roles"
	StageCompany      Stage = "company"
	StageCustomers    Stage = "customers"
	StageUsers        Stage = "users"
	StageInvoices     Stage = "invoices"
	StageLoginAudits  Stage = "login_audits"
)

// Status resultado global.
type Status string

const (
	StatusFull    Status = "full"
	StatusPartial Status = "partial"
)

// StageResult contadores de una etapa. Gaps cuenta referencias que no se pudieron resolver.
type StageResult struct {
	Stage    Stage  `json:"stage"`
	Restored int    `json:"restored"`
	Failed   int    `json:"failed"`
	Gaps     int    `json:"gaps"`
	Error    string `json:"error,omitempty"`
}

// OK la etapa terminó sin errores ni entidades fallidas.
func (r StageResult) OK() bool {
	return r.Error == "" && r.Failed == 0
}

// RestoreReport resumen de una restauración terminada (completa o parcial).
type RestoreReport struct {
	ID           uuid.UUID     `json:"id"`
	File         string        `json:"file"`
	Policy       Policy        `json:"policy"`
	SafetyBackup string        `json:"safetyBackup,omitempty"`
	StartedAt    time.Time     `json:"startedAt"`
	FinishedAt   time.Time     `json:"finishedAt"`
	Stages       []StageResult `json:"stages"`
}

// Status full solo si todas las etapas terminaron bien.
func (r *RestoreReport) Status() Status {
	for _, s := range r.Stages {
		if !s.OK() {
			return StatusPartial
		}
	}
	return StatusFull
}

// Gaps total de referencias sin resolver.
func (r *RestoreReport) Gaps() int {
	n := 0
	for _, s := range r.Stages {
		n += s.Gaps
	}
	return n
}

// Message texto corto para mostrar al operador.
func (r *RestoreReport) Message() string {
	if r.Status() == StatusFull {
		if gaps := r.Gaps(); gaps > 0 {
			return fmt.Sprintf("Copia %s restaurada; %d referencias sin resolver, consulte los logs (restore_id=%s)", r.File, gaps, r.ID)
		}
		return fmt.Sprintf("Copia %s restaurada correctamente", r.File)
	}
	var failed []string
	for _, s := range r.Stages {
		if !s.OK() {
			failed = append(failed, string(s.Stage))
		}
	}
	return fmt.Sprintf("Copia %s restaurada parcialmente (etapas con errores: %s); consulte los logs (restore_id=%s)",
		r.File, strings.Join(failed, ", "), r.ID)
}

func (r *RestoreReport) stage(s Stage) *StageResult {
	for i := range r.Stages {
		if r.Stages[i].Stage == s {
			return &r.Stages[i]
		}
	}
	r.Stages = append(r.Stages, StageResult{Stage: s})
	return &r.Stages[len(r.Stages)-1]
}
