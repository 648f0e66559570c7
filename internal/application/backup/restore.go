package backup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/facturacion-app/internal/domain/repository"
)

// idMap ID del snapshot -> ID vivo. Vive solo durante una restauración.
type idMap map[int64]int64

// Restore reconstruye el almacén desde el archivo name con la política indicada (vacía = la configurada).
//
// Con PolicyIsolated devuelve siempre el informe (Status dice si fue completa o parcial) y error nil,
// salvo que falle la validación o la copia previa. Con PolicyAtomic cualquier fallo deshace todo y
// devuelve un *StageError junto con el informe.
func (s *Service) Restore(ctx context.Context, name string, policy Policy) (*RestoreReport, error) {
	if policy == "" {
		policy = s.opts.Policy
	}
	if policy != PolicyIsolated && policy != PolicyAtomic {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPolicy, policy)
	}
	start := time.Now()
	report := &RestoreReport{ID: uuid.New(), File: name, Policy: policy, StartedAt: s.opts.Now()}
	log := s.log.With().
		Str("restore_id", report.ID.String()).
		Str("file", name).
		Str("policy", string(policy)).
		Logger()

	report, err := s.restore(ctx, report, log)
	operationDuration.WithLabelValues("restore").Observe(time.Since(start).Seconds())
	switch {
	case err != nil:
		operationsTotal.WithLabelValues("restore", "error").Inc()
		log.Error().Err(err).Msg("restauración fallida")
	case report.Status() == StatusPartial:
		operationsTotal.WithLabelValues("restore", "partial").Inc()
		log.Warn().Msg(report.Message())
	default:
		operationsTotal.WithLabelValues("restore", "ok").Inc()
		log.Info().Int("gaps", report.Gaps()).Msg(report.Message())
	}
	return report, err
}

func (s *Service) restore(ctx context.Context, report *RestoreReport, log zerolog.Logger) (*RestoreReport, error) {
	log.Info().Str("stage", string(StageValidate)).Msg("etapa iniciada")
	snap, err := s.load(ctx, report.File)
	if err != nil {
		return nil, err
	}

	if s.opts.PreRestoreBackup {
		log.Info().Str("stage", string(StageSafetyBackup)).Msg("etapa iniciada")
		safety, err := s.CreateBackup(ctx)
		if err != nil {
			return nil, fmt.Errorf("copia previa a la restauración: %w", err)
		}
		report.SafetyBackup = safety
		log.Info().Str("stage", string(StageSafetyBackup)).Str("safety_backup", safety).Msg("etapa terminada")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.opts.TemporaryPassword), s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash contraseña temporal: %w", err)
	}

	run := &restoreRun{
		svc:      s,
		snap:     snap,
		report:   report,
		log:      log,
		atomic:   report.Policy == PolicyAtomic,
		tempHash: string(hash),
	}
	if run.atomic {
		err = run.runAtomic(ctx)
	} else {
		run.runIsolated(ctx)
	}
	report.FinishedAt = s.opts.Now()
	for _, st := range report.Stages {
		observeStage(st)
	}
	return report, err
}

// restoreRun estado privado de una restauración. Los mapas de IDs no se guardan aquí:
// cada etapa los recibe y devuelve explícitamente.
type restoreRun struct {
	svc      *Service
	snap     *Snapshot
	report   *RestoreReport
	log      zerolog.Logger
	atomic   bool
	tempHash string
}

// runIsolated una transacción por etapa; el fallo de una etapa no impide las siguientes.
// El mapa que produce una etapa fallida se descarta porque su transacción no se confirmó.
func (r *restoreRun) runIsolated(ctx context.Context) {
	r.clearIsolated(ctx)

	var roleMap, customerMap idMap
	if err := r.inTx(ctx, StageRoles, func(uow repository.UnitOfWork) (err error) {
		roleMap, err = r.restoreRoles(ctx, uow)
		return err
	}); err != nil {
		roleMap = idMap{}
	}
	_ = r.inTx(ctx, StageCompany, func(uow repository.UnitOfWork) error {
		return r.restoreCompany(ctx, uow)
	})
	if err := r.inTx(ctx, StageCustomers, func(uow repository.UnitOfWork) (err error) {
		customerMap, err = r.restoreCustomers(ctx, uow)
		return err
	}); err != nil {
		customerMap = idMap{}
	}
	_ = r.inTx(ctx, StageUsers, func(uow repository.UnitOfWork) error {
		return r.restoreUsers(ctx, uow, roleMap)
	})
	_ = r.inTx(ctx, StageInvoices, func(uow repository.UnitOfWork) error {
		return r.restoreInvoices(ctx, uow, customerMap)
	})
	_ = r.inTx(ctx, StageLoginAudits, func(uow repository.UnitOfWork) error {
		return r.restoreLoginAudits(ctx, uow)
	})
}

// inTx ejecuta una etapa en su propia transacción y registra el resultado.
func (r *restoreRun) inTx(ctx context.Context, stage Stage, fn func(uow repository.UnitOfWork) error) error {
	res := r.begin(stage)
	err := r.svc.tx.RunInTx(ctx, repository.TxOptions{}, fn)
	if err != nil {
		res.Restored = 0
		res.Error = err.Error()
		r.log.Error().Err(err).Str("stage", string(stage)).Msg("etapa fallida, se continúa con la siguiente")
		return err
	}
	r.finish(stage)
	return nil
}

// runAtomic todas las etapas en una transacción; el primer fallo la deshace por completo.
func (r *restoreRun) runAtomic(ctx context.Context) error {
	var failed Stage
	err := r.svc.tx.RunInTx(ctx, repository.TxOptions{}, func(uow repository.UnitOfWork) error {
		step := func(stage Stage, fn func() error) error {
			r.begin(stage)
			if err := fn(); err != nil {
				failed = stage
				return err
			}
			r.finish(stage)
			return nil
		}

		if err := step(StageClear, func() error { return r.clearAtomic(ctx, uow) }); err != nil {
			return err
		}
		var roleMap, customerMap idMap
		if err := step(StageRoles, func() (err error) {
			roleMap, err = r.restoreRoles(ctx, uow)
			return err
		}); err != nil {
			return err
		}
		if err := step(StageCompany, func() error { return r.restoreCompany(ctx, uow) }); err != nil {
			return err
		}
		if err := step(StageCustomers, func() (err error) {
			customerMap, err = r.restoreCustomers(ctx, uow)
			return err
		}); err != nil {
			return err
		}
		if err := step(StageUsers, func() error { return r.restoreUsers(ctx, uow, roleMap) }); err != nil {
			return err
		}
		if err := step(StageInvoices, func() error { return r.restoreInvoices(ctx, uow, customerMap) }); err != nil {
			return err
		}
		return step(StageLoginAudits, func() error { return r.restoreLoginAudits(ctx, uow) })
	})
	if err == nil {
		return nil
	}

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		if failed == "" {
			failed = StageClear
		}
		stageErr = &StageError{Stage: failed, Err: err}
	}
	// nada de lo contado llegó a confirmarse
	for i := range r.report.Stages {
		r.report.Stages[i].Restored = 0
		r.report.Stages[i].Gaps = 0
	}
	r.report.stage(stageErr.Stage).Error = stageErr.Err.Error()
	r.log.Error().Err(stageErr.Err).Str("stage", string(stageErr.Stage)).Msg("restauración atómica deshecha")
	return stageErr
}

func (r *restoreRun) begin(stage Stage) *StageResult {
	r.log.Info().Str("stage", string(stage)).Msg("etapa iniciada")
	return r.report.stage(stage)
}

func (r *restoreRun) finish(stage Stage) {
	res := r.report.stage(stage)
	r.log.Info().
		Str("stage", string(stage)).
		Int("restored", res.Restored).
		Int("failed", res.Failed).
		Int("gaps", res.Gaps).
		Msg("etapa terminada")
}

// entity aplica la política a una entidad. En modo aislado usa un savepoint propio y el fallo
// se cuenta y se registra sin devolver error; en modo atómico el error aborta la etapa.
func (r *restoreRun) entity(ctx context.Context, uow repository.UnitOfWork, stage Stage, desc string, fn func(repos repository.Repositories) error) error {
	var err error
	if r.atomic {
		err = fn(uow.Repos())
	} else {
		err = uow.Savepoint(ctx, fn)
	}
	res := r.report.stage(stage)
	if err == nil {
		res.Restored++
		return nil
	}
	res.Failed++
	r.log.Error().Err(err).Str("stage", string(stage)).Str("entity", desc).Msg("no se pudo restaurar la entidad")
	if r.atomic {
		return fmt.Errorf("%s: %w", desc, err)
	}
	return nil
}

// clearIsolated borra cada grupo en su propia transacción; un fallo no impide los demás.
func (r *restoreRun) clearIsolated(ctx context.Context) {
	res := r.begin(StageClear)
	var failed []string
	for _, step := range r.clearSteps() {
		err := r.svc.tx.RunInTx(ctx, repository.TxOptions{}, func(uow repository.UnitOfWork) error {
			return step.fn(ctx, uow.Repos())
		})
		if err != nil {
			failed = append(failed, step.name)
			r.log.Error().Err(err).Str("stage", string(StageClear)).Str("group", step.name).Msg("no se pudo vaciar el grupo")
		}
	}
	if len(failed) > 0 {
		res.Error = "grupos sin vaciar: " + strings.Join(failed, ", ")
		return
	}
	r.finish(StageClear)
}

// clearAtomic intenta todos los grupos (cada uno en un savepoint) y falla si alguno no se pudo vaciar.
func (r *restoreRun) clearAtomic(ctx context.Context, uow repository.UnitOfWork) error {
	var errs []error
	for _, step := range r.clearSteps() {
		if err := uow.Savepoint(ctx, func(repos repository.Repositories) error {
			return step.fn(ctx, repos)
		}); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
		}
	}
	return errors.Join(errs...)
}

type clearStep struct {
	name string
	fn   func(ctx context.Context, repos repository.Repositories) error
}

// clearSteps orden de borrado: las facturas (y sus ítems) antes que clientes y usuarios.
// Los roles no se borran; la empresa se vacía conservando su ID.
func (r *restoreRun) clearSteps() []clearStep {
	return []clearStep{
		{"invoices", func(ctx context.Context, repos repository.Repositories) error { return repos.Invoices.DeleteAll(ctx) }},
		{"users", func(ctx context.Context, repos repository.Repositories) error { return repos.Users.DeleteAll(ctx) }},
		{"customers", func(ctx context.Context, repos repository.Repositories) error { return repos.Customers.DeleteAll(ctx) }},
		{"login_audits", func(ctx context.Context, repos repository.Repositories) error { return repos.LoginAudits.DeleteAll(ctx) }},
		{"company", func(ctx context.Context, repos repository.Repositories) error {
			c, err := repos.Companies.Get(ctx)
			if err != nil || c == nil {
				return err
			}
			c.Blank()
			return repos.Companies.Update(ctx, c)
		}},
	}
}
