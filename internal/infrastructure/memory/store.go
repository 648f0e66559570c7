// Package memory implementa los puertos de repositorio en memoria, con transacciones y savepoints
// basados en copias del estado. Se usa en tests y con STORE_DRIVER=memory.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/jhoicas/facturacion-app/internal/domain/entity"
	"github.com/jhoicas/facturacion-app/internal/domain/repository"
)

// ErrReadOnly escritura dentro de una transacción de solo lectura.
var ErrReadOnly = errors.New("memory: transacción de solo lectura")

var _ repository.TxRunner = (*Store)(nil)

type userRow struct {
	user    entity.User // sin Roles
	roleIDs []int64
}

type data struct {
	nextID    int64
	company   *entity.Company
	roles     map[int64]entity.Role
	customers map[int64]entity.Customer
	users     map[int64]userRow
	invoices  map[int64]entity.Invoice // sin Customer ni Items
	items     map[int64]entity.InvoiceItem
	audits    []entity.LoginAudit
}

func newData() *data {
	return &data{
		roles:     make(map[int64]entity.Role),
		customers: make(map[int64]entity.Customer),
		users:     make(map[int64]userRow),
		invoices:  make(map[int64]entity.Invoice),
		items:     make(map[int64]entity.InvoiceItem),
	}
}

func (d *data) id() int64 {
	d.nextID++
	return d.nextID
}

func (d *data) clone() *data {
	c := newData()
	c.nextID = d.nextID
	if d.company != nil {
		co := *d.company
		c.company = &co
	}
	for k, v := range d.roles {
		c.roles[k] = v
	}
	for k, v := range d.customers {
		c.customers[k] = v
	}
	for k, v := range d.users {
		v.roleIDs = append([]int64(nil), v.roleIDs...)
		c.users[k] = v
	}
	for k, v := range d.invoices {
		if v.CustomerID != nil {
			id := *v.CustomerID
			v.CustomerID = &id
		}
		c.invoices[k] = v
	}
	for k, v := range d.items {
		c.items[k] = v
	}
	c.audits = append([]entity.LoginAudit(nil), d.audits...)
	return c
}

// handle acceso al estado: el comprometido (con mutex) o el de una transacción (ya bloqueada).
type handle struct {
	mu       *sync.Mutex
	d        *data
	readOnly bool
}

func (h *handle) read(fn func(d *data) error) error {
	if h.mu != nil {
		h.mu.Lock()
		defer h.mu.Unlock()
	}
	return fn(h.d)
}

func (h *handle) write(fn func(d *data) error) error {
	if h.readOnly {
		return ErrReadOnly
	}
	if h.mu == nil {
		return fn(h.d)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	// fuera de una transacción cada escritura es atómica
	work := h.d.clone()
	if err := fn(work); err != nil {
		return err
	}
	*h.d = *work
	return nil
}

// Store almacén en memoria. Las transacciones se serializan.
type Store struct {
	mu   sync.Mutex
	data *data
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{data: newData()}
}

// Repositories devuelve repos sobre el estado comprometido, sin transacción explícita.
func (s *Store) Repositories() repository.Repositories {
	return reposFor(&handle{mu: &s.mu, d: s.data})
}

// RunInTx ejecuta fn sobre una copia del estado y la publica solo si fn no devuelve error.
func (s *Store) RunInTx(ctx context.Context, opts repository.TxOptions, fn func(uow repository.UnitOfWork) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(&unitOfWork{h: &handle{d: work, readOnly: opts.ReadOnly}}); err != nil {
		return err
	}
	if !opts.ReadOnly {
		*s.data = *work
	}
	return nil
}

type unitOfWork struct {
	h *handle
}

func (u *unitOfWork) Repos() repository.Repositories {
	return reposFor(u.h)
}

func (u *unitOfWork) Savepoint(ctx context.Context, fn func(repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sp := &handle{d: u.h.d.clone(), readOnly: u.h.readOnly}
	if err := fn(reposFor(sp)); err != nil {
		return err
	}
	*u.h.d = *sp.d
	return nil
}

func reposFor(h *handle) repository.Repositories {
	return repository.Repositories{
		Companies:   &companyRepo{h: h},
		Roles:       &roleRepo{h: h},
		Customers:   &customerRepo{h: h},
		Users:       &userRepo{h: h},
		Invoices:    &invoiceRepo{h: h},
		LoginAudits: &loginAuditRepo{h: h},
	}
}
