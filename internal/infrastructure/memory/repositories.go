package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/facturacion-app/internal/domain"
	"github.com/jhoicas/facturacion-app/internal/domain/entity"
)

type companyRepo struct{ h *handle }

func (r *companyRepo) Get(_ context.Context) (*entity.Company, error) {
	var out *entity.Company
	err := r.h.read(func(d *data) error {
		if d.company != nil {
			c := *d.company
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *companyRepo) Create(_ context.Context, c *entity.Company) error {
	return r.h.write(func(d *data) error {
		c.ID = d.id()
		cp := *c
		d.company = &cp
		return nil
	})
}

func (r *companyRepo) Update(_ context.Context, c *entity.Company) error {
	return r.h.write(func(d *data) error {
		if d.company == nil || d.company.ID != c.ID {
			return domain.ErrNotFound
		}
		cp := *c
		d.company = &cp
		return nil
	})
}

type roleRepo struct{ h *handle }

func (r *roleRepo) Create(_ context.Context, role *entity.Role) error {
	return r.h.write(func(d *data) error {
		for _, existing := range d.roles {
			if existing.Name == role.Name {
				return fmt.Errorf("insert role: %w (roles_name_key)", domain.ErrDuplicate)
			}
		}
		role.ID = d.id()
		d.roles[role.ID] = *role
		return nil
	})
}

func (r *roleRepo) FindAll(_ context.Context) ([]*entity.Role, error) {
	var out []*entity.Role
	err := r.h.read(func(d *data) error {
		for _, id := range sortedKeys(d.roles) {
			role := d.roles[id]
			out = append(out, &role)
		}
		return nil
	})
	return out, err
}

func (r *roleRepo) FindByName(_ context.Context, name entity.RoleName) (*entity.Role, error) {
	var out *entity.Role
	err := r.h.read(func(d *data) error {
		for _, role := range d.roles {
			if role.Name == name {
				role := role
				out = &role
			}
		}
		return nil
	})
	return out, err
}

type customerRepo struct{ h *handle }

func (r *customerRepo) Create(_ context.Context, c *entity.Customer) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("insert customer: %w: name vacío", domain.ErrInvalidInput)
	}
	return r.h.write(func(d *data) error {
		c.ID = d.id()
		d.customers[c.ID] = *c
		return nil
	})
}

func (r *customerRepo) GetByID(_ context.Context, id int64) (*entity.Customer, error) {
	var out *entity.Customer
	err := r.h.read(func(d *data) error {
		if c, ok := d.customers[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *customerRepo) ExistsByID(ctx context.Context, id int64) (bool, error) {
	c, err := r.GetByID(ctx, id)
	return c != nil, err
}

func (r *customerRepo) FindAll(_ context.Context) ([]*entity.Customer, error) {
	var out []*entity.Customer
	err := r.h.read(func(d *data) error {
		for _, id := range sortedKeys(d.customers) {
			c := d.customers[id]
			out = append(out, &c)
		}
		return nil
	})
	return out, err
}

func (r *customerRepo) Update(_ context.Context, c *entity.Customer) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("update customer: %w: name vacío", domain.ErrInvalidInput)
	}
	return r.h.write(func(d *data) error {
		if _, ok := d.customers[c.ID]; !ok {
			return domain.ErrNotFound
		}
		d.customers[c.ID] = *c
		return nil
	})
}

func (r *customerRepo) Delete(_ context.Context, id int64) error {
	return r.h.write(func(d *data) error {
		deleteCustomer(d, id)
		return nil
	})
}

func (r *customerRepo) DeleteAll(_ context.Context) error {
	return r.h.write(func(d *data) error {
		for id := range d.customers {
			deleteCustomer(d, id)
		}
		return nil
	})
}

// deleteCustomer borra el cliente y deja sin cliente sus facturas (ON DELETE SET NULL).
func deleteCustomer(d *data, id int64) {
	delete(d.customers, id)
	for invID, inv := range d.invoices {
		if inv.CustomerID != nil && *inv.CustomerID == id {
			inv.CustomerID = nil
			d.invoices[invID] = inv
		}
	}
}

func (r *customerRepo) Count(_ context.Context) (int, error) {
	var n int
	err := r.h.read(func(d *data) error { n = len(d.customers); return nil })
	return n, err
}

type userRepo struct{ h *handle }

func (r *userRepo) Create(_ context.Context, u *entity.User) error {
	if strings.TrimSpace(u.Username) == "" {
		return fmt.Errorf("insert user: %w: username vacío", domain.ErrInvalidInput)
	}
	return r.h.write(func(d *data) error {
		for _, row := range d.users {
			if row.user.Username == u.Username {
				return fmt.Errorf("insert user: %w (users_username_key)", domain.ErrDuplicate)
			}
			if u.Email != "" && row.user.Email == u.Email {
				return fmt.Errorf("insert user: %w (users_email_key)", domain.ErrDuplicate)
			}
		}
		roleIDs := make([]int64, 0, len(u.Roles))
		for _, role := range u.Roles {
			if _, ok := d.roles[role.ID]; !ok {
				return fmt.Errorf("insert user role: %w: rol %d inexistente", domain.ErrInvalidInput, role.ID)
			}
			roleIDs = append(roleIDs, role.ID)
		}
		u.ID = d.id()
		row := userRow{user: *u, roleIDs: roleIDs}
		row.user.Roles = nil
		d.users[u.ID] = row
		return nil
	})
}

func (r *userRepo) load(d *data, row userRow) *entity.User {
	u := row.user
	for _, id := range row.roleIDs {
		if role, ok := d.roles[id]; ok {
			u.Roles = append(u.Roles, role)
		}
	}
	return &u
}

func (r *userRepo) GetByID(_ context.Context, id int64) (*entity.User, error) {
	var out *entity.User
	err := r.h.read(func(d *data) error {
		if row, ok := d.users[id]; ok {
			out = r.load(d, row)
		}
		return nil
	})
	return out, err
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	var out *entity.User
	err := r.h.read(func(d *data) error {
		for _, row := range d.users {
			if row.user.Username == username {
				out = r.load(d, row)
			}
		}
		return nil
	})
	return out, err
}

func (r *userRepo) FindAll(_ context.Context) ([]*entity.User, error) {
	var out []*entity.User
	err := r.h.read(func(d *data) error {
		for _, id := range sortedKeys(d.users) {
			out = append(out, r.load(d, d.users[id]))
		}
		return nil
	})
	return out, err
}

func (r *userRepo) UpdatePassword(_ context.Context, id int64, hash string, mustChange bool) error {
	return r.h.write(func(d *data) error {
		row, ok := d.users[id]
		if !ok {
			return domain.ErrUserNotFound
		}
		row.user.PasswordHash = hash
		row.user.MustChangePassword = mustChange
		d.users[id] = row
		return nil
	})
}

func (r *userRepo) SetActive(_ context.Context, id int64, active bool) error {
	return r.h.write(func(d *data) error {
		row, ok := d.users[id]
		if !ok {
			return domain.ErrUserNotFound
		}
		row.user.Active = active
		d.users[id] = row
		return nil
	})
}

func (r *userRepo) Delete(_ context.Context, id int64) error {
	return r.h.write(func(d *data) error {
		delete(d.users, id)
		return nil
	})
}

func (r *userRepo) DeleteAll(_ context.Context) error {
	return r.h.write(func(d *data) error {
		d.users = make(map[int64]userRow)
		return nil
	})
}

func (r *userRepo) Count(_ context.Context) (int, error) {
	var n int
	err := r.h.read(func(d *data) error { n = len(d.users); return nil })
	return n, err
}

type invoiceRepo struct{ h *handle }

func (r *invoiceRepo) Create(_ context.Context, inv *entity.Invoice) error {
	if strings.TrimSpace(inv.InvoiceNumber) == "" {
		return fmt.Errorf("insert invoice: %w: invoice_number vacío", domain.ErrInvalidInput)
	}
	inv.NormalizeStatus()
	return r.h.write(func(d *data) error {
		for _, existing := range d.invoices {
			if existing.InvoiceNumber == inv.InvoiceNumber {
				return fmt.Errorf("insert invoice: %w (invoices_invoice_number_key)", domain.ErrDuplicate)
			}
		}
		if inv.CustomerID != nil {
			if _, ok := d.customers[*inv.CustomerID]; !ok {
				return fmt.Errorf("insert invoice: %w: cliente %d inexistente", domain.ErrInvalidInput, *inv.CustomerID)
			}
		}
		inv.ID = d.id()
		row := *inv
		row.Customer, row.Items = nil, nil
		if inv.CustomerID != nil {
			id := *inv.CustomerID
			row.CustomerID = &id
		}
		d.invoices[inv.ID] = row
		return nil
	})
}

func (r *invoiceRepo) SetCustomer(_ context.Context, invoiceID int64, customerID *int64) error {
	return r.h.write(func(d *data) error {
		row, ok := d.invoices[invoiceID]
		if !ok {
			return domain.ErrNotFound
		}
		row.CustomerID = nil
		if customerID != nil {
			if _, ok := d.customers[*customerID]; !ok {
				return fmt.Errorf("update invoice customer: %w: cliente %d inexistente", domain.ErrInvalidInput, *customerID)
			}
			id := *customerID
			row.CustomerID = &id
		}
		d.invoices[invoiceID] = row
		return nil
	})
}

func (r *invoiceRepo) AddItems(_ context.Context, invoiceID int64, items []entity.InvoiceItem) ([]entity.InvoiceItem, error) {
	out := make([]entity.InvoiceItem, 0, len(items))
	err := r.h.write(func(d *data) error {
		if _, ok := d.invoices[invoiceID]; !ok {
			return fmt.Errorf("insert invoice item: %w: factura %d inexistente", domain.ErrInvalidInput, invoiceID)
		}
		for _, it := range items {
			if strings.TrimSpace(it.Product) == "" {
				return fmt.Errorf("insert invoice item: %w: product vacío", domain.ErrInvalidInput)
			}
			if err := it.Validate(); err != nil {
				return fmt.Errorf("insert invoice item: %w: %v", domain.ErrInvalidInput, err)
			}
			it.ID = d.id()
			it.InvoiceID = invoiceID
			d.items[it.ID] = it
			out = append(out, it)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *invoiceRepo) load(d *data, row entity.Invoice) *entity.Invoice {
	inv := row
	if row.CustomerID != nil {
		id := *row.CustomerID
		inv.CustomerID = &id
		if c, ok := d.customers[id]; ok {
			inv.Customer = &c
		}
	}
	for _, itemID := range sortedKeys(d.items) {
		if it := d.items[itemID]; it.InvoiceID == row.ID {
			inv.Items = append(inv.Items, it)
		}
	}
	return &inv
}

func (r *invoiceRepo) GetByID(_ context.Context, id int64) (*entity.Invoice, error) {
	var out *entity.Invoice
	err := r.h.read(func(d *data) error {
		if row, ok := d.invoices[id]; ok {
			out = r.load(d, row)
		}
		return nil
	})
	return out, err
}

func (r *invoiceRepo) FindAll(_ context.Context) ([]*entity.Invoice, error) {
	var out []*entity.Invoice
	err := r.h.read(func(d *data) error {
		for _, id := range sortedKeys(d.invoices) {
			out = append(out, r.load(d, d.invoices[id]))
		}
		return nil
	})
	return out, err
}

func (r *invoiceRepo) CountByIssueMonth(_ context.Context, month time.Time) (int, error) {
	var n int
	err := r.h.read(func(d *data) error {
		for _, inv := range d.invoices {
			if inv.IssueDate.Year() == month.Year() && inv.IssueDate.Month() == month.Month() {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *invoiceRepo) ExistsByNumber(_ context.Context, number string) (bool, error) {
	var found bool
	err := r.h.read(func(d *data) error {
		for _, inv := range d.invoices {
			if inv.InvoiceNumber == number {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (r *invoiceRepo) Delete(_ context.Context, id int64) error {
	return r.h.write(func(d *data) error {
		deleteInvoice(d, id)
		return nil
	})
}

func (r *invoiceRepo) DeleteAll(_ context.Context) error {
	return r.h.write(func(d *data) error {
		d.invoices = make(map[int64]entity.Invoice)
		d.items = make(map[int64]entity.InvoiceItem)
		return nil
	})
}

// deleteInvoice borra la factura y sus ítems en cascada.
func deleteInvoice(d *data, id int64) {
	delete(d.invoices, id)
	for itemID, it := range d.items {
		if it.InvoiceID == id {
			delete(d.items, itemID)
		}
	}
}

func (r *invoiceRepo) Count(_ context.Context) (int, error) {
	var n int
	err := r.h.read(func(d *data) error { n = len(d.invoices); return nil })
	return n, err
}

type loginAuditRepo struct{ h *handle }

func (r *loginAuditRepo) Create(ctx context.Context, a *entity.LoginAudit) error {
	return r.CreateBatch(ctx, []*entity.LoginAudit{a})
}

func (r *loginAuditRepo) CreateBatch(_ context.Context, audits []*entity.LoginAudit) error {
	return r.h.write(func(d *data) error {
		for _, a := range audits {
			a.ID = d.id()
			d.audits = append(d.audits, *a)
		}
		return nil
	})
}

func (r *loginAuditRepo) filter(keep func(entity.LoginAudit) bool, newestFirst bool, limit int) ([]*entity.LoginAudit, error) {
	var out []*entity.LoginAudit
	err := r.h.read(func(d *data) error {
		for _, a := range d.audits {
			if keep(a) {
				a := a
				out = append(out, &a)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if newestFirst {
			return out[i].LoginTime.After(out[j].LoginTime)
		}
		return out[i].LoginTime.Before(out[j].LoginTime)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func all(entity.LoginAudit) bool { return true }

func (r *loginAuditRepo) FindAll(_ context.Context) ([]*entity.LoginAudit, error) {
	return r.filter(all, false, 0)
}

func (r *loginAuditRepo) FindByUsername(_ context.Context, username string) ([]*entity.LoginAudit, error) {
	return r.filter(func(a entity.LoginAudit) bool { return a.Username == username }, true, 0)
}

func (r *loginAuditRepo) FindRecent(_ context.Context, limit int) ([]*entity.LoginAudit, error) {
	return r.filter(all, true, limit)
}

func (r *loginAuditRepo) FindFailed(_ context.Context) ([]*entity.LoginAudit, error) {
	return r.filter(func(a entity.LoginAudit) bool { return !a.Successful }, true, 0)
}

func (r *loginAuditRepo) DeleteAll(_ context.Context) error {
	return r.h.write(func(d *data) error {
		d.audits = nil
		return nil
	})
}

func (r *loginAuditRepo) Count(_ context.Context) (int, error) {
	var n int
	err := r.h.read(func(d *data) error { n = len(d.audits); return nil })
	return n, err
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
