package backup

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/facturacion-app/internal/domain/entity"
	"github.com/jhoicas/facturacion-app/internal/domain/repository"
	"github.com/jhoicas/facturacion-app/internal/infrastructure/filestore"
	"github.com/jhoicas/facturacion-app/internal/infrastructure/memory"
	"github.com/jhoicas/facturacion-app/pkg/logger"
)

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

type fixture struct {
	store   *memory.Store
	files   *filestore.Store
	svc     *Service
	repos   repository.Repositories
	ctx     context.Context
	adminID int64
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	store := memory.NewStore()
	files := filestore.New(filepath.Join(t.TempDir(), "backups"))
	opts.BcryptCost = bcrypt.MinCost
	opts.Now = func() time.Time { return fixedNow }
	return &fixture{
		store: store,
		files: files,
		svc:   NewService(store, files, logger.Nop(), opts),
		repos: store.Repositories(),
		ctx:   context.Background(),
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// seed 2 roles, empresa, 2 clientes, 3 facturas (una sin cliente), admin + usuario y 2 auditorías.
func (f *fixture) seed(t *testing.T) {
	t.Helper()
	ctx, repos := f.ctx, f.repos

	admin := &entity.Role{Name: entity.RoleAdmin}
	user := &entity.Role{Name: entity.RoleUser}
	require.NoError(t, repos.Roles.Create(ctx, admin))
	require.NoError(t, repos.Roles.Create(ctx, user))

	require.NoError(t, repos.Companies.Create(ctx, &entity.Company{Name: "Mi Empresa", TaxID: "123", BankAccount: "PL00 1234"}))

	acme := &entity.Customer{Name: "ACME", Email: "acme@x.com"}
	globex := &entity.Customer{Name: "Globex", TaxID: "999"}
	require.NoError(t, repos.Customers.Create(ctx, acme))
	require.NoError(t, repos.Customers.Create(ctx, globex))

	invoices := []struct {
		number   string
		customer *int64
		status   entity.InvoiceStatus
		items    []entity.InvoiceItem
	}{
		{"FV/2024/01/01", &acme.ID, entity.InvoiceStatusPaid, []entity.InvoiceItem{
			{Product: "Consultoría", Quantity: 2, Price: decimal.RequireFromString("150.50")},
			{Product: "Soporte", Quantity: 1, Price: decimal.RequireFromString("99.99")},
		}},
		{"FV/2024/01/02", &globex.ID, entity.InvoiceStatusUnpaid, []entity.InvoiceItem{
			{Product: "Licencia", Quantity: 3, Price: decimal.RequireFromString("10")},
		}},
		{"FV/2024/02/01", nil, entity.InvoiceStatusUnpaid, nil},
	}
	for _, fx := range invoices {
		inv := &entity.Invoice{
			InvoiceNumber: fx.number,
			IssueDate:     date(2024, 1, 10),
			DueDate:       date(2024, 2, 10),
			PaymentMethod: entity.PaymentCash,
			Status:        fx.status,
			CustomerID:    fx.customer,
			Notes:         "nota " + fx.number,
		}
		require.NoError(t, repos.Invoices.Create(ctx, inv))
		if len(fx.items) > 0 {
			_, err := repos.Invoices.AddItems(ctx, inv.ID, fx.items)
			require.NoError(t, err)
		}
	}

	adminUser := &entity.User{Username: "admin", Email: "admin@x.com", PasswordHash: "hash-admin", Active: true, Roles: []entity.Role{*admin, *user}}
	require.NoError(t, repos.Users.Create(ctx, adminUser))
	f.adminID = adminUser.ID
	require.NoError(t, repos.Users.Create(ctx, &entity.User{Username: "ana", Email: "ana@x.com", PasswordHash: "hash-ana", Active: false, Roles: []entity.Role{*user}}))

	require.NoError(t, repos.LoginAudits.Create(ctx, &entity.LoginAudit{Username: "admin", LoginTime: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), IPAddress: "10.0.0.1", UserAgent: "curl", Successful: true}))
	require.NoError(t, repos.LoginAudits.Create(ctx, &entity.LoginAudit{Username: "ana", LoginTime: time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC), IPAddress: "10.0.0.2", Successful: false}))
}

type counts struct{ customers, users, invoices, audits int }

func (f *fixture) counts(t *testing.T) counts {
	t.Helper()
	var c counts
	var err error
	c.customers, err = f.repos.Customers.Count(f.ctx)
	require.NoError(t, err)
	c.users, err = f.repos.Users.Count(f.ctx)
	require.NoError(t, err)
	c.invoices, err = f.repos.Invoices.Count(f.ctx)
	require.NoError(t, err)
	c.audits, err = f.repos.LoginAudits.Count(f.ctx)
	require.NoError(t, err)
	return c
}

// contents resumen por contenido (sin IDs) del almacén.
func (f *fixture) contents(t *testing.T) []string {
	t.Helper()
	var out []string
	company, err := f.repos.Companies.Get(f.ctx)
	require.NoError(t, err)
	if company != nil {
		out = append(out, fmt.Sprintf("company %s %s %s", company.Name, company.TaxID, company.BankAccount))
	}
	customers, err := f.repos.Customers.FindAll(f.ctx)
	require.NoError(t, err)
	for _, c := range customers {
		out = append(out, fmt.Sprintf("customer %s %s %s", c.Name, c.TaxID, c.Email))
	}
	invoices, err := f.repos.Invoices.FindAll(f.ctx)
	require.NoError(t, err)
	for _, inv := range invoices {
		line := fmt.Sprintf("invoice %s %s %s %s %s customer=%q %s total=%s",
			inv.InvoiceNumber, inv.IssueDate.Format("2006-01-02"), inv.DueDate.Format("2006-01-02"),
			inv.Status, inv.PaymentMethod, inv.CustomerName(), inv.Notes, inv.Total().StringFixed(2))
		for _, it := range inv.Items {
			line += fmt.Sprintf(" [%s x%d @%s]", it.Product, it.Quantity, it.Price.StringFixed(2))
		}
		out = append(out, line)
	}
	users, err := f.repos.Users.FindAll(f.ctx)
	require.NoError(t, err)
	for _, u := range users {
		roles := u.RoleNames()
		sort.Strings(roles)
		out = append(out, fmt.Sprintf("user %s %s active=%t roles=%v", u.Username, u.Email, u.Active, roles))
	}
	audits, err := f.repos.LoginAudits.FindAll(f.ctx)
	require.NoError(t, err)
	for _, a := range audits {
		out = append(out, fmt.Sprintf("audit %s %s %s %t", a.Username, a.LoginTime.UTC().Format(time.RFC3339), a.IPAddress, a.Successful))
	}
	sort.Strings(out)
	return out
}

func (f *fixture) writeSnapshot(t *testing.T, body string) string {
	t.Helper()
	name, err := f.files.Save(f.ctx, fixedNow.Add(-time.Hour), []byte(body))
	require.NoError(t, err)
	return name
}

func (f *fixture) roleCount(t *testing.T) int {
	t.Helper()
	roles, err := f.repos.Roles.FindAll(f.ctx)
	require.NoError(t, err)
	return len(roles)
}

func TestCreateBackup_Scenario(t *testing.T) {
	f := newFixture(t, Options{})
	f.seed(t)

	name, err := f.svc.CreateBackup(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "backup_20240315_103000.json", name)

	data, err := f.files.Read(f.ctx, name)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "1.0", raw["version"])
	assert.Equal(t, "2024-03-15 10:30:00", raw["timestamp"])

	invoices := raw["invoices"].([]any)
	require.Len(t, invoices, 3)
	nullCustomers := 0
	for _, v := range invoices {
		inv := v.(map[string]any)
		if inv["customerId"] == nil {
			nullCustomers++
		}
		assert.NotContains(t, inv, "customer", "la factura solo referencia al cliente por ID")
	}
	assert.Equal(t, 1, nullCustomers)

	users := raw["users"].([]any)
	require.Len(t, users, 2)
	for _, v := range users {
		u := v.(map[string]any)
		assert.GreaterOrEqual(t, len(u["roleIds"].([]any)), 1)
		assert.NotContains(t, u, "password")
		assert.NotContains(t, u, "passwordHash")
	}
	assert.NotContains(t, string(data), "hash-admin")
	assert.Len(t, raw["roles"], 2)
	assert.Len(t, raw["loginAudits"], 2)

	snap, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, "ACME", snap.Invoices[0].CustomerName)
	assert.Equal(t, "2024-01-10", snap.Invoices[0].IssueDate.Format("2006-01-02"))
	assert.True(t, decimal.RequireFromString("150.50").Equal(snap.Invoices[0].Items[0].Price.Decimal))
}

func TestCreateBackup_EmptyStore(t *testing.T) {
	f := newFixture(t, Options{})

	name, err := f.svc.CreateBackup(f.ctx)
	require.NoError(t, err)

	data, err := f.files.Read(f.ctx, name)
	require.NoError(t, err)
	snap, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.NotNil(t, snap.Company)
	assert.Empty(t, snap.Customers)
	assert.Empty(t, snap.Invoices)
}

func TestRestore_RoundTrip(t *testing.T) {
	for _, policy := range []Policy{PolicyIsolated, PolicyAtomic} {
		t.Run(string(policy), func(t *testing.T) {
			f := newFixture(t, Options{})
			f.seed(t)
			before := f.contents(t)
			beforeCounts := f.counts(t)

			name, err := f.svc.CreateBackup(f.ctx)
			require.NoError(t, err)

			report, err := f.svc.Restore(f.ctx, name, policy)
			require.NoError(t, err)
			assert.Equal(t, StatusFull, report.Status(), report.Message())
			assert.Equal(t, policy, report.Policy)
			assert.Zero(t, report.Gaps())

			assert.Equal(t, beforeCounts, f.counts(t))
			assert.Equal(t, before, f.contents(t))
			assert.Equal(t, 2, f.roleCount(t))
		})
	}
}

func TestRestore_RolesIdempotent(t *testing.T) {
	f := newFixture(t, Options{})
	f.seed(t)
	name, err := f.svc.CreateBackup(f.ctx)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := f.svc.Restore(f.ctx, name, PolicyIsolated)
		require.NoError(t, err)
		assert.Equal(t, 2, f.roleCount(t))
	}
}

func TestRestore_CreatesMissingRoles(t *testing.T) {
	f := newFixture(t, Options{})
	name := f.writeSnapshot(t, `{
		"version": "1.0", "timestamp": "x", "company": null,
		"roles": [{"id": 7, "name": "ROLE_ADMIN"}, {"id": 8, "name": "ROLE_USER"}],
		"customers": [], "invoices": [], "loginAudits": [],
		"users": [{"id": 1, "username": "root", "email": "root@x.com", "active": true, "roleIds": [7]}]
	}`)

	report, err := f.svc.Restore(f.ctx, name, PolicyIsolated)
	require.NoError(t, err)
	assert.Equal(t, StatusFull, report.Status())
	assert.Equal(t, 2, f.roleCount(t))

	u, err := f.repos.Users.GetByUsername(f.ctx, "root")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, []string{"ROLE_ADMIN"}, u.RoleNames())
}

func TestRestore_RemapsCustomerIDs(t *testing.T) {
	f := newFixture(t, Options{})
	f.seed(t)
	name := f.writeSnapshot(t, `{
		"version": "1.0", "timestamp": "x",
		"roles": [], "users": [], "loginAudits": [],
		"customers": [
			{"id": 501, "name": "Initech", "nip": "1"},
			{"id": 502, "name": "Umbrella", "nip": "2"}
		],
		"invoices": [
			{"id": 9, "invoiceNumber": "FV/2023/05/01", "issueDate": "2023-05-01", "dueDate": "2023-05-15",
			 "paymentMethod": "CARD", "status": "PAID", "customerId": 502, "customerName": "Umbrella",
			 "items": [{"id": 1, "product": "Vacuna", "quantity": 5, "price": 12.5}]},
			{"id": 10, "invoiceNumber": "FV/2023/05/02", "issueDate": "2023-05-02", "dueDate": "2023-05-16",
			 "paymentMethod": "CASH", "status": "UNPAID", "customerId": 501, "customerName": "Initech", "items": []}
		]
	}`)

	report, err := f.svc.Restore(f.ctx, name, PolicyIsolated)
	require.NoError(t, err)
	assert.Equal(t, StatusFull, report.Status())

	invoices, err := f.repos.Invoices.FindAll(f.ctx)
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	byNumber := map[string]*entity.Invoice{}
	for _, inv := range invoices {
		byNumber[inv.InvoiceNumber] = inv
	}
	umbrella := byNumber["FV/2023/05/01"]
	require.NotNil(t, umbrella.CustomerID)
	assert.NotEqual(t, int64(502), *umbrella.CustomerID)
	assert.Equal(t, "Umbrella", umbrella.CustomerName())
	assert.Equal(t, entity.PaymentCard, umbrella.PaymentMethod)
	require.Len(t, umbrella.Items, 1)
	assert.True(t, decimal.RequireFromString("62.5").Equal(umbrella.Total()))

	assert.Equal(t, "Initech", byNumber["FV/2023/05/02"].CustomerName())
}

func TestRestore_OrphanInvoiceKeptWithoutCustomer(t *testing.T) {
	f := newFixture(t, Options{})
	name := f.writeSnapshot(t, `{
		"version": "1.0", "timestamp": "x",
		"roles": [], "users": [], "loginAudits": [], "customers": [],
		"invoices": [{"id": 1, "invoiceNumber": "FV/2024/01/01", "issueDate": "2024-01-01", "dueDate": "2024-01-31",
		              "paymentMethod": "TRANSFER", "status": "UNPAID", "customerId": 99, "customerName": "Fantasma", "items": []}]
	}`)

	report, err := f.svc.Restore(f.ctx, name, PolicyIsolated)
	require.NoError(t, err)
	assert.Equal(t, StatusFull, report.Status())
	assert.Equal(t, 1, report.Gaps())

	invoices, err := f.repos.Invoices.FindAll(f.ctx)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Nil(t, invoices[0].CustomerID)
	assert.Nil(t, invoices[0].Customer)
}

func TestRestore_UsersGetTemporaryPassword(t *testing.T) {
	f := newFixture(t, Options{TemporaryPassword: "Temporal#1"})
	f.seed(t)
	before, err := f.repos.Users.GetByID(f.ctx, f.adminID)
	require.NoError(t, err)

	name, err := f.svc.CreateBackup(f.ctx)
	require.NoError(t, err)
	_, err = f.svc.Restore(f.ctx, name, PolicyIsolated)
	require.NoError(t, err)

	users, err := f.repos.Users.FindAll(f.ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.True(t, u.MustChangePassword, u.Username)
		assert.NotEqual(t, before.PasswordHash, u.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("Temporal#1")))
	}
}

func TestRestore_UserWithoutResolvableRolesGetsUser(t *testing.T) {
	f := newFixture(t, Options{})
	name := f.writeSnapshot(t, `{
		"version": "1.0", "timestamp": "x",
		"roles": [{"id": 1, "name": "ROLE_SUPERVISOR"}],
		"customers": [], "invoices": [], "loginAudits": [],
		"users": [
			{"id": 1, "username": "eva", "email": "eva@x.com", "active": true, "roleIds": [1, 42]},
			{"id": 2, "username": "leo", "email": "leo@x.com", "active": true, "roleIds": []}
		]
	}`)

	report, err := f.svc.Restore(f.ctx, name, PolicyIsolated)
	require.NoError(t, err)
	assert.Equal(t, StatusFull, report.Status())
	assert.Equal(t, 3, report.Gaps(), "rol desconocido + dos referencias de eva sin resolver")

	for _, username := range []string{"eva", "leo"} {
		u, err := f.repos.Users.GetByUsername(f.ctx, username)
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, []string{"ROLE_USER"}, u.RoleNames())
	}
}

func TestRestore_EnumFallback(t *testing.T) {
	f := newFixture(t, Options{})
	name := f.writeSnapshot(t, `{
		"version": "1.0", "timestamp": "x",
		"roles": [], "users": [], "loginAudits": [], "customers": [],
		"invoices": [
			{"id": 1, "invoiceNumber": "A-1", "issueDate": "2024-01-01", "dueDate": "2024-01-31",
			 "paymentMethod": "BITCOIN", "status": "MAYBE", "customerId": null, "items": []},
			{"id": 2, "invoiceNumber": "A-2", "issueDate": "2024-01-01", "dueDate": "2024-01-31",
			 "paymentMethod": "gotowka", "status": "OPLACONA", "customerId": null, "items": []},
			{"id": 3, "invoiceNumber": "A-3", "issueDate": "2024-01-01", "dueDate": "2024-01-31",
			 "customerId": null, "items": []}
		]
	}`)

	report, err := f.svc.Restore(f.ctx, name, PolicyIsolated)
	require.NoError(t, err)
	assert.Equal(t, StatusFull, report.Status())

	invoices, err := f.repos.Invoices.FindAll(f.ctx)
	require.NoError(t, err)
	got := map[string][2]string{}
	for _, inv := range invoices {
		got[inv.InvoiceNumber] = [2]string{string(inv.Status), string(inv.PaymentMethod)}
	}
	assert.Equal(t, [2]string{"UNPAID", "TRANSFER"}, got["A-1"])
	assert.Equal(t, [2]string{"PAID", "CASH"}, got["A-2"])
	assert.Equal(t, [2]string{"UNPAID", "TRANSFER"}, got["A-3"])
}

func TestRestore_GeneratesMissingNumbersAndSkipsBadItems(t *testing.T) {
	f := newFixture(t, Options{})
	name := f.writeSnapshot(t, `{
		"version": "1.0", "timestamp": "x",
		"roles": [], "users": [], "loginAudits": [], "customers": [],
		"invoices": [
			{"id": 1, "invoiceNumber": "", "issueDate": "2024-03-05", "dueDate": "2024-03-01", "customerId": null,
			 "items": [{"id": 1, "product": "ok", "quantity": 1, "price": "5.00"},
			           {"id": 2, "product": "cero", "quantity": 0, "price": 1},
			           {"id": 3, "product": "negativo", "quantity": 1, "price": -1}]},
			{"id": 2, "issueDate": "2024-03-06", "dueDate": "2024-03-20", "customerId": null, "items": []}
		]
	}`)

	_, err := f.svc.Restore(f.ctx, name, PolicyIsolated)
	require.NoError(t, err)

	invoices, err := f.repos.Invoices.FindAll(f.ctx)
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.Equal(t, "FV/2024/03/01", invoices[0].InvoiceNumber)
	assert.Equal(t, "FV/2024/03/02", invoices[1].InvoiceNumber)
	require.Len(t, invoices[0].Items, 1)
	assert.Equal(t, "ok", invoices[0].Items[0].Product)
	assert.Equal(t, invoices[0].IssueDate, invoices[0].DueDate, "vencimiento anterior a la emisión")
}

func TestRestore_GeneratedNumbersNeverTakeSnapshotNumbers(t *testing.T) {
	body := `{
		"version": "1.0", "timestamp": "x",
		"roles": [], "users": [], "loginAudits": [], "customers": [],
		"invoices": [
			{"id": 1, "invoiceNumber": "", "issueDate": "2024-03-05", "dueDate": "2024-03-20", "customerId": null, "items": []},
			{"id": 2, "invoiceNumber": "FV/2024/03/01", "issueDate": "2024-03-06", "dueDate": "2024-03-20", "customerId": null, "items": []},
			{"id": 3, "invoiceNumber": "FV/2024/03/03", "issueDate": "2024-03-07", "dueDate": "2024-03-20", "customerId": null, "items": []}
		]
	}`
	for _, policy := range []Policy{PolicyIsolated, PolicyAtomic} {
		t.Run(string(policy), func(t *testing.T) {
			f := newFixture(t, Options{})
			name := f.writeSnapshot(t, body)

			report, err := f.svc.Restore(f.ctx, name, policy)
			require.NoError(t, err)
			assert.Equal(t, StatusFull, report.Status())

			invoices, err := f.repos.Invoices.FindAll(f.ctx)
			require.NoError(t, err)
			byNumber := map[string]string{}
			for _, inv := range invoices {
				byNumber[inv.InvoiceNumber] = inv.IssueDate.Format("2006-01-02")
			}
			assert.Equal(t, map[string]string{
				"FV/2024/03/01": "2024-03-06",
				"FV/2024/03/03": "2024-03-07",
				"FV/2024/03/04": "2024-03-05",
			}, byNumber, "el número generado salta los del snapshot")
		})
	}
}

const snapshotWithBadCustomer = `{
	"version": "1.0", "timestamp": "x",
	"company": {"name": "Restaurada"},
	"roles": [{"id": 1, "name": "ROLE_ADMIN"}, {"id": 2, "name": "ROLE_USER"}],
	"customers": [
		{"id": 1, "name": "Primero"},
		{"id": 2, "name": ""},
		{"id": 3, "name": "Tercero"}
	],
	"users": [{"id": 1, "username": "maria", "email": "maria@x.com", "active": true, "roleIds": [2]}],
	"invoices": [
		{"id": 1, "invoiceNumber": "FV/2024/04/01", "issueDate": "2024-04-01", "dueDate": "2024-04-30",
		 "customerId": 2, "customerName": "", "items": []},
		{"id": 2, "invoiceNumber": "FV/2024/04/02", "issueDate": "2024-04-01", "dueDate": "2024-04-30",
		 "customerId": 3, "customerName": "Tercero", "items": []}
	],
	"loginAudits": [{"username": "maria", "loginTime": "2024-04-01T08:00:00", "ipAddress": "1.2.3.4", "userAgent": "x", "successful": true}]
}`

func TestRestore_IsolatedContainsFailures(t *testing.T) {
	f := newFixture(t, Options{})
	f.seed(t)
	name := f.writeSnapshot(t, snapshotWithBadCustomer)

	report, err := f.svc.Restore(f.ctx, name, PolicyIsolated)
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, report.Status())
	assert.Contains(t, report.Message(), "customers")

	stages := map[Stage]StageResult{}
	for _, s := range report.Stages {
		stages[s.Stage] = s
	}
	assert.Equal(t, 2, stages[StageCustomers].Restored)
	assert.Equal(t, 1, stages[StageCustomers].Failed)
	assert.Equal(t, 1, stages[StageUsers].Restored)
	assert.Equal(t, 2, stages[StageInvoices].Restored)
	assert.Equal(t, 1, stages[StageInvoices].Gaps)
	assert.Equal(t, 1, stages[StageLoginAudits].Restored)

	assert.Equal(t, counts{customers: 2, users: 1, invoices: 2, audits: 1}, f.counts(t))

	inv, err := f.repos.Invoices.FindAll(f.ctx)
	require.NoError(t, err)
	require.Len(t, inv, 2)
	assert.Nil(t, inv[0].CustomerID)
	assert.Equal(t, "Tercero", inv[1].CustomerName())

	company, err := f.repos.Companies.Get(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "Restaurada", company.Name)
	assert.Empty(t, company.TaxID, "los campos ausentes del snapshot quedan vacíos")
}

func TestRestore_AtomicRollsBackEverything(t *testing.T) {
	f := newFixture(t, Options{})
	f.seed(t)
	before := f.contents(t)
	beforeCounts := f.counts(t)
	name := f.writeSnapshot(t, snapshotWithBadCustomer)

	report, err := f.svc.Restore(f.ctx, name, PolicyAtomic)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRestoreAborted)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageCustomers, stageErr.Stage)
	require.NotNil(t, report)
	assert.Equal(t, StatusPartial, report.Status())

	assert.Equal(t, beforeCounts, f.counts(t))
	assert.Equal(t, before, f.contents(t))
}

func TestRestore_NotFoundLeavesStoreUntouched(t *testing.T) {
	f := newFixture(t, Options{PreRestoreBackup: true})
	f.seed(t)
	before := f.counts(t)

	for _, name := range []string{"backup_20200101_000000.json", "../../etc/passwd"} {
		report, err := f.svc.Restore(f.ctx, name, PolicyIsolated)
		assert.ErrorIs(t, err, ErrBackupNotFound)
		assert.Nil(t, report)
	}
	assert.Equal(t, before, f.counts(t))

	files, err := f.svc.List(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, files, "sin copia previa si la validación falla")
}

func TestRestore_InvalidSnapshot(t *testing.T) {
	cases := map[string]string{
		"json roto":            `{"version": "1.0",`,
		"sin facturas":         `{"version": "1.0", "roles": [], "customers": [], "users": [], "loginAudits": []}`,
		"version no soportada": `{"version": "2.0", "roles": [], "customers": [], "users": [], "invoices": [], "loginAudits": []}`,
	}
	for desc, body := range cases {
		t.Run(desc, func(t *testing.T) {
			f := newFixture(t, Options{})
			f.seed(t)
			before := f.counts(t)
			name := f.writeSnapshot(t, body)

			_, err := f.svc.Restore(f.ctx, name, PolicyAtomic)
			assert.ErrorIs(t, err, ErrInvalidSnapshot)
			assert.Equal(t, before, f.counts(t))
		})
	}
}

func TestRestore_SafetyBackupFirst(t *testing.T) {
	f := newFixture(t, Options{PreRestoreBackup: true})
	f.seed(t)
	name := f.writeSnapshot(t, snapshotWithBadCustomer)

	report, err := f.svc.Restore(f.ctx, name, PolicyIsolated)
	require.NoError(t, err)
	require.NotEmpty(t, report.SafetyBackup)

	data, err := f.files.Read(f.ctx, report.SafetyBackup)
	require.NoError(t, err)
	snap, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Len(t, snap.Invoices, 3, "la copia previa refleja el estado anterior")
}

func TestRestore_InvalidPolicy(t *testing.T) {
	f := newFixture(t, Options{})
	_, err := f.svc.Restore(f.ctx, "backup_20240101_000000.json", Policy("mixed"))
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestDeleteAndOpen(t *testing.T) {
	f := newFixture(t, Options{})
	name, err := f.svc.CreateBackup(f.ctx)
	require.NoError(t, err)

	rc, info, err := f.svc.Open(f.ctx, name)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, name, info.Name)
	assert.Positive(t, info.Size)

	require.NoError(t, f.svc.Delete(f.ctx, name))
	assert.ErrorIs(t, f.svc.Delete(f.ctx, name), ErrBackupNotFound)
	_, _, err = f.svc.Open(f.ctx, name)
	assert.ErrorIs(t, err, ErrBackupNotFound)
}

var errDeleteInvoices = errors.New("borrado de facturas rechazado")

// failingInvoicesTx envuelve el almacén y hace fallar Invoices.DeleteAll.
type failingInvoicesTx struct {
	inner repository.TxRunner
}

func (f failingInvoicesTx) RunInTx(ctx context.Context, opts repository.TxOptions, fn func(uow repository.UnitOfWork) error) error {
	return f.inner.RunInTx(ctx, opts, func(uow repository.UnitOfWork) error {
		return fn(failingInvoicesUoW{uow})
	})
}

type failingInvoicesUoW struct {
	inner repository.UnitOfWork
}

func (u failingInvoicesUoW) Repos() repository.Repositories {
	return withFailingInvoices(u.inner.Repos())
}

func (u failingInvoicesUoW) Savepoint(ctx context.Context, fn func(repos repository.Repositories) error) error {
	return u.inner.Savepoint(ctx, func(repos repository.Repositories) error {
		return fn(withFailingInvoices(repos))
	})
}

type failingInvoices struct {
	repository.InvoiceRepository
}

func (failingInvoices) DeleteAll(context.Context) error { return errDeleteInvoices }

func withFailingInvoices(repos repository.Repositories) repository.Repositories {
	repos.Invoices = failingInvoices{repos.Invoices}
	return repos
}

const emptySnapshot = `{"version": "1.0", "timestamp": "x", "roles": [], "customers": [], "users": [], "invoices": [], "loginAudits": []}`

func TestRestore_ClearFailureInOneGroupDoesNotStopOthers(t *testing.T) {
	t.Run("isolated", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.seed(t)
		f.svc = NewService(failingInvoicesTx{f.store}, f.files, logger.Nop(), Options{BcryptCost: bcrypt.MinCost, Now: func() time.Time { return fixedNow }})
		name := f.writeSnapshot(t, emptySnapshot)

		report, err := f.svc.Restore(f.ctx, name, PolicyIsolated)
		require.NoError(t, err)
		assert.Equal(t, StatusPartial, report.Status())
		assert.Contains(t, report.stage(StageClear).Error, "invoices")
		assert.NotContains(t, report.stage(StageClear).Error, "users")

		assert.Equal(t, counts{customers: 0, users: 0, invoices: 3, audits: 0}, f.counts(t))
	})

	t.Run("atomic", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.seed(t)
		f.svc = NewService(failingInvoicesTx{f.store}, f.files, logger.Nop(), Options{BcryptCost: bcrypt.MinCost, Now: func() time.Time { return fixedNow }})
		before := f.contents(t)
		name := f.writeSnapshot(t, emptySnapshot)

		report, err := f.svc.Restore(f.ctx, name, PolicyAtomic)
		assert.ErrorIs(t, err, ErrRestoreAborted)
		assert.ErrorIs(t, err, errDeleteInvoices)
		var stageErr *StageError
		require.ErrorAs(t, err, &stageErr)
		assert.Equal(t, StageClear, stageErr.Stage)
		require.NotNil(t, report)
		assert.Equal(t, StatusPartial, report.Status())

		assert.Equal(t, before, f.contents(t))
	})
}
