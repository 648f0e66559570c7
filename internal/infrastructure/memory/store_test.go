package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-app/internal/domain"
	"github.com/jhoicas/facturacion-app/internal/domain/entity"
	"github.com/jhoicas/facturacion-app/internal/domain/repository"
)

func TestRunInTx_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	boom := errors.New("boom")

	err := s.RunInTx(ctx, repository.TxOptions{}, func(uow repository.UnitOfWork) error {
		require.NoError(t, uow.Repos().Customers.Create(ctx, &entity.Customer{Name: "ACME"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	n, err := s.Repositories().Customers.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRunInTx_Commit(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	err := s.RunInTx(ctx, repository.TxOptions{}, func(uow repository.UnitOfWork) error {
		return uow.Repos().Customers.Create(ctx, &entity.Customer{Name: "ACME"})
	})
	require.NoError(t, err)

	n, _ := s.Repositories().Customers.Count(ctx)
	assert.Equal(t, 1, n)
}

func TestRunInTx_ReadOnlyRejectsWrites(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	err := s.RunInTx(ctx, repository.TxOptions{ReadOnly: true}, func(uow repository.UnitOfWork) error {
		return uow.Repos().Customers.Create(ctx, &entity.Customer{Name: "ACME"})
	})
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestSavepoint_RollsBackOnlyInner(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	err := s.RunInTx(ctx, repository.TxOptions{}, func(uow repository.UnitOfWork) error {
		require.NoError(t, uow.Repos().Customers.Create(ctx, &entity.Customer{Name: "A"}))
		spErr := uow.Savepoint(ctx, func(repos repository.Repositories) error {
			require.NoError(t, repos.Customers.Create(ctx, &entity.Customer{Name: "B"}))
			return repos.Customers.Create(ctx, &entity.Customer{Name: ""})
		})
		assert.ErrorIs(t, spErr, domain.ErrInvalidInput)
		return uow.Savepoint(ctx, func(repos repository.Repositories) error {
			return repos.Customers.Create(ctx, &entity.Customer{Name: "C"})
		})
	})
	require.NoError(t, err)

	list, err := s.Repositories().Customers.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].Name)
	assert.Equal(t, "C", list[1].Name)
}

func TestUsers_UniqueAndRoles(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	admin := &entity.Role{Name: entity.RoleAdmin}
	require.NoError(t, repos.Roles.Create(ctx, admin))
	assert.ErrorIs(t, repos.Roles.Create(ctx, &entity.Role{Name: entity.RoleAdmin}), domain.ErrDuplicate)

	u := &entity.User{Username: "ana", Email: "ana@x.com", Active: true, Roles: []entity.Role{*admin}}
	require.NoError(t, repos.Users.Create(ctx, u))
	assert.ErrorIs(t, repos.Users.Create(ctx, &entity.User{Username: "ana"}), domain.ErrDuplicate)
	assert.ErrorIs(t, repos.Users.Create(ctx, &entity.User{Username: "otro", Email: "ana@x.com"}), domain.ErrDuplicate)

	got, err := repos.Users.GetByUsername(ctx, "ana")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.HasRole(entity.RoleAdmin))

	require.NoError(t, repos.Users.UpdatePassword(ctx, u.ID, "hash", true))
	got, _ = repos.Users.GetByID(ctx, u.ID)
	assert.True(t, got.MustChangePassword)
	assert.ErrorIs(t, repos.Users.UpdatePassword(ctx, 999, "x", false), domain.ErrUserNotFound)
}

func TestInvoices_CustomerSetNullAndItemCascade(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	c := &entity.Customer{Name: "ACME"}
	require.NoError(t, repos.Customers.Create(ctx, c))

	inv := &entity.Invoice{InvoiceNumber: "FV/2024/01/01", IssueDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, repos.Invoices.Create(ctx, inv))
	assert.Equal(t, entity.InvoiceStatusUnpaid, inv.Status)
	require.NoError(t, repos.Invoices.SetCustomer(ctx, inv.ID, &c.ID))

	items, err := repos.Invoices.AddItems(ctx, inv.ID, []entity.InvoiceItem{
		{Product: "Servicio", Quantity: 2, Price: decimal.NewFromInt(50)},
	})
	require.NoError(t, err)
	require.Len(t, items, 1)

	got, _ := repos.Invoices.GetByID(ctx, inv.ID)
	assert.Equal(t, "ACME", got.CustomerName())
	assert.True(t, decimal.NewFromInt(100).Equal(got.Total()))

	n, _ := repos.Invoices.CountByIssueMonth(ctx, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 1, n)
	exists, err := repos.Invoices.ExistsByNumber(ctx, "FV/2024/01/01")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, _ = repos.Invoices.ExistsByNumber(ctx, "FV/2024/01/02")
	assert.False(t, exists)

	require.NoError(t, repos.Customers.DeleteAll(ctx))
	got, _ = repos.Invoices.GetByID(ctx, inv.ID)
	assert.Nil(t, got.CustomerID)

	require.NoError(t, repos.Invoices.Delete(ctx, inv.ID))
	got, _ = repos.Invoices.GetByID(ctx, inv.ID)
	assert.Nil(t, got)

	_, err = repos.Invoices.AddItems(ctx, inv.ID, []entity.InvoiceItem{{Product: "x", Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoginAudits_Queries(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 12; i++ {
		require.NoError(t, repos.LoginAudits.Create(ctx, &entity.LoginAudit{
			Username:   "ana",
			LoginTime:  base.Add(time.Duration(i) * time.Minute),
			Successful: i%3 != 0,
		}))
	}

	recent, err := repos.LoginAudits.FindRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 10)
	assert.True(t, recent[0].LoginTime.After(recent[9].LoginTime))

	failed, _ := repos.LoginAudits.FindFailed(ctx)
	assert.Len(t, failed, 4)

	none, _ := repos.LoginAudits.FindByUsername(ctx, "otro")
	assert.Empty(t, none)
}
