package backup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/facturacion-app/internal/domain/entity"
	"github.com/jhoicas/facturacion-app/internal/domain/repository"
)

// restoreRoles garantiza una fila por rol conocido (idempotente) y construye el mapa
// ID del snapshot -> nombre -> ID vivo. No hay correspondencia por posición.
func (r *restoreRun) restoreRoles(ctx context.Context, uow repository.UnitOfWork) (idMap, error) {
	repos := uow.Repos()
	live := make(map[entity.RoleName]int64)
	existing, err := repos.Roles.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, role := range existing {
		live[role.Name] = role.ID
	}
	res := r.report.stage(StageRoles)
	for _, name := range entity.AllRoles() {
		if _, ok := live[name]; ok {
			continue
		}
		role := &entity.Role{Name: name}
		if err := repos.Roles.Create(ctx, role); err != nil {
			return nil, fmt.Errorf("crear rol %s: %w", name, err)
		}
		live[name] = role.ID
		res.Restored++
	}

	m := make(idMap, len(r.snap.Roles))
	for _, dto := range r.snap.Roles {
		name, ok := entity.ParseRoleName(dto.Name)
		if !ok {
			res.Gaps++
			r.log.Warn().Str("stage", string(StageRoles)).Int64("role_id", dto.ID).Str("role", dto.Name).
				Msg("rol desconocido en el snapshot, los usuarios que lo referencian no lo recibirán")
			continue
		}
		m[dto.ID] = live[name]
	}
	return m, nil
}

// restoreCompany sobrescribe la empresa existente conservando su ID, o la crea si no hay ninguna.
func (r *restoreRun) restoreCompany(ctx context.Context, uow repository.UnitOfWork) error {
	dto := r.snap.Company
	if dto == nil {
		return nil
	}
	return r.entity(ctx, uow, StageCompany, "company", func(repos repository.Repositories) error {
		current, err := repos.Companies.Get(ctx)
		if err != nil {
			return err
		}
		c := &entity.Company{
			Name:           dto.Name,
			Address:        dto.Address,
			TaxID:          dto.TaxID,
			RegistrationID: dto.RegistrationID,
			Email:          dto.Email,
			Phone:          dto.Phone,
			Website:        dto.Website,
			BankName:       dto.BankName,
			BankAccount:    dto.BankAccount,
			AdditionalInfo: dto.AdditionalInfo,
			LogoPath:       dto.LogoPath,
		}
		if current == nil {
			return repos.Companies.Create(ctx, c)
		}
		c.ID = current.ID
		return repos.Companies.Update(ctx, c)
	})
}

// restoreCustomers inserta cada cliente y registra oldID -> newID.
func (r *restoreRun) restoreCustomers(ctx context.Context, uow repository.UnitOfWork) (idMap, error) {
	m := make(idMap, len(r.snap.Customers))
	for _, dto := range r.snap.Customers {
		dto := dto
		err := r.entity(ctx, uow, StageCustomers, fmt.Sprintf("customer %d", dto.ID), func(repos repository.Repositories) error {
			c := &entity.Customer{
				Name:           dto.Name,
				Address:        dto.Address,
				TaxID:          dto.TaxID,
				RegistrationID: dto.RegistrationID,
				Email:          dto.Email,
				Phone:          dto.Phone,
			}
			if err := repos.Customers.Create(ctx, c); err != nil {
				return err
			}
			m[dto.ID] = c.ID
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// restoreUsers crea cada usuario con la contraseña temporal y mustChangePassword=true.
// Los roles se resuelven con roleMap; sin ninguno resuelto se asigna ROLE_USER.
func (r *restoreRun) restoreUsers(ctx context.Context, uow repository.UnitOfWork, roleMap idMap) error {
	for _, dto := range r.snap.Users {
		dto := dto
		gaps := 0
		err := r.entity(ctx, uow, StageUsers, "user "+dto.Username, func(repos repository.Repositories) error {
			gaps = 0
			roles := make([]entity.Role, 0, len(dto.RoleIDs))
			seen := make(map[int64]bool)
			for _, oldID := range dto.RoleIDs {
				liveID, ok := roleMap[oldID]
				if !ok {
					gaps++
					r.log.Warn().Str("stage", string(StageUsers)).Str("username", dto.Username).Int64("role_id", oldID).
						Msg("rol sin correspondencia, se omite")
					continue
				}
				if !seen[liveID] {
					seen[liveID] = true
					roles = append(roles, entity.Role{ID: liveID})
				}
			}
			if len(roles) == 0 {
				def, err := repos.Roles.FindByName(ctx, entity.RoleUser)
				if err != nil {
					return err
				}
				if def == nil {
					return fmt.Errorf("rol por defecto %s inexistente", entity.RoleUser)
				}
				roles = append(roles, *def)
			}
			return repos.Users.Create(ctx, &entity.User{
				Username:           dto.Username,
				Email:              dto.Email,
				PasswordHash:       r.tempHash,
				Active:             dto.Active,
				MustChangePassword: true,
				Roles:              roles,
			})
		})
		if err != nil {
			return err
		}
		r.report.stage(StageUsers).Gaps += gaps
	}
	return nil
}

// restoreInvoices inserta la cabecera sin cliente, enlaza el cliente por customerMap en una segunda
// escritura y añade los ítems. Un cliente sin correspondencia deja la factura sin cliente.
func (r *restoreRun) restoreInvoices(ctx context.Context, uow repository.UnitOfWork, customerMap idMap) error {
	// Los números del snapshot quedan reservados y las facturas sin número van al final,
	// así un número generado nunca ocupa el de una factura real.
	reserved := make(map[string]bool, len(r.snap.Invoices))
	var numbered, unnumbered []InvoiceDTO
	for _, dto := range r.snap.Invoices {
		if n := strings.TrimSpace(dto.InvoiceNumber); n != "" {
			reserved[n] = true
			numbered = append(numbered, dto)
			continue
		}
		unnumbered = append(unnumbered, dto)
	}

	for _, dto := range append(numbered, unnumbered...) {
		gaps := 0
		err := r.entity(ctx, uow, StageInvoices, fmt.Sprintf("invoice %d %s", dto.ID, dto.InvoiceNumber), func(repos repository.Repositories) error {
			gaps = 0
			inv := r.invoiceFromDTO(dto)
			if inv.InvoiceNumber == "" {
				number, err := r.nextInvoiceNumber(ctx, repos, inv.IssueDate, reserved)
				if err != nil {
					return err
				}
				inv.InvoiceNumber = number
				r.log.Info().Str("stage", string(StageInvoices)).Int64("invoice_id", dto.ID).Str("invoice_number", number).
					Msg("factura sin número, se genera uno")
			}
			if err := repos.Invoices.Create(ctx, inv); err != nil {
				return err
			}

			if dto.CustomerID != nil {
				linked, err := r.linkCustomer(ctx, repos, inv.ID, *dto.CustomerID, customerMap)
				if err != nil {
					return err
				}
				if !linked {
					gaps++
					r.log.Warn().Str("stage", string(StageInvoices)).
						Str("invoice_number", inv.InvoiceNumber).
						Int64("customer_id", *dto.CustomerID).
						Str("customer_name", dto.CustomerName).
						Msg("cliente sin correspondencia, la factura queda sin cliente")
				}
			}

			items := r.itemsFromDTO(inv.InvoiceNumber, dto.Items)
			if len(items) == 0 {
				return nil
			}
			_, err := repos.Invoices.AddItems(ctx, inv.ID, items)
			return err
		})
		if err != nil {
			return err
		}
		r.report.stage(StageInvoices).Gaps += gaps
	}
	return nil
}

// linkCustomer false si el ID del snapshot no tiene correspondencia viva.
func (r *restoreRun) linkCustomer(ctx context.Context, repos repository.Repositories, invoiceID, oldID int64, customerMap idMap) (bool, error) {
	newID, ok := customerMap[oldID]
	if !ok {
		return false, nil
	}
	exists, err := repos.Customers.ExistsByID(ctx, newID)
	if err != nil || !exists {
		return false, err
	}
	return true, repos.Invoices.SetCustomer(ctx, invoiceID, &newID)
}

func (r *restoreRun) invoiceFromDTO(dto InvoiceDTO) *entity.Invoice {
	status, ok := parseStatus(dto.Status)
	if !ok {
		r.log.Warn().Str("stage", string(StageInvoices)).Str("status", dto.Status).
			Msgf("estado desconocido, se usa %s", status)
	}
	method, ok := parsePaymentMethod(dto.PaymentMethod)
	if !ok {
		r.log.Warn().Str("stage", string(StageInvoices)).Str("payment_method", dto.PaymentMethod).
			Msgf("forma de pago desconocida, se usa %s", method)
	}

	issue := dto.IssueDate.Time
	if issue.IsZero() {
		now := r.svc.opts.Now()
		issue = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	due := dto.DueDate.Time
	if due.IsZero() || due.Before(issue) {
		if !due.IsZero() {
			r.log.Warn().Str("stage", string(StageInvoices)).Str("invoice_number", dto.InvoiceNumber).
				Msg("vencimiento anterior a la emisión, se usa la fecha de emisión")
		}
		due = issue
	}
	return &entity.Invoice{
		InvoiceNumber: strings.TrimSpace(dto.InvoiceNumber),
		IssueDate:     issue,
		DueDate:       due,
		PaymentMethod: method,
		Status:        status,
		Notes:         dto.Notes,
	}
}

// itemsFromDTO descarta (con aviso) las líneas que no cumplen cantidad > 0 y precio >= 0.
func (r *restoreRun) itemsFromDTO(number string, dtos []InvoiceItemDTO) []entity.InvoiceItem {
	items := make([]entity.InvoiceItem, 0, len(dtos))
	for _, d := range dtos {
		it := entity.InvoiceItem{Product: d.Product, Quantity: d.Quantity, Price: d.Price.Decimal}
		err := it.Validate()
		if err == nil && strings.TrimSpace(it.Product) == "" {
			err = fmt.Errorf("producto vacío")
		}
		if err != nil {
			r.log.Warn().Err(err).Str("stage", string(StageInvoices)).Str("invoice_number", number).Int64("item_id", d.ID).
				Msg("ítem inválido, se omite")
			continue
		}
		items = append(items, it)
	}
	return items
}

// nextInvoiceNumber FV/yyyy/MM/nn con nn desde las facturas del mes + 1, saltando los números
// reservados y los que ya existen (la numeración puede tener huecos).
func (r *restoreRun) nextInvoiceNumber(ctx context.Context, repos repository.Repositories, issue time.Time, reserved map[string]bool) (string, error) {
	n, err := repos.Invoices.CountByIssueMonth(ctx, issue)
	if err != nil {
		return "", err
	}
	for seq := n + 1; ; seq++ {
		number := FormatInvoiceNumber(issue, seq)
		if reserved[number] {
			continue
		}
		exists, err := repos.Invoices.ExistsByNumber(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
}

// FormatInvoiceNumber número de factura FV/yyyy/MM/nn.
func FormatInvoiceNumber(issue time.Time, seq int) string {
	return fmt.Sprintf("FV/%04d/%02d/%02d", issue.Year(), int(issue.Month()), seq)
}

// restoreLoginAudits inserta los registros tal cual, en bloque.
func (r *restoreRun) restoreLoginAudits(ctx context.Context, uow repository.UnitOfWork) error {
	if len(r.snap.LoginAudits) == 0 {
		return nil
	}
	audits := make([]*entity.LoginAudit, 0, len(r.snap.LoginAudits))
	for _, dto := range r.snap.LoginAudits {
		audits = append(audits, &entity.LoginAudit{
			Username:   dto.Username,
			LoginTime:  dto.LoginTime.Time,
			IPAddress:  dto.IPAddress,
			UserAgent:  dto.UserAgent,
			Successful: dto.Successful,
		})
	}
	if err := uow.Repos().LoginAudits.CreateBatch(ctx, audits); err != nil {
		return err
	}
	r.report.stage(StageLoginAudits).Restored = len(audits)
	return nil
}
