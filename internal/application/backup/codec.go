package backup

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/jhoicas/facturacion-app/internal/domain/entity"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// EncodeSnapshot serializa el snapshot con sangría legible.
func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// DecodeSnapshot parsea y valida la estructura del documento.
// Cualquier fallo devuelve un error que envuelve ErrInvalidSnapshot.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if err := validate.Struct(&s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fmt.Errorf("%w: falta o es inválida la sección %q", ErrInvalidSnapshot, verrs[0].Namespace())
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if s.Version != FormatVersion {
		return nil, fmt.Errorf("%w: versión %q no soportada", ErrInvalidSnapshot, s.Version)
	}
	return &s, nil
}

// liveData estado leído del almacén para construir un snapshot.
type liveData struct {
	company   *entity.Company
	roles     []*entity.Role
	customers []*entity.Customer
	users     []*entity.User
	invoices  []*entity.Invoice
	audits    []*entity.LoginAudit
}

// buildSnapshot convierte el estado vivo en su forma de transferencia.
func buildSnapshot(at time.Time, live liveData) *Snapshot {
	s := &Snapshot{
		Version:     FormatVersion,
		Timestamp:   at.Format(TimestampLayout),
		Company:     toCompanyDTO(live.company),
		Roles:       make([]RoleDTO, 0, len(live.roles)),
		Customers:   make([]CustomerDTO, 0, len(live.customers)),
		Users:       make([]UserDTO, 0, len(live.users)),
		Invoices:    make([]InvoiceDTO, 0, len(live.invoices)),
		LoginAudits: make([]LoginAuditDTO, 0, len(live.audits)),
	}
	for _, r := range live.roles {
		s.Roles = append(s.Roles, RoleDTO{ID: r.ID, Name: string(r.Name)})
	}
	for _, c := range live.customers {
		s.Customers = append(s.Customers, toCustomerDTO(c))
	}
	for _, u := range live.users {
		s.Users = append(s.Users, toUserDTO(u))
	}
	for _, inv := range live.invoices {
		s.Invoices = append(s.Invoices, toInvoiceDTO(inv))
	}
	for _, a := range live.audits {
		s.LoginAudits = append(s.LoginAudits, LoginAuditDTO{
			Username:   a.Username,
			LoginTime:  LocalDateTime{a.LoginTime},
			IPAddress:  a.IPAddress,
			UserAgent:  a.UserAgent,
			Successful: a.Successful,
		})
	}
	return s
}

// toCompanyDTO devuelve una empresa vacía si todavía no existe ninguna.
func toCompanyDTO(c *entity.Company) *CompanyDTO {
	if c == nil {
		return &CompanyDTO{}
	}
	return &CompanyDTO{
		ID:             c.ID,
		Name:           c.Name,
		Address:        c.Address,
		TaxID:          c.TaxID,
		RegistrationID: c.RegistrationID,
		Email:          c.Email,
		Phone:          c.Phone,
		Website:        c.Website,
		BankName:       c.BankName,
		BankAccount:    c.BankAccount,
		AdditionalInfo: c.AdditionalInfo,
		LogoPath:       c.LogoPath,
	}
}

func toCustomerDTO(c *entity.Customer) CustomerDTO {
	return CustomerDTO{
		ID:             c.ID,
		Name:           c.Name,
		Address:        c.Address,
		TaxID:          c.TaxID,
		RegistrationID: c.RegistrationID,
		Email:          c.Email,
		Phone:          c.Phone,
	}
}

// toUserDTO nunca copia el hash de la contraseña.
func toUserDTO(u *entity.User) UserDTO {
	ids := make([]int64, 0, len(u.Roles))
	for _, r := range u.Roles {
		ids = append(ids, r.ID)
	}
	return UserDTO{
		ID:                 u.ID,
		Username:           u.Username,
		Email:              u.Email,
		Active:             u.Active,
		MustChangePassword: u.MustChangePassword,
		RoleIDs:            ids,
	}
}

func toInvoiceDTO(inv *entity.Invoice) InvoiceDTO {
	dto := InvoiceDTO{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		IssueDate:     Date{inv.IssueDate},
		DueDate:       Date{inv.DueDate},
		PaymentMethod: string(inv.PaymentMethod),
		Status:        string(inv.Status),
		CustomerName:  inv.CustomerName(),
		Notes:         inv.Notes,
		Items:         make([]InvoiceItemDTO, 0, len(inv.Items)),
	}
	if inv.CustomerID != nil {
		id := *inv.CustomerID
		dto.CustomerID = &id
	}
	for _, it := range inv.Items {
		dto.Items = append(dto.Items, InvoiceItemDTO{
			ID:       it.ID,
			Product:  it.Product,
			Quantity: it.Quantity,
			Price:    Amount{it.Price},
		})
	}
	return dto
}

// parseStatus aplica UNPAID a cualquier valor no reconocido; ok=false indica que hubo sustitución.
func parseStatus(s string) (entity.InvoiceStatus, bool) {
	if st, ok := entity.ParseInvoiceStatus(s); ok {
		return st, true
	}
	return entity.InvoiceStatusUnpaid, s == ""
}

// parsePaymentMethod aplica la forma de pago por defecto a cualquier valor no reconocido.
func parsePaymentMethod(s string) (entity.PaymentMethod, bool) {
	if pm, ok := entity.ParsePaymentMethod(s); ok {
		return pm, true
	}
	return entity.DefaultPaymentMethod, s == ""
}
