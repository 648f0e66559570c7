package backup

import (
	"bytes"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// FormatVersion versión del formato de snapshot que se escribe y se acepta.
const FormatVersion = "1.0"

// TimestampLayout formato del campo timestamp (informativo, no se interpreta al restaurar).
const TimestampLayout = "2006-01-02 15:04:05"

// Snapshot documento completo de una copia de seguridad.
// Las relaciones viajan solo como IDs: ningún DTO contiene otro objeto del grafo.
type Snapshot struct {
	Version     string          `json:"version" validate:"required"`
	Timestamp   string          `json:"timestamp"`
	Company     *CompanyDTO     `json:"company"`
	Roles       []RoleDTO       `json:"roles" validate:"required"`
	Customers   []CustomerDTO   `json:"customers" validate:"required"`
	Users       []UserDTO       `json:"users" validate:"required"`
	Invoices    []InvoiceDTO    `json:"invoices" validate:"required"`
	LoginAudits []LoginAuditDTO `json:"loginAudits" validate:"required"`
}

// CompanyDTO datos de la empresa.
type CompanyDTO struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Address        string `json:"address"`
	TaxID          string `json:"nip"`
	RegistrationID string `json:"regon"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Website        string `json:"website"`
	BankName       string `json:"bankName"`
	BankAccount    string `json:"bankAccount"`
	AdditionalInfo string `json:"additionalInfo"`
	LogoPath       string `json:"logoPath"`
}

// RoleDTO rol con el ID que tenía en el momento de la copia.
type RoleDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CustomerDTO cliente.
type CustomerDTO struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Address        string `json:"address"`
	TaxID          string `json:"nip"`
	RegistrationID string `json:"regon"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
}

// UserDTO usuario sin contraseña; los roles se referencian por ID.
type UserDTO struct {
	ID                 int64   `json:"id"`
	Username           string  `json:"username"`
	Email              string  `json:"email"`
	Active             bool    `json:"active"`
	MustChangePassword bool    `json:"mustChangePassword"`
	RoleIDs            []int64 `json:"roleIds"`
}

// InvoiceDTO factura con sus ítems anidados. CustomerName solo sirve para diagnóstico.
type InvoiceDTO struct {
	ID            int64            `json:"id"`
	InvoiceNumber string           `json:"invoiceNumber"`
	IssueDate     Date             `json:"issueDate"`
	DueDate       Date             `json:"dueDate"`
	PaymentMethod string           `json:"paymentMethod"`
	Status        string           `json:"status"`
	CustomerID    *int64           `json:"customerId"`
	CustomerName  string           `json:"customerName"`
	Notes         string           `json:"notes"`
	Items         []InvoiceItemDTO `json:"items"`
}

// InvoiceItemDTO línea de factura.
type InvoiceItemDTO struct {
	ID       int64  `json:"id"`
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
	Price    Amount `json:"price"`
}

// LoginAuditDTO registro de auditoría; se restaura tal cual.
type LoginAuditDTO struct {
	Username   string        `json:"username"`
	LoginTime  LocalDateTime `json:"loginTime"`
	IPAddress  string        `json:"ipAddress"`
	UserAgent  string        `json:"userAgent"`
	Successful bool          `json:"successful"`
}

const dateLayout = "2006-01-02"

var jsonNull = []byte("null")

// Date fecha de calendario ISO-8601 (yyyy-MM-dd). El valor cero se serializa como null.
type Date struct {
	time.Time
}

// MarshalJSON implementa json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return jsonNull, nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON acepta yyyy-MM-dd o una fecha-hora RFC 3339.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, jsonNull) {
		d.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("fecha: %w", err)
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.ParseInLocation(dateLayout, s, time.UTC); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("fecha %q: formato no reconocido", s)
	}
	d.Time = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return nil
}

var localDateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// LocalDateTime instante de auditoría. Se escribe en RFC 3339; al leer acepta también fecha-hora sin zona.
type LocalDateTime struct {
	time.Time
}

// MarshalJSON implementa json.Marshaler.
func (t LocalDateTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return jsonNull, nil
	}
	return []byte(`"` + t.Format(time.RFC3339Nano) + `"`), nil
}

// UnmarshalJSON implementa json.Unmarshaler.
func (t *LocalDateTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, jsonNull) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("fecha-hora: %w", err)
	}
	for _, layout := range localDateTimeLayouts {
		if v, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			t.Time = v
			return nil
		}
	}
	return fmt.Errorf("fecha-hora %q: formato no reconocido", s)
}

// Amount importe decimal exacto, escrito como número JSON.
type Amount struct {
	decimal.Decimal
}

// MarshalJSON escribe el importe sin comillas.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}
