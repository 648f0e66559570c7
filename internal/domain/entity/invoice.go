package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus estado de cobro de una factura.
type InvoiceStatus string

// Estados de factura.
const (
	InvoiceStatusPaid   InvoiceStatus = "PAID"
	InvoiceStatusUnpaid InvoiceStatus = "UNPAID"
)

// legacyStatuses nombres simbólicos de versiones anteriores de los datos.
var legacyStatuses = map[string]InvoiceStatus{
	"OPLACONA":    InvoiceStatusPaid,
	"NIEOPLACONA": InvoiceStatusUnpaid,
}

// ParseInvoiceStatus reconoce el nombre simbólico (sin distinguir mayúsculas) o un alias heredado.
func ParseInvoiceStatus(s string) (InvoiceStatus, bool) {
	n := strings.ToUpper(strings.TrimSpace(s))
	switch InvoiceStatus(n) {
	case InvoiceStatusPaid, InvoiceStatusUnpaid:
		return InvoiceStatus(n), true
	}
	st, ok := legacyStatuses[n]
	return st, ok
}

// PaymentMethod forma de pago.
type PaymentMethod string

// Formas de pago.
const (
	PaymentTransfer PaymentMethod = "TRANSFER"
	PaymentCash     PaymentMethod = "CASH"
	PaymentCard     PaymentMethod = "CARD"

	DefaultPaymentMethod = PaymentTransfer
)

var legacyPaymentMethods = map[string]PaymentMethod{
	"PRZELEW": PaymentTransfer,
	"GOTOWKA": PaymentCash,
	"KARTA":   PaymentCard,
}

// ParsePaymentMethod reconoce el nombre simbólico (sin distinguir mayúsculas) o un alias heredado.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	n := strings.ToUpper(strings.TrimSpace(s))
	switch PaymentMethod(n) {
	case PaymentTransfer, PaymentCash, PaymentCard:
		return PaymentMethod(n), true
	}
	pm, ok := legacyPaymentMethods[n]
	return pm, ok
}

// Invoice cabecera de factura. Los ítems le pertenecen y se borran en cascada con ella.
type Invoice struct {
	ID            int64
	InvoiceNumber string
	IssueDate     time.Time
	DueDate       time.Time
	PaymentMethod PaymentMethod
	Status        InvoiceStatus
	Notes         string
	CustomerID    *int64
	Customer      *Customer // solo lectura: lo rellenan los finders con LEFT JOIN
	Items         []InvoiceItem
}

// NormalizeStatus aplica UNPAID cuando el estado está vacío.
func (i *Invoice) NormalizeStatus() {
	if i.Status == "" {
		i.Status = InvoiceStatusUnpaid
	}
	if i.PaymentMethod == "" {
		i.PaymentMethod = DefaultPaymentMethod
	}
}

// Total suma de los totales de línea.
func (i *Invoice) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range i.Items {
		total = total.Add(it.Total())
	}
	return total
}

// CustomerName nombre del cliente cargado, vacío si no tiene.
func (i *Invoice) CustomerName() string {
	if i.Customer == nil {
		return ""
	}
	return i.Customer.Name
}
