package entity

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// InvoiceItem línea de una factura. Pertenece exactamente a una Invoice.
type InvoiceItem struct {
	ID        int64
	InvoiceID int64
	Product   string
	Quantity  int
	Price     decimal.Decimal
}

// Total cantidad × precio.
func (it InvoiceItem) Total() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Validate comprueba cantidad > 0 y precio >= 0.
func (it InvoiceItem) Validate() error {
	if it.Quantity <= 0 {
		return fmt.Errorf("cantidad debe ser mayor que 0: %d", it.Quantity)
	}
	if it.Price.IsNegative() {
		return fmt.Errorf("precio no puede ser negativo: %s", it.Price)
	}
	return nil
}
