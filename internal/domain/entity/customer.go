package entity

// Customer representa un cliente al que se le emiten facturas.
type Customer struct {
	ID             int64
	Name           string
	Address        string
	TaxID          string // NIP
	RegistrationID string // REGON
	Email          string
	Phone          string
}
