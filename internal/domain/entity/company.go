package entity

// Company datos de la empresa que emite las facturas.
// Por convención existe como mucho un registro; nunca se borra, solo se sobrescribe.
type Company struct {
	ID             int64
	Name           string
	Address        string
	TaxID          string // NIP
	RegistrationID string // REGON
	Email          string
	Phone          string
	Website        string
	BankName       string
	BankAccount    string
	AdditionalInfo string
	LogoPath       string
}

// Blank borra todos los campos de datos conservando el ID.
func (c *Company) Blank() {
	*c = Company{ID: c.ID}
}
