package dto

import "time"

// LoginAuditQuery filtros del listado de intentos de login.
type LoginAuditQuery struct {
	Filter   string `query:"filter" validate:"omitempty,oneof=recent failed all"`
	Username string `query:"username" validate:"omitempty,max=100"`
}

// LoginAuditResponse un intento de inicio de sesión.
type LoginAuditResponse struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	LoginTime  time.Time `json:"loginTime"`
	IPAddress  string    `json:"ipAddress"`
	UserAgent  string    `json:"userAgent"`
	Successful bool      `json:"successful"`
}
