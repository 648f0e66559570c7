package entity

import "time"

// LoginAudit registro append-only de un intento de inicio de sesión.
type LoginAudit struct {
	ID         int64
	Username   string
	LoginTime  time.Time
	IPAddress  string
	UserAgent  string
	Successful bool
}
