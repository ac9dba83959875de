package models

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&AuthCredential{},
		&KYCDocument{},
		&ExchangeRate{},
		&Order{},
		&Notification{},
		&AuditLog{},
	}
}
