package models

// Account is the accounts row.
type Account struct {
	ID              string `db:"id"`
	PublicAddress   string `db:"public_address"`
	EncryptedSecret string `db:"encrypted_secret"`
	AuditFields
}
