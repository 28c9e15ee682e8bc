package db_models

type Account struct {
	BaseModel
	Name         string
	Email        string `gorm:"uniqueIndex"`
	PasswordHash string
	Role         string `gorm:"default:user"` // "user" | "admin"
	Phone        string

	Transactions []Transaction   `gorm:"foreignKey:AccountID"`
	Activations  []SimActivation `gorm:"foreignKey:AccountID"`
}
