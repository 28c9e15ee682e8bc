package db_models

import (
	"gorm.io/datatypes"
)

// Plan is a wireless plan as shown on the marketing site.
type Plan struct {
	BaseModel
	Code        string `gorm:"uniqueIndex"` // e.g., "unlimited", "basic_5gb"
	Name        string
	Description *string
	PriceMinor  int64  // 2500 = $25.00
	Currency    string `gorm:"size:3"` // ISO 4217
	DataMB      int64  // 0 = unlimited
	Minutes     int64  // 0 = unlimited
	IsActive    bool   `gorm:"default:true"`
	// Feature bullets, throttling rules, hotspot caps, etc.
	Features datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
}
