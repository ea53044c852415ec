package models

// Ingredient is reference data. Names may repeat with different units.
type Ingredient struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	Name            string `gorm:"size:200;index;not null" json:"name"`
	MeasurementUnit string `gorm:"size:200;not null" json:"measurement_unit"`
}

func (Ingredient) TableName() string {
	return "ingredients"
}
