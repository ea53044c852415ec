package models

import "time"

// Bounds shared by IngredientAmount.Amount and Recipe.CookingTime.
const (
	MinValue = 1
	MaxValue = 32000
)

// Recipe is published by its author. Its ingredient list lives in
// IngredientAmount rows and is always replaced as a whole.
type Recipe struct {
	ID                uint               `gorm:"primaryKey" json:"id"`
	AuthorID          uint               `gorm:"not null;index" json:"author_id"`
	Author            User               `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	PubDate           time.Time          `gorm:"autoCreateTime;index;not null" json:"pub_date"`
	Name              string             `gorm:"size:200;not null" json:"name"`
	Text              string             `gorm:"type:text;not null" json:"text"`
	Image             string             `gorm:"size:255;not null" json:"image"`
	CookingTime       int                `gorm:"not null;check:chk_recipes_cooking_time,cooking_time >= 1 AND cooking_time <= 32000" json:"cooking_time"`
	Tags              []Tag              `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE" json:"tags"`
	IngredientAmounts []IngredientAmount `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"ingredients"`
}

func (Recipe) TableName() string {
	return "recipes"
}

// IngredientAmount binds one ingredient to one recipe with a quantity.
type IngredientAmount struct {
	ID           uint       `gorm:"primaryKey" json:"-"`
	RecipeID     uint       `gorm:"not null;index" json:"-"`
	IngredientID uint       `gorm:"not null;index" json:"id"`
	Ingredient   Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:RESTRICT" json:"-"`
	Amount       int        `gorm:"not null;check:chk_ingredient_amounts_amount,amount >= 1 AND amount <= 32000" json:"amount"`
}

func (IngredientAmount) TableName() string {
	return "ingredient_amounts"
}

// Favorite marks a recipe as favorited by a user.
type Favorite struct {
	UserID    uint `gorm:"primaryKey;autoIncrement:false"`
	RecipeID  uint `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time
}

func (Favorite) TableName() string {
	return "favorites"
}

// CartItem places a recipe into a user's shopping cart.
type CartItem struct {
	UserID    uint `gorm:"primaryKey;autoIncrement:false"`
	RecipeID  uint `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time
}

func (CartItem) TableName() string {
	return "shopping_carts"
}

// ShoppingListItem is one aggregated (name, unit) line of a shopping list.
type ShoppingListItem struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Total           int64  `json:"total"`
}
