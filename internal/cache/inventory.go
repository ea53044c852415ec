package cache

import (
	"fmt"
	"strings"
	"time"
)

const (
	TagListKey          = "tags:all"
	TagKeyPrefix        = "tag:%d"
	IngredientListKey   = "ingredients:prefix:%s"
	IngredientKeyPrefix = "ingredient:%d"
)

const (
	TagTTL        = 30 * time.Minute
	IngredientTTL = 30 * time.Minute
)

func TagKey(tagID uint) string {
	return fmt.Sprintf(TagKeyPrefix, tagID)
}

// IngredientSearchKey keys an ingredient listing by its lowercased name prefix.
func IngredientSearchKey(prefix string) string {
	return fmt.Sprintf(IngredientListKey, strings.ToLower(strings.TrimSpace(prefix)))
}

func IngredientKey(ingredientID uint) string {
	return fmt.Sprintf(IngredientKeyPrefix, ingredientID)
}

// Glob patterns matching every key of a family.
var (
	TagPattern              = "tag:*"
	IngredientPattern       = "ingredient:*"
	IngredientSearchPattern = fmt.Sprintf(IngredientListKey, "*")
)
