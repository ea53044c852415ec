package seed

import (
	"embed"
	"fmt"
	"strings"

	"foodgram/internal/validation"

	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures/*.yml
var fixtureFS embed.FS

// TagFixture is one tag entry of tags.yml. An empty slug is derived from the name.
type TagFixture struct {
	Name  string `yaml:"name" json:"name" validate:"required,max=200"`
	Color string `yaml:"color" json:"color" validate:"required,hexcolor"`
	Slug  string `yaml:"slug" json:"slug" validate:"required,slug,max=200"`
}

// IngredientFixture is one entry of ingredients.yml.
type IngredientFixture struct {
	Name            string `yaml:"name"`
	MeasurementUnit string `yaml:"measurement_unit"`
}

// Fixtures is the reference data loaded into a fresh database.
type Fixtures struct {
	Tags        []TagFixture
	Ingredients []IngredientFixture
}

// ParseTags decodes a YAML tag list and fills in missing slugs.
func ParseTags(data []byte) ([]TagFixture, error) {
	var tags []TagFixture
	if err := yaml.Unmarshal(data, &tags); err != nil {
		return nil, fmt.Errorf("parse tags: %w", err)
	}
	for i := range tags {
		tags[i].Name = strings.TrimSpace(tags[i].Name)
		if tags[i].Name == "" {
			return nil, fmt.Errorf("parse tags: entry %d has no name", i)
		}
		if tags[i].Slug == "" {
			tags[i].Slug = slug.Make(tags[i].Name)
		}
		if !slug.IsSlug(tags[i].Slug) {
			return nil, fmt.Errorf("parse tags: %q is not a valid slug", tags[i].Slug)
		}
		if err := validation.Struct(tags[i]); err != nil {
			return nil, fmt.Errorf("parse tags: entry %d: %w", i, err)
		}
	}
	return tags, nil
}

// ParseIngredients decodes a YAML ingredient list.
func ParseIngredients(data []byte) ([]IngredientFixture, error) {
	var items []IngredientFixture
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse ingredients: %w", err)
	}
	for i, it := range items {
		if strings.TrimSpace(it.Name) == "" || strings.TrimSpace(it.MeasurementUnit) == "" {
			return nil, fmt.Errorf("parse ingredients: entry %d needs name and measurement_unit", i)
		}
	}
	return items, nil
}

// DefaultFixtures returns the embedded tag and ingredient lists.
func DefaultFixtures() (*Fixtures, error) {
	tagData, err := fixtureFS.ReadFile("fixtures/tags.yml")
	if err != nil {
		return nil, err
	}
	ingredientData, err := fixtureFS.ReadFile("fixtures/ingredients.yml")
	if err != nil {
		return nil, err
	}

	tags, err := ParseTags(tagData)
	if err != nil {
		return nil, err
	}
	ingredients, err := ParseIngredients(ingredientData)
	if err != nil {
		return nil, err
	}
	return &Fixtures{Tags: tags, Ingredients: ingredients}, nil
}
