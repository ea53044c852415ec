package repository

import (
	"context"

	"foodgram/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RelationStore is a set of (subject, object) pairs kept in one join table.
// Add and Remove report whether the set changed; the unique key on the
// table makes concurrent duplicate adds resolve to a single insert.
type RelationStore interface {
	Add(ctx context.Context, subjectID, objectID uint) (bool, error)
	Remove(ctx context.Context, subjectID, objectID uint) (bool, error)
	Contains(ctx context.Context, subjectID, objectID uint) (bool, error)
	ObjectIDs(ctx context.Context, subjectID uint, candidates []uint) (map[uint]bool, error)
	CountObjects(ctx context.Context, subjectID uint) (int64, error)
}

type relationDef struct {
	table       string
	subjectCol  string
	objectCol   string
	targetTable string
	targetName  string
	newRow      func(subjectID, objectID uint) interface{}
	model       interface{}
}

type relationStore struct {
	db  *gorm.DB
	def relationDef
}

// NewFavoriteStore returns the (user, recipe) favorites relation.
func NewFavoriteStore(db *gorm.DB) RelationStore {
	return &relationStore{db: db, def: relationDef{
		table:       "favorites",
		subjectCol:  "user_id",
		objectCol:   "recipe_id",
		targetTable: "recipes",
		targetName:  "Recipe",
		newRow: func(s, o uint) interface{} {
			return &models.Favorite{UserID: s, RecipeID: o}
		},
		model: &models.Favorite{},
	}}
}

// NewCartStore returns the (user, recipe) shopping cart relation.
func NewCartStore(db *gorm.DB) RelationStore {
	return &relationStore{db: db, def: relationDef{
		table:       "shopping_carts",
		subjectCol:  "user_id",
		objectCol:   "recipe_id",
		targetTable: "recipes",
		targetName:  "Recipe",
		newRow: func(s, o uint) interface{} {
			return &models.CartItem{UserID: s, RecipeID: o}
		},
		model: &models.CartItem{},
	}}
}

// NewFollowStore returns the (follower, author) subscription relation.
func NewFollowStore(db *gorm.DB) RelationStore {
	return &relationStore{db: db, def: relationDef{
		table:       "follows",
		subjectCol:  "user_id",
		objectCol:   "author_id",
		targetTable: "users",
		targetName:  "User",
		newRow: func(s, o uint) interface{} {
			return &models.Follow{UserID: s, AuthorID: o}
		},
		model: &models.Follow{},
	}}
}

// Add inserts the pair. A missing object yields NOT_FOUND; an existing pair
// yields (false, nil).
func (r *relationStore) Add(ctx context.Context, subjectID, objectID uint) (bool, error) {
	var inserted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Table(r.def.targetTable).Where("id = ?", objectID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return models.NewNotFoundError(r.def.targetName, objectID)
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(r.def.newRow(subjectID, objectID))
		if res.Error != nil {
			return res.Error
		}
		inserted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, translateError(err, r.def.targetName, objectID)
	}
	return inserted, nil
}

func (r *relationStore) Remove(ctx context.Context, subjectID, objectID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where(r.def.subjectCol+" = ? AND "+r.def.objectCol+" = ?", subjectID, objectID).
		Delete(r.def.model)
	if res.Error != nil {
		return false, translateError(res.Error, r.def.targetName, objectID)
	}
	return res.RowsAffected > 0, nil
}

func (r *relationStore) Contains(ctx context.Context, subjectID, objectID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Table(r.def.table).
		Where(r.def.subjectCol+" = ? AND "+r.def.objectCol+" = ?", subjectID, objectID).
		Count(&n).Error
	if err != nil {
		return false, translateError(err, r.def.targetName, objectID)
	}
	return n > 0, nil
}

// ObjectIDs reports which of candidates are related to subjectID.
func (r *relationStore) ObjectIDs(ctx context.Context, subjectID uint, candidates []uint) (map[uint]bool, error) {
	out := make(map[uint]bool, len(candidates))
	if subjectID == 0 || len(candidates) == 0 {
		return out, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).Table(r.def.table).
		Where(r.def.subjectCol+" = ? AND "+r.def.objectCol+" IN ?", subjectID, uniqueIDs(candidates)).
		Pluck(r.def.objectCol, &ids).Error
	if err != nil {
		return nil, translateError(err, r.def.targetName, candidates)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *relationStore) CountObjects(ctx context.Context, subjectID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Table(r.def.table).
		Where(r.def.subjectCol+" = ?", subjectID).
		Count(&n).Error
	if err != nil {
		return 0, translateError(err, r.def.targetName, subjectID)
	}
	return n, nil
}
