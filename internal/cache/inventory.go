package cache

import (
	"fmt"

	"inkwell/internal/models"
)

const (
	CategoriesKeyName = "categories:all"
	CategoryKeyPrefix = "category:%s"
)

func CategoriesKey() string {
	return CategoriesKeyName
}

func CategoryKey(id models.ID) string {
	return fmt.Sprintf(CategoryKeyPrefix, id)
}
