package model

// Championship is a competition series sanctioning a set of categories.
type Championship struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	CategoryIDs []ID   `json:"categoryIds"`
}

// HasCategory reports whether the championship sanctions the category.
func (c Championship) HasCategory(id ID) bool {
	for _, categoryID := range c.CategoryIDs {
		if categoryID == id {
			return true
		}
	}
	return false
}

// Category is a vehicle or competition class within a championship.
type Category struct {
	ID   ID     `json:"id"`
	Type string `json:"type"`
}
