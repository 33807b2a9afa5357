package models

// Interest is a seeded tag members pick on their profile
type Interest struct {
	Model
	Name string `json:"name" gorm:"unique;not null"`
}
