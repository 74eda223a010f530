package domain

import "time"

type Money struct {
	Currency string
	Amount   int64
}

type Category struct {
	ID   string
	Name string
}

type Product struct {
	ID          string
	Name        string
	Description string
	Price       Money
	MainImage   string
	Category    *Category
	Rating      float64
	ReviewCount int32
	IsSale      bool
	IsNew       bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
