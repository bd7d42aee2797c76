// internal/models/tip.go
package models

// Tip is a single titled piece of conversation advice.
type Tip struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// TipCategory groups tips under a named section.
type TipCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Tips []Tip  `json:"tips"`
}
