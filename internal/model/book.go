package model

import "time"

// Book is a catalog entry keyed by ISBN.
type Book struct {
	ISBN          string    `json:"isbn"`
	Title         string    `json:"titulo"`
	Author        string    `json:"autor"`
	PublishedAt   time.Time `json:"fechaPublicacion"`
	CategoryName  string    `json:"categoriaNombre"`
	PublisherName string    `json:"editorialNombre"`
}

// BookCreate is the payload for POST /api/v1/libros.
type BookCreate struct {
	ISBN        string    `json:"isbn"`
	Title       string    `json:"titulo"`
	Author      string    `json:"autor"`
	PublishedAt time.Time `json:"fechaPublicacion"`
	CategoryID  int64     `json:"categoriaId"`
	PublisherID int64     `json:"editorialId"`
}

// BookUpdate is the payload for PUT /api/v1/libros/{isbn}.
type BookUpdate struct {
	Title       string    `json:"titulo"`
	Author      string    `json:"autor"`
	PublishedAt time.Time `json:"fechaPublicacion"`
	CategoryID  int64     `json:"categoriaId"`
	PublisherID int64     `json:"editorialId"`
}

// Category groups books by genre or subject.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
}

// Publisher is the editorial house of a book.
type Publisher struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
}
