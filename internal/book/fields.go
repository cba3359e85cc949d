package book

import "readsync/pkg/models"

// Opt is a presence-tagged value. Set=false means the field was not
// submitted; Set=true with Null=true means it was submitted and cleared.
type Opt[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func Some[T any](v T) Opt[T] { return Opt[T]{Set: true, Value: v} }

func Null[T any]() Opt[T] { return Opt[T]{Set: true, Null: true} }

// Ptr returns nil for a null or absent value.
func (o Opt[T]) Ptr() *T {
	if !o.Set || o.Null {
		return nil
	}
	v := o.Value
	return &v
}

// Fields is a normalized book submission. Only submitted keys are Set.
type Fields struct {
	Title       Opt[string]
	Author      Opt[string]
	Pages       Opt[int]
	CurrentPage Opt[int]
	Status      Opt[models.BookStatus]
	ISBN        Opt[string]
	CoverURL    Opt[string]
	StartDate   Opt[string]
	EndDate     Opt[string]
}

// Empty reports whether no field was submitted.
func (f Fields) Empty() bool {
	return !f.Title.Set && !f.Author.Set && !f.Pages.Set && !f.CurrentPage.Set &&
		!f.Status.Set && !f.ISBN.Set && !f.CoverURL.Set && !f.StartDate.Set && !f.EndDate.Set
}
