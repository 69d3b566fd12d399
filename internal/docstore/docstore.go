// Package docstore provides a narrow, vendor-neutral document store:
// collections of JSON documents addressed by id, queryable with equality and
// array-membership predicates.
package docstore

import (
	"context"
	"errors"
)

// ErrNoDocument is returned when a lookup matches no document.
var ErrNoDocument = errors.New("docstore: no document matches")

// ErrAmbiguous is returned by FindOne when more than one document matches.
// Callers that expect a unique match must treat this as a hard failure.
var ErrAmbiguous = errors.New("docstore: multiple documents match")

// Op is a predicate operator.
type Op int

const (
	// OpEqual matches documents whose scalar field equals the value.
	OpEqual Op = iota
	// OpArrayContains matches documents whose array field contains the value.
	OpArrayContains
)

// Predicate selects documents within a collection by a single field.
type Predicate struct {
	Field string
	Op    Op
	Value any
}

// Eq builds an equality predicate on a scalar field.
func Eq(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpEqual, Value: value}
}

// ArrayContains builds a membership predicate on an array field.
func ArrayContains(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpArrayContains, Value: value}
}

// Store is the persistence interface consumed by the repositories.
//
// Documents carry their id in an "id" field; Insert assigns it. Reads
// unmarshal the stored document into dest (a pointer to a struct for FindOne
// and GetByID, a pointer to a slice for FindMany). FindMany returns documents
// in creation order, oldest first.
type Store interface {
	FindOne(ctx context.Context, collection string, p Predicate, dest any) error
	FindMany(ctx context.Context, collection string, p Predicate, dest any) error
	GetByID(ctx context.Context, collection, id string, dest any) error
	// Insert stores doc under a freshly assigned id and returns that id.
	Insert(ctx context.Context, collection string, doc any) (string, error)
	// UpdateFields merges the given fields into an existing document.
	// Array-valued fields are replaced wholesale, not appended to.
	// Returns ErrNoDocument when the id does not exist.
	UpdateFields(ctx context.Context, collection, id string, fields map[string]any) error
	// AddToSet appends value to the document's array field unless it is
	// already present. The membership check and the append are one atomic
	// store operation, so concurrent calls never lose each other's elements.
	// A missing or non-array field is treated as an empty array. Returns
	// ErrNoDocument when the id does not exist.
	AddToSet(ctx context.Context, collection, id, field string, value any) error
}
