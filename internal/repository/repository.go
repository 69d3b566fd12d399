// Package repository implements the domain repositories on top of the
// document store.
package repository

// Collection names in the document store. The token and user collections are
// owned by the identity service; this service only reads them.
const (
	CollectionTokens = "tokensVerification"
	CollectionUsers  = "users"
	CollectionGroups = "groups"
)
