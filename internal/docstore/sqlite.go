package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// SQLiteStore implements Store on top of a SQLite documents table using the
// JSON1 extension. Writes go through writeDB (a MaxOpenConns=1 pool, so
// read-modify-write updates against the same document serialize), reads
// through readDB.
type SQLiteStore struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

// NewSQLiteStore creates a SQLiteStore over a write/read pool pair.
func NewSQLiteStore(writeDB, readDB *sql.DB) *SQLiteStore {
	return &SQLiteStore{writeDB: writeDB, readDB: readDB}
}

// predicateSQL renders a predicate as a WHERE fragment plus its bind args.
// Field names are bound as JSON paths, never interpolated into the SQL text.
func predicateSQL(p Predicate) (string, []any, error) {
	path := "$." + p.Field
	switch p.Op {
	case OpEqual:
		return "json_extract(body, ?) = ?", []any{path, p.Value}, nil
	case OpArrayContains:
		return "EXISTS (SELECT 1 FROM json_each(body, ?) WHERE json_each.value = ?)",
			[]any{path, p.Value}, nil
	default:
		return "", nil, fmt.Errorf("docstore: unknown predicate op %d", p.Op)
	}
}

func (s *SQLiteStore) FindOne(ctx context.Context, collection string, p Predicate, dest any) error {
	where, args, err := predicateSQL(p)
	if err != nil {
		return err
	}

	// LIMIT 2 so an ambiguous match is detectable without a full scan.
	query := "SELECT body FROM documents WHERE collection = ? AND " + where +
		" ORDER BY rowid LIMIT 2"
	rows, err := s.readDB.QueryContext(ctx, query, append([]any{collection}, args...)...)
	if err != nil {
		return fmt.Errorf("docstore: find one in %s: %w", collection, err)
	}
	defer rows.Close() //nolint:errcheck

	var bodies [][]byte
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return fmt.Errorf("docstore: scan %s document: %w", collection, err)
		}
		bodies = append(bodies, body)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("docstore: find one in %s: %w", collection, err)
	}

	switch len(bodies) {
	case 0:
		return ErrNoDocument
	case 1:
		return unmarshalDocument(bodies[0], dest, collection)
	default:
		return ErrAmbiguous
	}
}

func (s *SQLiteStore) FindMany(ctx context.Context, collection string, p Predicate, dest any) error {
	where, args, err := predicateSQL(p)
	if err != nil {
		return err
	}

	query := "SELECT body FROM documents WHERE collection = ? AND " + where +
		" ORDER BY rowid"
	rows, err := s.readDB.QueryContext(ctx, query, append([]any{collection}, args...)...)
	if err != nil {
		return fmt.Errorf("docstore: find many in %s: %w", collection, err)
	}
	defer rows.Close() //nolint:errcheck

	return scanDocuments(rows, dest, collection)
}

func (s *SQLiteStore) GetByID(ctx context.Context, collection, id string, dest any) error {
	var body []byte
	err := s.readDB.QueryRowContext(ctx,
		"SELECT body FROM documents WHERE collection = ? AND id = ?",
		collection, id,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoDocument
	}
	if err != nil {
		return fmt.Errorf("docstore: get %s/%s: %w", collection, id, err)
	}
	return unmarshalDocument(body, dest, collection)
}

func (s *SQLiteStore) Insert(ctx context.Context, collection string, doc any) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("docstore: marshal %s document: %w", collection, err)
	}

	id := uuid.NewString()
	// The assigned id is stamped into the stored body so reads round-trip it.
	_, err = s.writeDB.ExecContext(ctx,
		"INSERT INTO documents (collection, id, body) VALUES (?, ?, json_set(?, '$.id', ?))",
		collection, id, string(body), id,
	)
	if err != nil {
		return "", fmt.Errorf("docstore: insert into %s: %w", collection, err)
	}
	return id, nil
}

func (s *SQLiteStore) UpdateFields(ctx context.Context, collection, id string, fields map[string]any) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("docstore: marshal %s patch: %w", collection, err)
	}

	// json_patch merges objects and replaces arrays wholesale (RFC 7396),
	// which is exactly the UpdateFields contract.
	res, err := s.writeDB.ExecContext(ctx,
		"UPDATE documents SET body = json_patch(body, ?) WHERE collection = ? AND id = ?",
		string(patch), collection, id,
	)
	if err != nil {
		return fmt.Errorf("docstore: update %s/%s: %w", collection, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("docstore: update %s/%s: %w", collection, id, err)
	}
	if n == 0 {
		return ErrNoDocument
	}
	return nil
}

func (s *SQLiteStore) AddToSet(ctx context.Context, collection, id, field string, value any) error {
	path := "$." + field

	// Membership check and append in one statement on the write pool, so the
	// whole read-modify-write cycle serializes with every other write. The
	// json() wrapper keeps json_insert's text result from being stored as a
	// JSON string.
	res, err := s.writeDB.ExecContext(ctx,
		`UPDATE documents
		    SET body = json_set(body, ?1, json(json_insert(COALESCE(json_extract(body, ?1), '[]'), '$[#]', ?2)))
		  WHERE collection = ?3 AND id = ?4
		    AND NOT EXISTS (
		        SELECT 1 FROM json_each(COALESCE(json_extract(body, ?1), '[]'))
		         WHERE json_each.value = ?2
		    )`,
		path, value, collection, id,
	)
	if err != nil {
		return fmt.Errorf("docstore: add to %s/%s %s: %w", collection, id, field, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("docstore: add to %s/%s %s: %w", collection, id, field, err)
	}
	if n > 0 {
		return nil
	}

	// Zero rows means either the id is absent or the value was already in the
	// set. There is no delete operation, so the follow-up existence check
	// cannot race with a removal.
	var one int
	err = s.writeDB.QueryRowContext(ctx,
		"SELECT 1 FROM documents WHERE collection = ? AND id = ?",
		collection, id,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoDocument
	}
	if err != nil {
		return fmt.Errorf("docstore: add to %s/%s %s: %w", collection, id, field, err)
	}
	return nil
}

func unmarshalDocument(body []byte, dest any, collection string) error {
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("docstore: unmarshal %s document: %w", collection, err)
	}
	return nil
}

// scanDocuments unmarshals each row's body into a fresh element of the slice
// that dest points at.
func scanDocuments(rows *sql.Rows, dest any, collection string) error {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("docstore: FindMany dest must be a pointer to a slice, got %T", dest)
	}

	slice := v.Elem()
	elemType := slice.Type().Elem()
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return fmt.Errorf("docstore: scan %s document: %w", collection, err)
		}
		elem := reflect.New(elemType)
		if err := unmarshalDocument(body, elem.Interface(), collection); err != nil {
			return err
		}
		slice = reflect.Append(slice, elem.Elem())
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("docstore: iterate %s documents: %w", collection, err)
	}
	v.Elem().Set(slice)
	return nil
}
