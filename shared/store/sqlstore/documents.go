package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dfryer1193/blogwrite/shared/db"
	"github.com/dfryer1193/blogwrite/shared/store"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var _ store.Documents = (*Documents)(nil)

// Documents implements store.Documents on a single generic table keyed by
// (database, collection, id) with the fields kept as a JSON object.
type Documents struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewDocuments creates a document store on an already migrated database.
func NewDocuments(sqlDB *sqlx.DB) *Documents {
	return &Documents{
		db:  sqlDB,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the clock used for createdAt/updatedAt.
func (d *Documents) WithClock(now func() time.Time) *Documents {
	d.now = now
	return d
}

const (
	documentExistsQuery = `
		SELECT COUNT(*) FROM documents
		WHERE database_id = ? AND collection_id = ? AND id = ?
	`
	insertDocumentQuery = `
		INSERT INTO documents (database_id, collection_id, id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	getDocumentQuery = `
		SELECT id, data, created_at, updated_at
		FROM documents
		WHERE database_id = ? AND collection_id = ? AND id = ?
	`
	updateDocumentQuery = `
		UPDATE documents SET data = ?, updated_at = ?
		WHERE database_id = ? AND collection_id = ? AND id = ?
	`
	deleteDocumentQuery = `
		DELETE FROM documents
		WHERE database_id = ? AND collection_id = ? AND id = ?
	`
	listDocumentsQuery = `
		SELECT id, data, created_at, updated_at
		FROM documents
		WHERE database_id = ? AND collection_id = ?
	`
)

func (d *Documents) Create(ctx context.Context, coll store.Collection, id string, fields map[string]any) (*store.Document, error) {
	if id == "" {
		return nil, fmt.Errorf("document id cannot be empty")
	}

	data, err := json.Marshal(cloneFields(fields))
	if err != nil {
		return nil, fmt.Errorf("failed to encode document %s: %w", id, err)
	}

	var doc *store.Document
	err = db.RunInTransaction(ctx, d.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, d.db)

		var count int
		err := sqlx.GetContext(txCtx, executor, &count, executor.Rebind(documentExistsQuery),
			coll.DatabaseID, coll.CollectionID, id)
		if err != nil {
			return unavailable("check document", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: %s in %s", store.ErrDocumentExists, id, coll)
		}

		now := d.now()
		_, err = executor.ExecContext(txCtx, executor.Rebind(insertDocumentQuery),
			coll.DatabaseID, coll.CollectionID, id, string(data), now, now)
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s in %s", store.ErrDocumentExists, id, coll)
		}
		if err != nil {
			return unavailable("insert document", err)
		}

		doc, err = d.get(txCtx, executor, coll, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (d *Documents) Update(ctx context.Context, coll store.Collection, id string, fields map[string]any) (*store.Document, error) {
	if id == "" {
		return nil, fmt.Errorf("document id cannot be empty")
	}

	var doc *store.Document
	err := db.RunInTransaction(ctx, d.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, d.db)

		current, err := d.get(txCtx, executor, coll, id)
		if err != nil {
			return err
		}

		merged := cloneFields(current.Fields)
		for k, v := range fields {
			merged[k] = v
		}

		data, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("failed to encode document %s: %w", id, err)
		}

		_, err = executor.ExecContext(txCtx, executor.Rebind(updateDocumentQuery),
			string(data), d.now(), coll.DatabaseID, coll.CollectionID, id)
		if err != nil {
			return unavailable("update document", err)
		}

		doc, err = d.get(txCtx, executor, coll, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (d *Documents) Delete(ctx context.Context, coll store.Collection, id string) error {
	if id == "" {
		return fmt.Errorf("document id cannot be empty")
	}

	executor := db.GetExecutor(ctx, d.db)
	res, err := executor.ExecContext(ctx, executor.Rebind(deleteDocumentQuery),
		coll.DatabaseID, coll.CollectionID, id)
	if err != nil {
		return unavailable("delete document", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("delete document", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s in %s", store.ErrDocumentNotFound, id, coll)
	}
	return nil
}

func (d *Documents) Get(ctx context.Context, coll store.Collection, id string) (*store.Document, error) {
	if id == "" {
		return nil, fmt.Errorf("document id cannot be empty")
	}
	return d.get(ctx, db.GetExecutor(ctx, d.db), coll, id)
}

// List loads the collection and applies the queries in memory.
func (d *Documents) List(ctx context.Context, coll store.Collection, queries ...store.Query) (*store.DocumentList, error) {
	executor := db.GetExecutor(ctx, d.db)

	var rows []documentRow
	err := sqlx.SelectContext(ctx, executor, &rows, executor.Rebind(listDocumentsQuery),
		coll.DatabaseID, coll.CollectionID)
	if err != nil {
		return nil, unavailable("list documents", err)
	}

	docs := make([]store.Document, 0, len(rows))
	for i := range rows {
		doc, err := rows[i].toDocument(coll)
		if err != nil {
			return nil, err
		}
		if store.MatchAll(doc.Fields, queries) {
			docs = append(docs, *doc)
		}
	}

	sort.SliceStable(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})

	return &store.DocumentList{Total: len(docs), Documents: docs}, nil
}

func (d *Documents) get(ctx context.Context, executor sqlx.ExtContext, coll store.Collection, id string) (*store.Document, error) {
	var row documentRow
	err := sqlx.GetContext(ctx, executor, &row, executor.Rebind(getDocumentQuery),
		coll.DatabaseID, coll.CollectionID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s in %s", store.ErrDocumentNotFound, id, coll)
	}
	if err != nil {
		return nil, unavailable("get document", err)
	}
	return row.toDocument(coll)
}

// documentRow is a private struct used to scan database rows
type documentRow struct {
	ID        string    `db:"id"`
	Data      string    `db:"data"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *documentRow) toDocument(coll store.Collection) (*store.Document, error) {
	fields := map[string]any{}
	if err := json.Unmarshal([]byte(r.Data), &fields); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", r.ID, err)
	}
	return &store.Document{
		ID:         r.ID,
		Collection: coll,
		Fields:     fields,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}, nil
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", store.ErrUnavailable, op, err)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
