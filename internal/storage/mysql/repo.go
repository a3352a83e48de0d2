package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"listing_editor/internal/domain"
)

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func valSymbol(b *domain.Bilingual, vi bool) any {
	if b == nil {
		return nil
	}
	if vi {
		return valStr(b.VI)
	}
	return valStr(b.EN)
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

/********** listings **********/

// listingArgs returns the indexed columns followed by the JSON document.
func listingArgs(l domain.Listing) ([]any, error) {
	doc, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("encode listing: %w", err)
	}
	in := l.Information
	return []any{
		in.TransactionType,
		l.Status.Visibility,
		valStr(in.Title.EN),
		valStr(in.Title.VI),
		valStr(in.Project.EN),
		valStr(in.Zone.EN),
		string(doc),
	}, nil
}

func (r *Repo) Create(ctx context.Context, l domain.Listing) (string, error) {
	id := uuid.NewString()
	l.ID = id
	args, err := listingArgs(l)
	if err != nil {
		return "", err
	}
	if _, err := r.db.ExecContext(ctx, insertListingSQL, append([]any{id}, args...)...); err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repo) Update(ctx context.Context, id string, l domain.Listing) error {
	l.ID = id
	args, err := listingArgs(l)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, updateListingSQL, append(args, id)...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id string) (domain.Listing, error) {
	var doc []byte
	if err := r.db.QueryRowContext(ctx, getListingSQL, id).Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Listing{}, domain.ErrNotFound
		}
		return domain.Listing{}, err
	}
	var l domain.Listing
	if err := json.Unmarshal(doc, &l); err != nil {
		return domain.Listing{}, fmt.Errorf("decode listing %s: %w", id, err)
	}
	l.ID = id
	return l, nil
}

/********** lookups **********/

// UpsertLookups writes one collection in a single transaction and deactivates the
// entities that are no longer part of it.
func (r *Repo) UpsertLookups(ctx context.Context, collection string, es []domain.Entity) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if len(es) > 0 {
		values := make([]string, 0, len(es))
		args := make([]any, 0, len(es)*8) // 8 params per row
		for i, e := range es {
			values = append(values, "(?,?,?,?,?,?,?,?)")
			args = append(args,
				collection,
				e.ID,
				e.Name.EN,
				e.Name.VI,
				valSymbol(e.Symbol, false),
				valSymbol(e.Symbol, true),
				e.Status,
				i,
			)
		}
		sqlStr := upsertLookupsPrefix + strings.Join(values, ",") + upsertLookupsOnDup
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}
	}

	deact := deactivateMissingPrefix
	args := []any{collection}
	if len(es) > 0 {
		deact += " AND id NOT IN (" + strings.TrimSuffix(strings.Repeat("?,", len(es)), ",") + ")"
		for _, e := range es {
			args = append(args, e.ID)
		}
	}
	if _, err := tx.ExecContext(ctx, deact, args...); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *Repo) LoadLookups(ctx context.Context) (*domain.Lookups, error) {
	rows, err := r.db.QueryContext(ctx, loadLookupsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byName := make(map[string][]domain.Entity, len(domain.Collections))
	for rows.Next() {
		var (
			collection         string
			e                  domain.Entity
			symbolEN, symbolVI sql.NullString
		)
		if err := rows.Scan(&collection, &e.ID, &e.Name.EN, &e.Name.VI, &symbolEN, &symbolVI, &e.Status); err != nil {
			return nil, err
		}
		if symbolEN.Valid || symbolVI.Valid {
			e.Symbol = &domain.Bilingual{EN: symbolEN.String, VI: symbolVI.String}
		}
		byName[collection] = append(byName[collection], e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lk := &domain.Lookups{}
	for _, name := range domain.Collections {
		es := byName[name]
		if es == nil {
			es = []domain.Entity{}
		}
		lk = lk.With(name, es)
	}
	return lk, nil
}
