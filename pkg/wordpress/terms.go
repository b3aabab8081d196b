package wordpress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"

	"course-migrator/pkg/db"
)

// CategoryTaxonomy is the taxonomy course categories live in
const CategoryTaxonomy = "course-category"

type term struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// TermsREST manages course categories through /wp/v2/course-category
type TermsREST struct {
	rest restClient
}

// NewTermsREST creates a category store over the REST API
func NewTermsREST(cfg RESTConfig) *TermsREST {
	return &TermsREST{rest: newRESTClient(cfg, "wordpress.terms")}
}

// FindByName returns the id of the category named exactly name
func (t *TermsREST) FindByName(ctx context.Context, name string) (int, bool, error) {
	q := url.Values{"search": {name}, "per_page": {"100"}}
	var terms []term
	if err := t.rest.send(ctx, http.MethodGet, "/wp/v2/"+CategoryTaxonomy+"?"+q.Encode(), nil, nil, &terms); err != nil {
		return 0, false, err
	}
	for _, tm := range terms {
		// names come back HTML-escaped
		if html.UnescapeString(tm.Name) == name {
			return tm.ID, true, nil
		}
	}
	return 0, false, nil
}

// Create adds a category and returns its id. A term_exists rejection
// resolves to the existing term.
func (t *TermsREST) Create(ctx context.Context, name string) (int, error) {
	var created term
	err := t.rest.sendJSON(ctx, http.MethodPost, "/wp/v2/"+CategoryTaxonomy, map[string]string{"name": name}, &created)
	if err != nil {
		if id, ok := existingTermID(err); ok {
			return id, nil
		}
		return 0, err
	}
	if created.ID <= 0 {
		return 0, errors.New("category create returned no id")
	}
	return created.ID, nil
}

// Any returns the id of some existing category
func (t *TermsREST) Any(ctx context.Context) (int, bool, error) {
	var terms []term
	if err := t.rest.send(ctx, http.MethodGet, "/wp/v2/"+CategoryTaxonomy+"?per_page=1&orderby=id&order=asc", nil, nil, &terms); err != nil {
		return 0, false, err
	}
	if len(terms) == 0 {
		return 0, false, nil
	}
	return terms[0].ID, true, nil
}

func existingTermID(err error) (int, bool) {
	var se *StatusError
	if !errors.As(err, &se) || !strings.Contains(se.Body, "term_exists") {
		return 0, false
	}
	var body struct {
		Data struct {
			TermID int `json:"term_id"`
		} `json:"data"`
	}
	if jsonErr := decodeString(se.Body, &body); jsonErr != nil || body.Data.TermID <= 0 {
		return 0, false
	}
	return body.Data.TermID, true
}

// TermsDB manages course categories directly in the terms tables
type TermsDB struct {
	provider db.DBProvider
	prefix   string
}

// NewTermsDB creates a category store over the WordPress database
func NewTermsDB(provider db.DBProvider, tablePrefix string) *TermsDB {
	if tablePrefix == "" {
		tablePrefix = DefaultTablePrefix
	}
	return &TermsDB{provider: provider, prefix: tablePrefix}
}

func (t *TermsDB) handle() (*sql.DB, error) {
	if t.provider == nil || t.provider.DB() == nil {
		return nil, errors.New("wordpress database not connected")
	}
	return t.provider.DB(), nil
}

// FindByName returns the id of the category named exactly name
func (t *TermsDB) FindByName(ctx context.Context, name string) (int, bool, error) {
	handle, err := t.handle()
	if err != nil {
		return 0, false, err
	}
	query := fmt.Sprintf(`SELECT t.term_id FROM %sterms t
JOIN %sterm_taxonomy tt ON tt.term_id = t.term_id
WHERE tt.taxonomy = ? AND t.name = ? LIMIT 1`, t.prefix, t.prefix)

	var id int
	err = handle.QueryRowContext(ctx, query, CategoryTaxonomy, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up category: %w", err)
	}
	return id, true, nil
}

// Create inserts the term and its taxonomy row in one transaction
func (t *TermsDB) Create(ctx context.Context, name string) (int, error) {
	handle, err := t.handle()
	if err != nil {
		return 0, err
	}

	tx, err := handle.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %sterms (name, slug, term_group) VALUES (?, ?, 0)", t.prefix),
		name, Slugify(name))
	if err != nil {
		return 0, fmt.Errorf("failed to insert term: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read term id: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %sterm_taxonomy (term_id, taxonomy, description, parent, count) VALUES (?, ?, '', 0, 0)", t.prefix),
		id, CategoryTaxonomy)
	if err != nil {
		return 0, fmt.Errorf("failed to insert term taxonomy: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit category: %w", err)
	}
	return int(id), nil
}

// Any returns the lowest existing category id
func (t *TermsDB) Any(ctx context.Context) (int, bool, error) {
	handle, err := t.handle()
	if err != nil {
		return 0, false, err
	}
	var id int
	err = handle.QueryRowContext(ctx,
		fmt.Sprintf("SELECT term_id FROM %sterm_taxonomy WHERE taxonomy = ? ORDER BY term_id LIMIT 1", t.prefix),
		CategoryTaxonomy).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query categories: %w", err)
	}
	return id, true, nil
}

// Slugify lowercases name and joins its words with hyphens
func Slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
