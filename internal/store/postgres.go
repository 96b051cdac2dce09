package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"gitea.jw6.us/james/rolodex/internal/contact"
)

const contactColumns = `id, avatar_url, first_name, middle_name, last_name, nickname,
	gender, gender_other, company, department, occupation,
	email_addresses, phone_numbers, mailing_addresses, dates, urls, notes`

// contactRepo implements ContactRepository.
type contactRepo struct {
	pool Pool
}

func (r *contactRepo) Create(ctx context.Context, c *contact.Contact) error {
	defer observeDB(ctx, "contacts.create")()

	args, err := contactArgs(c)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, insertContactSQL, args...); err != nil {
		return fmt.Errorf("insert contact %s: %w", c.ID, err)
	}
	return nil
}

func (r *contactRepo) CreateBatch(ctx context.Context, cs []*contact.Contact) error {
	defer observeDB(ctx, "contacts.create_batch")()

	if len(cs) == 0 {
		return nil
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin contact batch: %w", err)
	}
	for _, c := range cs {
		args, err := contactArgs(c)
		if err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
		if _, err := tx.Exec(ctx, insertContactSQL, args...); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("insert contact %s: %w", c.ID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit contact batch: %w", err)
	}
	return nil
}

func (r *contactRepo) GetByID(ctx context.Context, id string) (*contact.Contact, error) {
	defer observeDB(ctx, "contacts.get")()

	row := r.pool.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id=$1`, id)
	c, err := scanContact(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get contact %s: %w", id, err)
	}
	return c, nil
}

func (r *contactRepo) Update(ctx context.Context, c *contact.Contact) error {
	defer observeDB(ctx, "contacts.update")()

	args, err := contactArgs(c)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, updateContactSQL, args...)
	if err != nil {
		return fmt.Errorf("update contact %s: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *contactRepo) Delete(ctx context.Context, id string) error {
	defer observeDB(ctx, "contacts.delete")()

	tag, err := r.pool.Exec(ctx, `DELETE FROM contacts WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete contact %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *contactRepo) List(ctx context.Context, opts ListOptions) ([]*contact.Contact, error) {
	defer observeDB(ctx, "contacts.list")()

	query, args := listQuery(opts)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*contact.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

func (r *contactRepo) Count(ctx context.Context, search string) (int, error) {
	defer observeDB(ctx, "contacts.count")()

	query := `SELECT COUNT(*) FROM contacts`
	var args []any
	if search != "" {
		query += ` WHERE ` + searchClause
		args = append(args, searchPattern(search))
	}
	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count contacts: %w", err)
	}
	return count, nil
}

const insertContactSQL = `INSERT INTO contacts (` + contactColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

const updateContactSQL = `UPDATE contacts SET
	avatar_url=$2, first_name=$3, middle_name=$4, last_name=$5, nickname=$6,
	gender=$7, gender_other=$8, company=$9, department=$10, occupation=$11,
	email_addresses=$12, phone_numbers=$13, mailing_addresses=$14,
	dates=$15, urls=$16, notes=$17, updated_at=NOW()
	WHERE id=$1`

const searchClause = `(first_name || ' ' || middle_name || ' ' || last_name || ' ' || nickname || ' ' || company) ILIKE $1`

// listQuery builds the listing statement with its positional arguments.
func listQuery(opts ListOptions) (string, []any) {
	var sb strings.Builder
	var args []any

	sb.WriteString(`SELECT ` + contactColumns + ` FROM contacts`)
	if opts.Search != "" {
		args = append(args, searchPattern(opts.Search))
		fmt.Fprintf(&sb, ` WHERE %s`, searchClause)
	}
	sb.WriteString(` ORDER BY last_name, first_name, id`)
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		fmt.Fprintf(&sb, ` OFFSET $%d`, len(args))
	}
	return sb.String(), args
}

// searchPattern wraps a raw search term for ILIKE, escaping the pattern
// metacharacters so user input matches literally.
func searchPattern(term string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
	return "%" + escaped + "%"
}

func contactArgs(c *contact.Contact) ([]any, error) {
	emails, err := json.Marshal(emptyNotNil(c.EmailAddresses))
	if err != nil {
		return nil, fmt.Errorf("marshal emails: %w", err)
	}
	phones, err := json.Marshal(emptyNotNil(c.PhoneNumbers))
	if err != nil {
		return nil, fmt.Errorf("marshal phones: %w", err)
	}
	addresses, err := json.Marshal(emptyNotNil(c.MailingAddresses))
	if err != nil {
		return nil, fmt.Errorf("marshal addresses: %w", err)
	}
	dates, err := json.Marshal(emptyNotNil(c.Dates))
	if err != nil {
		return nil, fmt.Errorf("marshal dates: %w", err)
	}
	urls, err := json.Marshal(emptyNotNil(c.URLs))
	if err != nil {
		return nil, fmt.Errorf("marshal urls: %w", err)
	}
	notes, err := json.Marshal(emptyNotNil(c.Notes))
	if err != nil {
		return nil, fmt.Errorf("marshal notes: %w", err)
	}

	return []any{
		c.ID, c.AvatarURL, c.FirstName, c.MiddleName, c.LastName, c.Nickname,
		string(c.Gender), c.GenderOther, c.Company, c.Department, c.Occupation,
		emails, phones, addresses, dates, urls, notes,
	}, nil
}

func scanContact(row pgx.Row) (*contact.Contact, error) {
	var c contact.Contact
	var gender string
	var emails, phones, addresses, dates, urls, notes []byte

	err := row.Scan(
		&c.ID, &c.AvatarURL, &c.FirstName, &c.MiddleName, &c.LastName, &c.Nickname,
		&gender, &c.GenderOther, &c.Company, &c.Department, &c.Occupation,
		&emails, &phones, &addresses, &dates, &urls, &notes,
	)
	if err != nil {
		return nil, err
	}
	c.Gender = contact.Gender(gender)

	if err := json.Unmarshal(emails, &c.EmailAddresses); err != nil {
		return nil, fmt.Errorf("unmarshal emails: %w", err)
	}
	if err := json.Unmarshal(phones, &c.PhoneNumbers); err != nil {
		return nil, fmt.Errorf("unmarshal phones: %w", err)
	}
	if err := json.Unmarshal(addresses, &c.MailingAddresses); err != nil {
		return nil, fmt.Errorf("unmarshal addresses: %w", err)
	}
	if err := json.Unmarshal(dates, &c.Dates); err != nil {
		return nil, fmt.Errorf("unmarshal dates: %w", err)
	}
	if err := json.Unmarshal(urls, &c.URLs); err != nil {
		return nil, fmt.Errorf("unmarshal urls: %w", err)
	}
	if err := json.Unmarshal(notes, &c.Notes); err != nil {
		return nil, fmt.Errorf("unmarshal notes: %w", err)
	}
	return &c, nil
}

// emptyNotNil keeps JSONB columns as [] rather than null for absent
// collections.
func emptyNotNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
