package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rezonia/einvoice/internal/model"
)

const artifactColumns = `id, invoice_id, owner_id, format, standard, document, container, amount,
	validation_outcome, validation_errors, transmission_status, transmission_method,
	recipient_class, routing_id, created_at, updated_at`

// SQL persists artifacts in sqlite or postgres
type SQL struct {
	db      *sql.DB
	dialect Dialect
	clock   func() time.Time
}

// SQLOption configures a SQL store
type SQLOption func(*SQL)

// WithSQLClock sets the clock used for status updates
func WithSQLClock(clock func() time.Time) SQLOption {
	return func(s *SQL) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewSQL constructs a SQL artifact store. Call Migrate before first use.
func NewSQL(db *sql.DB, dialect Dialect, opts ...SQLOption) *SQL {
	s := &SQL{
		db:      db,
		dialect: dialect,
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Migrate creates the artifact and settings tables if they are missing
func (s *SQL) Migrate(ctx context.Context) error {
	return migrate(ctx, s.db, s.dialect)
}

func migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	for _, stmt := range dialect.schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Save inserts the artifact and returns its id. A missing id is generated.
func (s *SQL) Save(ctx context.Context, a *model.ComplianceArtifact) (string, error) {
	if a == nil {
		return "", model.MissingField("artifact")
	}
	if err := a.Check(); err != nil {
		return "", err
	}

	id := a.ID
	if id == "" {
		id = uuid.NewString()
	}
	findings, err := json.Marshal(nonNil(a.ValidationErrors))
	if err != nil {
		return "", fmt.Errorf("encode validation errors: %w", err)
	}

	query := s.dialect.rebind(`INSERT INTO compliance_artifacts (` + artifactColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = s.db.ExecContext(ctx, query,
		id, a.InvoiceID, a.OwnerID, string(a.Format), string(a.Standard), a.Document, a.Container,
		a.Amount.StringFixed(2), string(a.ValidationOutcome), string(findings),
		string(a.TransmissionStatus), string(a.TransmissionMethod), string(a.RecipientClass), a.RoutingID,
		a.CreatedAt.UTC(), a.UpdatedAt.UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert artifact: %w", err)
	}
	return id, nil
}

// UpdateStatus changes the transmission status of an artifact
func (s *SQL) UpdateStatus(ctx context.Context, id string, status model.TransmissionStatus) error {
	var outcome string
	err := s.db.QueryRowContext(ctx,
		s.dialect.rebind(`SELECT validation_outcome FROM compliance_artifacts WHERE id = ?`), id,
	).Scan(&outcome)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load artifact outcome: %w", err)
	}
	if err := model.CheckTransition(model.ValidationOutcome(outcome), status); err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		s.dialect.rebind(`UPDATE compliance_artifacts SET transmission_status = ?, updated_at = ? WHERE id = ?`),
		string(status), s.clock().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update artifact status: %w", err)
	}
	return nil
}

// Get loads one artifact
func (s *SQL) Get(ctx context.Context, id string) (*model.ComplianceArtifact, error) {
	row := s.db.QueryRowContext(ctx,
		s.dialect.rebind(`SELECT `+artifactColumns+` FROM compliance_artifacts WHERE id = ?`), id)
	a, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get artifact: %w", err)
	}
	return a, nil
}

// ListByOwner returns the owner's artifacts, oldest first
func (s *SQL) ListByOwner(ctx context.Context, ownerID string) ([]*model.ComplianceArtifact, error) {
	rows, err := s.db.QueryContext(ctx,
		s.dialect.rebind(`SELECT `+artifactColumns+` FROM compliance_artifacts WHERE owner_id = ? ORDER BY created_at, id`),
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	out := make([]*model.ComplianceArtifact, 0)
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row scanner) (*model.ComplianceArtifact, error) {
	var (
		a                                   model.ComplianceArtifact
		format, standard, outcome, findings string
		status, method, class               string
		createdAt, updatedAt                timestamp
	)
	err := row.Scan(
		&a.ID, &a.InvoiceID, &a.OwnerID, &format, &standard, &a.Document, &a.Container, &a.Amount,
		&outcome, &findings, &status, &method, &class, &a.RoutingID, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(findings), &a.ValidationErrors); err != nil {
		return nil, fmt.Errorf("decode validation errors: %w", err)
	}
	a.Format = model.FormatTag(format)
	a.Standard = model.Standard(standard)
	a.ValidationOutcome = model.ValidationOutcome(outcome)
	a.TransmissionStatus = model.TransmissionStatus(status)
	a.TransmissionMethod = model.TransmissionMethod(method)
	a.RecipientClass = model.RecipientClass(class)
	a.CreatedAt = time.Time(createdAt)
	a.UpdatedAt = time.Time(updatedAt)
	if len(a.Container) == 0 {
		a.Container = nil
	}
	if len(a.ValidationErrors) == 0 {
		a.ValidationErrors = nil
	}
	return &a, nil
}

// timestamp scans TIMESTAMPTZ values from postgres and the text form
// sqlite drivers may hand back.
type timestamp time.Time

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

func (t *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*t = timestamp(v.UTC())
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		*t = timestamp(time.Time{})
		return nil
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (t *timestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = timestamp(parsed.UTC())
			return nil
		}
	}
	return fmt.Errorf("unparseable timestamp %q", s)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
