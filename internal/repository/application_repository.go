package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/grant-service/internal/domain"
)

// ApplicationFilter captures listing parameters.
type ApplicationFilter struct {
	ApplicantID *string
	Statuses    []domain.ApplicationStatus
	Limit       int
	Offset      int
}

// ApplicationRepository encapsulates application persistence. Update replaces the
// whole record, nested comments and assessments included.
type ApplicationRepository interface {
	Create(ctx context.Context, app *domain.Application) error
	Update(ctx context.Context, app *domain.Application) error
	GetByID(ctx context.Context, id string) (*domain.Application, error)
	List(ctx context.Context, filter ApplicationFilter) ([]domain.Application, error)
}

type applicationRepository struct {
	pool *pgxpool.Pool
}

// NewApplicationRepository instantiates the Postgres repository.
func NewApplicationRepository(pool *pgxpool.Pool) ApplicationRepository {
	return &applicationRepository{pool: pool}
}

const applicationColumns = `id, applicant_id, applicant_name, title, application_type, publication_type,
               journal_or_conference, quartile, impact_factor, indexing_type, publisher,
               conference_place_date, registration_fee, status, comments, committee_assessments,
               dean_recommendation, final_decision, committee_quorum, created_at, updated_at`

func (r *applicationRepository) Create(ctx context.Context, app *domain.Application) error {
	const query = `
        INSERT INTO applications (id, applicant_id, applicant_name, title, application_type, publication_type,
            journal_or_conference, quartile, impact_factor, indexing_type, publisher, conference_place_date,
            registration_fee, status, comments, committee_assessments, dean_recommendation, final_decision,
            committee_quorum, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		app.ID,
		app.ApplicantID,
		app.ApplicantName,
		app.Title,
		app.ApplicationType,
		app.PublicationType,
		app.JournalOrConference,
		app.Quartile,
		app.ImpactFactor,
		app.IndexingType,
		app.Publisher,
		app.ConferencePlaceDate,
		app.RegistrationFee,
		app.Status,
		commentsOrEmpty(app.Comments),
		assessmentsOrEmpty(app.CommitteeAssessments),
		app.DeanRecommendation,
		app.FinalDecision,
		app.CommitteeQuorum,
		app.CreatedAt,
	).Scan(&app.UpdatedAt)
}

func (r *applicationRepository) Update(ctx context.Context, app *domain.Application) error {
	const query = `
        UPDATE applications SET status=$1, comments=$2, committee_assessments=$3, dean_recommendation=$4,
            final_decision=$5, committee_quorum=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		app.Status,
		commentsOrEmpty(app.Comments),
		assessmentsOrEmpty(app.CommitteeAssessments),
		app.DeanRecommendation,
		app.FinalDecision,
		app.CommitteeQuorum,
		app.ID,
	).Scan(&app.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrApplicationNotFound
	}
	return err
}

func (r *applicationRepository) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id=$1`
	app, err := scanApplication(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrApplicationNotFound
	}
	return app, err
}

func (r *applicationRepository) List(ctx context.Context, filter ApplicationFilter) ([]domain.Application, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ApplicantID != nil {
		args = append(args, *filter.ApplicantID)
		clauses = append(clauses, fmt.Sprintf("applicant_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	query := fmt.Sprintf(`SELECT %s FROM applications WHERE %s ORDER BY created_at DESC, seq DESC`,
		applicationColumns, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *app)
	}
	return result, rows.Err()
}

func scanApplication(row pgx.Row) (*domain.Application, error) {
	var app domain.Application
	if err := row.Scan(
		&app.ID,
		&app.ApplicantID,
		&app.ApplicantName,
		&app.Title,
		&app.ApplicationType,
		&app.PublicationType,
		&app.JournalOrConference,
		&app.Quartile,
		&app.ImpactFactor,
		&app.IndexingType,
		&app.Publisher,
		&app.ConferencePlaceDate,
		&app.RegistrationFee,
		&app.Status,
		&app.Comments,
		&app.CommitteeAssessments,
		&app.DeanRecommendation,
		&app.FinalDecision,
		&app.CommitteeQuorum,
		&app.CreatedAt,
		&app.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &app, nil
}

func commentsOrEmpty(comments []domain.Comment) []domain.Comment {
	if comments == nil {
		return []domain.Comment{}
	}
	return comments
}

func assessmentsOrEmpty(assessments []domain.CommitteeAssessment) []domain.CommitteeAssessment {
	if assessments == nil {
		return []domain.CommitteeAssessment{}
	}
	return assessments
}
