// Package service contains the business logic: request validation, the
// resolve-then-persist registration flow, display mapping, and the
// best-effort confirmation email. It knows nothing about HTTP; handlers
// translate its apperror returns to status codes.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/novanataka/registration/internal/apperror"
	"github.com/novanataka/registration/internal/export"
	"github.com/novanataka/registration/internal/identity"
	"github.com/novanataka/registration/internal/mailer"
	"github.com/novanataka/registration/internal/model"
	"github.com/novanataka/registration/internal/repository"
)

// RegisterRequest mirrors the public form field-for-field. Member 1 is the
// team lead and mandatory; members 2 and 3 are optional and count toward
// the team size only when their name is non-blank.
type RegisterRequest struct {
	TeamName string `json:"teamName" validate:"required"`

	M1Name    string `json:"m1_name" validate:"required"`
	M1Email   string `json:"m1_email" validate:"required,email"`
	M1Phone   string `json:"m1_phone"`
	M1College string `json:"m1_college"`
	M1Dept    string `json:"m1_dept"`
	M1Year    string `json:"m1_year"`

	M2Name    string `json:"m2_name"`
	M2Phone   string `json:"m2_phone"`
	M2College string `json:"m2_college"`
	M2Dept    string `json:"m2_dept"`
	M2Year    string `json:"m2_year"`

	M3Name    string `json:"m3_name"`
	M3Phone   string `json:"m3_phone"`
	M3College string `json:"m3_college"`
	M3Dept    string `json:"m3_dept"`
	M3Year    string `json:"m3_year"`
}

// Summary is one row of the admin dashboard listing.
type Summary struct {
	TeamID       string `json:"teamId"` // "Team N", derived display rank
	ID           string `json:"id"`     // stable internal identifier
	TeamName     string `json:"teamName"`
	TotalMembers int    `json:"totalMembers"`
	LeadName     string `json:"leadName"`
	LeadEmail    string `json:"leadEmail"`
	RegisteredAt string `json:"registeredAt"`
	LastUpdated  string `json:"lastUpdated"` // "Never" until the first edit
}

// RegistrationService orchestrates the registration flow over whichever
// store backend was wired in.
type RegistrationService struct {
	store    repository.RegistrationStore
	mail     mailer.Mailer
	validate *validator.Validate
	logger   *slog.Logger
}

// NewRegistrationService creates a RegistrationService.
func NewRegistrationService(store repository.RegistrationStore, mail mailer.Mailer, logger *slog.Logger) *RegistrationService {
	return &RegistrationService{
		store:    store,
		mail:     mail,
		validate: validator.New(),
		logger:   logger,
	}
}

// Register creates or updates the registration for the request's lead
// email and returns the user-facing confirmation message.
//
// The confirmation email is dispatched on its own goroutine after the
// write has succeeded: a dead or slow mail relay must never fail, delay,
// or roll back a registration.
func (s *RegistrationService) Register(ctx context.Context, req RegisterRequest) (string, error) {
	req.trim()
	if err := s.validate.Struct(req); err != nil {
		return "", validationError(err)
	}

	submitted := req.toModel()

	existing, err := s.store.FindByEmail(ctx, submitted.LeadEmail)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		s.logger.Error("failed to look up registration",
			slog.String("email", submitted.LeadEmail),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("looking up registration: %w", err)
	}

	reg, isNew := identity.Resolve(existing, submitted)

	if err := s.store.Upsert(ctx, &reg, isNew); err != nil {
		s.logger.Error("failed to persist registration",
			slog.String("email", reg.LeadEmail),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("persisting registration: %w", err)
	}

	s.logger.Info("registration saved",
		slog.String("id", reg.ID),
		slog.String("email", reg.LeadEmail),
		slog.Bool("new", isNew),
	)

	go s.sendConfirmation(reg.LeadEmail, reg.Lead().Name, !isNew)

	if isNew {
		return "Registration successful", nil
	}
	return "Registration updated", nil
}

// sendConfirmation delivers the email and swallows any failure.
func (s *RegistrationService) sendConfirmation(email, leadName string, isUpdate bool) {
	if err := s.mail.SendConfirmation(email, leadName, isUpdate); err != nil {
		s.logger.Error("failed to send confirmation email",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
	}
}

// List returns the dashboard rows, oldest registration first, each stamped
// with its dense "Team N" rank.
func (s *RegistrationService) List(ctx context.Context) ([]Summary, error) {
	regs, err := s.store.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to list registrations", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing registrations: %w", err)
	}

	summaries := make([]Summary, 0, len(regs))
	for i, reg := range regs {
		lastUpdated := export.NeverEditedAt
		if reg.Edited() {
			lastUpdated = reg.UpdatedAt.Format(export.TimeLayout)
		}
		summaries = append(summaries, Summary{
			TeamID:       fmt.Sprintf("Team %d", i+1),
			ID:           reg.ID,
			TeamName:     reg.TeamName,
			TotalMembers: reg.MemberCount(),
			LeadName:     reg.Lead().Name,
			LeadEmail:    reg.LeadEmail,
			RegisteredAt: reg.CreatedAt.Format(export.TimeLayout),
			LastUpdated:  lastUpdated,
		})
	}
	return summaries, nil
}

// GetByEmail fetches one registration in the shape of the public form, so
// the client can prefill it for editing. Unset member fields come back as
// empty strings.
func (s *RegistrationService) GetByEmail(ctx context.Context, email string) (*RegisterRequest, error) {
	normalized := model.NormalizeEmail(email)
	if normalized == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}

	reg, err := s.store.FindByEmail(ctx, normalized)
	if err != nil {
		return nil, err
	}

	form := fromModel(reg)
	return &form, nil
}

// Delete removes the registration for the given lead email. A missing
// email is reported as not-found; the store is untouched either way.
func (s *RegistrationService) Delete(ctx context.Context, email string) error {
	normalized := model.NormalizeEmail(email)
	if normalized == "" {
		return apperror.ValidationFailed("email", "email is required to delete a record")
	}

	deleted, err := s.store.Delete(ctx, normalized)
	if err != nil {
		s.logger.Error("failed to delete registration",
			slog.String("email", normalized),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting registration: %w", err)
	}
	if !deleted {
		return apperror.NotFound("registration", normalized)
	}

	s.logger.Info("registration deleted", slog.String("email", normalized))
	return nil
}

// Export renders the whole registry as an xlsx attachment body. Both
// backends go through the same sheet builder, so the download is identical
// whether the store itself is a workbook or a database.
func (s *RegistrationService) Export(ctx context.Context) ([]byte, error) {
	regs, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing registrations for export: %w", err)
	}

	f, err := export.Build(regs)
	if err != nil {
		return nil, fmt.Errorf("building export: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serializing export: %w", err)
	}
	return buf.Bytes(), nil
}

// trim normalizes the whitespace the form tends to deliver. The lead email
// is canonicalized separately in toModel.
func (r *RegisterRequest) trim() {
	r.TeamName = strings.TrimSpace(r.TeamName)
	r.M1Name = strings.TrimSpace(r.M1Name)
	r.M1Email = strings.TrimSpace(r.M1Email)
	r.M2Name = strings.TrimSpace(r.M2Name)
	r.M3Name = strings.TrimSpace(r.M3Name)
}

func (r RegisterRequest) toModel() model.Registration {
	return model.Registration{
		TeamName:  r.TeamName,
		LeadEmail: model.NormalizeEmail(r.M1Email),
		Members: [model.MaxMembers]model.Member{
			{Name: r.M1Name, Phone: r.M1Phone, College: r.M1College, Dept: r.M1Dept, Year: r.M1Year},
			{Name: r.M2Name, Phone: r.M2Phone, College: r.M2College, Dept: r.M2Dept, Year: r.M2Year},
			{Name: r.M3Name, Phone: r.M3Phone, College: r.M3College, Dept: r.M3Dept, Year: r.M3Year},
		},
	}
}

func fromModel(reg *model.Registration) RegisterRequest {
	return RegisterRequest{
		TeamName:  reg.TeamName,
		M1Name:    reg.Members[0].Name,
		M1Email:   reg.LeadEmail,
		M1Phone:   reg.Members[0].Phone,
		M1College: reg.Members[0].College,
		M1Dept:    reg.Members[0].Dept,
		M1Year:    reg.Members[0].Year,
		M2Name:    reg.Members[1].Name,
		M2Phone:   reg.Members[1].Phone,
		M2College: reg.Members[1].College,
		M2Dept:    reg.Members[1].Dept,
		M2Year:    reg.Members[1].Year,
		M3Name:    reg.Members[2].Name,
		M3Phone:   reg.Members[2].Phone,
		M3College: reg.Members[2].College,
		M3Dept:    reg.Members[2].Dept,
		M3Year:    reg.Members[2].Year,
	}
}

// validationError maps the first validator failure to the app's
// validation error with a field-specific, human-readable message.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.ValidationFailed("", "missing required fields")
	}

	ve := verrs[0]
	field := ve.Field()
	switch ve.Tag() {
	case "required":
		return apperror.ValidationFailed(field, "missing required fields")
	case "email":
		return apperror.ValidationFailed(field, "lead email must be a valid email address")
	default:
		return apperror.ValidationFailed(field, fmt.Sprintf("field %s is invalid", field))
	}
}
