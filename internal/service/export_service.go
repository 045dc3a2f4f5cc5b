package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/internal/models"
	appErrors "github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/pkg/errors"
	"github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/pkg/export"
)

type exportSubmissionStore interface {
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionDetail, int, error)
}

// ExportFile is a rendered register ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders the submission register for staff in CSV or PDF.
type ExportService struct {
	submissions exportSubmissionStore
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(submissions exportSubmissionStore, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		submissions: submissions,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
	}
}

var registerHeaders = []string{
	"Reference", "Student ID", "Last Name", "First Name",
	"Department", "Programme", "Intake Term", "Campus",
	"Status", "Documents", "Created",
}

// SubmissionRegister exports the filtered register in the requested format
// ("csv" or "pdf"). The export ignores pagination and renders every match.
func (s *ExportService) SubmissionRegister(ctx context.Context, filter models.SubmissionFilter, format string) (*ExportFile, error) {
	filter.PageSize = 100
	filter.SortBy = "created_at"
	filter.SortOrder = "asc"

	var submissions []models.SubmissionDetail
	for page := 1; ; page++ {
		filter.Page = page
		batch, _, err := s.submissions.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submissions for export")
		}
		submissions = append(submissions, batch...)
		if len(batch) < filter.PageSize {
			break
		}
	}

	dataset := export.Dataset{Headers: registerHeaders, Rows: make([]map[string]string, 0, len(submissions))}
	for _, sub := range submissions {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Reference":   sub.Reference,
			"Student ID":  sub.StudentID,
			"Last Name":   sub.LastName,
			"First Name":  sub.FirstName,
			"Department":  string(sub.Department),
			"Programme":   sub.Programme,
			"Intake Term": sub.IntakeTerm,
			"Campus":      sub.Campus,
			"Status":      string(sub.Status),
			"Documents":   strconv.Itoa(sub.DocumentsCount),
			"Created":     sub.CreatedAt.Format("2006-01-02"),
		})
	}

	stamp := time.Now().Format("20060102")
	switch format {
	case "csv":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("submission-register-%s.csv", stamp),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case "pdf":
		content, err := s.pdf.Render(dataset, "Submission Register")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("submission-register-%s.pdf", stamp),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
