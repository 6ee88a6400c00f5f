package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campusqa/campus-qa-api/internal/models"
	appErrors "github.com/campusqa/campus-qa-api/pkg/errors"
	"github.com/campusqa/campus-qa-api/pkg/export"
)

type exportQuestionRepository interface {
	List(ctx context.Context, filter models.QuestionFilter) ([]models.Question, int, error)
}

type exportStatsRepository interface {
	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
}

// ExportService renders moderation exports: the question list as CSV and
// the dashboard stats as PDF.
type ExportService struct {
	questions exportQuestionRepository
	stats     exportStatsRepository
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(questions exportQuestionRepository, stats exportStatsRepository, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		questions: questions,
		stats:     stats,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
	}
}

// QuestionsCSV renders the filtered question list as CSV.
func (s *ExportService) QuestionsCSV(ctx context.Context, filter models.QuestionFilter) ([]byte, error) {
	filter.Page = 1
	if filter.Limit <= 0 {
		filter.Limit = 100
	}

	questions, _, err := s.questions.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load questions for export")
	}

	data := export.Dataset{
		Headers: []string{"ID", "Title", "Category", "Priority", "Author", "Answers", "Likes", "Resolved", "Archived", "Created"},
	}
	for _, q := range questions {
		authorName := ""
		if q.Author != nil {
			authorName = q.Author.Name
		}
		data.Rows = append(data.Rows, map[string]string{
			"ID":       q.ID,
			"Title":    q.Title,
			"Category": string(q.Category),
			"Priority": string(q.Priority),
			"Author":   authorName,
			"Answers":  strconv.Itoa(q.AnswerCount),
			"Likes":    strconv.Itoa(q.Likes),
			"Resolved": strconv.FormatBool(q.IsResolved),
			"Archived": strconv.FormatBool(q.IsArchived),
			"Created":  q.CreatedAt.Format(time.RFC3339),
		})
	}

	raw, err := s.csv.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
	}
	return raw, nil
}

// StatsPDF renders the dashboard aggregates as a PDF report.
func (s *ExportService) StatsPDF(ctx context.Context) ([]byte, error) {
	stats, err := s.stats.DashboardStats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute stats for export")
	}

	data := export.Dataset{
		Headers: []string{"Metric", "Value"},
		Rows: []map[string]string{
			{"Metric": "Total users", "Value": strconv.Itoa(stats.Users.Total)},
			{"Metric": "Active users (7d)", "Value": strconv.Itoa(stats.Users.Active)},
			{"Metric": "Questions", "Value": strconv.Itoa(stats.Content.Questions)},
			{"Metric": "Resolved questions", "Value": strconv.Itoa(stats.Content.Resolved)},
			{"Metric": "Answers", "Value": strconv.Itoa(stats.Content.Answers)},
			{"Metric": "Comments", "Value": strconv.Itoa(stats.Content.Comments)},
		},
	}
	for i, contributor := range stats.TopContributors {
		label := fmt.Sprintf("Top contributor #%d", i+1)
		value := fmt.Sprintf("%s (%d)", contributor.Name, contributor.Contributions)
		data.Rows = append(data.Rows, map[string]string{"Metric": label, "Value": value})
	}
	if len(stats.RecentQuestions) > 0 {
		titles := make([]string, 0, len(stats.RecentQuestions))
		for _, q := range stats.RecentQuestions {
			titles = append(titles, q.Title)
		}
		data.Rows = append(data.Rows, map[string]string{"Metric": "Recent questions", "Value": strings.Join(titles, "; ")})
	}

	raw, err := s.pdf.Render(data, "Forum Activity Report")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
	}
	return raw, nil
}
