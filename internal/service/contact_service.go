package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aihubhq/aihub/internal/domain"
	"github.com/aihubhq/aihub/pkg/importer"
	"github.com/aihubhq/aihub/pkg/logger"
	"github.com/aihubhq/aihub/pkg/tracing"
)

const (
	// PreviewRows is how many normalized rows an import preview returns
	PreviewRows = 5

	exportDateLayout = "2006-01-02 15:04:05"
)

var exportHeader = []string{"Name", "Email", "Phone", "Company", "Position", "Address", "Status", "Tags", "Added Date"}

type ContactService struct {
	repo     domain.ContactRepository
	tagRepo  domain.TagRepository
	execRepo domain.ToolExecutionRepository
	logger   logger.Logger
}

func NewContactService(
	repo domain.ContactRepository,
	tagRepo domain.TagRepository,
	execRepo domain.ToolExecutionRepository,
	logger logger.Logger,
) *ContactService {
	return &ContactService{
		repo:     repo,
		tagRepo:  tagRepo,
		execRepo: execRepo,
		logger:   logger,
	}
}

func (s *ContactService) List(ctx context.Context, query domain.ContactQuery) ([]*domain.Contact, error) {
	if err := query.Normalize(); err != nil {
		return nil, err
	}

	contacts, err := s.repo.List(ctx, query)
	if err != nil {
		s.logger.WithField("user_id", query.UserID).WithField("error", err.Error()).Error("Failed to list contacts")
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, nil
}

func (s *ContactService) Create(ctx context.Context, userID string, req *domain.CreateContactRequest) (*domain.Contact, error) {
	data, err := req.Validate()
	if err != nil {
		return nil, err
	}

	result := s.AddContacts(ctx, userID, []*domain.ContactData{data})
	if !result.Success {
		return nil, errors.New(result.Error)
	}
	if len(result.Contacts) == 0 {
		return nil, fmt.Errorf("failed to create contact: no row returned")
	}
	return result.Contacts[0], nil
}

// AddContacts stores the batch in one insert. A storage failure fails the whole
// batch and is reported in the result rather than as an error.
func (s *ContactService) AddContacts(ctx context.Context, userID string, contacts []*domain.ContactData) *domain.IngestionResult {
	ctx, span := tracing.StartServiceSpan(ctx, "ContactService", "AddContacts")
	defer span.End()
	tracing.AddAttribute(ctx, "contacts.count", len(contacts))

	stored, err := s.repo.BulkInsert(ctx, userID, contacts)
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		s.logger.WithFields(map[string]interface{}{
			"user_id": userID,
			"count":   len(contacts),
			"error":   err.Error(),
		}).Error("Failed to add contacts")
		return &domain.IngestionResult{
			Success: false,
			Count:   0,
			Error:   fmt.Sprintf("Failed to add contacts: %s", err.Error()),
		}
	}

	s.registerTags(ctx, userID, contacts)

	return &domain.IngestionResult{
		Success:  true,
		Count:    len(stored),
		Contacts: stored,
	}
}

// registerTags adds applied tags to the vocabulary. The contacts are already stored,
// so a failure here is only logged.
func (s *ContactService) registerTags(ctx context.Context, userID string, contacts []*domain.ContactData) {
	var all []string
	for _, c := range contacts {
		all = append(all, c.Tags...)
	}
	tags := domain.NormalizeTags(all)
	if len(tags) == 0 {
		return
	}

	if err := s.tagRepo.EnsureTags(ctx, userID, tags); err != nil {
		s.logger.WithField("user_id", userID).WithField("error", err.Error()).Warn("Failed to register tags")
	}
}

func (s *ContactService) IngestRecords(ctx context.Context, userID string, payload interface{}, tags []string) *domain.IngestionResult {
	contacts := domain.NormalizeContactPayload(payload)
	domain.AttachTags(contacts, tags)
	return s.AddContacts(ctx, userID, contacts)
}

func (s *ContactService) ImportFile(ctx context.Context, userID string, file domain.ImportFile, tags []string) (*domain.IngestionResult, error) {
	contacts, err := s.readFile(file)
	if err != nil {
		s.logger.WithField("user_id", userID).WithField("filename", file.Filename).WithField("error", err.Error()).Warn("Rejected contact import")
		return nil, err
	}

	domain.AttachTags(contacts, tags)
	result := s.AddContacts(ctx, userID, contacts)
	if result.Success {
		result.Message = fmt.Sprintf("Successfully imported %d contacts", result.Count)
		s.logger.WithField("user_id", userID).WithField("count", result.Count).Info("Imported contacts")
	}
	return result, nil
}

func (s *ContactService) PreviewFile(ctx context.Context, file domain.ImportFile) (*domain.ImportPreview, error) {
	contacts, err := s.readFile(file)
	if err != nil {
		return nil, err
	}

	preview := &domain.ImportPreview{Total: len(contacts), Contacts: contacts}
	if len(contacts) > PreviewRows {
		preview.Contacts = contacts[:PreviewRows]
	}
	return preview, nil
}

func (s *ContactService) readFile(file domain.ImportFile) ([]*domain.ContactData, error) {
	records, err := importer.Parse(file.Filename, file.Content)
	switch {
	case errors.Is(err, importer.ErrUnsupportedFormat):
		return nil, domain.NewValidationError("Please select a CSV, XLS, or XLSX file.")
	case errors.Is(err, importer.ErrFileTooLarge):
		return nil, domain.NewValidationError(fmt.Sprintf("The file is too large. The maximum size is %dMB.", importer.MaxFileSize>>20))
	case err != nil:
		return nil, domain.NewValidationError("Failed to process the file. Please check the file format and try again.")
	}

	contacts := make([]*domain.ContactData, 0, len(records))
	for _, record := range records {
		contacts = append(contacts, domain.NormalizeContactRecord(record))
	}
	return contacts, nil
}

// AddFromExecution ingests the selected rows of an execution's lead array
func (s *ContactService) AddFromExecution(ctx context.Context, userID string, req *domain.AddFromExecutionRequest) (*domain.IngestionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	execution, err := s.execRepo.GetByID(ctx, userID, req.ExecutionID)
	if err != nil {
		return nil, err
	}

	leads, ok := domain.DetectLeads(execution.OutputData)
	if !ok {
		return nil, domain.NewValidationError("execution output does not contain contacts")
	}

	contacts := make([]*domain.ContactData, 0, len(req.Indexes))
	for _, idx := range req.Indexes {
		if idx >= len(leads.Rows) {
			return nil, domain.NewValidationError(fmt.Sprintf("row %d is out of range", idx))
		}
		if !leads.IsRecord(idx) {
			return nil, domain.NewValidationError(fmt.Sprintf("row %d is not a contact record", idx))
		}
		contacts = append(contacts, domain.NormalizeContactRecord(leads.Rows[idx]))
	}
	domain.AttachTags(contacts, req.Tags)

	s.logger.WithFields(map[string]interface{}{
		"user_id":      userID,
		"execution_id": req.ExecutionID,
		"count":        len(contacts),
	}).Debug("Adding contacts from execution")

	return s.AddContacts(ctx, userID, contacts), nil
}

// UpdateTags replaces the tag list of every selected contact
func (s *ContactService) UpdateTags(ctx context.Context, userID string, req *domain.UpdateContactTagsRequest) (int64, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}

	updated, err := s.repo.ReplaceTags(ctx, userID, req.ContactIDs, req.Tags)
	if err != nil {
		s.logger.WithField("user_id", userID).WithField("error", err.Error()).Error("Failed to update contact tags")
		return 0, fmt.Errorf("failed to update tags: %w", err)
	}

	if len(req.Tags) > 0 {
		if err := s.tagRepo.EnsureTags(ctx, userID, req.Tags); err != nil {
			s.logger.WithField("user_id", userID).WithField("error", err.Error()).Warn("Failed to register tags")
		}
	}
	return updated, nil
}

func (s *ContactService) CommonTags(ctx context.Context, userID string, contactIDs []string) ([]string, error) {
	if len(contactIDs) == 0 {
		return []string{}, nil
	}

	contacts, err := s.repo.GetByIDs(ctx, userID, contactIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get contacts: %w", err)
	}
	return domain.CommonTags(contacts), nil
}

func (s *ContactService) UpdateStatus(ctx context.Context, userID string, req *domain.UpdateContactStatusRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return s.repo.UpdateStatus(ctx, userID, req.ContactID, req.Status)
}

func (s *ContactService) Delete(ctx context.Context, userID string, contactIDs []string) (int64, error) {
	req := domain.ContactIDsRequest{ContactIDs: contactIDs}
	if err := req.Validate(); err != nil {
		return 0, err
	}

	deleted, err := s.repo.DeleteMany(ctx, userID, contactIDs)
	if err != nil {
		s.logger.WithField("user_id", userID).WithField("error", err.Error()).Error("Failed to delete contacts")
		return 0, fmt.Errorf("failed to delete contacts: %w", err)
	}
	s.logger.WithField("user_id", userID).WithField("count", deleted).Info("Deleted contacts")
	return deleted, nil
}

// Export writes the listing as CSV with every field quoted
func (s *ContactService) Export(ctx context.Context, query domain.ContactQuery, w io.Writer) error {
	contacts, err := s.List(ctx, query)
	if err != nil {
		return err
	}
	return writeContactsCSV(w, contacts)
}

func writeContactsCSV(w io.Writer, contacts []*domain.Contact) error {
	bw := bufio.NewWriter(w)
	writeQuotedRow(bw, exportHeader)
	for _, c := range contacts {
		bw.WriteByte('\n')
		writeQuotedRow(bw, []string{
			deref(c.Name),
			deref(c.Email),
			deref(c.PhoneNumber),
			deref(c.CompanyName),
			deref(c.ContactPosition),
			deref(c.Address),
			c.Status,
			strings.Join(c.Tags, ", "),
			c.AddedAtDate.UTC().Format(exportDateLayout),
		})
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

func writeQuotedRow(w *bufio.Writer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(f, `"`, `""`))
		w.WriteByte('"')
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Stats counts contacts per status. Known statuses are always present.
func (s *ContactService) Stats(ctx context.Context, userID string) (*domain.ContactStats, error) {
	counts, err := s.repo.CountByStatus(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count contacts: %w", err)
	}

	stats := &domain.ContactStats{ByStatus: make(map[string]int, len(counts)+len(domain.KnownContactStatuses))}
	for _, status := range domain.KnownContactStatuses {
		stats.ByStatus[status] = 0
	}
	for status, n := range counts {
		stats.ByStatus[status] = n
		stats.Total += n
	}
	return stats, nil
}
