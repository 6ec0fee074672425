package domain

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/lib/pq"
)

//go:generate mockgen -destination mocks/mock_contact_service.go -package mocks github.com/aihubhq/aihub/internal/domain ContactService
//go:generate mockgen -destination mocks/mock_contact_repository.go -package mocks github.com/aihubhq/aihub/internal/domain ContactRepository

// Contact statuses recognized by the UI. Storage accepts any string.
const (
	ContactStatusNew       = "new"
	ContactStatusContacted = "contacted"
	ContactStatusQualified = "qualified"
	ContactStatusFollowUp  = "follow-up"
	ContactStatusClosed    = "closed"
)

// KnownContactStatuses is the funnel order used by contact stats
var KnownContactStatuses = []string{
	ContactStatusNew,
	ContactStatusContacted,
	ContactStatusQualified,
	ContactStatusFollowUp,
	ContactStatusClosed,
}

// Contact is a lead owned by exactly one user
type Contact struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Name            *string   `json:"name"`
	Email           *string   `json:"email"`
	PhoneNumber     *string   `json:"phone_number"`
	CompanyName     *string   `json:"company_name"`
	ContactPosition *string   `json:"contact_position"`
	Address         *string   `json:"address"`
	Status          string    `json:"status"`
	Tags            []string  `json:"tags"`
	AddedAtDate     time.Time `json:"added_at_date"`
}

// ContactData is the canonical shape produced by normalization, before storage
type ContactData struct {
	Name            *string  `json:"name"`
	Email           *string  `json:"email"`
	PhoneNumber     *string  `json:"phone_number"`
	CompanyName     *string  `json:"company_name"`
	ContactPosition *string  `json:"contact_position"`
	Address         *string  `json:"address"`
	Status          string   `json:"status"`
	Tags            []string `json:"tags"`
}

// ContactColumns is the select list matching ScanContact
var ContactColumns = []string{
	"id", "user_id", "name", "email", "phone_number", "company_name",
	"contact_position", "address", "status", "tags", "added_at_date",
}

// ScanContact scans a contact selected with ContactColumns
func ScanContact(scanner interface {
	Scan(dest ...interface{}) error
}) (*Contact, error) {
	var c Contact
	var name, email, phone, company, position, addr sql.NullString
	var tags []string

	if err := scanner.Scan(
		&c.ID,
		&c.UserID,
		&name,
		&email,
		&phone,
		&company,
		&position,
		&addr,
		&c.Status,
		pq.Array(&tags),
		&c.AddedAtDate,
	); err != nil {
		return nil, err
	}

	c.Name = nullStringPtr(name)
	c.Email = nullStringPtr(email)
	c.PhoneNumber = nullStringPtr(phone)
	c.CompanyName = nullStringPtr(company)
	c.ContactPosition = nullStringPtr(position)
	c.Address = nullStringPtr(addr)
	c.Tags = tags

	return &c, nil
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// ContactSearchField is the single column a free-text search applies to
type ContactSearchField string

const (
	SearchFieldName            ContactSearchField = "name"
	SearchFieldEmail           ContactSearchField = "email"
	SearchFieldPhoneNumber     ContactSearchField = "phone_number"
	SearchFieldCompanyName     ContactSearchField = "company_name"
	SearchFieldContactPosition ContactSearchField = "contact_position"
	SearchFieldAddress         ContactSearchField = "address"
	SearchFieldStatus          ContactSearchField = "status"
)

func (f ContactSearchField) IsValid() bool {
	switch f {
	case SearchFieldName, SearchFieldEmail, SearchFieldPhoneNumber, SearchFieldCompanyName,
		SearchFieldContactPosition, SearchFieldAddress, SearchFieldStatus:
		return true
	}
	return false
}

type ContactSortField string

const (
	SortByAddedAtDate ContactSortField = "added_at_date"
	SortByName        ContactSortField = "name"
)

func (f ContactSortField) IsValid() bool {
	return f == SortByAddedAtDate || f == SortByName
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ContactQuery describes one listing of a user's contacts
type ContactQuery struct {
	UserID      string             `json:"-"`
	Search      string             `json:"search,omitempty"`
	SearchField ContactSearchField `json:"search_field,omitempty"`
	// Tags must all be present on a matching contact
	Tags []string `json:"tags,omitempty"`
	// IDs restricts the listing to selected contacts (export of a selection)
	IDs       []string         `json:"ids,omitempty"`
	SortBy    ContactSortField `json:"sort_by,omitempty"`
	SortOrder SortOrder        `json:"sort_order,omitempty"`
}

// DefaultContactQuery is the listing shown before the user changes anything
func DefaultContactQuery(userID string) ContactQuery {
	return ContactQuery{
		UserID:      userID,
		SearchField: SearchFieldName,
		SortBy:      SortByAddedAtDate,
		SortOrder:   SortDesc,
	}
}

// FromQueryParams reads search, search_field, tags and ids (comma separated or repeated), sort_by and sort_order
func (q *ContactQuery) FromQueryParams(params url.Values) {
	q.Search = params.Get("search")
	q.SearchField = ContactSearchField(params.Get("search_field"))
	q.SortBy = ContactSortField(params.Get("sort_by"))
	q.SortOrder = SortOrder(strings.ToLower(params.Get("sort_order")))

	var tags []string
	for _, raw := range params["tags"] {
		tags = append(tags, strings.Split(raw, ",")...)
	}
	q.Tags = NormalizeTags(tags)

	var ids []string
	for _, raw := range params["ids"] {
		ids = append(ids, strings.Split(raw, ",")...)
	}
	q.IDs = NormalizeTags(ids)
}

// Normalize fills defaults and rejects unknown fields. Column names end up in SQL,
// so only the closed sets above are accepted.
func (q *ContactQuery) Normalize() error {
	if q.UserID == "" {
		return NewValidationError("user_id is required")
	}

	q.Search = strings.TrimSpace(q.Search)

	if q.SearchField == "" {
		q.SearchField = SearchFieldName
	}
	if !q.SearchField.IsValid() {
		return NewValidationError(fmt.Sprintf("invalid search field: %s", q.SearchField))
	}

	if q.SortBy == "" {
		q.SortBy = SortByAddedAtDate
	}
	if !q.SortBy.IsValid() {
		return NewValidationError(fmt.Sprintf("invalid sort field: %s", q.SortBy))
	}

	if q.SortOrder == "" {
		q.SortOrder = SortDesc
	}
	if q.SortOrder != SortAsc && q.SortOrder != SortDesc {
		return NewValidationError(fmt.Sprintf("invalid sort order: %s", q.SortOrder))
	}

	q.Tags = NormalizeTags(q.Tags)
	return nil
}

// CreateContactRequest is a manually entered contact
type CreateContactRequest struct {
	Name            string   `json:"name"`
	Email           string   `json:"email" valid:"optional,email"`
	PhoneNumber     string   `json:"phone_number"`
	CompanyName     string   `json:"company_name"`
	ContactPosition string   `json:"contact_position"`
	Address         string   `json:"address"`
	Status          string   `json:"status"`
	Tags            []string `json:"tags"`
}

// Validate returns the ContactData to insert
func (r *CreateContactRequest) Validate() (*ContactData, error) {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)

	if r.Name == "" && r.Email == "" {
		return nil, NewValidationError("Please provide at least a name or email address.")
	}

	if _, err := govalidator.ValidateStruct(r); err != nil {
		return nil, NewValidationError(fmt.Sprintf("invalid contact: %v", err))
	}

	status := strings.TrimSpace(r.Status)
	if status == "" {
		status = ContactStatusNew
	}

	return &ContactData{
		Name:            optionalString(r.Name),
		Email:           optionalString(r.Email),
		PhoneNumber:     optionalString(r.PhoneNumber),
		CompanyName:     optionalString(r.CompanyName),
		ContactPosition: optionalString(r.ContactPosition),
		Address:         optionalString(r.Address),
		Status:          status,
		Tags:            NormalizeTags(r.Tags),
	}, nil
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// IngestContactsRequest carries raw records in any supported payload shape
type IngestContactsRequest struct {
	Records interface{} `json:"records"`
	Tags    []string    `json:"tags"`
}

type AddFromExecutionRequest struct {
	ExecutionID string   `json:"execution_id"`
	Indexes     []int    `json:"indexes"`
	Tags        []string `json:"tags"`
}

func (r *AddFromExecutionRequest) Validate() error {
	if r.ExecutionID == "" {
		return NewValidationError("execution_id is required")
	}
	if len(r.Indexes) == 0 {
		return NewValidationError("at least one row must be selected")
	}
	seen := make(map[int]bool, len(r.Indexes))
	for _, idx := range r.Indexes {
		if idx < 0 {
			return NewValidationError(fmt.Sprintf("invalid row index: %d", idx))
		}
		if seen[idx] {
			return NewValidationError(fmt.Sprintf("duplicate row index: %d", idx))
		}
		seen[idx] = true
	}
	return nil
}

type UpdateContactTagsRequest struct {
	ContactIDs []string `json:"contact_ids"`
	Tags       []string `json:"tags"`
}

func (r *UpdateContactTagsRequest) Validate() error {
	if len(r.ContactIDs) == 0 {
		return NewValidationError("contact_ids is required")
	}
	r.Tags = NormalizeTags(r.Tags)
	if r.Tags == nil {
		r.Tags = []string{}
	}
	return nil
}

type UpdateContactStatusRequest struct {
	ContactID string `json:"contact_id"`
	Status    string `json:"status"`
}

func (r *UpdateContactStatusRequest) Validate() error {
	if r.ContactID == "" {
		return NewValidationError("contact_id is required")
	}
	r.Status = strings.TrimSpace(r.Status)
	if r.Status == "" {
		return NewValidationError("status is required")
	}
	return nil
}

type ContactIDsRequest struct {
	ContactIDs []string `json:"contact_ids"`
}

func (r *ContactIDsRequest) Validate() error {
	if len(r.ContactIDs) == 0 {
		return NewValidationError("contact_ids is required")
	}
	return nil
}

// IngestionResult reports one batched insert. Failures carry a human readable Error and a zero Count.
type IngestionResult struct {
	Success  bool       `json:"success"`
	Count    int        `json:"count"`
	Contacts []*Contact `json:"data,omitempty"`
	Error    string     `json:"error,omitempty"`
	Message  string     `json:"message,omitempty"`
}

// ImportFile is an uploaded spreadsheet
type ImportFile struct {
	Filename string
	Content  io.Reader
}

// ImportPreview lists the first normalized rows of a file without storing them
type ImportPreview struct {
	Total    int            `json:"total"`
	Contacts []*ContactData `json:"contacts"`
}

// ContactStats counts contacts per status, known statuses first
type ContactStats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

type ContactService interface {
	List(ctx context.Context, query ContactQuery) ([]*Contact, error)
	Create(ctx context.Context, userID string, req *CreateContactRequest) (*Contact, error)
	// AddContacts is the batched ingestion used by every creation path
	AddContacts(ctx context.Context, userID string, contacts []*ContactData) *IngestionResult
	IngestRecords(ctx context.Context, userID string, payload interface{}, tags []string) *IngestionResult
	ImportFile(ctx context.Context, userID string, file ImportFile, tags []string) (*IngestionResult, error)
	PreviewFile(ctx context.Context, file ImportFile) (*ImportPreview, error)
	AddFromExecution(ctx context.Context, userID string, req *AddFromExecutionRequest) (*IngestionResult, error)
	UpdateTags(ctx context.Context, userID string, req *UpdateContactTagsRequest) (int64, error)
	CommonTags(ctx context.Context, userID string, contactIDs []string) ([]string, error)
	UpdateStatus(ctx context.Context, userID string, req *UpdateContactStatusRequest) error
	Delete(ctx context.Context, userID string, contactIDs []string) (int64, error)
	Export(ctx context.Context, query ContactQuery, w io.Writer) error
	Stats(ctx context.Context, userID string) (*ContactStats, error)
}

type ContactRepository interface {
	List(ctx context.Context, query ContactQuery) ([]*Contact, error)
	// BulkInsert writes every row in one statement and returns the stored rows
	BulkInsert(ctx context.Context, userID string, contacts []*ContactData) ([]*Contact, error)
	GetByIDs(ctx context.Context, userID string, ids []string) ([]*Contact, error)
	ReplaceTags(ctx context.Context, userID string, ids []string, tags []string) (int64, error)
	UpdateStatus(ctx context.Context, userID, id, status string) error
	DeleteMany(ctx context.Context, userID string, ids []string) (int64, error)
	CountByStatus(ctx context.Context, userID string) (map[string]int, error)
}
