package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/gocarina/gocsv"
	"github.com/sourcegraph/conc/pool"

	"github.com/tutordesk/tutordesk/internal/api/dto"
	"github.com/tutordesk/tutordesk/internal/domain/client"
	"github.com/tutordesk/tutordesk/internal/logger"
	"github.com/tutordesk/tutordesk/internal/service"
	"github.com/tutordesk/tutordesk/internal/types"
)

const importConcurrency = 4

// ClientImportRow is one line of a client CSV export from the previous back-office
type ClientImportRow struct {
	Type        string `csv:"type_client"`
	Status      string `csv:"client_status"`
	FirstName   string `csv:"prenom"`
	LastName    string `csv:"nom"`
	Institution string `csv:"etablissement"`
	Email       string `csv:"email"`
	Phone       string `csv:"telephone"`
	City        string `csv:"ville"`
	SubType     string `csv:"sous_type"`
	Notes       string `csv:"notes"`
}

// ClientImportSummary contains statistics about the import process
type ClientImportSummary struct {
	TotalRows      int
	ClientsCreated int
	ClientsSkipped int
	Errors         []string
}

type clientImportScript struct {
	log           *logger.Logger
	clientService service.ClientService
	clientRepo    client.Repository
	summary       ClientImportSummary
	summaryMu     sync.Mutex

	// emails already present, loaded before processing rows
	knownMu sync.Mutex
	known   map[string]bool
}

// ToCreateRequest maps the row onto the admin create payload
func (r *ClientImportRow) ToCreateRequest() *dto.CreateClientRequest {
	req := &dto.CreateClientRequest{
		IdentityInput: dto.IdentityInput{Type: types.ClientType(strings.TrimSpace(r.Type))},
		Status:        types.ClientStatus(strings.TrimSpace(r.Status)),
		SubType:       strings.TrimSpace(r.SubType),
		Notes:         strings.TrimSpace(r.Notes),
	}
	contact := client.Contact{
		Name:  strings.TrimSpace(r.FirstName + " " + r.LastName),
		Email: strings.TrimSpace(r.Email),
		Phone: strings.TrimSpace(r.Phone),
	}
	switch req.Type {
	case types.ClientTypeInstitution:
		req.Institution = &client.Institution{
			Name:          strings.TrimSpace(r.Institution),
			City:          strings.TrimSpace(r.City),
			ModuleContact: contact,
		}
	default:
		req.Individual = &client.Individual{
			FirstName: strings.TrimSpace(r.FirstName),
			LastName:  strings.TrimSpace(r.LastName),
			Email:     contact.Email,
			Phone:     contact.Phone,
			City:      strings.TrimSpace(r.City),
		}
	}
	return req
}

// ParseClientCSV reads rows from r
func ParseClientCSV(r io.Reader) ([]*ClientImportRow, error) {
	var rows []*ClientImportRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse client CSV: %w", err)
	}
	return rows, nil
}

func (s *clientImportScript) bulkLoadEmails(ctx context.Context) error {
	// no QueryFilter means no LIMIT
	clients, err := s.clientRepo.List(ctx, &types.ClientFilter{})
	if err != nil {
		return err
	}
	for _, c := range clients {
		if email := strings.ToLower(c.Email()); email != "" {
			s.known[email] = true
		}
	}
	return nil
}

// claimEmail reports whether email is new, and marks it as seen
func (s *clientImportScript) claimEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return true
	}
	s.knownMu.Lock()
	defer s.knownMu.Unlock()
	if s.known[email] {
		return false
	}
	s.known[email] = true
	return true
}

func (s *clientImportScript) processRow(ctx context.Context, row *ClientImportRow) error {
	if !s.claimEmail(row.Email) {
		s.summaryMu.Lock()
		s.summary.ClientsSkipped++
		s.summaryMu.Unlock()
		s.log.Infow("client already exists, skipping", "email", row.Email)
		return nil
	}

	created, err := s.clientService.CreateClient(ctx, row.ToCreateRequest())
	if err != nil {
		return err
	}

	s.summaryMu.Lock()
	s.summary.ClientsCreated++
	s.summaryMu.Unlock()
	s.log.Infow("created client", "client_id", created.ID, "type_client", created.Type)
	return nil
}

func (s *clientImportScript) run(ctx context.Context, rows []*ClientImportRow) ClientImportSummary {
	s.summary.TotalRows = len(rows)

	p := pool.New().WithMaxGoroutines(importConcurrency)
	for i, row := range rows {
		p.Go(func() {
			if err := s.processRow(ctx, row); err != nil {
				s.summaryMu.Lock()
				s.summary.Errors = append(s.summary.Errors, fmt.Sprintf("row %d (%s): %v", i+2, row.Email, err))
				s.summaryMu.Unlock()
			}
		})
	}
	p.Wait()
	return s.summary
}

func (s *clientImportScript) printSummary() {
	s.log.Infow("client import summary",
		"total_rows", s.summary.TotalRows,
		"clients_created", s.summary.ClientsCreated,
		"clients_skipped", s.summary.ClientsSkipped,
		"errors", len(s.summary.Errors),
	)
	if len(s.summary.Errors) > 0 {
		s.log.Infow("errors encountered during import", "errors", s.summary.Errors)
	}
}

// ImportClients creates a client per CSV row, skipping emails that already exist
func ImportClients() error {
	filePath := os.Getenv("FILE_PATH")
	if filePath == "" {
		return fmt.Errorf("file path is required (set FILE_PATH environment variable)")
	}

	params, cleanup, err := newServiceParams()
	if err != nil {
		return err
	}
	defer cleanup()

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	rows, err := ParseClientCSV(file)
	if err != nil {
		return err
	}

	script := &clientImportScript{
		log:           params.Logger,
		clientService: service.NewClientService(params),
		clientRepo:    params.ClientRepo,
		known:         make(map[string]bool),
	}

	ctx := context.WithValue(context.Background(), types.CtxUserEmail, "import-script")
	if err := script.bulkLoadEmails(ctx); err != nil {
		return fmt.Errorf("failed to load existing clients: %w", err)
	}

	script.run(ctx, rows)
	script.printSummary()
	return nil
}
