package sheet

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"

	errs "github.com/edgard/groupmebot/internal/errors"
	"github.com/edgard/groupmebot/internal/logger"
)

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// SpreadsheetID extracts the document id from a spreadsheet URL.
func SpreadsheetID(link string) (string, error) {
	m := spreadsheetIDPattern.FindStringSubmatch(link)
	if m == nil {
		return "", errs.NewNotConfigured(fmt.Sprintf(
			"'%s' is not a Google Sheets link. Use /schedule link <google sheet link>", link))
	}
	return m[1], nil
}

// GoogleSource reads worksheets with a service account.
type GoogleSource struct {
	credentialsFile string
	log             *slog.Logger

	mu  sync.Mutex
	srv *sheetsv4.Service
}

// NewGoogleSource creates a source authenticated by the service account
// JSON at credentialsFile. The file is read on first use.
func NewGoogleSource(credentialsFile string, log *slog.Logger) *GoogleSource {
	if log == nil {
		log = logger.Discard()
	}
	return &GoogleSource{
		credentialsFile: credentialsFile,
		log:             log.With("component", "google_sheets"),
	}
}

func (g *GoogleSource) service(ctx context.Context) (*sheetsv4.Service, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.srv != nil {
		return g.srv, nil
	}

	if _, err := os.Stat(g.credentialsFile); err != nil {
		return nil, errs.NewConfigurationMissing("service account credentials not found", err)
	}

	// Detached from ctx so the cached service outlives this request.
	srv, err := sheetsv4.NewService(context.WithoutCancel(ctx),
		option.WithCredentialsFile(g.credentialsFile),
		option.WithScopes(sheetsv4.SpreadsheetsReadonlyScope),
	)
	if err != nil {
		return nil, errs.NewUpstreamCallFailed("failed to create sheets service", err)
	}
	g.srv = srv
	return srv, nil
}

// Worksheets reads the named worksheets in one batch request.
func (g *GoogleSource) Worksheets(ctx context.Context, link string, titles []string) (map[string][]Record, error) {
	id, err := SpreadsheetID(link)
	if err != nil {
		return nil, err
	}

	srv, err := g.service(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := srv.Spreadsheets.Get(id).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, errs.NewUpstreamCallFailed("failed to open spreadsheet", err)
	}

	wanted := make(map[string]bool, len(titles))
	for _, t := range titles {
		wanted[t] = true
	}

	var present, ranges []string
	for _, s := range doc.Sheets {
		if s.Properties == nil || !wanted[s.Properties.Title] {
			continue
		}
		present = append(present, s.Properties.Title)
		ranges = append(ranges, a1Range(s.Properties.Title))
	}

	out := make(map[string][]Record, len(present))
	if len(ranges) == 0 {
		g.log.WarnContext(ctx, "Spreadsheet has none of the expected worksheets", "spreadsheet_id", id)
		return out, nil
	}

	resp, err := srv.Spreadsheets.Values.BatchGet(id).Ranges(ranges...).Context(ctx).Do()
	if err != nil {
		return nil, errs.NewUpstreamCallFailed("failed to read worksheets", err)
	}

	for i, vr := range resp.ValueRanges {
		if i >= len(present) {
			break
		}
		out[present[i]] = Records(vr.Values)
	}

	g.log.DebugContext(ctx, "Worksheets read", "spreadsheet_id", id, "worksheets", len(out))
	return out, nil
}

// a1Range quotes a worksheet title for use in A1 notation.
func a1Range(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'!A:Z"
}
