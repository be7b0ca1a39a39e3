// Package sheets loads enrollment workbooks from Google Sheets.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"campuspulse/internal/config"
	"campuspulse/internal/dataprocessing"
	apierrors "campuspulse/internal/errors"
	"campuspulse/internal/infrastructure"
)

// Source reads every tab of a spreadsheet as formatted cell text
type Source struct {
	svc    *gsheet.Service
	logger *slog.Logger
}

// NewSource creates a read-only Sheets client. Credentials come from inline
// JSON, then a credentials file, then Application Default Credentials. Extra
// options are appended last so callers can override the endpoint.
func NewSource(ctx context.Context, cfg config.GoogleSheetsConfig, logger *slog.Logger, opts ...option.ClientOption) (*Source, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = logger.With(slog.String("component", "sheets_source"))

	var clientOpts []option.ClientOption
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		logger.DebugContext(ctx, "Using inline JSON credentials")
		clientOpts = append(clientOpts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, apierrors.NewConfigError("failed to read Google credentials file", err).
				WithContext("path", cfg.CredentialsFile)
		}
		logger.DebugContext(ctx, "Using credentials file", slog.String("path", cfg.CredentialsFile))
		clientOpts = append(clientOpts, option.WithCredentialsJSON(data))
	default:
		logger.DebugContext(ctx, "Using application default credentials")
	}
	clientOpts = append(clientOpts, option.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	clientOpts = append(clientOpts, opts...)

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, apierrors.NewConfigError("failed to create Google Sheets service", err)
	}

	return &Source{svc: svc, logger: logger}, nil
}

// FetchSheets returns the tabs of spreadsheetID in workbook order.
func (s *Source) FetchSheets(ctx context.Context, spreadsheetID string) ([]dataprocessing.Sheet, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, apierrors.NewAppValidationError("spreadsheet id is required")
	}

	meta, err := s.svc.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).Do()
	if err != nil {
		return nil, classify(err, spreadsheetID)
	}

	titles := make([]string, 0, len(meta.Sheets))
	ranges := make([]string, 0, len(meta.Sheets))
	for _, sh := range meta.Sheets {
		if sh.Properties == nil {
			continue
		}
		titles = append(titles, sh.Properties.Title)
		ranges = append(ranges, quoteRange(sh.Properties.Title))
	}
	if len(ranges) == 0 {
		return nil, nil
	}

	resp, err := s.svc.Spreadsheets.Values.BatchGet(spreadsheetID).
		Ranges(ranges...).
		ValueRenderOption("FORMATTED_VALUE").
		MajorDimension("ROWS").
		Context(ctx).Do()
	if err != nil {
		return nil, classify(err, spreadsheetID)
	}
	if len(resp.ValueRanges) != len(titles) {
		return nil, apierrors.NewUpstreamError("unexpected number of value ranges", nil).
			WithContext("expected", len(titles)).
			WithContext("got", len(resp.ValueRanges))
	}

	sheets := make([]dataprocessing.Sheet, 0, len(titles))
	for i, vr := range resp.ValueRanges {
		sheets = append(sheets, dataprocessing.Sheet{Name: titles[i], Rows: toRows(vr.Values)})
	}

	s.logger.InfoContext(ctx, "Spreadsheet fetched",
		slog.String("spreadsheet_id", spreadsheetID),
		slog.Int("sheets", len(sheets)))
	return sheets, nil
}

// quoteRange addresses a whole tab. Titles are always quoted so names with
// spaces or leading digits stay valid A1 notation.
func quoteRange(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func toRows(values [][]interface{}) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			if v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		rows[i] = cells
	}
	return rows
}

func classify(err error, spreadsheetID string) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusNotFound:
			return apierrors.NewNotFoundError("spreadsheet").WithContext("spreadsheet_id", spreadsheetID)
		case http.StatusUnauthorized, http.StatusForbidden:
			return apierrors.NewConfigError("access to spreadsheet denied", err).WithContext("spreadsheet_id", spreadsheetID)
		}
		return apierrors.NewUpstreamError("Google Sheets request failed", err).WithContext("status", gerr.Code)
	}
	return apierrors.NewNetworkError("Google Sheets unreachable", err)
}
