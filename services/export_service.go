package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"github.com/clasharena/esp-manager/models"
	"github.com/clasharena/esp-manager/storage"
)

const (
	csvContentType  = "text/csv"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pngContentType  = "image/png"
)

var exportHeader = []string{"Rank", "Team Name", "Booyahs", "Placement Points", "Kill Points", "Total Points"}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// ExportArtifact is one ready-to-download results file.
type ExportArtifact struct {
	FileName    string
	ContentType string
	Data        []byte
}

// PublishedExports holds the public URLs of the uploaded artifacts.
type PublishedExports struct {
	CSVURL      string `json:"csv_url"`
	WorkbookURL string `json:"workbook_url"`
	CardURL     string `json:"card_url"`
}

// ExportService renders a lobby's ranked results into shareable artifacts.
// Rendering never touches lobby state; everything works off a ranked copy.
type ExportService interface {
	ResultsCSV(ctx context.Context, lobbyID string) (*ExportArtifact, error)
	ResultsWorkbook(ctx context.Context, lobbyID string) (*ExportArtifact, error)
	ResultsCard(ctx context.Context, lobbyID string) (*ExportArtifact, error)
	Publish(ctx context.Context, lobbyID string) (*PublishedExports, error)
}

type exportService struct {
	lobbies  LobbyService
	uploader storage.FileUploader // nil when publishing is not configured
	logger   *slog.Logger
}

func NewExportService(lobbies LobbyService, uploader storage.FileUploader, logger *slog.Logger) ExportService {
	return &exportService{
		lobbies:  lobbies,
		uploader: uploader,
		logger:   logger,
	}
}

// exportView is the immutable input every renderer works from. It is
// resolved once per export, so all artifacts of one call describe the same
// state even if a match lands mid-render.
type exportView struct {
	lobby     models.Lobby
	standings []Standing
}

// view fetches the lobby once and ranks its teams itself. Going back to the
// service for standings would read a second snapshot, and a match landing
// between the two reads would put one match count in the title and another in
// the table.
func (s *exportService) view(ctx context.Context, lobbyID string) (*exportView, error) {
	lobby, err := s.lobbies.GetLobby(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	if len(lobby.Matches) == 0 {
		return nil, ErrNoMatchesToExport
	}
	return &exportView{lobby: *lobby, standings: rankedStandings(lobby.Teams)}, nil
}

// safeFileName derives a filesystem-friendly stem from a lobby name, the same
// way the results card names its downloads.
func safeFileName(name string) string {
	safe := unsafeFileChars.ReplaceAllString(name, "_")
	safe = strings.Trim(safe, "_")
	if safe == "" {
		safe = "lobby"
	}
	return safe
}

func (s *exportService) ResultsCSV(ctx context.Context, lobbyID string) (*ExportArtifact, error) {
	v, err := s.view(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	return renderCSV(v)
}

func (s *exportService) ResultsWorkbook(ctx context.Context, lobbyID string) (*ExportArtifact, error) {
	v, err := s.view(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	return renderWorkbook(v)
}

func (s *exportService) ResultsCard(ctx context.Context, lobbyID string) (*ExportArtifact, error) {
	v, err := s.view(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	return renderCard(v)
}

func renderCSV(v *exportView) (*ExportArtifact, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{exportHeader}
	for _, st := range v.standings {
		records = append(records, []string{
			strconv.Itoa(st.Rank),
			st.Team.Name,
			strconv.Itoa(st.Team.Booyahs),
			strconv.Itoa(st.Team.PlacementPoints),
			strconv.Itoa(st.Team.KillPoints),
			strconv.Itoa(st.Team.TotalPoints),
		})
	}
	// Trailing metadata block, separated by an empty line.
	records = append(records,
		[]string{""},
		[]string{"Lobby", v.lobby.Name},
		[]string{"Matches", strconv.Itoa(len(v.lobby.Matches))},
		[]string{"Generated", time.Now().UTC().Format(time.RFC3339)},
	)

	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("failed to build CSV: %w", err)
	}

	return &ExportArtifact{
		FileName:    safeFileName(v.lobby.Name) + "_Results.csv",
		ContentType: csvContentType,
		Data:        buf.Bytes(),
	}, nil
}

func renderWorkbook(v *exportView) (*ExportArtifact, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Results"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	for col, title := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetCellStyle(sheet, "A1", "F1", headerStyle)
	}

	for i, st := range v.standings {
		row := i + 2
		values := []interface{}{st.Rank, st.Team.Name, st.Team.Booyahs, st.Team.PlacementPoints, st.Team.KillPoints, st.Team.TotalPoints}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", row, err)
			}
		}
	}

	metaRow := len(v.standings) + 3
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", metaRow), "Lobby")
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", metaRow), v.lobby.Name)
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", metaRow+1), "Matches")
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", metaRow+1), len(v.lobby.Matches))

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	return &ExportArtifact{
		FileName:    safeFileName(v.lobby.Name) + "_Results.xlsx",
		ContentType: xlsxContentType,
		Data:        buf.Bytes(),
	}, nil
}

// renderCard draws the shareable results image: one bar per team, ranked best
// to worst, bar height = total points.
func renderCard(v *exportView) (*ExportArtifact, error) {
	maxTotal := 1
	for _, st := range v.standings {
		if st.Team.TotalPoints > maxTotal {
			maxTotal = st.Team.TotalPoints
		}
	}

	bars := make([]chart.Value, 0, len(v.standings))
	for _, st := range v.standings {
		bars = append(bars, chart.Value{
			Label: st.Team.Name,
			Value: float64(st.Team.TotalPoints),
		})
	}

	plural := "MATCHES"
	if len(v.lobby.Matches) == 1 {
		plural = "MATCH"
	}
	graph := chart.BarChart{
		Title:    fmt.Sprintf("%s | AFTER %d %s", strings.ToUpper(v.lobby.Name), len(v.lobby.Matches), plural),
		Width:    1024,
		Height:   512,
		BarWidth: 56,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxTotal)},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render results card: %w", err)
	}

	return &ExportArtifact{
		FileName:    fmt.Sprintf("%s_Match%d.png", safeFileName(v.lobby.Name), len(v.lobby.Matches)),
		ContentType: pngContentType,
		Data:        buf.Bytes(),
	}, nil
}

// Publish renders all three artifacts from one view of the lobby and uploads
// them concurrently. Upload keys are namespaced per lobby, so re-publishing
// overwrites the previous export instead of piling up objects.
func (s *exportService) Publish(ctx context.Context, lobbyID string) (*PublishedExports, error) {
	if s.uploader == nil {
		return nil, ErrPublishingDisabled
	}

	v, err := s.view(ctx, lobbyID)
	if err != nil {
		return nil, err
	}

	out := &PublishedExports{}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		artifact, err := renderCSV(v)
		if err != nil {
			return err
		}
		out.CSVURL, err = s.upload(gCtx, v.lobby.ID, artifact)
		return err
	})
	g.Go(func() error {
		artifact, err := renderWorkbook(v)
		if err != nil {
			return err
		}
		out.WorkbookURL, err = s.upload(gCtx, v.lobby.ID, artifact)
		return err
	})
	g.Go(func() error {
		artifact, err := renderCard(v)
		if err != nil {
			return err
		}
		out.CardURL, err = s.upload(gCtx, v.lobby.ID, artifact)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info("results published",
		slog.String("lobby_id", v.lobby.ID),
		slog.String("card_url", out.CardURL))
	return out, nil
}

func (s *exportService) upload(ctx context.Context, lobbyID string, artifact *ExportArtifact) (string, error) {
	key := fmt.Sprintf("exports/%s/%s", lobbyID, artifact.FileName)
	result, err := s.uploader.Upload(ctx, key, artifact.ContentType, bytes.NewReader(artifact.Data))
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", artifact.FileName, err)
	}
	return result.Location, nil
}
