package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/clasharena/esp-manager/models"
	"github.com/clasharena/esp-manager/storage"
)

type fakeUploader struct {
	mu      sync.Mutex
	uploads map[string][]byte
	err     error
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{uploads: make(map[string][]byte)}
}

func (f *fakeUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.uploads[key] = data
	f.mu.Unlock()
	return &storage.UploadResult{Key: key, Location: "https://cdn.example.com/" + key}, nil
}

func (f *fakeUploader) Delete(ctx context.Context, key string) error { return nil }

func (f *fakeUploader) GetPublicURL(key string) string { return "https://cdn.example.com/" + key }

// newExportFixture builds a lobby named "Grand Finals #3" with one recorded
// match, then wraps it in an export service.
func newExportFixture(t *testing.T, uploader storage.FileUploader) (ExportService, string) {
	t.Helper()
	lobbies, _, _ := newTestService(t)
	ctx := context.Background()

	lobby, err := lobbies.CreateLobby(ctx, "Grand Finals #3")
	require.NoError(t, err)
	_, err = lobbies.RecordMatch(ctx, lobby.ID, fullResults(models.MaxTeams))
	require.NoError(t, err)

	return NewExportService(lobbies, uploader, slog.Default()), lobby.ID
}

func TestSafeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Grand Finals #3", "Grand_Finals_3"},
		{"scrims", "scrims"},
		{"  ---  ", "lobby"},
		{"Турнир", "lobby"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, safeFileName(tt.in), "input %q", tt.in)
	}
}

func TestResultsCSV(t *testing.T) {
	svc, lobbyID := newExportFixture(t, nil)

	artifact, err := svc.ResultsCSV(context.Background(), lobbyID)
	require.NoError(t, err)

	assert.Equal(t, "Grand_Finals_3_Results.csv", artifact.FileName)
	assert.Equal(t, csvContentType, artifact.ContentType)

	r := csv.NewReader(bytes.NewReader(artifact.Data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)

	// The blank separator line before the metadata block is dropped by the
	// reader, leaving header + teams + three metadata rows.
	require.GreaterOrEqual(t, len(records), 1+models.MaxTeams+3)
	assert.Equal(t, exportHeader, records[0])

	// Team 1 won the match in the fixture: rank 1, one booyah, 12+1 points.
	top := records[1]
	assert.Equal(t, []string{"1", "Team 1", "1", "12", "1", "13"}, top)

	// Ranks count down the table without gaps.
	for i := 1; i <= models.MaxTeams; i++ {
		assert.Equal(t, strconv.Itoa(i), records[i][0])
	}

	// Trailing metadata block.
	meta := records[len(records)-3]
	assert.Equal(t, []string{"Lobby", "Grand Finals #3"}, meta)
	assert.Equal(t, []string{"Matches", "1"}, records[len(records)-2])
}

func TestResultsWorkbook(t *testing.T) {
	svc, lobbyID := newExportFixture(t, nil)

	artifact, err := svc.ResultsWorkbook(context.Background(), lobbyID)
	require.NoError(t, err)
	assert.Equal(t, "Grand_Finals_3_Results.xlsx", artifact.FileName)
	assert.Equal(t, xlsxContentType, artifact.ContentType)

	f, err := excelize.OpenReader(bytes.NewReader(artifact.Data))
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue("Results", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Team 1", name)

	total, err := f.GetCellValue("Results", "F2")
	require.NoError(t, err)
	assert.Equal(t, "13", total)
}

func TestResultsCard(t *testing.T) {
	svc, lobbyID := newExportFixture(t, nil)

	artifact, err := svc.ResultsCard(context.Background(), lobbyID)
	require.NoError(t, err)

	assert.Equal(t, "Grand_Finals_3_Match1.png", artifact.FileName)
	assert.Equal(t, pngContentType, artifact.ContentType)
	require.Greater(t, len(artifact.Data), 8)
	assert.Equal(t, []byte("\x89PNG\r\n\x1a\n"), artifact.Data[:8], "card must be a PNG")
}

func TestExportRequiresMatches(t *testing.T) {
	lobbies, _, _ := newTestService(t)
	ctx := context.Background()

	lobby, err := lobbies.CreateLobby(ctx, "Empty")
	require.NoError(t, err)

	svc := NewExportService(lobbies, nil, slog.Default())
	_, err = svc.ResultsCSV(ctx, lobby.ID)
	assert.ErrorIs(t, err, ErrNoMatchesToExport)
	_, err = svc.Publish(ctx, lobby.ID)
	assert.ErrorIs(t, err, ErrPublishingDisabled, "publishing check comes before the match check")
}

// snapshotOnlyLobbyService fails the test if the export layer asks the
// service for standings instead of ranking the lobby snapshot it already
// holds. Two separate reads could straddle a concurrent match.
type snapshotOnlyLobbyService struct {
	LobbyService
}

func (s *snapshotOnlyLobbyService) Standings(ctx context.Context, lobbyID string) ([]Standing, error) {
	return nil, errors.New("standings must be derived from the export's own lobby snapshot")
}

func TestExportRanksItsOwnSnapshot(t *testing.T) {
	lobbies, _, _ := newTestService(t)
	ctx := context.Background()

	lobby, err := lobbies.CreateLobby(ctx, "One Read")
	require.NoError(t, err)
	_, err = lobbies.RecordMatch(ctx, lobby.ID, fullResults(models.MaxTeams))
	require.NoError(t, err)

	svc := NewExportService(&snapshotOnlyLobbyService{LobbyService: lobbies}, nil, slog.Default())
	artifact, err := svc.ResultsCSV(ctx, lobby.ID)
	require.NoError(t, err)

	r := csv.NewReader(bytes.NewReader(artifact.Data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Greater(t, len(records), 1)
	assert.Equal(t, []string{"1", "Team 1", "1", "12", "1", "13"}, records[1])
}

func TestExportUnknownLobby(t *testing.T) {
	lobbies, _, _ := newTestService(t)
	svc := NewExportService(lobbies, nil, slog.Default())

	_, err := svc.ResultsCard(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrLobbyNotFound)
}

func TestPublish(t *testing.T) {
	uploader := newFakeUploader()
	svc, lobbyID := newExportFixture(t, uploader)

	out, err := svc.Publish(context.Background(), lobbyID)
	require.NoError(t, err)

	assert.Contains(t, out.CSVURL, "Grand_Finals_3_Results.csv")
	assert.Contains(t, out.WorkbookURL, "Grand_Finals_3_Results.xlsx")
	assert.Contains(t, out.CardURL, "Grand_Finals_3_Match1.png")

	uploader.mu.Lock()
	defer uploader.mu.Unlock()
	assert.Len(t, uploader.uploads, 3)
	for key := range uploader.uploads {
		assert.Contains(t, key, "exports/"+lobbyID+"/")
	}
}

func TestPublishWithoutUploader(t *testing.T) {
	svc, lobbyID := newExportFixture(t, nil)
	_, err := svc.Publish(context.Background(), lobbyID)
	assert.ErrorIs(t, err, ErrPublishingDisabled)
}
