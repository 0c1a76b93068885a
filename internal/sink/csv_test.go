package sink

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/roster-scraper/internal/scraper"
	"github.com/baxromumarov/roster-scraper/internal/store"
)

func TestCSVRecordWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVRecordWriter(&buf)

	err := w.WriteRecord(context.Background(), scraper.PlayerRecord{
		Nickname:    "Shaiiko",
		RealName:    "Stéphane Lebleu",
		Nationality: "France",
		Status:      scraper.StatusActive,
		CurrentTeam: "Team BDS",
		TeamHistory: []scraper.TeamTenure{
			{Team: "Millenium", Joined: "2016", Left: "2019"},
			{Team: "Team BDS", Joined: "2019", Left: "Present"},
		},
		LastTournament: "Six Invitational 2024",
		SourceURL:      "https://liquipedia.net/rainbowsix/Shaiiko",
	})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "Nickname,Real name,Nationality,Birth info,Photo,Status,Current team,Team history,Last tournament,URL", lines[0])
	require.Equal(t, "Shaiiko,Stéphane Lebleu,France,,,Active,Team BDS,Millenium (2016 – 2019); Team BDS (2019 – Present),Six Invitational 2024,https://liquipedia.net/rainbowsix/Shaiiko", lines[1])
}

func TestCSVRecordWriterEmptyStillHasHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVRecordWriter(&buf).Close())
	require.True(t, strings.HasPrefix(buf.String(), "Nickname,"))
}

func TestCSVFilteredWriterKeepsInputShape(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVFilteredWriter(&buf)

	err := w.WriteFiltered(context.Background(), scraper.FilteredEntry{
		Candidate: scraper.CandidateLink{DisplayName: "Team BDS", URL: "/rainbowsix/Team_BDS"},
		Reason:    scraper.ReasonNameHasSpace,
	})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.Equal(t, "Name,URL\nTeam BDS,/rainbowsix/Team_BDS\n", buf.String())
}

func TestReadCandidates(t *testing.T) {
	const input = "\ufeffName,URL\nShaiiko,https://liquipedia.net/rainbowsix/Shaiiko\n,https://x\nBeaulo , https://liquipedia.net/rainbowsix/Beaulo\nshort\n"

	links, err := ReadCandidates(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, []scraper.CandidateLink{
		{DisplayName: "Shaiiko", URL: "https://liquipedia.net/rainbowsix/Shaiiko"},
		{DisplayName: "Beaulo", URL: "https://liquipedia.net/rainbowsix/Beaulo"},
	}, links)

	var buf bytes.Buffer
	require.NoError(t, WriteCandidates(&buf, links))
	again, err := ReadCandidates(&buf)
	require.NoError(t, err)
	require.Equal(t, links, again)
}

func TestReadCandidatesRejectsBadHeader(t *testing.T) {
	_, err := ReadCandidates(strings.NewReader("Player,Link\na,b\n"))
	require.Error(t, err)

	links, err := ReadCandidates(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, links)
}

type failingSink struct{}

func (failingSink) WriteRecord(context.Context, scraper.PlayerRecord) error {
	return errors.New("db down")
}

func (failingSink) WriteFiltered(context.Context, scraper.FilteredEntry) error {
	return errors.New("db down")
}

func TestMultiSinksAttemptEverySink(t *testing.T) {
	var records, filtered bytes.Buffer
	ctx := context.Background()

	m := NewMultiRecordSink(failingSink{}, NewCSVRecordWriter(&records))
	err := m.WriteRecord(ctx, scraper.PlayerRecord{Nickname: "jdoe", Status: scraper.StatusActive})
	require.ErrorContains(t, err, "db down")
	require.Contains(t, records.String(), "jdoe")

	mf := NewMultiFilteredSink(failingSink{}, NewCSVFilteredWriter(&filtered))
	err = mf.WriteFiltered(ctx, scraper.FilteredEntry{Candidate: scraper.CandidateLink{DisplayName: "ace", URL: "/ace"}})
	require.ErrorContains(t, err, "db down")
	require.Contains(t, filtered.String(), "ace,/ace")
}

func TestStoreRecordSink(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO filtered")).
		WithArgs("ace", "/ace", scraper.ReasonNotPlayerPage).
		WillReturnResult(sqlmock.NewResult(1, 1))

	s := NewStoreRecordSink(store.NewStoreFromDB(db))
	err = s.WriteFiltered(context.Background(), scraper.FilteredEntry{
		Candidate: scraper.CandidateLink{DisplayName: "ace", URL: "/ace"},
		Reason:    scraper.ReasonNotPlayerPage,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
