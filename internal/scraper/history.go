package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const transferTableSelector = `table[style*="text-align:left"]`

// ExtractTeamHistory reads the transfer history table as (joined, left, team) rows.
// The header row is skipped and any row without exactly three cells is dropped.
func ExtractTeamHistory(doc *goquery.Document) []TeamTenure {
	table := doc.Find(transferTableSelector).First()
	if table.Length() == 0 {
		return nil
	}

	var history []TeamTenure
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := row.Find("td")
		if cells.Length() != 3 {
			return
		}
		history = append(history, TeamTenure{
			Joined: CleanText(cells.Eq(0).Text()),
			Left:   CleanText(cells.Eq(1).Text()),
			Team:   CleanText(cells.Eq(2).Text()),
		})
	})
	return history
}

// FlattenHistory renders the history as "Team (joined – left); ..." for flat outputs.
func FlattenHistory(history []TeamTenure) string {
	parts := make([]string, 0, len(history))
	for _, t := range history {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, "; ")
}
