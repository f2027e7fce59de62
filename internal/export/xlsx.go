package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"podcast_syncer/internal/domain"
)

const sheet = "Sheet1"

var xlsxHeaders = []any{"episode", "title", "publish_date", "summary", "stream_url", "duration", "cover"}

// XLSX builds a single-sheet workbook with one row per resolved episode.
func XLSX(snap *domain.Snapshot) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow(sheet, "A1", &xlsxHeaders); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, r := range snap.Resolved() {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}

		var duration any = ""
		if r.Duration != nil {
			duration = *r.Duration
		}
		row := []any{r.Number, r.Title, r.PublishDate, r.Summary, r.StreamURL, duration, r.Cover}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write episode %d: %w", r.Number, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}
