// internal/ingest/xlsx.go
package ingest

import (
    "github.com/rotisserie/eris"
    "github.com/tealeg/xlsx/v2"
)

// ReadRows parses an uploaded workbook and returns every data row as a
// header-keyed map. The first row of the first sheet is the header.
func ReadRows(data []byte) ([]map[string]string, error) {
    f, err := xlsx.OpenBinary(data)
    if err != nil {
        return nil, eris.Wrap(err, "ingest: open workbook")
    }
    if len(f.Sheets) == 0 {
        return nil, eris.New("ingest: workbook has no sheets")
    }
    sheet := f.Sheets[0]
    if len(sheet.Rows) == 0 {
        return []map[string]string{}, nil
    }

    header := rowToStrings(sheet.Rows[0])
    rows := make([]map[string]string, 0, len(sheet.Rows)-1)
    for _, row := range sheet.Rows[1:] {
        cells := rowToStrings(row)
        m := make(map[string]string, len(header))
        for i, key := range header {
            if key == "" {
                continue
            }
            if i < len(cells) {
                m[key] = cells[i]
            } else {
                m[key] = ""
            }
        }
        rows = append(rows, m)
    }
    return rows, nil
}

func rowToStrings(row *xlsx.Row) []string {
    out := make([]string, len(row.Cells))
    for i, cell := range row.Cells {
        out[i] = trim(cell.String())
    }
    return out
}
