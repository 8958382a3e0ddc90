// Package csvdoc loads CSV knowledge sources as retrieval documents. Each
// row becomes one document whose content is the row rendered as
// "header: value" lines, so column names survive into the retrieval unit.
package csvdoc

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// Document is one CSV row prepared for chunking and embedding.
type Document struct {
	PageContent string
	Source      string // the CSV path the row came from
	Row         int    // 0-based data row index
}

// Load reads the CSV at path and returns one document per data row.
// The first record is treated as the header.
func Load(path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // tolerate ragged rows

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv %s is empty", path)
	}

	header := records[0]
	docs := make([]Document, 0, len(records)-1)

	for i, record := range records[1:] {
		var content strings.Builder
		for col, value := range record {
			name := fmt.Sprintf("column%d", col)
			if col < len(header) {
				name = header[col]
			}
			if col > 0 {
				content.WriteString("\n")
			}
			content.WriteString(name)
			content.WriteString(": ")
			content.WriteString(value)
		}
		docs = append(docs, Document{
			PageContent: content.String(),
			Source:      path,
			Row:         i,
		})
	}

	return docs, nil
}
