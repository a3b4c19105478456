// Package export renders tabular datasets into downloadable documents.
package export

import "fmt"

// Format identifies a rendered document type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// Dataset is a titled table. Each row maps a header to its cell.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
}

// Renderer turns a dataset into document bytes.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
	ContentType() string
}

// ForFormat picks the renderer for format. An empty format means CSV.
func ForFormat(format Format) (Renderer, error) {
	switch format {
	case FormatCSV, "":
		return CSV{}, nil
	case FormatPDF:
		return PDF{}, nil
	case FormatXLSX:
		return XLSX{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func (d Dataset) record(row map[string]string) []string {
	out := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		out[i] = row[header]
	}
	return out
}
