// Package cli renders kioku command output and talks to a running kioku server.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/pkg/utils"
)

// OutputFormat selects how command results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

const rule = "─────────────────────────────────────────────────────────\n"

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteRetrieveResults writes a retrieval response to w in the given format.
func WriteRetrieveResults(w io.Writer, resp *models.RetrieveResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	if !resp.Found {
		fmt.Fprintf(w, "\nNo relevant context found (%s) in %dms\n", resp.Status, resp.QueryTime)
		return nil
	}
	fmt.Fprintf(w, "\nFound %d chunk(s) in %dms\n\n", len(resp.Results), resp.QueryTime)
	for _, c := range resp.Results {
		fmt.Fprint(w, rule)
		fmt.Fprintf(w, "Rank: %d | Score: %.4f | Document: %d (%s) chunk %d\n",
			c.Rank, c.Score, c.DocumentID, c.Source, c.ChunkIndex)
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(c.Content, 300))
	}
	return nil
}

// WriteContext writes only the assembled context block, for piping into other tools.
func WriteContext(w io.Writer, resp *models.RetrieveResponse) {
	if resp.Found {
		fmt.Fprintln(w, resp.Context)
	}
}

// WriteDocuments lists documents, one per line in text mode.
func WriteDocuments(w io.Writer, docs []*models.Document, format OutputFormat) error {
	if format == OutputJSON {
		if docs == nil {
			docs = []*models.Document{}
		}
		return writeJSON(w, docs)
	}
	if len(docs) == 0 {
		fmt.Fprintln(w, "No documents.")
		return nil
	}
	for _, d := range docs {
		fmt.Fprintf(w, "%4d  %-30s  %3d chunk(s)  %s  %s\n",
			d.ID,
			utils.Truncate(utils.OneLine(d.Title), 30),
			len(d.Chunks),
			d.CreatedAt().Format(time.RFC3339),
			utils.Truncate(utils.OneLine(d.Content), 60))
	}
	fmt.Fprintf(w, "\n%d document(s)\n", len(docs))
	return nil
}

// WriteDocument prints one document in full.
func WriteDocument(w io.Writer, doc *models.Document, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, doc)
	}
	fmt.Fprintf(w, "ID:       %d\n", doc.ID)
	fmt.Fprintf(w, "Title:    %s\n", doc.Title)
	fmt.Fprintf(w, "Created:  %s\n", doc.CreatedAt().Format(time.RFC3339))
	fmt.Fprintf(w, "Chunks:   %d\n", len(doc.Chunks))
	if len(doc.Metadata) > 0 {
		md, err := json.Marshal(doc.Metadata)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Metadata: %s\n", md)
	}
	fmt.Fprintf(w, "\n%s\n", doc.Content)
	return nil
}

// WriteStatus writes a status summary.
func WriteStatus(w io.Writer, status *models.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	fmt.Fprintf(w, "documents:          %d   # count of stored documents\n", status.Documents)
	fmt.Fprintf(w, "chunks:             %d   # count of text chunks\n", status.Chunks)
	if status.Sessions > 0 {
		fmt.Fprintf(w, "sessions:           %d   # active chat sessions\n", status.Sessions)
	}
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # database files on disk\n", *status.DiskUsageBytes)
	}
	if c := status.Config; c != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# configuration")
		fmt.Fprintf(w, "backend:            %s\n", c.Backend)
		if c.DatabasePath != "" {
			fmt.Fprintf(w, "database_path:      %s\n", c.DatabasePath)
		}
		fmt.Fprintf(w, "chunk_size:         %d\n", c.ChunkSize)
		fmt.Fprintf(w, "chunk_overlap:      %d\n", c.ChunkOverlap)
		fmt.Fprintf(w, "top_k:              %d\n", c.TopK)
		fmt.Fprintf(w, "min_score:          %g\n", c.MinScore)
		if c.Model != "" {
			fmt.Fprintf(w, "model:              %s\n", c.Model)
		}
		fmt.Fprintf(w, "catalog:            %t\n", c.Catalog)
	}
	return nil
}
