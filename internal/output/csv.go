package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"jobagent-engine/internal/domain"
)

var csvHeader = []string{
	"source", "external_id", "title", "company", "location",
	"url", "published_at", "salary", "score", "seen_at",
}

// WriteCSV writes the run's eligible postings to outDir/new_jobs.csv. The
// artifact is produced every run; an empty run still yields the header row.
func WriteCSV(outDir string, report domain.RunReport) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(outDir, "new_jobs.csv")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}

	for _, c := range report.Eligible {
		p := c.Posting

		published := ""
		if p.PublishedAt != nil {
			published = p.PublishedAt.UTC().Format(time.RFC3339)
		}
		salary := ""
		if p.Salary != nil {
			salary = strconv.FormatFloat(*p.Salary, 'f', -1, 64)
		}

		row := []string{
			p.Source, p.ExternalID, p.Title, p.Company, p.Location,
			p.URL, published, salary, strconv.Itoa(c.Score),
			p.SeenAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return path, nil
}
