package main

import (
	"fmt"
	"io"
	"strings"

	"visualverify/internal/credibility"
	"visualverify/internal/queue"
	"visualverify/internal/verify"
)

func renderJobResult(out io.Writer, job *queue.Job, colorize bool) error {
	fmt.Fprintf(out, "Job:         %d (%s)\n", job.ID, humanize(string(job.Status)))
	fmt.Fprintf(out, "Image:       %s\n", job.ImageURL)
	if job.Claim != "" {
		fmt.Fprintf(out, "Claim:       %s\n", job.Claim)
	}
	if !job.Status.Terminal() {
		if job.ProgressStage != "" {
			fmt.Fprintf(out, "Progress:    %s\n", job.ProgressStage)
		}
		return nil
	}

	verdictLine := fmt.Sprintf("Verdict:     %s (%.0f%% confidence)", job.Verdict, job.Confidence*100)
	if colorize {
		verdictLine = statusKindColor(verdictKind(job.Verdict)) + verdictLine + ansiReset
	}
	fmt.Fprintln(out, verdictLine)
	fmt.Fprintf(out, "Explanation: %s\n", job.Explanation)
	if job.Cached {
		fmt.Fprintln(out, "Cached:      yes")
	}
	if job.ContentHash != "" {
		fmt.Fprintf(out, "Fingerprint: %s\n", shortHash(job.ContentHash))
	}

	details, err := job.Details()
	if err != nil {
		return err
	}
	if rows := contextRows(details.ClaimContext, details.RealContext); len(rows) > 0 {
		fmt.Fprintln(out)
		fmt.Fprint(out, renderTable([]string{"Context", "Claim", "Evidence"}, rows, nil))
	}
	if len(details.Issues) > 0 {
		rows := make([][]string, 0, len(details.Issues))
		for _, issue := range details.Issues {
			rows = append(rows, []string{humanize(string(issue.Kind)), fmt.Sprintf("%.0f%%", issue.Confidence*100), issue.Detail})
		}
		fmt.Fprintln(out)
		fmt.Fprint(out, renderTable([]string{"Issue", "Confidence", "Detail"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}))
	}
	if rows := evidenceRows(details.Evidence); len(rows) > 0 {
		fmt.Fprintln(out)
		fmt.Fprint(out, renderTable([]string{"#", "Source", "Title", "Trust"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft, alignRight}))
	}
	return nil
}

func contextRows(claim, real *verify.Context) [][]string {
	if claim == nil && real == nil {
		return nil
	}
	pick := func(ctx *verify.Context, field func(*verify.Context) []string) string {
		if ctx == nil {
			return ""
		}
		return strings.Join(field(ctx), ", ")
	}
	fields := []struct {
		label string
		get   func(*verify.Context) []string
	}{
		{"Dates", func(c *verify.Context) []string { return c.Dates }},
		{"Locations", func(c *verify.Context) []string { return c.Locations }},
		{"Events", func(c *verify.Context) []string { return c.Events }},
	}
	var rows [][]string
	for _, f := range fields {
		claimValue, realValue := pick(claim, f.get), pick(real, f.get)
		if claimValue == "" && realValue == "" {
			continue
		}
		rows = append(rows, []string{f.label, claimValue, realValue})
	}
	return rows
}

func evidenceRows(items []verify.EvidenceItem) [][]string {
	var rows [][]string
	for _, item := range items {
		if verify.IsFallback(item) {
			continue
		}
		source := item.Source
		if source == "" {
			source = item.URL
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", len(rows)+1),
			source,
			item.Title,
			credibilityLabel(item.URL),
		})
	}
	return rows
}

func credibilityLabel(source string) string {
	score := fmt.Sprintf("%.2f", credibility.Score(source))
	if !credibility.Known(source) {
		score += " (unrated)"
	}
	return score
}

func shortHash(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}
