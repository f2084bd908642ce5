package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"visualverify/internal/credibility"
	"visualverify/internal/extract"
)

func newSourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "sources",
		Short:       "Show the source credibility table",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			domains := credibility.Domains()
			rows := make([][]string, 0, len(domains)+1)
			for _, d := range domains {
				rows = append(rows, []string{d.Name, fmt.Sprintf("%.2f", d.Score)})
			}
			rows = append(rows, []string{"(any other source)", fmt.Sprintf("%.2f", credibility.DefaultScore)})
			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderTable([]string{"Domain", "Score"}, rows, []columnAlignment{alignLeft, alignRight}))
			fmt.Fprintf(out, "Event keywords: %s\n", strings.Join(extract.Vocabulary(), ", "))
			return nil
		},
	}
}
