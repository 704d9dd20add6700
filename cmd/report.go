// elDGE: a tool for differential gene expression and enrichment
// reports for RNA-seq count data.
// Copyright (c) 2022-2023 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/eldge/blob/master/LICENSE.txt>.

package cmd

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/exascience/eldge/counts"
	"github.com/exascience/eldge/dge"
	"github.com/exascience/eldge/enrich"
	"github.com/exascience/eldge/gsea"
	"github.com/exascience/eldge/render"
	"github.com/exascience/eldge/report"
)

// ReportHelp is the help string for this command.
const ReportHelp = "Report parameters:\n" +
	"eldge report /path/to/results/ report.html\n" +
	"[--title text]\n" +
	"[--notes file]\n" +
	"[--alpha nr]\n" +
	"[--lfc nr]\n" +
	"[--top nr]\n" +
	"[--log-path path]\n"

// The conventional artifact names in a results directory.
const (
	MatrixFilename     = "matrix.tsv"
	ResultsFilename    = "results.tsv"
	EnrichmentFilename = "enrichment.tsv"
	GseaFilename       = "gsea.tsv"
)

func parseNotes(filename string) ([]string, error) {
	payload, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var notes []string
	for _, paragraph := range strings.Split(string(payload), "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph != "" {
			notes = append(notes, strings.ReplaceAll(paragraph, "\n", " "))
		}
	}
	return notes, nil
}

type plotSpec struct {
	title    string
	filename string
	draw     func(filename string) error
}

// runReport is the report stage shared by the report and run
// commands.
func runReport(directory, output, title, notesFile string, alpha, lfc float64, top int) error {
	matrix := counts.ParseMatrix(filepath.Join(directory, MatrixFilename))
	sheet := counts.ParseSampleSheet(filepath.Join(directory, counts.SampleSheetFilename))
	table := dge.ParseTable(filepath.Join(directory, ResultsFilename))

	data := &report.Data{
		Title:       title,
		RunID:       uuid.New().String(),
		Program:     strings.TrimSpace(ProgramMessage),
		CommandLine: strings.Join(os.Args, " "),
		Date:        time.Now().Format("2006-01-02 15:04"),
		Genes:       len(matrix.Genes),
	}

	librarySizes := matrix.LibrarySizes()
	for j, sample := range matrix.Samples {
		condition, _ := sheet.Condition(sample)
		data.Samples = append(data.Samples, report.SampleInfo{
			Name:        sample,
			Condition:   condition,
			LibrarySize: librarySizes[j],
		})
	}

	report.SummarizeDGE(data, table, alpha, lfc, top)

	// plots

	plotsDir := filepath.Join(directory, "plots")
	if err := os.MkdirAll(plotsDir, 0700); err != nil {
		return err
	}
	plots := []plotSpec{
		{"MA plot", "ma.svg", func(f string) error { return render.MAPlot(table, alpha, f) }},
		{"Volcano plot", "volcano.svg", func(f string) error { return render.VolcanoPlot(table, alpha, lfc, f) }},
		{"PCA", "pca.svg", func(f string) error { return render.PCAPlot(matrix, sheet, f) }},
	}
	sizeFactors, err := dge.SizeFactors(matrix)
	if err == nil {
		if dispersions, derr := dge.EstimateDispersions(matrix, sizeFactors); derr == nil {
			plots = append(plots, plotSpec{"Dispersion estimates", "dispersion.svg",
				func(f string) error { return render.DispersionPlot(dispersions, f) }})
		}
	}

	enrichmentFile := filepath.Join(directory, EnrichmentFilename)
	if _, err := os.Stat(enrichmentFile); err == nil {
		enrichment := enrich.ParseTable(enrichmentFile)
		report.SummarizeEnrichment(data, enrichment, top)
		if len(enrichment.Results) > 0 {
			plots = append(plots, plotSpec{"Top enriched gene sets", "enrichment.svg",
				func(f string) error { return render.EnrichmentPlot(enrichment, 15, f) }})
		}
	}

	gseaFile := filepath.Join(directory, GseaFilename)
	if _, err := os.Stat(gseaFile); err == nil {
		report.SummarizeGSEA(data, gsea.ParseTable(gseaFile), top)
	}

	shareFile := filepath.Join(directory, ShareFilename)
	if payload, err := os.ReadFile(shareFile); err == nil {
		var link enrich.ShareLink
		if err := json.Unmarshal(payload, &link); err != nil {
			log.Println("Warning: ignoring malformed ", ShareFilename, ": ", err)
		} else {
			data.ShareLink = link.Link
		}
	}

	for _, plot := range plots {
		filename := filepath.Join(plotsDir, plot.filename)
		if err := plot.draw(filename); err != nil {
			log.Println("Warning: skipping plot ", plot.title, ": ", err)
			continue
		}
		svg, err := report.LoadSVG(filename)
		if err != nil {
			return err
		}
		data.Plots = append(data.Plots, report.Plot{Title: plot.title, SVG: svg})
	}

	if notesFile != "" {
		notes, err := parseNotes(notesFile)
		if err != nil {
			return err
		}
		data.Notes = notes
	}

	return report.RenderFile(output, data)
}

// Report implements the eldge report command.
func Report() error {
	var (
		title, notesFile, logPath string
		alpha, lfc                float64
		top                       int
	)

	var flags flag.FlagSet

	flags.StringVar(&title, "title", "Differential expression report", "title of the report")
	flags.StringVar(&notesFile, "notes", "", "text file with narrative paragraphs for the report")
	flags.Float64Var(&alpha, "alpha", 0.05, "adjusted p-value cutoff for the report summaries")
	flags.Float64Var(&lfc, "lfc", 1, "absolute log2 fold change cutoff for the report summaries")
	flags.IntVar(&top, "top", 20, "number of rows in the report tables")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	parseFlags(flags, 4, ReportHelp)

	directory := getFilename(os.Args[2], ReportHelp)
	output := getFilename(os.Args[3], ReportHelp)

	setLogOutput(logPath)

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", directory) {
		sanityChecksFailed = true
	} else {
		for _, artifact := range []string{MatrixFilename, counts.SampleSheetFilename, ResultsFilename} {
			if !checkExist("", filepath.Join(directory, artifact)) {
				sanityChecksFailed = true
			}
		}
	}
	if !checkCreate("", output) {
		sanityChecksFailed = true
	}
	if notesFile != "" && !checkExist("--notes", notesFile) {
		sanityChecksFailed = true
	}
	if alpha <= 0 || alpha > 1 {
		log.Println("Error: Invalid alpha: ", alpha)
		sanityChecksFailed = true
	}
	if top < 1 {
		log.Println("Error: Invalid top: ", top)
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, ReportHelp)
		os.Exit(1)
	}

	// building output command line

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " report ", directory, " ", output)
	fmt.Fprintf(&command, " --title %q", title)
	if notesFile != "" {
		fmt.Fprint(&command, " --notes ", notesFile)
	}
	fmt.Fprint(&command, " --alpha ", alpha)
	fmt.Fprint(&command, " --lfc ", lfc)
	fmt.Fprint(&command, " --top ", top)
	if logPath != "" {
		fmt.Fprint(&command, " --log-path ", logPath)
	}

	// executing command

	log.Println("Executing command:\n", command.String())

	return runReport(directory, output, title, notesFile, alpha, lfc, top)
}
