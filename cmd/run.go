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
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/exascience/eldge/counts"
	"github.com/exascience/eldge/geo"
	"github.com/exascience/eldge/gsea"
)

// RunHelp is the help string for this command.
const RunHelp = "Run parameters:\n" +
	"eldge run (url | /path/to/data/) /path/to/output/\n" +
	"[--gene-sets sets.gmt]\n" +
	"[--sha256 checksum]\n" +
	"[--timeout seconds]\n" +
	"[--min-count nr]\n" +
	"[--min-samples nr]\n" +
	"[--reference condition]\n" +
	"[--treatment condition]\n" +
	"[--min-base-mean nr]\n" +
	"[--no-shrink]\n" +
	"[--alpha nr]\n" +
	"[--lfc nr]\n" +
	"[--min-set-size nr]\n" +
	"[--max-set-size nr]\n" +
	"[--permutations nr]\n" +
	"[--weight nr]\n" +
	"[--seed nr]\n" +
	"[--share-url url]\n" +
	"[--share-description text]\n" +
	"[--title text]\n" +
	"[--notes file]\n" +
	"[--top nr]\n" +
	"[--nr-of-threads nr]\n" +
	"[--log-path path]\n"

func copyFile(source, target string) (err error) {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer func() {
		nerr := out.Close()
		if err == nil {
			err = nerr
		}
	}()
	_, err = io.Copy(out, in)
	return err
}

// Run implements the eldge run command: the whole pipeline from
// dataset to report in one invocation.
func Run() error {
	var (
		geneSets, sha256hex                 string
		reference, treatment                string
		shareURL, shareDescription          string
		title, notesFile, logPath           string
		timeout, minCount, minSamples, top  int
		minSetSize, maxSetSize, nrOfThreads int
		minBaseMean, alpha, lfc             float64
		noShrink                            bool
	)
	gseaOptions := gsea.DefaultOptions

	var flags flag.FlagSet

	flags.StringVar(&geneSets, "gene-sets", "", "GMT file with the gene set collections for enrichment")
	flags.StringVar(&sha256hex, "sha256", "", "expected SHA-256 checksum of the archive")
	flags.IntVar(&timeout, "timeout", 900, "download timeout in seconds")
	flags.IntVar(&minCount, "min-count", 10, "minimum read count for the low count filter")
	flags.IntVar(&minSamples, "min-samples", 2, "minimum number of samples that must reach min-count")
	flags.StringVar(&reference, "reference", "", "the reference condition of the contrast")
	flags.StringVar(&treatment, "treatment", "", "the treatment condition of the contrast")
	flags.Float64Var(&minBaseMean, "min-base-mean", 0.5, "minimum mean of normalized counts for a gene to be tested")
	flags.BoolVar(&noShrink, "no-shrink", false, "disable log fold change shrinkage")
	flags.Float64Var(&alpha, "alpha", 0.05, "adjusted p-value cutoff")
	flags.Float64Var(&lfc, "lfc", 1, "absolute log2 fold change cutoff")
	flags.IntVar(&minSetSize, "min-set-size", 5, "smallest gene set size tested")
	flags.IntVar(&maxSetSize, "max-set-size", 500, "largest gene set size tested")
	flags.IntVar(&gseaOptions.Permutations, "permutations", gsea.DefaultOptions.Permutations, "number of gene permutations for GSEA")
	flags.Float64Var(&gseaOptions.Weight, "weight", gsea.DefaultOptions.Weight, "exponent on the ranking scores for GSEA")
	flags.Int64Var(&gseaOptions.Seed, "seed", gsea.DefaultOptions.Seed, "seed for the permutation stream")
	flags.StringVar(&shareURL, "share-url", "", "base url of an Enrichr compatible service to upload the gene list to")
	flags.StringVar(&shareDescription, "share-description", "", "description for the uploaded gene list")
	flags.StringVar(&title, "title", "Differential expression report", "title of the report")
	flags.StringVar(&notesFile, "notes", "", "text file with narrative paragraphs for the report")
	flags.IntVar(&top, "top", 20, "number of rows in the report tables")
	flags.IntVar(&nrOfThreads, "nr-of-threads", 0, "number of worker threads")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	parseFlags(flags, 4, RunHelp)

	input := os.Args[2]
	output := getFilename(os.Args[3], RunHelp)

	setLogOutput(logPath)

	// sanity checks

	var sanityChecksFailed bool

	download := strings.Contains(input, "://")
	if !download && !checkExist("", input) {
		sanityChecksFailed = true
	}
	if geneSets != "" && !checkExist("--gene-sets", geneSets) {
		sanityChecksFailed = true
	}
	if notesFile != "" && !checkExist("--notes", notesFile) {
		sanityChecksFailed = true
	}
	if alpha <= 0 || alpha > 1 {
		log.Println("Error: Invalid alpha: ", alpha)
		sanityChecksFailed = true
	}
	if minSetSize < 1 || maxSetSize < minSetSize {
		log.Println("Error: Invalid gene set size bounds: ", minSetSize, maxSetSize)
		sanityChecksFailed = true
	}
	if nrOfThreads < 0 {
		log.Println("Error: Invalid nr-of-threads: ", nrOfThreads)
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, RunHelp)
		os.Exit(1)
	}

	if nrOfThreads > 0 {
		runtime.GOMAXPROCS(nrOfThreads)
	}

	// building output command line

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " run ", input, " ", output)
	if geneSets != "" {
		fmt.Fprint(&command, " --gene-sets ", geneSets)
	}
	fmt.Fprint(&command, " --min-count ", minCount, " --min-samples ", minSamples)
	fmt.Fprint(&command, " --alpha ", alpha, " --lfc ", lfc)
	if shareURL != "" {
		fmt.Fprint(&command, " --share-url ", shareURL)
	}

	// executing command

	log.Println("Executing command:\n", command.String())

	if err := os.MkdirAll(output, 0700); err != nil {
		return err
	}

	// fetch

	dataDir := input
	if download {
		dataDir = filepath.Join(output, "data")
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
		err := geo.Fetch(ctx, input, dataDir, sha256hex)
		cancel()
		if err != nil {
			return err
		}
	}

	// count matrix

	matrix, err := counts.MergeCountFiles(dataDir)
	if err != nil {
		return err
	}
	filtered := matrix.FilterLowCounts(float64(minCount), minSamples)
	log.Println("Low count filter kept", len(filtered.Genes), "of", len(matrix.Genes), "genes.")
	matrixFile := filepath.Join(output, MatrixFilename)
	counts.WriteMatrix(filtered, matrixFile)

	sheetFile := filepath.Join(output, counts.SampleSheetFilename)
	if source := filepath.Join(dataDir, counts.SampleSheetFilename); source != sheetFile {
		if err := copyFile(source, sheetFile); err != nil {
			return err
		}
	}

	// differential expression

	resultsFile := filepath.Join(output, ResultsFilename)
	if err := runDGE(matrixFile, sheetFile, resultsFile, reference, treatment, minBaseMean, !noShrink); err != nil {
		return err
	}

	// enrichment

	if geneSets != "" {
		enrichmentFile := filepath.Join(output, EnrichmentFilename)
		if err := runEnrich(resultsFile, geneSets, enrichmentFile, alpha, lfc, minSetSize, maxSetSize, shareURL, shareDescription); err != nil {
			return err
		}
		gseaOptions.MinSetSize = minSetSize
		gseaOptions.MaxSetSize = maxSetSize
		gseaFile := filepath.Join(output, GseaFilename)
		if err := runGsea(resultsFile, geneSets, gseaFile, gseaOptions); err != nil {
			return err
		}
	}

	// report

	return runReport(output, filepath.Join(output, "report.html"), title, notesFile, alpha, lfc, top)
}
