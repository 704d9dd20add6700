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
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/exascience/eldge/dge"
	"github.com/exascience/eldge/enrich"
	"github.com/exascience/eldge/geneset"
	"github.com/exascience/eldge/internal"
)

// EnrichHelp is the help string for this command.
const EnrichHelp = "Enrich parameters:\n" +
	"eldge enrich results.tsv sets.gmt enrichment.tsv\n" +
	"[--alpha nr]\n" +
	"[--lfc nr]\n" +
	"[--min-set-size nr]\n" +
	"[--max-set-size nr]\n" +
	"[--share-url url]\n" +
	"[--share-description text]\n" +
	"[--log-path path]\n"

// ShareFilename is the conventional name for the recorded shareable
// link in a results directory.
const ShareFilename = "share.json"

// runEnrich is the enrichment stage shared by the enrich and run
// commands.
func runEnrich(resultsFile, setsFile, output string, alpha, lfc float64, minSetSize, maxSetSize int, shareURL, shareDescription string) error {
	table := dge.ParseTable(resultsFile)
	collection := geneset.ParseGMT(setsFile)

	// the universe is the set of tested genes
	var universeGenes []string
	for i := range table.Results {
		if !math.IsNaN(table.Results[i].PValue) {
			universeGenes = append(universeGenes, table.Results[i].Gene)
		}
	}
	universe := geneset.NewUniverse(universeGenes)
	filtered := collection.FilterSize(universe, minSetSize, maxSetSize)
	log.Println("Testing", len(filtered.Sets), "of", len(collection.Sets), "gene sets against a universe of", universe.Len(), "genes.")

	up, down := table.Significant(alpha, lfc)
	list := append(append([]string(nil), up...), down...)
	log.Println("Over-representation of", len(list), "differentially expressed genes.")

	enrichment := enrich.OverRepresentation(list, filtered, universe)
	enrich.WriteTable(enrichment, output)

	if shareURL != "" {
		if shareDescription == "" {
			shareDescription = fmt.Sprintf("eldge %v vs %v", table.Treatment, table.Reference)
		}
		client := enrich.NewShareClient(shareURL)
		link, err := client.Share(context.Background(), list, shareDescription)
		if err != nil {
			// a failed upload does not invalidate the local results
			log.Println("Warning: sharing the gene list failed: ", err)
			return nil
		}
		log.Println("Shareable link:", link.Link)
		shareFile := internal.FileCreate(filepath.Join(filepath.Dir(output), ShareFilename))
		defer internal.Close(shareFile)
		encoder := json.NewEncoder(shareFile)
		encoder.SetIndent("", "  ")
		return encoder.Encode(link)
	}
	return nil
}

// Enrich implements the eldge enrich command.
func Enrich() error {
	var (
		alpha, lfc                          float64
		minSetSize, maxSetSize              int
		shareURL, shareDescription, logPath string
	)

	var flags flag.FlagSet

	flags.Float64Var(&alpha, "alpha", 0.05, "adjusted p-value cutoff for the differentially expressed genes")
	flags.Float64Var(&lfc, "lfc", 1, "absolute log2 fold change cutoff for the differentially expressed genes")
	flags.IntVar(&minSetSize, "min-set-size", 5, "smallest gene set size tested")
	flags.IntVar(&maxSetSize, "max-set-size", 500, "largest gene set size tested")
	flags.StringVar(&shareURL, "share-url", "", "base url of an Enrichr compatible service to upload the gene list to")
	flags.StringVar(&shareDescription, "share-description", "", "description for the uploaded gene list")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	parseFlags(flags, 5, EnrichHelp)

	resultsFile := getFilename(os.Args[2], EnrichHelp)
	setsFile := getFilename(os.Args[3], EnrichHelp)
	output := getFilename(os.Args[4], EnrichHelp)

	setLogOutput(logPath)

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", resultsFile) {
		sanityChecksFailed = true
	}
	if !checkExist("", setsFile) {
		sanityChecksFailed = true
	}
	if !checkCreate("", output) {
		sanityChecksFailed = true
	}
	if alpha <= 0 || alpha > 1 {
		log.Println("Error: Invalid alpha: ", alpha)
		sanityChecksFailed = true
	}
	if lfc < 0 {
		log.Println("Error: Invalid lfc: ", lfc)
		sanityChecksFailed = true
	}
	if minSetSize < 1 || maxSetSize < minSetSize {
		log.Println("Error: Invalid gene set size bounds: ", minSetSize, maxSetSize)
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, EnrichHelp)
		os.Exit(1)
	}

	// building output command line

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " enrich ", resultsFile, " ", setsFile, " ", output)
	fmt.Fprint(&command, " --alpha ", alpha)
	fmt.Fprint(&command, " --lfc ", lfc)
	fmt.Fprint(&command, " --min-set-size ", minSetSize)
	fmt.Fprint(&command, " --max-set-size ", maxSetSize)
	if shareURL != "" {
		fmt.Fprint(&command, " --share-url ", shareURL)
	}
	if shareDescription != "" {
		fmt.Fprint(&command, " --share-description ", shareDescription)
	}
	if logPath != "" {
		fmt.Fprint(&command, " --log-path ", logPath)
	}

	// executing command

	log.Println("Executing command:\n", command.String())

	return runEnrich(resultsFile, setsFile, output, alpha, lfc, minSetSize, maxSetSize, shareURL, shareDescription)
}
