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
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/exascience/eldge/dge"
	"github.com/exascience/eldge/geneset"
	"github.com/exascience/eldge/gsea"
)

// GseaHelp is the help string for this command.
const GseaHelp = "Gsea parameters:\n" +
	"eldge gsea results.tsv sets.gmt gsea.tsv\n" +
	"[--permutations nr]\n" +
	"[--min-set-size nr]\n" +
	"[--max-set-size nr]\n" +
	"[--weight nr]\n" +
	"[--seed nr]\n" +
	"[--nr-of-threads nr]\n" +
	"[--log-path path]\n"

// runGsea is the GSEA stage shared by the gsea and run commands.
func runGsea(resultsFile, setsFile, output string, options gsea.Options) error {
	table := dge.ParseTable(resultsFile)
	collection := geneset.ParseGMT(setsFile)

	genes, scores := table.RankedGenes()
	log.Println("Ranked", len(genes), "genes for", len(collection.Sets), "gene sets.")

	result, err := gsea.Preranked(genes, scores, collection, options)
	if err != nil {
		return err
	}
	gsea.WriteTable(result, output)
	log.Println("Tested", len(result.Results), "gene sets with", options.Permutations, "permutations.")
	return nil
}

// Gsea implements the eldge gsea command.
func Gsea() error {
	options := gsea.DefaultOptions
	var (
		seed        int64
		nrOfThreads int
		logPath     string
	)

	var flags flag.FlagSet

	flags.IntVar(&options.Permutations, "permutations", gsea.DefaultOptions.Permutations, "number of gene permutations")
	flags.IntVar(&options.MinSetSize, "min-set-size", gsea.DefaultOptions.MinSetSize, "smallest gene set size tested")
	flags.IntVar(&options.MaxSetSize, "max-set-size", gsea.DefaultOptions.MaxSetSize, "largest gene set size tested")
	flags.Float64Var(&options.Weight, "weight", gsea.DefaultOptions.Weight, "exponent on the ranking scores")
	flags.Int64Var(&seed, "seed", gsea.DefaultOptions.Seed, "seed for the permutation stream")
	flags.IntVar(&nrOfThreads, "nr-of-threads", 0, "number of worker threads")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	parseFlags(flags, 5, GseaHelp)

	resultsFile := getFilename(os.Args[2], GseaHelp)
	setsFile := getFilename(os.Args[3], GseaHelp)
	output := getFilename(os.Args[4], GseaHelp)

	options.Seed = seed

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
	if options.Permutations < 1 {
		log.Println("Error: Invalid permutations: ", options.Permutations)
		sanityChecksFailed = true
	}
	if options.MinSetSize < 1 || options.MaxSetSize < options.MinSetSize {
		log.Println("Error: Invalid gene set size bounds: ", options.MinSetSize, options.MaxSetSize)
		sanityChecksFailed = true
	}
	if options.Weight < 0 {
		log.Println("Error: Invalid weight: ", options.Weight)
		sanityChecksFailed = true
	}
	if nrOfThreads < 0 {
		log.Println("Error: Invalid nr-of-threads: ", nrOfThreads)
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, GseaHelp)
		os.Exit(1)
	}

	// building output command line

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " gsea ", resultsFile, " ", setsFile, " ", output)
	fmt.Fprint(&command, " --permutations ", options.Permutations)
	fmt.Fprint(&command, " --min-set-size ", options.MinSetSize)
	fmt.Fprint(&command, " --max-set-size ", options.MaxSetSize)
	fmt.Fprint(&command, " --weight ", options.Weight)
	fmt.Fprint(&command, " --seed ", options.Seed)
	if nrOfThreads > 0 {
		runtime.GOMAXPROCS(nrOfThreads)
		fmt.Fprint(&command, " --nr-of-threads ", nrOfThreads)
	}
	if logPath != "" {
		fmt.Fprint(&command, " --log-path ", logPath)
	}

	// executing command

	log.Println("Executing command:\n", command.String())

	var err error
	timedRun(true, "Running gene set enrichment analysis.", func() {
		err = runGsea(resultsFile, setsFile, output, options)
	})
	return err
}
