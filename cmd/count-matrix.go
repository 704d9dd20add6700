// elDGE: a tool for differential gene expression and enrichment
// reports for RNA-seq count data.
// Copyright (c) 2021-2023 imec vzw.

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

	"github.com/exascience/eldge/counts"
)

// CountMatrixHelp is the help string for this command.
const CountMatrixHelp = "Count-matrix parameters:\n" +
	"eldge count-matrix /path/to/data/ matrix.tsv\n" +
	"[--min-count nr]\n" +
	"[--min-samples nr]\n" +
	"[--log-path path]\n"

// CountMatrix implements the eldge count-matrix command.
func CountMatrix() error {
	var (
		minCount, minSamples int
		logPath              string
	)

	var flags flag.FlagSet

	flags.IntVar(&minCount, "min-count", 10, "minimum read count for the low count filter")
	flags.IntVar(&minSamples, "min-samples", 2, "minimum number of samples that must reach min-count")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	parseFlags(flags, 4, CountMatrixHelp)

	input := getFilename(os.Args[2], CountMatrixHelp)
	output := getFilename(os.Args[3], CountMatrixHelp)

	setLogOutput(logPath)

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", input) {
		sanityChecksFailed = true
	}
	if !checkCreate("", output) {
		sanityChecksFailed = true
	}
	if minCount < 0 {
		log.Println("Error: Invalid min-count: ", minCount)
		sanityChecksFailed = true
	}
	if minSamples < 0 {
		log.Println("Error: Invalid min-samples: ", minSamples)
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, CountMatrixHelp)
		os.Exit(1)
	}

	// building output command line

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " count-matrix ", input, " ", output)
	fmt.Fprint(&command, " --min-count ", minCount)
	fmt.Fprint(&command, " --min-samples ", minSamples)
	if logPath != "" {
		fmt.Fprint(&command, " --log-path ", logPath)
	}

	// executing command

	log.Println("Executing command:\n", command.String())

	matrix, err := counts.MergeCountFiles(input)
	if err != nil {
		return err
	}
	log.Println("Merged", len(matrix.Samples), "samples with", len(matrix.Genes), "genes.")

	filtered := matrix.FilterLowCounts(float64(minCount), minSamples)
	log.Println("Low count filter kept", len(filtered.Genes), "of", len(matrix.Genes), "genes.")

	counts.WriteMatrix(filtered, output)
	return nil
}
