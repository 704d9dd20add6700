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
	"runtime"

	"github.com/exascience/eldge/counts"
	"github.com/exascience/eldge/dge"
)

// DGEHelp is the help string for this command.
const DGEHelp = "Dge parameters:\n" +
	"eldge dge matrix.tsv samples.tsv results.tsv\n" +
	"[--reference condition]\n" +
	"[--treatment condition]\n" +
	"[--min-base-mean nr]\n" +
	"[--no-shrink]\n" +
	"[--nr-of-threads nr]\n" +
	"[--log-path path]\n"

// contrastConditions resolves the contrast: when reference or
// treatment are unspecified, the sample sheet must describe exactly
// two conditions, taken in order of appearance.
func contrastConditions(sheet *counts.SampleSheet, reference, treatment string) (string, string, error) {
	names := sheet.ConditionNames()
	if reference == "" || treatment == "" {
		if len(names) != 2 {
			return "", "", fmt.Errorf("sample sheet describes %v conditions, specify --reference and --treatment", len(names))
		}
		if reference == "" {
			reference = names[0]
		}
		if treatment == "" {
			treatment = names[1]
			if treatment == reference {
				treatment = names[0]
			}
		}
	}
	found := map[string]bool{}
	for _, name := range names {
		found[name] = true
	}
	if !found[reference] {
		return "", "", fmt.Errorf("condition %v not in sample sheet", reference)
	}
	if !found[treatment] {
		return "", "", fmt.Errorf("condition %v not in sample sheet", treatment)
	}
	if reference == treatment {
		return "", "", fmt.Errorf("reference and treatment are both %v", reference)
	}
	return reference, treatment, nil
}

// runDGE is the dge stage shared by the dge and run commands.
func runDGE(matrixFile, sheetFile, output, reference, treatment string, minBaseMean float64, shrink bool) error {
	matrix := counts.ParseMatrix(matrixFile)
	sheet := counts.ParseSampleSheet(sheetFile)

	reference, treatment, err := contrastConditions(sheet, reference, treatment)
	if err != nil {
		return err
	}
	log.Println("Testing contrast", treatment, "vs", reference, "over", len(matrix.Genes), "genes.")

	sizeFactors, err := dge.SizeFactors(matrix)
	if err != nil {
		return err
	}
	log.Println("Size factors:", sizeFactors)

	dispersions, err := dge.EstimateDispersions(matrix, sizeFactors)
	if err != nil {
		return err
	}
	log.Printf("Dispersion trend: %v + %v/mean.\n", dispersions.TrendA0, dispersions.TrendA1)

	table, err := dge.WaldTest(matrix, sheet, sizeFactors, dispersions, dge.TestOptions{
		Reference:   reference,
		Treatment:   treatment,
		MinBaseMean: minBaseMean,
		Shrink:      shrink,
	})
	if err != nil {
		return err
	}
	table.SortByPAdj()
	dge.WriteTable(table, output)

	up, down := table.Significant(0.05, 0)
	log.Println(len(up), "genes up and", len(down), "genes down at padj < 0.05.")
	return nil
}

// DGE implements the eldge dge command.
func DGE() error {
	var (
		reference, treatment, logPath string
		minBaseMean                   float64
		noShrink                      bool
		nrOfThreads                   int
	)

	var flags flag.FlagSet

	flags.StringVar(&reference, "reference", "", "the reference condition of the contrast")
	flags.StringVar(&treatment, "treatment", "", "the treatment condition of the contrast")
	flags.Float64Var(&minBaseMean, "min-base-mean", 0.5, "minimum mean of normalized counts for a gene to be tested")
	flags.BoolVar(&noShrink, "no-shrink", false, "disable log fold change shrinkage")
	flags.IntVar(&nrOfThreads, "nr-of-threads", 0, "number of worker threads")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	parseFlags(flags, 5, DGEHelp)

	matrixFile := getFilename(os.Args[2], DGEHelp)
	sheetFile := getFilename(os.Args[3], DGEHelp)
	output := getFilename(os.Args[4], DGEHelp)

	setLogOutput(logPath)

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", matrixFile) {
		sanityChecksFailed = true
	}
	if !checkExist("", sheetFile) {
		sanityChecksFailed = true
	}
	if !checkCreate("", output) {
		sanityChecksFailed = true
	}
	if minBaseMean < 0 {
		log.Println("Error: Invalid min-base-mean: ", minBaseMean)
		sanityChecksFailed = true
	}
	if nrOfThreads < 0 {
		log.Println("Error: Invalid nr-of-threads: ", nrOfThreads)
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, DGEHelp)
		os.Exit(1)
	}

	// building output command line

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " dge ", matrixFile, " ", sheetFile, " ", output)
	if reference != "" {
		fmt.Fprint(&command, " --reference ", reference)
	}
	if treatment != "" {
		fmt.Fprint(&command, " --treatment ", treatment)
	}
	fmt.Fprint(&command, " --min-base-mean ", minBaseMean)
	if noShrink {
		fmt.Fprint(&command, " --no-shrink")
	}
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
	timedRun(true, "Running differential expression test.", func() {
		err = runDGE(matrixFile, sheetFile, output, reference, treatment, minBaseMean, !noShrink)
	})
	return err
}
