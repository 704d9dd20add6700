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

package gsea

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/exascience/eldge/internal"
)

const tableHeader = "set\tdescription\tsize\tes\tnes\tpvalue\tqvalue\tleadingEdge"

// Format writes the GSEA table in the format parsed by ParseTable.
func (t *Table) Format(w io.Writer) {
	out := bufio.NewWriter(w)
	fmt.Fprintln(out, tableHeader)
	for i := range t.Results {
		r := &t.Results[i]
		fmt.Fprintf(out, "%v\t%v\t%d\t%g\t%g\t%g\t%g\t%v\n",
			r.Set, r.Description, r.Size, r.ES, r.NES, r.PValue, r.QValue,
			strings.Join(r.LeadingEdge, ","))
	}
	if err := out.Flush(); err != nil {
		log.Panic(err)
	}
}

// WriteTable writes the GSEA table to a file.
func WriteTable(t *Table, filename string) {
	file := internal.FileCreate(filename)
	defer internal.Close(file)
	t.Format(file)
}

// ParseTable parses a GSEA table file.
func ParseTable(filename string) *Table {
	file := internal.FileOpen(filename)
	defer internal.Close(file)

	t := new(Table)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line == tableHeader {
			continue
		}
		data := strings.Split(line, "\t")
		if len(data) != 8 {
			log.Panicf("badly formatted gsea table %v - invalid number of columns", filename)
		}
		r := Result{
			Set:         data[0],
			Description: data[1],
			Size:        int(internal.ParseInt(data[2], 10, 64)),
			ES:          internal.ParseFloat(data[3], 64),
			NES:         internal.ParseFloat(data[4], 64),
			PValue:      internal.ParseFloat(data[5], 64),
			QValue:      internal.ParseFloat(data[6], 64),
		}
		if data[7] != "" {
			r.LeadingEdge = strings.Split(data[7], ",")
		}
		t.Results = append(t.Results, r)
	}
	if err := scanner.Err(); err != nil {
		log.Panic(err)
	}
	return t
}
