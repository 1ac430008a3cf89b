// Package agreement measures how consistently groups of survey respondents
// answered the same questions.
//
// A dataset is a table of submissions: one row per submission, one column per
// question. Rows that share a value in the group column (for example
// "household_id") form a group. For every group, each compared column is
// scored by how much the group's answers agree, and the scores are averaged
// into a total agreement in [0, 1].
//
// # Column mask
//
// The compared columns (the mask) are the inclusive range between a first and
// a last column, minus the group column. When an XlsForm definition is given,
// columns whose form type carries no answer (calculate, note, start, end,
// deviceid, group markers, ...) are dropped as well:
//
//	mask, err := agreement.ResolveMask(table.Header(), agreement.MaskOptions{
//	    GroupColumn: "group_id",
//	    First:       "q1",
//	    Last:        "q40",
//	    Form:        fields,
//	})
//
// # Scoring
//
// ScoringModal, the default, scores a column by the share of non-missing
// answers equal to the most frequent answer. ScoringUnanimous scores a column
// 1 only when every member gave the same non-missing answer. Columns the
// whole group left blank are not points of comparison. Use ScoringUnanimous
// (the command's -scoring unanimous) for the all-or-nothing totals of older
// agreement reports, where a question counted as agreed only when every
// answer matched.
//
// # Basic Usage
//
//	dataset, err := agreement.NewBuilder().
//	    AddPath("submissions.csv.gz").
//	    WithForm("form.xlsx").
//	    GroupBy("group_id").
//	    Analyze(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, g := range dataset.Groups {
//	    fmt.Println(g.GroupID, g.Comparisons, g.TotalAgreement)
//	}
//
// Supported dataset formats are CSV, TSV, LTSV, Excel (XLSX) and Parquet,
// each optionally compressed with gzip, bzip2, xz or zstandard.
//
// # Error Handling
//
// Missing columns are reported as *ColumnNotFoundError and boundary columns in
// the wrong order as *InvalidRangeError. Both match their sentinels with
// errors.Is:
//
//	if errors.Is(err, agreement.ErrColumnNotFound) {
//	    // unknown group, first, last or mask column
//	}
package agreement
