package agreement

import (
	"fmt"
	"strings"

	"github.com/nao1215/agreement/domain/model"
	"gonum.org/v1/gonum/stat"
)

// Scoring selects how a column's agreement within a group is scored before
// the per-group mean is taken.
type Scoring int

const (
	// ScoringModal scores a column by the share of answers equal to the most
	// frequent answer: modal count / non-missing answers.
	ScoringModal Scoring = iota
	// ScoringUnanimous scores a column 1 when every member of the group gave
	// the same non-missing answer, and 0 otherwise.
	ScoringUnanimous
)

// String returns the scoring name
func (s Scoring) String() string {
	switch s {
	case ScoringUnanimous:
		return "unanimous"
	default:
		return "modal"
	}
}

// ParseScoring maps "modal" or "unanimous" to a Scoring.
func ParseScoring(name string) (Scoring, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "modal":
		return ScoringModal, nil
	case "unanimous":
		return ScoringUnanimous, nil
	default:
		return ScoringModal, fmt.Errorf("agreement: unknown scoring %q (want modal or unanimous)", name)
	}
}

// ColumnAgreement is the agreement of one group on one masked column.
type ColumnAgreement struct {
	// Column is the masked column name
	Column string
	// Observed is the number of non-missing answers
	Observed int
	// Missing is the number of missing answers
	Missing int
	// ModalCount is how many answers equal the most frequent answer
	ModalCount int
	// Rate is ModalCount / Observed, or 0 when nothing was observed
	Rate float64
	// Answer is the most frequent answer. It is missing when nothing was
	// observed or when two answers tie for most frequent.
	Answer model.Value
	// Tied reports that two or more answers share the top count
	Tied bool
	// Unanimous reports that every group member answered and all answers agree
	Unanimous bool
}

// AllMissing reports whether the group left this column entirely blank.
// Such a column is not a point of comparison for the group.
func (c ColumnAgreement) AllMissing() bool {
	return c.Observed == 0
}

// Score returns the column score under the given scoring.
func (c ColumnAgreement) Score(s Scoring) float64 {
	if s == ScoringUnanimous {
		if c.Unanimous {
			return 1
		}
		return 0
	}
	return c.Rate
}

// GroupSummary is the agreement result for one group.
type GroupSummary struct {
	// GroupID is the group identifier; missing for the implicit single group
	GroupID model.Value
	// Size is the number of rows in the group
	Size int
	// Rows are the table row indices of the group members
	Rows []int
	// Comparisons is the number of masked columns with at least one answer
	Comparisons int
	// TotalAgreement is the mean column score over the points of comparison,
	// or 0 when there are none
	TotalAgreement float64
	// Scoring is the scoring used for TotalAgreement
	Scoring Scoring
	// Columns holds one entry per masked column, in mask order
	Columns []ColumnAgreement
}

// Defined reports whether TotalAgreement was computed from at least one
// point of comparison. A zero TotalAgreement with Defined() == false means
// "no data", not "no agreement".
func (g GroupSummary) Defined() bool {
	return g.Comparisons > 0
}

// Disagreements returns the columns where the group answered but was not unanimous.
func (g GroupSummary) Disagreements() []string {
	var out []string
	for _, c := range g.Columns {
		if !c.AllMissing() && !c.Unanimous {
			out = append(out, c.Column)
		}
	}
	return out
}

// ComputeOption configures Compute.
type ComputeOption func(*computeConfig)

type computeConfig struct {
	scoring Scoring
}

// WithScoring selects the column scoring. The default is ScoringModal.
func WithScoring(s Scoring) ComputeOption {
	return func(c *computeConfig) {
		c.scoring = s
	}
}

// Partition splits the table rows into groups by the literal value of
// groupColumn. An empty groupColumn yields one group holding every row.
func Partition(table *model.Table, groupColumn string) (*model.GroupPartition, error) {
	if groupColumn == "" {
		return model.SingleGroup(table.Len()), nil
	}
	ids, err := table.Column(groupColumn)
	if err != nil {
		return nil, &ColumnNotFoundError{Column: groupColumn, Role: "group"}
	}
	return model.PartitionByValues(ids), nil
}

// Compute partitions the table by groupColumn and scores each group's
// agreement on every column of mask. Groups are returned in the order their
// first row appears. The table is not modified.
func Compute(table *model.Table, groupColumn string, mask []string, opts ...ComputeOption) ([]GroupSummary, error) {
	partition, err := Partition(table, groupColumn)
	if err != nil {
		return nil, err
	}
	return computePartition(table, partition, mask, opts...)
}

func computePartition(table *model.Table, partition *model.GroupPartition, mask []string, opts ...ComputeOption) ([]GroupSummary, error) {
	cfg := computeConfig{scoring: ScoringModal}
	for _, opt := range opts {
		opt(&cfg)
	}

	positions := make([]int, len(mask))
	for i, column := range mask {
		pos, ok := table.ColumnIndex(column)
		if !ok {
			return nil, &ColumnNotFoundError{Column: column, Role: "mask"}
		}
		positions[i] = pos
	}

	rows := table.Rows()
	summaries := make([]GroupSummary, 0, partition.Len())
	for _, group := range partition.Groups() {
		summary := GroupSummary{
			GroupID: group.ID,
			Size:    len(group.Rows),
			Rows:    group.Rows,
			Scoring: cfg.scoring,
			Columns: make([]ColumnAgreement, len(mask)),
		}

		scores := make([]float64, 0, len(mask))
		answers := make([]model.Value, len(group.Rows))
		for i, column := range mask {
			for r, row := range group.Rows {
				answers[r] = rows[row][positions[i]]
			}
			ca := analyzeAnswers(column, answers)
			summary.Columns[i] = ca
			if !ca.AllMissing() {
				scores = append(scores, ca.Score(cfg.scoring))
			}
		}

		summary.Comparisons = len(scores)
		if len(scores) > 0 {
			summary.TotalAgreement = stat.Mean(scores, nil)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// analyzeAnswers counts the answers one group gave to one column.
func analyzeAnswers(column string, answers []model.Value) ColumnAgreement {
	ca := ColumnAgreement{Column: column}

	counts := make(map[string]int, len(answers))
	first := make(map[string]model.Value, len(answers))
	var order []string
	for _, v := range answers {
		if v.IsMissing() {
			ca.Missing++
			continue
		}
		ca.Observed++
		key := v.Key()
		if _, seen := counts[key]; !seen {
			order = append(order, key)
			first[key] = v
		}
		counts[key]++
	}
	if ca.Observed == 0 {
		return ca
	}

	best := order[0]
	for _, key := range order[1:] {
		switch {
		case counts[key] > counts[best]:
			best = key
			ca.Tied = false
		case counts[key] == counts[best]:
			ca.Tied = true
		}
	}

	ca.ModalCount = counts[best]
	ca.Rate = float64(ca.ModalCount) / float64(ca.Observed)
	if !ca.Tied {
		ca.Answer = first[best]
	}
	ca.Unanimous = len(order) == 1 && ca.Missing == 0
	return ca
}
