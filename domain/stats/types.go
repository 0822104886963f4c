package stats

// ============================================================================
// SUMMARY PRIMITIVES (derived, recomputed per batch)
// ============================================================================

// Marginal is the empirical distribution of one variable.
// INVARIANTS:
// - Labels, Counts and Frequencies are aligned with the variable's domain
// - Frequencies sum to 1 unless Total is 0, in which case all are 0
type Marginal struct {
	Variable    string    `json:"variable"`
	Labels      []string  `json:"labels"`
	Counts      []int     `json:"counts"`
	Frequencies []float64 `json:"frequencies"`
	Total       int       `json:"total"`
}

// Frequency returns the fraction of samples carrying label (0 if unknown).
func (m Marginal) Frequency(label string) float64 {
	for i, l := range m.Labels {
		if l == label {
			return m.Frequencies[i]
		}
	}
	return 0
}

// Joint is the empirical co-occurrence table of two variables.
// Rows follow the first variable's domain, columns the second's.
type Joint struct {
	RowVariable    string      `json:"row_variable"`
	ColumnVariable string      `json:"column_variable"`
	RowLabels      []string    `json:"row_labels"`
	ColumnLabels   []string    `json:"column_labels"`
	Counts         [][]int     `json:"counts"`
	Frequencies    [][]float64 `json:"frequencies"`
	Total          int         `json:"total"`
}

// Frequency returns the fraction of samples with both labels.
func (j Joint) Frequency(row, column string) float64 {
	r, c := indexOf(j.RowLabels, row), indexOf(j.ColumnLabels, column)
	if r < 0 || c < 0 {
		return 0
	}
	return j.Frequencies[r][c]
}

// Conditional returns P(column | row) for each column label. A row that
// never occurred yields all zeros.
func (j Joint) Conditional(row string) []float64 {
	out := make([]float64, len(j.ColumnLabels))
	r := indexOf(j.RowLabels, row)
	if r < 0 {
		return out
	}
	total := 0
	for _, n := range j.Counts[r] {
		total += n
	}
	if total == 0 {
		return out
	}
	for c, n := range j.Counts[r] {
		out[c] = float64(n) / float64(total)
	}
	return out
}

// Profile is one observed combination of labels across every variable.
type Profile struct {
	Labels    map[string]string `json:"labels"`
	Count     int               `json:"count"`
	Frequency float64           `json:"frequency"`
}

// Rate is the share of samples carrying a variable's positive label, with
// its standard error and a 95% Wilson score interval.
type Rate struct {
	Variable string  `json:"variable"`
	Label    string  `json:"label"`
	Count    int     `json:"count"`
	Total    int     `json:"total"`
	Rate     float64 `json:"rate"`
	StdErr   float64 `json:"std_err"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
}

// Independence is a Pearson chi-square test of independence on a joint
// table, plus the empirical mutual information in bits.
type Independence struct {
	RowVariable       string  `json:"row_variable"`
	ColumnVariable    string  `json:"column_variable"`
	ChiSquare         float64 `json:"chi_square"`
	DegreesOfFreedom  int     `json:"degrees_of_freedom"`
	PValue            float64 `json:"p_value"`
	CramersV          float64 `json:"cramers_v"`
	MutualInformation float64 `json:"mutual_information"`
}

// Pair names two variables to cross-tabulate.
type Pair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// Summary bundles every statistic computed for one batch.
type Summary struct {
	Total        int            `json:"total"`
	Variables    []string       `json:"variables"`
	Marginals    []Marginal     `json:"marginals"`
	Joints       []Joint        `json:"joints"`
	Profiles     []Profile      `json:"profiles"`
	Rates        []Rate         `json:"rates"`
	Independence []Independence `json:"independence"`
}

// Marginal finds the marginal of the named variable.
func (s Summary) Marginal(name string) (Marginal, bool) {
	for _, m := range s.Marginals {
		if m.Variable == name {
			return m, true
		}
	}
	return Marginal{}, false
}

// Rate finds the positive-label rate of the named variable.
func (s Summary) Rate(name string) (Rate, bool) {
	for _, r := range s.Rates {
		if r.Variable == name {
			return r, true
		}
	}
	return Rate{}, false
}

func indexOf(labels []string, label string) int {
	for i, l := range labels {
		if l == label {
			return i
		}
	}
	return -1
}
