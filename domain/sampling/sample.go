package sampling

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"bayesim/domain/core"
	"bayesim/domain/network"
)

// Schema fixes the column order shared by every sample of a batch.
type Schema struct {
	variables []*network.Variable
	position  map[string]int
}

// NewSchema builds a schema from variables in column order.
func NewSchema(variables []*network.Variable) *Schema {
	vars := make([]*network.Variable, len(variables))
	copy(vars, variables)
	position := make(map[string]int, len(vars))
	for i, v := range vars {
		position[v.Name()] = i
	}
	return &Schema{variables: vars, position: position}
}

// Variables returns the columns in order.
func (s *Schema) Variables() []*network.Variable {
	out := make([]*network.Variable, len(s.variables))
	copy(out, s.variables)
	return out
}

// Variable finds a column by name.
func (s *Schema) Variable(name string) (*network.Variable, int, error) {
	i, ok := s.position[name]
	if !ok {
		return nil, -1, core.NewUnknownVariableError(name)
	}
	return s.variables[i], i, nil
}

// Names returns the column names in order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.variables))
	for i, v := range s.variables {
		out[i] = v.Name()
	}
	return out
}

func (s *Schema) equal(other *Schema) bool {
	if s == other {
		return true
	}
	if other == nil || len(s.variables) != len(other.variables) {
		return false
	}
	for i, v := range s.variables {
		o := other.variables[i]
		if v.Name() != o.Name() || !v.SameDomain(o) {
			return false
		}
	}
	return true
}

// Sample is one joint draw: a label for every variable of the schema.
type Sample struct {
	schema *Schema
	labels []int
}

// Label returns the label drawn for the named variable.
func (s Sample) Label(name string) (string, bool) {
	i, ok := s.schema.position[name]
	if !ok {
		return "", false
	}
	return s.schema.variables[i].Label(s.labels[i]), true
}

// LabelIndex returns the domain index drawn for column i.
func (s Sample) LabelIndex(column int) int { return s.labels[column] }

// Labels returns the draw as a name -> label map.
func (s Sample) Labels() map[string]string {
	out := make(map[string]string, len(s.labels))
	for i, v := range s.schema.variables {
		out[v.Name()] = v.Label(s.labels[i])
	}
	return out
}

// MarshalJSON encodes the sample as a name -> label object.
func (s Sample) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Labels())
}

// Batch is an ordered sequence of samples sharing one schema.
type Batch struct {
	schema  *Schema
	samples []Sample
}

// Schema returns the column layout.
func (b Batch) Schema() *Schema { return b.schema }

// Len returns the number of samples.
func (b Batch) Len() int { return len(b.samples) }

// At returns the i-th sample.
func (b Batch) At(i int) Sample { return b.samples[i] }

// Samples returns a copy of the sample slice.
func (b Batch) Samples() []Sample {
	out := make([]Sample, len(b.samples))
	copy(out, b.samples)
	return out
}

// Concat appends batches drawn from the same schema, in argument order.
func Concat(batches ...Batch) (Batch, error) {
	if len(batches) == 0 {
		return Batch{}, nil
	}
	schema := batches[0].schema
	total := 0
	for i, b := range batches {
		if !schema.equal(b.schema) {
			return Batch{}, fmt.Errorf("batch %d has a different schema", i)
		}
		total += len(b.samples)
	}

	samples := make([]Sample, 0, total)
	for _, b := range batches {
		for _, s := range b.samples {
			samples = append(samples, Sample{schema: schema, labels: s.labels})
		}
	}
	return Batch{schema: schema, samples: samples}, nil
}

// Fingerprint hashes a canonical encoding of the schema and every draw.
// Two batches with the same fingerprint are identical sample for sample.
func (b Batch) Fingerprint() core.Hash {
	var buf bytes.Buffer
	if b.schema != nil {
		for _, v := range b.schema.variables {
			buf.WriteString(v.String())
			buf.WriteByte(0)
		}
	}
	var word [4]byte
	for _, s := range b.samples {
		for _, idx := range s.labels {
			binary.BigEndian.PutUint32(word[:], uint32(idx))
			buf.Write(word[:])
		}
	}
	return core.NewHash(buf.Bytes())
}

// Rows returns the draws as label rows in schema order, for tabular export.
func (b Batch) Rows() [][]string {
	rows := make([][]string, len(b.samples))
	for i, s := range b.samples {
		row := make([]string, len(s.labels))
		for c, idx := range s.labels {
			row[c] = b.schema.variables[c].Label(idx)
		}
		rows[i] = row
	}
	return rows
}

// MarshalJSON encodes the batch as column names plus sample objects.
func (b Batch) MarshalJSON() ([]byte, error) {
	var names []string
	if b.schema != nil {
		names = b.schema.Names()
	}
	samples := b.samples
	if samples == nil {
		samples = []Sample{}
	}
	return json.Marshal(struct {
		Variables []string `json:"variables"`
		Samples   []Sample `json:"samples"`
	}{names, samples})
}
