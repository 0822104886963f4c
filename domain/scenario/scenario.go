// Package scenario builds the smoking / lung cancer / shortness of breath
// chain from a handful of probabilities.
package scenario

import (
	"fmt"
	"math"

	"bayesim/domain/core"
	"bayesim/domain/network"
	"bayesim/domain/stats"
)

// Variable names and labels of the chain.
const (
	Smoking           = "Smoking"
	LungCancer        = "LungCancer"
	ShortnessOfBreath = "ShortnessOfBreath"

	Yes     = "yes"
	No      = "no"
	Present = "present"
	Absent  = "absent"
)

// ConditionalRisk is the probability of the child's positive label for each
// state of its single binary parent.
type ConditionalRisk struct {
	GivenPositive float64 `json:"given_positive"`
	GivenNegative float64 `json:"given_negative"`
}

// Inputs is the full parameter record of the chain.
type Inputs struct {
	Smoking    float64         `json:"smoking"`
	LungCancer ConditionalRisk `json:"lung_cancer"`
	Breath     ConditionalRisk `json:"shortness_of_breath"`
}

// Defaults returns the parameters of the reference network: 30% smokers,
// cancer 90% / 1% for smokers / non-smokers, breathlessness 70% / 10% with
// and without cancer.
func Defaults() Inputs {
	return Inputs{
		Smoking:    0.3,
		LungCancer: ConditionalRisk{GivenPositive: 0.9, GivenNegative: 0.01},
		Breath:     ConditionalRisk{GivenPositive: 0.7, GivenNegative: 0.1},
	}
}

// FromScalars applies each scalar as the positive-branch probability for
// every state of the parent.
func FromScalars(smoking, cancer, breath float64) Inputs {
	return Inputs{
		Smoking:    smoking,
		LungCancer: ConditionalRisk{GivenPositive: cancer, GivenNegative: cancer},
		Breath:     ConditionalRisk{GivenPositive: breath, GivenNegative: breath},
	}
}

// FromPercent converts whole-number slider percentages (0..100) to Inputs.
func FromPercent(smoking, cancer, breath int) Inputs {
	return FromScalars(float64(smoking)/100, float64(cancer)/100, float64(breath)/100)
}

// Validate checks that every probability lies in [0,1].
func (in Inputs) Validate() error {
	fields := []struct {
		name string
		p    float64
	}{
		{"P(Smoking)", in.Smoking},
		{"P(LungCancer | Smoking=yes)", in.LungCancer.GivenPositive},
		{"P(LungCancer | Smoking=no)", in.LungCancer.GivenNegative},
		{"P(ShortnessOfBreath | LungCancer=present)", in.Breath.GivenPositive},
		{"P(ShortnessOfBreath | LungCancer=absent)", in.Breath.GivenNegative},
	}
	for _, f := range fields {
		if math.IsNaN(f.p) || f.p < 0 || f.p > 1 {
			return fmt.Errorf("%w: %s = %g", core.ErrInvalidProbability, f.name, f.p)
		}
	}
	return nil
}

// Build constructs and validates the chain model for in.
func Build(in Inputs) (*network.Model, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	smoking, err := network.NewVariable(Smoking, Yes, No)
	if err != nil {
		return nil, err
	}
	cancer, err := network.NewVariable(LungCancer, Present, Absent)
	if err != nil {
		return nil, err
	}
	breath, err := network.NewVariable(ShortnessOfBreath, Present, Absent)
	if err != nil {
		return nil, err
	}

	smokingTable, err := network.NewConditionalTable(smoking)
	if err != nil {
		return nil, err
	}
	if err := smokingTable.Set(network.NoParents, bernoulli(in.Smoking)); err != nil {
		return nil, err
	}

	cancerTable, err := conditional(cancer, smoking, in.LungCancer)
	if err != nil {
		return nil, err
	}
	breathTable, err := conditional(breath, cancer, in.Breath)
	if err != nil {
		return nil, err
	}

	model := network.NewModel()
	for _, entry := range []struct {
		v *network.Variable
		t *network.ConditionalTable
	}{
		{smoking, smokingTable},
		{cancer, cancerTable},
		{breath, breathTable},
	} {
		if err := model.AddVariable(entry.v, entry.t); err != nil {
			return nil, err
		}
	}

	if err := model.Validate(); err != nil {
		return nil, err
	}
	return model, nil
}

// Pairs lists the two edges of the chain for joint summaries.
func Pairs() []stats.Pair {
	return []stats.Pair{
		{A: Smoking, B: LungCancer},
		{A: LungCancer, B: ShortnessOfBreath},
	}
}

func conditional(child, parent *network.Variable, risk ConditionalRisk) (*network.ConditionalTable, error) {
	table, err := network.NewConditionalTable(child, parent)
	if err != nil {
		return nil, err
	}
	// Parent domains list the positive label first.
	probs := []float64{risk.GivenPositive, risk.GivenNegative}
	for i, a := range table.Assignments() {
		if err := table.Set(a, bernoulli(probs[i])); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func bernoulli(p float64) network.Distribution {
	return network.Distribution{p, 1 - p}
}
