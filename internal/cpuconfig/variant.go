// Package cpuconfig holds the out-of-order core configurations handed to the
// simulator at run start.
//
// Each Variant is a flat table of pipeline widths, inter-stage delays, buffer
// sizes and a functional unit pool. Parameter names in YAML and in Params
// follow the simulator's own names so a run script can apply them directly.
package cpuconfig

import (
	"errors"
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
)

// ErrUnknownVariant is returned by Lookup for names outside Names().
var ErrUnknownVariant = errors.New("unknown cpu variant")

// Variant describes one core configuration.
type Variant struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`

	// BranchPredictor names the predictor object; all variants use LTAGE.
	BranchPredictor string `yaml:"branchPred" json:"branchPred"`

	// Clock is the core clock.
	Clock sim.Freq `yaml:"clock" json:"clock"`

	// Front end.
	FetchWidth          int `yaml:"fetchWidth" json:"fetchWidth"`
	DecodeWidth         int `yaml:"decodeWidth" json:"decodeWidth"`
	FetchToDecodeDelay  int `yaml:"fetchToDecodeDelay" json:"fetchToDecodeDelay"`
	DecodeToRenameDelay int `yaml:"decodeToRenameDelay" json:"decodeToRenameDelay"`
	FetchBufferSize     int `yaml:"fetchBufferSize" json:"fetchBufferSize"`
	FetchQueueSize      int `yaml:"fetchQueueSize" json:"fetchQueueSize"`
	NumIQEntries        int `yaml:"numIQEntries" json:"numIQEntries"`

	// Back end.
	FUPool              FUPool `yaml:"fuPool" json:"fuPool"`
	RenameWidth         int    `yaml:"renameWidth" json:"renameWidth"`
	DispatchWidth       int    `yaml:"dispatchWidth" json:"dispatchWidth"`
	IssueWidth          int    `yaml:"issueWidth" json:"issueWidth"`
	WBWidth             int    `yaml:"wbWidth" json:"wbWidth"`
	CommitWidth         int    `yaml:"commitWidth" json:"commitWidth"`
	SquashWidth         int    `yaml:"squashWidth" json:"squashWidth"`
	RenameToIEWDelay    int    `yaml:"renameToIEWDelay" json:"renameToIEWDelay"`
	IssueToExecuteDelay int    `yaml:"issueToExecuteDelay" json:"issueToExecuteDelay"`
	IEWToRenameDelay    int    `yaml:"iewToRenameDelay" json:"iewToRenameDelay"`
	IEWToCommitDelay    int    `yaml:"iewToCommitDelay" json:"iewToCommitDelay"`
	CommitToFetchDelay  int    `yaml:"commitToFetchDelay" json:"commitToFetchDelay"`
	CommitToIEWDelay    int    `yaml:"commitToIEWDelay" json:"commitToIEWDelay"`
	CommitToRenameDelay int    `yaml:"commitToRenameDelay" json:"commitToRenameDelay"`
	LQEntries           int    `yaml:"LQEntries" json:"LQEntries"`
	SQEntries           int    `yaml:"SQEntries" json:"SQEntries"`
	NumPhysIntRegs      int    `yaml:"numPhysIntRegs" json:"numPhysIntRegs"`
	NumPhysFloatRegs    int    `yaml:"numPhysFloatRegs" json:"numPhysFloatRegs"`
	NumROBEntries       int    `yaml:"numROBEntries" json:"numROBEntries"`
}

// Param is one named simulator parameter.
type Param struct {
	Name  string
	Value any
}

func (p Param) String() string {
	return fmt.Sprintf("%s=%v", p.Name, p.Value)
}

// scalars lists every integer parameter in declaration order.
func (v Variant) scalars() []Param {
	return []Param{
		{"fetchWidth", v.FetchWidth},
		{"decodeWidth", v.DecodeWidth},
		{"fetchToDecodeDelay", v.FetchToDecodeDelay},
		{"decodeToRenameDelay", v.DecodeToRenameDelay},
		{"fetchBufferSize", v.FetchBufferSize},
		{"fetchQueueSize", v.FetchQueueSize},
		{"numIQEntries", v.NumIQEntries},
		{"renameWidth", v.RenameWidth},
		{"dispatchWidth", v.DispatchWidth},
		{"issueWidth", v.IssueWidth},
		{"wbWidth", v.WBWidth},
		{"commitWidth", v.CommitWidth},
		{"squashWidth", v.SquashWidth},
		{"renameToIEWDelay", v.RenameToIEWDelay},
		{"issueToExecuteDelay", v.IssueToExecuteDelay},
		{"iewToRenameDelay", v.IEWToRenameDelay},
		{"iewToCommitDelay", v.IEWToCommitDelay},
		{"commitToFetchDelay", v.CommitToFetchDelay},
		{"commitToIEWDelay", v.CommitToIEWDelay},
		{"commitToRenameDelay", v.CommitToRenameDelay},
		{"LQEntries", v.LQEntries},
		{"SQEntries", v.SQEntries},
		{"numPhysIntRegs", v.NumPhysIntRegs},
		{"numPhysFloatRegs", v.NumPhysFloatRegs},
		{"numROBEntries", v.NumROBEntries},
	}
}

// Params flattens the variant into simulator parameter assignments.
// Functional unit counts appear as fuPool.<unit>.count.
func (v Variant) Params() []Param {
	params := []Param{
		{"branchPred", v.BranchPredictor},
		{"clock", FormatFreq(v.Clock)},
	}
	params = append(params, v.scalars()...)
	for _, u := range v.FUPool.Units {
		params = append(params, Param{Name: "fuPool." + u.Name + ".count", Value: u.Count})
	}
	return params
}

// Validate checks that every scalar is positive and the FU pool is well formed.
func (v Variant) Validate() error {
	if v.Name == "" {
		return errors.New("variant name is required")
	}
	if v.BranchPredictor == "" {
		return fmt.Errorf("%s: branchPred is required", v.Name)
	}
	if v.Clock <= 0 {
		return fmt.Errorf("%s: clock must be > 0", v.Name)
	}
	for _, p := range v.scalars() {
		if p.Value.(int) <= 0 {
			return fmt.Errorf("%s: %s must be > 0", v.Name, p.Name)
		}
	}
	if err := v.FUPool.Validate(); err != nil {
		return fmt.Errorf("%s: %w", v.Name, err)
	}
	return nil
}

// Clone returns a deep copy of the variant.
func (v Variant) Clone() Variant {
	c := v
	c.FUPool = v.FUPool.Clone()
	return c
}

// FormatFreq renders a frequency the way the simulator parses clock strings.
func FormatFreq(f sim.Freq) string {
	switch {
	case f >= sim.GHz:
		return fmt.Sprintf("%gGHz", float64(f)/float64(sim.GHz))
	case f >= sim.MHz:
		return fmt.Sprintf("%gMHz", float64(f)/float64(sim.MHz))
	default:
		return fmt.Sprintf("%gHz", float64(f))
	}
}
