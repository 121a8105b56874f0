package cpuconfig

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
)

// Variant names accepted by Lookup.
const (
	NameUnCalib = "UnCalib"
	NameCalib   = "Calib"
	NameMax     = "Max"
)

// DefaultISA is the ISA the micro-benchmarks are compiled for.
const DefaultISA = ISAX86

// DefaultClock is the core clock shared by all variants.
const DefaultClock = 3 * sim.GHz

// Names returns the variant names in declaration order.
func Names() []string {
	return []string{NameUnCalib, NameCalib, NameMax}
}

// All returns fresh copies of every variant in declaration order.
func All() []Variant {
	return []Variant{UnCalib(), Calib(), Max()}
}

// Lookup returns a fresh copy of the named variant.
func Lookup(name string) (Variant, error) {
	switch name {
	case NameUnCalib:
		return UnCalib(), nil
	case NameCalib:
		return Calib(), nil
	case NameMax:
		return Max(), nil
	default:
		return Variant{}, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
	}
}

// skylake returns the parameters shared by every variant before widths,
// delays and FU counts are applied.
func skylake() Variant {
	return Variant{
		BranchPredictor: "LTAGE",
		Clock:           DefaultClock,

		FetchBufferSize: 16,
		FetchQueueSize:  64,
		NumIQEntries:    64,

		FUPool: IdealFUPool(DefaultISA),

		IssueToExecuteDelay: 1,
		IEWToRenameDelay:    1,
		CommitToFetchDelay:  1,
		CommitToIEWDelay:    1,
		CommitToRenameDelay: 1,

		LQEntries:        72,
		SQEntries:        56,
		NumPhysIntRegs:   180,
		NumPhysFloatRegs: 168,
		NumROBEntries:    224,
	}
}

func (v *Variant) setWidths(w int) {
	v.FetchWidth = w
	v.DecodeWidth = w
	v.RenameWidth = w
	v.DispatchWidth = w
	v.IssueWidth = w
	v.WBWidth = w
	v.CommitWidth = w
	v.SquashWidth = w
}

// UnCalib is the Skylake-like core before calibration against hardware.
func UnCalib() Variant {
	v := skylake()
	v.Name = NameUnCalib
	v.Description = "Skylake micro-architecture, not calibrated against hardware"
	v.setWidths(4)
	v.FetchToDecodeDelay = 2
	v.DecodeToRenameDelay = 3
	v.RenameToIEWDelay = 4
	v.IEWToCommitDelay = 4
	return v
}

// Calib is the Skylake-like core calibrated against hardware: 7-wide with six
// integer ALUs.
func Calib() Variant {
	v := skylake()
	v.Name = NameCalib
	v.Description = "Skylake micro-architecture, calibrated against hardware"
	v.setWidths(7)
	v.FetchToDecodeDelay = 2
	v.DecodeToRenameDelay = 3
	v.RenameToIEWDelay = 4
	v.IEWToCommitDelay = 4
	v.FUPool.Units[0].Count = 6
	return v
}

// maxedUnits is how many leading units of the pool Max replicates 32 times.
// The write, read/write and IPR ports keep their default counts.
const maxedUnits = 8

// Max is an idealized ceiling: 32-wide, minimum inter-stage delays and 32
// copies of every execution unit.
func Max() Variant {
	v := skylake()
	v.Name = NameMax
	v.Description = "Maximum pipeline widths and minimum delays"
	v.setWidths(32)
	v.FetchToDecodeDelay = 1
	v.DecodeToRenameDelay = 1
	v.RenameToIEWDelay = 1
	v.IEWToCommitDelay = 1
	for i := 0; i < maxedUnits; i++ {
		v.FUPool.Units[i].Count = 32
	}
	return v
}
