package cpuconfig

import (
	"fmt"
	"strings"
)

// OpClass names an operation class understood by the simulator's FU pool.
type OpClass string

const (
	OpIntAlu           OpClass = "IntAlu"
	OpIntMult          OpClass = "IntMult"
	OpIntDiv           OpClass = "IntDiv"
	OpFloatAdd         OpClass = "FloatAdd"
	OpFloatCmp         OpClass = "FloatCmp"
	OpFloatCvt         OpClass = "FloatCvt"
	OpFloatMult        OpClass = "FloatMult"
	OpFloatMultAcc     OpClass = "FloatMultAcc"
	OpFloatMisc        OpClass = "FloatMisc"
	OpFloatDiv         OpClass = "FloatDiv"
	OpFloatSqrt        OpClass = "FloatSqrt"
	OpSimdAdd          OpClass = "SimdAdd"
	OpSimdAddAcc       OpClass = "SimdAddAcc"
	OpSimdAlu          OpClass = "SimdAlu"
	OpSimdCmp          OpClass = "SimdCmp"
	OpSimdCvt          OpClass = "SimdCvt"
	OpSimdMisc         OpClass = "SimdMisc"
	OpSimdMult         OpClass = "SimdMult"
	OpSimdMultAcc      OpClass = "SimdMultAcc"
	OpSimdShift        OpClass = "SimdShift"
	OpSimdShiftAcc     OpClass = "SimdShiftAcc"
	OpSimdSqrt         OpClass = "SimdSqrt"
	OpSimdFloatAdd     OpClass = "SimdFloatAdd"
	OpSimdFloatAlu     OpClass = "SimdFloatAlu"
	OpSimdFloatCmp     OpClass = "SimdFloatCmp"
	OpSimdFloatCvt     OpClass = "SimdFloatCvt"
	OpSimdFloatDiv     OpClass = "SimdFloatDiv"
	OpSimdFloatMisc    OpClass = "SimdFloatMisc"
	OpSimdFloatMult    OpClass = "SimdFloatMult"
	OpSimdFloatMultAcc OpClass = "SimdFloatMultAcc"
	OpSimdFloatSqrt    OpClass = "SimdFloatSqrt"
	OpMemRead          OpClass = "MemRead"
	OpMemWrite         OpClass = "MemWrite"
	OpFloatMemRead     OpClass = "FloatMemRead"
	OpFloatMemWrite    OpClass = "FloatMemWrite"
	OpIprAccess        OpClass = "IprAccess"
)

// ISA selects ISA-specific functional unit latencies.
type ISA string

const (
	ISAX86   ISA = "X86"
	ISAARM   ISA = "ARM"
	ISARISCV ISA = "RISCV"
)

// Functional unit names, in pool order.
const (
	UnitIntALU   = "IntALU"
	UnitIntMult  = "IntMult"
	UnitIntDiv   = "IntDiv"
	UnitFPALU    = "FP_ALU"
	UnitFPMult   = "FP_Mult"
	UnitFPDiv    = "FP_Div"
	UnitReadPort = "ReadPort"
	UnitSIMD     = "SIMD_Unit"
	UnitWrite    = "WritePort"
	UnitRdWr     = "RdWrPort"
	UnitIpr      = "IprPort"
)

// OpDesc is one operation class served by a functional unit.
type OpDesc struct {
	OpClass   OpClass `yaml:"opClass" json:"opClass"`
	Latency   int     `yaml:"opLat" json:"opLat"`
	Pipelined bool    `yaml:"pipelined" json:"pipelined"`
}

// FUDesc describes a replicated functional unit.
type FUDesc struct {
	Name  string   `yaml:"name" json:"name"`
	Ops   []OpDesc `yaml:"opList" json:"opList"`
	Count int      `yaml:"count" json:"count"`
}

// FUPool is the ordered functional unit inventory of one core.
type FUPool struct {
	Units []FUDesc `yaml:"FUList" json:"FUList"`
}

// op returns a pipelined OpDesc.
func op(class OpClass, lat int) OpDesc {
	return OpDesc{OpClass: class, Latency: lat, Pipelined: true}
}

func unpipelined(class OpClass, lat int) OpDesc {
	return OpDesc{OpClass: class, Latency: lat, Pipelined: false}
}

// IdealFUPool returns a fresh copy of the default functional unit pool.
//
// On X86 the integer divider latency is one cycle: DIV and IDIV are expanded
// into a loop of division microops, each of which produces one quotient bit.
func IdealFUPool(isa ISA) FUPool {
	divLat := 20
	if isa == ISAX86 {
		divLat = 1
	}

	return FUPool{Units: []FUDesc{
		{Name: UnitIntALU, Count: 4, Ops: []OpDesc{
			op(OpIntAlu, 1),
			op(OpMemRead, 1),
			op(OpMemWrite, 1),
		}},
		{Name: UnitIntMult, Count: 1, Ops: []OpDesc{
			op(OpIntMult, 4),
		}},
		{Name: UnitIntDiv, Count: 1, Ops: []OpDesc{
			unpipelined(OpIntDiv, divLat),
		}},
		{Name: UnitFPALU, Count: 3, Ops: []OpDesc{
			op(OpFloatAdd, 3),
			op(OpFloatCmp, 3),
			op(OpFloatCvt, 3),
		}},
		{Name: UnitFPMult, Count: 2, Ops: []OpDesc{
			op(OpFloatMult, 5),
			op(OpFloatMultAcc, 5),
			op(OpFloatMisc, 3),
		}},
		{Name: UnitFPDiv, Count: 1, Ops: []OpDesc{
			unpipelined(OpFloatDiv, 15),
			unpipelined(OpFloatSqrt, 15),
		}},
		{Name: UnitReadPort, Count: 2, Ops: []OpDesc{
			op(OpMemRead, 1),
			op(OpFloatMemRead, 1),
		}},
		{Name: UnitSIMD, Count: 4, Ops: []OpDesc{
			op(OpSimdAdd, 1),
			op(OpSimdAddAcc, 1),
			op(OpSimdAlu, 1),
			op(OpSimdCmp, 1),
			op(OpSimdCvt, 3),
			op(OpSimdMisc, 3),
			op(OpSimdMult, 5),
			op(OpSimdMultAcc, 5),
			op(OpSimdShift, 2),
			op(OpSimdShiftAcc, 2),
			op(OpSimdSqrt, 4),
			op(OpSimdFloatAdd, 3),
			op(OpSimdFloatAlu, 3),
			op(OpSimdFloatCmp, 3),
			op(OpSimdFloatCvt, 4),
			unpipelined(OpSimdFloatDiv, 15),
			op(OpSimdFloatMisc, 3),
			op(OpSimdFloatMult, 5),
			op(OpSimdFloatMultAcc, 6),
			unpipelined(OpSimdFloatSqrt, 10),
		}},
		{Name: UnitWrite, Count: 1, Ops: []OpDesc{
			op(OpMemWrite, 1),
			op(OpFloatMemWrite, 1),
		}},
		{Name: UnitRdWr, Count: 0, Ops: []OpDesc{
			op(OpMemRead, 1),
			op(OpMemWrite, 1),
			op(OpFloatMemRead, 1),
			op(OpFloatMemWrite, 1),
		}},
		{Name: UnitIpr, Count: 1, Ops: []OpDesc{
			unpipelined(OpIprAccess, 3),
		}},
	}}
}

// Unit returns the unit with the given name.
func (p FUPool) Unit(name string) (FUDesc, bool) {
	for _, u := range p.Units {
		if u.Name == name {
			return u, true
		}
	}
	return FUDesc{}, false
}

// SetCount changes the replication count of a named unit.
func (p *FUPool) SetCount(name string, count int) error {
	if count < 0 {
		return fmt.Errorf("count for %s must be >= 0, got %d", name, count)
	}
	for i := range p.Units {
		if p.Units[i].Name == name {
			p.Units[i].Count = count
			return nil
		}
	}
	return fmt.Errorf("unknown functional unit %q", name)
}

// Clone returns a deep copy of the pool.
func (p FUPool) Clone() FUPool {
	units := make([]FUDesc, len(p.Units))
	for i, u := range p.Units {
		ops := make([]OpDesc, len(u.Ops))
		copy(ops, u.Ops)
		units[i] = FUDesc{Name: u.Name, Ops: ops, Count: u.Count}
	}
	return FUPool{Units: units}
}

// Validate checks unit names, counts and op latencies.
func (p FUPool) Validate() error {
	if len(p.Units) == 0 {
		return fmt.Errorf("fu pool must contain at least one unit")
	}
	seen := make(map[string]struct{}, len(p.Units))
	for _, u := range p.Units {
		name := strings.TrimSpace(u.Name)
		if name == "" {
			return fmt.Errorf("fu name is required")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate fu %q", name)
		}
		seen[name] = struct{}{}
		if u.Count < 0 {
			return fmt.Errorf("%s count must be >= 0", name)
		}
		if len(u.Ops) == 0 {
			return fmt.Errorf("%s must serve at least one op class", name)
		}
		for _, o := range u.Ops {
			if o.Latency <= 0 {
				return fmt.Errorf("%s.%s latency must be > 0", name, o.OpClass)
			}
		}
	}
	return nil
}
