package cpuconfig_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ChenBoya-prj/gem5-skylake-config/internal/cpuconfig"
)

var _ = Describe("FUPool", func() {
	var pool cpuconfig.FUPool

	BeforeEach(func() {
		pool = cpuconfig.IdealFUPool(cpuconfig.ISAX86)
	})

	It("should list eleven units in pool order", func() {
		names := []string{}
		for _, u := range pool.Units {
			names = append(names, u.Name)
		}
		Expect(names).To(Equal([]string{
			"IntALU", "IntMult", "IntDiv", "FP_ALU", "FP_Mult", "FP_Div",
			"ReadPort", "SIMD_Unit", "WritePort", "RdWrPort", "IprPort",
		}))
	})

	It("should use a one-cycle divider on X86", func() {
		div, _ := pool.Unit(cpuconfig.UnitIntDiv)
		Expect(div.Ops[0].Latency).To(Equal(1))
		Expect(div.Ops[0].Pipelined).To(BeFalse())
	})

	It("should use a 20-cycle divider elsewhere", func() {
		div, _ := cpuconfig.IdealFUPool(cpuconfig.ISAARM).Unit(cpuconfig.UnitIntDiv)
		Expect(div.Ops[0].Latency).To(Equal(20))
	})

	It("should not share op lists between copies", func() {
		c := pool.Clone()
		c.Units[0].Ops[0].Latency = 9
		Expect(pool.Units[0].Ops[0].Latency).To(Equal(1))
	})

	It("should set counts by name", func() {
		Expect(pool.SetCount(cpuconfig.UnitFPDiv, 2)).To(Succeed())
		u, _ := pool.Unit(cpuconfig.UnitFPDiv)
		Expect(u.Count).To(Equal(2))
	})

	It("should reject unknown units and negative counts", func() {
		Expect(pool.SetCount("Nope", 1)).To(HaveOccurred())
		Expect(pool.SetCount(cpuconfig.UnitIntALU, -1)).To(HaveOccurred())
	})

	It("should reject duplicate unit names", func() {
		pool.Units = append(pool.Units, pool.Units[0])
		Expect(pool.Validate()).To(MatchError(ContainSubstring("duplicate")))
	})
})
