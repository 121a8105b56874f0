package cpuconfig_test

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/ChenBoya-prj/gem5-skylake-config/internal/cpuconfig"
)

var _ = Describe("Variants", func() {
	Describe("Lookup", func() {
		It("should return every declared name", func() {
			for _, name := range cpuconfig.Names() {
				v, err := cpuconfig.Lookup(name)
				Expect(err).NotTo(HaveOccurred())
				Expect(v.Name).To(Equal(name))
			}
		})

		It("should reject the all selector", func() {
			_, err := cpuconfig.Lookup("all")
			Expect(errors.Is(err, cpuconfig.ErrUnknownVariant)).To(BeTrue())
		})

		It("should return independent copies", func() {
			a, _ := cpuconfig.Lookup(cpuconfig.NameCalib)
			a.FUPool.Units[0].Count = 99
			b, _ := cpuconfig.Lookup(cpuconfig.NameCalib)
			Expect(b.FUPool.Units[0].Count).To(Equal(6))
		})
	})

	Describe("Shape", func() {
		It("should validate every variant", func() {
			for _, v := range cpuconfig.All() {
				Expect(v.Validate()).To(Succeed(), v.Name)
			}
		})

		It("should expose only positive integer scalars", func() {
			for _, v := range cpuconfig.All() {
				for _, p := range v.Params() {
					if n, ok := p.Value.(int); ok {
						if len(p.Name) > 7 && p.Name[:7] == "fuPool." {
							Expect(n).To(BeNumerically(">=", 0), v.Name+" "+p.Name)
						} else {
							Expect(n).To(BeNumerically(">", 0), v.Name+" "+p.Name)
						}
					}
				}
			}
		})

		It("should expose the same parameter set for every variant", func() {
			names := func(v cpuconfig.Variant) []string {
				out := []string{}
				for _, p := range v.Params() {
					out = append(out, p.Name)
				}
				return out
			}
			Expect(names(cpuconfig.Calib())).To(Equal(names(cpuconfig.UnCalib())))
			Expect(names(cpuconfig.Max())).To(Equal(names(cpuconfig.UnCalib())))
		})

		It("should run all cores at 3GHz", func() {
			for _, v := range cpuconfig.All() {
				Expect(v.Clock).To(Equal(3 * sim.GHz))
			}
		})
	})

	Describe("UnCalib", func() {
		v := cpuconfig.UnCalib()

		It("should be 4-wide", func() {
			Expect(v.FetchWidth).To(Equal(4))
			Expect(v.IssueWidth).To(Equal(4))
			Expect(v.CommitWidth).To(Equal(4))
		})

		It("should keep the default pool", func() {
			Expect(v.FUPool).To(Equal(cpuconfig.IdealFUPool(cpuconfig.ISAX86)))
		})

		It("should carry the front-end delays", func() {
			Expect(v.FetchToDecodeDelay).To(Equal(2))
			Expect(v.DecodeToRenameDelay).To(Equal(3))
			Expect(v.RenameToIEWDelay).To(Equal(4))
			Expect(v.IEWToCommitDelay).To(Equal(4))
		})
	})

	Describe("Calib", func() {
		v := cpuconfig.Calib()

		It("should be 7-wide", func() {
			Expect(v.FetchWidth).To(Equal(7))
			Expect(v.SquashWidth).To(Equal(7))
		})

		It("should have six integer ALUs", func() {
			u, ok := v.FUPool.Unit(cpuconfig.UnitIntALU)
			Expect(ok).To(BeTrue())
			Expect(u.Count).To(Equal(6))
		})

		It("should leave the other units at their defaults", func() {
			def := cpuconfig.IdealFUPool(cpuconfig.ISAX86)
			for i := 1; i < len(def.Units); i++ {
				Expect(v.FUPool.Units[i].Count).To(Equal(def.Units[i].Count))
			}
		})
	})

	Describe("Max", func() {
		v := cpuconfig.Max()

		It("should be 32-wide with minimal delays", func() {
			Expect(v.FetchWidth).To(Equal(32))
			Expect(v.CommitWidth).To(Equal(32))
			Expect(v.FetchToDecodeDelay).To(Equal(1))
			Expect(v.DecodeToRenameDelay).To(Equal(1))
			Expect(v.RenameToIEWDelay).To(Equal(1))
			Expect(v.IEWToCommitDelay).To(Equal(1))
		})

		It("should max the execution units but not the store and IPR ports", func() {
			for _, name := range []string{
				cpuconfig.UnitIntALU, cpuconfig.UnitIntMult, cpuconfig.UnitIntDiv,
				cpuconfig.UnitFPALU, cpuconfig.UnitFPMult, cpuconfig.UnitFPDiv,
				cpuconfig.UnitReadPort, cpuconfig.UnitSIMD,
			} {
				u, _ := v.FUPool.Unit(name)
				Expect(u.Count).To(Equal(32), name)
			}
			w, _ := v.FUPool.Unit(cpuconfig.UnitWrite)
			Expect(w.Count).To(Equal(1))
			rw, _ := v.FUPool.Unit(cpuconfig.UnitRdWr)
			Expect(rw.Count).To(Equal(0))
		})
	})

	Describe("Validate", func() {
		It("should reject a zero width", func() {
			v := cpuconfig.UnCalib()
			v.IssueWidth = 0
			Expect(v.Validate()).To(MatchError(ContainSubstring("issueWidth")))
		})

		It("should reject a negative FU count", func() {
			v := cpuconfig.UnCalib()
			v.FUPool.Units[1].Count = -1
			Expect(v.Validate()).To(HaveOccurred())
		})

		It("should reject a zero clock", func() {
			v := cpuconfig.UnCalib()
			v.Clock = 0
			Expect(v.Validate()).To(HaveOccurred())
		})
	})

	Describe("Config files", func() {
		var dir string

		BeforeEach(func() {
			var err error
			dir, err = os.MkdirTemp("", "cpuconfig-*")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			_ = os.RemoveAll(dir)
		})

		It("should round-trip a saved variant", func() {
			saved := cpuconfig.Calib()
			saved.NumROBEntries = 320
			Expect(saved.FUPool.SetCount(cpuconfig.UnitFPDiv, 2)).To(Succeed())
			path := filepath.Join(dir, "calib.yaml")
			Expect(saved.SaveConfig(path)).To(Succeed())

			loaded, err := cpuconfig.LoadConfig(path, cpuconfig.Calib())
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(saved))
		})

		It("should apply partial overrides on top of the base", func() {
			path := filepath.Join(dir, "wide.yaml")
			Expect(os.WriteFile(path, []byte("name: UnCalib\nissueWidth: 8\n"), 0644)).To(Succeed())

			loaded, err := cpuconfig.LoadConfig(path, cpuconfig.UnCalib())
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Name).To(Equal(cpuconfig.NameUnCalib))
			Expect(loaded.IssueWidth).To(Equal(8))
			Expect(loaded.FetchWidth).To(Equal(4))
		})

		It("should refuse overrides that rename the variant", func() {
			path := filepath.Join(dir, "renamed.yaml")
			Expect(os.WriteFile(path, []byte("name: Max\n"), 0644)).To(Succeed())

			_, err := cpuconfig.LoadConfig(path, cpuconfig.Calib())
			Expect(errors.Is(err, cpuconfig.ErrVariantRenamed)).To(BeTrue())
		})

		It("should refuse invalid overrides", func() {
			path := filepath.Join(dir, "bad.yaml")
			Expect(os.WriteFile(path, []byte("numROBEntries: 0\n"), 0644)).To(Succeed())

			_, err := cpuconfig.LoadConfig(path, cpuconfig.UnCalib())
			Expect(err).To(MatchError(ContainSubstring("numROBEntries")))
		})
	})

	Describe("FormatFreq", func() {
		It("should render gigahertz", func() {
			Expect(cpuconfig.FormatFreq(3 * sim.GHz)).To(Equal("3GHz"))
		})

		It("should render megahertz", func() {
			Expect(cpuconfig.FormatFreq(800 * sim.MHz)).To(Equal("800MHz"))
		})
	})
})
