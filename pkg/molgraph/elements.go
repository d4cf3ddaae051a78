package molgraph

// elementSymbols is indexed by atomic number; index 0 is the wildcard.
var elementSymbols = [...]string{
	"*",
	"H", "He",
	"Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar",
	"K", "Ca", "Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn",
	"Ga", "Ge", "As", "Se", "Br", "Kr",
	"Rb", "Sr", "Y", "Zr", "Nb", "Mo", "Tc", "Ru", "Rh", "Pd", "Ag", "Cd",
	"In", "Sn", "Sb", "Te", "I", "Xe",
	"Cs", "Ba", "La", "Ce", "Pr", "Nd", "Pm", "Sm", "Eu", "Gd", "Tb", "Dy",
	"Ho", "Er", "Tm", "Yb", "Lu", "Hf", "Ta", "W", "Re", "Os", "Ir", "Pt",
	"Au", "Hg", "Tl", "Pb", "Bi", "Po", "At", "Rn",
}

var symbolToNum = func() map[string]int {
	m := make(map[string]int, len(elementSymbols))
	for n, s := range elementSymbols {
		if n == 0 {
			continue
		}
		m[s] = n
	}
	return m
}()

// allowedValences lists the neutral valence states used for implicit
// hydrogen assignment and valence checks.  Elements without an entry are
// never given implicit hydrogens and are not valence-checked.
var allowedValences = map[int][]int{
	1:  {1},
	2:  {0},
	3:  {1},
	4:  {2},
	5:  {3},
	6:  {4},
	7:  {3},
	8:  {2},
	9:  {1},
	10: {0},
	11: {1},
	12: {2},
	13: {3},
	14: {4},
	15: {3, 5, 7},
	16: {2, 4, 6},
	17: {1},
	18: {0},
	31: {3},
	32: {4},
	33: {3, 5, 7},
	34: {2, 4, 6},
	35: {1},
	36: {0},
	50: {2, 4},
	51: {3, 5, 7},
	52: {2, 4, 6},
	53: {1, 3, 5},
	54: {0},
}

// organicSubset holds the elements that may be written without brackets.
var organicSubset = map[int]bool{5: true, 6: true, 7: true, 8: true, 15: true, 16: true, 9: true, 17: true, 35: true, 53: true}

// aromaticSymbols holds the elements with a lowercase aromatic symbol.
var aromaticSymbols = map[int]bool{5: true, 6: true, 7: true, 8: true, 15: true, 16: true, 33: true, 34: true, 52: true}

// aromaticOrganic holds the lowercase symbols allowed outside brackets.
var aromaticOrganic = map[int]bool{5: true, 6: true, 7: true, 8: true, 15: true, 16: true}

// Symbol returns the element symbol for an atomic number, or "*" for 0 and
// unknown numbers.
func Symbol(atomicNum int) string {
	if atomicNum <= 0 || atomicNum >= len(elementSymbols) {
		return "*"
	}
	return elementSymbols[atomicNum]
}

// AtomicNumber returns the atomic number for an element symbol.
func AtomicNumber(symbol string) (int, bool) {
	n, ok := symbolToNum[symbol]
	return n, ok
}

// effectiveElement applies the isoelectronic shift used for charged
// main-group atoms: N+ behaves like C, O- like F, C- like N.
func effectiveElement(atomicNum, charge int) int {
	if charge == 0 {
		return atomicNum
	}
	if _, ok := allowedValences[atomicNum]; !ok {
		return atomicNum
	}
	eff := atomicNum - charge
	if _, ok := allowedValences[eff]; !ok {
		return atomicNum
	}
	return eff
}

func valencesFor(atomicNum, charge int) []int {
	return allowedValences[effectiveElement(atomicNum, charge)]
}

//Personal.AI order the ending
