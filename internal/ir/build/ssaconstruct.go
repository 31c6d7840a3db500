package build

import "github.com/corvid-dex/core/internal/ir"

// ssaVars implements the classic incremental SSA-construction algorithm
// (Braun, Buchwald, Hack, Leißa, Mehofer, Scheidgen) generalized over an
// integer "variable" id — a DEX register number for the DEX frontend, a
// local-variable slot (or synthesized stack slot) for the class-file
// frontend. It is shared by both frontends so the per-instruction-set
// abstract-interpretation step (spec.md §4.2) only has to decide which
// variable a given instruction reads or writes, not how joins are resolved.
//
// All blocks are sealed immediately: spec.md §4.2 guarantees the input is a
// reducible flow graph, and because the whole CFG is known up front (it is
// built from already-decoded instructions, not discovered incrementally),
// every block's predecessor set is complete before SSA construction begins.
// Loop-carried reads are handled by writing a placeholder phi before
// recursing into predecessors, exactly as the algorithm requires.
type ssaVars struct {
	code        *ir.IRCode
	currentDef  map[ir.BlockID]map[int]*ir.Value
	varType     map[int]ir.TypeElement
	incomplete  map[*ir.Phi]int // phi -> variable, for phis created as loop placeholders
}

func newSSAVars(code *ir.IRCode) *ssaVars {
	return &ssaVars{
		code:       code,
		currentDef: map[ir.BlockID]map[int]*ir.Value{},
		varType:    map[int]ir.TypeElement{},
		incomplete: map[*ir.Phi]int{},
	}
}

func (s *ssaVars) writeVariable(b *ir.BasicBlock, v int, val *ir.Value) {
	m, ok := s.currentDef[b.ID]
	if !ok {
		m = map[int]*ir.Value{}
		s.currentDef[b.ID] = m
	}
	m[v] = val
	s.varType[v] = val.Type
}

func (s *ssaVars) readVariable(b *ir.BasicBlock, v int) *ir.Value {
	if m, ok := s.currentDef[b.ID]; ok {
		if val, ok := m[v]; ok {
			return val
		}
	}
	return s.readVariableRecursive(b, v)
}

func (s *ssaVars) readVariableRecursive(b *ir.BasicBlock, v int) *ir.Value {
	var val *ir.Value
	switch {
	case len(b.Predecessors) == 1:
		val = s.readVariable(b.Predecessors[0], v)
	default:
		// Create the phi first and record it as current so a cyclic read
		// (loop back-edge) terminates instead of recursing forever.
		t := s.varType[v]
		phi := b.AddPhi(s.code.NewValueNumber(), t)
		s.incomplete[phi] = v
		s.writeVariable(b, v, phi.Value())
		val = phi.Value()
		s.fillPhiOperands(phi, v)
	}
	s.writeVariable(b, v, val)
	return val
}

func (s *ssaVars) fillPhiOperands(phi *ir.Phi, v int) {
	b := phi.Block()
	for i, pred := range b.Predecessors {
		phi.SetOperand(i, s.readVariable(pred, v))
	}
}
