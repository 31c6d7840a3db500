package ir

// DebugLocalInfo names the source-level local variable a Value represents,
// when known, for debug-info emission (spec.md §3).
type DebugLocalInfo struct {
	Name string
	Type TypeElement
}

// Value is an SSA value: a unique number, an inferred type, optional debug
// local info, a defining instruction (nil for arguments and phis), and a
// user list (spec.md §3). Every non-argument, non-phi value has exactly one
// definition — Def is that instruction; IsPhi/IsArgument cover the other
// two cases.
type Value struct {
	Number     int
	Type       TypeElement
	DebugLocal *DebugLocalInfo

	def        *Instruction
	phi        *Phi
	isArgument bool

	users []*Instruction
}

func (v *Value) Def() *Instruction { return v.def }
func (v *Value) Phi() *Phi         { return v.phi }
func (v *Value) IsArgument() bool  { return v.isArgument }
func (v *Value) IsPhi() bool       { return v.phi != nil }

// Users returns the instructions that reference this value as an operand.
// Callers must not mutate the returned slice; use addUser/removeUser.
func (v *Value) Users() []*Instruction { return v.users }

func (v *Value) addUser(i *Instruction) { v.users = append(v.users, i) }

func (v *Value) removeUser(i *Instruction) {
	for idx, u := range v.users {
		if u == i {
			v.users = append(v.users[:idx], v.users[idx+1:]...)
			return
		}
	}
}

// HasUsers reports whether any instruction still references this value —
// the condition dead-code removal (pass 17) checks before deleting a
// side-effect-free defining instruction.
func (v *Value) HasUsers() bool { return len(v.users) > 0 }
