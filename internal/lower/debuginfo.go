package lower

import (
	"github.com/corvid-dex/core/internal/classdef"
	"github.com/corvid-dex/core/internal/ir"
	"github.com/corvid-dex/core/internal/item"
)

// lowerDebugInfo builds the compact debug-info event stream (spec.md §4.8):
// a start-local event for every value carrying source-level local info
// (arguments first, then definitions in block/instruction order), and a
// closing end-sequence. Source line numbers are not threaded through
// ir.Instruction — no pass or builder in this core attaches one, since the
// line-table producer is out of scope per spec.md §1 — so every event's
// line delta is left at zero rather than fabricated, and LineStart is
// likewise 0. This still gives the DEX writer (out of scope) a faithful
// local-variable table, just not a line-number program.
func lowerDebugInfo(code *ir.IRCode, ra *RegisterAllocation, pool *item.Pool) *classdef.DebugInfo {
	info := &classdef.DebugInfo{LineStart: 0}

	for _, arg := range code.Args {
		if arg.DebugLocal == nil {
			info.ParamNames = append(info.ParamNames, nil)
			continue
		}
		info.ParamNames = append(info.ParamNames, pool.InternString(arg.DebugLocal.Name))
		info.Events = append(info.Events, classdef.DebugEvent{
			Kind:        classdef.DebugStartLocal,
			RegisterNum: ra.Register(arg),
			LocalName:   pool.InternString(arg.DebugLocal.Name),
			LocalType:   arg.DebugLocal.Type.ClassType,
		})
	}

	addr := uint32(0)
	for _, b := range code.Blocks {
		for _, inst := range b.Instructions {
			addr++
			if inst.Output == nil || inst.Output.DebugLocal == nil {
				continue
			}
			info.Events = append(info.Events, classdef.DebugEvent{
				Kind:        classdef.DebugStartLocal,
				AddrDelta:   addr,
				RegisterNum: ra.Register(inst.Output),
				LocalName:   pool.InternString(inst.Output.DebugLocal.Name),
				LocalType:   inst.Output.DebugLocal.Type.ClassType,
			})
		}
	}
	info.Events = append(info.Events, classdef.DebugEvent{Kind: classdef.DebugEndSequence})
	return info
}
