package lower

import (
	"github.com/corvid-dex/core/internal/classdef"
	"github.com/corvid-dex/core/internal/ir"
)

// lowerTryTable derives DEX try-ranges and catch-handler entries from the
// blocks' CatchHandlers lists (spec.md §4.8). Each maximal run of
// consecutive blocks sharing the same (non-empty) handler set becomes one
// TryItem spanning that run's instruction-index range; handler sets are
// deduplicated into EncodedCatchHandler entries and shared by index,
// matching the real DEX encoded_catch_handler_list's dedup convention.
func lowerTryTable(code *ir.IRCode, blockStart map[ir.BlockID]int) ([]classdef.TryItem, []classdef.EncodedCatchHandler) {
	var tries []classdef.TryItem
	var handlers []classdef.EncodedCatchHandler
	handlerIndex := map[string]int{}

	var run []*ir.BasicBlock
	flushRun := func() {
		if len(run) == 0 {
			return
		}
		start := blockStart[run[0].ID]
		end := blockStart[run[len(run)-1].ID] + len(run[len(run)-1].Instructions)
		key, pairs, catchAll := handlerKey(run[0].CatchHandlers, blockStart)
		idx, ok := handlerIndex[key]
		if !ok {
			idx = len(handlers)
			handlerIndex[key] = idx
			handlers = append(handlers, classdef.EncodedCatchHandler{Pairs: pairs, CatchAllAddr: catchAll})
		}
		tries = append(tries, classdef.TryItem{
			StartAddr:  uint32(start),
			InsnCount:  uint16(end - start),
			HandlerIdx: idx,
		})
		run = nil
	}

	var prevKey string
	for _, b := range code.Blocks {
		if len(b.CatchHandlers) == 0 {
			flushRun()
			prevKey = ""
			continue
		}
		key, _, _ := handlerKey(b.CatchHandlers, blockStart)
		if len(run) > 0 && key != prevKey {
			flushRun()
		}
		run = append(run, b)
		prevKey = key
	}
	flushRun()

	return tries, handlers
}

// handlerKey renders a block's catch-handler list into a string uniquely
// identifying its (type, handler address) set, used only to dedup entries
// in the handlers table — not emitted anywhere itself.
func handlerKey(chs []ir.CatchHandler, blockStart map[ir.BlockID]int) (string, []classdef.TypeAddrPair, int64) {
	key := ""
	var pairs []classdef.TypeAddrPair
	catchAll := int64(-1)
	for _, ch := range chs {
		addr := blockStart[ch.Handler.ID]
		if ch.ExceptionType == nil {
			catchAll = int64(addr)
			key += "*:" + itoaKey(addr) + ";"
			continue
		}
		pairs = append(pairs, classdef.TypeAddrPair{ExceptionType: ch.ExceptionType, HandlerAddr: uint32(addr)})
		key += ch.ExceptionType.Descriptor() + ":" + itoaKey(addr) + ";"
	}
	return key, pairs, catchAll
}

func itoaKey(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
