package wam

import (
	"fmt"
	"strings"
)

// format writes the term at ref, following bindings. Cyclic terms, which may be
// created without occurs check, are written with labels like _S1.
func (h *Heap) format(ref Ref) string {
	if ref <= 0 || int(ref) >= len(h.cells) {
		return "<nil>"
	}
	ctx := &formatCtx{
		h:       h,
		b:       new(strings.Builder),
		parents: make(map[Ref]struct{}),
		loops:   make(map[Ref]string),
	}
	ctx.formatRef(ref)
	return ctx.b.String()
}

type formatCtx struct {
	h       *Heap
	b       *strings.Builder
	parents map[Ref]struct{}
	loops   map[Ref]string
	id      int
}

func (ctx *formatCtx) formatRef(ref Ref) {
	if ref == 0 {
		ctx.b.WriteString("<nil>")
		return
	}
	ref = ctx.h.Deref(ref)
	if ctx.h.Tag(ref) == Unbound {
		fmt.Fprintf(ctx.b, "_X%d", ref)
		return
	}
	args := ctx.h.Args(ref)
	if len(args) == 0 {
		ctx.b.WriteString(ctx.h.Name(ref).String())
		return
	}
	// Handle self-reference.
	if _, ok := ctx.parents[ref]; ok {
		label, ok := ctx.loops[ref]
		if !ok {
			ctx.id++
			label = fmt.Sprintf("_S%d", ctx.id)
			ctx.loops[ref] = label
		}
		ctx.b.WriteString(label)
		return
	}
	// Add cell to parent set, and remove after return.
	ctx.parents[ref] = struct{}{}
	defer delete(ctx.parents, ref)
	ctx.b.WriteString(structName(ctx.h.Name(ref)))
	ctx.b.WriteString("(")
	for i, arg := range args {
		ctx.formatRef(arg)
		if i < len(args)-1 {
			ctx.b.WriteString(", ")
		}
	}
	ctx.b.WriteString(")")
	// Annotate parents that loop.
	if label, ok := ctx.loops[ref]; ok {
		delete(ctx.loops, ref)
		fmt.Fprintf(ctx.b, "=%s", label)
	}
}
