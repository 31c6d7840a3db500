package desugar

import (
	"github.com/corvid-dex/core/internal/classdef"
	"github.com/corvid-dex/core/internal/item"
)

// InterfaceCompanionSynthesis moves a default, static, or private interface
// method's body into a static method on the interface's `$-CC` companion
// class (spec.md §4.4 item 20). The matching call-site rewrite lives in
// optimize.InterfaceMethodRewritingPass (pass 20), which independently
// derives the same companion descriptor from the naming convention; this
// transformation is what makes that target actually exist with a body.
type InterfaceCompanionSynthesis struct{}

func (InterfaceCompanionSynthesis) Name() string { return "interface-companion-synthesis" }

func (InterfaceCompanionSynthesis) NeedsDesugaring(ctx *Context) bool {
	return ctx.Owner != nil &&
		ctx.Owner.Kind == classdef.KindProgram &&
		ctx.Owner.Access.IsInterface() &&
		!ctx.Method.Access.IsAbstract()
}

func (t InterfaceCompanionSynthesis) Desugar(ctx *Context, emit EventConsumer) error {
	companionType := ctx.Pool.InternType(CompanionDescriptor(ctx.Owner.Type))
	companion := ctx.Graph.DefinitionFor(companionType)
	justCreated := companion == nil
	if justCreated {
		companion = classdef.NewProgramClass(classdef.Class{
			Type:      companionType,
			Access:    classdef.AccPublic | classdef.AccFinal | classdef.AccSynthetic,
			SuperType: ctx.Pool.InternType("Ljava/lang/Object;"),
		}, classdef.ProgramClassExtra{SynthesizedFrom: []*item.DexType{ctx.Owner.Type}})
		ctx.Graph.Add(companion)
	}

	isStatic := ctx.Method.Access.IsStatic()
	params := ctx.Method.Ref.Proto.Params
	if !isStatic {
		params = prependReceiverType(ctx.Owner.Type, params)
	}
	companionProto := ctx.Pool.InternProto(ctx.Method.Ref.Proto.ReturnType, params)
	companionRef := ctx.Pool.InternMethod(companionType, companionProto, ctx.Method.Ref.Name.String())

	companionMethod := &classdef.EncodedMethod{
		Ref:              companionRef,
		Access:           classdef.AccPublic | classdef.AccStatic | classdef.AccSynthetic,
		GenericSignature: ctx.Method.GenericSignature,
	}
	companion.DirectMethods = append(companion.DirectMethods, companionMethod)
	ctx.Bodies.Store(companionRef, ctx.Code)
	ctx.Builder.RenameMethod(ctx.Method.Ref, companionRef)

	if justCreated {
		emit(companion)
	}
	return nil
}

// prependReceiverType mirrors optimize.InterfaceMethodRewritingPass's own
// helper of the same shape; kept duplicated (not shared) since the two
// packages must not import each other, but both must independently derive
// the identical companion proto shape from the same convention.
func prependReceiverType(receiver *item.DexType, params []*item.DexType) []*item.DexType {
	out := make([]*item.DexType, 0, len(params)+1)
	out = append(out, receiver)
	out = append(out, params...)
	return out
}
