package desugar

import (
	"github.com/corvid-dex/core/internal/classdef"
	"github.com/corvid-dex/core/internal/ir"
	"github.com/corvid-dex/core/internal/item"
)

// LambdaDesugaring eliminates each ir.OpInvokeDynamic lambda/method-reference
// call site in a method body, synthesizing a small class that captures the
// site's operands as fields, implements the target functional interface,
// and forwards its single abstract method to the already-compiled
// implementation method named by the call site's bootstrap handle (spec.md
// §4.4 "lambda/invoke-dynamic elimination to a synthesized class and
// invoke-static"). Grounded on the companion-synthesis shape above,
// generalized from "move an existing body" to "build a small forwarding
// body from scratch".
type LambdaDesugaring struct{}

func (LambdaDesugaring) Name() string { return "lambda-desugaring" }

func (LambdaDesugaring) NeedsDesugaring(ctx *Context) bool {
	for _, b := range ctx.Code.Blocks {
		for _, inst := range b.Instructions {
			if inst.Opcode == ir.OpInvokeDynamic {
				return true
			}
		}
	}
	return false
}

func (t LambdaDesugaring) Desugar(ctx *Context, emit EventConsumer) error {
	for _, b := range ctx.Code.Blocks {
		for _, inst := range append([]*ir.Instruction{}, b.Instructions...) {
			if inst.Opcode != ir.OpInvokeDynamic {
				continue
			}
			if err := t.desugarSite(ctx, b, inst, emit); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t LambdaDesugaring) desugarSite(ctx *Context, block *ir.BasicBlock, inst *ir.Instruction, emit EventConsumer) error {
	site := inst.CallSite
	implMethod, _ := site.BootstrapRef.FieldOrRef.(*item.DexMethod)

	ifaceType := inst.Type
	lambdaType := ctx.Pool.InternType(ctx.Names.LambdaDescriptor(ctx.Method.Ref.Holder))
	captureTypes := make([]*item.DexType, len(inst.Inputs))
	for i, v := range inst.Inputs {
		captureTypes[i] = valueType(ctx.Pool, v)
	}

	lambdaClass, ctorRef := t.synthesizeLambdaClass(ctx, lambdaType, ifaceType, site, implMethod, captureTypes)
	emit(lambdaClass)

	newInst := &ir.Instruction{Opcode: ir.OpNewInstance, Type: lambdaType}
	newVal := ctx.Code.NewInstruction(block, newInst, refType(lambdaType))

	ctorInst := &ir.Instruction{
		Opcode: ir.OpInvokeDirect,
		Method: ctorRef,
		Inputs: append([]*ir.Value{newVal}, inst.Inputs...),
	}
	ctx.Code.NewInstruction(block, ctorInst, nil)

	if inst.Output != nil {
		ctx.Code.ReplaceAllUsesWith(inst.Output, newVal)
	}
	block.RemoveInstruction(inst)
	return nil
}

// synthesizeLambdaClass builds the capture-holding class: one field per
// capture, a constructor assigning them in order, and a single SAM method
// forwarding to implMethod with captures prepended ahead of the SAM's own
// parameters (the same capture-then-params convention javac's own lambda
// desugaring uses).
func (LambdaDesugaring) synthesizeLambdaClass(
	ctx *Context, lambdaType, ifaceType *item.DexType, site *item.DexCallSite,
	implMethod *item.DexMethod, captureTypes []*item.DexType,
) (*classdef.Class, *item.DexMethod) {
	fields := make([]*classdef.EncodedField, len(captureTypes))
	fieldRefs := make([]*item.DexField, len(captureTypes))
	for i, ct := range captureTypes {
		ref := ctx.Pool.InternField(lambdaType, ct, "f$"+itoaSmall(i))
		fieldRefs[i] = ref
		fields[i] = &classdef.EncodedField{Ref: ref, Access: classdef.AccPrivate | classdef.AccFinal | classdef.AccSynthetic}
	}

	objectType := ctx.Pool.InternType("Ljava/lang/Object;")
	ctorProto := ctx.Pool.InternProto(ctx.Pool.InternType("V"), captureTypes)
	ctorRef := ctx.Pool.InternMethod(lambdaType, ctorProto, "<init>")
	ctorMethod := &classdef.EncodedMethod{
		Ref:    ctorRef,
		Access: classdef.AccPublic | classdef.AccConstructor | classdef.AccSynthetic,
	}

	samRef := ctx.Pool.InternMethod(lambdaType, site.MethodProto, site.MethodName.String())
	samMethod := &classdef.EncodedMethod{
		Ref:    samRef,
		Access: classdef.AccPublic | classdef.AccSynthetic,
	}

	lambdaClass := classdef.NewProgramClass(classdef.Class{
		Type:           lambdaType,
		Access:         classdef.AccFinal | classdef.AccSynthetic,
		SuperType:      objectType,
		Interfaces:     []*item.DexType{ifaceType},
		InstanceFields: fields,
		DirectMethods:  []*classdef.EncodedMethod{ctorMethod, samMethod},
	}, classdef.ProgramClassExtra{SynthesizedFrom: []*item.DexType{ctx.Owner.Type}})
	ctx.Graph.Add(lambdaClass)

	ctx.Bodies.Store(ctorRef, buildConstructorBody(ctx.Pool, objectType, lambdaType, fieldRefs, captureTypes))
	ctx.Bodies.Store(samRef, buildForwardingBody(ctx.Pool, lambdaType, fieldRefs, captureTypes, implMethod, site.MethodProto))
	return lambdaClass, ctorRef
}

// buildConstructorBody synthesizes `this.f$i = arg_i` for every capture
// followed by a super-constructor invoke and return-void.
func buildConstructorBody(pool *item.Pool, objectType, lambdaType *item.DexType, fieldRefs []*item.DexField, captureTypes []*item.DexType) *ir.IRCode {
	code := ir.NewIRCode(&ir.MethodContext{})
	entry := code.NewBlock()
	code.Entry = entry

	this := code.NewArgument(ir.ReferenceType(lambdaType, false))
	args := make([]*ir.Value, len(captureTypes))
	for i, ct := range captureTypes {
		args[i] = code.NewArgument(elementTypeFor(ct))
	}

	superCtorProto := pool.InternProto(pool.InternType("V"), nil)
	superCtor := pool.InternMethod(objectType, superCtorProto, "<init>")
	entry.AppendInstruction(&ir.Instruction{Opcode: ir.OpInvokeDirect, Method: superCtor, Inputs: []*ir.Value{this}})

	for i, f := range fieldRefs {
		entry.AppendInstruction(&ir.Instruction{Opcode: ir.OpInstanceFieldPut, Field: f, Inputs: []*ir.Value{this, args[i]}})
	}
	entry.AppendInstruction(&ir.Instruction{Opcode: ir.OpReturnVoid})
	return code
}

// buildForwardingBody synthesizes `return impl(f$0, ..., f$n, samArg0, ...)`
// (or a bare call + return-void for a void SAM method).
func buildForwardingBody(pool *item.Pool, lambdaType *item.DexType, fieldRefs []*item.DexField, captureTypes []*item.DexType, implMethod *item.DexMethod, samProto *item.DexProto) *ir.IRCode {
	code := ir.NewIRCode(&ir.MethodContext{})
	entry := code.NewBlock()
	code.Entry = entry

	this := code.NewArgument(ir.ReferenceType(lambdaType, false))
	loaded := make([]*ir.Value, len(fieldRefs))
	for i, f := range fieldRefs {
		getInst := &ir.Instruction{Opcode: ir.OpInstanceFieldGet, Field: f, Inputs: []*ir.Value{this}}
		loaded[i] = code.NewInstruction(entry, getInst, ptr(elementTypeFor(captureTypes[i])))
	}
	samArgs := make([]*ir.Value, len(samProto.Params))
	for i, pt := range samProto.Params {
		samArgs[i] = code.NewArgument(elementTypeFor(pt))
	}

	callInputs := append(append([]*ir.Value{}, loaded...), samArgs...)
	callInst := &ir.Instruction{Opcode: ir.OpInvokeStatic, Method: implMethod, Inputs: callInputs}
	if samProto.ReturnType.IsVoid() {
		code.NewInstruction(entry, callInst, nil)
		entry.AppendInstruction(&ir.Instruction{Opcode: ir.OpReturnVoid})
		return code
	}
	result := code.NewInstruction(entry, callInst, ptr(elementTypeFor(samProto.ReturnType)))
	entry.AppendInstruction(&ir.Instruction{Opcode: ir.OpReturn, Inputs: []*ir.Value{result}})
	return code
}

func elementTypeFor(t *item.DexType) ir.TypeElement {
	if t.IsPrimitive() {
		return ir.PrimitiveType(t)
	}
	return ir.ReferenceType(t, true)
}

func ptr(t ir.TypeElement) *ir.TypeElement { return &t }

func valueType(pool *item.Pool, v *ir.Value) *item.DexType {
	if v.Type.ClassType != nil {
		return v.Type.ClassType
	}
	if v.Type.Primitive != nil {
		return v.Type.Primitive
	}
	return pool.InternType("Ljava/lang/Object;")
}

func refType(t *item.DexType) *ir.TypeElement {
	e := ir.ReferenceType(t, false)
	return &e
}

func itoaSmall(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
