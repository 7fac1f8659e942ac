package interp

import (
	"sync"

	"hemlock/internal/ast"
	"hemlock/internal/value"
)

// typeRegistry holds the duck types declared by `define`. It hangs off the
// Interp rather than a package global so independent runtimes never share
// declarations.
type typeRegistry struct {
	mu    sync.RWMutex
	specs map[string]*ast.TypeDeclaration
}

func newTypeRegistry() *typeRegistry {
	return &typeRegistry{specs: map[string]*ast.TypeDeclaration{}}
}

func (r *typeRegistry) define(decl *ast.TypeDeclaration) *value.RuntimeError {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.specs[decl.Name]; exists {
		return value.Errorf(value.TypeError, "type %s already defined", decl.Name)
	}
	r.specs[decl.Name] = decl
	return nil
}

func (r *typeRegistry) lookup(name string) (*ast.TypeDeclaration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.specs[name]
	return spec, ok
}

// convertDeclared applies a declared type at a let/parameter/return
// boundary and returns an owned value: range-checked conversion for numeric
// kinds, a kind check for the other built-in kinds, duck-type validation for
// registered type names.
func (in *Interp) convertDeclared(v value.Value, typeName string, env *value.Environment) (value.Value, *value.RuntimeError) {
	if kind, ok := value.KindFromName(typeName); ok {
		if value.IsIntegerKind(kind) || value.IsFloatKind(kind) {
			return value.Convert(v, kind)
		}
		if v.Kind != kind {
			return value.Value{}, value.Errorf(value.TypeError, "expected %s, got %s", typeName, v.Kind)
		}
		return value.Retain(v), nil
	}

	spec, ok := in.types.lookup(typeName)
	if !ok {
		return value.Value{}, value.Errorf(value.TypeError, "unknown type %s", typeName)
	}
	if err := in.validateObject(v, spec, env); err != nil {
		return value.Value{}, err
	}
	return value.Retain(v), nil
}

// validateObject checks v against a duck type: required fields present with
// compatible kinds (numeric fields are converted in place, range-checked),
// missing optional fields filled from their declared defaults, extra fields
// left alone, and the type name stamped for introspection.
func (in *Interp) validateObject(v value.Value, spec *ast.TypeDeclaration, env *value.Environment) *value.RuntimeError {
	if v.Kind != value.KindObject {
		return value.Errorf(value.TypeError, "expected %s, got %s", spec.Name, v.Kind)
	}
	obj := v.ObjectRef()

	for _, field := range spec.Fields {
		fv, present := obj.Get(field.Name)
		if !present {
			if !field.Optional {
				return value.Errorf(value.TypeError, "%s is missing required field %s", spec.Name, field.Name)
			}
			if field.Default == nil {
				obj.Set(field.Name, value.Null())
				continue
			}
			def, err := in.evalExpr(field.Default, env)
			if err != nil {
				return err
			}
			obj.Set(field.Name, def)
			value.Release(def)
			continue
		}

		if field.TypeName == "" {
			value.Release(fv)
			continue
		}
		converted, err := in.convertDeclared(fv, field.TypeName, env)
		value.Release(fv)
		if err != nil {
			detail := err.Message()
			err.Release()
			return value.Errorf(value.TypeError, "%s.%s: %s", spec.Name, field.Name, detail)
		}
		obj.Set(field.Name, converted)
		value.Release(converted)
	}

	obj.SetTypeName(spec.Name)
	return nil
}
