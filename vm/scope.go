package vm

import (
	"github.com/cloudcmds/framevm/errz"
	"github.com/cloudcmds/framevm/object"
)

// scope holds the three name mappings visible to a frame. locals is owned by
// the frame, globals is shared with every frame created from the same
// program and builtins is never written.
type scope struct {
	locals   map[string]object.Object
	globals  map[string]object.Object
	builtins map[string]object.Object
}

func nameError(name string) error {
	return errz.New(errz.ErrName, "name '%s' is not defined", name)
}

func unboundLocal(name string) error {
	return errz.New(errz.ErrUnboundLocal, "local variable '%s' referenced before assignment", name)
}

// loadName resolves locals first, then builtins, then globals.
func (s *scope) loadName(name string) (object.Object, error) {
	if obj, ok := s.locals[name]; ok {
		return obj, nil
	}
	if obj, ok := s.builtins[name]; ok {
		return obj, nil
	}
	if obj, ok := s.globals[name]; ok {
		return obj, nil
	}
	return nil, nameError(name)
}

// loadFast resolves declared locals only.
func (s *scope) loadFast(name string) (object.Object, error) {
	if obj, ok := s.locals[name]; ok {
		return obj, nil
	}
	return nil, unboundLocal(name)
}

// loadGlobal resolves globals first, then builtins.
func (s *scope) loadGlobal(name string) (object.Object, error) {
	if obj, ok := s.globals[name]; ok {
		return obj, nil
	}
	if obj, ok := s.builtins[name]; ok {
		return obj, nil
	}
	return nil, nameError(name)
}

func (s *scope) storeLocal(name string, obj object.Object) {
	s.locals[name] = obj
}

func (s *scope) storeGlobal(name string, obj object.Object) {
	s.globals[name] = obj
}

func (s *scope) deleteName(name string) error {
	if _, ok := s.locals[name]; !ok {
		return nameError(name)
	}
	delete(s.locals, name)
	return nil
}

func (s *scope) deleteFast(name string) error {
	if _, ok := s.locals[name]; !ok {
		return unboundLocal(name)
	}
	delete(s.locals, name)
	return nil
}

func (s *scope) deleteGlobal(name string) error {
	if _, ok := s.globals[name]; !ok {
		return nameError(name)
	}
	delete(s.globals, name)
	return nil
}

// snapshot copies the locals mapping by value.
func (s *scope) snapshot() map[string]object.Object {
	result := make(map[string]object.Object, len(s.locals))
	for name, obj := range s.locals {
		result[name] = obj
	}
	return result
}
