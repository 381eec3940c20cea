package model

// Decorator post-processes a parsed form definition before it is handed to
// the engine (compiling shorthand conditions, filling defaults, ...).
type Decorator interface {
	Decorate(*FormDefinition) error
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func(*FormDefinition) error

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(def *FormDefinition) error {
	return fn(def)
}
