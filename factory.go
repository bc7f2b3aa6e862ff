package ecsx

// factory implements the factory pattern for ecsx's top-level constructors.
type factory struct{}

// Factory is the package's global factory instance.
var Factory factory

// NewWorld constructs an empty World.
func (f factory) NewWorld() *World {
	return NewWorld()
}
