//go:build debug_rmlog

package rmutils

// DebugValidate panics if validatable reports an inconsistency. Without the debug_rmlog build
// tag it does nothing.
func DebugValidate(validatable Validatable) {
	if err := validatable.Validate(); err != nil {
		panic(err)
	}
}
