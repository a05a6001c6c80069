package rmutils

// Validatable is anything that can check its own internal consistency, such as an index
// after it has been built
type Validatable interface {
	Validate() error
}
