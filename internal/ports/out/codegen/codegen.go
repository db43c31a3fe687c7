package codegen

// Generator supplies unique, unguessable, URL-safe strings.
type Generator interface {
	NewCode() string
}
