package settings

// platformDisplayAPI returns the OS display backend, or nil where none is
// implemented. A platform backend replaces this hook from its own file
// behind a build tag; tests may swap it to inject a fake.
var platformDisplayAPI = func() DisplayAPI { return nil }
