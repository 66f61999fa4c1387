// Package symbolgraph is the read-only object model handed to the renderer:
// namespaces, types, members, type references and constant values.
//
// Loaders build a Graph once; every other package only reads it. Members and
// type references are closed sum types. Code that switches over them must
// keep a default arm that reports an invariant violation.
package symbolgraph
