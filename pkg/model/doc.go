// Package model defines the declarative form description consumed by the
// engine: field descriptors, wizard steps and sub-form configuration. A
// descriptor plays exactly one role (leaf value field, group node, or
// group-checkbox node); see Descriptor.Role. Closures (visibility predicates,
// map controllers, item titles, custom node renderers) live alongside plain
// data so callers can describe forms in Go or bind them from definition files.
package model
