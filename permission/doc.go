// Package permission evaluates a static role table: feature/action grants,
// navigation visibility, and route entry with parameterized path patterns.
//
// # Table
//
// A [Table] is loaded once at start-up (JSON or YAML), validated, and never
// mutated. Path patterns are compiled at load time; a `:name` placeholder
// matches exactly one non-empty segment without a slash.
//
// # Architecture boundaries
//
// [Checker] is pure: every answer is derived from the table and the role
// reported by a [RoleSource] at call time. Missing roles, features, actions, or
// navigation keys resolve to false, never to an error.
//
// # What this package must NOT do
//
//   - Perform I/O after loading.
//   - Import session, guard, or transport.
//   - Infer capabilities from an ordering of roles.
package permission
