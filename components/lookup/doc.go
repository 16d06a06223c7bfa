// Package lookup serves option lists over HTTP in the shape form remote
// sources consume: GET <route>/<name> answers {"data":[{"value","label"}]}.
//
// Lists come from Providers registered by name. A query parameter filters by
// label or value (prefix matches first) and a limit parameter caps the result.
// SourceFor builds the matching remote source declaration so a form can point
// at a mounted component without repeating the route and mapping.
package lookup
