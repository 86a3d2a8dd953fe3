// Package serializer renders command output as JSON, YAML or a table and
// writes it to stdout, a file, or a Kubernetes ConfigMap.
//
// Destinations are selected by URI:
//
//	""  or "-"            stdout
//	/path/to/file.json    local file (truncated on open)
//	cm://namespace/name   ConfigMap data key, created or updated
//
// Table output uses the Tabular interface when the value implements it and
// falls back to a two column FIELD/VALUE listing of flattened keys otherwise.
package serializer
