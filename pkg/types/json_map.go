package types

// JSONMap is a free-form metadata bag persisted as jsonb. Gift records use
// it to carry oracle-provided fields (confidence, reasoning, tags) that are
// never required for correctness.
type JSONMap map[string]any
