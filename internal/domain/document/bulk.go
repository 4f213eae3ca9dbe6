package document

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ActionIndex is the bulk action that creates or replaces a document.
const ActionIndex = "index"

// Target names the index and optional type bulk lines are written to.
type Target struct {
	Index string
	Type  string
}

// BulkOptions controls metadata line generation.
type BulkOptions struct {
	// IDField, when set, copies the document's value of this field into the
	// metadata line as _id. Documents without it get an engine-assigned id.
	IDField string
}

// EncodeBulk renders docs as a newline-delimited bulk body: per document one
// metadata line followed by one source line, in input order, newline-terminated.
func EncodeBulk(target Target, docs []Document, opts BulkOptions) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, doc := range docs {
		meta := map[string]string{"_index": target.Index}
		if target.Type != "" {
			meta["_type"] = target.Type
		}
		if opts.IDField != "" {
			if id, ok := doc.ID(opts.IDField); ok {
				meta["_id"] = id
			}
		}
		// Encoder terminates every value with '\n'.
		if err := enc.Encode(map[string]any{ActionIndex: meta}); err != nil {
			return nil, fmt.Errorf("encode metadata %d: %w", i, err)
		}
		source := doc
		if source == nil {
			source = Document{}
		}
		if err := enc.Encode(source); err != nil {
			return nil, fmt.Errorf("encode document %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
