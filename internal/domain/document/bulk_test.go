package document

import (
	"strings"
	"testing"
)

func TestEncodeBulk_IndexLines(t *testing.T) {
	docs := []Document{
		{"title": "Title 1", "comments_count": 5},
		{"title": "Title 2", "comments_count": 9},
	}
	body, err := EncodeBulk(Target{Index: "posts", Type: "post"}, docs, BulkOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `{"index":{"_index":"posts","_type":"post"}}` + "\n" +
		`{"comments_count":5,"title":"Title 1"}` + "\n" +
		`{"index":{"_index":"posts","_type":"post"}}` + "\n" +
		`{"comments_count":9,"title":"Title 2"}` + "\n"
	if string(body) != want {
		t.Errorf("body =\n%s\nwant\n%s", body, want)
	}
}

func TestEncodeBulk_UpsertIDs(t *testing.T) {
	docs := []Document{
		{"id": "a1", "title": "x"},
		{"id": 7, "title": "y"},
		{"title": "no id"},
	}
	body, err := EncodeBulk(Target{Index: "posts"}, docs, BulkOptions{IDField: DefaultIDField})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(string(body), "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d lines, want 6", len(lines))
	}
	if lines[0] != `{"index":{"_id":"a1","_index":"posts"}}` {
		t.Errorf("line 0 = %s", lines[0])
	}
	if lines[2] != `{"index":{"_id":"7","_index":"posts"}}` {
		t.Errorf("line 2 = %s", lines[2])
	}
	if lines[4] != `{"index":{"_index":"posts"}}` {
		t.Errorf("line 4 = %s", lines[4])
	}
}

func TestEncodeBulk_Empty(t *testing.T) {
	body, err := EncodeBulk(Target{Index: "posts"}, nil, BulkOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(body) != 0 {
		t.Errorf("body = %q, want empty", body)
	}
}

func TestEncodeBulk_NoHTMLEscape(t *testing.T) {
	body, err := EncodeBulk(Target{Index: "i"}, []Document{{"t": "<a&b>"}}, BulkOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(body), `"<a&b>"`) {
		t.Errorf("body = %s", body)
	}
}

func TestDocumentID(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		id   string
		ok   bool
	}{
		{"string", Document{"id": "x"}, "x", true},
		{"empty string", Document{"id": ""}, "", false},
		{"int", Document{"id": 42}, "42", true},
		{"float", Document{"id": float64(3)}, "3", true},
		{"missing", Document{}, "", false},
		{"nil", Document{"id": nil}, "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id, ok := tc.doc.ID("id")
			if id != tc.id || ok != tc.ok {
				t.Errorf("ID() = %q, %v; want %q, %v", id, ok, tc.id, tc.ok)
			}
		})
	}
}
