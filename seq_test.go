package pariah

import (
	"context"
	"errors"
	"iter"
	"reflect"
	"testing"
)

func docSeq(docs []Document, tail error) iter.Seq2[Document, error] {
	return func(yield func(Document, error) bool) {
		for _, d := range docs {
			if !yield(d, nil) {
				return
			}
		}
		if tail != nil {
			yield(nil, tail)
		}
	}
}

func TestSeq_MapSelectReduce(t *testing.T) {
	docs := []Document{{"n": 1}, {"n": 2}, {"n": 3}, {"n": 4}}
	even := func(d Document) bool { return d["n"].(int)%2 == 0 }
	double := func(d Document) int { return d["n"].(int) * 2 }

	got, err := Collect(Map(Select(docSeq(docs, nil), even), double))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if !reflect.DeepEqual(got, []int{4, 8}) {
		t.Errorf("got %v, want [4 8]", got)
	}

	sum, err := Reduce(docSeq(docs, nil), 0, func(acc int, d Document) int { return acc + d["n"].(int) })
	if err != nil || sum != 10 {
		t.Errorf("Reduce = %d, %v; want 10", sum, err)
	}
}

func TestSeq_ErrorsPassThrough(t *testing.T) {
	boom := errors.New("boom")
	docs := []Document{{"n": 1}}

	_, err := Collect(Map(docSeq(docs, boom), func(d Document) int { return 0 }))
	if !errors.Is(err, boom) {
		t.Errorf("Map: expected boom, got %v", err)
	}

	_, err = Collect(Select(docSeq(docs, boom), func(Document) bool { return false }))
	if !errors.Is(err, boom) {
		t.Errorf("Select: expected boom, got %v", err)
	}

	acc, err := Reduce(docSeq(docs, boom), 0, func(a int, _ Document) int { return a + 1 })
	if !errors.Is(err, boom) || acc != 1 {
		t.Errorf("Reduce = %d, %v", acc, err)
	}
}

func TestSeq_OverDataset(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	posts := c.Index("posts")
	seedPosts(t, posts)

	got, err := Collect(Map(posts.Sort(SortAsc("n")).Each(ctx), func(d Document) string { return d.String("title") }))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"Title 1", "Title 2"}) {
		t.Errorf("titles = %v", got)
	}

	bobs, err := Reduce(Select(posts.Each(ctx), func(d Document) bool { return d.String("author") == "bob" }),
		0, func(n int, _ Document) int { return n + 1 })
	if err != nil || bobs != 1 {
		t.Errorf("Reduce = %d, %v; want 1", bobs, err)
	}
}
