package pariah

import "iter"

// Map applies fn to every document of seq. Errors pass through unchanged.
func Map[T any](seq iter.Seq2[Document, error], fn func(Document) T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for doc, err := range seq {
			var zero T
			if err != nil {
				if !yield(zero, err) {
					return
				}
				continue
			}
			if !yield(fn(doc), nil) {
				return
			}
		}
	}
}

// Select keeps the documents for which keep returns true.
func Select(seq iter.Seq2[Document, error], keep func(Document) bool) iter.Seq2[Document, error] {
	return func(yield func(Document, error) bool) {
		for doc, err := range seq {
			if err == nil && !keep(doc) {
				continue
			}
			if !yield(doc, err) {
				return
			}
		}
	}
}

// Reduce folds seq into a single value, stopping at the first error.
func Reduce[T any](seq iter.Seq2[Document, error], init T, fn func(T, Document) T) (T, error) {
	acc := init
	for doc, err := range seq {
		if err != nil {
			return acc, err
		}
		acc = fn(acc, doc)
	}
	return acc, nil
}

// Collect drains a sequence into a slice, stopping at the first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for v, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}
