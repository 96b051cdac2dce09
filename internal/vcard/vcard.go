// Package vcard is a bidirectional translator between vCard text (versions
// 2.1, 3.0, and 4.0) and the normalized contact record.
//
// Decoding is strict and all-or-nothing per fragment: a fragment either
// validates and decodes completely or is rejected with a typed error.
// Batches follow the same policy across fragments; one bad vCard in an
// upload fails the whole batch with the full error list. Encoding always
// produces vCard 4.0 text.
//
// The package performs no I/O and holds no shared state; every call operates
// on its own input.
package vcard

import (
	"golang.org/x/sync/errgroup"

	"gitea.jw6.us/james/rolodex/internal/contact"
)

// Decode parses a blob of one or more concatenated vCards into normalized
// contacts, in fragment order. When any fragment fails, the returned error is
// a DecodeErrors listing every failed fragment and no contacts are returned.
func Decode(blob string) ([]*contact.Contact, error) {
	fragments := SplitEntries(blob)
	contacts := make([]*contact.Contact, 0, len(fragments))
	var errs DecodeErrors

	for i, fragment := range fragments {
		c, err := DecodeFragment(fragment)
		if err != nil {
			errs = append(errs, &FragmentError{Index: i, Err: err})
			continue
		}
		contacts = append(contacts, c)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return contacts, nil
}

// DecodeParallel is Decode with fragments decoded concurrently by up to
// workers goroutines. Results are collected back into fragment order before
// being returned; the error policy is identical to Decode.
func DecodeParallel(blob string, workers int) ([]*contact.Contact, error) {
	fragments := SplitEntries(blob)
	if workers < 1 {
		workers = 1
	}

	results := make([]*contact.Contact, len(fragments))
	fragErrs := make([]error, len(fragments))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, fragment := range fragments {
		g.Go(func() error {
			results[i], fragErrs[i] = DecodeFragment(fragment)
			return nil
		})
	}
	_ = g.Wait()

	contacts := make([]*contact.Contact, 0, len(fragments))
	var errs DecodeErrors
	for i := range fragments {
		if fragErrs[i] != nil {
			errs = append(errs, &FragmentError{Index: i, Err: fragErrs[i]})
			continue
		}
		contacts = append(contacts, results[i])
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return contacts, nil
}

// DecodeFragment validates, decodes, and normalizes a single vCard fragment.
func DecodeFragment(fragment string) (*contact.Contact, error) {
	lines := splitLogicalLines(fragment)
	if err := validate(lines); err != nil {
		return nil, err
	}
	card, err := decode(lines, detectVersion(lines))
	if err != nil {
		return nil, err
	}
	return Normalize(card), nil
}
