package identify

import "romshelf/internal/catalog"

// Prompter resolves identification ambiguity. Implementations decide how
// (or whether) a human gets involved; the engine only asks, it never reads
// input itself.
type Prompter interface {
	// ConfirmCandidate asks whether the file at path is the given catalog
	// entry.
	ConfirmCandidate(path string, candidate *catalog.KnownTitle) (bool, error)

	// ChooseCandidate asks which of several catalog entries the file at
	// path is. ok=false means "none of these".
	ChooseCandidate(path string, candidates []*catalog.KnownTitle) (index int, ok bool, err error)

	// SearchTerm asks for a free-text catalog search. ok=false means the
	// user gave up.
	SearchTerm(path string) (term string, ok bool, err error)
}

// NopPrompter declines every question. It keeps unattended runs moving:
// anything that would need a human stays unidentified and is retried on a
// later interactive scan.
type NopPrompter struct{}

func (NopPrompter) ConfirmCandidate(string, *catalog.KnownTitle) (bool, error) {
	return false, nil
}

func (NopPrompter) ChooseCandidate(string, []*catalog.KnownTitle) (int, bool, error) {
	return 0, false, nil
}

func (NopPrompter) SearchTerm(string) (string, bool, error) {
	return "", false, nil
}
