// Package archive stores generated documents and their folder assignment.
//
// Every document appears once in the archive list and in exactly one of the
// three folder buckets. Documents are never deleted; only their folder changes.
package archive

import (
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/signal-archive/internal/core"
	"github.com/vovakirdan/signal-archive/internal/registry"
)

// Folder names a document bucket.
type Folder string

const (
	Inbox    Folder = "inbox"
	Archived Folder = "archived"
	Priority Folder = "priority"
)

// Folders lists the buckets in display order.
var Folders = []Folder{Inbox, Archived, Priority}

// Valid reports whether f is one of the known folders.
func (f Folder) Valid() bool {
	switch f {
	case Inbox, Archived, Priority:
		return true
	}
	return false
}

var (
	ErrUnknownDocument = errors.New("archive: unknown document")
	ErrUnknownFolder   = errors.New("archive: unknown folder")
	ErrInconsistent    = errors.New("archive: inconsistent folders")
)

// Document is one generated record. Everything but Folder is fixed at
// creation.
type Document struct {
	Seq       int           `json:"seq"`
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Type      registry.Type `json:"type"`
	Frequency string        `json:"frequency"`
	CreatedAt time.Time     `json:"timestamp"`
	Content   string        `json:"content"`
	Folder    Folder        `json:"folder"`
}

// DocID formats the ID of the document with the given sequence number.
func DocID(seq int) string {
	return fmt.Sprintf("doc_%04d", seq)
}

// Archive owns the document list and folder buckets. Not safe for concurrent
// use.
type Archive struct {
	docs    []Document
	index   map[string]int
	folders map[Folder][]string
	nextSeq int

	templates *registry.Registry
	rng       core.Rand
	clock     core.Clock
}

// New creates an empty archive generating content from templates.
// A nil registry uses registry.Default; a nil clock uses the system clock.
func New(templates *registry.Registry, rng core.Rand, clock core.Clock) *Archive {
	if templates == nil {
		templates = registry.Default
	}
	if clock == nil {
		clock = core.SystemClock{}
	}
	a := &Archive{templates: templates, rng: rng, clock: clock}
	a.reset()
	return a
}

func (a *Archive) reset() {
	a.docs = nil
	a.index = make(map[string]int)
	a.folders = make(map[Folder][]string, len(Folders))
	for _, f := range Folders {
		a.folders[f] = nil
	}
	a.nextSeq = 0
}

// Generate creates the next document and files it in the inbox. Content comes
// from the keyed template for (typ, key), else a random generic template of
// typ, else a minimal fallback record. It never fails.
func (a *Archive) Generate(typ registry.Type, frequency, key string) Document {
	seq := a.nextSeq
	id := DocID(seq)
	now := a.clock.Now()

	ctx := registry.Context{
		DocID:      id,
		Seq:        seq,
		Frequency:  frequency,
		Now:        now,
		Rand:       a.rng,
		PriorCount: len(a.docs),
		Ref:        DocID,
	}
	content := a.templates.Resolve(typ, key, a.rng)(ctx)

	doc := Document{
		Seq:       seq,
		ID:        id,
		Name:      id + ".txt",
		Type:      typ,
		Frequency: frequency,
		CreatedAt: now,
		Content:   content,
		Folder:    Inbox,
	}
	a.index[id] = len(a.docs)
	a.docs = append(a.docs, doc)
	a.folders[Inbox] = append(a.folders[Inbox], id)
	a.nextSeq++
	return doc
}

// Move reassigns a document to another folder. Moving to the current folder
// is a no-op. Unknown documents or folders leave the archive untouched.
func (a *Archive) Move(id string, to Folder) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFolder, to)
	}
	i, ok := a.index[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDocument, id)
	}
	from := a.docs[i].Folder
	if from == to {
		return nil
	}

	a.folders[from] = without(a.folders[from], id)
	a.folders[to] = append(a.folders[to], id)
	a.docs[i].Folder = to
	return nil
}

func without(ids []string, id string) []string {
	out := ids[:0:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

// Len returns the number of documents.
func (a *Archive) Len() int {
	return len(a.docs)
}

// Find returns the document with the given ID.
func (a *Archive) Find(id string) (Document, bool) {
	i, ok := a.index[id]
	if !ok {
		return Document{}, false
	}
	return a.docs[i], true
}

// Documents returns a copy of all documents in creation order.
func (a *Archive) Documents() []Document {
	out := make([]Document, len(a.docs))
	copy(out, a.docs)
	return out
}

// Folder returns the documents of a folder in the order they were filed.
func (a *Archive) Folder(f Folder) []Document {
	ids := a.folders[f]
	out := make([]Document, 0, len(ids))
	for _, id := range ids {
		out = append(out, a.docs[a.index[id]])
	}
	return out
}

// FolderIDs returns a copy of every bucket's document IDs.
func (a *Archive) FolderIDs() map[Folder][]string {
	out := make(map[Folder][]string, len(a.folders))
	for f, ids := range a.folders {
		out[f] = append([]string{}, ids...)
	}
	return out
}

// Counts returns the number of documents per folder.
func (a *Archive) Counts() map[Folder]int {
	out := make(map[Folder]int, len(a.folders))
	for _, f := range Folders {
		out[f] = len(a.folders[f])
	}
	return out
}

// Validate checks that every document is listed exactly once in exactly one
// bucket and that each bucket agrees with the document's Folder field.
func (a *Archive) Validate() error {
	return validate(a.docs, a.folders)
}

func validate(docs []Document, folders map[Folder][]string) error {
	owner := make(map[string]Folder, len(docs))
	for _, d := range docs {
		if d.ID == "" {
			return fmt.Errorf("%w: document without id", ErrInconsistent)
		}
		if _, dup := owner[d.ID]; dup {
			return fmt.Errorf("%w: duplicate document %s", ErrInconsistent, d.ID)
		}
		owner[d.ID] = ""
	}

	for f, ids := range folders {
		if !f.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownFolder, f)
		}
		for _, id := range ids {
			prev, known := owner[id]
			if !known {
				return fmt.Errorf("%w: folder %s lists unknown document %s", ErrInconsistent, f, id)
			}
			if prev != "" {
				return fmt.Errorf("%w: document %s in both %s and %s", ErrInconsistent, id, prev, f)
			}
			owner[id] = f
		}
	}

	for _, d := range docs {
		f := owner[d.ID]
		if f == "" {
			return fmt.Errorf("%w: document %s is in no folder", ErrInconsistent, d.ID)
		}
		if d.Folder != "" && d.Folder != f {
			return fmt.Errorf("%w: document %s says %s but is filed in %s", ErrInconsistent, d.ID, d.Folder, f)
		}
	}
	return nil
}

// Restore replaces the archive contents with persisted documents. A nil
// folders map is rebuilt from each document's Folder field (empty means
// inbox). On error the archive is left unchanged.
func (a *Archive) Restore(docs []Document, folders map[Folder][]string) error {
	docs = append([]Document{}, docs...)

	if folders == nil {
		folders = make(map[Folder][]string, len(Folders))
		for i := range docs {
			if docs[i].Folder == "" {
				docs[i].Folder = Inbox
			}
			if !docs[i].Folder.Valid() {
				return fmt.Errorf("%w: %q on %s", ErrUnknownFolder, docs[i].Folder, docs[i].ID)
			}
			folders[docs[i].Folder] = append(folders[docs[i].Folder], docs[i].ID)
		}
	}
	if err := validate(docs, folders); err != nil {
		return err
	}

	a.reset()
	for i, d := range docs {
		a.index[d.ID] = i
		if d.Seq >= a.nextSeq {
			a.nextSeq = d.Seq + 1
		}
	}
	for f, ids := range folders {
		a.folders[f] = append([]string{}, ids...)
		for _, id := range ids {
			docs[a.index[id]].Folder = f
		}
	}
	a.docs = docs
	if a.nextSeq < len(docs) {
		a.nextSeq = len(docs)
	}
	return nil
}

// Clear removes every document. Used by a full reset only.
func (a *Archive) Clear() {
	a.reset()
}
