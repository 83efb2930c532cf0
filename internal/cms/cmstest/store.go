// Package cmstest provides an in-memory DocumentStore for tests.
package cmstest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"upfitter/showroom/internal/cms"
)

// Store keeps documents in memory and records every committed transaction.
type Store struct {
	mu      sync.Mutex
	docs    map[string]cms.Document
	revSeq  int
	Commits [][]cms.Mutation

	// FailCommit, when set, is consulted before each commit; a non-nil
	// error rejects the whole transaction.
	FailCommit func(n int, mutations []cms.Mutation) error
}

var _ cms.DocumentStore = (*Store)(nil)

func NewStore(docs ...cms.Document) *Store {
	s := &Store{docs: make(map[string]cms.Document)}
	for _, d := range docs {
		s.put(d)
	}
	return s
}

func (s *Store) put(d cms.Document) {
	s.revSeq++
	cp := copyDoc(d)
	cp["_rev"] = fmt.Sprintf("rev-%d", s.revSeq)
	s.docs[d.ID()] = cp
}

// Documents returns copies of all documents sorted by id.
func (s *Store) Documents() []cms.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]cms.Document, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, copyDoc(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Get returns a copy of the document with the given id, or nil.
func (s *Store) Get(id string) cms.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.docs[id]; ok {
		return copyDoc(d)
	}
	return nil
}

// MutationCount counts committed mutations of the given kind.
func (s *Store) MutationCount(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, tx := range s.Commits {
		for _, m := range tx {
			if m.Kind() == kind {
				n++
			}
		}
	}
	return n
}

func (s *Store) FetchByTypes(_ context.Context, types []string) ([]cms.Document, error) {
	want := make(map[string]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	var out []cms.Document
	for _, d := range s.Documents() {
		if want[d.Type()] {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *Store) FindBySlug(_ context.Context, docType, slug string) (cms.Document, error) {
	for _, d := range s.Documents() {
		if d.Type() == docType && d.Slug() == slug {
			return d, nil
		}
	}
	return nil, nil
}

func (s *Store) FindWithStringField(_ context.Context, docType, field string) ([]cms.Document, error) {
	var out []cms.Document
	for _, d := range s.Documents() {
		if d.Type() != docType {
			continue
		}
		if _, ok := d[field].(string); ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *Store) Commit(_ context.Context, mutations []cms.Mutation) (*cms.MutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailCommit != nil {
		if err := s.FailCommit(len(s.Commits), mutations); err != nil {
			return nil, err
		}
	}

	// Validate first so a bad mutation rejects the whole transaction.
	for _, m := range mutations {
		switch {
		case m.Create != nil:
			if _, exists := s.docs[m.Create.ID()]; exists {
				return nil, &cms.Error{Code: cms.ErrCodeMutationError, Message: "document already exists", Details: m.Create.ID()}
			}
		case m.Patch != nil:
			if _, exists := s.docs[m.Patch.ID]; !exists {
				return nil, &cms.Error{Code: cms.ErrCodeMutationError, Message: "document not found", Details: m.Patch.ID}
			}
		}
		if m.DocumentID() == "" {
			return nil, &cms.Error{Code: cms.ErrCodeMutationError, Message: "mutation without document id"}
		}
	}

	result := &cms.MutationResult{TransactionID: fmt.Sprintf("tx-%d", len(s.Commits)+1)}
	for _, m := range mutations {
		op := "update"
		switch {
		case m.Create != nil:
			s.put(m.Create)
			op = "create"
		case m.CreateOrReplace != nil:
			if _, exists := s.docs[m.CreateOrReplace.ID()]; !exists {
				op = "create"
			}
			s.put(m.CreateOrReplace)
		case m.CreateIfNotExists != nil:
			if _, exists := s.docs[m.CreateIfNotExists.ID()]; !exists {
				s.put(m.CreateIfNotExists)
				op = "create"
			} else {
				op = "none"
			}
		case m.Patch != nil:
			d := s.docs[m.Patch.ID]
			for k, v := range m.Patch.Set {
				d[k] = v
			}
			for _, k := range m.Patch.Unset {
				delete(d, k)
			}
			s.put(d)
		case m.Delete != nil:
			delete(s.docs, m.Delete.ID)
			op = "delete"
		}
		result.Results = append(result.Results, struct {
			ID        string `json:"id"`
			Operation string `json:"operation"`
		}{ID: m.DocumentID(), Operation: op})
	}

	s.Commits = append(s.Commits, mutations)
	return result, nil
}

func copyDoc(d cms.Document) cms.Document {
	out := make(cms.Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
