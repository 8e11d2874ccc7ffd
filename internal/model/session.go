package model

import "time"

// PageDisabled are the disable flags of the wizard page actions.
type PageDisabled struct {
	Next   bool
	Retry  bool
	Prev   bool
	Cancel bool
}

// DefaultPageDisabled returns the flags of a page before anything is known: all disabled.
func DefaultPageDisabled() PageDisabled {
	return PageDisabled{Next: true, Retry: true, Prev: true, Cancel: true}
}

// Session is the persisted onboarding wizard state of a cluster.
type Session struct {
	ClusterID     string
	NodeJobID     string
	JobID         string
	Cursor        int
	SelectedNodes []Node
	PageDisabled  PageDisabled
	UpdatedAt     time.Time
}
