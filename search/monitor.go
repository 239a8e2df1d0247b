package search

import "github.com/chatvault/chatvault/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterVectorSearch(documentIDs []string)
	AfterRanking(scored []Scored)
	AfterMessageRetrieval(messages []*core.Message)
	Finish(results []*Result)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                         {}
func (n *noopMonitor) AfterVectorSearch(_ []string)           {}
func (n *noopMonitor) AfterRanking(_ []Scored)                {}
func (n *noopMonitor) AfterMessageRetrieval(_ []*core.Message) {}
func (n *noopMonitor) Finish(_ []*Result)                     {}
