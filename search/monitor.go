package search

// RetrievalMonitor provides hooks to observe a retrieval.
// Implement this interface to trace how chunks were scored.
type RetrievalMonitor interface {
	Start(query string, tokens []string, authorQuery bool)
	Scored(index int, score int)
	Finish(results []Scored)
}

// noopMonitor is a no-op implementation of RetrievalMonitor
type noopMonitor struct{}

var _ RetrievalMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ []string, _ bool) {}
func (n *noopMonitor) Scored(_ int, _ int)                {}
func (n *noopMonitor) Finish(_ []Scored)                  {}
