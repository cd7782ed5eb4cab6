package agent

// State enumerates the nodes of the answer loop. Transitions between them
// are computed by Engine.next from the session alone, so the loop is a plain
// bounded for-loop rather than a recursive graph walk.
type State int

const (
	// StateRetrieve fetches posts and builds the working document set.
	StateRetrieve State = iota
	// StateGradeDocuments filters the working set down to relevant chunks.
	StateGradeDocuments
	// StateGenerate produces a candidate answer and grades it.
	StateGenerate
	// StateTransformQuery rewrites the question for another retrieval pass.
	StateTransformQuery
	// StateTerminate ends the session.
	StateTerminate
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateRetrieve:
		return "retrieve"
	case StateGradeDocuments:
		return "grade_documents"
	case StateGenerate:
		return "generate"
	case StateTransformQuery:
		return "transform_query"
	case StateTerminate:
		return "terminate"
	default:
		return "unknown"
	}
}
